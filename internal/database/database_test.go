package database_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/shopspring/decimal"

	"github.com/bigbiz/catalog-api/internal/config"
	"github.com/bigbiz/catalog-api/internal/database"
	"github.com/bigbiz/catalog-api/internal/models"
	"github.com/bigbiz/catalog-api/internal/repository"
	"github.com/bigbiz/catalog-api/pkg/logger"
)

// databaseURL is set by TestMain when CATALOG_INTEGRATION=1 and a docker
// daemon is available.
var databaseURL string

func TestMain(m *testing.M) {
	if os.Getenv("CATALOG_INTEGRATION") != "1" {
		os.Exit(m.Run())
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not connect to docker: %s", err)
	}

	user, password, dbName := "test", "dev", "catalog"
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbName,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}
	if err := resource.Expire(120); err != nil {
		log.Fatalf("Could not set expiry: %s", err)
	}

	url := fmt.Sprintf("postgres://%s:%s@localhost:%s/%s?sslmode=disable",
		user, password, resource.GetPort("5432/tcp"), dbName)

	// the server needs a moment before it accepts connections
	if err := pool.Retry(func() error {
		db, err := database.Open(context.Background(), config.DatabaseConfig{URL: url, MaxOpenConns: 2, MaxIdleConns: 1}, logger.Nop())
		if err != nil {
			return err
		}
		return database.Close(db)
	}); err != nil {
		log.Fatalf("Could not connect to postgres: %s", err)
	}
	databaseURL = url

	code := m.Run()

	// os.Exit skips deferred calls
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}
	os.Exit(code)
}

func requirePostgres(t *testing.T) string {
	t.Helper()
	if databaseURL == "" {
		t.Skip("set CATALOG_INTEGRATION=1 to run against postgres")
	}
	return databaseURL
}

func TestMigrateAndCheck(t *testing.T) {
	url := requirePostgres(t)
	c := qt.New(t)
	ctx := context.Background()
	log := logger.Nop()

	c.Assert(database.Migrate(url, log), qt.IsNil)
	// a second run has nothing to do
	c.Assert(database.Migrate(url, log), qt.IsNil)

	db, err := database.Open(ctx, config.DatabaseConfig{URL: url, MaxOpenConns: 4, MaxIdleConns: 2}, log)
	c.Assert(err, qt.IsNil)
	defer database.Close(db)

	c.Assert(database.NewChecker(db).Check(ctx), qt.IsNil)

	c.Assert(database.MigrateDown(url, log), qt.IsNil)
	c.Assert(db.Migrator().HasTable("products"), qt.IsFalse)

	c.Assert(database.Migrate(url, log), qt.IsNil)
	c.Assert(db.Migrator().HasTable("products"), qt.IsTrue)
}

func TestGormProductRepository_Postgres(t *testing.T) {
	url := requirePostgres(t)
	c := qt.New(t)
	ctx := context.Background()
	log := logger.Nop()

	c.Assert(database.Migrate(url, log), qt.IsNil)
	db, err := database.Open(ctx, config.DatabaseConfig{URL: url, MaxOpenConns: 4, MaxIdleConns: 2}, log)
	c.Assert(err, qt.IsNil)
	defer database.Close(db)
	c.Assert(db.Exec("TRUNCATE products RESTART IDENTITY").Error, qt.IsNil)

	repo := repository.NewGormProductRepository(db)

	p := &models.Product{
		Name:     "Soap",
		SKU:      "PG-1",
		Brand:    "Acme",
		Price:    models.NewPrice(decimal.RequireFromString("3.50")),
		IsActive: false,
	}
	c.Assert(repo.Create(ctx, p), qt.IsNil)
	c.Assert(p.ID, qt.Equals, int64(1))

	got, err := repo.GetByID(ctx, p.ID)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Price.Decimal.StringFixed(2), qt.Equals, "3.50")
	c.Assert(got.IsActive, qt.IsFalse)
	c.Assert(got.CreatedAt.Equal(p.CreatedAt), qt.IsTrue)

	dup := &models.Product{Name: "Other", SKU: "PG-1", Brand: "Acme"}
	c.Assert(repo.Create(ctx, dup), qt.ErrorIs, repository.ErrDuplicateSKU)

	got.Brand = "Globex"
	updated, err := repo.Update(ctx, got)
	c.Assert(err, qt.IsNil)
	c.Assert(updated.Brand, qt.Equals, "Globex")
	c.Assert(updated.CreatedAt.Equal(p.CreatedAt), qt.IsTrue)
	c.Assert(updated.UpdatedAt.Before(p.UpdatedAt), qt.IsFalse)

	c.Assert(repo.Delete(ctx, p.ID), qt.IsNil)
	_, err = repo.GetByID(ctx, p.ID)
	c.Assert(err, qt.ErrorIs, repository.ErrProductNotFound)
}
