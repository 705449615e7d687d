package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/ninja-software/terror/v2"
	"github.com/oklog/run"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"

	"github.com/bigbiz/catalog-api/internal/config"
	"github.com/bigbiz/catalog-api/internal/database"
	"github.com/bigbiz/catalog-api/internal/metrics"
	"github.com/bigbiz/catalog-api/internal/middleware"
	"github.com/bigbiz/catalog-api/internal/repository"
	"github.com/bigbiz/catalog-api/internal/server"
	"github.com/bigbiz/catalog-api/pkg/logger"
)

// Variable passed in at compile time using `-ldflags`
var (
	Version   = "dev" // -X main.Version=$(git describe --tags --abbrev=0)
	GitHash   string  // -X main.GitHash=$(git rev-parse HEAD)
	BuildDate string  // -X main.BuildDate=$(date -u +%Y%m%d%H%M%S)
)

func main() {
	app := &cli.App{
		Name:     "catalog-api",
		Compiled: time.Now(),
		Usage:    "Run the product catalog API or its database administration commands",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"CONFIG_FILE"}, Usage: "Optional YAML config file, environment variables take precedence"},
		},
		Commands: []*cli.Command{
			{
				Name: "version",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "full", Usage: "Prints full version and build info", Value: false},
				},
				Action: func(c *cli.Context) error {
					if c.Bool("full") {
						fmt.Printf("Version=%s\n", Version)
						fmt.Printf("Commit=%s\n", GitHash)
						fmt.Printf("BuildDate=%s\n", BuildDate)
						return nil
					}
					fmt.Println(Version)
					return nil
				},
			},
			{
				Name:    "serve",
				Aliases: []string{"s"},
				Usage:   "Migrate the schema and start the API server",
				Action:  serve,
			},
			{
				Name:  "migrate",
				Usage: "Apply the embedded schema migrations and exit",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "down", Usage: "Roll back every migration instead"},
				},
				Action: migrateCmd,
			},
			{
				Name:  "gen-token",
				Usage: "Print a random value suitable for ADMIN_TOKEN",
				Action: func(c *cli.Context) error {
					fmt.Println(uuid.NewString())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, *zerolog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logger.New(cfg.Environment, cfg.LogLevel), nil
}

func migrateCmd(c *cli.Context) error {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return err
	}
	log = logger.Named(log, "migrate")

	if c.Bool("down") {
		return database.MigrateDown(cfg.Database.URL, log)
	}
	return database.Migrate(cfg.Database.URL, log)
}

func serve(c *cli.Context) error {
	cfg, log, err := loadConfig(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	log.Info().
		Str("version", Version).
		Str("addr", cfg.Addr()).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("starting catalog api")

	db, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn().Err(err).Msg("close database")
		}
	}()

	var counter middleware.Counter
	if client := middleware.NewRedisClient(ctx, cfg.Redis, logger.Named(log, "redis")); client != nil {
		defer client.Close()
		counter = middleware.NewRedisCounter(client)
	}

	m := metrics.New()
	router := server.NewRouter(server.Deps{
		Config:  cfg,
		Repo:    repository.NewGormProductRepository(db),
		Checker: database.NewChecker(db),
		Counter: counter,
		Metrics: m,
		Logger:  log,
		Version: Version,
	})
	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second

	g := &run.Group{}
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	apiServer := server.NewHTTPServer(cfg.Server, router)
	g.Add(func() error {
		log.Info().Str("address", apiServer.Addr).Msg("server listening")
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdown(apiServer, shutdownTimeout, log)
	})

	if cfg.Metrics.Addr != "" {
		metricsServer := server.NewMetricsServer(cfg.Metrics.Addr, m)
		g.Add(func() error {
			log.Info().Str("address", metricsServer.Addr).Msg("metrics listening")
			if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			shutdown(metricsServer, shutdownTimeout, log)
		})
	}

	err = g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		log.Info().Str("signal", sigErr.Signal.String()).Msg("server stopped gracefully")
		return nil
	}
	if err != nil {
		err = terror.Error(err, "server stopped")
		log.Error().Err(err).Msg("server failed")
	}
	return err
}

// openStore migrates the schema and opens the pool. Failures are logged
// before they are returned so they reach the structured log.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *zerolog.Logger) (*gorm.DB, error) {
	// the schema must be current before the first request is accepted
	if err := database.Migrate(cfg.URL, logger.Named(log, "migrate")); err != nil {
		log.Error().Err(err).Msg("database migration failed")
		return nil, err
	}
	db, err := database.Open(ctx, cfg, logger.Named(log, "database"))
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return nil, err
	}
	return db, nil
}

func shutdown(srv *http.Server, timeout time.Duration, log *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Str("address", srv.Addr).Msg("server forced to shutdown")
	}
}
