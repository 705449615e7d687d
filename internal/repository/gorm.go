package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bigbiz/catalog-api/internal/models"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// GormProductRepository stores products in a relational table through GORM.
// The handle should be opened with TranslateError so unique violations
// surface as gorm.ErrDuplicatedKey on every dialect.
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a repository on top of an open GORM handle
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// GetAll returns every product ordered by id
func (r *GormProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := r.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetByID returns a product by primary key
func (r *GormProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// Create inserts product and fills in the generated id and timestamps
func (r *GormProductRepository) Create(ctx context.Context, product *models.Product) error {
	product.ID = 0
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Update writes every column of product except id and created_at, then
// returns the stored row. The row is locked while the new updated_at is
// chosen so it always moves past the stored one.
func (r *GormProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "updated_at").
			First(&current, product.ID).Error
		if err != nil {
			return err
		}

		product.UpdatedAt = nextUpdatedAt(current.UpdatedAt, tx.NowFunc())
		// UpdateColumns keeps GORM from stamping its own updated_at
		res := tx.Model(product).
			Select("*").
			Omit("id", "created_at").
			UpdateColumns(product)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err)
	}
	return r.GetByID(ctx, product.ID)
}

// Delete hard deletes a product by id
func (r *GormProductRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSKU
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateSKU
	}
	return err
}
