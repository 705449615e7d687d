package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/bigbiz/catalog-api/internal/models"
	"github.com/bigbiz/catalog-api/internal/repository"
)

const maxStringLength = 255

// maxPrice is the first value that no longer fits NUMERIC(10,2).
var maxPrice = decimal.New(1, 8)

// ValidationError is returned when a payload breaks a field rule.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProductService handles business logic for products
type ProductService struct {
	repo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{
		repo: repo,
	}
}

// ListProducts returns all products ordered by id
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates the payload and inserts a new product.
// A taken sku is reported as a *ValidationError.
func (s *ProductService) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	product := input.NewProduct()
	if err := validate(&product); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, mapStoreError(err)
	}
	return &product, nil
}

// UpdateProduct applies the fields present in input to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, input models.ProductInput) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	input.ApplyTo(product)
	if err := validate(product); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return updated, nil
}

// DeleteProduct removes a product; repository.ErrProductNotFound if it did not exist
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func mapStoreError(err error) error {
	if errors.Is(err, repository.ErrDuplicateSKU) {
		return &ValidationError{Field: "sku", Reason: "already exists", Err: err}
	}
	return err
}

func validate(p *models.Product) error {
	required := []struct {
		field string
		value string
	}{
		{"name", p.Name},
		{"sku", p.SKU},
		{"brand", p.Brand},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
		if err := checkLength(r.field, r.value); err != nil {
			return err
		}
	}

	if p.ImageURL.Valid {
		if err := checkLength("imageUrl", p.ImageURL.String); err != nil {
			return err
		}
	}
	if p.Category.Valid {
		if err := checkLength("category", p.Category.String); err != nil {
			return err
		}
	}

	if p.Price.Valid && p.Price.Decimal.Abs().GreaterThanOrEqual(maxPrice) {
		return &ValidationError{Field: "price", Reason: "must be less than 100000000"}
	}
	return nil
}

func checkLength(field, value string) error {
	if utf8.RuneCountInString(value) > maxStringLength {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("must be at most %d characters", maxStringLength)}
	}
	return nil
}
