package repository

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/bigbiz/catalog-api/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("sku already exists")
)

// ProductRepository defines the interface for product data access.
// Implementations assign id and timestamps and enforce sku uniqueness.
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	Delete(ctx context.Context, id int64) error
}

// InMemoryProductRepository implements ProductRepository with in-memory storage
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[int64]models.Product
	skus     map[string]int64
	lastID   int64
	now      func() time.Time
}

// NewInMemoryProductRepository creates an empty in-memory product repository
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[int64]models.Product),
		skus:     make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetAll returns all products ordered by id
func (r *InMemoryProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	slices.SortFunc(products, func(a, b models.Product) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// Create stores a new product and fills in its id and timestamps
func (r *InMemoryProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.skus[product.SKU]; taken {
		return ErrDuplicateSKU
	}

	r.lastID++
	now := r.now()
	product.ID = r.lastID
	product.CreatedAt = now
	product.UpdatedAt = now

	r.products[product.ID] = *product
	r.skus[product.SKU] = product.ID
	return nil
}

// Update replaces the stored row for product.ID, keeping createdAt
func (r *InMemoryProductRepository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.products[product.ID]
	if !exists {
		return nil, ErrProductNotFound
	}
	if owner, taken := r.skus[product.SKU]; taken && owner != product.ID {
		return nil, ErrDuplicateSKU
	}

	updated := *product
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = nextUpdatedAt(current.UpdatedAt, r.now())

	delete(r.skus, current.SKU)
	r.skus[updated.SKU] = updated.ID
	r.products[updated.ID] = updated
	return &updated, nil
}

// Delete removes a product; ErrProductNotFound if there was nothing to remove
func (r *InMemoryProductRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, exists := r.products[id]
	if !exists {
		return ErrProductNotFound
	}
	delete(r.products, id)
	delete(r.skus, product.SKU)
	return nil
}

// Count returns the number of stored products
func (r *InMemoryProductRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.products)
}

// nextUpdatedAt is now, or one microsecond past prev when the clock has not
// moved past it. Postgres keeps microseconds, so a smaller step would be lost.
func nextUpdatedAt(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
