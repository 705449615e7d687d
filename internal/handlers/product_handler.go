package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ninja-software/terror/v2"
	"github.com/rs/zerolog"

	"github.com/bigbiz/catalog-api/internal/models"
	"github.com/bigbiz/catalog-api/internal/repository"
	"github.com/bigbiz/catalog-api/internal/service"
)

const maxBodyBytes = 1 << 20

var errInvalidID = errors.New("invalid product id")

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	service *service.ProductService
	logger  *zerolog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) (int, error) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		return http.StatusInternalServerError, terror.Error(err)
	}

	WriteJSON(w, http.StatusOK, products, h.logger)
	return http.StatusOK, nil
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) (int, error) {
	id, err := productID(r)
	if err != nil {
		return http.StatusNotFound, terror.Warn(err, msgProductNotFound)
	}

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		return h.serviceError(err)
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
	return http.StatusOK, nil
}

// CreateProduct handles POST /api/products
// - 201: the stored product with id and timestamps
// - 400: malformed body, missing required field or taken sku
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) (int, error) {
	input, err := decodeInput(w, r)
	if err != nil {
		return http.StatusBadRequest, terror.Warn(err, msgInvalidBody)
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		return h.serviceError(err)
	}

	h.logger.Info().Int64("product_id", product.ID).Str("sku", product.SKU).Msg("product created")
	WriteJSON(w, http.StatusCreated, product, h.logger)
	return http.StatusCreated, nil
}

// UpdateProduct handles PUT /api/products/{id}
// Only the fields present in the body change.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) (int, error) {
	id, err := productID(r)
	if err != nil {
		return http.StatusNotFound, terror.Warn(err, msgProductNotFound)
	}

	input, err := decodeInput(w, r)
	if err != nil {
		return http.StatusBadRequest, terror.Warn(err, msgInvalidBody)
	}

	product, err := h.service.UpdateProduct(r.Context(), id, input)
	if err != nil {
		return h.serviceError(err)
	}

	h.logger.Info().Int64("product_id", product.ID).Msg("product updated")
	WriteJSON(w, http.StatusOK, product, h.logger)
	return http.StatusOK, nil
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) (int, error) {
	id, err := productID(r)
	if err != nil {
		return http.StatusNotFound, terror.Warn(err, msgProductNotFound)
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		return h.serviceError(err)
	}

	h.logger.Info().Int64("product_id", id).Msg("product deleted")
	w.WriteHeader(http.StatusNoContent)
	return http.StatusNoContent, nil
}

func (h *ProductHandler) serviceError(err error) (int, error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return http.StatusNotFound, terror.Warn(err, msgProductNotFound)
	case errors.As(err, &verr):
		return http.StatusBadRequest, terror.Warn(err, verr.Error())
	default:
		return http.StatusInternalServerError, terror.Error(err)
	}
}

// productID parses the {id} path segment. Anything that is not a positive
// integer cannot name a row.
func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

func decodeInput(w http.ResponseWriter, r *http.Request) (models.ProductInput, error) {
	var input models.ProductInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return models.ProductInput{}, err
	}
	return input, nil
}
