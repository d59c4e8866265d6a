package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mkotelnikov/pizzeria-backend/api/responses"
	"github.com/mkotelnikov/pizzeria-backend/api/validators"
	catalogsvc "github.com/mkotelnikov/pizzeria-backend/internal/catalog"
	"github.com/mkotelnikov/pizzeria-backend/pkg/enums"
	pkgerrors "github.com/mkotelnikov/pizzeria-backend/pkg/errors"
	"github.com/mkotelnikov/pizzeria-backend/pkg/logger"
)

type createCategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	Position int    `json:"position" validate:"omitempty,min=0"`
	IsActive *bool  `json:"isActive,omitempty"`
}

type updateCategoryRequest struct {
	Name     *string `json:"name,omitempty"`
	Position *int    `json:"position,omitempty" validate:"omitempty,min=0"`
	IsActive *bool   `json:"isActive,omitempty"`
}

// CategoryCreate adds a menu category.
func CategoryCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if payload.IsActive != nil {
			active = *payload.IsActive
		}
		category, err := svc.CreateCategory(r.Context(), catalogsvc.CreateCategoryInput{
			Name:     payload.Name,
			Position: payload.Position,
			IsActive: active,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}

// CategoryUpdate mutates a menu category.
func CategoryUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "categoryId"), "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.UpdateCategory(r.Context(), id, catalogsvc.UpdateCategoryInput{
			Name:     payload.Name,
			Position: payload.Position,
			IsActive: payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, category)
	}
}

// CategoryList returns menu categories ordered by position.
func CategoryList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly := strings.EqualFold(r.URL.Query().Get("active"), "true")
		categories, err := svc.ListCategories(r.Context(), activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, categories)
	}
}

type createProductRequest struct {
	CategoryID  string           `json:"categoryId" validate:"required,uuid"`
	Name        string           `json:"name" validate:"required"`
	Description *string          `json:"description,omitempty"`
	PriceCents  int              `json:"priceCents" validate:"min=0"`
	TaxRate     *decimal.Decimal `json:"taxRate,omitempty"`
	IsAvailable *bool            `json:"isAvailable,omitempty"`
	StockQty    int              `json:"stockQty" validate:"omitempty,min=0"`
	Unit        string           `json:"unit" validate:"required"`
}

type updateProductRequest struct {
	CategoryID  *string          `json:"categoryId,omitempty" validate:"omitempty,uuid"`
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	PriceCents  *int             `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	TaxRate     *decimal.Decimal `json:"taxRate,omitempty"`
	IsAvailable *bool            `json:"isAvailable,omitempty"`
	StockQty    *int             `json:"stockQty,omitempty" validate:"omitempty,min=0"`
	Unit        *string          `json:"unit,omitempty"`
}

// ProductCreate adds a product to the menu.
func ProductCreate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categoryID, err := uuid.Parse(payload.CategoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
			return
		}
		unit, err := enums.ParseProductUnit(strings.TrimSpace(payload.Unit))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
			return
		}

		input := catalogsvc.CreateProductInput{
			CategoryID:  categoryID,
			Name:        payload.Name,
			Description: payload.Description,
			PriceCents:  payload.PriceCents,
			IsAvailable: true,
			StockQty:    payload.StockQty,
			Unit:        unit,
		}
		if payload.TaxRate != nil {
			input.TaxRate = *payload.TaxRate
		}
		if payload.IsAvailable != nil {
			input.IsAvailable = *payload.IsAvailable
		}

		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate mutates a product.
func ProductUpdate(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalogsvc.UpdateProductInput{
			Name:        payload.Name,
			Description: payload.Description,
			PriceCents:  payload.PriceCents,
			TaxRate:     payload.TaxRate,
			IsAvailable: payload.IsAvailable,
			StockQty:    payload.StockQty,
		}
		if payload.CategoryID != nil {
			categoryID, err := uuid.Parse(*payload.CategoryID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category id"))
				return
			}
			input.CategoryID = &categoryID
		}
		if payload.Unit != nil {
			unit, err := enums.ParseProductUnit(strings.TrimSpace(*payload.Unit))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit"))
				return
			}
			input.Unit = &unit
		}

		product, err := svc.UpdateProduct(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductDelete removes a product from the menu.
func ProductDelete(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ProductGet returns one product.
func ProductGet(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// ProductList returns menu products with optional filters.
func ProductList(svc catalogsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := validators.ParseQueryUUID(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalogsvc.ProductFilter{
			CategoryID:    categoryID,
			AvailableOnly: strings.EqualFold(r.URL.Query().Get("available"), "true"),
		}
		products, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}
