package controllers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/marketloop/marketloop-backend/api/responses"
	"github.com/marketloop/marketloop-backend/api/validators"
	mediasvc "github.com/marketloop/marketloop-backend/internal/media"
	productsvc "github.com/marketloop/marketloop-backend/internal/products"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// ListProducts returns the public catalog, optionally filtered by category.
func ListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		page, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := productsvc.ListParams{Page: page}
		if category := r.URL.Query().Get("category"); category != "" {
			params.Category = &category
		}
		if rawCreator := r.URL.Query().Get("created_by"); rawCreator != "" {
			creator, err := uuid.Parse(rawCreator)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "created_by must be a valid uuid"))
				return
			}
			params.CreatedBy = &creator
		}

		products, err := svc.ListProducts(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

// GetProduct returns one catalog listing.
func GetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
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

// CreateProduct handles the multipart create form: listing fields plus an
// optional productImage part.
func CreateProduct(svc productsvc.Service, media mediasvc.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		input, err := createProductInputFromForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if imagePath, err := storeOptionalImage(r, media, mediasvc.KindProduct, "productImage"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if imagePath != nil {
			input.Image = imagePath
		}

		product, err := svc.CreateProduct(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// UpdateProduct handles the multipart partial-merge form.
func UpdateProduct(svc productsvc.Service, media mediasvc.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024)
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		input, err := updateProductInputFromForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if imagePath, err := storeOptionalImage(r, media, mediasvc.KindProduct, "productImage"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if imagePath != nil {
			input.Image = imagePath
		}

		product, err := svc.UpdateProduct(r.Context(), userID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// DeleteProduct removes a listing and its shop/cart references.
func DeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func createProductInputFromForm(r *http.Request) (productsvc.CreateProductInput, error) {
	name := formValue(r, "name")
	if name == "" {
		return productsvc.CreateProductInput{}, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	price, err := parsePrice(formValue(r, "price"), true)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}

	quantity, err := parseQuantity(formValue(r, "quantity"), true)
	if err != nil {
		return productsvc.CreateProductInput{}, err
	}

	input := productsvc.CreateProductInput{
		Name:        name,
		Description: formValuePtr(r, "description"),
		Category:    formValuePtr(r, "category"),
	}
	if price != nil {
		input.Price = *price
	}
	if quantity != nil {
		input.Quantity = *quantity
	}
	return input, nil
}

func updateProductInputFromForm(r *http.Request) (productsvc.UpdateProductInput, error) {
	input := productsvc.UpdateProductInput{
		Name:        formValuePtr(r, "name"),
		Description: formValuePtr(r, "description"),
		Category:    formValuePtr(r, "category"),
	}

	if raw := formValuePtr(r, "price"); raw != nil {
		price, err := parsePrice(*raw, true)
		if err != nil {
			return productsvc.UpdateProductInput{}, err
		}
		input.Price = price
	}
	if raw := formValuePtr(r, "quantity"); raw != nil {
		quantity, err := parseQuantity(*raw, true)
		if err != nil {
			return productsvc.UpdateProductInput{}, err
		}
		input.Quantity = quantity
	}
	return input, nil
}

func parsePrice(raw string, required bool) (*decimal.Decimal, error) {
	if raw == "" {
		if required {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price is required")
		}
		return nil, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal number")
	}
	if price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return &price, nil
}

func parseQuantity(raw string, required bool) (*int, error) {
	if raw == "" {
		if required {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity is required")
		}
		return nil, nil
	}
	quantity, err := strconv.Atoi(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be an integer")
	}
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	return &quantity, nil
}

func storeOptionalImage(r *http.Request, media mediasvc.Service, kind mediasvc.Kind, field string) (*string, error) {
	if media == nil {
		return nil, nil
	}
	file, header, err := formFile(r, field)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, nil
	}
	defer file.Close()

	path, err := media.Store(r.Context(), kind, file, header)
	if err != nil {
		return nil, err
	}
	return &path, nil
}
