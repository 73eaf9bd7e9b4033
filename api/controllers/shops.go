package controllers

import (
	"net/http"

	"github.com/marketloop/marketloop-backend/api/responses"
	"github.com/marketloop/marketloop-backend/api/validators"
	mediasvc "github.com/marketloop/marketloop-backend/internal/media"
	shopsvc "github.com/marketloop/marketloop-backend/internal/shops"
	pkgerrors "github.com/marketloop/marketloop-backend/pkg/errors"
	"github.com/marketloop/marketloop-backend/pkg/logger"
)

// ListShops returns the public storefront directory.
func ListShops(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		params, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shops, err := svc.ListShops(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shops)
	}
}

// GetShop returns one storefront with its resolved products.
func GetShop(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.GetShop(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// CreateShop handles the multipart create form: storefront fields, an optional
// shopImage part, and optional seed product_ids.
func CreateShop(svc shopsvc.Service, media mediasvc.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
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

		name := formValue(r, "name")
		if name == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "name is required"))
			return
		}

		productIDs, err := formUUIDList(r, "product_ids")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := shopsvc.CreateShopInput{
			Name:        name,
			Description: formValuePtr(r, "description"),
			ProductIDs:  productIDs,
		}

		if imagePath, err := storeOptionalImage(r, media, mediasvc.KindShop, "shopImage"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if imagePath != nil {
			input.Image = imagePath
		}

		shop, err := svc.CreateShop(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, shop)
	}
}

// UpdateShop handles the multipart partial-merge form. Owner only.
func UpdateShop(svc shopsvc.Service, media mediasvc.Service, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
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

		input := shopsvc.UpdateShopInput{
			Name:        formValuePtr(r, "name"),
			Description: formValuePtr(r, "description"),
		}

		if imagePath, err := storeOptionalImage(r, media, mediasvc.KindShop, "shopImage"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		} else if imagePath != nil {
			input.Image = imagePath
		}

		shop, err := svc.UpdateShop(r.Context(), userID, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// DeleteShop removes a storefront and its membership rows. Owner only.
func DeleteShop(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
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

		if err := svc.DeleteShop(r.Context(), userID, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AddProductToShop set-adds a product into a shop's list. Any authenticated
// user may call this; a repeat add is a no-op.
func AddProductToShop(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		shopID, err := validators.ParseUUIDParam(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.AddProduct(r.Context(), shopID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}

// RemoveProductFromShop drops a product from a shop's list. Owner only.
func RemoveProductFromShop(svc shopsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "shop service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shopID, err := validators.ParseUUIDParam(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shop, err := svc.RemoveProduct(r.Context(), userID, shopID, productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, shop)
	}
}
