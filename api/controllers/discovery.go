package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-discovery/api/responses"
	"github.com/angelmondragon/packfinderz-discovery/api/validators"
	"github.com/angelmondragon/packfinderz-discovery/internal/cart"
	"github.com/angelmondragon/packfinderz-discovery/internal/catalog"
	"github.com/angelmondragon/packfinderz-discovery/internal/discovery"
	"github.com/angelmondragon/packfinderz-discovery/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-discovery/pkg/errors"
	"github.com/angelmondragon/packfinderz-discovery/pkg/geo"
	"github.com/angelmondragon/packfinderz-discovery/pkg/logger"
	"github.com/angelmondragon/packfinderz-discovery/pkg/models"
)

const (
	maxQueryLength   = 200
	productParam     = "productId"
	sortNoneKeyword  = "none"
	maxCategoryRunes = 100
)

// DiscoveryLoad resolves the viewer location and fetches the catalog.
func DiscoveryLoad(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, ctrl.Load(r.Context()))
	}
}

// DiscoveryRefresh re-fetches the catalog for the current location.
func DiscoveryRefresh(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, ctrl.Refresh(r.Context()))
	}
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required_with=Longitude,omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required_with=Latitude,omitempty,gte=-180,lte=180"`
}

// DiscoveryLocation sets or clears the viewer location; both coordinates null clears it.
func DiscoveryLocation(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		var payload locationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ctrl.OnLocationChanged(r.Context(), geo.NewPoint(payload.Latitude, payload.Longitude)))
	}
}

type searchRequest struct {
	Query string `json:"query"`
}

func DiscoverySearch(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		var payload searchRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ctrl.OnSearchChanged(validators.SanitizeString(payload.Query, maxQueryLength)))
	}
}

type sortRequest struct {
	Sort string `json:"sort"`
}

func DiscoverySort(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		var payload sortRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		raw := payload.Sort
		if strings.EqualFold(strings.TrimSpace(raw), sortNoneKeyword) {
			raw = ""
		}
		criterion, err := enums.ParseSortCriterion(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort"))
			return
		}
		responses.WriteSuccess(w, ctrl.OnSortChanged(criterion))
	}
}

type filtersRequest struct {
	Category      string           `json:"category"`
	MinPrice      *decimal.Decimal `json:"minPrice"`
	MaxPrice      *decimal.Decimal `json:"maxPrice"`
	MaxDistanceKm *float64         `json:"maxDistanceKm" validate:"omitempty,gte=0"`
}

func (f filtersRequest) toFilters() (catalog.Filters, error) {
	details := map[string]string{}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		details["minPrice"] = "must be greater than or equal to 0"
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		details["maxPrice"] = "must be greater than or equal to 0"
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		details["minPrice"] = "must not exceed maxPrice"
	}
	if len(details) > 0 {
		return catalog.Filters{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return catalog.Filters{
		Category:      validators.SanitizeString(f.Category, maxCategoryRunes),
		MinPrice:      f.MinPrice,
		MaxPrice:      f.MaxPrice,
		MaxDistanceKm: f.MaxDistanceKm,
	}, nil
}

// DiscoveryFilters replaces the active filters; an empty body object clears them.
func DiscoveryFilters(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		var payload filtersRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := payload.toFilters()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ctrl.OnFiltersChanged(filters))
	}
}

type cartAddRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

func CartAdd(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		var payload cartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := ctrl.OnCartAdd(payload.ProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, state)
	}
}

// CartRemove deletes a cart line; unknown products succeed without change.
func CartRemove(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, ctrl.OnCartRemove(chi.URLParam(r, productParam)))
	}
}

type checkoutRequest struct {
	VendorID        string `json:"vendorId"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required"`
	PaymentMethod   string `json:"paymentMethod" validate:"required,oneof=credit_debit_card upi bank_transfer"`
}

type checkoutResponse struct {
	Orders []models.Order  `json:"orders"`
	State  discovery.State `json:"state"`
}

// Checkout places one marketplace order per cart line.
func Checkout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl, ok := sessionController(w, r, logg)
		if !ok {
			return
		}
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		orders, state, err := ctrl.Checkout(r.Context(), cart.CheckoutInput{
			VendorID:        strings.TrimSpace(payload.VendorID),
			DeliveryAddress: payload.DeliveryAddress,
			PaymentMethod:   method,
		})
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && len(orders) > 0 {
				typed.WithDetails(map[string]any{"placedOrders": orders})
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{Orders: orders, State: state})
	}
}
