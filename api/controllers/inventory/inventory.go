package inventory

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/api/middleware"
	"github.com/angelmondragon/tablepos-backend/api/responses"
	"github.com/angelmondragon/tablepos-backend/api/validators"
	internalinventory "github.com/angelmondragon/tablepos-backend/internal/inventory"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
)

const maxReasonLen = 200

type setQuotaRequest struct {
	Date     string  `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Quantity *int    `json:"quantity" validate:"required,gte=0"`
	Notes    *string `json:"notes,omitempty"`
}

type ingressRequest struct {
	Quantity int    `json:"quantity" validate:"gt=0"`
	Reason   string `json:"reason,omitempty"`
}

type shrinkRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Scope     string    `json:"scope,omitempty"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
	Reason    string    `json:"reason,omitempty"`
}

// Availability lists stock for every active product on ?date= (default today).
func Availability(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		day, err := validators.ParseQueryDay(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var value string
		if day != nil {
			value = *day
		}

		items, err := svc.ListAvailability(r.Context(), value)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// Movements pages through the stock audit trail.
func Movements(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalinventory.MovementFilter{ProductID: productID}
		if scope := validators.SanitizeString(r.URL.Query().Get("scope"), 32); scope != "" {
			filter.Scope = &scope
		}

		list, err := svc.ListMovements(r.Context(), middleware.ActorFromContext(r.Context()), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// SetDailyQuota replaces a dish's units for one day.
func SetDailyQuota(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload setQuotaRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		change, err := svc.SetDailyQuota(r.Context(), internalinventory.SetDailyQuotaInput{
			Actor:     middleware.ActorFromContext(r.Context()),
			ProductID: productID,
			Day:       payload.Date,
			Quantity:  *payload.Quantity,
			Notes:     validators.SanitizeOptional(payload.Notes, maxReasonLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, change)
	}
}

// Ingress adds beverage units to the global stock.
func Ingress(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := validators.PathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload ingressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		change, err := svc.Ingress(r.Context(), internalinventory.IngressInput{
			Actor:     middleware.ActorFromContext(r.Context()),
			ProductID: productID,
			Quantity:  payload.Quantity,
			Reason:    validators.SanitizeString(payload.Reason, maxReasonLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, change)
	}
}

// Shrink records units lost to waste or breakage.
func Shrink(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload shrinkRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		change, err := svc.Shrink(r.Context(), internalinventory.ShrinkInput{
			Actor:     middleware.ActorFromContext(r.Context()),
			ProductID: payload.ProductID,
			Scope:     validators.SanitizeString(payload.Scope, 32),
			Quantity:  payload.Quantity,
			Reason:    validators.SanitizeString(payload.Reason, maxReasonLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, change)
	}
}
