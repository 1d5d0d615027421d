package expenses

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/api/middleware"
	"github.com/angelmondragon/tablepos-backend/api/responses"
	"github.com/angelmondragon/tablepos-backend/api/validators"
	internalexpenses "github.com/angelmondragon/tablepos-backend/internal/expenses"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
)

const (
	maxItemNameLen    = 120
	maxDescriptionLen = 500
)

type createRequest struct {
	CashSessionID *uuid.UUID      `json:"cash_session_id,omitempty"`
	ItemName      string          `json:"item_name" validate:"required"`
	Description   *string         `json:"description,omitempty"`
	Quantity      int             `json:"quantity,omitempty" validate:"gte=0"`
	UnitPrice     decimal.Decimal `json:"unit_price" validate:"money"`
	SpentOn       string          `json:"spent_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type updateRequest struct {
	ItemName    *string          `json:"item_name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,money"`
	SpentOn     *string          `json:"spent_on,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func Create(svc internalexpenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expense service unavailable"))
			return
		}

		var payload createRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		expense, err := svc.Create(r.Context(), internalexpenses.CreateInput{
			Actor:         middleware.ActorFromContext(r.Context()),
			CashSessionID: payload.CashSessionID,
			ItemName:      validators.SanitizeString(payload.ItemName, maxItemNameLen),
			Description:   validators.SanitizeOptional(payload.Description, maxDescriptionLen),
			Quantity:      payload.Quantity,
			UnitPrice:     payload.UnitPrice,
			SpentOn:       payload.SpentOn,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, expense)
	}
}

// List pages expenses filtered by ?cash_session_id=, ?from= and ?to= (days).
func List(svc internalexpenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expense service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Summary(svc internalexpenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expense service unavailable"))
			return
		}

		filter, err := parseFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func Detail(svc internalexpenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expense service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "expenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		expense, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expense)
	}
}

func Update(svc internalexpenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expense service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "expenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalexpenses.UpdateInput{
			Actor:       middleware.ActorFromContext(r.Context()),
			Description: validators.SanitizeOptional(payload.Description, maxDescriptionLen),
			Quantity:    payload.Quantity,
			UnitPrice:   payload.UnitPrice,
			SpentOn:     payload.SpentOn,
		}
		if payload.ItemName != nil {
			name := validators.SanitizeString(*payload.ItemName, maxItemNameLen)
			input.ItemName = &name
		}

		expense, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, expense)
	}
}

func Delete(svc internalexpenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expense service unavailable"))
			return
		}

		id, err := validators.PathUUID(r, "expenseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func parseFilter(r *http.Request) (internalexpenses.Filter, error) {
	var filter internalexpenses.Filter
	sessionID, err := validators.ParseQueryUUID(r, "cash_session_id")
	if err != nil {
		return filter, err
	}
	filter.CashSessionID = sessionID

	from, err := validators.ParseQueryDay(r, "from")
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := validators.ParseQueryDay(r, "to")
	if err != nil {
		return filter, err
	}
	filter.To = to
	return filter, nil
}
