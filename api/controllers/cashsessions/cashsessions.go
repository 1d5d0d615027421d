package cashsessions

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/api/middleware"
	"github.com/angelmondragon/tablepos-backend/api/responses"
	"github.com/angelmondragon/tablepos-backend/api/validators"
	internalsessions "github.com/angelmondragon/tablepos-backend/internal/cashsessions"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
)

type openRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float" validate:"money"`
}

type closeRequest struct {
	CountedAmount *decimal.Decimal `json:"counted_amount,omitempty" validate:"omitempty,money"`
}

// Open starts a cash session for the caller.
func Open(svc internalsessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash session service unavailable"))
			return
		}

		var payload openRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Open(r.Context(), middleware.ActorFromContext(r.Context()), payload.OpeningFloat)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, session)
	}
}

// Current returns the caller's open session. Managers may ask for another
// operator with ?operator_id=.
func Current(svc internalsessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash session service unavailable"))
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		operatorID := actor.UserID
		if actor.IsManager() {
			requested, err := validators.ParseQueryUUID(r, "operator_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if requested != nil {
				operatorID = *requested
			}
		}

		session, err := svc.CurrentFor(r.Context(), operatorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, session)
	}
}

// History pages through past sessions.
func History(svc internalsessions.Service, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash session service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := historyFilter(r, loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.History(r.Context(), middleware.ActorFromContext(r.Context()), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Summary reconciles a session, open or closed.
func Summary(svc internalsessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash session service unavailable"))
			return
		}

		sessionID, err := validators.PathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := ensureVisible(r, svc, sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Reconcile(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// Close closes a session and returns its final reconciliation.
func Close(svc internalsessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cash session service unavailable"))
			return
		}

		sessionID, err := validators.PathUUID(r, "sessionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload closeRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Close(r.Context(), middleware.ActorFromContext(r.Context()), sessionID, payload.CountedAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func historyFilter(r *http.Request, loc *time.Location) (internalsessions.HistoryFilter, error) {
	var filter internalsessions.HistoryFilter
	operatorID, err := validators.ParseQueryUUID(r, "operator_id")
	if err != nil {
		return filter, err
	}
	filter.OperatorID = operatorID

	from, err := validators.ParseQueryTime(r, "from", loc)
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := validators.ParseQueryTime(r, "to", loc)
	if err != nil {
		return filter, err
	}
	filter.To = to
	return filter, nil
}

// ensureVisible limits cashiers to their own sessions.
func ensureVisible(r *http.Request, svc internalsessions.Service, sessionID uuid.UUID) error {
	actor := middleware.ActorFromContext(r.Context())
	if actor.IsManager() {
		return nil
	}
	session, err := svc.Get(r.Context(), sessionID)
	if err != nil {
		return err
	}
	if session.OperatorID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cash session belongs to another operator")
	}
	return nil
}
