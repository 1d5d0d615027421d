package expenses

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/api/middleware"
	internalexpenses "github.com/angelmondragon/tablepos-backend/internal/expenses"
	"github.com/angelmondragon/tablepos-backend/pkg/auth"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
)

type stubExpenseService struct {
	internalexpenses.Service
	create  func(ctx context.Context, input internalexpenses.CreateInput) (*internalexpenses.Expense, error)
	update  func(ctx context.Context, id uuid.UUID, input internalexpenses.UpdateInput) (*internalexpenses.Expense, error)
	del     func(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	list    func(ctx context.Context, filter internalexpenses.Filter, params pagination.Params) (*internalexpenses.ExpenseList, error)
	summary func(ctx context.Context, filter internalexpenses.Filter) (*internalexpenses.Summary, error)
}

func (s *stubExpenseService) Create(ctx context.Context, input internalexpenses.CreateInput) (*internalexpenses.Expense, error) {
	return s.create(ctx, input)
}

func (s *stubExpenseService) Update(ctx context.Context, id uuid.UUID, input internalexpenses.UpdateInput) (*internalexpenses.Expense, error) {
	return s.update(ctx, id, input)
}

func (s *stubExpenseService) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	return s.del(ctx, actor, id)
}

func (s *stubExpenseService) List(ctx context.Context, filter internalexpenses.Filter, params pagination.Params) (*internalexpenses.ExpenseList, error) {
	return s.list(ctx, filter, params)
}

func (s *stubExpenseService) Summary(ctx context.Context, filter internalexpenses.Filter) (*internalexpenses.Summary, error) {
	return s.summary(ctx, filter)
}

var manager = auth.Actor{UserID: uuid.New(), Role: enums.RoleManager}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	return req.WithContext(middleware.WithActor(ctx, manager))
}

func TestCreateSanitizesAndForwards(t *testing.T) {
	sessionID := uuid.New()
	svc := &stubExpenseService{
		create: func(ctx context.Context, input internalexpenses.CreateInput) (*internalexpenses.Expense, error) {
			if input.ItemName != "Ice" {
				t.Fatalf("item name not trimmed: %q", input.ItemName)
			}
			if input.Description != nil {
				t.Fatalf("blank description should be dropped, got %q", *input.Description)
			}
			if input.CashSessionID == nil || *input.CashSessionID != sessionID {
				t.Fatalf("unexpected session %v", input.CashSessionID)
			}
			if !input.UnitPrice.Equal(decimal.RequireFromString("2.50")) || input.Quantity != 4 {
				t.Fatalf("unexpected price/qty %s x %d", input.UnitPrice, input.Quantity)
			}
			if input.Actor.UserID != manager.UserID {
				t.Fatalf("actor not forwarded")
			}
			return &internalexpenses.Expense{ID: uuid.New(), ItemName: input.ItemName}, nil
		},
	}

	body := `{"cash_session_id":"` + sessionID.String() + `","item_name":"  Ice  ","description":"   ","quantity":4,"unit_price":"2.50"}`
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/expenses", body, nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCreateRejectsBadDate(t *testing.T) {
	svc := &stubExpenseService{
		create: func(ctx context.Context, input internalexpenses.CreateInput) (*internalexpenses.Expense, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	body := `{"item_name":"Gas","unit_price":"10","spent_on":"03/01/2026"}`
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/expenses", body, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateOnlySetsProvidedFields(t *testing.T) {
	expenseID := uuid.New()
	svc := &stubExpenseService{
		update: func(ctx context.Context, id uuid.UUID, input internalexpenses.UpdateInput) (*internalexpenses.Expense, error) {
			if id != expenseID {
				t.Fatalf("unexpected id %s", id)
			}
			if input.ItemName != nil || input.UnitPrice != nil || input.SpentOn != nil {
				t.Fatalf("unexpected fields set: %+v", input)
			}
			if input.Quantity == nil || *input.Quantity != 3 {
				t.Fatalf("quantity not forwarded: %v", input.Quantity)
			}
			return &internalexpenses.Expense{ID: id, Quantity: 3}, nil
		},
	}
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodPatch, "/api/v1/expenses/"+expenseID.String(), `{"quantity":3}`,
		map[string]string{"expenseId": expenseID.String()})
	Update(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDeleteMapsNotFound(t *testing.T) {
	expenseID := uuid.New()
	svc := &stubExpenseService{
		del: func(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeNotFound, "expense not found")
		},
	}
	resp := httptest.NewRecorder()
	req := newRequest(http.MethodDelete, "/api/v1/expenses/"+expenseID.String(), "",
		map[string]string{"expenseId": expenseID.String()})
	Delete(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestSummaryParsesDayRange(t *testing.T) {
	svc := &stubExpenseService{
		summary: func(ctx context.Context, filter internalexpenses.Filter) (*internalexpenses.Summary, error) {
			if filter.From == nil || *filter.From != "2026-03-01" || filter.To == nil || *filter.To != "2026-03-31" {
				t.Fatalf("unexpected range %+v", filter)
			}
			return &internalexpenses.Summary{Total: decimal.NewFromInt(42), Count: 2}, nil
		},
	}
	resp := httptest.NewRecorder()
	Summary(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/expenses/summary?from=2026-03-01&to=2026-03-31", "", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	Summary(svc, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/expenses/summary?from=yesterday", "", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed day got %d", resp.Code)
	}
}
