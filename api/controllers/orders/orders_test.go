package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tablepos-backend/api/middleware"
	internalorders "github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/pkg/auth"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
	"github.com/angelmondragon/tablepos-backend/pkg/pagination"
	"github.com/angelmondragon/tablepos-backend/pkg/types"
)

type stubOrderService struct {
	create       func(ctx context.Context, actor auth.Actor, input internalorders.CreateInput) (*internalorders.Order, error)
	updateHeader func(ctx context.Context, actor auth.Actor, orderID uuid.UUID, patch internalorders.HeaderPatch) (*internalorders.Order, error)
	editItem     func(ctx context.Context, actor auth.Actor, orderID, lineID uuid.UUID, input internalorders.EditItemInput) (*internalorders.Order, error)
	pay          func(ctx context.Context, actor auth.Actor, orderID uuid.UUID, method *enums.PaymentMethod) (*internalorders.Order, error)
	del          func(ctx context.Context, actor auth.Actor, orderID uuid.UUID) error
	list         func(ctx context.Context, filter internalorders.ListFilter, params pagination.Params) (*internalorders.OrderList, error)
}

func (s *stubOrderService) Create(ctx context.Context, actor auth.Actor, input internalorders.CreateInput) (*internalorders.Order, error) {
	return s.create(ctx, actor, input)
}

func (s *stubOrderService) UpdateHeader(ctx context.Context, actor auth.Actor, orderID uuid.UUID, patch internalorders.HeaderPatch) (*internalorders.Order, error) {
	return s.updateHeader(ctx, actor, orderID, patch)
}

func (s *stubOrderService) ReplaceItems(ctx context.Context, actor auth.Actor, orderID uuid.UUID, lines []internalorders.LineInput) (*internalorders.Order, error) {
	panic("not implemented")
}

func (s *stubOrderService) AddItems(ctx context.Context, actor auth.Actor, orderID uuid.UUID, lines []internalorders.LineInput) (*internalorders.Order, error) {
	panic("not implemented")
}

func (s *stubOrderService) EditItem(ctx context.Context, actor auth.Actor, orderID, lineID uuid.UUID, input internalorders.EditItemInput) (*internalorders.Order, error) {
	return s.editItem(ctx, actor, orderID, lineID, input)
}

func (s *stubOrderService) RemoveItem(ctx context.Context, actor auth.Actor, orderID, lineID uuid.UUID) (*internalorders.Order, error) {
	panic("not implemented")
}

func (s *stubOrderService) SetLineReady(ctx context.Context, actor auth.Actor, lineID uuid.UUID) (*internalorders.Order, error) {
	panic("not implemented")
}

func (s *stubOrderService) Pay(ctx context.Context, actor auth.Actor, orderID uuid.UUID, method *enums.PaymentMethod) (*internalorders.Order, error) {
	return s.pay(ctx, actor, orderID, method)
}

func (s *stubOrderService) Delete(ctx context.Context, actor auth.Actor, orderID uuid.UUID) error {
	return s.del(ctx, actor, orderID)
}

func (s *stubOrderService) Get(ctx context.Context, orderID uuid.UUID) (*internalorders.Order, error) {
	panic("not implemented")
}

func (s *stubOrderService) List(ctx context.Context, filter internalorders.ListFilter, params pagination.Params) (*internalorders.OrderList, error) {
	return s.list(ctx, filter, params)
}

func (s *stubOrderService) KitchenQueue(ctx context.Context, since *time.Time) ([]internalorders.Order, error) {
	panic("not implemented")
}

var cashier = auth.Actor{UserID: uuid.New(), Role: enums.RoleCashier}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	ctx = middleware.WithActor(ctx, cashier)
	return req.WithContext(ctx)
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}

func TestCreateMapsRequest(t *testing.T) {
	sessionID := uuid.New()
	productID := uuid.New()
	var captured internalorders.CreateInput
	svc := &stubOrderService{
		create: func(ctx context.Context, actor auth.Actor, input internalorders.CreateInput) (*internalorders.Order, error) {
			if actor.UserID != cashier.UserID {
				t.Fatalf("unexpected actor %+v", actor)
			}
			captured = input
			return &internalorders.Order{ID: uuid.New(), SequenceNumber: 1}, nil
		},
	}

	body := `{"cash_session_id":"` + sessionID.String() + `","order_type":"DINE_IN","table_number":3,` +
		`"items":[{"product_id":"` + productID.String() + `","quantity":2,"note":"  sin cebolla ","destination":"takeaway"}]}`
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders", body, nil))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.CashSessionID != sessionID || captured.Type == nil || *captured.Type != enums.OrderTypeDineIn {
		t.Fatalf("unexpected header %+v", captured)
	}
	if captured.TableNumber == nil || *captured.TableNumber != 3 {
		t.Fatalf("unexpected table %v", captured.TableNumber)
	}
	if len(captured.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(captured.Lines))
	}
	line := captured.Lines[0]
	if line.ProductID != productID || line.Quantity != 2 || line.Note == nil || *line.Note != "sin cebolla" {
		t.Fatalf("unexpected line %+v", line)
	}
	if line.Destination == nil || *line.Destination != enums.LineDestinationTakeaway {
		t.Fatalf("unexpected destination %v", line.Destination)
	}
}

func TestCreateRejectsInvalidBody(t *testing.T) {
	svc := &stubOrderService{
		create: func(ctx context.Context, actor auth.Actor, input internalorders.CreateInput) (*internalorders.Order, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}

	cases := map[string]string{
		"no items":        `{"cash_session_id":"` + uuid.NewString() + `","items":[]}`,
		"zero quantity":   `{"cash_session_id":"` + uuid.NewString() + `","items":[{"product_id":"` + uuid.NewString() + `","quantity":0}]}`,
		"bad destination": `{"cash_session_id":"` + uuid.NewString() + `","items":[{"product_id":"` + uuid.NewString() + `","quantity":1,"destination":"delivery"}]}`,
		"unknown field":   `{"cash_session_id":"` + uuid.NewString() + `","items":[],"discount":5}`,
	}
	for name, body := range cases {
		resp := httptest.NewRecorder()
		Create(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders", body, nil))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", name, resp.Code)
		}
	}
}

func TestCreateSurfacesInsufficientStock(t *testing.T) {
	svc := &stubOrderService{
		create: func(ctx context.Context, actor auth.Actor, input internalorders.CreateInput) (*internalorders.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficient, "insufficient stock").
				WithDetails(map[string]any{"available": 5, "requested": 15})
		},
	}
	body := `{"cash_session_id":"` + uuid.NewString() + `","items":[{"product_id":"` + uuid.NewString() + `","quantity":15}]}`
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/api/v1/orders", body, nil))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	apiErr := decodeErrorCode(t, resp)
	if apiErr.Code != string(pkgerrors.CodeInsufficient) {
		t.Fatalf("unexpected code %s", apiErr.Code)
	}
}

func TestUpdateHeaderClearsTable(t *testing.T) {
	orderID := uuid.New()
	var captured internalorders.HeaderPatch
	svc := &stubOrderService{
		updateHeader: func(ctx context.Context, actor auth.Actor, id uuid.UUID, patch internalorders.HeaderPatch) (*internalorders.Order, error) {
			if id != orderID {
				t.Fatalf("unexpected order id %s", id)
			}
			captured = patch
			return &internalorders.Order{ID: id}, nil
		},
	}

	resp := httptest.NewRecorder()
	UpdateHeader(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/", `{"table_number":null,"order_type":"takeaway"}`, map[string]string{"orderId": orderID.String()}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !captured.TableNumber.IsNull() {
		t.Fatalf("expected explicit null table, got %+v", captured.TableNumber)
	}
	if captured.Type == nil || *captured.Type != enums.OrderTypeTakeaway {
		t.Fatalf("unexpected type %v", captured.Type)
	}
	if captured.Lines != nil {
		t.Fatalf("absent items must not replace lines")
	}
}

func TestEditItemNote(t *testing.T) {
	orderID, lineID := uuid.New(), uuid.New()
	var captured internalorders.EditItemInput
	svc := &stubOrderService{
		editItem: func(ctx context.Context, actor auth.Actor, oid, lid uuid.UUID, input internalorders.EditItemInput) (*internalorders.Order, error) {
			if oid != orderID || lid != lineID {
				t.Fatalf("unexpected ids %s %s", oid, lid)
			}
			captured = input
			return &internalorders.Order{ID: oid}, nil
		},
	}

	params := map[string]string{"orderId": orderID.String(), "lineId": lineID.String()}
	resp := httptest.NewRecorder()
	EditItem(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/", `{"quantity":3,"note":"   "}`, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.Quantity == nil || *captured.Quantity != 3 {
		t.Fatalf("unexpected quantity %v", captured.Quantity)
	}
	if !captured.Note.Set || captured.Note.Value != nil {
		t.Fatalf("blank note should clear, got %+v", captured.Note)
	}

	resp = httptest.NewRecorder()
	EditItem(svc, nil).ServeHTTP(resp, newRequest(http.MethodPatch, "/", `{"quantity":0}`, params))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("zero quantity: expected 400 got %d", resp.Code)
	}
}

func TestPayAcceptsEmptyBody(t *testing.T) {
	orderID := uuid.New()
	calls := 0
	svc := &stubOrderService{
		pay: func(ctx context.Context, actor auth.Actor, id uuid.UUID, method *enums.PaymentMethod) (*internalorders.Order, error) {
			calls++
			if calls == 1 && method != nil {
				t.Fatalf("expected no method, got %v", *method)
			}
			if calls == 2 && (method == nil || *method != enums.PaymentMethodDigital) {
				t.Fatalf("expected digital method, got %v", method)
			}
			return &internalorders.Order{ID: id, PaymentStatus: enums.PaymentStatusPaid}, nil
		},
	}
	params := map[string]string{"orderId": orderID.String()}

	resp := httptest.NewRecorder()
	Pay(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/", "", params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	Pay(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/", `{"payment_method":"DIGITAL"}`, params))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if calls != 2 {
		t.Fatalf("expected two pay calls, got %d", calls)
	}
}

func TestPayAlreadyPaidIsStateConflict(t *testing.T) {
	svc := &stubOrderService{
		pay: func(ctx context.Context, actor auth.Actor, id uuid.UUID, method *enums.PaymentMethod) (*internalorders.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already paid").
				WithDetails(map[string]any{"reason": "ALREADY_PAID"})
		},
	}
	resp := httptest.NewRecorder()
	Pay(svc, nil).ServeHTTP(resp, newRequest(http.MethodPost, "/", "", map[string]string{"orderId": uuid.NewString()}))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	if got := decodeErrorCode(t, resp).Code; got != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %s", got)
	}
}

func TestDeleteReturnsNoContent(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{
		del: func(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
			if id != orderID {
				t.Fatalf("unexpected id %s", id)
			}
			return nil
		},
	}
	resp := httptest.NewRecorder()
	Delete(svc, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/", "", map[string]string{"orderId": orderID.String()}))
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	Delete(svc, nil).ServeHTTP(resp, newRequest(http.MethodDelete, "/", "", map[string]string{"orderId": "not-a-uuid"}))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListParsesFilters(t *testing.T) {
	sessionID := uuid.New()
	svc := &stubOrderService{
		list: func(ctx context.Context, filter internalorders.ListFilter, params pagination.Params) (*internalorders.OrderList, error) {
			if filter.CashSessionID == nil || *filter.CashSessionID != sessionID {
				t.Fatalf("unexpected session filter %v", filter.CashSessionID)
			}
			if filter.PaymentStatus == nil || *filter.PaymentStatus != enums.PaymentStatusUnpaid {
				t.Fatalf("unexpected payment status %v", filter.PaymentStatus)
			}
			if filter.From == nil || !filter.From.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
				t.Fatalf("unexpected from %v", filter.From)
			}
			if params.Limit != 5 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return &internalorders.OrderList{Items: []internalorders.Order{}}, nil
		},
	}

	target := "/api/v1/orders?cash_session_id=" + sessionID.String() + "&payment_status=unpaid&from=2025-03-01&limit=5"
	resp := httptest.NewRecorder()
	List(svc, time.UTC, nil).ServeHTTP(resp, newRequest(http.MethodGet, target, "", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	List(svc, time.UTC, nil).ServeHTTP(resp, newRequest(http.MethodGet, "/api/v1/orders?kitchen_status=burnt", "", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
