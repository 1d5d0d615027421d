package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tablepos-backend/pkg/errors"
)

type sampleBody struct {
	Name     string `json:"name" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Chicha","quantity":2}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Name != "Chicha" || body.Quantity != 2 {
		t.Fatalf("unexpected body %+v", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","quantity":0}`))
	err := DecodeJSONBody(req, &sampleBody{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok || details["name"] != "is required" || details["quantity"] != "must be greater than 0" {
		t.Fatalf("unexpected details %v", pkgerrors.As(err).Details())
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","quantity":1,"extra":true}`))
	if err := DecodeJSONBody(req, &sampleBody{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unknown fields must be rejected, got %v", err)
	}
}

type amountBody struct {
	Float   decimal.Decimal  `json:"opening_float" validate:"money"`
	Counted *decimal.Decimal `json:"counted_amount,omitempty" validate:"omitempty,money"`
	Items   []sampleBody     `json:"items" validate:"omitempty,dive"`
}

func TestDecodeJSONBodyMoneyAndNestedFields(t *testing.T) {
	var ok amountBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"opening_float":"100.50"}`))
	if err := DecodeJSONBody(req, &ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok.Float.Equal(decimal.RequireFromString("100.5")) || ok.Counted != nil {
		t.Fatalf("unexpected body %+v", ok)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"opening_float":"10","counted_amount":"-1","items":[{"name":"Inca Kola","quantity":0}]}`))
	err := DecodeJSONBody(req, &amountBody{})
	details, _ := pkgerrors.As(err).Details().(map[string]string)
	if details["counted_amount"] != "must be a non-negative amount" {
		t.Fatalf("unexpected details %v", details)
	}
	if details["items[0].quantity"] != "must be greater than 0" {
		t.Fatalf("nested path missing: %v", details)
	}
}

func TestDecodeJSONBodyRejectsTrailingDocument(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","quantity":1}{"name":"b","quantity":1}`))
	if err := DecodeJSONBody(req, &sampleBody{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderId", id.String())
	got, err := PathUUID(req, "orderId")
	if err != nil || got != id {
		t.Fatalf("expected %s, got %s (%v)", id, got, err)
	}

	req = withURLParam(httptest.NewRequest(http.MethodGet, "/", nil), "orderId", "nope")
	if _, err := PathUUID(req, "orderId"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?date=2025-03-01&type=DINE_IN&table=4&from=2025-03-01T10:00:00Z&limit=10&cursor=abc", nil)

	day, err := ParseQueryDay(req, "date")
	if err != nil || day == nil || *day != "2025-03-01" {
		t.Fatalf("unexpected day %v (%v)", day, err)
	}

	orderType, err := ParseQueryEnum(req, "type", enums.ParseOrderType)
	if err != nil || orderType == nil || *orderType != enums.OrderTypeDineIn {
		t.Fatalf("unexpected type %v (%v)", orderType, err)
	}

	table, err := ParseOptionalQueryInt(req, "table", 1, 9)
	if err != nil || table == nil || *table != 4 {
		t.Fatalf("unexpected table %v (%v)", table, err)
	}

	from, err := ParseQueryTime(req, "from", time.UTC)
	if err != nil || from == nil || !from.Equal(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected from %v (%v)", from, err)
	}

	params, err := ParsePagination(req)
	if err != nil || params.Limit != 10 || params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v (%v)", params, err)
	}

	missing, err := ParseQueryUUID(req, "cash_session_id")
	if err != nil || missing != nil {
		t.Fatalf("absent filters stay nil, got %v (%v)", missing, err)
	}

	bad := httptest.NewRequest(http.MethodGet, "/?date=03/01/2025&type=delivery", nil)
	if _, err := ParseQueryDay(bad, "date"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected invalid day, got %v", err)
	}
	if _, err := ParseQueryEnum(bad, "type", enums.ParseOrderType); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected invalid enum, got %v", err)
	}
}

func TestParseQueryTimeReadsDayInLocation(t *testing.T) {
	lima, err := time.LoadLocation("America/Lima")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/?from=2025-03-01", nil)
	from, err := ParseQueryTime(req, "from", lima)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.Equal(time.Date(2025, 3, 1, 5, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected Lima midnight in UTC, got %v", from)
	}
}

func TestSanitize(t *testing.T) {
	if got := SanitizeString("  ají de gallina  ", 3); got != "ají" {
		t.Fatalf("unexpected %q", got)
	}
	blank := "   "
	if SanitizeOptional(&blank, 10) != nil {
		t.Fatal("blank optional text should be nil")
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestDecodeOptionalJSONBody(t *testing.T) {
	var body struct {
		Method *string `json:"payment_method,omitempty"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	if err := DecodeOptionalJSONBody(req, &body); err != nil {
		t.Fatalf("empty body should be accepted: %v", err)
	}
	if body.Method != nil {
		t.Fatalf("expected nil method, got %v", *body.Method)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"payment_method":"yape"}`))
	if err := DecodeOptionalJSONBody(req, &body); err != nil || body.Method == nil || *body.Method != "yape" {
		t.Fatalf("unexpected decode %v (%v)", body.Method, err)
	}
}

func TestParseEnumField(t *testing.T) {
	raw := "TAKEAWAY"
	got, err := ParseEnumField(&raw, "destination", enums.ParseLineDestination)
	if err != nil || got == nil || *got != enums.LineDestinationTakeaway {
		t.Fatalf("unexpected destination %v (%v)", got, err)
	}
	if got, err := ParseEnumField[enums.LineDestination](nil, "destination", enums.ParseLineDestination); err != nil || got != nil {
		t.Fatalf("nil input should stay nil, got %v (%v)", got, err)
	}
	bad := "delivery"
	if _, err := ParseEnumField(&bad, "destination", enums.ParseLineDestination); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
