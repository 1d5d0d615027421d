package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
		exposed   bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "validation failed", detailsOK: true, exposed: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "authentication required", exposed: true},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "access denied", detailsOK: true, exposed: true},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "resource not found", exposed: true},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "conflict detected", exposed: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, publicMsg: "state transition disallowed", detailsOK: true, exposed: true},
		{code: CodeInsufficient, status: http.StatusConflict, publicMsg: "insufficient stock", detailsOK: true, exposed: true},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "rate limit exceeded", retryable: true, exposed: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "internal server error"},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "dependency unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
		if meta.ExposeMessage != tt.exposed {
			t.Fatalf("code %s expected expose message %v got %v", tt.code, tt.exposed, meta.ExposeMessage)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	inner := New(CodeInsufficient, "insufficient stock for product").WithDetails(map[string]any{"available": 3, "requested": 5})
	outer := fmt.Errorf("add items: %w", inner)

	if !IsCode(outer, CodeInsufficient) {
		t.Fatalf("expected wrapped error to carry %s", CodeInsufficient)
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatalf("unexpected match for %s", CodeNotFound)
	}
	if IsCode(stdErrors.New("plain"), CodeInsufficient) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestRetryableUsesCodeMetadata(t *testing.T) {
	if !Retryable(Wrap(CodeDependency, stdErrors.New("lock timeout"), "reserve stock")) {
		t.Fatalf("dependency errors should be retryable")
	}
	if Retryable(New(CodeStateConflict, "order already paid")) {
		t.Fatalf("state conflicts are not retryable")
	}
	if Retryable(stdErrors.New("untyped")) {
		t.Fatalf("untyped errors are not retryable")
	}
}

func TestStateConflictCarriesReason(t *testing.T) {
	err := fmt.Errorf("pay: %w", StateConflict(ReasonOrderAlreadyPaid, "order already paid", map[string]any{"order_id": "o-1", "reason": "overridden"}))

	if !IsCode(err, CodeStateConflict) {
		t.Fatalf("expected %s", CodeStateConflict)
	}
	if got := ReasonOf(err); got != ReasonOrderAlreadyPaid {
		t.Fatalf("unexpected reason %q", got)
	}
	details := As(err).Details().(map[string]any)
	if details["order_id"] != "o-1" {
		t.Fatalf("extra details dropped: %v", details)
	}
	if ReasonOf(New(CodeNotFound, "missing")) != "" || ReasonOf(stdErrors.New("plain")) != "" {
		t.Fatalf("errors without details carry no reason")
	}
}

func TestInsufficientStockDetails(t *testing.T) {
	err := InsufficientStock("p-1", "2026-03-02", 5, 15)
	if err.Code() != CodeInsufficient {
		t.Fatalf("unexpected code %s", err.Code())
	}
	details := err.Details().(map[string]any)
	if details["available"] != 5 || details["requested"] != 15 || details["scope"] != "2026-03-02" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("lock timeout"), "reserve stock")
	if got := err.Error(); got != "DEPENDENCY_ERROR: reserve stock: lock timeout" {
		t.Fatalf("unexpected message %q", got)
	}
}
