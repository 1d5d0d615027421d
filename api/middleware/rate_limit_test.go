package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/tablepos-backend/pkg/auth"
	"github.com/angelmondragon/tablepos-backend/pkg/enums"
	"github.com/google/uuid"
)

type fakeCounter struct {
	counts map[string]int64
}

func (f *fakeCounter) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounter) RateLimitKey(scope string) string {
	return "rl:" + scope
}

func TestWriteRateLimitBlocksExcessWrites(t *testing.T) {
	store := &fakeCounter{counts: map[string]int64{}}
	mw := WriteRateLimit(NewWriteRateLimitPolicy(time.Minute, 2), store, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	actor := auth.Actor{UserID: uuid.New(), Role: enums.RoleCashier}
	send := func(method string) int {
		req := httptest.NewRequest(method, "/api/v1/orders", nil)
		req = req.WithContext(WithActor(req.Context(), actor))
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp.Code
	}

	if got := send(http.MethodPost); got != http.StatusOK {
		t.Fatalf("first write: expected 200 got %d", got)
	}
	if got := send(http.MethodPatch); got != http.StatusOK {
		t.Fatalf("second write: expected 200 got %d", got)
	}
	if got := send(http.MethodGet); got != http.StatusOK {
		t.Fatalf("reads are not counted, got %d", got)
	}
	if got := send(http.MethodDelete); got != http.StatusTooManyRequests {
		t.Fatalf("third write: expected 429 got %d", got)
	}
	if store.counts["rl:writes:"+actor.UserID.String()] != 3 {
		t.Fatalf("unexpected counters %v", store.counts)
	}
}

func TestWriteRateLimitDisabled(t *testing.T) {
	called := false
	mw := WriteRateLimit(NewWriteRateLimitPolicy(0, 0), &fakeCounter{counts: map[string]int64{}}, nil)
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	if !called {
		t.Fatal("disabled policy must pass through")
	}
}
