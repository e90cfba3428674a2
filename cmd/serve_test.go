package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/controller"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
	"github.com/labstack/echo/v4"
)

func TestRegisterRoutes(t *testing.T) {
	e := echo.New()
	registerRoutes(e, controller.NewPaymentController(nil))

	want := map[string]bool{
		http.MethodGet + " /health":                   false,
		http.MethodPost + " /payments":                false,
		http.MethodGet + " /payments":                 false,
		http.MethodGet + " /payments/:id":             false,
		http.MethodPost + " /payments/:id/cancel":     false,
		http.MethodGet + " /payments/:id/status":      false,
		http.MethodGet + " /payments/:id/esewa":       false,
		http.MethodPost + " /payments/esewa/callback": false,
	}
	for _, route := range e.Routes() {
		key := route.Method + " " + route.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for key, found := range want {
		if !found {
			t.Fatalf("route %s not registered", key)
		}
	}
}

func TestRequireRequestID(t *testing.T) {
	e := echo.New()
	handler := requireRequestID()(func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/payments", nil), rec))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/payments", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-1")
	rec = httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	if rec.Code != http.StatusNoContent || rec.Header().Get(echo.HeaderXRequestID) != "req-1" {
		t.Fatalf("unexpected response: %d %v", rec.Code, rec.Header())
	}
}

func TestRequireStoreID(t *testing.T) {
	e := echo.New()
	handler := requireStoreID()(func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	_ = handler(e.NewContext(httptest.NewRequest(http.MethodGet, "/payments/1/status", nil), rec))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/payments/1/status", nil)
	req.Header.Set(types.HeaderStoreID, "store-1")
	rec = httptest.NewRecorder()
	_ = handler(e.NewContext(req, rec))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
