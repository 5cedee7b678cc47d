package httpx

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/uniqmaker/api/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{TraceID: "trace-456"})

	rr := httptest.NewRecorder()
	WriteError(ctx, rr, NewError("master_code_not_found", "master code not found", 404))

	if rr.Code != 404 {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if payload["error"] != "master_code_not_found" {
		t.Errorf("unexpected error code %v", payload["error"])
	}
	if payload["message"] != "master code not found" {
		t.Errorf("unexpected message %v", payload["message"])
	}
	if payload["status"] != float64(404) {
		t.Errorf("unexpected status %v", payload["status"])
	}
	if payload["request_id"] != "req-123" {
		t.Errorf("unexpected request id %v", payload["request_id"])
	}
	if payload["trace_id"] != "trace-456" {
		t.Errorf("unexpected trace id %v", payload["trace_id"])
	}
}

func TestWriteErrorDefaultsStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(context.Background(), rr, Error{Code: "supplier_error", Message: "boom"})

	if rr.Code != 500 {
		t.Fatalf("expected 500 default, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "request_id") {
		t.Fatalf("expected no request id without context value, got %s", rr.Body.String())
	}
}

func TestNewErrorSanitizesInput(t *testing.T) {
	err := NewError("bad\ncode", "multi\r\nline message", 400)
	if strings.ContainsAny(err.Code, "\n\r") || strings.ContainsAny(err.Message, "\n\r") {
		t.Fatalf("expected newlines stripped, got %q / %q", err.Code, err.Message)
	}
}
