package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newRequestWithChiParam(key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	req := httptest.NewRequest("GET", "/", nil)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"msg": "ok"})

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSON decode: %v", err)
	}
	if body["msg"] != "ok" {
		t.Errorf("body = %v, want msg=ok", body)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad input")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSON decode: %v", err)
	}
	if body.Success {
		t.Error("expected success=false on an error response")
	}
	if body.Error != "bad input" {
		t.Errorf("Error = %q, want %q", body.Error, "bad input")
	}
}

func TestWriteErrorDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorDetail(rec, http.StatusUnprocessableEntity, "validation failed", "name is required")

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSON decode: %v", err)
	}
	if body.Error != "validation failed" || body.Detail != "name is required" {
		t.Errorf("got %+v", body)
	}
}

func TestWriteErrorWithCode(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorWithCode(rec, http.StatusForbidden, ErrForbidden, "nope")

	var body CodedErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("JSON decode: %v", err)
	}
	if body.Code != ErrForbidden || body.Error != "nope" || body.Success {
		t.Errorf("got %+v", body)
	}
}

func TestPathString(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		req := newRequestWithChiParam("callId", "call-123")
		v, err := PathString(req, "callId")
		if err != nil || v != "call-123" {
			t.Errorf("got (%q, %v), want (call-123, nil)", v, err)
		}
	})
	t.Run("missing", func(t *testing.T) {
		rctx := chi.NewRouteContext()
		req := httptest.NewRequest("GET", "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
		if _, err := PathString(req, "callId"); err == nil {
			t.Error("expected error for missing param")
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid_body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"test"}`))
		var dst struct {
			Name string `json:"name"`
		}
		if err := DecodeJSON(req, &dst); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dst.Name != "test" {
			t.Errorf("Name = %q, want %q", dst.Name, "test")
		}
	})
	t.Run("nil_body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", nil)
		req.Body = nil
		var dst struct{}
		if err := DecodeJSON(req, &dst); err == nil {
			t.Error("expected error for nil body")
		}
	})
	t.Run("malformed_json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{bad`))
		var dst struct{}
		if err := DecodeJSON(req, &dst); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})
}
