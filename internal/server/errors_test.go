package server

import (
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
)

// helper to parse standardized error
type stdError struct {
    Success bool `json:"success"`
    Error   struct {
        Code    string `json:"code"`
        Message string `json:"message"`
    } `json:"error"`
}

func TestSuggestions_InvalidJSON_ErrorJSON(t *testing.T) {
    h := New(nil)
    req := httptest.NewRequest(http.MethodPost, "/suggestions", strings.NewReader("{not json"))
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusBadRequest {
        t.Fatalf("expected 400, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var e stdError
    if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
        t.Fatalf("unmarshal error: %v", err)
    }
    if e.Error.Code != "invalid_json" {
        t.Fatalf("unexpected error code: %s", e.Error.Code)
    }
    if e.Success {
        t.Fatal("success must be false on error responses")
    }
}

func TestCreateCargo_InvalidJSON_ErrorJSON(t *testing.T) {
    h := New(nil)
    req := httptest.NewRequest(http.MethodPost, "/cargo", strings.NewReader(`"not an object`))
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusBadRequest {
        t.Fatalf("expected 400, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var e stdError
    if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
        t.Fatalf("unmarshal error: %v", err)
    }
    if e.Error.Code != "invalid_json" {
        t.Fatalf("unexpected error code: %s", e.Error.Code)
    }
}

func TestErrorEnvelope_HasContentType(t *testing.T) {
    h := New(nil)
    req := httptest.NewRequest(http.MethodPost, "/suggestions", strings.NewReader("{}"))
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusBadRequest {
        t.Fatalf("expected 400, got %d", rr.Code)
    }
    if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
        t.Fatalf("unexpected content type: %q", ct)
    }
    var e stdError
    if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
        t.Fatalf("unmarshal error: %v", err)
    }
    if e.Error.Code == "" || e.Error.Message == "" {
        t.Fatalf("error envelope incomplete: %+v", e)
    }
}
