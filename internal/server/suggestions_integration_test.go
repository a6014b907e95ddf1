package server

import (
    "bytes"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/shopspring/decimal"
)

func TestSuggestionsIntegration(t *testing.T) {
    _, h := setupIntegration(t)

    payload := map[string]any{
        "supplier_id":    "SUP-9999-99001",
        "warehouse_id":   "WH-9999-9901",
        "category":       "FOOD",
        "declared_value": 1_750_000,
        "weight_kg":      8000,
        "description":    "Maize grain, bulk consignment",
        "dispatch_date":  "2025-11-19T00:00:00Z",
    }
    body, _ := json.Marshal(payload)
    req := httptest.NewRequest(http.MethodPost, "/suggestions", bytes.NewReader(body))
    req.Header.Set("Content-Type", "application/json")
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
    }

    var res SuggestionResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }
    if !res.Success {
        t.Fatal("expected success")
    }
    // Perishable cargo above the high-value threshold.
    if res.Suggestions.Priority != "URGENT" {
        t.Fatalf("priority = %s, want URGENT", res.Suggestions.Priority)
    }
    // Below every rail threshold: road despite the inter-county route.
    if res.Suggestions.TransportMode != "ROAD" {
        t.Fatalf("transport_mode = %s, want ROAD", res.Suggestions.TransportMode)
    }
    if res.Suggestions.Unit != "TONS" {
        t.Fatalf("unit = %s, want TONS", res.Suggestions.Unit)
    }
    // (24 base + 6 weight + 12 inter-county) x 1.10
    if !res.Suggestions.EstimatedHours.Equal(decimal.NewFromFloat(46.2)) {
        t.Fatalf("estimated_hours = %s, want 46.2", res.Suggestions.EstimatedHours)
    }
    if res.Suggestions.ExpectedArrival != "2025-11-20T22:12:00Z" {
        t.Fatalf("expected_arrival = %s", res.Suggestions.ExpectedArrival)
    }
    if !res.SupplierInfo.ReliabilityScore.Equal(decimal.NewFromInt(92)) {
        t.Fatalf("reliability_score = %s, want 92", res.SupplierInfo.ReliabilityScore)
    }
    if !res.WarehouseInfo.CapacityUtilization.Equal(decimal.NewFromInt(25)) {
        t.Fatalf("capacity_utilization = %s, want 25", res.WarehouseInfo.CapacityUtilization)
    }
    if res.Reasoning.Priority == "" || res.Reasoning.TransportMode == "" || res.Reasoning.DeliveryTime == "" {
        t.Fatalf("incomplete reasoning: %+v", res.Reasoning)
    }
}

func TestSuggestionsIntegration_NoDispatchDate(t *testing.T) {
    _, h := setupIntegration(t)

    payload := map[string]any{
        "supplier_id":    "SUP-9999-99001",
        "warehouse_id":   "WH-9999-9901",
        "category":       "GENM",
        "declared_value": 60_000,
        "weight_kg":      150,
    }
    body, _ := json.Marshal(payload)
    req := httptest.NewRequest(http.MethodPost, "/suggestions", bytes.NewReader(body))
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
    }

    var res SuggestionResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }
    if !res.Success {
        t.Fatal("partial suggestions should still be a success")
    }
    if res.Suggestions.ExpectedArrival != "" {
        t.Fatalf("expected no arrival without a dispatch date, got %s", res.Suggestions.ExpectedArrival)
    }
    if res.Suggestions.Priority != "MEDIUM" {
        t.Fatalf("priority = %s, want MEDIUM", res.Suggestions.Priority)
    }
    if !strings.Contains(res.Reasoning.DeliveryTime, "dispatch date not provided") {
        t.Fatalf("reasoning should explain the missing arrival: %q", res.Reasoning.DeliveryTime)
    }
}

func TestSuggestionsIntegration_UnknownSupplier(t *testing.T) {
    _, h := setupIntegration(t)

    payload := map[string]any{
        "supplier_id":    "SUP-0000-00000",
        "warehouse_id":   "WH-9999-9901",
        "category":       "FOOD",
        "declared_value": 1000,
        "weight_kg":      10,
    }
    body, _ := json.Marshal(payload)
    req := httptest.NewRequest(http.MethodPost, "/suggestions", bytes.NewReader(body))
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, req)
    if rr.Code != http.StatusNotFound {
        t.Fatalf("expected 404, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var e stdError
    if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
        t.Fatalf("unmarshal error: %v", err)
    }
    if e.Error.Code != "invalid_reference" {
        t.Fatalf("unexpected error code: %s", e.Error.Code)
    }
}
