package server

import (
    "bytes"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "testing"
    "time"
)

func TestSupplierLifecycleIntegration(t *testing.T) {
    _, h := setupIntegration(t)

    // Unique per run so reruns never trip the KRA PIN constraint.
    pin := fmt.Sprintf("A%09dZ", time.Now().UnixNano()%1_000_000_000)
    payload := map[string]any{
        "name":           "Kericho Tea Traders",
        "supplier_type":  "DISTRIBUTOR",
        "kra_pin":        pin,
        "contact_person": "Grace Chebet",
        "phone":          "+254711222333",
        "email":          "orders@kerichotea.example.co.ke",
        "county":         "Nairobi",
        "payment_terms":  "NET_30",
        "credit_limit":   250000,
    }
    body, _ := json.Marshal(payload)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/suppliers", bytes.NewReader(body)))
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var created SupplierCreateResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }
    if created.Status != "ACTIVE" || created.SupplierID == "" {
        t.Fatalf("unexpected create response: %+v", created)
    }

    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/suppliers/"+created.SupplierID, nil))
    if rr.Code != http.StatusOK {
        t.Fatalf("get supplier: expected 200, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var got SupplierResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }
    if got.KRAPin != pin || got.County != "Nairobi" {
        t.Fatalf("unexpected supplier: %+v", got)
    }

    // Same KRA PIN again conflicts.
    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/suppliers", bytes.NewReader(body)))
    if rr.Code != http.StatusConflict {
        t.Fatalf("expected 409, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var e stdError
    if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
        t.Fatalf("unmarshal error: %v", err)
    }
    if e.Error.Code != "duplicate_kra_pin" {
        t.Fatalf("unexpected error code: %s", e.Error.Code)
    }
}

func TestWarehouseLifecycleIntegration(t *testing.T) {
    _, h := setupIntegration(t)

    payload := map[string]any{
        "name":               "Embakasi Cold Store",
        "warehouse_type":     "COLD_STORAGE",
        "county":             "Nairobi",
        "total_capacity_sqm": 1200,
        "manager_name":       "Samuel Kiprop",
        "manager_phone":      "+254700111222",
    }
    body, _ := json.Marshal(payload)
    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/warehouses", bytes.NewReader(body)))
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var created WarehouseCreateResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }

    rr = httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/warehouses/"+created.WarehouseID, nil))
    if rr.Code != http.StatusOK {
        t.Fatalf("get warehouse: expected 200, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var got WarehouseResponse
    if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }
    if !got.IsActive || got.County != "Nairobi" {
        t.Fatalf("unexpected warehouse: %+v", got)
    }
    if !got.UtilizationPercent.IsZero() {
        t.Fatalf("new warehouse utilization = %s, want 0", got.UtilizationPercent)
    }
}

func TestListCategoriesIntegration(t *testing.T) {
    _, h := setupIntegration(t)

    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/categories", nil))
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var res struct {
        Items []CategoryResponse `json:"items"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }
    var food *CategoryResponse
    for i := range res.Items {
        if res.Items[i].Code == "FOOD" {
            food = &res.Items[i]
        }
    }
    if food == nil {
        t.Fatal("FOOD category missing")
    }
    if !food.SpecialHandling {
        t.Fatal("FOOD must require special handling")
    }
}

func TestDashboardStatsIntegration(t *testing.T) {
    _, h := setupIntegration(t)

    rr := httptest.NewRecorder()
    h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/stats/dashboard", nil))
    if rr.Code != http.StatusOK {
        t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
    }
    var stats DashboardStats
    if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
        t.Fatalf("failed to unmarshal: %v", err)
    }
    if stats.TotalActiveShipments < 0 || stats.DelayedShipments < 0 {
        t.Fatalf("negative counts: %+v", stats)
    }
    if stats.StatusDistribution == nil {
        t.Fatal("status_distribution missing")
    }
}
