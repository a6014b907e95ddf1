package server

import (
    "context"
    "encoding/json"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/jackc/pgx/v5"
    "github.com/shopspring/decimal"

    "cargotrack/internal/engine"
    "cargotrack/internal/metrics"
)

// Suggestions
type SuggestionRequest struct {
    SupplierID    string           `json:"supplier_id"`
    WarehouseID   string           `json:"warehouse_id"`
    Category      string           `json:"category"`
    DeclaredValue *decimal.Decimal `json:"declared_value"`
    WeightKG      *decimal.Decimal `json:"weight_kg"`
    VolumeCBM     *decimal.Decimal `json:"volume_cbm"`
    Description   string           `json:"description"`
    DispatchDate  string           `json:"dispatch_date"`
    TimeCritical  bool             `json:"time_critical"`
}

type Suggestions struct {
    Priority        engine.Priority      `json:"priority"`
    TransportMode   engine.TransportMode `json:"transport_mode"`
    Unit            engine.Unit          `json:"unit_of_measurement"`
    ExpectedArrival string               `json:"expected_arrival,omitempty"`
    EstimatedHours  decimal.Decimal      `json:"estimated_hours"`
}

type SupplierInfo struct {
    PaymentTerms     string          `json:"payment_terms"`
    CreditLimit      decimal.Decimal `json:"credit_limit"`
    ReliabilityScore decimal.Decimal `json:"reliability_score"`
    ContactPerson    string          `json:"contact_person"`
    Phone            string          `json:"phone"`
}

type WarehouseInfo struct {
    CapacityUtilization decimal.Decimal `json:"capacity_utilization"`
    Manager             string          `json:"manager"`
    Phone               string          `json:"phone"`
}

type SuggestionResponse struct {
    Success       bool             `json:"success"`
    Suggestions   Suggestions      `json:"suggestions"`
    SupplierInfo  SupplierInfo     `json:"supplier_info"`
    WarehouseInfo WarehouseInfo    `json:"warehouse_info"`
    Reasoning     engine.Reasoning `json:"reasoning"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
    var req SuggestionRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
        return
    }
    if strings.TrimSpace(req.SupplierID) == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "supplier_id required")
        return
    }
    if strings.TrimSpace(req.WarehouseID) == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "warehouse_id required")
        return
    }
    if strings.TrimSpace(req.Category) == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "category required")
        return
    }
    if req.DeclaredValue == nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_numeric_input", "declared_value: required")
        return
    }
    if req.WeightKG == nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_numeric_input", "weight_kg: required")
        return
    }

    draft := engine.Draft{
        Category:      strings.ToUpper(strings.TrimSpace(req.Category)),
        DeclaredValue: *req.DeclaredValue,
        WeightKG:      *req.WeightKG,
        Description:   req.Description,
        TimeCritical:  req.TimeCritical,
    }
    if req.VolumeCBM != nil {
        draft.VolumeCBM = *req.VolumeCBM
    }
    if strings.TrimSpace(req.DispatchDate) != "" {
        t, err := time.Parse(time.RFC3339, req.DispatchDate)
        if err != nil {
            writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid dispatch_date")
            return
        }
        draft.Dispatch = t.UTC()
    }
    if err := engine.ValidateDraft(draft); err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_numeric_input", err.Error())
        return
    }

    ctx := r.Context()
    cat, err := s.lookupCategory(ctx, draft.Category)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "category not found")
            return
        }
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    sup, err := s.lookupSupplier(ctx, req.SupplierID)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "supplier not found")
            return
        }
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    wh, err := s.lookupWarehouse(ctx, req.WarehouseID)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "warehouse not found")
            return
        }
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }

    draft.SpecialHandling = cat.Special
    draft.Reliability = sup.Reliability
    draft.InterCounty = sup.CountyID != wh.CountyID

    bundle := s.eng.Suggest(draft)
    metrics.Suggestions.WithLabelValues(string(bundle.Priority), string(bundle.TransportMode)).Inc()

    res := SuggestionResponse{
        Success: true,
        Suggestions: Suggestions{
            Priority:       bundle.Priority,
            TransportMode:  bundle.TransportMode,
            Unit:           bundle.Unit,
            EstimatedHours: bundle.TotalHours,
        },
        SupplierInfo: SupplierInfo{
            PaymentTerms:     sup.PaymentTerms,
            CreditLimit:      sup.CreditLimit,
            ReliabilityScore: sup.Reliability,
            ContactPerson:    sup.ContactPerson,
            Phone:            sup.Phone,
        },
        WarehouseInfo: WarehouseInfo{
            CapacityUtilization: wh.Utilization,
            Manager:             wh.Manager,
            Phone:               wh.Phone,
        },
        Reasoning: bundle.Reasoning,
    }
    if bundle.ExpectedArrival != nil {
        res.Suggestions.ExpectedArrival = bundle.ExpectedArrival.UTC().Format(time.RFC3339)
    }
    writeJSON(w, http.StatusOK, res)
}

// Reference lookups shared with the cargo handlers.

type supplierRef struct {
    ID            uuid.UUID
    CountyID      int
    PaymentTerms  string
    CreditLimit   decimal.Decimal
    Reliability   decimal.Decimal
    ContactPerson string
    Phone         string
}

func (s *Server) lookupSupplier(ctx context.Context, supplierID string) (supplierRef, error) {
    var (
        ref   supplierRef
        terms *string
    )
    err := s.db.QueryRow(ctx, `
        SELECT id, county_id, payment_terms, credit_limit, reliability_score, contact_person, phone
        FROM suppliers
        WHERE supplier_id = $1 AND status = 'ACTIVE'
    `, supplierID).Scan(&ref.ID, &ref.CountyID, &terms, &ref.CreditLimit, &ref.Reliability, &ref.ContactPerson, &ref.Phone)
    if terms != nil {
        ref.PaymentTerms = *terms
    }
    return ref, err
}

type warehouseRef struct {
    ID          uuid.UUID
    CountyID    int
    Utilization decimal.Decimal
    Manager     string
    Phone       string
}

func (s *Server) lookupWarehouse(ctx context.Context, warehouseID string) (warehouseRef, error) {
    var ref warehouseRef
    err := s.db.QueryRow(ctx, `
        SELECT id, county_id,
               CASE WHEN total_capacity_sqm > 0
                    THEN round(current_utilization_sqm / total_capacity_sqm * 100, 2)
                    ELSE 0 END AS utilization,
               manager_name, manager_phone
        FROM warehouses
        WHERE warehouse_id = $1 AND is_active
    `, warehouseID).Scan(&ref.ID, &ref.CountyID, &ref.Utilization, &ref.Manager, &ref.Phone)
    return ref, err
}

type categoryRef struct {
    ID      int
    Code    string
    Special bool
}

func (s *Server) lookupCategory(ctx context.Context, code string) (categoryRef, error) {
    var ref categoryRef
    err := s.db.QueryRow(ctx, `
        SELECT id, code, requires_special_handling
        FROM cargo_categories
        WHERE code = $1 AND is_active
    `, code).Scan(&ref.ID, &ref.Code, &ref.Special)
    return ref, err
}
