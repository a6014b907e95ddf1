package server

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/google/uuid"
    "github.com/jackc/pgx/v5"
    "github.com/shopspring/decimal"

    "cargotrack/internal/engine"
)

var cargoStatuses = map[string]bool{
    "DISPATCHED": true,
    "IN_TRANSIT": true,
    "ARRIVED":    true,
    "RECEIVED":   true,
    "STORED":     true,
    "DELAYED":    true,
    "CANCELLED":  true,
    "DAMAGED":    true,
}

// Cargo creation. Priority, transport mode, unit and expected arrival are
// operator-overridable: any left empty is filled from the suggestion engine.
type CargoCreateRequest struct {
    SupplierID      string           `json:"supplier_id"`
    WarehouseID     string           `json:"warehouse_id"`
    Category        string           `json:"category"`
    Description     string           `json:"description"`
    Quantity        int              `json:"quantity"`
    Unit            string           `json:"unit_of_measurement"`
    WeightKG        *decimal.Decimal `json:"weight_kg"`
    VolumeCBM       *decimal.Decimal `json:"volume_cbm"`
    DeclaredValue   *decimal.Decimal `json:"declared_value"`
    DispatchDate    string           `json:"dispatch_date"`
    ExpectedArrival string           `json:"expected_arrival_date"`
    TransportMode   string           `json:"transport_mode"`
    Priority        string           `json:"priority"`
    TimeCritical    bool             `json:"time_critical"`
}

type CargoCreateResponse struct {
    CargoID         string `json:"cargo_id"`
    TrackingNumber  string `json:"tracking_number"`
    Status          string `json:"status"`
    Priority        string `json:"priority"`
    TransportMode   string `json:"transport_mode"`
    Unit            string `json:"unit_of_measurement"`
    ExpectedArrival string `json:"expected_arrival_date"`
    CreatedAt       string `json:"created_at"`
}

func (s *Server) handleCreateCargo(w http.ResponseWriter, r *http.Request) {
    var req CargoCreateRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
        return
    }
    for field, v := range map[string]string{
        "supplier_id":  req.SupplierID,
        "warehouse_id": req.WarehouseID,
        "category":     req.Category,
        "description":  req.Description,
    } {
        if strings.TrimSpace(v) == "" {
            writeErrorJSON(w, http.StatusBadRequest, "invalid_request", field+" required")
            return
        }
    }
    if req.Quantity < 1 {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_numeric_input", "quantity: must be at least 1")
        return
    }
    if req.WeightKG == nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_numeric_input", "weight_kg: required")
        return
    }
    if req.DeclaredValue == nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_numeric_input", "declared_value: required")
        return
    }
    dispatch, err := time.Parse(time.RFC3339, req.DispatchDate)
    if err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "dispatch_date required (RFC3339)")
        return
    }
    if req.Priority != "" && !validPriority(req.Priority) {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid priority")
        return
    }
    if req.TransportMode != "" && !validTransportMode(req.TransportMode) {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid transport_mode")
        return
    }

    draft := engine.Draft{
        Category:      strings.ToUpper(strings.TrimSpace(req.Category)),
        DeclaredValue: *req.DeclaredValue,
        WeightKG:      *req.WeightKG,
        Description:   req.Description,
        TimeCritical:  req.TimeCritical,
        Dispatch:      dispatch.UTC(),
    }
    if req.VolumeCBM != nil {
        draft.VolumeCBM = *req.VolumeCBM
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

    priority := orDefault(req.Priority, string(bundle.Priority))
    mode := orDefault(req.TransportMode, string(bundle.TransportMode))
    unit := orDefault(req.Unit, string(bundle.Unit))
    var expected time.Time
    if req.ExpectedArrival != "" {
        expected, err = time.Parse(time.RFC3339, req.ExpectedArrival)
        if err != nil {
            writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid expected_arrival_date")
            return
        }
        expected = expected.UTC()
    } else {
        // Dispatch date is always present on this path, so the engine
        // always produced an arrival.
        expected = bundle.ExpectedArrival.UTC()
    }

    var seq int64
    if err := s.db.QueryRow(ctx, `SELECT nextval('cargo_id_seq')`).Scan(&seq); err != nil {
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    now := time.Now().UTC()
    cargoPK := uuid.New()
    trackingNumber := uuid.New()
    cargoID := fmt.Sprintf("CRG-%s-%06d", now.Format("200601"), seq)

    _, err = s.db.Exec(ctx, `
        INSERT INTO cargos (
            id, cargo_id, tracking_number, supplier_id, warehouse_id, category_id,
            description, quantity, unit_of_measurement, weight_kg, volume_cbm, declared_value,
            dispatch_date, expected_arrival_date, transport_mode, status, priority,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            $7, $8, $9, $10, $11, $12,
            $13, $14, $15, 'DISPATCHED', $16,
            $17, $17
        )
    `,
        cargoPK, cargoID, trackingNumber, sup.ID, wh.ID, cat.ID,
        req.Description, req.Quantity, unit, draft.WeightKG, volumeOrNil(req.VolumeCBM), draft.DeclaredValue,
        draft.Dispatch, expected, mode, priority,
        now,
    )
    if err != nil {
        log.Println("insert cargo error:", err)
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "failed to create cargo")
        return
    }

    writeJSON(w, http.StatusOK, CargoCreateResponse{
        CargoID:         cargoID,
        TrackingNumber:  trackingNumber.String(),
        Status:          "DISPATCHED",
        Priority:        priority,
        TransportMode:   mode,
        Unit:            unit,
        ExpectedArrival: expected.Format(time.RFC3339),
        CreatedAt:       now.Format(time.RFC3339),
    })
}

// Cargo detail
type CargoResponse struct {
    CargoID         string           `json:"cargo_id"`
    TrackingNumber  string           `json:"tracking_number"`
    SupplierID      string           `json:"supplier_id"`
    WarehouseID     string           `json:"warehouse_id"`
    Category        string           `json:"category"`
    Description     string           `json:"description"`
    Quantity        int              `json:"quantity"`
    Unit            string           `json:"unit_of_measurement"`
    WeightKG        decimal.Decimal  `json:"weight_kg"`
    VolumeCBM       *decimal.Decimal `json:"volume_cbm,omitempty"`
    DeclaredValue   decimal.Decimal  `json:"declared_value"`
    DispatchDate    string           `json:"dispatch_date"`
    ExpectedArrival string           `json:"expected_arrival_date"`
    ActualArrival   string           `json:"actual_arrival_date,omitempty"`
    ReceivedDate    string           `json:"received_date,omitempty"`
    TransportMode   string           `json:"transport_mode"`
    Status          string           `json:"status"`
    Priority        string           `json:"priority"`
    DurationHours   *decimal.Decimal `json:"delivery_duration_hours,omitempty"`
    IsDelayed       bool             `json:"is_delayed"`
    DelayReason     string           `json:"delay_reason,omitempty"`
}

const cargoSelect = `
    SELECT c.cargo_id, c.tracking_number, s.supplier_id, w.warehouse_id, cc.code,
           c.description, c.quantity, c.unit_of_measurement, c.weight_kg, c.volume_cbm, c.declared_value,
           c.dispatch_date, c.expected_arrival_date, c.actual_arrival_date, c.received_date,
           c.transport_mode, c.status, c.priority, c.delivery_duration_hours, c.is_delayed, c.delay_reason
    FROM cargos c
    JOIN suppliers s ON s.id = c.supplier_id
    JOIN warehouses w ON w.id = c.warehouse_id
    JOIN cargo_categories cc ON cc.id = c.category_id
`

func scanCargo(row pgx.Row) (CargoResponse, error) {
    var (
        res                CargoResponse
        tracking           uuid.UUID
        dispatch, expected time.Time
        actual, received   *time.Time
        delayReason        *string
    )
    err := row.Scan(
        &res.CargoID, &tracking, &res.SupplierID, &res.WarehouseID, &res.Category,
        &res.Description, &res.Quantity, &res.Unit, &res.WeightKG, &res.VolumeCBM, &res.DeclaredValue,
        &dispatch, &expected, &actual, &received,
        &res.TransportMode, &res.Status, &res.Priority, &res.DurationHours, &res.IsDelayed, &delayReason,
    )
    if err != nil {
        return res, err
    }
    res.TrackingNumber = tracking.String()
    res.DispatchDate = dispatch.UTC().Format(time.RFC3339)
    res.ExpectedArrival = expected.UTC().Format(time.RFC3339)
    if actual != nil {
        res.ActualArrival = actual.UTC().Format(time.RFC3339)
    }
    if received != nil {
        res.ReceivedDate = received.UTC().Format(time.RFC3339)
    }
    if delayReason != nil {
        res.DelayReason = *delayReason
    }
    return res, nil
}

func (s *Server) handleGetCargo(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimSpace(chi.URLParam(r, "id"))
    if id == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "id required")
        return
    }
    // Accept either the cargo id or the UUID tracking number.
    where := ` WHERE c.cargo_id = $1`
    if _, err := uuid.Parse(id); err == nil {
        where = ` WHERE c.tracking_number = $1`
    }
    res, err := scanCargo(s.db.QueryRow(r.Context(), cargoSelect+where, id))
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "cargo not found")
            return
        }
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListCargo(w http.ResponseWriter, r *http.Request) {
    q := r.URL.Query()
    limit := 50
    if v := q.Get("limit"); v != "" {
        if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
            limit = n
        }
    }
    status := strings.ToUpper(strings.TrimSpace(q.Get("status")))
    if status != "" && !cargoStatuses[status] {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid status")
        return
    }

    sql := cargoSelect
    args := []any{}
    if status != "" {
        sql += ` WHERE c.status = $1 ORDER BY c.dispatch_date DESC LIMIT $2`
        args = append(args, status, limit)
    } else {
        sql += ` ORDER BY c.dispatch_date DESC LIMIT $1`
        args = append(args, limit)
    }
    rows, err := s.db.Query(r.Context(), sql, args...)
    if err != nil {
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    defer rows.Close()

    items := []CargoResponse{}
    for rows.Next() {
        item, err := scanCargo(rows)
        if err != nil {
            writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
            return
        }
        items = append(items, item)
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Status transitions
type StatusChangeRequest struct {
    Status   string `json:"status"`
    Reason   string `json:"reason"`
    Location string `json:"location"`
    Remarks  string `json:"remarks"`
}

type StatusChangeResponse struct {
    CargoID    string `json:"cargo_id"`
    FromStatus string `json:"from_status"`
    ToStatus   string `json:"to_status"`
    Changed    bool   `json:"changed"`
    ChangedAt  string `json:"changed_at"`
}

func (s *Server) handleCargoStatus(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimSpace(chi.URLParam(r, "id"))
    if id == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "id required")
        return
    }
    var req StatusChangeRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
        return
    }
    req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
    if !cargoStatuses[req.Status] {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid status")
        return
    }

    res, err := s.applyStatusChange(r.Context(), id, req)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "cargo not found")
            return
        }
        log.Println("status change error:", err)
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    writeJSON(w, http.StatusOK, res)
}

// applyStatusChange records the transition in the history table and keeps
// the arrival/received timestamps and delay flag in step, mirroring how the
// operational system derives them. Re-posting the current status is a no-op.
func (s *Server) applyStatusChange(ctx context.Context, id string, req StatusChangeRequest) (StatusChangeResponse, error) {
    tx, err := s.db.Begin(ctx)
    if err != nil {
        return StatusChangeResponse{}, err
    }
    defer func() { _ = tx.Rollback(ctx) }()

    var (
        cargoPK  uuid.UUID
        current  string
        dispatch time.Time
        expected time.Time
        actual   *time.Time
    )
    err = tx.QueryRow(ctx, `
        SELECT id, status, dispatch_date, expected_arrival_date, actual_arrival_date
        FROM cargos WHERE cargo_id = $1
        FOR UPDATE
    `, id).Scan(&cargoPK, &current, &dispatch, &expected, &actual)
    if err != nil {
        return StatusChangeResponse{}, err
    }

    now := time.Now().UTC()
    if current == req.Status {
        return StatusChangeResponse{CargoID: id, FromStatus: current, ToStatus: current, Changed: false, ChangedAt: now.Format(time.RFC3339)}, nil
    }

    _, err = tx.Exec(ctx, `
        INSERT INTO cargo_status_history (cargo_id, from_status, to_status, change_reason, location, remarks)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, cargoPK, current, req.Status, nullIfEmpty(req.Reason), nullIfEmpty(req.Location), nullIfEmpty(req.Remarks))
    if err != nil {
        return StatusChangeResponse{}, err
    }

    arrival := actual
    switch req.Status {
    case "ARRIVED", "RECEIVED", "STORED":
        if arrival == nil {
            arrival = &now
        }
    }
    var (
        received *time.Time
        duration *decimal.Decimal
        delayed  *bool
    )
    if req.Status == "RECEIVED" || req.Status == "STORED" {
        received = &now
    }
    if arrival != nil {
        d := decimal.NewFromFloat(arrival.Sub(dispatch).Hours()).Round(2)
        duration = &d
        late := arrival.After(expected)
        delayed = &late
    }
    if req.Status == "DELAYED" {
        late := true
        delayed = &late
    }

    _, err = tx.Exec(ctx, `
        UPDATE cargos
        SET status = $2,
            actual_arrival_date = COALESCE($3, actual_arrival_date),
            received_date = COALESCE($4, received_date),
            delivery_duration_hours = COALESCE($5, delivery_duration_hours),
            is_delayed = COALESCE($6, is_delayed),
            delay_reason = COALESCE($7, delay_reason),
            updated_at = $8
        WHERE id = $1
    `, cargoPK, req.Status, arrival, received, duration, delayed, nullIfEmpty(req.Reason), now)
    if err != nil {
        return StatusChangeResponse{}, err
    }
    if err := tx.Commit(ctx); err != nil {
        return StatusChangeResponse{}, err
    }
    return StatusChangeResponse{
        CargoID:    id,
        FromStatus: current,
        ToStatus:   req.Status,
        Changed:    true,
        ChangedAt:  now.Format(time.RFC3339),
    }, nil
}

func validPriority(p string) bool {
    switch engine.Priority(p) {
    case engine.PriorityLow, engine.PriorityMedium, engine.PriorityHigh, engine.PriorityUrgent:
        return true
    }
    return false
}

func validTransportMode(m string) bool {
    switch engine.TransportMode(m) {
    case engine.ModeRoad, engine.ModeRail, engine.ModeAir, engine.ModeMultimodal:
        return true
    }
    return false
}

func volumeOrNil(v *decimal.Decimal) any {
    if v == nil {
        return nil
    }
    return *v
}
