package server

import (
    "encoding/json"
    "errors"
    "fmt"
    "log"
    "net/http"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/google/uuid"
    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgconn"
    "github.com/shopspring/decimal"
)

var supplierTypes = map[string]bool{
    "MANUFACTURER":   true,
    "DISTRIBUTOR":    true,
    "IMPORTER":       true,
    "WHOLESALER":     true,
    "LOCAL_PRODUCER": true,
    "OTHER":          true,
}

var warehouseTypes = map[string]bool{
    "MAIN":         true,
    "REGIONAL":     true,
    "STORAGE":      true,
    "COLD_STORAGE": true,
}

// Suppliers
type SupplierCreateRequest struct {
    Name          string           `json:"name"`
    SupplierType  string           `json:"supplier_type"`
    KRAPin        string           `json:"kra_pin"`
    ContactPerson string           `json:"contact_person"`
    Phone         string           `json:"phone"`
    Email         string           `json:"email"`
    County        string           `json:"county"`
    TownCity      string           `json:"town_city"`
    Address       string           `json:"physical_address"`
    PaymentTerms  string           `json:"payment_terms"`
    CreditLimit   *decimal.Decimal `json:"credit_limit"`
}

type SupplierCreateResponse struct {
    SupplierID string `json:"supplier_id"`
    Status     string `json:"status"`
    CreatedAt  string `json:"created_at"`
}

func (s *Server) handleCreateSupplier(w http.ResponseWriter, r *http.Request) {
    var req SupplierCreateRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
        return
    }
    req.SupplierType = strings.ToUpper(strings.TrimSpace(req.SupplierType))
    for field, v := range map[string]string{
        "name":           req.Name,
        "contact_person": req.ContactPerson,
        "email":          req.Email,
        "county":         req.County,
    } {
        if strings.TrimSpace(v) == "" {
            writeErrorJSON(w, http.StatusBadRequest, "invalid_request", field+" required")
            return
        }
    }
    if !supplierTypes[req.SupplierType] {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid supplier_type")
        return
    }
    if !validKRAPIN(req.KRAPin) {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "enter valid KRA PIN (e.g., P051234567M)")
        return
    }
    if !validKenyanPhone(req.Phone) {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "enter valid Kenyan phone number (+254...)")
        return
    }
    credit := decimal.Zero
    if req.CreditLimit != nil {
        if req.CreditLimit.IsNegative() {
            writeErrorJSON(w, http.StatusBadRequest, "invalid_numeric_input", "credit_limit: must not be negative")
            return
        }
        credit = *req.CreditLimit
    }

    ctx := r.Context()
    var countyID int
    err := s.db.QueryRow(ctx, `SELECT id FROM counties WHERE code = $1 OR name = $1`, req.County).Scan(&countyID)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "county not found")
            return
        }
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }

    var seq int64
    if err := s.db.QueryRow(ctx, `SELECT nextval('supplier_id_seq')`).Scan(&seq); err != nil {
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    now := time.Now().UTC()
    supplierID := fmt.Sprintf("SUP-%d-%05d", now.Year(), seq)

    _, err = s.db.Exec(ctx, `
        INSERT INTO suppliers (
            id, supplier_id, name, supplier_type, kra_pin, contact_person, phone, email,
            county_id, town_city, physical_address, payment_terms, credit_limit,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8,
            $9, $10, $11, $12, $13,
            $14, $14
        )
    `,
        uuid.New(), supplierID, req.Name, req.SupplierType, req.KRAPin, req.ContactPerson, req.Phone, req.Email,
        countyID, nullIfEmpty(req.TownCity), nullIfEmpty(req.Address), nullIfEmpty(req.PaymentTerms), credit,
        now,
    )
    if err != nil {
        var pgErr *pgconn.PgError
        if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
            writeErrorJSON(w, http.StatusConflict, "duplicate_kra_pin", "a supplier with this KRA PIN already exists")
            return
        }
        log.Println("insert supplier error:", err)
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "failed to create supplier")
        return
    }
    writeJSON(w, http.StatusOK, SupplierCreateResponse{
        SupplierID: supplierID,
        Status:     "ACTIVE",
        CreatedAt:  now.Format(time.RFC3339),
    })
}

type SupplierResponse struct {
    SupplierID       string          `json:"supplier_id"`
    Name             string          `json:"name"`
    SupplierType     string          `json:"supplier_type"`
    KRAPin           string          `json:"kra_pin"`
    ContactPerson    string          `json:"contact_person"`
    Phone            string          `json:"phone"`
    Email            string          `json:"email"`
    County           string          `json:"county"`
    PaymentTerms     string          `json:"payment_terms,omitempty"`
    CreditLimit      decimal.Decimal `json:"credit_limit"`
    Status           string          `json:"status"`
    ReliabilityScore decimal.Decimal `json:"reliability_score"`
}

func (s *Server) handleGetSupplier(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimSpace(chi.URLParam(r, "id"))
    if id == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "id required")
        return
    }
    var (
        res   SupplierResponse
        terms *string
    )
    err := s.db.QueryRow(r.Context(), `
        SELECT s.supplier_id, s.name, s.supplier_type, s.kra_pin, s.contact_person, s.phone, s.email,
               co.name, s.payment_terms, s.credit_limit, s.status, s.reliability_score
        FROM suppliers s
        JOIN counties co ON co.id = s.county_id
        WHERE s.supplier_id = $1
    `, id).Scan(
        &res.SupplierID, &res.Name, &res.SupplierType, &res.KRAPin, &res.ContactPerson, &res.Phone, &res.Email,
        &res.County, &terms, &res.CreditLimit, &res.Status, &res.ReliabilityScore,
    )
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "supplier not found")
            return
        }
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    if terms != nil {
        res.PaymentTerms = *terms
    }
    writeJSON(w, http.StatusOK, res)
}

// Warehouses
type WarehouseCreateRequest struct {
    Name          string           `json:"name"`
    WarehouseType string           `json:"warehouse_type"`
    County        string           `json:"county"`
    TownCity      string           `json:"town_city"`
    Address       string           `json:"physical_address"`
    CapacitySQM   *decimal.Decimal `json:"total_capacity_sqm"`
    ManagerName   string           `json:"manager_name"`
    ManagerPhone  string           `json:"manager_phone"`
    ManagerEmail  string           `json:"manager_email"`
}

type WarehouseCreateResponse struct {
    WarehouseID string `json:"warehouse_id"`
    CreatedAt   string `json:"created_at"`
}

func (s *Server) handleCreateWarehouse(w http.ResponseWriter, r *http.Request) {
    var req WarehouseCreateRequest
    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
        return
    }
    req.WarehouseType = strings.ToUpper(strings.TrimSpace(req.WarehouseType))
    for field, v := range map[string]string{
        "name":         req.Name,
        "county":       req.County,
        "manager_name": req.ManagerName,
    } {
        if strings.TrimSpace(v) == "" {
            writeErrorJSON(w, http.StatusBadRequest, "invalid_request", field+" required")
            return
        }
    }
    if !warehouseTypes[req.WarehouseType] {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid warehouse_type")
        return
    }
    if !validKenyanPhone(req.ManagerPhone) {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "enter valid Kenyan phone number (+254...)")
        return
    }
    if req.CapacitySQM == nil || !req.CapacitySQM.IsPositive() {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_numeric_input", "total_capacity_sqm: must be positive")
        return
    }

    ctx := r.Context()
    var countyID int
    err := s.db.QueryRow(ctx, `SELECT id FROM counties WHERE code = $1 OR name = $1`, req.County).Scan(&countyID)
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "county not found")
            return
        }
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }

    var seq int64
    if err := s.db.QueryRow(ctx, `SELECT nextval('warehouse_id_seq')`).Scan(&seq); err != nil {
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    now := time.Now().UTC()
    warehouseID := fmt.Sprintf("WH-%d-%04d", now.Year(), seq)

    _, err = s.db.Exec(ctx, `
        INSERT INTO warehouses (
            id, warehouse_id, name, warehouse_type, county_id, town_city, physical_address,
            total_capacity_sqm, manager_name, manager_phone, manager_email,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7,
            $8, $9, $10, $11,
            $12, $12
        )
    `,
        uuid.New(), warehouseID, req.Name, req.WarehouseType, countyID, nullIfEmpty(req.TownCity), nullIfEmpty(req.Address),
        *req.CapacitySQM, req.ManagerName, req.ManagerPhone, nullIfEmpty(req.ManagerEmail),
        now,
    )
    if err != nil {
        log.Println("insert warehouse error:", err)
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "failed to create warehouse")
        return
    }
    writeJSON(w, http.StatusOK, WarehouseCreateResponse{
        WarehouseID: warehouseID,
        CreatedAt:   now.Format(time.RFC3339),
    })
}

type WarehouseResponse struct {
    WarehouseID         string          `json:"warehouse_id"`
    Name                string          `json:"name"`
    WarehouseType       string          `json:"warehouse_type"`
    County              string          `json:"county"`
    CapacitySQM         decimal.Decimal `json:"total_capacity_sqm"`
    UtilizationSQM      decimal.Decimal `json:"current_utilization_sqm"`
    UtilizationPercent  decimal.Decimal `json:"capacity_utilization"`
    ManagerName         string          `json:"manager_name"`
    ManagerPhone        string          `json:"manager_phone"`
    IsActive            bool            `json:"is_active"`
}

func (s *Server) handleGetWarehouse(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimSpace(chi.URLParam(r, "id"))
    if id == "" {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "id required")
        return
    }
    var res WarehouseResponse
    err := s.db.QueryRow(r.Context(), `
        SELECT w.warehouse_id, w.name, w.warehouse_type, co.name,
               w.total_capacity_sqm, w.current_utilization_sqm,
               CASE WHEN w.total_capacity_sqm > 0
                    THEN round(w.current_utilization_sqm / w.total_capacity_sqm * 100, 2)
                    ELSE 0 END,
               w.manager_name, w.manager_phone, w.is_active
        FROM warehouses w
        JOIN counties co ON co.id = w.county_id
        WHERE w.warehouse_id = $1
    `, id).Scan(
        &res.WarehouseID, &res.Name, &res.WarehouseType, &res.County,
        &res.CapacitySQM, &res.UtilizationSQM, &res.UtilizationPercent,
        &res.ManagerName, &res.ManagerPhone, &res.IsActive,
    )
    if err != nil {
        if errors.Is(err, pgx.ErrNoRows) {
            writeErrorJSON(w, http.StatusNotFound, "invalid_reference", "warehouse not found")
            return
        }
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    writeJSON(w, http.StatusOK, res)
}

// Categories
type CategoryResponse struct {
    Code            string `json:"code"`
    Name            string `json:"name"`
    Description     string `json:"description,omitempty"`
    SpecialHandling bool   `json:"requires_special_handling"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
    rows, err := s.db.Query(r.Context(), `
        SELECT code, name, description, requires_special_handling
        FROM cargo_categories
        WHERE is_active
        ORDER BY name
    `)
    if err != nil {
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    defer rows.Close()

    items := []CategoryResponse{}
    for rows.Next() {
        var (
            item CategoryResponse
            desc *string
        )
        if err := rows.Scan(&item.Code, &item.Name, &desc, &item.SpecialHandling); err != nil {
            writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
            return
        }
        if desc != nil {
            item.Description = *desc
        }
        items = append(items, item)
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// Dashboard key metrics
type DashboardStats struct {
    TotalActiveShipments int             `json:"total_active_shipments"`
    ValueInTransit       decimal.Decimal `json:"cargo_value_in_transit"`
    DelayedShipments     int             `json:"delayed_shipments_count"`
    StatusDistribution   map[string]int  `json:"status_distribution"`
}

func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
    ctx := r.Context()
    var stats DashboardStats
    err := s.db.QueryRow(ctx, `
        SELECT count(*) FILTER (WHERE status IN ('DISPATCHED', 'IN_TRANSIT', 'ARRIVED')),
               COALESCE(sum(declared_value) FILTER (WHERE status IN ('DISPATCHED', 'IN_TRANSIT', 'ARRIVED')), 0),
               count(*) FILTER (WHERE is_delayed)
        FROM cargos
    `).Scan(&stats.TotalActiveShipments, &stats.ValueInTransit, &stats.DelayedShipments)
    if err != nil {
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }

    rows, err := s.db.Query(ctx, `SELECT status, count(*) FROM cargos GROUP BY status`)
    if err != nil {
        writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
        return
    }
    defer rows.Close()

    stats.StatusDistribution = map[string]int{}
    for rows.Next() {
        var (
            status string
            n      int
        )
        if err := rows.Scan(&status, &n); err != nil {
            writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
            return
        }
        stats.StatusDistribution[status] = n
    }
    writeJSON(w, http.StatusOK, stats)
}
