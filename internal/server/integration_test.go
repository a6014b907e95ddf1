package server

import (
    "context"
    "net/http"
    "os"
    "testing"

    "github.com/jackc/pgx/v5/pgxpool"

    "cargotrack/internal/db"
)

// Fixture rows the integration tests reference. Inserted idempotently so
// repeated runs against the same database stay clean.
var fixtureSQL = []string{
    `INSERT INTO counties (name, code)
     SELECT 'Nairobi', '047'
     WHERE NOT EXISTS (SELECT 1 FROM counties WHERE name = 'Nairobi')`,

    `INSERT INTO counties (name, code)
     SELECT 'Mombasa', '001'
     WHERE NOT EXISTS (SELECT 1 FROM counties WHERE name = 'Mombasa')`,

    `INSERT INTO cargo_categories (code, name, requires_special_handling)
     VALUES ('FOOD', 'Food & Beverages', true),
            ('GENM', 'General Merchandise', false)
     ON CONFLICT (code) DO NOTHING`,

    `INSERT INTO suppliers (id, supplier_id, name, supplier_type, kra_pin,
                            contact_person, phone, email, county_id, reliability_score)
     SELECT gen_random_uuid(), 'SUP-9999-99001', 'Bidco Africa Ltd', 'MANUFACTURER', 'P051000001A',
            'Jane Wanjiku', '+254722000111', 'procurement@bidco.example.co.ke',
            (SELECT id FROM counties WHERE name = 'Nairobi'), 92
     WHERE NOT EXISTS (SELECT 1 FROM suppliers WHERE supplier_id = 'SUP-9999-99001')`,

    `INSERT INTO warehouses (id, warehouse_id, name, warehouse_type, county_id,
                             total_capacity_sqm, current_utilization_sqm, manager_name, manager_phone)
     SELECT gen_random_uuid(), 'WH-9999-9901', 'Mombasa Port Depot', 'MAIN',
            (SELECT id FROM counties WHERE name = 'Mombasa'),
            5000, 1250, 'Peter Otieno', '+254733000222'
     WHERE NOT EXISTS (SELECT 1 FROM warehouses WHERE warehouse_id = 'WH-9999-9901')`,
}

// setupIntegration connects to DATABASE_URL, applies the schema and seeds
// fixtures. Skips when no database is configured.
func setupIntegration(t *testing.T) (*pgxpool.Pool, http.Handler) {
    t.Helper()
    dbURL := os.Getenv("DATABASE_URL")
    if dbURL == "" {
        t.Skip("DATABASE_URL not set; skipping integration test")
    }

    ctx := context.Background()
    pool, err := db.NewPool(ctx, dbURL)
    if err != nil {
        t.Fatalf("failed to connect db: %v", err)
    }
    t.Cleanup(pool.Close)

    if err := db.MigrateDir(ctx, pool, "../../db/migrations"); err != nil {
        t.Fatalf("migrate: %v", err)
    }
    for _, q := range fixtureSQL {
        if _, err := pool.Exec(ctx, q); err != nil {
            t.Fatalf("fixture: %v", err)
        }
    }
    return pool, New(pool)
}
