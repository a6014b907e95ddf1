package main

import (
    "context"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/jackc/pgx/v5/pgxpool"

    "cargotrack/internal/config"
    "cargotrack/internal/db"
)

// Seeds the reference data an empty deployment needs: Kenyan counties, the
// cargo category set, and a handful of demo suppliers and warehouses.
// Idempotent: reruns skip rows that already exist.

var counties = []struct{ name, code string }{
    {"Nairobi", "NRB"},
    {"Mombasa", "MBA"},
    {"Kiambu", "KIA"},
    {"Nakuru", "NAK"},
    {"Kisumu", "KSM"},
    {"Machakos", "MCH"},
    {"Kajiado", "KAJ"},
    {"Uasin Gishu", "UGS"},
    {"Nyeri", "NYR"},
    {"Meru", "MRU"},
    {"Kirinyaga", "KRG"},
    {"Murang'a", "MRG"},
}

var categories = []struct {
    name, code, description string
    special                 bool
}{
    {"Electronics", "ELEC", "Electronic goods and appliances", true},
    {"Food & Beverages", "FOOD", "Perishable and non-perishable food items", true},
    {"Building Materials", "BLDG", "Construction materials and hardware", false},
    {"Textiles & Clothing", "TEXT", "Fabrics, clothing, and accessories", false},
    {"Agricultural Products", "AGRI", "Farm produce and supplies", true},
    {"Pharmaceuticals", "PHAR", "Medical supplies and medicines", true},
    {"Automotive Parts", "AUTO", "Vehicle parts and accessories", false},
    {"Fuel & Lubricants", "FUEL", "Petroleum products and industrial liquids", false},
    {"General Merchandise", "GENM", "General goods and supplies", false},
}

type supplierSeed struct {
    name, sType, kraPin, contact, phone, email, county, town, address, payment string
    credit                                                                     int64
    reliability                                                                float64
}

var suppliers = []supplierSeed{
    {"Nairobi Electronics Ltd", "DISTRIBUTOR", "P051234567M", "John Mwangi", "+254712345678",
        "sales@nbielectronics.co.ke", "Nairobi", "Industrial Area", "Enterprise Road, Off Mombasa Road", "Net 30", 5_000_000, 92},
    {"Mombasa Imports & Exports", "IMPORTER", "P052345678N", "Fatuma Hassan", "+254723456789",
        "info@mombasaimports.co.ke", "Mombasa", "Port Reitz", "Shimanzi Area, Near Port", "Advance Payment", 8_000_000, 85},
    {"Central Kenya Farmers Cooperative", "LOCAL_PRODUCER", "P053456789O", "Peter Kamau", "+254734567890",
        "manager@ckfc.co.ke", "Nyeri", "Nyeri Town", "Kimathi Way, Nyeri", "COD", 2_000_000, 78},
    {"Nakuru Hardware Supplies", "WHOLESALER", "P054567890P", "David Kipchoge", "+254745678901",
        "orders@nakuruhardware.co.ke", "Nakuru", "Nakuru CBD", "Kenyatta Avenue, Nakuru", "Net 15", 4_000_000, 88},
    {"Kisumu Pharma Distributors", "DISTRIBUTOR", "P055678901Q", "Dr. Grace Otieno", "+254756789012",
        "info@kisumupharma.co.ke", "Kisumu", "Kisumu", "Oginga Odinga Road, Kisumu", "Net 45", 6_000_000, 95},
    {"East Africa Textiles Manufacturing", "MANUFACTURER", "P056789012R", "Sarah Wanjiru", "+254767890123",
        "sales@eatextiles.co.ke", "Kiambu", "Ruiru", "Thika Road, Ruiru Industrial Park", "Net 30", 3_500_000, 81},
}

type warehouseSeed struct {
    name, wType, county, town, address, manager, phone, email string
    capacitySQM, utilizationSQM                                float64
}

var warehouses = []warehouseSeed{
    {"Nairobi Central Warehouse", "MAIN", "Nairobi", "Industrial Area", "Likoni Road, Industrial Area",
        "James Otieno", "+254711000001", "j.otieno@cargotrack.co.ke", 12_000, 7_800},
    {"Mombasa Port Distribution Center", "REGIONAL", "Mombasa", "Changamwe", "Refinery Road, Changamwe",
        "Amina Salim", "+254722000002", "a.salim@cargotrack.co.ke", 9_500, 8_900},
    {"Nakuru Regional Depot", "STORAGE", "Nakuru", "Lanet", "Nakuru-Eldoret Highway, Lanet",
        "Paul Cheruiyot", "+254733000003", "p.cheruiyot@cargotrack.co.ke", 6_000, 2_400},
    {"Kisumu Cold Chain Facility", "COLD_STORAGE", "Kisumu", "Kisumu", "Obote Road, Kisumu",
        "Grace Achieng", "+254744000004", "g.achieng@cargotrack.co.ke", 3_000, 1_200},
}

func main() {
    cfg := config.Load()
    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        log.Fatalf("DATABASE_URL not set. Please export DATABASE_URL before running.")
    }

    ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
    defer cancel()
    pool, err := db.NewPool(ctx, cfg.DatabaseURL)
    if err != nil {
        log.Fatalf("failed to connect db: %v", err)
    }
    defer pool.Close()

    if err := db.MigrateDir(ctx, pool, "db/migrations"); err != nil {
        log.Fatalf("migrations failed: %v", err)
    }
    if err := seedCounties(ctx, pool); err != nil {
        log.Fatalf("seed counties: %v", err)
    }
    if err := seedCategories(ctx, pool); err != nil {
        log.Fatalf("seed categories: %v", err)
    }
    if err := seedSuppliers(ctx, pool); err != nil {
        log.Fatalf("seed suppliers: %v", err)
    }
    if err := seedWarehouses(ctx, pool); err != nil {
        log.Fatalf("seed warehouses: %v", err)
    }
    log.Println("seed complete")
}

func seedCounties(ctx context.Context, pool *pgxpool.Pool) error {
    for _, c := range counties {
        _, err := pool.Exec(ctx, `
            INSERT INTO counties (name, code) VALUES ($1, $2)
            ON CONFLICT (code) DO NOTHING
        `, c.name, c.code)
        if err != nil {
            return err
        }
    }
    log.Printf("counties: %d", len(counties))
    return nil
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) error {
    for _, c := range categories {
        _, err := pool.Exec(ctx, `
            INSERT INTO cargo_categories (code, name, description, requires_special_handling)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (code) DO NOTHING
        `, c.code, c.name, c.description, c.special)
        if err != nil {
            return err
        }
    }
    log.Printf("categories: %d", len(categories))
    return nil
}

func seedSuppliers(ctx context.Context, pool *pgxpool.Pool) error {
    now := time.Now().UTC()
    for _, s := range suppliers {
        var exists bool
        if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE kra_pin = $1)`, s.kraPin).Scan(&exists); err != nil {
            return err
        }
        if exists {
            continue
        }
        var seq int64
        if err := pool.QueryRow(ctx, `SELECT nextval('supplier_id_seq')`).Scan(&seq); err != nil {
            return err
        }
        _, err := pool.Exec(ctx, `
            INSERT INTO suppliers (
                id, supplier_id, name, supplier_type, kra_pin, contact_person, phone, email,
                county_id, town_city, physical_address, payment_terms, credit_limit, reliability_score,
                created_at, updated_at
            ) VALUES (
                $1, $2, $3, $4, $5, $6, $7, $8,
                (SELECT id FROM counties WHERE name = $9), $10, $11, $12, $13, $14,
                $15, $15
            )
        `,
            uuid.New(), fmt.Sprintf("SUP-%d-%05d", now.Year(), seq), s.name, s.sType, s.kraPin, s.contact, s.phone, s.email,
            s.county, s.town, s.address, s.payment, s.credit, s.reliability,
            now,
        )
        if err != nil {
            return err
        }
    }
    log.Printf("suppliers: %d", len(suppliers))
    return nil
}

func seedWarehouses(ctx context.Context, pool *pgxpool.Pool) error {
    now := time.Now().UTC()
    for _, w := range warehouses {
        var exists bool
        if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM warehouses WHERE name = $1)`, w.name).Scan(&exists); err != nil {
            return err
        }
        if exists {
            continue
        }
        var seq int64
        if err := pool.QueryRow(ctx, `SELECT nextval('warehouse_id_seq')`).Scan(&seq); err != nil {
            return err
        }
        _, err := pool.Exec(ctx, `
            INSERT INTO warehouses (
                id, warehouse_id, name, warehouse_type, county_id, town_city, physical_address,
                total_capacity_sqm, current_utilization_sqm, manager_name, manager_phone, manager_email,
                created_at, updated_at
            ) VALUES (
                $1, $2, $3, $4, (SELECT id FROM counties WHERE name = $5), $6, $7,
                $8, $9, $10, $11, $12,
                $13, $13
            )
        `,
            uuid.New(), fmt.Sprintf("WH-%d-%04d", now.Year(), seq), w.name, w.wType, w.county, w.town, w.address,
            w.capacitySQM, w.utilizationSQM, w.manager, w.phone, w.email,
            now,
        )
        if err != nil {
            return err
        }
    }
    log.Printf("warehouses: %d", len(warehouses))
    return nil
}
