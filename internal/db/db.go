package db

import (
    "context"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
    if databaseURL == "" {
        return nil, errors.New("DATABASE_URL is not set")
    }
    cfg, err := pgxpool.ParseConfig(databaseURL)
    if err != nil {
        return nil, err
    }
    // Conservative pool sizing and timeouts
    cfg.MaxConns = 5
    cfg.MinConns = 0
    cfg.MaxConnLifetime = 30 * time.Minute
    cfg.MaxConnIdleTime = 5 * time.Minute
    cfg.HealthCheckPeriod = 30 * time.Second
    // Safe runtime params
    cfg.ConnConfig.RuntimeParams["application_name"] = "cargotrack-api"
    cfg.ConnConfig.RuntimeParams["search_path"] = "public"
    cfg.ConnConfig.RuntimeParams["client_encoding"] = "UTF8"
    cfg.ConnConfig.RuntimeParams["timezone"] = "UTC"
    // Set conservative statement timeouts if supported (server-side params)
    // Note: These may be ignored depending on server configuration
    cfg.ConnConfig.RuntimeParams["statement_timeout"] = "5000"                     // 5s
    cfg.ConnConfig.RuntimeParams["idle_in_transaction_session_timeout"] = "5000" // 5s

    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil {
        return nil, err
    }
    return pool, nil
}

// MigrateDir applies every *.sql file in dir in lexical order. Dev helper:
// files are expected to be idempotent (CREATE TABLE IF NOT EXISTS etc).
func MigrateDir(ctx context.Context, pool *pgxpool.Pool, dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil {
        return err
    }
    var files []string
    for _, e := range entries {
        if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
            files = append(files, e.Name())
        }
    }
    sort.Strings(files)
    for _, name := range files {
        sql, err := os.ReadFile(filepath.Join(dir, name))
        if err != nil {
            return err
        }
        if _, err := pool.Exec(ctx, string(sql)); err != nil {
            return fmt.Errorf("migration %s: %w", name, err)
        }
    }
    return nil
}
