package main

import (
    "context"
    "log"
    "net/http"
    "os"
    "strings"
    "time"

    "cargotrack/internal/config"
    "cargotrack/internal/db"
    "cargotrack/internal/engine"
    "cargotrack/internal/server"
)

func main() {
    cfg := config.Load()

    if strings.TrimSpace(cfg.DatabaseURL) == "" {
        log.Fatalf("DATABASE_URL not set. Please export DATABASE_URL before running.")
    }

    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    pool, err := db.NewPool(ctx, cfg.DatabaseURL)
    if err != nil {
        log.Fatalf("failed to connect db: %v", err)
    }
    defer pool.Close()
    // Verify connectivity proactively
    if err := pool.Ping(ctx); err != nil {
        log.Fatalf("database ping failed: %v", err)
    }
    if cfg.Migrate {
        if err := db.MigrateDir(ctx, pool, "db/migrations"); err != nil {
            log.Fatalf("migrations failed: %v", err)
        }
    }

    // Engine thresholds: compiled defaults, optionally retuned from a YAML file.
    engCfg := engine.DefaultConfig()
    if cfg.EngineConfigPath != "" {
        engCfg, err = engine.LoadConfig(cfg.EngineConfigPath)
        if err != nil {
            log.Fatalf("failed to load engine config: %v", err)
        }
    }
    r := server.NewWithEngine(pool, engine.New(engCfg))

    srv := &http.Server{
        Addr:              ":" + cfg.Port,
        Handler:           r,
        ReadTimeout:       10 * time.Second,
        ReadHeaderTimeout: 10 * time.Second,
        WriteTimeout:      20 * time.Second,
        IdleTimeout:       60 * time.Second,
    }

    log.Printf("api listening on :%s", cfg.Port)
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Println("server error:", err)
        os.Exit(1)
    }
}
