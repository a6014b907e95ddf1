package server

import (
    "encoding/json"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/google/uuid"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/prometheus/client_golang/prometheus/promhttp"

    "cargotrack/internal/engine"
    "cargotrack/internal/metrics"
)

type Server struct {
    db  *pgxpool.Pool
    eng *engine.Engine
}

func New(db *pgxpool.Pool) http.Handler {
    return NewWithEngine(db, engine.NewDefault())
}

// NewWithEngine allows injecting an engine built from retuned thresholds.
func NewWithEngine(db *pgxpool.Pool, eng *engine.Engine) http.Handler {
    if eng == nil {
        eng = engine.NewDefault()
    }
    s := &Server{db: db, eng: eng}
    metrics.RegisterDefault()

    r := chi.NewRouter()
    // Observability: Request ID, basic logger, Prometheus
    r.Use(requestIDMiddleware)
    r.Use(middleware.Logger)
    r.Use(metricsMiddleware)

    r.Get("/healthz", s.handleHealth)
    r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

    r.Post("/suggestions", s.handleSuggestions)

    r.Post("/cargo", s.handleCreateCargo)
    r.Get("/cargo", s.handleListCargo)
    r.Get("/cargo/{id}", s.handleGetCargo)
    r.Post("/cargo/{id}/status", s.handleCargoStatus)

    r.Post("/suppliers", s.handleCreateSupplier)
    r.Get("/suppliers/{id}", s.handleGetSupplier)
    r.Post("/warehouses", s.handleCreateWarehouse)
    r.Get("/warehouses/{id}", s.handleGetWarehouse)
    r.Get("/categories", s.handleListCategories)

    r.Get("/stats/dashboard", s.handleDashboardStats)
    return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    w.WriteHeader(http.StatusOK)
    w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

// writeErrorJSON writes the standardized failure response:
// {"success": false, "error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
    writeJSON(w, status, map[string]any{
        "success": false,
        "error": map[string]string{
            "code":    code,
            "message": message,
        },
    })
}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
        if rid == "" {
            rid = uuid.New().String()
        }
        w.Header().Set("X-Request-ID", rid)
        next.ServeHTTP(w, r)
    })
}

// metricsMiddleware records request counts and latencies against the chi
// route pattern so path cardinality stays bounded.
func metricsMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
        next.ServeHTTP(ww, r)
        path := chi.RouteContext(r.Context()).RoutePattern()
        if path == "" {
            path = r.URL.Path
        }
        status := strconv.Itoa(ww.Status())
        metrics.HTTPRequests.WithLabelValues(r.Method, path, status).Inc()
        metrics.HTTPDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
    })
}

func nullIfEmpty(s string) *string {
    if strings.TrimSpace(s) == "" {
        return nil
    }
    return &s
}

func orDefault(s, d string) string {
    if strings.TrimSpace(s) == "" {
        return d
    }
    return s
}
