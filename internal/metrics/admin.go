package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const checkTimeout = 2 * time.Second

// Check is a named readiness check run by /healthz.
type Check struct {
	Name string
	Func func(ctx context.Context) error
}

// AdminHandler builds the admin router (/metrics, /healthz). On /healthz
// every check runs with its own timeout; any failure turns the response
// into a 503 with per-check detail.
func AdminHandler(checks []Check, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		status := "ok"
		code := http.StatusOK
		detail := make(map[string]string, len(checks))
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(req.Context(), checkTimeout)
			err := c.Func(ctx)
			cancel()
			if err != nil {
				logger.Warn("Health check failed", zap.String("check", c.Name), zap.Error(err))
				detail[c.Name] = "fail"
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			detail[c.Name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "checks": detail})
	})
	return r
}

// ServeAdmin starts the admin HTTP endpoint in the background and returns
// the server for shutdown.
func ServeAdmin(port int, checks []Check, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           AdminHandler(checks, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("Admin endpoint listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Admin endpoint error", zap.Error(err))
		}
	}()

	return srv
}
