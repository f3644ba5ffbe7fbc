package exporter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/and161185/envdetect-exporter/internal/config"
	"github.com/and161185/envdetect-exporter/internal/server/middleware"
)

const shutdownTimeout = 5 * time.Second

// Exporter wires a classifier to the metrics endpoint.
type Exporter struct {
	metrics    *Metrics
	classifier Classifier
	config     *config.ExporterConfig
}

// NewExporter creates an Exporter with its own metric registry.
func NewExporter(classifier Classifier, config *config.ExporterConfig) *Exporter {
	return &Exporter{
		metrics:    NewMetrics(config.Logger),
		classifier: classifier,
		config:     config,
	}
}

// Run performs the initial detection, binds the listener and serves until
// ctx is cancelled. A failure to bind the primary address is retried once
// on the fallback address; if both fail the error propagates to the
// caller.
func (e *Exporter) Run(ctx context.Context) error {
	logger := e.config.Logger

	e.metrics.CollectHostInfo(ctx)
	e.metrics.Update(ctx, e.classifier)

	ln, err := e.listen()
	if err != nil {
		return err
	}
	logger.Infof("metrics server listening on %s", ln.Addr())

	if e.config.RefreshInterval > 0 {
		go e.refreshLoop(ctx)
	}

	srv := &http.Server{Handler: e.router()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics server: %w", err)
		}
		logger.Info("metrics server stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (e *Exporter) listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", e.config.Addr)
	if err == nil {
		return ln, nil
	}

	e.config.Logger.Warnf("binding %s failed (%v), retrying on %s", e.config.Addr, err, e.config.FallbackAddr)

	ln, fbErr := net.Listen("tcp", e.config.FallbackAddr)
	if fbErr != nil {
		return nil, fmt.Errorf("binding %s and fallback %s: %w", e.config.Addr, e.config.FallbackAddr, fbErr)
	}
	return ln, nil
}

func (e *Exporter) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Duration(e.config.RefreshInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.metrics.Update(ctx, e.classifier)
		}
	}
}

func (e *Exporter) router() http.Handler {
	router := chi.NewRouter()
	router.Use(chiMiddleware.StripSlashes)
	router.Use(middleware.LogMiddleware(e.config.Logger))
	router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(e.metrics.registry, promhttp.HandlerOpts{}))
	router.Get("/healthz", e.healthzHandler)
	return router
}

func (e *Exporter) healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		e.config.Logger.Errorf("failed to encode healthz response: %v", err)
	}
}
