package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photo-gallery/internal/config"
	"photo-gallery/internal/database"
	"photo-gallery/internal/handlers"
	"photo-gallery/internal/logging"
	"photo-gallery/internal/metrics"
	"photo-gallery/internal/middleware"
	"photo-gallery/internal/scanner"
	"photo-gallery/internal/thumbnail"
)

func main() {
	startTime := time.Now()
	logging.Info("Photo gallery %s (commit %s)", config.Version, config.Commit)

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		logging.Fatal("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("failed to close database: %v", err)
		}
	}()

	// Clean up expired sessions periodically.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			db.CleanExpiredSessions(ctx)
		}
	}()

	if cfg.UseVips {
		if err := thumbnail.InitVips(); err != nil {
			logging.Warn("libvips unavailable, using pure-Go thumbnailing: %v", err)
		}
		defer thumbnail.ShutdownVips()
	}
	engine := thumbnail.NewEngine(cfg.SaveOptions, cfg.UseVips)

	scn := scanner.New(db, cfg.GalleryDir, cfg.ScanInterval)
	go scn.Start(ctx)

	h := handlers.New(db, engine, scn, cfg)
	router := setupRouter(h)

	loggingConfig := middleware.DefaultLoggingConfig()
	handler := middleware.Logger(loggingConfig)(router)

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		metrics.InitializeMetrics(cfg.PresetNames())
		handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

		collector = metrics.NewCollector(db, time.Minute)
		collector.Start()

		go func() {
			metricsMux := http.NewServeMux()
			metricsMux.Handle("/metrics", promhttp.Handler())
			logging.Info("Metrics listening on :%s", cfg.MetricsPort)
			if err := http.ListenAndServe(":"+cfg.MetricsPort, metricsMux); err != nil {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go handleShutdown(srv, scn, collector)

	logging.Info("Gallery server listening on :%s (started in %v)", cfg.Port, time.Since(startTime))
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health checks (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.HealthCheck).Methods("GET")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Auth
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/check", h.CheckAuth).Methods("GET")

	// API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/rescan", h.TriggerRescan).Methods("POST")

	// Photo delivery. The preset route must not shadow the original
	// route, so pk is constrained to digits in both.
	r.HandleFunc("/photo/{pk:[0-9]+}", h.ServeOriginal).Methods("GET")
	r.HandleFunc("/photo/{preset}/{pk:[0-9]+}", h.ServeResized).Methods("GET")

	return r
}

func handleShutdown(srv *http.Server, scn *scanner.Scanner, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logging.Info("Shutdown initiated (received %s)", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scn.Stop()
	if collector != nil {
		collector.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	}
	logging.Info("Shutdown complete")
}
