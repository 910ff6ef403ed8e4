package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fmbento/flights-tracker/internal/alerts"
	"github.com/fmbento/flights-tracker/internal/metrics"
	"github.com/fmbento/flights-tracker/internal/models"
	"github.com/fmbento/flights-tracker/internal/runner"
	"github.com/fmbento/flights-tracker/internal/storage"
	"github.com/fmbento/flights-tracker/pkg/utils"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port          int           `json:"port"`
	Host          string        `json:"host"`
	ReadTimeout   time.Duration `json:"read_timeout"`
	WriteTimeout  time.Duration `json:"write_timeout"`
	EnableMetrics bool          `json:"enable_metrics"`
	EnableHealth  bool          `json:"enable_health"`
}

// HTTPServer represents the HTTP server
type HTTPServer struct {
	config         *ServerConfig
	server         *http.Server
	router         *mux.Router
	store          storage.Store
	runner         *runner.Runner
	scheduler      *runner.Scheduler
	processor      *alerts.Processor
	metricsManager *metrics.Manager
	logger         *logrus.Logger
}

// NewHTTPServer creates a new HTTP server
func NewHTTPServer(
	config *ServerConfig,
	store storage.Store,
	run *runner.Runner,
	scheduler *runner.Scheduler,
	processor *alerts.Processor,
	metricsManager *metrics.Manager,
) *HTTPServer {
	server := &HTTPServer{
		config:         config,
		store:          store,
		runner:         run,
		scheduler:      scheduler,
		processor:      processor,
		metricsManager: metricsManager,
		logger:         utils.GetLogger(),
	}

	server.setupRouter()

	server.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server
}

// setupRouter sets up the HTTP routes
func (s *HTTPServer) setupRouter() {
	s.router = mux.NewRouter()

	// Middleware
	s.router.Use(s.loggingMiddleware)
	if s.metricsManager != nil {
		s.router.Use(s.metricsMiddleware)
	}

	api := s.router.PathPrefix("/api/v1").Subrouter()

	if s.config.EnableHealth {
		api.HandleFunc("/health", s.healthHandler).Methods("GET")
		api.HandleFunc("/health/detailed", s.detailedHealthHandler).Methods("GET")
	}

	if s.config.EnableMetrics {
		s.router.Handle("/metrics", promhttp.Handler())
		api.HandleFunc("/stats", s.statsHandler).Methods("GET")
	}

	// Notification endpoints
	api.HandleFunc("/notifications/run", s.runNotificationsHandler).Methods("POST")

	// Alert endpoints
	api.HandleFunc("/alerts", s.listAlertsHandler).Methods("GET")

	// Scheduler endpoints
	api.HandleFunc("/scheduler/status", s.schedulerStatusHandler).Methods("GET")
	api.HandleFunc("/scheduler/start", s.startSchedulerHandler).Methods("POST")
	api.HandleFunc("/scheduler/stop", s.stopSchedulerHandler).Methods("POST")
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.WithFields(logrus.Fields{
		"address":         s.server.Addr,
		"metrics_enabled": s.config.EnableMetrics,
	}).Info("Starting HTTP server")

	if s.metricsManager != nil {
		s.metricsManager.UpdateSystemMetrics()
		s.updateComponentHealth()
		go s.systemMetricsUpdater()
	}

	errChan := make(chan error, 1)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithField("error", err).Error("HTTP server error")
			errChan <- err
		}
	}()

	// Catch immediate binding errors before reporting success.
	select {
	case err := <-errChan:
		return fmt.Errorf("failed to start HTTP server: %w", err)
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() error {
	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// systemMetricsUpdater updates system metrics periodically
func (s *HTTPServer) systemMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.metricsManager.UpdateSystemMetrics()
		s.updateComponentHealth()
	}
}

func (s *HTTPServer) updateComponentHealth() {
	prom := s.metricsManager.GetPrometheusMetrics()
	if s.store != nil {
		prom.UpdateComponentHealth("storage", s.store.Ping() == nil)
	}
	if s.scheduler != nil {
		prom.UpdateComponentHealth("scheduler", s.scheduler.IsRunning())
	}
}

// Middleware

// loggingMiddleware logs HTTP requests
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.WithFields(logrus.Fields{
			"method":    r.Method,
			"path":      r.URL.Path,
			"duration":  time.Since(start),
			"remote_ip": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records request counts and latencies
func (s *HTTPServer) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				path = tmpl
			}
		}

		s.metricsManager.GetPrometheusMetrics().RecordHTTPRequest(
			r.Method, path, strconv.Itoa(rec.status), time.Since(start))
	})
}

// Health Handlers

// healthHandler returns basic health status
func (s *HTTPServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":          "healthy",
		"timestamp":       time.Now().UTC().Format(time.RFC3339Nano),
		"metrics_enabled": s.config.EnableMetrics,
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// detailedHealthHandler returns detailed health status
func (s *HTTPServer) detailedHealthHandler(w http.ResponseWriter, r *http.Request) {
	storageHealthy := s.store.Ping() == nil

	status := "healthy"
	if !storageHealthy {
		status = "degraded"
	}

	health := map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
		"components": map[string]interface{}{
			"storage":   storageHealthy,
			"scheduler": s.scheduler != nil && s.scheduler.IsRunning(),
		},
	}

	s.writeJSON(w, http.StatusOK, health)
}

// statsHandler returns application statistics
func (s *HTTPServer) statsHandler(w http.ResponseWriter, r *http.Request) {
	storageStats, err := s.store.GetStorageStats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve storage stats", err)
		return
	}

	stats := map[string]interface{}{
		"timestamp": time.Now(),
		"storage":   storageStats,
		"runner":    s.runner.GetStats(),
		"processor": s.processor.GetStats(),
	}

	s.writeJSON(w, http.StatusOK, stats)
}

// Notification Handlers

// runNotificationsHandler triggers a notification run for one user
func (s *HTTPServer) runNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	var request struct {
		UserID string `json:"user_id"`
		Force  bool   `json:"force"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if request.UserID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	result, err := s.runner.RunForUser(r.Context(), request.UserID, request.Force)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Notification run failed", err)
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// Alert Handlers

// listAlertsHandler lists a user's alerts
func (s *HTTPServer) listAlertsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.writeError(w, http.StatusBadRequest, "user_id query parameter is required", nil)
		return
	}

	var status *models.AlertStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := models.AlertStatus(raw)
		status = &st
	}

	alertList, err := s.store.GetAlertsByUser(r.Context(), userID, status)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to retrieve alerts", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alertList,
		"total":  len(alertList),
	})
}

// Scheduler Handlers

// schedulerStatusHandler gets scheduler status
func (s *HTTPServer) schedulerStatusHandler(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		s.writeError(w, http.StatusNotFound, "Scheduler is not configured", nil)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":   s.scheduler.IsRunning(),
		"timestamp": time.Now(),
	})
}

// startSchedulerHandler starts the scheduler
func (s *HTTPServer) startSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		s.writeError(w, http.StatusNotFound, "Scheduler is not configured", nil)
		return
	}
	if s.scheduler.IsRunning() {
		s.writeError(w, http.StatusConflict, "Scheduler is already running", nil)
		return
	}

	if err := s.scheduler.Start(context.Background()); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to start scheduler", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Scheduler started successfully",
	})
}

// stopSchedulerHandler stops the scheduler
func (s *HTTPServer) stopSchedulerHandler(w http.ResponseWriter, r *http.Request) {
	if s.scheduler == nil {
		s.writeError(w, http.StatusNotFound, "Scheduler is not configured", nil)
		return
	}
	if !s.scheduler.IsRunning() {
		s.writeError(w, http.StatusConflict, "Scheduler is not running", nil)
		return
	}

	if err := s.scheduler.Stop(); err != nil {
		s.writeError(w, http.StatusInternalServerError, "Failed to stop scheduler", err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Scheduler stopped successfully",
	})
}

// Utility Methods

// writeJSON writes a JSON response
func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithField("error", err).Error("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string, err error) {
	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
		s.logger.WithFields(logrus.Fields{
			"status":  status,
			"message": message,
			"error":   err,
		}).Error("HTTP error")
	}

	s.writeJSON(w, status, errorResponse)
}
