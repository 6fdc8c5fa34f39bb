package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"repair-backend/internal/handlers"
	"repair-backend/internal/middleware"
)

// RoleAdmin may see host statistics in detailed health
const RoleAdmin = "admin"

func NewRouter(
	caseHandler *handlers.CaseHandler,
	alarmHandler *handlers.AlarmHandler,
	healthHandler *handlers.HealthHandler,
	alarmFeed http.Handler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.MetricsMiddleware)

	// Probes and metrics (NO AUTHENTICATION REQUIRED)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/health/detailed", authMiddleware.RequireRole(RoleAdmin)(http.HandlerFunc(healthHandler.DetailedHealth))).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Cases API
	casesAPI := r.PathPrefix("/api/cases").Subrouter()
	casesAPI.Use(authMiddleware.Authenticate)
	casesAPI.HandleFunc("", caseHandler.CreateCase).Methods("POST")
	casesAPI.HandleFunc("", caseHandler.ListCases).Methods("GET")
	casesAPI.HandleFunc("/{id:[0-9]+}", caseHandler.GetCase).Methods("GET")
	casesAPI.HandleFunc("/{id:[0-9]+}/status", caseHandler.UpdateStatus).Methods("PUT")
	casesAPI.HandleFunc("/{id:[0-9]+}/history", caseHandler.GetHistory).Methods("GET")

	// Alarms API
	alarmsAPI := r.PathPrefix("/api/alarms").Subrouter()
	alarmsAPI.Use(authMiddleware.Authenticate)
	alarmsAPI.HandleFunc("", alarmHandler.ListAlarms).Methods("GET")
	alarmsAPI.HandleFunc("/count", alarmHandler.CountAlarms).Methods("GET")
	alarmsAPI.HandleFunc("/summary", alarmHandler.Summary).Methods("GET")
	alarmsAPI.HandleFunc("/report", alarmHandler.Report).Methods("GET")

	// Live alarm feed
	r.Handle("/ws/alarms", authMiddleware.Authenticate(alarmFeed)).Methods("GET")

	return r
}
