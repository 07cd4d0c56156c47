// Package http serves the ledger operations as a JSON API.
package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fxdesk-ledger/internal/config"
	"fxdesk-ledger/internal/logger"
	"fxdesk-ledger/internal/security"
	"fxdesk-ledger/internal/service"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type contextKey string

const claimsKey contextKey = "claims"

// Handler adapts the ledger services to HTTP.
type Handler struct {
	svc    *service.Services
	tokens security.TokenManager
}

func NewHandler(svc *service.Services, tokens security.TokenManager) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// Router returns the API routes. Route names key the security levels in
// config.EndpointSecurityConfig.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(logRequests, h.authenticate)

	r.HandleFunc("/healthz", h.healthz).Methods(http.MethodGet).Name("healthz")
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/transactions", h.createTransaction).Methods(http.MethodPost).Name("createTransaction")
	api.HandleFunc("/transactions/{id}", h.getTransaction).Methods(http.MethodGet).Name("getTransaction")
	api.HandleFunc("/transactions/{id}", h.updateTransaction).Methods(http.MethodPatch).Name("updateTransaction")
	api.HandleFunc("/transactions/{id}/legs", h.listLegs).Methods(http.MethodGet).Name("listLegs")
	api.HandleFunc("/transactions/{id}/legs", h.addLeg).Methods(http.MethodPost).Name("addLeg")
	api.HandleFunc("/transactions/{id}/legs/validate", h.validateLegs).Methods(http.MethodPost).Name("validateLegs")
	api.HandleFunc("/swaps", h.processSwap).Methods(http.MethodPost).Name("processSwap")
	api.HandleFunc("/adjustments", h.recordAdjustment).Methods(http.MethodPost).Name("recordAdjustment")
	api.HandleFunc("/inventory/reconcile", h.reconcile).Methods(http.MethodPost).Name("reconcile")
	api.HandleFunc("/inventory/{currency}", h.getInventory).Methods(http.MethodGet).Name("getInventory")

	return r
}

// authenticate enforces the route's security level and stores the staff
// claims on the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if len(header) <= 7 || !strings.EqualFold(header[:7], "bearer ") {
			respondError(w, http.StatusUnauthorized, "authorization token is not provided", nil)
			return
		}
		claims, err := h.tokens.ValidateToken(header[7:])
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		if level == config.SecuritySupervisor && !claims.HasRole(security.RoleSupervisor) {
			respondError(w, http.StatusForbidden, "supervisor role required", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// staffFrom returns the authenticated staff name, if any.
func staffFrom(ctx context.Context) string {
	if claims, ok := ctx.Value(claimsKey).(*security.StaffClaims); ok {
		return claims.Staff
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request", "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}
