package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"repair-backend/internal/auth"
	"repair-backend/internal/config"
	"repair-backend/internal/metrics"
)

func newJWT() *auth.JWTManager {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	return auth.NewJWTManager(cfg)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	jwtManager := newJWT()
	valid, err := jwtManager.GenerateToken(3, "lis@example.dk", "technician", time.Hour)
	require.NoError(t, err)

	var seenUser int
	handler := NewAuthMiddleware(jwtManager).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUser, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, tt.want, rec.Code, tt.name)
	}
	require.Equal(t, 3, seenUser)
}

func TestAuthenticate_WebsocketQueryToken(t *testing.T) {
	t.Parallel()

	jwtManager := newJWT()
	token, err := jwtManager.GenerateToken(1, "a@b.dk", "admin", time.Hour)
	require.NoError(t, err)

	handler := NewAuthMiddleware(jwtManager).Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/ws/alarms?token="+token, nil)
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	// query tokens are only honoured on upgrades
	req = httptest.NewRequest(http.MethodGet, "/api/cases?token="+token, nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	jwtManager := newJWT()
	handler := NewAuthMiddleware(jwtManager).RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for role, want := range map[string]int{"admin": http.StatusNoContent, "technician": http.StatusForbidden} {
		token, err := jwtManager.GenerateToken(1, "a@b.dk", role, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, role)
	}
}

func TestPanicRecovery(t *testing.T) {
	t.Parallel()

	handler := PanicRecovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaputt")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Internal server error", body["error"])
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.Use(MetricsMiddleware)
	r.HandleFunc("/test/cases/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/test/cases/{id}", "418")
	before := counterValue(t, counter)

	for _, id := range []string{"1", "2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test/cases/"+id, nil))
	}
	require.Equal(t, before+2, counterValue(t, counter))
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
