package middleware

import (
	"net/http"
	"runtime/debug"

	"repair-backend/internal/logger"
	"repair-backend/pkg/utils"
)

func PanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.ErrorKV(r.Context(), "Panic recovered",
					"panic", err, "method", r.Method, "path", r.URL.Path, "stack", string(debug.Stack()))
				utils.Error(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
