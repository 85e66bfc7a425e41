package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"complianceanalyzer/internal/apperr"
	"complianceanalyzer/internal/log"
	"complianceanalyzer/pkg/response"
)

// RecoverPanic turns a handler panic into the generic 500 body.
func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				w.Header().Set("Connection", "close")

				log.Logger.Error("panic recovered",
					zap.Error(fmt.Errorf("%w: %v", apperr.ErrUnhandled, err)),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", r.Method),
					zap.String("url", r.URL.String()),
					zap.String("remote_addr", r.RemoteAddr),
				)

				response.Error(w, http.StatusInternalServerError, "Internal server error", "An unexpected error occurred", "")
			}
		}()

		next.ServeHTTP(w, r)
	})
}
