package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/armgate-dev/armgate/pkg/gateway/apierr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP statuses. Validation and
// authorization never reached the remote server; domain rejections are
// final; transport failures implicate the upstream, not the request.
func statusFor(err error) int {
	switch apierr.KindOf(err) {
	case apierr.KindValidation:
		return http.StatusBadRequest
	case apierr.KindAuth:
		return http.StatusUnauthorized
	case apierr.KindAuthorization:
		return http.StatusForbidden
	case apierr.KindDomain:
		return http.StatusUnprocessableEntity
	case apierr.KindTransport:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]any{
		"success": false,
		"error":   apierr.Message(err),
		"kind":    string(apierr.KindOf(err)),
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// loggingMiddleware emits one structured event per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
