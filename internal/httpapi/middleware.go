package httpapi

import (
	"net/http"

	"github.com/EnsoFinance/temper/internal/apperror"
)

// apiKeyMiddleware enforces an exact-match X-API-KEY header on every request
// when s.APIKey is configured. An empty Config.APIKey disables the gate
// entirely (SPEC_FULL.md §4.6).
func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	if s.APIKey == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != s.APIKey {
			writeError(w, apperror.New(apperror.CodeUnauthorized, nil))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// capBody wraps r.Body in http.MaxBytesReader so a malicious or mistaken
// oversized payload fails fast instead of exhausting memory.
func capBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
}
