// Package httpapi is the HTTP Surface (SPEC_FULL.md §4.6): five endpoints
// under /api/v1, a 16 KiB request body cap, an optional X-API-KEY gate, and
// unified error rendering via internal/apperror.
//
// Router construction mirrors zeta-chain-evm/server/json_rpc.go's
// mux.NewRouter() + rs/cors pairing and its http.Server timeout fields.
package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/EnsoFinance/temper/internal/evmi"
	"github.com/EnsoFinance/temper/internal/forkurl"
	"github.com/EnsoFinance/temper/internal/session"
)

const maxBodyBytes = 16 * 1024

// Server holds everything handlers need: a default fork URL override, the
// session registry, and the optional shared-secret API key.
type Server struct {
	ForkURLOverride string
	EtherscanKey    string
	APIKey          string
	Sessions        *session.Registry

	identOnce sync.Once
	ident     *evmi.SourceIdentifier
}

// identifier lazily builds the optional Etherscan-backed source identifier
// (SPEC_FULL.md §4.2 supplement) once per server and reuses it across
// requests, preserving its per-address name cache instead of refetching on
// every call.
func (s *Server) identifier() *evmi.SourceIdentifier {
	s.identOnce.Do(func() {
		s.ident = evmi.NewSourceIdentifier("", s.EtherscanKey)
	})
	return s.ident
}

// NewRouter builds the /api/v1 router wrapped in CORS and the API-key gate.
func NewRouter(s *Server) http.Handler {
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/simulate", s.handleSimulate).Methods(http.MethodPost)
	api.HandleFunc("/simulate-bundle", s.handleSimulateBundle).Methods(http.MethodPost)
	api.HandleFunc("/simulate-stateful", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/simulate-stateful/{id}", s.handleSessionBundle).Methods(http.MethodPost)
	api.HandleFunc("/simulate-stateful/{id}", s.handleDeleteSession).Methods(http.MethodDelete)

	r.NotFoundHandler = http.HandlerFunc(notFoundHandler)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowedHandler)

	var handler http.Handler = r
	handler = s.apiKeyMiddleware(handler)
	handler = withLogging(handler)
	handler = cors.AllowAll().Handler(handler)
	return handler
}

// NewHTTPServer wraps the router in an *http.Server with the teacher's
// finite-timeout defaults (this service has no long-poll endpoints).
func NewHTTPServer(addr string, s *Server) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func forkURLFor(s *Server, chainID uint64) (string, error) {
	return forkurl.Resolve(chainID, s.ForkURLOverride)
}
