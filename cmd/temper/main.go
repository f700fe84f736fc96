// Command temper runs the simulation engine's HTTP Surface: load config,
// build the router, bind and serve (SPEC_FULL.md §4.6/§4.7).
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/EnsoFinance/temper/internal/config"
	"github.com/EnsoFinance/temper/internal/httpapi"
	"github.com/EnsoFinance/temper/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	srv := &httpapi.Server{
		ForkURLOverride: cfg.ForkURL,
		EtherscanKey:    cfg.EtherscanKey,
		APIKey:          cfg.APIKey,
		Sessions:        session.NewRegistry(),
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpSrv := httpapi.NewHTTPServer(addr, srv)

	if cfg.APIKey == "" {
		log.Warn("API_KEY not set, /api/v1 routes are unauthenticated")
	}
	log.Info("starting simulation engine", "addr", addr)

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}
