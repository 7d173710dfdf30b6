// Package api exposes the dashboard endpoints: the raw price scan, the
// verified-opportunity check, the P2P fiat board and the stored schemes.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/crypto-price-comparator/internal/config"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/scan"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/schemes"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/types"
	"github.com/pr-poehali-dev/crypto-price-comparator/internal/venues/p2p"
)

type roundCollector interface {
	Collect(ctx context.Context, asset string) types.Round
}

type Server struct {
	cfg       *config.Config
	log       *zap.Logger
	collector roundCollector
	p2p       []p2p.Client
	store     *schemes.Store // nil when Postgres is not configured
	runner    *scan.Runner   // nil when store is nil
	srv       *http.Server
}

func New(cfg *config.Config, col roundCollector, p2pClients []p2p.Client, store *schemes.Store, runner *scan.Runner, log *zap.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		log:       log,
		collector: col,
		p2p:       p2pClients,
		store:     store,
		runner:    runner,
	}

	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not found")
	})

	r.HandleFunc("/prices", s.getPrices).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/verified", s.getVerified).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/p2p", s.getP2P).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/schemes", s.getSchemes).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/schemes/update", s.postSchemesUpdate).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/healthz", s.getHealth).Methods(http.MethodGet, http.MethodOptions)

	// mux skips the Use chain when no route matches, so the CORS wrapper
	// goes around the router itself to reach the 404/405 responses too.
	s.srv = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.withCORS(r),
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// withCORS answers preflights itself and stamps the open-origin headers on
// everything else; the dashboard frontend is served from another origin.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Auth")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminAuthorized compares the X-Admin-Auth header against the injected
// token. The token never appears in source; it arrives via config/env.
func (s *Server) adminAuthorized(r *http.Request) (int, bool) {
	got := r.Header.Get("X-Admin-Auth")
	if got == "" {
		return http.StatusUnauthorized, false
	}
	if s.cfg.AdminToken == "" ||
		subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.AdminToken)) != 1 {
		return http.StatusForbidden, false
	}
	return 0, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) Start() error {
	s.log.Info("api server starting", zap.String("addr", s.srv.Addr))
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("api server shutting down")
	return s.srv.Shutdown(ctx)
}
