// Package server exposes the tracker over HTTP. Every request runs a fresh
// batch; nothing is cached between requests.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"yieldScope/internal/export"
	"yieldScope/internal/model"
	"yieldScope/internal/tracker"
)

var errMissingPool = errors.New("at least one pool parameter is required")

// Runner executes a batch of queries.
type Runner interface {
	Run(ctx context.Context, queries []model.PoolQuery) tracker.Report
}

// Defaults fill request parameters the caller left out.
type Defaults struct {
	Chain        string
	Integrations model.Integrations
	// CORSOrigins enables cross-origin GETs from these origins when non-empty.
	CORSOrigins []string
}

type Server struct {
	runner   Runner
	defaults Defaults
	logger   *zap.Logger
}

func New(runner Runner, defaults Defaults, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{runner: runner, defaults: defaults, logger: logger}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(Recover(s.logger))
	r.Use(Logger(s.logger))
	r.Use(Metrics())
	if len(s.defaults.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.defaults.CORSOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Get("/pools", s.pools)
	})
	return r
}

// HTTPServer wraps Routes for addr. There is no write timeout: a batch runs
// one fetch round per pool, so its duration grows with the request. Upstream
// calls are bounded by the client timeout and stop when the caller hangs up.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) pools(w http.ResponseWriter, r *http.Request) {
	queries, err := s.parseQueries(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	report := s.runner.Run(r.Context(), queries)
	writeJSON(w, http.StatusOK, export.NewPayload(report))
}

// parseQueries builds one query per repeated pool parameter. Integration
// toggles apply to every pool of the request; vault_id and strategy are only
// accepted with a single pool.
func (s *Server) parseQueries(r *http.Request) ([]model.PoolQuery, error) {
	params := r.URL.Query()

	chain := strings.TrimSpace(params.Get("chain"))
	if chain == "" {
		chain = s.defaults.Chain
	}

	integrations := s.defaults.Integrations
	if err := parseToggle(params.Get("stakedao"), &integrations.StakeDAO); err != nil {
		return nil, errors.New("invalid stakedao: " + err.Error())
	}
	if err := parseToggle(params.Get("beefy"), &integrations.Beefy); err != nil {
		return nil, errors.New("invalid beefy: " + err.Error())
	}

	overrides := model.Overrides{
		VaultID:  strings.TrimSpace(params.Get("vault_id")),
		Strategy: strings.TrimSpace(params.Get("strategy")),
	}

	var queries []model.PoolQuery
	for _, raw := range params["pool"] {
		for _, pool := range strings.Split(raw, ",") {
			pool = strings.TrimSpace(pool)
			if pool == "" {
				continue
			}
			queries = append(queries, model.PoolQuery{
				Chain:        chain,
				Pool:         pool,
				Integrations: integrations,
				Overrides:    overrides,
			})
		}
	}
	if len(queries) == 0 {
		return nil, errMissingPool
	}
	if len(queries) > 1 && !overrides.IsZero() {
		return nil, model.ErrSharedOverrides
	}
	return queries, nil
}

func parseToggle(raw string, dst *bool) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
