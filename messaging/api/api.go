// Package api serves read-only token queries and Prometheus metrics over HTTP.
// Every state change goes through signed events; nothing here writes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dividendtoken/engine/library"
	"dividendtoken/engine/metrics"
	"dividendtoken/state/emission"
	"dividendtoken/state/token"
)

type Server struct {
	router *chi.Mux
	token  *token.Token
	srv    *http.Server
}

func New(addr string, tk *token.Token) *Server {
	s := &Server{router: chi.NewRouter(), token: tk}
	s.setupRoutes()
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/supply", s.handleSupply)
		r.Get("/accounts/{account}", s.handleAccount)
		r.Get("/accounts/{owner}/allowances/{spender}", s.handleAllowance)
		r.Get("/claims/{identifier}", s.handleClaim)
	})
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			library.LogCLI(err.Error(), 1)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type SupplyResponse struct {
	TotalSupply string          `json:"total_supply"`
	Era         *uint64         `json:"era,omitempty"`
	Emitting    bool            `json:"emitting"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	Controller  library.Account `json:"controller"`
	Pool        library.Account `json:"pool"`
}

type AccountResponse struct {
	Account      library.Account `json:"account"`
	Balance      string          `json:"balance"`
	Withdrawable string          `json:"withdrawable_dividend"`
	Withdrawn    string          `json:"withdrawn_dividend"`
	Accumulative string          `json:"accumulative_dividend"`
	Blacklisted  bool            `json:"blacklisted"`
}

func (s *Server) handleSupply(w http.ResponseWriter, r *http.Request) {
	resp := SupplyResponse{
		TotalSupply: s.token.TotalSupply().String(),
		Emitting:    s.token.Emitting(),
		Controller:  s.token.Controller(),
		Pool:        s.token.Pool(),
	}
	if started, ok := s.token.StartedAt(); ok {
		resp.StartedAt = &started
	}
	if era := s.token.CurrentHalvingEra(); era != emission.EraUnbounded {
		resp.Era = &era
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	if !library.ValidAccount(account) {
		writeError(w, http.StatusBadRequest, "invalid account")
		return
	}
	writeJSON(w, http.StatusOK, AccountResponse{
		Account:      account,
		Balance:      s.token.BalanceOf(account).String(),
		Withdrawable: s.token.WithdrawableDividendOf(account).String(),
		Withdrawn:    s.token.WithdrawnDividendOf(account).String(),
		Accumulative: s.token.AccumulativeDividendOf(account).String(),
		Blacklisted:  s.token.Blacklisted(account),
	})
}

func (s *Server) handleAllowance(w http.ResponseWriter, r *http.Request) {
	owner, spender := chi.URLParam(r, "owner"), chi.URLParam(r, "spender")
	if !library.ValidAccount(owner) || !library.ValidAccount(spender) {
		writeError(w, http.StatusBadRequest, "invalid account")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"allowance": s.token.Allowance(owner, spender).String()})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, err := library.ParseIdentifier(chi.URLParam(r, "identifier"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"identifier": id, "claimed": s.token.Claimed(id)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		library.LogCLI(err.Error(), 2)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
