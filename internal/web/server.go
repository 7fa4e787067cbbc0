// Package web serves the dashboard API: browse the store, edit rules and
// settings, trigger analysis runs, and send replies. The batch pipeline
// itself stays single-writer; the server serializes every store mutation
// behind one mutex.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mailmind-app/mailmind/internal/analyze"
	"github.com/mailmind-app/mailmind/internal/config"
	"github.com/mailmind-app/mailmind/internal/history"
	"github.com/mailmind-app/mailmind/internal/mailer"
	"github.com/mailmind-app/mailmind/internal/oracle"
	"github.com/mailmind-app/mailmind/internal/store"
)

type Server struct {
	cfg     *config.Config
	oracles oracle.Set
	journal *history.Journal // may be nil
	log     zerolog.Logger

	mu sync.Mutex // guards all store file access
}

func NewServer(cfg *config.Config, oracles oracle.Set, journal *history.Journal, log zerolog.Logger) *Server {
	return &Server{cfg: cfg, oracles: oracles, journal: journal, log: log}
}

// ListenAndServe blocks serving the API until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Web.Addr, Handler: s.router()}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Web.Addr).Msg("web API listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Route("/api", func(r chi.Router) {
		r.Get("/emails", s.handleListEmails)
		r.Get("/emails/{id}", s.handleGetEmail)
		r.Post("/emails/{id}/reply", s.handleSaveReply)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
		r.Get("/rules", s.handleGetRules)
		r.Post("/rules", s.handleAddRule)
		r.Delete("/rules/{category}", s.handleDeleteRule)
		r.Post("/send", s.handleSend)
		r.Get("/runs", s.handleRuns)
	})
	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleListEmails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := store.Load(s.cfg.Store.Database)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, db)
}

func (s *Server) handleGetEmail(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := store.Load(s.cfg.Store.Database)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	e := db.Find(chi.URLParam(r, "id"))
	if e == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("email not found"))
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

// handleSaveReply stores a drafted reply on the email without sending it.
func (s *Server) handleSaveReply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reply string `json:"reply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	db, err := store.Load(s.cfg.Store.Database)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	e := db.Find(chi.URLParam(r, "id"))
	if e == nil {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("email not found"))
		return
	}
	e.SmartReply = req.Reply
	if err := db.Save(s.cfg.Store.Database); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, e)
}

// handleAnalyze runs a batch pass in-process and reports its stats.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := store.LoadSettings(s.cfg.Store.Settings)
	if err != nil {
		s.log.Warn().Err(err).Msg("settings unavailable, using defaults")
	}
	if !settings.EmailSummarization {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "summarization disabled"})
		return
	}
	db, err := store.Load(s.cfg.Store.Database)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	rules, err := store.LoadRules(s.cfg.Store.Rules)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	proc := analyze.NewProcessor(s.oracles, settings, rules.Rules, s.log)
	var journal analyze.Recorder
	if s.journal != nil {
		journal = s.journal
	}
	runner := analyze.NewRunner(db, s.cfg.Store.Database, proc, settings, rules, journal, s.log)

	stats, err := runner.Run(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings, _ := store.LoadSettings(s.cfg.Store.Settings)
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var settings store.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := settings.Save(s.cfg.Store.Settings); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rules, err := store.LoadRules(s.cfg.Store.Rules)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule store.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if rule.Category == "" || len(rule.Keywords) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("category and keywords are required"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rules, err := store.LoadRules(s.cfg.Store.Rules)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	rules.Add(rule)
	if err := rules.Save(s.cfg.Store.Rules); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rules)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rules, err := store.LoadRules(s.cfg.Store.Rules)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !rules.Remove(chi.URLParam(r, "category")) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("rule not found"))
		return
	}
	if err := rules.Save(s.cfg.Store.Rules); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rules)
}

// handleSend delivers a reply through the configured mail provider.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.cfg.ValidateMailer(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	sender, err := mailer.NewSender(s.cfg.Mailer)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	result := sender.Send(r.Context(), mailer.Message{
		To:      req.To,
		From:    s.cfg.Mailer.From,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if !result.Success {
		s.writeError(w, http.StatusBadGateway, result.Error)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"messageId": result.MessageID})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeJSON(w, http.StatusOK, []history.Run{})
		return
	}
	runs, err := s.journal.RecentRuns(20)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}
