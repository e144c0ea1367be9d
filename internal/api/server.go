package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finanzstart/internal/game"
	"finanzstart/internal/leaderboard"
	"finanzstart/internal/report"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 64 << 10

type Server struct {
	log   *slog.Logger
	game  *game.Service
	board leaderboard.Store
	mux   *chi.Mux
}

func New(logger *slog.Logger, gameSvc *game.Service, board leaderboard.Store) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:   logger,
		game:  gameSvc,
		board: board,
		mux:   chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleSessionState)
			r.Delete("/", s.handleEndSession)
			r.Post("/actions", s.handleAction)
			r.Post("/reset", s.handleReset)
			r.Get("/report.csv", s.handleReportCSV)
			r.Post("/leaderboard", s.handleSessionSubmit)
		})

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Post("/leaderboard", s.handleLeaderboardSubmit)
	})
}

type sessionView struct {
	ID      string       `json:"id"`
	State   *game.State  `json:"state"`
	Summary game.Summary `json:"summary"`
}

func viewOf(sess *game.Session) sessionView {
	st := sess.State()
	return sessionView{ID: sess.ID(), State: st, Summary: st.Summary()}
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Catalog())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Seed *int64 `json:"seed"`
	}
	if err := decodeOptionalJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := s.game.CreateSession(in.Seed)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, err := s.game.Session(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleSessionState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.game.EndSession(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var a game.Action
	if err := decodeJSON(r, &a); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, sess, a)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.apply(w, sess, game.Action{Kind: game.ActReset})
}

func (s *Server) apply(w http.ResponseWriter, sess *game.Session, a game.Action) {
	res, err := sess.Apply(a)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	st := sess.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"applied":   res.Applied,
		"record":    res.Record,
		"offer":     res.Offer,
		"event":     res.Event,
		"effective": res.Effective,
		"state":     st,
		"summary":   st.Summary(),
	})
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, sess.State().MonthHistory); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="finanzstart_spreadsheet.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSessionSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var in struct {
		PlayerName string `json:"playerName"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var entry leaderboard.Entry
	_, err := sess.SubmitLeaderboard(in.PlayerName, func(sub game.LeaderboardSubmission) error {
		var err error
		entry, err = s.board.Submit(r.Context(), leaderboard.Submission{
			PlayerName:                sub.PlayerName,
			RetirementAgeMonths:       sub.RetirementAgeMonths,
			PassiveIncomeAtRetirement: sub.PassiveIncomeAtRetirement,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, leaderboard.ErrUnavailable) {
			s.log.Warn("leaderboard submit failed", "session_id", sess.ID(), "err", err)
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := leaderboard.DefaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	board, err := s.board.Top(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleLeaderboardSubmit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := leaderboard.ValidateJSON(raw)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	entry, err := s.board.Submit(r.Context(), sub)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrUnknownAction), errors.Is(err, game.ErrInvalidAction),
		errors.Is(err, game.ErrInvalidName), errors.Is(err, leaderboard.ErrInvalidSubmission):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrNotRetired), errors.Is(err, game.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, leaderboard.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

// decodeOptionalJSON accepts an empty body.
func decodeOptionalJSON(r *http.Request, out any) error {
	err := decodeJSON(r, out)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
