package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/KenThuan129/startup-simulation-game/internal/config"
	"github.com/KenThuan129/startup-simulation-game/internal/content"
	"github.com/KenThuan129/startup-simulation-game/internal/game"
	"github.com/KenThuan129/startup-simulation-game/internal/sim"
	"github.com/KenThuan129/startup-simulation-game/internal/store"
)

const maxSimulatedCompanies = 200

type ContentInfo interface {
	Summary() content.Summary
}

type Server struct {
	cfg     config.APIConfig
	log     *slog.Logger
	game    *game.Service
	content ContentInfo
	mux     *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service, info ContentInfo) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		game:    gameSvc,
		content: info,
		mux:     chi.NewRouter(),
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
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.adminMiddleware)
		r.Get("/content", s.handleContent)
		r.Post("/simulate", s.handleSimulate)
		r.Post("/boss/expire", s.handleExpireBattles)

		r.Get("/owners/{owner}/company", s.handleOwnerCompany)
		r.Route("/companies/{id}", func(r chi.Router) {
			r.Get("/", s.handleCompany)
			r.Get("/level", s.handleLevel)
			r.Get("/loans", s.handleLoans)
			r.Get("/anomalies", s.handleAnomalies)
			r.Get("/boss", s.handleBoss)
			r.Post("/end-day", s.handleEndDay)
		})
	})
}

func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AdminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleContent(w http.ResponseWriter, _ *http.Request) {
	if s.content == nil {
		writeError(w, http.StatusNotFound, "content summary unavailable")
		return
	}
	writeJSON(w, http.StatusOK, s.content.Summary())
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var in sim.SimulationConfig
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Difficulty != "" && !sim.ValidDifficulty(in.Difficulty) {
		writeError(w, http.StatusBadRequest, "unknown difficulty")
		return
	}
	if in.Companies > maxSimulatedCompanies {
		writeError(w, http.StatusBadRequest, "too many companies (max "+strconv.Itoa(maxSimulatedCompanies)+")")
		return
	}
	if maxDay := s.game.Tuning().MaxDay; in.Days > maxDay {
		in.Days = maxDay
	}
	res, err := s.game.Simulate(in, nil)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id": uuid.NewString(),
		"result": res,
	})
}

func (s *Server) handleExpireBattles(w http.ResponseWriter, r *http.Request) {
	n, err := s.game.ExpireBossBattles(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expired": n})
}

func (s *Server) handleOwnerCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.game.ActiveCompany(r.Context(), chi.URLParam(r, "owner"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game.Redact(c))
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.game.Company(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game.Redact(c))
}

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.LevelInfo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := s.game.Loans(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"loans": nonNil(loans)})
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	entries, err := s.game.AnomalyLog(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"anomalies": nonNil(entries)})
}

func (s *Server) handleBoss(w http.ResponseWriter, r *http.Request) {
	b, err := s.game.BossStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleEndDay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	out, err := s.game.EndDay(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.log.Info("day ended by admin", "company_id", id, "day", out.End.Tick.Day, "request_id", middleware.GetReqID(r.Context()))
	out.Company = game.Redact(out.Company)
	writeJSON(w, http.StatusOK, out)
}

func writeDomainError(w http.ResponseWriter, err error) {
	var failure *sim.Failure
	switch {
	case errors.As(err, &failure):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": failure.Error(),
			"need":  failure.Need,
			"have":  failure.Have,
		})
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, game.ErrNoActiveCompany),
		errors.Is(err, game.ErrNoBossBattle):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrExists),
		errors.Is(err, sim.ErrCompanyInactive),
		errors.Is(err, sim.ErrDayAlreadyStarted),
		errors.Is(err, sim.ErrLifelineActive),
		errors.Is(err, sim.ErrBattleNotActive),
		errors.Is(err, game.ErrBattleExpired),
		errors.Is(err, game.ErrRoleAlreadyChosen):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrInvalidName),
		errors.Is(err, game.ErrInvalidGoal),
		errors.Is(err, game.ErrUnknownCompanyType),
		errors.Is(err, game.ErrUnknownDifficulty),
		errors.Is(err, game.ErrUnknownOffer),
		errors.Is(err, game.ErrUnknownMove),
		errors.Is(err, sim.ErrInvalidAmount),
		errors.Is(err, sim.ErrUnknownSkill),
		errors.Is(err, sim.ErrUnknownAction),
		errors.Is(err, sim.ErrUnknownEvent),
		errors.Is(err, sim.ErrUnknownChoice),
		errors.Is(err, sim.ErrUnknownRole):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
