// Package syncd is the shared record store the devices sync against. It
// is deliberately dumb: it persists wire payloads, serves them back, and
// filters the list endpoint on two indexed columns. All reconciliation
// logic lives on the devices.
package syncd

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/roach88/gridsync/internal/game"
)

const maxBodyBytes = 1 << 20

// Server serves the sync API over one Store.
type Server struct {
	store  *Store
	config Config
}

// NewServer creates a server for the given store.
func NewServer(store *Store, config Config) *Server {
	return &Server{store: store, config: config.withDefaults()}
}

// Handler builds the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "DELETE"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(httprate.LimitByIP(s.config.RateLimitCount, time.Duration(s.config.RateLimitInterval)))
	r.Use(requireToken(s.config.TokenHashes))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/games", s.listGames)
		r.Put("/games/{id}", s.putGame)
		r.Get("/games/{id}", s.getGame)
		r.Delete("/games/{id}", s.deleteGame)

		r.Get("/settings", s.getSingleton(game.SettingsKey))
		r.Put("/settings", s.putSingleton(game.SettingsKey))
		r.Get("/statistics", s.getSingleton(game.StatisticsKey))
		r.Put("/statistics", s.putSingleton(game.StatisticsKey))
	})

	return r
}

func (s *Server) putGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fields game.RecordFields
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&fields); err != nil {
		http.Error(w, "malformed record payload", http.StatusBadRequest)
		return
	}
	if fields.ID != id {
		http.Error(w, "payload id does not match path", http.StatusBadRequest)
		return
	}

	if err := s.store.PutGame(r.Context(), fields); err != nil {
		slog.Error("store game failed", "id", id, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	fields, err := s.store.GetGame(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "no such game", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("fetch game failed", "id", id, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}
	writeJSON(w, fields)
}

func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	completed := r.URL.Query().Get("completed") == "1"

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "malformed limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	records, err := s.store.ListGames(r.Context(), completed, limit)
	if err != nil {
		slog.Error("list games failed", "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []game.RecordFields{}
	}
	writeJSON(w, records)
}

func (s *Server) deleteGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.store.DeleteGame(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "no such game", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("delete game failed", "id", id, "error", err)
		http.Error(w, "storage failure", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// getSingleton and putSingleton pass singleton payloads through opaquely;
// only well-formed JSON is accepted so a corrupt body can never land.
func (s *Server) getSingleton(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := s.store.GetSingleton(r.Context(), key)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "not set", http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("fetch singleton failed", "key", key, "error", err)
			http.Error(w, "storage failure", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}
}

func (s *Server) putSingleton(key string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil || !json.Valid(payload) {
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		if err := s.store.PutSingleton(r.Context(), key, payload); err != nil {
			slog.Error("store singleton failed", "key", key, "error", err)
			http.Error(w, "storage failure", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode failed", "error", err)
	}
}
