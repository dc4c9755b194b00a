package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/scythe504/skribblr-teams/internal"
	"github.com/scythe504/skribblr-teams/internal/game"
)

func (s *Server) RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// Apply CORS middleware
	r.Use(s.corsMiddleware)
	r.Use(requestLogger)

	r.HandleFunc("/", s.HelloWorldHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/rooms/{roomId}/state", s.RoomStateHandler).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/rooms/{roomId}/players", s.RoomPlayersHandler).Methods(http.MethodGet, http.MethodOptions)

	if s.ws != nil {
		r.HandleFunc("/ws/{roomId}", s.ws.HandleWebSocket)
	}

	return r
}

// CORS middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	wildcard := len(s.allowedOrigins) == 0 || slices.Contains(s.allowedOrigins, "*")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case wildcard:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "false")

		// If it's a websocket upgrade, skip further CORS checks
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Upgrades need the raw writer for hijacking.
		if strings.ToLower(r.Header.Get("Upgrade")) == "websocket" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("[HTTP] request")
	})
}

func (s *Server) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, time.Now().UnixMilli(), http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(s.checks))
	status := http.StatusOK
	for name, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			log.Error().Err(err).Str("check", name).Msg("[Health] check failed")
			results[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	writeJSON(w, startTime, status, results)
}

// RoomStateHandler is the read-only public view: no word, only the mask.
func (s *Server) RoomStateHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	roomID := mux.Vars(r)["roomId"]

	state, err := s.engine.State(r.Context(), roomID, "")
	switch {
	case errors.Is(err, game.ErrNoSession):
		if !s.hub.HasRoom(roomID) {
			writeJSON(w, startTime, http.StatusNotFound, "room not found")
			return
		}
		state = internal.GameStateData{
			RoomID:  roomID,
			Phase:   internal.PhaseWaiting,
			Players: s.hub.Roster(roomID),
		}
	case err != nil:
		log.Error().Err(err).Str("room", roomID).Msg("[RoomStateHandler] state failed")
		writeJSON(w, startTime, http.StatusInternalServerError, "could not read room state")
		return
	}
	writeJSON(w, startTime, http.StatusOK, state)
}

func (s *Server) RoomPlayersHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now().UnixMilli()
	roomID := mux.Vars(r)["roomId"]

	players, err := s.engine.Players(r.Context(), roomID)
	switch {
	case errors.Is(err, game.ErrNoSession):
		if !s.hub.HasRoom(roomID) {
			writeJSON(w, startTime, http.StatusNotFound, "room not found")
			return
		}
		players = s.hub.Roster(roomID)
	case err != nil:
		log.Error().Err(err).Str("room", roomID).Msg("[RoomPlayersHandler] roster failed")
		writeJSON(w, startTime, http.StatusInternalServerError, "could not read players")
		return
	}
	writeJSON(w, startTime, http.StatusOK, internal.PlayersUpdateData{RoomID: roomID, Players: players})
}

func writeJSON(w http.ResponseWriter, startTime int64, status int, data any) {
	endTime := time.Now().UnixMilli()
	resp := internal.Response{
		StatusCode:    status,
		RespStartTime: startTime,
		RespEndTime:   endTime,
		NetRespTime:   endTime - startTime,
		Data:          data,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("[HTTP] encoding response failed")
	}
}
