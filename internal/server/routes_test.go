package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scythe504/skribblr-teams/internal"
	"github.com/scythe504/skribblr-teams/internal/flashcard"
	"github.com/scythe504/skribblr-teams/internal/game"
	"github.com/scythe504/skribblr-teams/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	StatusCode int `json:"status_code"`
	Data       T   `json:"data"`
}

func newTestServer(t *testing.T, checks map[string]Checker, origins []string) *Server {
	t.Helper()
	cards := flashcard.NewMemorySupplier([]internal.Flashcard{
		{Word: "Apple", Hint: "a fruit", Difficulty: internal.DifficultyEasy},
	})
	hub := gateway.NewHub()
	engine := game.NewEngine(nil, nil, cards, hub, game.Options{Presence: hub})
	t.Cleanup(func() { engine.Shutdown(context.Background()) })

	return New(":0", Deps{
		Engine:         engine,
		Hub:            hub,
		WS:             gateway.NewHandler(hub, engine, gateway.HandlerOptions{}),
		Checks:         checks,
		AllowedOrigins: origins,
	})
}

func do(t *testing.T, s *Server, method, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, req)
	return rec
}

func TestHelloWorldHandler(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := do(t, s, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body envelope[map[string]string]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Hello World", body.Data["message"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Checker
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "healthy",
			checks:     map[string]Checker{"flashcards": CheckerFunc(func(context.Context) error { return nil })},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"flashcards": "ok"},
		},
		{
			name:       "store down",
			checks:     map[string]Checker{"flashcards": CheckerFunc(func(context.Context) error { return errors.New("down") })},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"flashcards": "error"},
		},
		{
			name:       "no checks",
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.checks, nil)
			rec := do(t, s, http.MethodGet, "/health", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body envelope[map[string]string]
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantBody, body.Data)
			assert.Equal(t, tt.wantStatus, body.StatusCode)
		})
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, nil, []string{"https://play.example.com"})

	rec := do(t, s, http.MethodOptions, "/rooms/r/state", http.Header{"Origin": {"https://play.example.com"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://play.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, s, http.MethodGet, "/", http.Header{"Origin": {"https://evil.example.com"}})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoomStateHandler(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := do(t, s, http.MethodGet, "/rooms/nowhere/state", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, err := s.engine.StartGame(context.Background(), game.StartRequest{
		RoomID: "r",
		Players: []*internal.Player{
			{UserID: "A", DisplayName: "alice", Team: "red"},
			{UserID: "B", DisplayName: "bob", Team: "blue"},
		},
	})
	require.NoError(t, err)

	rec = do(t, s, http.MethodGet, "/rooms/r/state", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body envelope[internal.GameStateData]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body.Data.RoundNumber)
	assert.Equal(t, internal.PhaseRoundActive, body.Data.Phase)
	assert.Equal(t, "_ _ _ _ _", body.Data.MaskedWord)
	assert.Empty(t, body.Data.Word, "the public view never carries the word")

	rec = do(t, s, http.MethodGet, "/rooms/r/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var players envelope[internal.PlayersUpdateData]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&players))
	require.Len(t, players.Data.Players, 2)
	assert.True(t, players.Data.Players[0].IsDrawer)
}

func TestRoomPlayersHandlerLobby(t *testing.T) {
	s := newTestServer(t, nil, nil)
	_, err := s.hub.Join("lobby", "A", "alice", "", nil)
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/rooms/lobby/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body envelope[internal.PlayersUpdateData]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Data.Players, 1)
	assert.Equal(t, "alice", body.Data.Players[0].Username)
	assert.Equal(t, "red", body.Data.Players[0].Team)
}
