package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/scythe504/skribblr-teams/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(id string) *Client {
	return newClient(id, nil, nil)
}

// received decodes whatever is queued on c without blocking.
func received(t *testing.T, c *Client) []internal.Message[json.RawMessage] {
	t.Helper()
	var out []internal.Message[json.RawMessage]
	for {
		select {
		case raw := <-c.send:
			var msg internal.Message[json.RawMessage]
			require.NoError(t, json.Unmarshal(raw, &msg))
			out = append(out, msg)
		case <-time.After(10 * time.Millisecond):
			return out
		}
	}
}

func types(msgs []internal.Message[json.RawMessage]) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

func TestHubJoinBalancesTeams(t *testing.T) {
	hub := NewHub()

	a, err := hub.Join("r", "A", "alice", "", testClient("a"))
	require.NoError(t, err)
	b, err := hub.Join("r", "B", "bob", "", testClient("b"))
	require.NoError(t, err)
	c, err := hub.Join("r", "C", "carol", "", testClient("c"))
	require.NoError(t, err)
	d, err := hub.Join("r", "D", "dave", TeamRed, testClient("d"))
	require.NoError(t, err)

	assert.Equal(t, TeamRed, a.Team)
	assert.Equal(t, TeamBlue, b.Team)
	assert.Equal(t, TeamRed, c.Team)
	assert.Equal(t, TeamRed, d.Team, "explicit team wins over balance")
	assert.Equal(t, 4, d.Members)

	players := hub.Players("r")
	require.Len(t, players, 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{players[0].UserID, players[1].UserID, players[2].UserID, players[3].UserID})
	assert.Equal(t, "a", players[0].SocketID)
	assert.Equal(t, "A", hub.Host("r"))

	_, err = hub.Join("r", "E", "eve", "green", testClient("e"))
	assert.ErrorIs(t, err, ErrBadTeam)
	_, err = hub.Join("", "E", "eve", "", testClient("e"))
	assert.ErrorIs(t, err, ErrMissingIDs)
}

func TestHubRoomFull(t *testing.T) {
	hub := NewHub()
	for i := range MaxPlayersPerRoom {
		_, err := hub.Join("r", string(rune('a'+i)), "p", "", testClient("x"))
		require.NoError(t, err)
	}
	_, err := hub.Join("r", "late", "p", "", testClient("x"))
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestHubReconnectReplacesClient(t *testing.T) {
	hub := NewHub()
	first := testClient("first")
	_, err := hub.Join("r", "A", "alice", "", first)
	require.NoError(t, err)

	second := testClient("second")
	res, err := hub.Join("r", "A", "", "", second)
	require.NoError(t, err)
	assert.True(t, res.Reconnected)
	assert.Same(t, first, res.Replaced)
	assert.Equal(t, "alice", res.Username)

	left := hub.Leave("r", "A", first)
	assert.True(t, left.Stale, "the replaced socket must not evict the player")
	assert.True(t, hub.IsConnected("r", "A"))

	hub.SendTo("r", "A", internal.NewEnvelope(internal.EventStateSync, nil))
	assert.Empty(t, received(t, first))
	assert.Equal(t, []string{internal.EventStateSync}, types(received(t, second)))
}

func TestHubLeave(t *testing.T) {
	hub := NewHub()
	inGame := false
	hub.KeepWhile(func(string) bool { return inGame })

	a, b := testClient("a"), testClient("b")
	_, _ = hub.Join("r", "A", "alice", "", a)
	_, _ = hub.Join("r", "B", "bob", "", b)

	inGame = true
	left := hub.Leave("r", "B", b)
	assert.False(t, left.Stale)
	assert.False(t, left.Emptied)
	assert.Equal(t, 1, left.Members)

	roster := hub.Roster("r")
	require.Len(t, roster, 2, "disconnected players stay listed during a game")
	assert.False(t, roster[1].IsConnected)
	assert.Len(t, hub.Players("r"), 1)

	inGame = false
	left = hub.Leave("r", "A", a)
	assert.True(t, left.Emptied)
	assert.False(t, hub.HasRoom("r"))
	assert.Empty(t, hub.Host("r"))
}

func TestHubJoinAfterGameFreesDroppedSeats(t *testing.T) {
	hub := NewHub()
	inGame := true
	hub.KeepWhile(func(string) bool { return inGame })

	clients := make([]*Client, MaxPlayersPerRoom)
	for i := range MaxPlayersPerRoom {
		clients[i] = testClient(string(rune('a' + i)))
		_, err := hub.Join("r", string(rune('A'+i)), "p", "", clients[i])
		require.NoError(t, err)
	}
	hub.Leave("r", "G", clients[6])
	hub.Leave("r", "H", clients[7])
	require.Len(t, hub.Roster("r"), MaxPlayersPerRoom)

	_, err := hub.Join("r", "late", "p", "", testClient("late"))
	assert.ErrorIs(t, err, ErrRoomFull, "dropped players keep their seat mid-game")

	// The game is over; the dropped seats are free again.
	inGame = false
	res, err := hub.Join("r", "late", "p", "", testClient("late"))
	require.NoError(t, err)
	assert.Equal(t, 7, res.Members)
	assert.Len(t, hub.Roster("r"), 7)
	assert.False(t, hub.IsConnected("r", "G"))
}

func TestHubPrune(t *testing.T) {
	hub := NewHub()
	hub.KeepWhile(func(string) bool { return true })

	a, b, c := testClient("a"), testClient("b"), testClient("c")
	_, _ = hub.Join("r", "A", "alice", "", a)
	_, _ = hub.Join("r", "B", "bob", "", b)
	_, _ = hub.Join("r", "C", "carol", "", c)
	hub.Leave("r", "B", b)

	hub.Prune("r")
	roster := hub.Roster("r")
	require.Len(t, roster, 2)
	assert.Equal(t, []string{"A", "C"}, []string{roster[0].ID, roster[1].ID})

	// Balance only counts who is left: red A, red C.
	d, err := hub.Join("r", "D", "dave", "", testClient("d"))
	require.NoError(t, err)
	assert.Equal(t, TeamBlue, d.Team)

	hub.Prune("missing")
	assert.False(t, hub.HasRoom("missing"))
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	a, b := testClient("a"), testClient("b")
	_, _ = hub.Join("r", "A", "alice", "", a)
	_, _ = hub.Join("r", "B", "bob", "", b)
	other := testClient("o")
	_, _ = hub.Join("elsewhere", "O", "olga", "", other)

	hub.Broadcast("r", internal.NewEnvelope(internal.EventRoundStarted, internal.RoundStartedData{RoundNumber: 1}))
	hub.BroadcastExcept("r", "A", internal.NewEnvelope(internal.EventPromptHint, internal.MaskedPromptData{MaskedWord: "_ _ _"}))

	assert.Equal(t, []string{internal.EventRoundStarted}, types(received(t, a)))
	bMsgs := received(t, b)
	assert.Equal(t, []string{internal.EventRoundStarted, internal.EventPromptHint}, types(bMsgs))
	assert.Empty(t, received(t, other))

	var hint internal.MaskedPromptData
	require.NoError(t, json.Unmarshal(bMsgs[1].Data, &hint))
	assert.Equal(t, "_ _ _", hint.MaskedWord)
}

func TestClientEnqueueAfterClose(t *testing.T) {
	c := testClient("a")
	assert.True(t, c.enqueue([]byte("x")))
	c.Close()
	c.Close()
	assert.False(t, c.enqueue([]byte("y")))
}
