package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/cloud"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
)

type testBackend struct {
	gm     *game.GameManager
	hub    *Hub
	server *Server
	http   *httptest.Server
}

func newTestBackend(t *testing.T, mutate func(cfg *config.Config)) *testBackend {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Auth.JWTSecret = "test-secret"
	if mutate != nil {
		mutate(&cfg)
	}
	gm := game.NewGameManager(cfg, storage.NewMemoryStore(), nil, nil)
	hub := NewHub()
	gm.AddListener(hub)
	server := NewServer(cfg, gm, hub)
	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)
	return &testBackend{gm: gm, hub: hub, server: server, http: ts}
}

func (b *testBackend) client(t *testing.T) (*Client, *types.InitPlayerData) {
	t.Helper()
	client := NewClient(b.http.URL, 5*time.Second)
	data, err := client.InitPlayer(context.Background(), "Zé", "")
	require.NoError(t, err)
	return client, data
}

func TestTokenIssuer(t *testing.T) {
	// Setup
	issuer := NewTokenIssuer("secret", time.Hour)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return now }

	// Test case 1: round trip
	token, err := issuer.Issue("p1")
	require.NoError(t, err)
	playerID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", playerID)

	// Test case 2: another secret rejects it
	_, err = NewTokenIssuer("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Test case 3: expired
	now = now.Add(2 * time.Hour)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// Test case 4: garbage
	_, err = issuer.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestThrottle(t *testing.T) {
	th := newThrottle(1, 2)
	assert.True(t, th.allow("p1"))
	assert.True(t, th.allow("p1"))
	assert.False(t, th.allow("p1"))
	assert.True(t, th.allow("p2"))

	unlimited := newThrottle(0, 0)
	for i := 0; i < 100; i++ {
		require.True(t, unlimited.allow("p1"))
	}
}

func TestInitPlayerAndPerform(t *testing.T) {
	// Setup
	ctx := context.Background()
	backend := newTestBackend(t, nil)
	client, data := backend.client(t)

	// Test case 1: registration issues a token and a fresh world
	assert.NotEmpty(t, data.Token)
	assert.NotEmpty(t, data.PlayerID)
	assert.Equal(t, 2000, data.State.Money)

	// Test case 2: an applied operation returns the authoritative fields
	result, err := client.Perform(ctx, "travel", json.RawMessage(`{"district":"centro"}`))
	require.NoError(t, err)
	assert.True(t, result.Applied)
	require.NotNil(t, result.Fields.Money)
	assert.Equal(t, 1970, *result.Fields.Money)
	require.NotNil(t, result.Fields.District)
	assert.Equal(t, "centro", *result.Fields.District)

	state, err := backend.gm.GetState(data.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, "centro", state.District)

	// Test case 3: a precondition failure is reported, not an error
	result, err = client.Perform(ctx, "buy_vehicle", json.RawMessage(`{"id":"moto"}`))
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, 1970, *result.Fields.Money)
	assert.Empty(t, result.Fields.Vehicles)

	// Test case 4: unknown operations
	_, err = client.Perform(ctx, "rob_bank", nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)

	// Test case 5: get_state
	remote, err := client.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, data.PlayerID, remote.PlayerID)
	assert.Equal(t, 1970, remote.Money)

	// Test case 6: missing name
	_, err = NewClient(backend.http.URL, time.Second).InitPlayer(ctx, " ", "")
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Status)
}

func TestRequestsNeedToken(t *testing.T) {
	// Setup
	backend := newTestBackend(t, nil)

	// Test case 1: no token
	resp, err := http.Post(backend.http.URL+"/rpc/get_state", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body types.RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "missing token", body.Message)

	// Test case 2: a bad token
	client := NewClient(backend.http.URL, time.Second)
	client.SetToken("forged")
	_, err = client.GetState(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)

	// Test case 3: health is public
	health, err := http.Get(backend.http.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestPerPlayerRateLimit(t *testing.T) {
	// Setup
	backend := newTestBackend(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = 0.01
		cfg.Server.RateBurst = 2
	})
	client, _ := backend.client(t)
	ctx := context.Background()

	// Test case 1: the burst passes, the next call is throttled
	_, err := client.GetState(ctx)
	require.NoError(t, err)
	_, err = client.GetState(ctx)
	require.NoError(t, err)
	_, err = client.GetState(ctx)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Status)

	// Test case 2: another player has its own bucket
	other, _ := backend.client(t)
	_, err = other.GetState(ctx)
	assert.NoError(t, err)
}

func TestSaveAndLoadState(t *testing.T) {
	// Setup
	ctx := context.Background()
	backend := newTestBackend(t, nil)
	client, data := backend.client(t)

	// Test case 1: load the registration snapshot
	snap, err := client.LoadSnapshot(ctx, data.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Day)
	assert.Equal(t, data.PlayerID, snap.PlayerID)

	// Test case 2: a newer client save is accepted
	state := snap.State
	state.Day = 5
	state.Money = 4321
	newer, err := storage.NewSnapshot(state, time.Now())
	require.NoError(t, err)
	require.NoError(t, client.SaveSnapshot(ctx, newer))

	current, err := backend.gm.GetState(data.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, 5, current.Day)
	assert.Equal(t, 4321, current.Money)

	// Test case 3: an older save is refused as stale
	older := *newer
	olderState := *state
	olderState.Day = 2
	older.State = &olderState
	older.Day = 2
	assert.ErrorIs(t, client.SaveSnapshot(ctx, &older), cloud.ErrStale)

	// Test case 4: out-of-bounds state fails validation
	hot := *state
	hot.Day = 9
	hot.Heat = 150
	bad, err := storage.NewSnapshot(&hot, time.Now())
	require.NoError(t, err)
	err = client.SaveSnapshot(ctx, bad)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.Status)

	// Test case 5: another player's snapshot is forbidden
	foreign := *state
	foreign.PlayerID = "someone-else"
	foreign.Day = 9
	stolen, err := storage.NewSnapshot(&foreign, time.Now())
	require.NoError(t, err)
	err = client.SaveSnapshot(ctx, stolen)
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusForbidden, statusErr.Status)

	// Test case 6: loading reflects the accepted save
	snap, err = client.LoadSnapshot(ctx, data.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, 5, snap.Day)
}

func TestClientUnavailable(t *testing.T) {
	// Setup
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"success":false,"message":"upstream"}`))
	}))
	defer ts.Close()
	client := NewClient(ts.URL, time.Second)

	// Test case 1: server errors
	_, err := client.Perform(context.Background(), "travel", nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	// Test case 2: nothing listening
	ts.Close()
	_, err = client.Perform(context.Background(), "travel", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStateFeed(t *testing.T) {
	// Setup
	backend := newTestBackend(t, nil)
	client, data := backend.client(t)

	url := "ws" + strings.TrimPrefix(backend.http.URL, "http") + "/ws?token=" + data.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return backend.hub.Subscribers(data.PlayerID) == 1 },
		2*time.Second, 10*time.Millisecond)

	// Test case 1: an authoritative change is pushed
	_, err = client.Perform(context.Background(), "travel", json.RawMessage(`{"district":"centro"}`))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var summary types.StateSummary
	require.NoError(t, conn.ReadJSON(&summary))
	assert.Equal(t, data.PlayerID, summary.PlayerID)
	assert.Equal(t, "travel", summary.Op)
	assert.Equal(t, "centro", summary.District)
	assert.Equal(t, 1970, summary.Money)
	assert.Equal(t, "free", summary.Activity)

	// Test case 2: closing unsubscribes
	conn.Close()
	require.Eventually(t, func() bool { return backend.hub.Subscribers(data.PlayerID) == 0 },
		2*time.Second, 10*time.Millisecond)

	// Test case 3: the feed needs a token
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(backend.http.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSummarize(t *testing.T) {
	state := game.NewWorldState("p1", "Zé", nil, nil)
	summary := Summarize("p1", types.ActionEndTurn, state)
	assert.Equal(t, "end_turn", summary.Op)
	assert.Equal(t, state.Day, summary.Day)

	summary = Summarize("p1", types.ActionWashMoney, state)
	assert.Equal(t, "wash_money", summary.Op)
}
