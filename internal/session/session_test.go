package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
)

// MockRemote is a mock implementation of Remote
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) Perform(ctx context.Context, op string, payload json.RawMessage) (*types.OpResult, error) {
	args := m.Called(ctx, op, payload)
	result, _ := args.Get(0).(*types.OpResult)
	return result, args.Error(1)
}

// downStore fails every call
type downStore struct{}

func (downStore) LoadSnapshot(context.Context, string) (*types.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func (downStore) SaveSnapshot(context.Context, *types.Snapshot) error {
	return errors.New("connection refused")
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.Game.Seed = 42
	cfg.Game.AutosaveDelay = 10
	return cfg
}

func savedAt(t *testing.T, store *storage.MemoryStore, day int, at time.Time) *types.Snapshot {
	t.Helper()
	state := game.NewWorldState("p1", "Zé", nil, nil)
	state.Day = day
	snap, err := storage.NewSnapshot(state, at)
	require.NoError(t, err)
	require.NoError(t, store.SaveSnapshot(context.Background(), snap))
	return snap
}

func travel(district string) types.Action {
	return types.NewAction(types.ActionTravel, types.TravelPayload{District: district})
}

func TestStartNewGame(t *testing.T) {
	// Setup
	ctx := context.Background()
	local := storage.NewMemoryStore()
	s := New(testConfig(), "p1", local, nil, nil)

	// Test case 1: nothing to use before Start
	_, err := s.Dispatch(types.Action{Type: types.ActionEndTurn})
	assert.ErrorIs(t, err, ErrNotStarted)

	// Test case 2: no save anywhere starts a fresh game
	require.NoError(t, s.Start(ctx, "Zé"))
	state := s.State()
	assert.Equal(t, "p1", state.PlayerID)
	assert.Equal(t, "Zé", state.PlayerName)
	assert.Equal(t, 1, state.Day)
	assert.Equal(t, 2000, state.Money)

	// Test case 3: Close flushes the pending autosave
	require.NoError(t, s.Close(ctx))
	snap, err := local.LoadSnapshot(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Day)
}

func TestStartRestoresLocalSave(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	savedAt(t, local, 7, time.Now())

	s := New(testConfig(), "p1", local, nil, nil)
	require.NoError(t, s.Start(ctx, "Outro"))
	defer s.Close(ctx)

	assert.Equal(t, 7, s.State().Day)
	assert.Equal(t, "Zé", s.State().PlayerName)
}

func TestStartReconcilesWithCloud(t *testing.T) {
	// Setup
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	// Test case 1: a newer cloud save wins and is kept locally
	local := storage.NewMemoryStore()
	remote := storage.NewMemoryStore()
	savedAt(t, local, 3, base)
	savedAt(t, remote, 8, base.Add(-time.Hour))

	s := New(testConfig(), "p1", local, nil, nil)
	s.SetCloud(remote, 0)
	require.NoError(t, s.Start(ctx, "Zé"))
	assert.Equal(t, 8, s.State().Day)

	stored, err := local.LoadSnapshot(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 8, stored.Day)
	require.NoError(t, s.Close(ctx))

	// Test case 2: a newer local save is pushed
	local = storage.NewMemoryStore()
	remote = storage.NewMemoryStore()
	savedAt(t, local, 9, base)
	savedAt(t, remote, 9, base.Add(-time.Minute))

	s = New(testConfig(), "p1", local, nil, nil)
	s.SetCloud(remote, 0)
	require.NoError(t, s.Start(ctx, "Zé"))
	assert.Equal(t, 9, s.State().Day)

	pushed, err := remote.LoadSnapshot(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, base, pushed.SavedAt)
	require.NoError(t, s.Close(ctx))

	// Test case 3: an unreachable cloud falls back to the local save
	local = storage.NewMemoryStore()
	savedAt(t, local, 4, base)
	s = New(testConfig(), "p1", local, nil, nil)
	s.SetCloud(downStore{}, 0)
	require.NoError(t, s.Start(ctx, "Zé"))
	assert.Equal(t, 4, s.State().Day)
	assert.NoError(t, s.Close(ctx))
}

func TestPerformRoutesAuthoritativeActions(t *testing.T) {
	// Setup
	ctx := context.Background()
	remote := new(MockRemote)
	s := New(testConfig(), "p1", storage.NewMemoryStore(), nil, nil)
	s.SetRemote(remote)
	require.NoError(t, s.Start(ctx, "Zé"))
	defer s.Close(ctx)

	money := 1970
	district := "centro"
	remote.On("Perform", mock.Anything, "travel", mock.Anything).Return(&types.OpResult{
		Applied: true,
		Fields:  types.ServerFields{Money: &money, District: &district},
		Notifications: []types.Notification{
			{Kind: types.NotifyToast, Title: "Centro", Body: "Chegou"},
		},
	}, nil).Once()

	// Test case 1: the backend result is merged
	res, err := s.Perform(ctx, travel("centro"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1970, s.State().Money)
	assert.Equal(t, "centro", s.State().District)
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, "Centro", res.Notifications[0].Title)

	// Test case 2: a rejected action changes nothing
	remote.On("Perform", mock.Anything, "buy_vehicle", mock.Anything).Return(&types.OpResult{
		Applied: false,
		Fields:  game.ServerFieldsOf(s.State()),
	}, nil).Once()
	res, err = s.Perform(ctx, types.NewAction(types.ActionBuyVehicle, types.IDPayload{ID: "moto"}))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, s.State().Vehicles)

	// Test case 3: local actions never reach the backend
	res, err = s.Perform(ctx, types.Action{Type: types.ActionEndTurn})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 2, s.State().Day)

	remote.AssertExpectations(t)
	remote.AssertNumberOfCalls(t, "Perform", 2)
}

func TestPerformFallsBackWhenOffline(t *testing.T) {
	// Setup
	ctx := context.Background()
	remote := new(MockRemote)
	remote.On("Perform", mock.Anything, "travel", mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))

	s := New(testConfig(), "p1", storage.NewMemoryStore(), nil, nil)
	s.SetRemote(remote)
	require.NoError(t, s.Start(ctx, "Zé"))
	defer s.Close(ctx)

	// Test case 1: the action runs locally with a connectivity notice
	res, err := s.Perform(ctx, travel("centro"))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "centro", s.State().District)
	assert.Equal(t, 1970, s.State().Money)
	assert.Contains(t, res.Notifications, Offline)

	remote.AssertExpectations(t)
}

func TestAutosaveAndFinalPush(t *testing.T) {
	// Setup
	ctx := context.Background()
	local := storage.NewMemoryStore()
	remote := storage.NewMemoryStore()
	s := New(testConfig(), "p1", local, nil, nil)
	s.SetCloud(remote, 0)
	require.NoError(t, s.Start(ctx, "Zé"))

	// Test case 1: a dispatch is autosaved after the quiet period
	_, err := s.Dispatch(travel("centro"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		snap, err := local.LoadSnapshot(ctx, "p1")
		return err == nil && snap.State.District == "centro"
	}, 2*time.Second, 10*time.Millisecond)

	// Test case 2: Close pushes the final state to the cloud
	require.NoError(t, s.Close(ctx))
	snap, err := remote.LoadSnapshot(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "centro", snap.State.District)

	// Test case 3: closing twice is harmless
	assert.NoError(t, s.Close(ctx))
}

func TestPerformPushesLocalProgressFirst(t *testing.T) {
	// Setup
	ctx := context.Background()
	cloudStore := storage.NewMemoryStore()
	remote := new(MockRemote)
	s := New(testConfig(), "p1", storage.NewMemoryStore(), nil, nil)
	s.SetRemote(remote)
	s.SetCloud(cloudStore, 0)
	require.NoError(t, s.Start(ctx, "Zé"))
	defer s.Close(ctx)

	// Test case 1: a local turn is in the cloud before the backend trades
	res, err := s.Perform(ctx, types.Action{Type: types.ActionEndTurn})
	require.NoError(t, err)
	require.True(t, res.Changed)
	afterTurn := s.State()
	require.Equal(t, 2, afterTurn.Day)

	var seenDay, seenMoney int
	remote.On("Perform", mock.Anything, "trade", mock.Anything).Run(func(args mock.Arguments) {
		snap, err := cloudStore.LoadSnapshot(ctx, "p1")
		require.NoError(t, err)
		seenDay, seenMoney = snap.State.Day, snap.State.Money
	}).Return(&types.OpResult{
		Applied: true,
		Fields:  game.ServerFieldsOf(afterTurn),
	}, nil).Once()

	_, err = s.Perform(ctx, types.NewAction(types.ActionTrade, types.TradePayload{Good: "cigarros", Qty: 1, Side: types.SideBuy}))
	require.NoError(t, err)
	assert.Equal(t, 2, seenDay)
	assert.Equal(t, afterTurn.Money, seenMoney)
	assert.Equal(t, 2, s.State().Day)
	remote.AssertExpectations(t)
}
