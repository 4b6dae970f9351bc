package storage

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-empire/internal/types"
)

func testState(id string, day int) *types.WorldState {
	s := &types.WorldState{
		SchemaVersion: CurrentSchemaVersion,
		PlayerID:      id,
		PlayerName:    "Zé",
		Day:           day,
		Money:         2000,
		Level:         1,
		HP:            100,
		MaxHP:         100,
		District:      "favela",
	}
	Normalize(s)
	return s
}

func TestChecksumStable(t *testing.T) {
	// Setup
	a := testState("p1", 3)
	b := testState("p1", 3)
	a.Inventory["maconha"] = 2
	a.Inventory["armas"] = 1
	b.Inventory["armas"] = 1
	b.Inventory["maconha"] = 2

	// Test case 1: identical states hash identically
	sumA, err := Checksum(a)
	require.NoError(t, err)
	sumB, err := Checksum(b)
	require.NoError(t, err)
	assert.Equal(t, sumA, sumB)
	assert.Len(t, sumA, 64)

	// Test case 2: any change alters the digest
	b.Money++
	sumC, err := Checksum(b)
	require.NoError(t, err)
	assert.NotEqual(t, sumA, sumC)
}

func TestNewer(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	day5, _ := NewSnapshot(testState("p1", 5), now)
	day6, _ := NewSnapshot(testState("p1", 6), now.Add(-time.Hour))
	day5Later, _ := NewSnapshot(testState("p1", 5), now.Add(time.Minute))

	assert.True(t, Newer(day6, day5), "higher day wins regardless of save time")
	assert.False(t, Newer(day5, day6))
	assert.True(t, Newer(day5Later, day5), "same day falls back to save time")
	assert.False(t, Newer(day5, day5), "equal is not newer")
	assert.True(t, Newer(day5, nil))
	assert.False(t, Newer(nil, day5))
}

func TestSnapshotEncodeDecode(t *testing.T) {
	// Setup
	state := testState("p1", 7)
	state.Vehicles = append(state.Vehicles, types.Vehicle{ID: "v1", Model: "fusca", Heat: 30, Condition: 80})
	state.ActiveVehicleID = "v1"
	snap, err := NewSnapshot(state, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	data, err := Encode(snap)
	require.NoError(t, err)

	// Test case 1: decode yields the same state
	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, snap.Checksum, decoded.Checksum)
	assert.Equal(t, 7, decoded.Day)

	want, _ := json.Marshal(state)
	got, _ := json.Marshal(decoded.State)
	assert.JSONEq(t, string(want), string(got))

	// Test case 2: a bare state without envelope is accepted
	bare, _ := json.Marshal(state)
	decoded, err = Decode(bare)
	require.NoError(t, err)
	assert.Equal(t, "p1", decoded.PlayerID)
	assert.Equal(t, 7, decoded.Day)

	// Test case 3: garbage is rejected
	_, err = Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestMigrateLegacySave(t *testing.T) {
	// Setup
	legacy := `{
		"playerId": "old",
		"day": 12,
		"money": 900,
		"heat": 45,
		"jailDays": 3,
		"inHospital": false,
		"vehicles": [{"id": "v1", "model": "fusca"}]
	}`

	// Test case 1: the chain fills every newer field
	state, err := MigrateState([]byte(legacy))
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, state.SchemaVersion)
	assert.Equal(t, 45, state.PersonalHeat)
	assert.Equal(t, 100, state.Vehicles[0].Condition)
	require.NotNil(t, state.Prison)
	assert.Equal(t, 3, state.Prison.DaysRemaining)
	assert.Equal(t, 3, state.Prison.Sentence)
	assert.False(t, state.Prison.EscapeAttempted)
	assert.Equal(t, 100, state.MaxHP)
	assert.Equal(t, 100, state.HP)
	assert.NotNil(t, state.Contacts)
	assert.NotNil(t, state.Challenges)
	assert.NotNil(t, state.Perks)
	assert.Nil(t, state.Hospital)
}

func TestMigrateIdempotent(t *testing.T) {
	// Setup
	var once map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"playerId":"p","day":2,"money":10,"heat":20}`), &once))
	from := Migrate(once)
	assert.Equal(t, 0, from)
	first, _ := json.Marshal(once)

	// Test case 1: running the chain again changes nothing
	from = Migrate(once)
	assert.Equal(t, CurrentSchemaVersion, from)
	second, _ := json.Marshal(once)
	assert.JSONEq(t, string(first), string(second))
}

func TestMigratePreservesAnnouncedPhase(t *testing.T) {
	state, err := MigrateState([]byte(`{"schemaVersion":4,"playerId":"p","day":40,"money":0,"endgamePhase":3}`))
	require.NoError(t, err)
	assert.Equal(t, 3, state.EndgamePhase)
	assert.Equal(t, 3, state.PhaseAnnounced)
}

func TestNormalizeClamps(t *testing.T) {
	s := &types.WorldState{PersonalHeat: 140, Heat: -3, Money: -50, HP: 500, MaxHP: 120}
	Normalize(s)
	assert.Equal(t, 100, s.PersonalHeat)
	assert.Equal(t, 0, s.Heat)
	assert.Equal(t, 0, s.Money)
	assert.Equal(t, 120, s.HP)
	assert.Equal(t, 1, s.Level)
	assert.Equal(t, 1, s.Day)
}

func TestValidateState(t *testing.T) {
	// Test case 1: a fresh state passes
	data, _ := json.Marshal(testState("p1", 1))
	assert.NoError(t, ValidateState(data))

	// Test case 2: heat above the cap is rejected
	bad := testState("p1", 1)
	bad.PersonalHeat = 101
	data, _ = json.Marshal(bad)
	assert.Error(t, ValidateState(data))

	// Test case 3: negative money is rejected
	bad = testState("p1", 1)
	bad.Money = -1
	data, _ = json.Marshal(bad)
	assert.Error(t, ValidateState(data))

	// Test case 4: envelope without state is rejected
	assert.Error(t, ValidateSnapshot([]byte(`{"version":1,"playerId":"p1"}`)))
}

func TestFileStore(t *testing.T) {
	// Setup
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	defer fs.Close()

	// Test case 1: missing slot
	_, err = fs.LoadSnapshot(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Test case 2: round trip
	snap, err := NewSnapshot(testState("p1", 4), time.Now())
	require.NoError(t, err)
	require.NoError(t, fs.SaveSnapshot(ctx, snap))

	loaded, err := fs.LoadSnapshot(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, snap.Checksum, loaded.Checksum)
	assert.Equal(t, 4, loaded.State.Day)

	ids, err := fs.PlayerIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)

	// Test case 3: path traversal ids are refused
	bad, _ := NewSnapshot(testState("../evil", 1), time.Now())
	assert.Error(t, fs.SaveSnapshot(ctx, bad))

	// Test case 4: delete
	require.NoError(t, fs.DeleteSnapshot("p1"))
	_, err = fs.LoadSnapshot(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

type countingSaver struct {
	mu    sync.Mutex
	saves []*types.Snapshot
}

func (c *countingSaver) SaveSnapshot(_ context.Context, snap *types.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves = append(c.saves, snap)
	return nil
}

func (c *countingSaver) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.saves)
}

func TestAutosaverDebounce(t *testing.T) {
	// Setup
	saver := &countingSaver{}
	a := NewAutosaver(saver, 50*time.Millisecond, nil)

	// Test case 1: a burst collapses into one write of the latest state
	for day := 1; day <= 5; day++ {
		a.Schedule(testState("p1", day))
	}
	assert.Eventually(t, func() bool { return saver.count() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, saver.count())
	assert.Equal(t, 5, saver.saves[0].Day)

	// Test case 2: close flushes what is pending
	a.Schedule(testState("p1", 6))
	require.NoError(t, a.Close(context.Background()))
	assert.Equal(t, 2, saver.count())
	assert.Equal(t, 6, saver.saves[1].Day)

	// Test case 3: nothing is accepted after close
	a.Schedule(testState("p1", 7))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, saver.count())
}
