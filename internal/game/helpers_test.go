package game

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/user/vida-loka-empire/internal/types"
)

// fixedRoller always rolls the same face, capped to the die size.
// fixedRoller(0) makes every chance succeed, fixedRoller(99) makes every chance below 100 fail.
type fixedRoller int

func (f fixedRoller) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return min(int(f), n-1)
}

// seqRoller replays faces in order and then repeats the last one
type seqRoller struct {
	faces []int
	pos   int
}

func (s *seqRoller) Intn(n int) int {
	if n <= 0 || len(s.faces) == 0 {
		return 0
	}
	face := s.faces[min(s.pos, len(s.faces)-1)]
	s.pos++
	return min(face, n-1)
}

var testNow = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)

func testEnv(r Roller) Env {
	next := 0
	return Env{
		Rng: r,
		Now: testNow,
		NewID: func() string {
			next++
			return fmt.Sprintf("id-%d", next)
		},
		Content: DefaultContent(),
		Tuning:  DefaultTuning(),
	}
}

func newTestState() *types.WorldState {
	return NewWorldState("player-1", "Zé", DefaultContent(), DefaultTuning())
}

func act(t types.ActionType, payload any) types.Action {
	return types.NewAction(t, payload)
}

// snapshotJSON captures a state so tests can prove it was not modified
func snapshotJSON(t *testing.T, s *types.WorldState) string {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	return string(data)
}

// run dispatches a sequence of actions and returns the final state
func run(t *testing.T, s *types.WorldState, env Env, actions ...types.Action) *types.WorldState {
	t.Helper()
	for _, a := range actions {
		s = Dispatch(s, a, env).State
	}
	return s
}
