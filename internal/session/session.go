package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/cloud"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/interfaces"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
)

// Remote runs server-authoritative operations
type Remote interface {
	Perform(ctx context.Context, op string, payload json.RawMessage) (*types.OpResult, error)
}

// ErrNotStarted is returned when a session is used before Start
var ErrNotStarted = errors.New("session not started")

// Offline is the notification raised when the backend cannot be reached
var Offline = types.Notification{
	Kind:  types.NotifyToast,
	Title: "Sem conexão",
	Body:  "Servidor fora do ar. A jogada valeu só neste aparelho.",
}

// Session owns one player's state on the client. Every state change goes
// through it, one at a time.
type Session struct {
	playerID string
	local    interfaces.SnapshotStore
	remote   Remote
	syncer   *cloud.Syncer
	saver    *storage.Autosaver
	content  *game.Content
	tuning   *game.Tuning
	timeout  time.Duration
	delay    time.Duration
	Logger   *zap.Logger

	now func() time.Time

	mu    sync.Mutex
	rng   game.Roller
	state *types.WorldState
}

// New creates a session persisting to local. Content and tuning fall back to
// the built-in tables when nil.
func New(cfg config.Config, playerID string, local interfaces.SnapshotStore, content *game.Content, tuning *game.Tuning) *Session {
	if content == nil {
		content = game.DefaultContent()
	}
	if tuning == nil {
		tuning = game.DefaultTuning()
	}
	var rng game.Roller
	if cfg.Game.Seed != 0 {
		rng = game.NewSeededRoller(cfg.Game.Seed)
	} else {
		rng = game.NewDiceRoller()
	}
	return &Session{
		playerID: playerID,
		local:    local,
		content:  content,
		tuning:   tuning,
		timeout:  cfg.RequestTimeout(),
		delay:    cfg.AutosaveDelay(),
		Logger:   zap.NewNop(),
		now:      time.Now,
		rng:      rng,
	}
}

// SetRemote routes server-authoritative actions through remote
func (s *Session) SetRemote(remote Remote) {
	s.remote = remote
}

// SetCloud reconciles with a cloud store on Start and pushes to it every interval
func (s *Session) SetCloud(store interfaces.SnapshotStore, interval time.Duration) {
	s.syncer = cloud.NewSyncer(store, interval)
}

// PlayerID returns the id of the session's player
func (s *Session) PlayerID() string { return s.playerID }

// Start loads the local save, reconciles it with the cloud and begins
// periodic pushes. A player with no save anywhere starts a new game as name.
func (s *Session) Start(ctx context.Context, name string) error {
	s.saver = storage.NewAutosaver(s.local, s.delay, s.Logger)
	if s.syncer != nil {
		s.syncer.Logger = s.Logger
	}

	local, err := s.local.LoadSnapshot(ctx, s.playerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load local save: %w", err)
	}

	winner := local
	if s.syncer != nil {
		pulled, fromRemote, err := s.syncer.Pull(ctx, s.playerID, local)
		switch {
		case err != nil:
			s.Logger.Warn("Cloud sync unavailable, playing from local save",
				zap.String("player_id", s.playerID),
				zap.Error(err))
		case fromRemote:
			winner = pulled
			if err := s.local.SaveSnapshot(ctx, pulled); err != nil {
				s.Logger.Warn("Failed to store cloud save locally",
					zap.String("player_id", s.playerID),
					zap.Error(err))
			}
		}
	}

	s.mu.Lock()
	if winner != nil && winner.State != nil {
		state := winner.State
		state.PlayerID = s.playerID
		s.state = state
	} else {
		s.state = game.NewWorldState(s.playerID, name, s.content, s.tuning)
		s.saver.Schedule(s.state)
	}
	day := s.state.Day
	s.mu.Unlock()

	s.Logger.Info("Session started",
		zap.String("player_id", s.playerID),
		zap.Int("day", day),
		zap.Bool("restored", winner != nil))

	if s.syncer != nil {
		s.syncer.Start(s.Snapshot)
	}
	return nil
}

// State returns the current state. Callers must not mutate it.
func (s *Session) State() *types.WorldState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot wraps the current state in a fresh envelope
func (s *Session) Snapshot() (*types.Snapshot, error) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state == nil {
		return nil, ErrNotStarted
	}
	return storage.NewSnapshot(state, s.now())
}

// Dispatch applies an action locally and schedules an autosave
func (s *Session) Dispatch(action types.Action) (game.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(action)
}

func (s *Session) dispatchLocked(action types.Action) (game.Result, error) {
	if s.state == nil {
		return game.Result{}, ErrNotStarted
	}
	res := game.Dispatch(s.state, action, game.Env{
		Rng:     s.rng,
		Now:     s.now(),
		Content: s.content,
		Tuning:  s.tuning,
	})
	if res.Changed {
		s.state = res.State
		s.saver.Schedule(res.State)
	}
	return res, nil
}

// Perform runs an action the way the game expects: server-authoritative
// actions go to the backend and come back as merged fields, everything
// else is dispatched locally. Local progress is pushed to the cloud first. When the backend is unreachable the action
// is dispatched locally and the Offline notification is added.
func (s *Session) Perform(ctx context.Context, action types.Action) (game.Result, error) {
	op, authoritative := game.ServerOp(action.Type)
	if !authoritative || s.remote == nil {
		return s.Dispatch(action)
	}
	if s.State() == nil {
		return game.Result{}, ErrNotStarted
	}

	callCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	s.pushBeforeOp(callCtx, op)
	result, err := s.remote.Perform(callCtx, op, action.Payload)
	cancel()
	if err != nil {
		s.Logger.Warn("Backend call failed, dispatching locally",
			zap.String("player_id", s.playerID),
			zap.String("op", op),
			zap.Error(err))
		res, dispatchErr := s.Dispatch(action)
		if dispatchErr != nil {
			return res, dispatchErr
		}
		res.Notifications = append(res.Notifications, Offline)
		return res, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.dispatchLocked(types.NewAction(types.ActionMergeServerFields, types.MergePayload{Fields: result.Fields}))
	if err != nil {
		return res, err
	}
	res.Changed = res.Changed && result.Applied
	res.Notifications = append(res.Notifications, result.Notifications...)
	return res, nil
}

// pushBeforeOp uploads local progress so the backend applies op to the
// current state rather than its last copy
func (s *Session) pushBeforeOp(ctx context.Context, op string) {
	if s.syncer == nil {
		return
	}
	snap, err := s.Snapshot()
	if err != nil {
		return
	}
	if _, err := s.syncer.Push(ctx, snap); err != nil {
		s.Logger.Warn("Failed to push state before server action",
			zap.String("player_id", s.playerID),
			zap.String("op", op),
			zap.Error(err))
	}
}

// Close stops cloud pushes, flushes the pending autosave and pushes the
// final snapshot once
func (s *Session) Close(ctx context.Context) error {
	if s.syncer != nil {
		s.syncer.Stop()
	}
	if s.saver == nil {
		return nil
	}
	if err := s.saver.Close(ctx); err != nil {
		return fmt.Errorf("failed to flush autosave: %w", err)
	}
	if s.syncer == nil {
		return nil
	}
	snap, err := s.Snapshot()
	if errors.Is(err, ErrNotStarted) {
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.syncer.Push(ctx, snap); err != nil {
		s.Logger.Warn("Final cloud push failed", zap.String("player_id", s.playerID), zap.Error(err))
	}
	return nil
}
