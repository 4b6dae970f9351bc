package storage

import (
	"context"
	"sync"
	"time"

	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
)

// DefaultAutosaveDelay is the quiet period before a pending state is written
const DefaultAutosaveDelay = 2 * time.Second

// Saver persists snapshots
type Saver interface {
	SaveSnapshot(ctx context.Context, snap *types.Snapshot) error
}

// Autosaver debounces state changes into snapshot writes
type Autosaver struct {
	store  Saver
	delay  time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	timer   *time.Timer
	pending *types.WorldState
	closed  bool
}

// NewAutosaver creates an autosaver writing to store after delay of inactivity
func NewAutosaver(store Saver, delay time.Duration, logger *zap.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Autosaver{store: store, delay: delay, logger: logger, now: time.Now}
}

// Schedule marks state as the latest to persist and restarts the quiet period
func (a *Autosaver) Schedule(state *types.WorldState) {
	if state == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = state
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, func() {
		if err := a.Flush(context.Background()); err != nil {
			a.logger.Warn("Autosave failed", zap.Error(err))
		}
	})
}

// Flush writes the pending state immediately, if any
func (a *Autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	state := a.pending
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()

	if state == nil {
		return nil
	}
	snap, err := NewSnapshot(state, a.now())
	if err != nil {
		return err
	}
	if err := a.store.SaveSnapshot(ctx, snap); err != nil {
		return err
	}
	a.logger.Debug("Autosaved", zap.String("player_id", snap.PlayerID), zap.Int("day", snap.Day))
	return nil
}

// Close flushes the pending state and stops accepting new ones
func (a *Autosaver) Close(ctx context.Context) error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	return a.Flush(ctx)
}
