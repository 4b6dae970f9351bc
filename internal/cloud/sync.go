package cloud

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/vida-loka-empire/internal/interfaces"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
)

// Decision is the outcome of comparing a local and a remote snapshot
type Decision int

const (
	// InSync means neither side is newer
	InSync Decision = iota
	// UseRemote means the remote snapshot replaces the local one
	UseRemote
	// PushLocal means the local snapshot should be uploaded
	PushLocal
)

func (d Decision) String() string {
	switch d {
	case UseRemote:
		return "use_remote"
	case PushLocal:
		return "push_local"
	}
	return "in_sync"
}

// Reconcile picks the newer of two snapshots, whole. Equal checksums are in sync.
func Reconcile(local, remote *types.Snapshot) Decision {
	if local != nil && remote != nil && local.Checksum != "" && local.Checksum == remote.Checksum {
		return InSync
	}
	switch {
	case storage.Newer(remote, local):
		return UseRemote
	case storage.Newer(local, remote):
		return PushLocal
	}
	return InSync
}

// Syncer keeps one player's snapshot in step with a remote store
type Syncer struct {
	remote   interfaces.SnapshotStore
	interval time.Duration
	Logger   *zap.Logger

	mu         sync.Mutex
	lastPushed string
	ticker     *time.Ticker
	stopChan   chan struct{}
	done       chan struct{}
}

// NewSyncer creates a syncer pushing at most once per interval
func NewSyncer(remote interfaces.SnapshotStore, interval time.Duration) *Syncer {
	return &Syncer{
		remote:   remote,
		interval: interval,
		Logger:   zap.NewNop(),
	}
}

// Pull fetches the remote snapshot and reconciles it with local. It returns
// the snapshot that wins and whether that is the remote one. A local
// snapshot that is newer, or has no remote counterpart, is pushed.
func (s *Syncer) Pull(ctx context.Context, playerID string, local *types.Snapshot) (*types.Snapshot, bool, error) {
	remote, err := s.remote.LoadSnapshot(ctx, playerID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return local, false, fmt.Errorf("failed to pull snapshot: %w", err)
	}

	decision := Reconcile(local, remote)
	s.Logger.Debug("Reconciled snapshot",
		zap.String("player_id", playerID),
		zap.String("decision", decision.String()))

	switch decision {
	case UseRemote:
		s.markPushed(remote.Checksum)
		return remote, true, nil
	case PushLocal:
		if _, err := s.Push(ctx, local); err != nil {
			return local, false, err
		}
	default:
		if local != nil {
			s.markPushed(local.Checksum)
		}
	}
	return local, false, nil
}

// Push uploads snap unless it matches the last pushed checksum. A stale
// rejection is not an error: the remote already holds something newer.
func (s *Syncer) Push(ctx context.Context, snap *types.Snapshot) (bool, error) {
	if snap == nil {
		return false, nil
	}
	s.mu.Lock()
	unchanged := snap.Checksum != "" && snap.Checksum == s.lastPushed
	s.mu.Unlock()
	if unchanged {
		return false, nil
	}

	if err := s.remote.SaveSnapshot(ctx, snap); err != nil {
		if errors.Is(err, ErrStale) {
			s.Logger.Info("Remote snapshot is newer, push skipped",
				zap.String("player_id", snap.PlayerID),
				zap.Int("day", snap.Day))
			return false, nil
		}
		return false, fmt.Errorf("failed to push snapshot: %w", err)
	}
	s.markPushed(snap.Checksum)
	return true, nil
}

func (s *Syncer) markPushed(checksum string) {
	s.mu.Lock()
	s.lastPushed = checksum
	s.mu.Unlock()
}

// Start pushes the snapshot returned by source on every tick until Stop
func (s *Syncer) Start(source func() (*types.Snapshot, error)) {
	if s.interval <= 0 {
		return
	}
	s.mu.Lock()
	if s.ticker != nil {
		s.mu.Unlock()
		return
	}
	s.ticker = time.NewTicker(s.interval)
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	ticker, stop, done := s.ticker, s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-ticker.C:
				s.pushFrom(source)
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()
}

func (s *Syncer) pushFrom(source func() (*types.Snapshot, error)) {
	snap, err := source()
	if err != nil {
		s.Logger.Warn("Failed to build snapshot for push", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()
	if _, err := s.Push(ctx, snap); err != nil {
		s.Logger.Warn("Periodic push failed",
			zap.String("player_id", playerOf(snap)),
			zap.Error(err))
	}
}

// Stop halts the periodic push and waits for the loop to exit
func (s *Syncer) Stop() {
	s.mu.Lock()
	stop, done := s.stopChan, s.done
	s.ticker = nil
	s.stopChan = nil
	s.done = nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func playerOf(snap *types.Snapshot) string {
	if snap == nil {
		return ""
	}
	return snap.PlayerID
}
