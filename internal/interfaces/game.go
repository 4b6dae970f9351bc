package interfaces

import (
	"context"

	"github.com/user/vida-loka-empire/internal/types"
)

// MessageSender defines the interface for sending messages
type MessageSender interface {
	SendMessage(phoneNumber, recipient, message string) (string, error)
}

// SnapshotStore persists whole-state snapshots per player
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, playerID string) (*types.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap *types.Snapshot) error
}

// StateListener is told about every committed authoritative change
type StateListener interface {
	StateChanged(playerID string, action types.ActionType, state *types.WorldState)
}

// PlayerDirectory records who owns a save; stores may implement it
type PlayerDirectory interface {
	SavePlayer(ctx context.Context, playerID, name, phone string) error
}
