package game

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/interfaces"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
)

var (
	// ErrPlayerNotFound is returned for unknown player ids or phones
	ErrPlayerNotFound = errors.New("player not found")
	// ErrPlayerExists is returned when a phone is already registered
	ErrPlayerExists = errors.New("player already registered")
)

type playerSlot struct {
	state      *types.WorldState
	phone      string
	snapshot   *types.Snapshot
	lastActive time.Time
}

// GameManager owns the authoritative state of every player
type GameManager struct {
	players       map[string]*playerSlot
	phones        map[string]string
	stateLock     sync.RWMutex
	store         interfaces.SnapshotStore
	config        config.Config
	Logger        *zap.Logger
	content       *Content
	tuning        *Tuning
	diceRoller    Roller
	newID         func() string
	now           func() time.Time
	messageSender interfaces.MessageSender
	listeners     []interfaces.StateListener
}

// NewGameManager creates a new game manager backed by store
func NewGameManager(cfg config.Config, store interfaces.SnapshotStore, content *Content, tuning *Tuning) *GameManager {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	if content == nil {
		content = DefaultContent()
	}
	if tuning == nil {
		tuning = DefaultTuning()
	}
	var dice *DiceRoller
	if cfg.Game.Seed != 0 {
		dice = NewSeededRoller(cfg.Game.Seed)
	} else {
		dice = NewDiceRoller()
	}

	return &GameManager{
		players:    make(map[string]*playerSlot),
		phones:     make(map[string]string),
		store:      store,
		config:     cfg,
		Logger:     zap.NewNop(), // Will be set by the server
		content:    content,
		tuning:     tuning,
		diceRoller: dice,
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
}

// Content returns the static content tables
func (gm *GameManager) Content() *Content { return gm.content }

// Tuning returns the balance constants
func (gm *GameManager) Tuning() *Tuning { return gm.tuning }

// SetMessageSender sets the phone notification relay
func (gm *GameManager) SetMessageSender(sender interfaces.MessageSender) {
	gm.messageSender = sender
}

// AddListener subscribes to committed state changes
func (gm *GameManager) AddListener(l interfaces.StateListener) {
	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()
	gm.listeners = append(gm.listeners, l)
}

func normalizePhone(phone string) string {
	return strings.TrimPrefix(strings.TrimSpace(phone), "+")
}

// RegisterPlayer creates a fresh world for a new player
func (gm *GameManager) RegisterPlayer(ctx context.Context, name, phone string) (*types.WorldState, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("player name is required")
	}
	phone = normalizePhone(phone)

	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	if phone != "" {
		if _, exists := gm.phones[phone]; exists {
			return nil, ErrPlayerExists
		}
	}

	state := NewWorldState(gm.newID(), name, gm.content, gm.tuning)
	snap, err := gm.persist(ctx, state)
	if err != nil {
		return nil, err
	}

	if dir, ok := gm.store.(interfaces.PlayerDirectory); ok {
		if err := dir.SavePlayer(ctx, state.PlayerID, name, phone); err != nil {
			return nil, fmt.Errorf("failed to record player: %w", err)
		}
	}

	gm.players[state.PlayerID] = &playerSlot{state: state, phone: phone, snapshot: snap, lastActive: gm.now()}
	if phone != "" {
		gm.phones[phone] = state.PlayerID
	}

	gm.Logger.Info("Registered player",
		zap.String("player_id", state.PlayerID),
		zap.String("name", name))
	return state, nil
}

// Restore loads a persisted player into memory
func (gm *GameManager) Restore(ctx context.Context, playerID, phone string) error {
	snap, err := gm.store.LoadSnapshot(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to restore player %s: %w", playerID, err)
	}
	phone = normalizePhone(phone)

	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()
	gm.players[playerID] = &playerSlot{state: snap.State, phone: phone, snapshot: snap, lastActive: gm.now()}
	if phone != "" {
		gm.phones[phone] = playerID
	}
	return nil
}

// GetState returns the authoritative state of a player
func (gm *GameManager) GetState(playerID string) (*types.WorldState, error) {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	slot, exists := gm.players[playerID]
	if !exists {
		return nil, ErrPlayerNotFound
	}
	return slot.state, nil
}

// PlayerByPhone resolves a phone number to a player id
func (gm *GameManager) PlayerByPhone(phone string) (string, error) {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	id, exists := gm.phones[normalizePhone(phone)]
	if !exists {
		return "", ErrPlayerNotFound
	}
	return id, nil
}

// Apply runs an action against a player's state and persists the result.
// A failed save leaves the previous state in place.
func (gm *GameManager) Apply(ctx context.Context, playerID string, action types.Action) (Result, error) {
	gm.stateLock.Lock()
	slot, exists := gm.players[playerID]
	if !exists {
		gm.stateLock.Unlock()
		return Result{}, ErrPlayerNotFound
	}

	now := gm.now()
	res := Dispatch(slot.state, action, Env{
		Rng:     gm.diceRoller,
		Now:     now,
		Content: gm.content,
		Tuning:  gm.tuning,
	})
	if !res.Changed {
		gm.stateLock.Unlock()
		return res, nil
	}

	snap, err := gm.persist(ctx, res.State)
	if err != nil {
		gm.stateLock.Unlock()
		return Result{State: slot.state}, err
	}
	slot.state = res.State
	slot.snapshot = snap
	slot.lastActive = now
	phone := slot.phone
	listeners := slices.Clone(gm.listeners)
	gm.stateLock.Unlock()

	gm.Logger.Debug("Applied action",
		zap.String("player_id", playerID),
		zap.String("action", string(action.Type)),
		zap.Int("day", res.State.Day))

	for _, l := range listeners {
		l.StateChanged(playerID, action.Type, res.State)
	}
	gm.relayNotifications(phone, res.Notifications)
	return res, nil
}

func (gm *GameManager) persist(ctx context.Context, state *types.WorldState) (*types.Snapshot, error) {
	snap, err := storage.NewSnapshot(state, gm.now())
	if err != nil {
		return nil, err
	}
	if err := gm.store.SaveSnapshot(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return snap, nil
}

// LoadSnapshot returns the newest known snapshot of a player
func (gm *GameManager) LoadSnapshot(ctx context.Context, playerID string) (*types.Snapshot, error) {
	gm.stateLock.RLock()
	slot, exists := gm.players[playerID]
	gm.stateLock.RUnlock()
	if exists {
		return slot.snapshot, nil
	}

	snap, err := gm.store.LoadSnapshot(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrPlayerNotFound
	}
	return snap, err
}

// SaveSnapshot accepts a client snapshot only when it is strictly newer
// than the authoritative one. It returns whether it was taken and the
// snapshot that now wins.
func (gm *GameManager) SaveSnapshot(ctx context.Context, snap *types.Snapshot) (bool, *types.Snapshot, error) {
	if snap == nil || snap.State == nil {
		return false, nil, errors.New("snapshot has no state")
	}

	gm.stateLock.Lock()
	defer gm.stateLock.Unlock()

	slot, exists := gm.players[snap.PlayerID]
	if !exists {
		return false, nil, ErrPlayerNotFound
	}
	if !storage.Newer(snap, slot.snapshot) {
		return false, slot.snapshot, nil
	}

	state := snap.State
	state.PlayerID = snap.PlayerID
	storage.Normalize(state)
	accepted, err := storage.NewSnapshot(state, snap.SavedAt)
	if err != nil {
		return false, nil, err
	}
	if err := gm.store.SaveSnapshot(ctx, accepted); err != nil {
		return false, nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	slot.state = state
	slot.snapshot = accepted
	slot.lastActive = gm.now()

	gm.Logger.Info("Accepted client snapshot",
		zap.String("player_id", snap.PlayerID),
		zap.Int("day", accepted.Day))
	return true, accepted, nil
}

// IdlePlayers lists players inactive for at least d whose game is not over
func (gm *GameManager) IdlePlayers(d time.Duration) []string {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	now := gm.now()
	var idle []string
	for id, slot := range gm.players {
		if slot.state.GameOver || now.Sub(slot.lastActive) < d {
			continue
		}
		idle = append(idle, id)
	}
	slices.Sort(idle)
	return idle
}

// AllPlayers lists every loaded player id
func (gm *GameManager) AllPlayers() []string {
	gm.stateLock.RLock()
	defer gm.stateLock.RUnlock()

	ids := make([]string, 0, len(gm.players))
	for id := range gm.players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SendMessage sends a message to a player's phone
func (gm *GameManager) SendMessage(playerID string, message string) error {
	if gm.messageSender == nil {
		return errors.New("message sender not configured")
	}

	gm.stateLock.RLock()
	slot, exists := gm.players[playerID]
	gm.stateLock.RUnlock()
	if !exists {
		return ErrPlayerNotFound
	}
	if slot.phone == "" {
		return fmt.Errorf("player %s has no phone", playerID)
	}

	_, err := gm.messageSender.SendMessage(slot.phone, slot.phone, message)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (gm *GameManager) relayNotifications(phone string, notes []types.Notification) {
	if gm.messageSender == nil || phone == "" {
		return
	}
	for _, n := range notes {
		if n.Kind != types.NotifyPhone {
			continue
		}
		msg := n.Title
		if n.Body != "" {
			msg = fmt.Sprintf("*%s*\n%s", n.Title, n.Body)
		}
		if _, err := gm.messageSender.SendMessage(phone, phone, msg); err != nil {
			gm.Logger.Warn("Failed to relay notification",
				zap.String("phone", phone),
				zap.Error(err))
		}
	}
}
