package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/user/vida-loka-empire/internal/types"
)

// ErrNotFound is returned when no snapshot exists for a player
var ErrNotFound = errors.New("snapshot not found")

const slotExt = ".sav.zst"

// FileStore keeps one zstd-compressed snapshot slot per player on disk
type FileStore struct {
	dir       string
	stateLock sync.RWMutex
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	return &FileStore{dir: dir, enc: enc, dec: dec}, nil
}

func (fs *FileStore) slotPath(playerID string) (string, error) {
	if playerID == "" || strings.ContainsAny(playerID, `/\`) || strings.HasPrefix(playerID, ".") {
		return "", fmt.Errorf("invalid player id %q", playerID)
	}
	return filepath.Join(fs.dir, playerID+slotExt), nil
}

// SaveSnapshot writes the snapshot into the player's slot atomically
func (fs *FileStore) SaveSnapshot(ctx context.Context, snap *types.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := fs.slotPath(snap.PlayerID)
	if err != nil {
		return err
	}
	data, err := Encode(snap)
	if err != nil {
		return err
	}

	fs.stateLock.Lock()
	defer fs.stateLock.Unlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, fs.enc.EncodeAll(data, nil), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads and migrates the player's slot
func (fs *FileStore) LoadSnapshot(ctx context.Context, playerID string) (*types.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := fs.slotPath(playerID)
	if err != nil {
		return nil, err
	}

	fs.stateLock.RLock()
	compressed, err := os.ReadFile(path)
	fs.stateLock.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	data, err := fs.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	return Decode(data)
}

// DeleteSnapshot removes the player's slot
func (fs *FileStore) DeleteSnapshot(playerID string) error {
	path, err := fs.slotPath(playerID)
	if err != nil {
		return err
	}
	fs.stateLock.Lock()
	defer fs.stateLock.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// PlayerIDs lists every player with a slot on disk
func (fs *FileStore) PlayerIDs() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if name := e.Name(); !e.IsDir() && strings.HasSuffix(name, slotExt) {
			ids = append(ids, strings.TrimSuffix(name, slotExt))
		}
	}
	return ids, nil
}

// Close releases the codec resources
func (fs *FileStore) Close() error {
	fs.dec.Close()
	return fs.enc.Close()
}

// MemoryStore keeps encoded snapshots in memory
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// SaveSnapshot stores an encoded copy of the snapshot
func (ms *MemoryStore) SaveSnapshot(_ context.Context, snap *types.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	ms.mu.Lock()
	ms.slots[snap.PlayerID] = data
	ms.mu.Unlock()
	return nil
}

// LoadSnapshot decodes the stored copy
func (ms *MemoryStore) LoadSnapshot(_ context.Context, playerID string) (*types.Snapshot, error) {
	ms.mu.RLock()
	data, ok := ms.slots[playerID]
	ms.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return Decode(data)
}
