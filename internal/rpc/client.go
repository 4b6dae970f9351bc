package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/user/vida-loka-empire/internal/cloud"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
)

// ErrUnavailable marks transport failures and server-side errors
var ErrUnavailable = errors.New("backend unavailable")

// StatusError is a non-success reply the backend answered deliberately
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Client calls a remote Server. It also serves as the cloud snapshot store
// of a client session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	Logger     *zap.Logger

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		Logger:     zap.NewNop(),
	}
}

// SetToken sets the bearer token sent with every call
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// InitPlayer registers a player and keeps the issued token
func (c *Client) InitPlayer(ctx context.Context, name, phone string) (*types.InitPlayerData, error) {
	var data types.InitPlayerData
	if _, err := c.call(ctx, OpInitPlayer, types.InitPlayerRequest{Name: name, Phone: phone}, &data); err != nil {
		return nil, err
	}
	c.SetToken(data.Token)
	return &data, nil
}

// Perform runs a server-authoritative operation. A rejected action is not an
// error: the result reports Applied false with the current fields.
func (c *Client) Perform(ctx context.Context, op string, payload json.RawMessage) (*types.OpResult, error) {
	var result types.OpResult
	if _, err := c.call(ctx, op, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetState fetches the authoritative state
func (c *Client) GetState(ctx context.Context) (*types.WorldState, error) {
	var state types.WorldState
	if _, err := c.call(ctx, OpGetState, nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// LoadSnapshot fetches the backend snapshot of the authenticated player
func (c *Client) LoadSnapshot(ctx context.Context, playerID string) (*types.Snapshot, error) {
	resp, err := c.call(ctx, OpLoadState, nil, nil)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return nil, storage.ErrNotFound
	}
	snap, err := storage.Decode(resp.Data)
	if err != nil {
		return nil, err
	}
	if snap.PlayerID != playerID {
		c.Logger.Warn("Backend snapshot belongs to another player",
			zap.String("player_id", playerID),
			zap.String("snapshot_player_id", snap.PlayerID))
	}
	return snap, nil
}

// SaveSnapshot uploads a snapshot. A snapshot the backend refuses as older
// than its own returns cloud.ErrStale.
func (c *Client) SaveSnapshot(ctx context.Context, snap *types.Snapshot) error {
	payload, err := storage.Encode(snap)
	if err != nil {
		return err
	}
	var data types.SaveStateData
	if _, err := c.call(ctx, OpSaveState, json.RawMessage(payload), &data); err != nil {
		return err
	}
	if !data.Accepted {
		return cloud.ErrStale
	}
	return nil
}

func (c *Client) call(ctx context.Context, op string, payload any, out any) (*types.RPCResponse, error) {
	var req types.RPCRequest
	if payload != nil {
		raw, ok := payload.(json.RawMessage)
		if !ok {
			encoded, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to encode payload: %w", err)
			}
			raw = encoded
		}
		req.Payload = raw
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+op, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	var resp types.RPCResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s response: %w", ErrUnavailable, op, err)
	}
	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.Message)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: httpResp.StatusCode, Message: resp.Message}
	}

	if out != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode %s data: %w", op, err)
		}
	}
	c.Logger.Debug("Backend call",
		zap.String("op", op),
		zap.Bool("success", resp.Success))
	return &resp, nil
}
