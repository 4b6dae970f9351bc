package rpc

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
)

const (
	writeWait   = 5 * time.Second
	readWait    = 60 * time.Second
	pingPeriod  = 50 * time.Second
	sendBacklog = 16
)

// Hub fans state summaries out to websocket subscribers of each player
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
	upgrader    websocket.Upgrader
	Logger      *zap.Logger
}

type subscriber struct {
	send chan []byte
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		Logger: zap.NewNop(),
	}
}

// Summarize reduces a state to what the feed pushes
func Summarize(playerID string, action types.ActionType, state *types.WorldState) types.StateSummary {
	op, ok := game.ServerOp(action)
	if !ok {
		op = strings.ToLower(string(action))
	}
	return types.StateSummary{
		PlayerID: playerID,
		Day:      state.Day,
		Money:    state.Money,
		Heat:     state.Heat,
		District: state.District,
		Activity: string(state.Activity()),
		Op:       op,
	}
}

// StateChanged implements interfaces.StateListener
func (h *Hub) StateChanged(playerID string, action types.ActionType, state *types.WorldState) {
	if state == nil {
		return
	}
	data, err := json.Marshal(Summarize(playerID, action, state))
	if err != nil {
		h.Logger.Error("Failed to encode state summary", zap.String("player_id", playerID), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers[playerID] {
		select {
		case sub.send <- data:
		default:
			h.Logger.Warn("Dropping state summary for slow subscriber", zap.String("player_id", playerID))
		}
	}
}

// Subscribers counts the open feeds of a player
func (h *Hub) Subscribers(playerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[playerID])
}

func (h *Hub) subscribe(playerID string) *subscriber {
	sub := &subscriber{send: make(chan []byte, sendBacklog)}
	h.mu.Lock()
	if h.subscribers[playerID] == nil {
		h.subscribers[playerID] = make(map[*subscriber]struct{})
	}
	h.subscribers[playerID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(playerID string, sub *subscriber) {
	h.mu.Lock()
	delete(h.subscribers[playerID], sub)
	if len(h.subscribers[playerID]) == 0 {
		delete(h.subscribers, playerID)
	}
	h.mu.Unlock()
}

// ServeWS upgrades an authenticated request into a state feed
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID, ok := PlayerFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("Websocket upgrade failed", zap.String("player_id", playerID), zap.Error(err))
		return
	}
	defer conn.Close()

	sub := h.subscribe(playerID)
	defer h.unsubscribe(playerID, sub)
	h.Logger.Info("State feed opened", zap.String("player_id", playerID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			h.Logger.Info("State feed closed", zap.String("player_id", playerID))
			return
		case data := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
