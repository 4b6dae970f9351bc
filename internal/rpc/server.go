package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
)

// Operations served besides the server-authoritative actions
const (
	OpInitPlayer = "init_player"
	OpGetState   = "get_state"
	OpSaveState  = "save_state"
	OpLoadState  = "load_state"
)

const requestTimeout = 60 * time.Second

// GameManager is the authoritative state owner behind the endpoint
type GameManager interface {
	RegisterPlayer(ctx context.Context, name, phone string) (*types.WorldState, error)
	GetState(playerID string) (*types.WorldState, error)
	Apply(ctx context.Context, playerID string, action types.Action) (game.Result, error)
	LoadSnapshot(ctx context.Context, playerID string) (*types.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap *types.Snapshot) (bool, *types.Snapshot, error)
}

// Server exposes a GameManager over POST /rpc/{op}
type Server struct {
	gameManager GameManager
	tokens      *TokenIssuer
	throttle    *throttle
	hub         *Hub
	Logger      *zap.Logger
}

// NewServer creates the endpoint. hub may be nil to disable the state feed.
func NewServer(cfg config.Config, gm GameManager, hub *Hub) *Server {
	return &Server{
		gameManager: gm,
		tokens:      NewTokenIssuer(cfg.Auth.JWTSecret, cfg.TokenTTL()),
		throttle:    newThrottle(cfg.Server.RateLimit, cfg.Server.RateBurst),
		hub:         hub,
		Logger:      zap.NewNop(),
	}
}

// Tokens returns the issuer used to authenticate players
func (s *Server) Tokens() *TokenIssuer { return s.tokens }

// Routes mounts the endpoint on a fresh router
func (s *Server) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	router.With(middleware.Timeout(requestTimeout)).Post("/rpc/"+OpInitPlayer, s.handleInitPlayer)

	router.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.With(middleware.Timeout(requestTimeout)).Post("/rpc/{op}", s.handleOp)
		if s.hub != nil {
			r.Get("/ws", s.hub.ServeWS)
		}
	})
	return router
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.respond(w, http.StatusUnauthorized, false, "missing token", nil)
			return
		}
		playerID, err := s.tokens.Verify(token)
		if err != nil {
			s.Logger.Debug("Rejected token", zap.String("path", r.URL.Path), zap.Error(err))
			s.respond(w, http.StatusUnauthorized, false, "invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPlayer(r.Context(), playerID)))
	})
}

func (s *Server) handleInitPlayer(w http.ResponseWriter, r *http.Request) {
	if !s.throttle.allow("addr:" + remoteHost(r)) {
		s.respond(w, http.StatusTooManyRequests, false, "too many requests", nil)
		return
	}
	req, ok := s.decode(w, r)
	if !ok {
		return
	}
	var init types.InitPlayerRequest
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &init); err != nil {
			s.respond(w, http.StatusBadRequest, false, "invalid payload", nil)
			return
		}
	}

	state, err := s.gameManager.RegisterPlayer(r.Context(), init.Name, init.Phone)
	switch {
	case errors.Is(err, game.ErrPlayerExists):
		s.respond(w, http.StatusConflict, false, "player already exists", nil)
		return
	case err != nil:
		s.Logger.Warn("Failed to register player", zap.Error(err))
		s.respond(w, http.StatusBadRequest, false, err.Error(), nil)
		return
	}

	token, err := s.tokens.Issue(state.PlayerID)
	if err != nil {
		s.Logger.Error("Failed to issue token", zap.String("player_id", state.PlayerID), zap.Error(err))
		s.respond(w, http.StatusInternalServerError, false, "internal error", nil)
		return
	}
	s.Logger.Info("Player initialized", zap.String("player_id", state.PlayerID))
	s.respond(w, http.StatusOK, true, "ok", types.InitPlayerData{
		PlayerID: state.PlayerID,
		Token:    token,
		State:    state,
	})
}

func (s *Server) handleOp(w http.ResponseWriter, r *http.Request) {
	playerID, _ := PlayerFromContext(r.Context())
	op := chi.URLParam(r, "op")
	if !s.throttle.allow(playerID) {
		s.respond(w, http.StatusTooManyRequests, false, "too many requests", nil)
		return
	}
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	switch op {
	case OpGetState:
		state, err := s.gameManager.GetState(playerID)
		if err != nil {
			s.fail(w, playerID, op, err)
			return
		}
		s.respond(w, http.StatusOK, true, "ok", state)
	case OpLoadState:
		snap, err := s.gameManager.LoadSnapshot(r.Context(), playerID)
		if err != nil {
			s.fail(w, playerID, op, err)
			return
		}
		s.respond(w, http.StatusOK, true, "ok", snap)
	case OpSaveState:
		s.saveState(w, r, playerID, req.Payload)
	default:
		s.perform(w, r, playerID, op, req.Payload)
	}
}

func (s *Server) perform(w http.ResponseWriter, r *http.Request, playerID, op string, payload json.RawMessage) {
	actionType, ok := game.ActionForOp(op)
	if !ok {
		s.respond(w, http.StatusNotFound, false, "unknown operation", nil)
		return
	}

	res, err := s.gameManager.Apply(r.Context(), playerID, types.Action{Type: actionType, Payload: payload})
	if err != nil {
		s.fail(w, playerID, op, err)
		return
	}
	result := types.OpResult{
		Applied:       res.Changed,
		Fields:        game.ServerFieldsOf(res.State),
		Notifications: res.Notifications,
	}
	if !res.Changed {
		s.respond(w, http.StatusOK, false, "action rejected", result)
		return
	}
	s.respond(w, http.StatusOK, true, "ok", result)
}

func (s *Server) saveState(w http.ResponseWriter, r *http.Request, playerID string, payload json.RawMessage) {
	if len(payload) == 0 {
		s.respond(w, http.StatusBadRequest, false, "missing snapshot", nil)
		return
	}
	if err := storage.ValidateSnapshot(payload); err != nil {
		s.respond(w, http.StatusUnprocessableEntity, false, err.Error(), nil)
		return
	}
	snap, err := storage.Decode(payload)
	if err != nil {
		s.respond(w, http.StatusUnprocessableEntity, false, err.Error(), nil)
		return
	}
	if snap.PlayerID != "" && snap.PlayerID != playerID {
		s.respond(w, http.StatusForbidden, false, "snapshot belongs to another player", nil)
		return
	}
	snap.PlayerID = playerID

	accepted, winner, err := s.gameManager.SaveSnapshot(r.Context(), snap)
	if err != nil {
		s.fail(w, playerID, OpSaveState, err)
		return
	}
	message := "saved"
	if !accepted {
		message = "stale"
	}
	s.respond(w, http.StatusOK, true, message, types.SaveStateData{Accepted: accepted, Snapshot: winner})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (types.RPCRequest, bool) {
	var req types.RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respond(w, http.StatusBadRequest, false, "invalid request", nil)
		return req, false
	}
	return req, true
}

func (s *Server) fail(w http.ResponseWriter, playerID, op string, err error) {
	if errors.Is(err, game.ErrPlayerNotFound) {
		s.respond(w, http.StatusNotFound, false, "player not found", nil)
		return
	}
	s.Logger.Error("Operation failed",
		zap.String("player_id", playerID),
		zap.String("op", op),
		zap.Error(err))
	s.respond(w, http.StatusInternalServerError, false, "internal error", nil)
}

func (s *Server) respond(w http.ResponseWriter, status int, success bool, message string, data any) {
	resp := types.RPCResponse{Success: success, Message: message}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			s.Logger.Error("Failed to encode response", zap.Error(err))
			status = http.StatusInternalServerError
			resp = types.RPCResponse{Message: "internal error"}
		} else {
			resp.Data = raw
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
