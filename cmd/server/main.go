package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite3 driver for the WhatsApp session store
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/cloud"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/interfaces"
	"github.com/user/vida-loka-empire/internal/rpc"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/whatsapp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up logger
	logger := setupLogger(cfg.Server.LogLevel)
	defer logger.Sync()

	// Load content tables and tuning
	content, tuning, err := loadGameData(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to load game data", zap.Error(err))
	}

	// Open the save store
	ctx := context.Background()
	store, repo, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	// Initialize game manager
	gameManager := game.NewGameManager(cfg, store, content, tuning)
	gameManager.Logger = logger
	restorePlayers(ctx, gameManager, store, repo, logger)

	// Live state feed and RPC routes
	hub := rpc.NewHub()
	hub.Logger = logger
	gameManager.AddListener(hub)

	rpcServer := rpc.NewServer(cfg, gameManager, hub)
	rpcServer.Logger = logger

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Mount("/", rpcServer.Routes())
	if repo != nil {
		router.Get("/leaderboard", leaderboardHandler(repo, logger))
	}

	// WhatsApp relay
	var clientManager *whatsapp.ClientManager
	if cfg.WhatsApp.Enabled {
		clientManager = whatsapp.NewClientManager(gameManager, cfg, logger)
		gameManager.SetMessageSender(clientManager)
		setupWhatsAppRoutes(router, cfg, clientManager, logger)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start HTTP server
	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()

	// Advance idle players
	var autoTurn *game.AutoTurnSystem
	if cfg.Game.AutoTurnInterval > 0 {
		autoTurn = game.NewAutoTurnSystem(gameManager,
			time.Duration(cfg.Game.AutoTurnInterval)*time.Minute,
			time.Duration(cfg.Game.IdleAfter)*time.Minute)
		autoTurn.Start()
	}

	// Wait for shutdown signal
	waitForShutdown(logger)

	if autoTurn != nil {
		autoTurn.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
	if clientManager != nil {
		clientManager.DisconnectAll()
	}
	logger.Info("Shutdown complete")
}

func setupLogger(level string) *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, _ := config.Build()
	return logger
}

func loadGameData(cfg config.Config, logger *zap.Logger) (*game.Content, *game.Tuning, error) {
	content, err := game.NewDataLoader(cfg.Game.ContentDir).LoadContent()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load content: %w", err)
	}
	logger.Info("Loaded content",
		zap.Int("goods", len(content.Goods)),
		zap.Int("districts", len(content.Districts)),
		zap.Int("heists", len(content.Heists)))

	tuning := game.DefaultTuning()
	if cfg.Game.TuningPath != "" {
		tuning, err = game.LoadTuning(cfg.Game.TuningPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load tuning: %w", err)
		}
		logger.Info("Loaded tuning overrides", zap.String("path", cfg.Game.TuningPath))
	}
	return content, tuning, nil
}

// openStore prefers the SQL database, then the save directory, then memory
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (interfaces.SnapshotStore, *cloud.SQLRepository, func()) {
	if cfg.Database.DSN != "" {
		repo, err := cloud.Open(ctx, cfg.Database)
		if err == nil {
			repo.Logger = logger
			logger.Info("Using database store", zap.String("dialect", string(repo.Dialect())))
			return repo, repo, func() { repo.Close() }
		}
		logger.Error("Failed to open database, falling back to save files", zap.Error(err))
	}

	if cfg.Game.SaveDir != "" {
		fileStore, err := storage.NewFileStore(cfg.Game.SaveDir)
		if err == nil {
			logger.Info("Using file store", zap.String("dir", cfg.Game.SaveDir))
			return fileStore, nil, func() { fileStore.Close() }
		}
		logger.Error("Failed to open save directory, keeping saves in memory", zap.Error(err))
	}

	logger.Warn("Saves will not survive a restart")
	return storage.NewMemoryStore(), nil, func() {}
}

// restorePlayers loads every known player into the game manager
func restorePlayers(ctx context.Context, gm *game.GameManager, store interfaces.SnapshotStore, repo *cloud.SQLRepository, logger *zap.Logger) {
	restored := 0
	switch {
	case repo != nil:
		players, err := repo.Players(ctx)
		if err != nil {
			logger.Error("Failed to list players", zap.Error(err))
			return
		}
		for _, p := range players {
			if err := gm.Restore(ctx, p.PlayerID, p.Phone); err != nil {
				logger.Warn("Failed to restore player", zap.String("player_id", p.PlayerID), zap.Error(err))
				continue
			}
			restored++
		}
	default:
		fileStore, ok := store.(*storage.FileStore)
		if !ok {
			return
		}
		ids, err := fileStore.PlayerIDs()
		if err != nil {
			logger.Error("Failed to list saves", zap.Error(err))
			return
		}
		for _, id := range ids {
			if err := gm.Restore(ctx, id, ""); err != nil {
				logger.Warn("Failed to restore player", zap.String("player_id", id), zap.Error(err))
				continue
			}
			restored++
		}
	}
	logger.Info("Restored players", zap.Int("count", restored))
}

func leaderboardHandler(repo *cloud.SQLRepository, logger *zap.Logger) http.HandlerFunc {
	type entry struct {
		PlayerID string `json:"player_id"`
		NetWorth int    `json:"net_worth"`
		Level    int    `json:"level"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		leaders, err := repo.Leaderboard(r.Context(), limit)
		if err != nil {
			logger.Error("Failed to load leaderboard", zap.Error(err))
			http.Error(w, "Failed to load leaderboard", http.StatusInternalServerError)
			return
		}
		out := make([]entry, 0, len(leaders))
		for _, l := range leaders {
			out = append(out, entry{PlayerID: l.PlayerID, NetWorth: l.NetWorth, Level: l.Level})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(out)
	}
}

func setupWhatsAppRoutes(router chi.Router, cfg config.Config, clientManager *whatsapp.ClientManager, logger *zap.Logger) {
	qrManager := whatsapp.NewQRCodeManager(clientManager, cfg, logger)
	sessionManager := whatsapp.NewSessionManager(cfg.WhatsApp.StoreDir, logger)

	// QR code generation endpoint
	router.Post("/qr", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PhoneNumber string `json:"phone_number"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhoneNumber == "" {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
		defer cancel()
		qrCode, err := qrManager.GenerateQRCode(ctx, req.PhoneNumber)
		if err != nil {
			logger.Error("Failed to generate QR code",
				zap.String("phone_number", req.PhoneNumber),
				zap.Error(err))
			http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"request_id": uuid.New().String(),
			"qr_code":    qrCode,
		})
	})

	// Serve QR code images
	qrDir := http.Dir(cfg.WhatsApp.StoreDir + "/qrcodes")
	router.Get("/qrcodes/*", func(w http.ResponseWriter, r *http.Request) {
		http.StripPrefix("/qrcodes/", http.FileServer(qrDir)).ServeHTTP(w, r)
	})

	// Session management endpoints
	router.Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
		sessions, err := sessionManager.ListSessions()
		if err != nil {
			logger.Error("Failed to list sessions", zap.Error(err))
			http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessions)
	})

	router.Delete("/sessions/{phone_number}/{session_id}", func(w http.ResponseWriter, r *http.Request) {
		phoneNumber := chi.URLParam(r, "phone_number")
		sessionID := chi.URLParam(r, "session_id")

		if err := clientManager.Disconnect(phoneNumber); err != nil {
			logger.Debug("No connected client for session", zap.String("phone_number", phoneNumber))
		}

		if err := sessionManager.DeleteSession(phoneNumber, sessionID); err != nil {
			logger.Error("Failed to delete session",
				zap.String("phone_number", phoneNumber),
				zap.String("session_id", sessionID),
				zap.Error(err))
			http.Error(w, "Failed to delete session", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
	})
}

func waitForShutdown(logger *zap.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
}
