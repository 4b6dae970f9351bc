package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/game"
	"github.com/user/vida-loka-empire/internal/rpc"
	"github.com/user/vida-loka-empire/internal/session"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sim plays one action against a local save, routing server-authoritative
// operations to the backend when one is configured.
func main() {
	configPath := flag.String("config", "./config/config.json", "Path to configuration file")
	playerID := flag.String("player", "", "Player id, empty registers a new player")
	name := flag.String("name", "Jogador", "Player name for new games")
	phone := flag.String("phone", "", "Phone number to link on registration")
	token := flag.String("token", os.Getenv("VIDALOKA_TOKEN"), "Bearer token for the backend")
	actionType := flag.String("action", "END_TURN", "Action type to dispatch")
	payload := flag.String("payload", "", "Action payload as JSON")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := logConfig.Build()
	defer logger.Sync()

	if err := run(cfg, logger, options{
		playerID: *playerID,
		name:     *name,
		phone:    *phone,
		token:    *token,
		action:   *actionType,
		payload:  *payload,
	}); err != nil {
		logger.Fatal("Simulation failed", zap.Error(err))
	}
}

type options struct {
	playerID string
	name     string
	phone    string
	token    string
	action   string
	payload  string
}

func run(cfg config.Config, logger *zap.Logger, opts options) error {
	ctx := context.Background()

	local, err := storage.NewFileStore(cfg.Game.SaveDir)
	if err != nil {
		return err
	}
	defer local.Close()

	var client *rpc.Client
	if cfg.Sync.BackendURL != "" {
		client = rpc.NewClient(cfg.Sync.BackendURL, cfg.RequestTimeout())
		client.Logger = logger
		client.SetToken(opts.token)
		if opts.playerID == "" {
			data, err := client.InitPlayer(ctx, opts.name, opts.phone)
			if err != nil {
				return fmt.Errorf("register player: %w", err)
			}
			opts.playerID = data.PlayerID
			logger.Info("Registered player",
				zap.String("player_id", data.PlayerID),
				zap.String("token", data.Token))
		}
	}
	if opts.playerID == "" {
		opts.playerID = uuid.New().String()
	}

	content, err := game.NewDataLoader(cfg.Game.ContentDir).LoadContent()
	if err != nil {
		return err
	}
	tuning := game.DefaultTuning()
	if cfg.Game.TuningPath != "" {
		if tuning, err = game.LoadTuning(cfg.Game.TuningPath); err != nil {
			return err
		}
	}

	s := session.New(cfg, opts.playerID, local, content, tuning)
	s.Logger = logger
	if client != nil {
		s.SetRemote(client)
		s.SetCloud(client, cfg.SyncInterval())
	}
	if err := s.Start(ctx, opts.name); err != nil {
		return err
	}
	defer s.Close(ctx)

	action := types.Action{Type: types.ActionType(strings.ToUpper(opts.action))}
	if opts.payload != "" {
		action.Payload = json.RawMessage(opts.payload)
	}
	res, err := s.Perform(ctx, action)
	if err != nil {
		return err
	}

	printResult(opts.playerID, action, res)
	return nil
}

func printResult(playerID string, action types.Action, res game.Result) {
	state := res.State
	status := "applied"
	if !res.Changed {
		status = "rejected"
	}
	fmt.Printf("%s %s (%s)\n", action.Type, status, playerID)
	fmt.Printf("day %d | %s | R$ %s clean, R$ %s dirty | heat %d | %s\n",
		state.Day, state.District,
		humanize.Comma(int64(state.Money)), humanize.Comma(int64(state.DirtyMoney)),
		state.Heat, state.Activity())
	for _, n := range res.Notifications {
		fmt.Printf("  [%s] %s: %s\n", n.Kind, n.Title, n.Body)
	}
	if ev := state.PendingEvent; ev != nil {
		fmt.Printf("event: %s\n", ev.Description)
		for i, c := range ev.Choices {
			fmt.Printf("  %d) %s\n", i, c)
		}
	}
}
