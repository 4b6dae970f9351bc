package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
)

// DataLoader handles loading content tables from files
type DataLoader struct {
	basePath string
}

// NewDataLoader creates a new data loader
func NewDataLoader(basePath string) *DataLoader {
	return &DataLoader{
		basePath: basePath,
	}
}

// LoadContent starts from the built-in tables and replaces every table
// that has a matching JSON file in the base path
func (dl *DataLoader) LoadContent() (*Content, error) {
	content := DefaultContent()
	if dl.basePath == "" {
		return content, nil
	}

	tables := map[string]any{
		"goods.json":        &content.Goods,
		"districts.json":    &content.Districts,
		"gear.json":         &content.Gear,
		"vehicles.json":     &content.Vehicles,
		"businesses.json":   &content.Businesses,
		"heists.json":       &content.Heists,
		"factions.json":     &content.Factions,
		"bosses.json":       &content.Bosses,
		"events.json":       &content.PopupEvents,
		"achievements.json": &content.Achievements,
	}
	for name, target := range tables {
		if err := dl.loadTable(name, target); err != nil {
			return nil, err
		}
	}

	return content, nil
}

func (dl *DataLoader) loadTable(name string, target any) error {
	path := filepath.Join(dl.basePath, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return nil
}

// Roller is the random source handed to the simulation
type Roller interface {
	Intn(n int) int
}

// DiceRoller handles dice rolling for the game
type DiceRoller struct {
	rng *rand.Rand
}

// NewDiceRoller creates a new dice roller with a seeded random number generator
func NewDiceRoller() *DiceRoller {
	return NewSeededRoller(time.Now().UnixNano())
}

// NewSeededRoller creates a dice roller with a fixed seed
func NewSeededRoller(seed int64) *DiceRoller {
	return &DiceRoller{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Intn returns a value in [0, n)
func (dr *DiceRoller) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return dr.rng.Intn(n)
}

// Roll rolls a dice with the specified number of sides
func (dr *DiceRoller) Roll(sides int) int {
	return roll(dr, sides)
}

func roll(r Roller, sides int) int {
	if sides <= 0 {
		return 0
	}
	return r.Intn(sides) + 1
}

// chance rolls a d100 against a percentage
func chance(r Roller, pct int) bool {
	if pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	return roll(r, 100) <= pct
}

// between returns a value in [lo, hi]
func between(r Roller, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.Intn(hi-lo+1)
}

// rollerReader adapts a Roller to io.Reader for id generation
type rollerReader struct {
	r Roller
}

func (rr rollerReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(rr.r.Intn(256))
	}
	return len(p), nil
}

// AutoTurnSystem advances the day for players idle longer than the interval
type AutoTurnSystem struct {
	gameManager *GameManager
	idleAfter   time.Duration
	ticker      *time.Ticker
	stopChan    chan struct{}
}

// NewAutoTurnSystem creates a new auto-turn system
func NewAutoTurnSystem(gameManager *GameManager, checkInterval, idleAfter time.Duration) *AutoTurnSystem {
	return &AutoTurnSystem{
		gameManager: gameManager,
		idleAfter:   idleAfter,
		ticker:      time.NewTicker(checkInterval),
		stopChan:    make(chan struct{}),
	}
}

// Start begins the auto-turn loop
func (ats *AutoTurnSystem) Start() {
	go func() {
		for {
			select {
			case <-ats.ticker.C:
				ats.advanceIdlePlayers()
			case <-ats.stopChan:
				ats.ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts the auto-turn loop
func (ats *AutoTurnSystem) Stop() {
	close(ats.stopChan)
}

// advanceIdlePlayers ends the turn for every idle player
func (ats *AutoTurnSystem) advanceIdlePlayers() {
	gm := ats.gameManager
	gm.Logger.Info("Starting auto-turn cycle")

	idle := gm.IdlePlayers(ats.idleAfter)
	gm.Logger.Info("Checking idle players", zap.Int("idle_players", len(idle)))

	for _, playerID := range idle {
		result, err := gm.Apply(context.Background(), playerID, types.NewAction(types.ActionEndTurn, nil))
		if err != nil {
			gm.Logger.Error("Failed to advance idle player",
				zap.String("player_id", playerID),
				zap.Error(err))
			continue
		}
		if !result.Changed {
			gm.Logger.Debug("Idle player turn blocked",
				zap.String("player_id", playerID),
				zap.String("activity", string(result.State.Activity())))
			continue
		}

		gm.Logger.Info("Advanced idle player",
			zap.String("player_id", playerID),
			zap.Int("day", result.State.Day),
			zap.Int("money", result.State.Money),
			zap.Int("heat", result.State.Heat))

		msg := fmt.Sprintf("⏰ Você ficou parado e o dia virou. Agora é o dia %d.", result.State.Day)
		if err := gm.SendMessage(playerID, msg); err != nil {
			gm.Logger.Debug("Idle player not notified",
				zap.String("player_id", playerID),
				zap.Error(err))
		}
	}

	gm.Logger.Info("Completed auto-turn cycle")
}
