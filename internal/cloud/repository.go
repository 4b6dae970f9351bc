package cloud

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/user/vida-loka-empire/config"
	"github.com/user/vida-loka-empire/internal/storage"
	"github.com/user/vida-loka-empire/internal/types"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// ErrStale is returned when a save is older than the stored snapshot
var ErrStale = errors.New("snapshot is older than the stored one")

// Dialect selects the SQL flavour
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// PlayerRecord is a registered player row
type PlayerRecord struct {
	PlayerID  string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// SQLRepository is the cloud save store: one payload row per player plus
// queryable projection tables refreshed on every save.
type SQLRepository struct {
	dialect Dialect
	db      *sql.DB
	Logger  *zap.Logger
}

// Open connects to the configured database and applies pending migrations
func Open(ctx context.Context, cfg config.DatabaseConfig) (*SQLRepository, error) {
	driverRaw := strings.TrimSpace(strings.ToLower(cfg.Driver))
	if driverRaw == "" {
		driverRaw = string(DialectSQLite)
	}

	var dialect Dialect
	var driverName string
	dsn := strings.TrimSpace(cfg.DSN)
	switch driverRaw {
	case "sqlite", "sqlite3":
		dialect = DialectSQLite
		driverName = "sqlite"
		if dsn == "" {
			dsn = filepath.Join("data", "vida-loka.db")
		}
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
	case "postgres", "pgx":
		dialect = DialectPostgres
		driverName = "pgx"
		if dsn == "" {
			return nil, errors.New("postgres driver requires a database dsn")
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	repo := &SQLRepository{dialect: dialect, db: db, Logger: zap.NewNop()}
	if err := repo.applyMigrations(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Dialect reports the SQL flavour in use
func (r *SQLRepository) Dialect() Dialect { return r.dialect }

// Close releases the connection pool
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

func (r *SQLRepository) bind(pos int) string {
	if r.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLRepository) insertQuery(table string, cols []string) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = r.bind(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(cols, ", "),
		strings.Join(ph, ", "),
	)
}

// upsertQuery inserts or replaces the row keyed by player_id
func (r *SQLRepository) upsertQuery(table string, cols []string) string {
	sets := make([]string, 0, len(cols))
	for _, col := range cols {
		if col == "player_id" || col == "created_at" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	return fmt.Sprintf("%s ON CONFLICT (player_id) DO UPDATE SET %s",
		r.insertQuery(table, cols), strings.Join(sets, ", "))
}

func (r *SQLRepository) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	pattern := fmt.Sprintf("migrations/%s/*.sql", r.dialect)
	files, err := fs.Glob(migrationFS, pattern)
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		q := r.insertQuery("schema_migrations", []string{"version", "applied_at"})
		if _, err := tx.ExecContext(ctx, q, base, formatTime(time.Now())); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// SavePlayer records a player's name and phone
func (r *SQLRepository) SavePlayer(ctx context.Context, playerID, name, phone string) error {
	q := r.upsertQuery("players", []string{"player_id", "name", "phone", "created_at"})
	if _, err := r.db.ExecContext(ctx, q, playerID, name, phone, formatTime(time.Now())); err != nil {
		return fmt.Errorf("save player %s: %w", playerID, err)
	}
	return nil
}

// Players lists every registered player
func (r *SQLRepository) Players(ctx context.Context) ([]PlayerRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT player_id, name, phone, created_at FROM players ORDER BY player_id")
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var out []PlayerRecord
	for rows.Next() {
		var rec PlayerRecord
		var created string
		if err := rows.Scan(&rec.PlayerID, &rec.Name, &rec.Phone, &created); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		rec.CreatedAt = parseTime(created)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return out, nil
}

type saveHeader struct {
	day      int
	savedAt  time.Time
	checksum string
}

func (r *SQLRepository) header(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, playerID string) (*saveHeader, error) {
	query := fmt.Sprintf("SELECT day, saved_at, checksum FROM player_saves WHERE player_id = %s", r.bind(1))
	var h saveHeader
	var savedAt string
	err := q.QueryRowContext(ctx, query, playerID).Scan(&h.day, &savedAt, &h.checksum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read save header %s: %w", playerID, err)
	}
	h.savedAt = parseTime(savedAt)
	return &h, nil
}

// Checksum returns the checksum of the stored snapshot, empty when none
func (r *SQLRepository) Checksum(ctx context.Context, playerID string) (string, error) {
	h, err := r.header(ctx, r.db, playerID)
	if err != nil || h == nil {
		return "", err
	}
	return h.checksum, nil
}

// LoadSnapshot reads, migrates and returns the stored snapshot
func (r *SQLRepository) LoadSnapshot(ctx context.Context, playerID string) (*types.Snapshot, error) {
	query := fmt.Sprintf("SELECT payload FROM player_saves WHERE player_id = %s", r.bind(1))
	var payload string
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", playerID, err)
	}
	snap, err := storage.Decode([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", playerID, err)
	}
	return snap, nil
}

// SaveSnapshot stores the snapshot unless the stored one is strictly newer,
// refreshing the projection tables in the same transaction.
func (r *SQLRepository) SaveSnapshot(ctx context.Context, snap *types.Snapshot) error {
	if snap == nil || snap.State == nil {
		return errors.New("snapshot has no state")
	}
	payload, err := storage.Encode(snap)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	if err := r.saveWithTx(ctx, tx, snap, payload); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}

	r.Logger.Debug("Saved cloud snapshot",
		zap.String("player_id", snap.PlayerID),
		zap.Int("day", snap.Day),
		zap.String("checksum", snap.Checksum))
	return nil
}

func (r *SQLRepository) saveWithTx(ctx context.Context, tx *sql.Tx, snap *types.Snapshot, payload []byte) error {
	existing, err := r.header(ctx, tx, snap.PlayerID)
	if err != nil {
		return err
	}
	if existing != nil {
		stored := &types.Snapshot{Day: existing.day, SavedAt: existing.savedAt}
		if storage.Newer(stored, snap) {
			return ErrStale
		}
	}

	q := r.upsertQuery("player_saves", []string{"player_id", "version", "day", "saved_at", "checksum", "payload"})
	if _, err := tx.ExecContext(ctx, q, snap.PlayerID, snap.Version, snap.Day, formatTime(snap.SavedAt), snap.Checksum, string(payload)); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.PlayerID, err)
	}
	return r.saveProjections(ctx, tx, snap.PlayerID, snap.State)
}

func (r *SQLRepository) saveProjections(ctx context.Context, tx *sql.Tx, playerID string, s *types.WorldState) error {
	economy := r.upsertQuery("player_economy", []string{"player_id", "money", "dirty_money", "debt", "heat", "personal_heat", "reputation"})
	if _, err := tx.ExecContext(ctx, economy, playerID, s.Money, s.DirtyMoney, s.Debt, s.Heat, s.PersonalHeat, s.Reputation); err != nil {
		return fmt.Errorf("save economy %s: %w", playerID, err)
	}

	progress := r.upsertQuery("player_progress", []string{"player_id", "day", "level", "xp", "endgame_phase", "new_game_plus", "player_rank", "game_over"})
	if _, err := tx.ExecContext(ctx, progress, playerID, s.Day, s.Level, s.XP, s.EndgamePhase, s.NewGamePlus, s.Rank, s.GameOver); err != nil {
		return fmt.Errorf("save progress %s: %w", playerID, err)
	}

	for _, table := range []string{"player_vehicles", "player_crew"} {
		q := fmt.Sprintf("DELETE FROM %s WHERE player_id = %s", table, r.bind(1))
		if _, err := tx.ExecContext(ctx, q, playerID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	vehicle := r.insertQuery("player_vehicles", []string{"player_id", "vehicle_id", "model", "heat", "vehicle_condition", "stolen", "active"})
	for _, v := range s.Vehicles {
		if _, err := tx.ExecContext(ctx, vehicle, playerID, v.ID, v.Model, v.Heat, v.Condition, v.Stolen, v.ID == s.ActiveVehicleID); err != nil {
			return fmt.Errorf("insert vehicle %s: %w", v.ID, err)
		}
	}

	member := r.insertQuery("player_crew", []string{"player_id", "crew_id", "name", "role", "loyalty", "hp", "injured"})
	for _, c := range s.Crew {
		if _, err := tx.ExecContext(ctx, member, playerID, c.ID, c.Name, c.Role, c.Loyalty, c.HP, c.Injured); err != nil {
			return fmt.Errorf("insert crew %s: %w", c.ID, err)
		}
	}
	return nil
}

// Leader is one row of the economy ranking
type Leader struct {
	PlayerID string
	NetWorth int
	Level    int
}

// Leaderboard ranks players by clean plus dirty money minus debt
func (r *SQLRepository) Leaderboard(ctx context.Context, limit int) ([]Leader, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf(`
		SELECT e.player_id, e.money + e.dirty_money - e.debt AS net_worth, p.level
		FROM player_economy e
		JOIN player_progress p ON p.player_id = e.player_id
		ORDER BY net_worth DESC, e.player_id
		LIMIT %s`, r.bind(1))
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []Leader
	for rows.Next() {
		var l Leader
		if err := rows.Scan(&l.PlayerID, &l.NetWorth, &l.Level); err != nil {
			return nil, fmt.Errorf("scan leader: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return out, nil
}
