package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Grosth/BlackjackCSFinal/internal/game"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

const timeLayout = time.RFC3339Nano

// SQLiteStore keeps the ledger in a SQLite database file
type SQLiteStore struct {
	db            *sql.DB
	clock         quartz.Clock
	startingChips int
	logger        *log.Logger
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// schema.
func OpenSQLite(path string, startingChips int, clock quartz.Clock, logger *log.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite ledger needs a path")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serialises writers and keeps settle transactions
	// from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:            db,
		clock:         clock,
		startingChips: startingChips,
		logger:        logger.WithPrefix("ledger"),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Info("Opened SQLite ledger", "path", path, "starting_chips", startingChips)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) EnsureProfile(ctx context.Context, userID, username string) (Profile, error) {
	now := s.clock.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, username, chips, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		userID, username, s.startingChips, now, now)
	if err != nil {
		return Profile{}, fmt.Errorf("ensure profile %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Info("Created profile", "user", userID, "username", username, "chips", s.startingChips)
	}
	return s.Profile(ctx, userID)
}

func (s *SQLiteStore) Profile(ctx context.Context, userID string) (Profile, error) {
	return queryProfile(ctx, s.db, userID)
}

func (s *SQLiteStore) CheckBet(ctx context.Context, userID string, bet int) error {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	return checkBet(p, bet)
}

func (s *SQLiteStore) Settle(ctx context.Context, userID, roundID string, outcome game.Outcome) (Profile, error) {
	if err := validateOutcome(outcome); err != nil {
		return Profile{}, fmt.Errorf("settle %s: %w", roundID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("settle %s: %w", roundID, err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := queryProfile(ctx, tx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("settle %s: %w", roundID, err)
	}

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM game_records WHERE round_id = ?`, roundID).Scan(&exists)
	switch {
	case err == nil:
		return Profile{}, fmt.Errorf("settle %s: %w", roundID, ErrAlreadySettled)
	case !errors.Is(err, sql.ErrNoRows):
		return Profile{}, fmt.Errorf("settle %s: %w", roundID, err)
	}

	now := s.clock.Now().UTC()
	p = Apply(p, outcome)
	p.UpdatedAt = now
	stamp := now.Format(timeLayout)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO game_records (user_id, round_id, bet_amount, result, player_score, dealer_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, roundID, outcome.Bet, string(outcome.Result), outcome.PlayerScore, outcome.DealerScore, stamp); err != nil {
		return Profile{}, fmt.Errorf("settle %s: insert record: %w", roundID, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE profiles SET chips = ?, wins = ?, losses = ?, ties = ?, updated_at = ? WHERE id = ?`,
		p.Chips, p.Wins, p.Losses, p.Ties, stamp, userID); err != nil {
		return Profile{}, fmt.Errorf("settle %s: update profile: %w", roundID, err)
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, fmt.Errorf("settle %s: commit: %w", roundID, err)
	}

	s.logger.Debug("Settled round", "user", userID, "round", roundID, "result", outcome.Result, "chips", p.Chips)
	return p, nil
}

func (s *SQLiteStore) History(ctx context.Context, userID string, limit int) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, round_id, bet_amount, result, player_score, dealer_score, created_at
		FROM game_records WHERE user_id = ? ORDER BY id DESC LIMIT ?`,
		userID, historyLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	records := []Record{}
	for rows.Next() {
		var (
			r       Record
			result  string
			created string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.RoundID, &r.Bet, &result, &r.PlayerScore, &r.DealerScore, &created); err != nil {
			return nil, fmt.Errorf("history %s: %w", userID, err)
		}
		if r.Result, err = game.ParseResult(result); err != nil {
			return nil, fmt.Errorf("history %s: %w", userID, err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("history %s: %w", userID, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryProfile(ctx context.Context, q queryRower, userID string) (Profile, error) {
	var (
		p                Profile
		created, updated string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, username, chips, wins, losses, ties, created_at, updated_at FROM profiles WHERE id = ?`,
		userID).Scan(&p.UserID, &p.Username, &p.Chips, &p.Wins, &p.Losses, &p.Ties, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("load profile %s: %w", userID, err)
	}
	if p.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Profile{}, err
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return Profile{}, err
	}
	return p, nil
}
