package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const queryTimeout = 5 * time.Second

// SQLStore keeps profiles in a relational database. The same queries serve
// sqlite and postgres; only placeholders differ.
type SQLStore struct {
	db            *sql.DB
	dialect       string
	startingChips int
	now           func() time.Time
}

func newSQLStore(db *sql.DB, dialect string, startingChips int) *SQLStore {
	if startingChips <= 0 {
		startingChips = DefaultStartingChips
	}
	return &SQLStore{
		db:            db,
		dialect:       dialect,
		startingChips: startingChips,
		now:           time.Now,
	}
}

var schema = []string{
	`
CREATE TABLE IF NOT EXISTS profiles (
    id TEXT PRIMARY KEY,
    nickname TEXT NOT NULL DEFAULT '',
    chips BIGINT NOT NULL,
    hands_played BIGINT NOT NULL DEFAULT 0,
    hands_won BIGINT NOT NULL DEFAULT 0,
    created_at_ms BIGINT NOT NULL,
    updated_at_ms BIGINT NOT NULL
)`,
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("account: ensure schema: %w", err)
		}
	}
	return nil
}

// bind rewrites ? placeholders as $n for postgres
func (s *SQLStore) bind(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Load(ctx context.Context, id, nickname string) (Profile, error) {
	if err := validID(id); err != nil {
		return Profile{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Profile{}, err
	}
	defer tx.Rollback()

	nowMs := s.now().UTC().UnixMilli()
	if _, err := tx.ExecContext(ctx, s.bind(`
INSERT INTO profiles (id, nickname, chips, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING
`), id, id, s.startingChips, nowMs, nowMs); err != nil {
		return Profile{}, s.wrap("create profile", err)
	}

	if _, err := tx.ExecContext(ctx, s.bind(`
UPDATE profiles
SET chips = CASE WHEN chips <= 0 THEN ? ELSE chips END,
    nickname = CASE WHEN ? <> '' THEN ? ELSE nickname END,
    updated_at_ms = ?
WHERE id = ?
`), s.startingChips, nickname, nickname, nowMs, id); err != nil {
		return Profile{}, s.wrap("refresh profile", err)
	}

	var p Profile
	if err := tx.QueryRowContext(ctx, s.bind(`
SELECT id, nickname, chips, hands_played, hands_won
FROM profiles
WHERE id = ?
`), id).Scan(&p.ID, &p.Nickname, &p.Chips, &p.Stats.HandsPlayed, &p.Stats.HandsWon); err != nil {
		return Profile{}, s.wrap("read profile", err)
	}

	if err := tx.Commit(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *SQLStore) Settle(ctx context.Context, id string, chips int, won bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	wonCount := 0
	if won {
		wonCount = 1
	}
	res, err := s.db.ExecContext(ctx, s.bind(`
UPDATE profiles
SET chips = ?,
    hands_played = hands_played + 1,
    hands_won = hands_won + ?,
    updated_at_ms = ?
WHERE id = ?
`), chips, wonCount, s.now().UTC().UnixMilli(), id)
	if err != nil {
		return s.wrap("settle profile", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLStore) wrap(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if s.dialect == DriverPostgres {
		return fmt.Errorf("account: %s: %w", op, describePostgres(err))
	}
	return fmt.Errorf("account: %s: %w", op, err)
}
