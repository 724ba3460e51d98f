// Package sqlite implements repository.Store on a SQLite database. Sides
// and scores are stored as msgpack blobs; the schema is managed by goose.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/okian/bracketry/internal/adapters/repository"
	"github.com/okian/bracketry/internal/domain/model"
	"github.com/okian/bracketry/pkg/metrics"
)

//go:embed migrations/*.sql
var migrations embed.FS

var gooseMu sync.Mutex

type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the database at dsn and migrates it to the latest
// schema. ":memory:" gives a private in-memory database.
func Open(ctx context.Context, dsn string) (repository.Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// writes are serialized by the store anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) repository.Store {
	return &store{db: db}
}

func migrate(db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(log.New(io.Discard, "", 0))
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *store) Close() error {
	return s.db.Close()
}

func (s *store) SaveMatches(ctx context.Context, matches []model.MatchStub) (n int, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("save_matches", msSince(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO matches
			(id, uuid, event_id, format, round_number, match_number, box_number, pool_key,
			 week_number, status, side_a, side_b, scores, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, m := range matches {
		if m.ID == "" || m.EventID == "" {
			return 0, repository.ErrInvalidResult
		}
		sideA, sideB, scores, err := encode(m)
		if err != nil {
			return 0, err
		}
		res, err := stmt.ExecContext(ctx,
			m.ID, m.UUID, m.EventID, string(m.Format), m.RoundNumber, m.MatchNumber, m.BoxNumber, m.PoolKey,
			m.WeekNumber, string(m.Status), sideA, sideB, scores, now, now)
		if err != nil {
			return 0, fmt.Errorf("failed to insert match %s: %w", m.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		n += int(affected)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit matches: %w", err)
	}
	return n, nil
}

const selectColumns = `SELECT id, uuid, event_id, format, round_number, match_number, box_number,
	pool_key, week_number, status, side_a, side_b, scores FROM matches`

func (s *store) Match(ctx context.Context, id string) (model.MatchStub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.match(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *store) match(ctx context.Context, q queryer, id string) (model.MatchStub, error) {
	m, err := scanMatch(q.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.MatchStub{}, repository.ErrNotFound
	}
	if err != nil {
		return model.MatchStub{}, fmt.Errorf("failed to get match %s: %w", id, err)
	}
	return m, nil
}

func (s *store) Matches(ctx context.Context, eventID string) ([]model.MatchStub, error) {
	return s.query(ctx, selectColumns+` WHERE event_id = ? ORDER BY round_number, match_number, id`, eventID)
}

func (s *store) CompletedMatches(ctx context.Context, eventID string) ([]model.MatchStub, error) {
	return s.query(ctx, selectColumns+` WHERE event_id = ? AND status = ? ORDER BY round_number, match_number, id`,
		eventID, string(model.StatusCompleted))
}

func (s *store) query(ctx context.Context, query string, args ...any) (out []model.MatchStub, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("matches", msSince(start), err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	out = []model.MatchStub{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return out, nil
}

func (s *store) RecordResult(ctx context.Context, id string, status model.MatchStatus, scores []model.GameScore) (_ model.MatchStub, err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("record_result", msSince(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.MatchStub{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	m, err := s.match(ctx, tx, id)
	if err != nil {
		return model.MatchStub{}, err
	}
	done, err := repository.CheckResult(m, status, scores)
	if err != nil {
		return model.MatchStub{}, err
	}
	if done {
		return m, nil
	}

	blob, err := msgpack.Marshal(scores)
	if err != nil {
		return model.MatchStub{}, fmt.Errorf("failed to encode scores: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE matches SET status = ?, scores = ?, updated_at = ? WHERE id = ?`,
		string(status), blob, time.Now().Unix(), id); err != nil {
		return model.MatchStub{}, fmt.Errorf("failed to update match %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return model.MatchStub{}, fmt.Errorf("failed to commit result: %w", err)
	}

	m.Status = status
	m.Scores = append([]model.GameScore(nil), scores...)
	return m, nil
}

func (s *store) UpdateSides(ctx context.Context, id string, sideA, sideB model.Side) (err error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation("update_sides", msSince(start), err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.match(ctx, s.db, id)
	if err != nil {
		return err
	}
	if err := repository.CheckSides(m, sideA, sideB); err != nil {
		return err
	}
	a, err := msgpack.Marshal(sideA)
	if err != nil {
		return fmt.Errorf("failed to encode side: %w", err)
	}
	b, err := msgpack.Marshal(sideB)
	if err != nil {
		return fmt.Errorf("failed to encode side: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE matches SET side_a = ?, side_b = ?, updated_at = ? WHERE id = ?`,
		a, b, time.Now().Unix(), id); err != nil {
		return fmt.Errorf("failed to update sides of %s: %w", id, err)
	}
	return nil
}

func (s *store) EventCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT event_id) FROM matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	metrics.UpdateStoredEvents(n)
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (model.MatchStub, error) {
	var (
		m              model.MatchStub
		format, status string
		sideA, sideB   []byte
		scores         []byte
	)
	if err := row.Scan(&m.ID, &m.UUID, &m.EventID, &format, &m.RoundNumber, &m.MatchNumber, &m.BoxNumber,
		&m.PoolKey, &m.WeekNumber, &status, &sideA, &sideB, &scores); err != nil {
		return model.MatchStub{}, err
	}
	m.Format = model.Format(format)
	m.Status = model.MatchStatus(status)
	if err := msgpack.Unmarshal(sideA, &m.SideA); err != nil {
		return model.MatchStub{}, fmt.Errorf("failed to decode side a: %w", err)
	}
	if err := msgpack.Unmarshal(sideB, &m.SideB); err != nil {
		return model.MatchStub{}, fmt.Errorf("failed to decode side b: %w", err)
	}
	if len(scores) > 0 {
		if err := msgpack.Unmarshal(scores, &m.Scores); err != nil {
			return model.MatchStub{}, fmt.Errorf("failed to decode scores: %w", err)
		}
	}
	return m, nil
}

func encode(m model.MatchStub) (sideA, sideB, scores []byte, err error) {
	if sideA, err = msgpack.Marshal(m.SideA); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode side a: %w", err)
	}
	if sideB, err = msgpack.Marshal(m.SideB); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode side b: %w", err)
	}
	if len(m.Scores) > 0 {
		if scores, err = msgpack.Marshal(m.Scores); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode scores: %w", err)
		}
	}
	return sideA, sideB, scores, nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
