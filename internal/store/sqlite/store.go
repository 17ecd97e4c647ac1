// Package sqlite stores games in a SQLite database. The folded state is kept
// as JSON in the games table and every event is a row in game_events; a save
// writes both in one transaction.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/store"
	"github.com/lox/flip7/internal/store/sqlite/migrations"
)

// Store persists games in SQLite.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

var _ store.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the database at path and applies embedded migrations.
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := "file:" + cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps the single-writer model and lets pragmas hold.
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the game row and appends the events not yet stored. The log
// is append-only, so a shorter log than the one stored is rejected.
func (s *Store) Save(ctx context.Context, state *game.GameState, events []eventlog.Event) error {
	if state == nil {
		return fmt.Errorf("game state is required")
	}
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode game state: %w", err)
	}
	sum := store.Summarize(state, events)
	playersJSON, err := json.Marshal(sum.Players)
	if err != nil {
		return fmt.Errorf("encode players: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, created_at, updated_at, players, rounds, complete, winner, state)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   updated_at = excluded.updated_at,
		   players = excluded.players,
		   rounds = excluded.rounds,
		   complete = excluded.complete,
		   winner = excluded.winner,
		   state = excluded.state`,
		state.ID,
		toMillis(sum.CreatedAt),
		toMillis(sum.UpdatedAt),
		string(playersJSON),
		sum.Rounds,
		sum.Complete,
		sum.Winner,
		string(stateJSON),
	); err != nil {
		return fmt.Errorf("upsert game %s: %w", state.ID, err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM game_events WHERE game_id = ?`, state.ID,
	).Scan(&stored); err != nil {
		return fmt.Errorf("read event count: %w", err)
	}
	if stored > len(events) {
		return fmt.Errorf("game %s already has %d events, refusing to store %d", state.ID, stored, len(events))
	}

	for _, ev := range events[stored:] {
		payload, err := json.Marshal(ev.Payload)
		if err != nil {
			return fmt.Errorf("encode event %d: %w", ev.Seq, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_events (game_id, seq, timestamp, kind, payload) VALUES (?, ?, ?, ?, ?)`,
			state.ID, ev.Seq, toMillis(ev.Timestamp), string(ev.Kind), string(payload),
		); err != nil {
			return fmt.Errorf("insert event %d: %w", ev.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit game %s: %w", state.ID, err)
	}
	s.logger.Debug().Str("game_id", state.ID).Int("appended", len(events)-stored).Msg("Saved game")
	return nil
}

// Load reads a game and its events.
func (s *Store) Load(ctx context.Context, gameID string) (*game.GameState, []eventlog.Event, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM games WHERE id = ?`, gameID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.NotFound(gameID)
	}
	if err != nil {
		return nil, nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "read game %s", gameID)
	}

	var state game.GameState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		return nil, nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "decode game %s", gameID)
	}

	events, err := s.loadEvents(ctx, gameID)
	if err != nil {
		return nil, nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "read events for game %s", gameID)
	}
	return &state, events, nil
}

func (s *Store) loadEvents(ctx context.Context, gameID string) ([]eventlog.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, timestamp, kind, payload FROM game_events WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []eventlog.Event
	for rows.Next() {
		var (
			seq     int
			ts      int64
			kind    string
			payload string
		)
		if err := rows.Scan(&seq, &ts, &kind, &payload); err != nil {
			return nil, err
		}
		p, err := eventlog.NewPayload(eventlog.Kind(kind))
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", seq, err)
		}
		if err := json.Unmarshal([]byte(payload), p); err != nil {
			return nil, fmt.Errorf("event %d: decode %s payload: %w", seq, kind, err)
		}
		events = append(events, eventlog.Event{
			Seq:       seq,
			Timestamp: fromMillis(ts),
			Kind:      eventlog.Kind(kind),
			Payload:   p,
		})
	}
	return events, rows.Err()
}

// List summarises every stored game, oldest first.
func (s *Store) List(ctx context.Context) ([]store.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.created_at, g.updated_at, g.players, g.rounds, g.complete, g.winner,
		        (SELECT COUNT(*) FROM game_events e WHERE e.game_id = g.id)
		 FROM games g
		 ORDER BY g.created_at, g.id`)
	if err != nil {
		return nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "list games")
	}
	defer rows.Close()

	var out []store.Summary
	for rows.Next() {
		var (
			sum       store.Summary
			createdAt int64
			updatedAt int64
			players   string
		)
		if err := rows.Scan(&sum.ID, &createdAt, &updatedAt, &players, &sum.Rounds, &sum.Complete, &sum.Winner, &sum.Events); err != nil {
			return nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "scan game row")
		}
		if err := json.Unmarshal([]byte(players), &sum.Players); err != nil {
			return nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "decode players of game %s", sum.ID)
		}
		sum.CreatedAt = fromMillis(createdAt)
		sum.UpdatedAt = fromMillis(updatedAt)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "list games")
	}
	return out, nil
}

// Delete removes a game and its events.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM game_events WHERE game_id = ?`, gameID); err != nil {
		return fmt.Errorf("delete events of game %s: %w", gameID, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, gameID)
	if err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	if n == 0 {
		return store.NotFound(gameID)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete of game %s: %w", gameID, err)
	}
	s.logger.Debug().Str("game_id", gameID).Msg("Deleted game")
	return nil
}
