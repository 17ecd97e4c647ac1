// Package filestore keeps one human-readable TOML file per game:
//
//	<dir>/<game id>/game.toml
//
// Each save rewrites the whole file through a temporary file and a rename,
// so the state and the event log on disk always belong together.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/fileutil"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/gameid"
	"github.com/lox/flip7/internal/store"
)

// FileName is the name of the game file inside each game directory.
const FileName = "game.toml"

// Store is a directory of game files.
type Store struct {
	dir    string
	logger zerolog.Logger
}

var _ store.Store = (*Store)(nil)

// New opens the store rooted at dir, creating it if needed.
func New(dir string, logger zerolog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{dir: filepath.Clean(dir), logger: logger}, nil
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the game file for gameID.
func (s *Store) Path(gameID string) string {
	return filepath.Join(s.dir, gameID, FileName)
}

// Save writes the game state and events atomically.
func (s *Store) Save(ctx context.Context, state *game.GameState, events []eventlog.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("game state is required")
	}
	if err := gameid.Validate(state.ID); err != nil {
		return fmt.Errorf("invalid game ID %q: %w", state.ID, err)
	}

	path := s.Path(state.ID)
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return Encode(w, state, events)
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	s.logger.Debug().Str("game_id", state.ID).Int("events", len(events)).Str("path", path).Msg("Saved game")
	return nil
}

// Load reads a game and its events.
func (s *Store) Load(ctx context.Context, gameID string) (*game.GameState, []eventlog.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if err := gameid.Validate(gameID); err != nil {
		return nil, nil, store.NotFound(gameID)
	}

	f, err := os.Open(s.Path(gameID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, store.NotFound(gameID)
	}
	if err != nil {
		return nil, nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "open game %s", gameID)
	}
	defer f.Close()

	state, events, err := Decode(f)
	if err != nil {
		return nil, nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "decode game %s", gameID)
	}
	return state, events, nil
}

// List summarises every stored game, oldest first. Unreadable game files are
// logged and skipped.
func (s *Store) List(ctx context.Context) ([]store.Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, gameerr.Wrap(gameerr.CodeLoadFailed, err, "read %s", s.dir)
	}

	var out []store.Summary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() || gameid.Validate(entry.Name()) != nil {
			continue
		}
		state, events, err := s.Load(ctx, entry.Name())
		if err != nil {
			s.logger.Warn().Err(err).Str("game_id", entry.Name()).Msg("Skipping unreadable game")
			continue
		}
		out = append(out, store.Summarize(state, events))
	}

	slices.SortFunc(out, func(a, b store.Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Delete removes a game directory.
func (s *Store) Delete(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := gameid.Validate(gameID); err != nil {
		return store.NotFound(gameID)
	}
	dir := filepath.Join(s.dir, gameID)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return store.NotFound(gameID)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete game %s: %w", gameID, err)
	}
	s.logger.Debug().Str("game_id", gameID).Msg("Deleted game")
	return nil
}

// Close is a no-op; the store holds no open files between calls.
func (s *Store) Close() error {
	return nil
}
