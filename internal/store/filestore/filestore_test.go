package filestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/gameerr"
	"github.com/lox/flip7/internal/gameid"
	"github.com/lox/flip7/internal/store"
	"github.com/lox/flip7/internal/store/storetest"
)

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(t.TempDir(), zerolog.Nop())
		require.NoError(t, err)
		return s
	})
}

func TestNewRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := New("  ", zerolog.Nop())
	assert.Error(t, err)
}

func sampleGame(t *testing.T) (*game.GameState, []eventlog.Event) {
	t.Helper()
	e := game.NewEngine(game.WithSeed(3))
	state, err := e.StartGame([]string{"Alice", "Bob"})
	require.NoError(t, err)
	_, err = e.StartRound()
	require.NoError(t, err)
	x2 := deck.ModifierCard(deck.Times2)
	_, _, err = e.DealCard(state.Players[0].ID, &x2)
	require.NoError(t, err)
	return e.State(), e.Events()
}

func TestEncodeIsReadableTOML(t *testing.T) {
	t.Parallel()

	state, events := sampleGame(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, state, events))

	text := buf.String()
	assert.Contains(t, text, "version = 1")
	assert.Contains(t, text, "[game]")
	assert.Contains(t, text, "[[events]]")
	assert.Contains(t, text, `kind = "card_dealt"`)
	assert.Contains(t, text, `card = "x2"`)

	got, gotEvents, err := Decode(strings.NewReader(text))
	require.NoError(t, err)
	assert.Empty(t, game.Diff(state, got))
	require.Len(t, gotEvents, 3)
	dealt, ok := gotEvents[2].Payload.(*eventlog.CardDealt)
	require.True(t, ok)
	assert.Equal(t, deck.ModifierCard(deck.Times2), dealt.Card)
	assert.False(t, dealt.Drawn)
}

func TestDecodeRejectsBadFiles(t *testing.T) {
	t.Parallel()

	_, _, err := Decode(strings.NewReader("version = 2\n[game]\nid = \"x\"\n"))
	assert.ErrorContains(t, err, "version")

	_, _, err = Decode(strings.NewReader("version = 1\n"))
	assert.ErrorContains(t, err, "[game]")

	_, _, err = Decode(strings.NewReader("version = 1\n[game]\nid = \"x\"\n[[events]]\nseq = 1\nkind = \"coin_flip\"\n[events.payload]\n"))
	assert.ErrorContains(t, err, "unknown event kind")

	_, _, err = Decode(strings.NewReader("not toml at all = = ="))
	assert.Error(t, err)
}

func TestSaveWritesOneFilePerGame(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, zerolog.Nop())
	require.NoError(t, err)

	state, events := sampleGame(t)
	require.NoError(t, s.Save(context.Background(), state, events))

	entries, err := os.ReadDir(filepath.Join(dir, state.ID))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files must not be left behind")
	assert.Equal(t, FileName, entries[0].Name())
}

func TestSaveRejectsBadID(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	state, events := sampleGame(t)
	state.ID = "../escape"
	assert.Error(t, s.Save(context.Background(), state, events))
}

func TestLoadCorruptFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(dir, zerolog.Nop())
	require.NoError(t, err)

	id := gameid.Generate()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, id), 0o755))
	require.NoError(t, os.WriteFile(s.Path(id), []byte("version = 1\n[game\n"), 0o644))

	_, _, err = s.Load(context.Background(), id)
	assert.ErrorIs(t, err, gameerr.ErrLoadFailed)

	// List skips what it cannot read.
	summaries, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestLoadHonoursContext(t *testing.T) {
	t.Parallel()

	s, err := New(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	_, _, err = s.Load(ctx, gameid.Generate())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
