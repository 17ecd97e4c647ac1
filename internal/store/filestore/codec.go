package filestore

import (
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lox/flip7/internal/eventlog"
	"github.com/lox/flip7/internal/game"
)

// formatVersion is written to every game file.
const formatVersion = 1

// document is the on-disk layout of a game file: the folded state followed
// by the event log as an array of tables.
type document struct {
	Version int             `toml:"version"`
	Game    *game.GameState `toml:"game"`
	Events  []eventRecord   `toml:"events"`
}

type eventRecord struct {
	Seq       int              `toml:"seq"`
	Timestamp time.Time        `toml:"timestamp"`
	Kind      eventlog.Kind    `toml:"kind"`
	Payload   eventlog.Payload `toml:"payload"`
}

// decodedDocument mirrors document but defers payload decoding until the
// kind of each event is known.
type decodedDocument struct {
	Version int             `toml:"version"`
	Game    *game.GameState `toml:"game"`
	Events  []struct {
		Seq       int            `toml:"seq"`
		Timestamp time.Time      `toml:"timestamp"`
		Kind      eventlog.Kind  `toml:"kind"`
		Payload   toml.Primitive `toml:"payload"`
	} `toml:"events"`
}

// Encode writes a game and its events in TOML.
func Encode(w io.Writer, state *game.GameState, events []eventlog.Event) error {
	if state == nil {
		return fmt.Errorf("filestore: game state is nil")
	}

	doc := document{
		Version: formatVersion,
		Game:    state,
		Events:  make([]eventRecord, len(events)),
	}
	for i, ev := range events {
		doc.Events[i] = eventRecord{
			Seq:       ev.Seq,
			Timestamp: ev.Timestamp,
			Kind:      ev.Kind,
			Payload:   ev.Payload,
		}
	}

	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(doc)
}

// Decode reads a game written by Encode.
func Decode(r io.Reader) (*game.GameState, []eventlog.Event, error) {
	var doc decodedDocument
	md, err := toml.NewDecoder(r).Decode(&doc)
	if err != nil {
		return nil, nil, err
	}
	if doc.Version != formatVersion {
		return nil, nil, fmt.Errorf("unsupported game file version %d", doc.Version)
	}
	if doc.Game == nil {
		return nil, nil, fmt.Errorf("game file has no [game] table")
	}

	events := make([]eventlog.Event, len(doc.Events))
	for i, rec := range doc.Events {
		payload, err := eventlog.NewPayload(rec.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("event %d: %w", rec.Seq, err)
		}
		if err := md.PrimitiveDecode(rec.Payload, payload); err != nil {
			return nil, nil, fmt.Errorf("event %d: decode %s payload: %w", rec.Seq, rec.Kind, err)
		}
		events[i] = eventlog.Event{
			Seq:       rec.Seq,
			Timestamp: rec.Timestamp.UTC(),
			Kind:      rec.Kind,
			Payload:   payload,
		}
	}
	return doc.Game, events, nil
}
