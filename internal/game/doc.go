// Package game implements the Flip 7 round and game state machine.
//
// The main type is Engine, which runs a single game. All state changes go
// through its commands, and every accepted command is recorded in an
// append-only event log. GameState is a pure fold over that log, so a game
// can always be rebuilt from its events alone.
//
// # Basic Usage
//
//	e := game.NewEngine(game.WithSaver(store))
//	state, _ := e.StartGame([]string{"Alice", "Bob"})
//	e.StartRound()
//	card, _, err := e.DealCard(state.Players[0].ID, nil) // draw from the deck
//	e.Stay(state.Players[0].ID)
//
// Cards dealt from a physical deck are logged by passing the card:
//
//	seven := deck.NumberCard(7)
//	e.DealCard(playerID, &seven)
//
// # Deterministic Testing
//
// Round decks are shuffled from seeds handed out by the engine. Fix the root
// seed, the clock and the player IDs to make a game reproducible:
//
//	e := game.NewEngine(game.WithSeed(42), game.WithClock(quartz.NewMock(t)))
//
// # Persistence
//
// A Saver receives the candidate state and the full event log before every
// commit. If it fails the command is discarded. Resume rebuilds an engine
// from stored data and refuses a state that its log does not reproduce.
package game
