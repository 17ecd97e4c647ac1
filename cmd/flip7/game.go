package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lox/flip7/internal/deck"
	"github.com/lox/flip7/internal/game"
	"github.com/lox/flip7/internal/render"
	"github.com/lox/flip7/internal/store"
)

// GameCmd groups the commands that drive a single saved game.
type GameCmd struct {
	New          GameNewCmd          `cmd:"" help:"Start a new game"`
	Round        GameRoundCmd        `cmd:"" help:"Start the next round"`
	Deal         GameDealCmd         `cmd:"" help:"Deal a card to a player"`
	Stay         GameStayCmd         `cmd:"" help:"Bank a player's hand for the round"`
	SecondChance GameSecondChanceCmd `cmd:"second-chance" help:"Cancel a duplicate with a second chance card"`
	EndRound     GameEndRoundCmd     `cmd:"end-round" help:"Score the round once every player is done"`
	Show         GameShowCmd         `cmd:"" help:"Show a game"`
	List         GameListCmd         `cmd:"" help:"List saved games"`
	Delete       GameDeleteCmd       `cmd:"" help:"Delete a saved game"`
}

// withGame resumes gameID from storage and runs fn against its engine.
// Every command fn issues is saved before it is committed.
func withGame(g *Globals, gameID string, fn func(*game.Engine) (*game.GameState, error)) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	s, err := env.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	e, err := store.Resume(context.Background(), s, gameID, game.WithLogger(env.logger))
	if err != nil {
		return err
	}
	state, err := fn(e)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, render.Game(state))
	return nil
}

// playerID resolves a seat by ID or by name, ignoring case.
func playerID(e *game.Engine, who string) (string, error) {
	state := e.State()
	if p, ok := state.Player(who); ok {
		return p.ID, nil
	}
	for _, p := range state.Players {
		if strings.EqualFold(p.Name, strings.TrimSpace(who)) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("no player %q in game %s", who, state.ID)
}

type GameNewCmd struct {
	Players []string `arg:"" help:"Player names in seat order"`
	Seed    int64    `help:"Seed for deterministic decks (0 for random)"`
	Round   bool     `default:"true" negatable:"" help:"Start the first round straight away"`
}

func (c *GameNewCmd) Run(g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	s, err := env.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	e := game.NewEngine(game.WithSaver(s), game.WithSeed(c.Seed), game.WithLogger(env.logger))
	state, err := e.StartGame(c.Players)
	if err != nil {
		return err
	}
	env.logger.Info().Str("game_id", state.ID).Strs("players", c.Players).Msg("Game started")

	if c.Round {
		if state, err = e.StartRound(); err != nil {
			return err
		}
	}
	fmt.Fprint(os.Stdout, render.Game(state))
	return nil
}

type GameRoundCmd struct {
	ID string `arg:"" help:"Game ID"`
}

func (c *GameRoundCmd) Run(g *Globals) error {
	return withGame(g, c.ID, func(e *game.Engine) (*game.GameState, error) {
		return e.StartRound()
	})
}

type GameDealCmd struct {
	ID     string `arg:"" help:"Game ID"`
	Player string `arg:"" help:"Player name or ID"`
	Card   string `short:"c" help:"Card dealt from a physical deck (e.g. 7, +4, x2, freeze); drawn from the deck when empty"`
}

func (c *GameDealCmd) Run(g *Globals) error {
	var card *deck.Card
	if c.Card != "" {
		parsed, err := deck.ParseCard(c.Card)
		if err != nil {
			return err
		}
		card = &parsed
	}

	return withGame(g, c.ID, func(e *game.Engine) (*game.GameState, error) {
		id, err := playerID(e, c.Player)
		if err != nil {
			return nil, err
		}
		dealt, state, err := e.DealCard(id, card)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stdout, "%s gets %s\n", c.Player, render.Card(dealt))
		return state, nil
	})
}

type GameStayCmd struct {
	ID     string `arg:"" help:"Game ID"`
	Player string `arg:"" help:"Player name or ID"`
}

func (c *GameStayCmd) Run(g *Globals) error {
	return withGame(g, c.ID, func(e *game.Engine) (*game.GameState, error) {
		id, err := playerID(e, c.Player)
		if err != nil {
			return nil, err
		}
		return e.Stay(id)
	})
}

type GameSecondChanceCmd struct {
	ID     string `arg:"" help:"Game ID"`
	Player string `arg:"" help:"Player name or ID"`
	Card   string `arg:"" help:"The duplicated number card"`
}

func (c *GameSecondChanceCmd) Run(g *Globals) error {
	card, err := deck.ParseCard(c.Card)
	if err != nil {
		return err
	}
	return withGame(g, c.ID, func(e *game.Engine) (*game.GameState, error) {
		id, err := playerID(e, c.Player)
		if err != nil {
			return nil, err
		}
		return e.UseSecondChance(id, card)
	})
}

type GameEndRoundCmd struct {
	ID   string `arg:"" help:"Game ID"`
	Next bool   `help:"Start the next round unless the game is over"`
}

func (c *GameEndRoundCmd) Run(g *Globals) error {
	return withGame(g, c.ID, func(e *game.Engine) (*game.GameState, error) {
		state, err := e.EndRound()
		if err != nil {
			return nil, err
		}
		if last := state.LastRound(); last != nil {
			fmt.Fprint(os.Stdout, render.Round(last))
		}
		if c.Next && !state.Complete {
			return e.StartRound()
		}
		return state, nil
	})
}

type GameShowCmd struct {
	ID     string `arg:"" help:"Game ID"`
	Events bool   `short:"e" help:"Also print the event log"`
	Stats  bool   `help:"Also print statistics for a completed game"`
}

func (c *GameShowCmd) Run(g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	s, err := env.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	state, events, err := s.Load(context.Background(), c.ID)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, render.Game(state))
	if c.Events {
		fmt.Fprintln(os.Stdout)
		fmt.Fprint(os.Stdout, render.Events(state, events))
	}
	if c.Stats && state.Complete {
		if err := printGameStats(state); err != nil {
			return err
		}
	}
	return nil
}

type GameListCmd struct{}

func (c *GameListCmd) Run(g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	s, err := env.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.List(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, render.Summaries(list))
	return nil
}

type GameDeleteCmd struct {
	ID string `arg:"" help:"Game ID"`
}

func (c *GameDeleteCmd) Run(g *Globals) error {
	env, err := g.setup()
	if err != nil {
		return err
	}
	s, err := env.openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.Delete(context.Background(), c.ID); err != nil {
		return err
	}
	env.logger.Info().Str("game_id", c.ID).Msg("Game deleted")
	return nil
}
