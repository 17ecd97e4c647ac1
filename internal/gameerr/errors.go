// Package gameerr defines the typed failures returned by the deck, the rule
// engine, the game engine and the persistence layer.
//
// Every failure carries a Kind (the broad class used by callers to decide how
// to surface it) and a Code (the specific condition). errors.Is matches two
// *Error values by Code, so callers can test against the exported sentinels:
//
//	if errors.Is(err, gameerr.ErrPlayerNotActive) { ... }
package gameerr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindResource    Kind = "resource"
	KindState       Kind = "state"
	KindPersistence Kind = "persistence"
)

// Code identifies a specific failure condition.
type Code string

const (
	CodeInsufficientPlayers     Code = "insufficient_players"
	CodeDuplicatePlayer         Code = "duplicate_player"
	CodeUnknownPlayer           Code = "unknown_player"
	CodePlayerNotActive         Code = "player_not_active"
	CodeForcedDrawIncomplete    Code = "forced_draw_incomplete"
	CodeDuplicateUnresolved     Code = "duplicate_unresolved"
	CodeNotADuplicate           Code = "not_a_duplicate"
	CodeNoSecondChanceAvailable Code = "no_second_chance_available"
	CodeCardNotInDeck           Code = "card_not_in_deck"
	CodePlayersStillActive      Code = "players_still_active"
	CodeInvalidCard             Code = "invalid_card"

	CodeDeckExhausted Code = "deck_exhausted"

	CodeGameNotStarted     Code = "game_not_started"
	CodeGameAlreadyStarted Code = "game_already_started"
	CodeGameComplete       Code = "game_complete"
	CodeRoundInProgress    Code = "round_in_progress"
	CodeNoActiveRound      Code = "no_active_round"

	CodeSaveFailed    Code = "save_failed"
	CodeLoadFailed    Code = "load_failed"
	CodeGameNotFound  Code = "game_not_found"
	CodeStateDiverged Code = "state_diverged"
	CodeCorruptLog    Code = "corrupt_log"
)

var codeKinds = map[Code]Kind{
	CodeInsufficientPlayers:     KindValidation,
	CodeDuplicatePlayer:         KindValidation,
	CodeUnknownPlayer:           KindValidation,
	CodePlayerNotActive:         KindValidation,
	CodeForcedDrawIncomplete:    KindValidation,
	CodeDuplicateUnresolved:     KindValidation,
	CodeNotADuplicate:           KindValidation,
	CodeNoSecondChanceAvailable: KindValidation,
	CodeCardNotInDeck:           KindValidation,
	CodePlayersStillActive:      KindValidation,
	CodeInvalidCard:             KindValidation,
	CodeDeckExhausted:           KindResource,
	CodeGameNotStarted:          KindState,
	CodeGameAlreadyStarted:      KindState,
	CodeGameComplete:            KindState,
	CodeRoundInProgress:         KindState,
	CodeNoActiveRound:           KindState,
	CodeSaveFailed:              KindPersistence,
	CodeLoadFailed:              KindPersistence,
	CodeGameNotFound:            KindPersistence,
	CodeStateDiverged:           KindPersistence,
	CodeCorruptLog:              KindPersistence,
}

// Sentinels for errors.Is comparisons.
var (
	ErrInsufficientPlayers     = &Error{Kind: KindValidation, Code: CodeInsufficientPlayers}
	ErrDuplicatePlayer         = &Error{Kind: KindValidation, Code: CodeDuplicatePlayer}
	ErrUnknownPlayer           = &Error{Kind: KindValidation, Code: CodeUnknownPlayer}
	ErrPlayerNotActive         = &Error{Kind: KindValidation, Code: CodePlayerNotActive}
	ErrForcedDrawIncomplete    = &Error{Kind: KindValidation, Code: CodeForcedDrawIncomplete}
	ErrDuplicateUnresolved     = &Error{Kind: KindValidation, Code: CodeDuplicateUnresolved}
	ErrNotADuplicate           = &Error{Kind: KindValidation, Code: CodeNotADuplicate}
	ErrNoSecondChanceAvailable = &Error{Kind: KindValidation, Code: CodeNoSecondChanceAvailable}
	ErrCardNotInDeck           = &Error{Kind: KindValidation, Code: CodeCardNotInDeck}
	ErrPlayersStillActive      = &Error{Kind: KindValidation, Code: CodePlayersStillActive}
	ErrInvalidCard             = &Error{Kind: KindValidation, Code: CodeInvalidCard}
	ErrDeckExhausted           = &Error{Kind: KindResource, Code: CodeDeckExhausted}
	ErrGameNotStarted          = &Error{Kind: KindState, Code: CodeGameNotStarted}
	ErrGameAlreadyStarted      = &Error{Kind: KindState, Code: CodeGameAlreadyStarted}
	ErrGameComplete            = &Error{Kind: KindState, Code: CodeGameComplete}
	ErrRoundInProgress         = &Error{Kind: KindState, Code: CodeRoundInProgress}
	ErrNoActiveRound           = &Error{Kind: KindState, Code: CodeNoActiveRound}
	ErrSaveFailed              = &Error{Kind: KindPersistence, Code: CodeSaveFailed}
	ErrLoadFailed              = &Error{Kind: KindPersistence, Code: CodeLoadFailed}
	ErrGameNotFound            = &Error{Kind: KindPersistence, Code: CodeGameNotFound}
	ErrStateDiverged           = &Error{Kind: KindPersistence, Code: CodeStateDiverged}
	ErrCorruptLog              = &Error{Kind: KindPersistence, Code: CodeCorruptLog}
)

// Error is a classified domain failure.
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates an error for code with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Kind:    codeKinds[code],
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an error for code that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    codeKinds[code],
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
