// internal/game/types.go
//
// Core type definitions for the word duel.
// Defines:
//   - PlayerID: one of the two fixed seats ("p1", "p2").
//   - Player:   display name, secret word and guess history of one seat.
//   - State:    the whole persisted record, keyed by PlayerID.
//   - Mark:     per-letter result of a guess against a secret (hit/present/miss).

package game

import (
	"errors"
	"fmt"
)

// PlayerID identifies one of the two seats at the device.
type PlayerID string

const (
	P1 PlayerID = "p1"
	P2 PlayerID = "p2"
)

// Players lists the seats in turn order.
var Players = []PlayerID{P1, P2}

var (
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrEmptyWord      = errors.New("empty word")
	ErrWordAlreadySet = errors.New("word already set")
	ErrGuessRejected  = errors.New("guess rejected")
)

// ParsePlayerID converts external input (route params, request bodies)
// into a PlayerID. Anything other than "p1"/"p2" is ErrUnknownPlayer.
func ParsePlayerID(s string) (PlayerID, error) {
	id := PlayerID(s)
	if !id.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlayer, s)
	}
	return id, nil
}

// Valid reports whether id is one of the two fixed seats.
func (id PlayerID) Valid() bool { return id == P1 || id == P2 }

// Opponent returns the other seat.
// It panics for an id that did not come through ParsePlayerID: that is a caller bug.
func (id PlayerID) Opponent() PlayerID {
	switch id {
	case P1:
		return P2
	case P2:
		return P1
	}
	panic(fmt.Sprintf("game: opponent of invalid player %q", string(id)))
}

func (id PlayerID) String() string { return string(id) }

// Player holds one seat's data.
// Word is nil until chosen; Guesses are newest first.
type Player struct {
	Name    string   `json:"name"`
	Word    *string  `json:"word"`
	Guesses []string `json:"guesses"`
}

// HasWord reports whether a non-empty secret word has been chosen.
func (p *Player) HasWord() bool { return p != nil && p.Word != nil && *p.Word != "" }

// Secret returns the chosen word or "" when unset.
func (p *Player) Secret() string {
	if !p.HasWord() {
		return ""
	}
	return *p.Word
}

// State is the full game record persisted under a single key.
type State struct {
	Users map[PlayerID]*Player `json:"users"`
}

// Mark represents the evaluation result for a single letter in a guess.
type Mark string

const (
	MarkHit     Mark = "hit"
	MarkPresent Mark = "present"
	MarkMiss    Mark = "miss"
)
