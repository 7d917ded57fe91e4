// internal/phase/phase.go
//
// Game phases and their routes.
//
//	/                    Home
//	/choose-word/{p}     ChooseWord(p)
//	/guess/{p}           Guess(p)
//	/won/{p}             Won(p)
package phase

import (
	"errors"
	"strings"

	"github.com/robalobadob/wordduel/internal/game"
)

// Kind is the stage of the game.
type Kind string

const (
	KindHome       Kind = "home"
	KindChooseWord Kind = "choose-word"
	KindGuess      Kind = "guess"
	KindWon        Kind = "won"
)

var ErrUnknownRoute = errors.New("unknown route")

// Phase is a stage plus the active player (empty for Home).
type Phase struct {
	Kind   Kind          `json:"kind"`
	Player game.PlayerID `json:"player,omitempty"`
}

func HomePhase() Phase { return Phase{Kind: KindHome} }
func ChooseWordFor(p game.PlayerID) Phase { return Phase{Kind: KindChooseWord, Player: p} }
func GuessFor(p game.PlayerID) Phase { return Phase{Kind: KindGuess, Player: p} }
func WonBy(p game.PlayerID) Phase { return Phase{Kind: KindWon, Player: p} }

// Route returns the navigation path for the phase.
func (p Phase) Route() string {
	if p.Kind == KindHome {
		return "/"
	}
	return "/" + string(p.Kind) + "/" + string(p.Player)
}

func (p Phase) String() string { return p.Route() }

// ParseRoute is the inverse of Route. A valid route with an unrecognized
// player reports game.ErrUnknownPlayer; anything else is ErrUnknownRoute.
func ParseRoute(path string) (Phase, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return HomePhase(), nil
	}
	kind, player, ok := strings.Cut(path, "/")
	if !ok || strings.Contains(player, "/") {
		return Phase{}, ErrUnknownRoute
	}
	switch Kind(kind) {
	case KindChooseWord, KindGuess, KindWon:
	default:
		return Phase{}, ErrUnknownRoute
	}
	id, err := game.ParsePlayerID(player)
	if err != nil {
		return Phase{}, err
	}
	return Phase{Kind: Kind(kind), Player: id}, nil
}
