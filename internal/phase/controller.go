// internal/phase/controller.go
//
// Phase Controller: turns player actions into store mutations and decides
// where to navigate next.
//
// Transitions:
//
//	Home            --start-->                         ChooseWord(p1)
//	ChooseWord(a)   --word, opponent unset-->          ChooseWord(opponent)
//	ChooseWord(a)   --word, opponent set-->            Guess(p1)
//	Guess(a)        --guess-->                         Guess(opponent)
//	Guess(a)        --guess == opponent's word-->      Won(a)
//	any             --reset-->                         Home
//
// Navigation is signalled only after the store has persisted the mutation.
package phase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/store"
	"github.com/robalobadob/wordduel/internal/validate"
)

// ErrWrongPhase is returned for an action the current phase doesn't accept.
var ErrWrongPhase = errors.New("wrong phase")

// Navigator is told where to go after an accepted action.
type Navigator interface {
	Navigate(ctx context.Context, to Phase)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, to Phase)

func (f NavigatorFunc) Navigate(ctx context.Context, to Phase) { f(ctx, to) }

type noopNavigator struct{}

func (noopNavigator) Navigate(context.Context, Phase) {}

// Controller drives one game record.
// Actions are serialized: one device, one logical thread of control.
type Controller struct {
	mu    sync.Mutex
	store *store.Store
	rule  validate.Rule
	nav   Navigator
	log   zerolog.Logger
}

// New builds a Controller. A nil rule accepts every guess; a nil nav discards navigation.
func New(st *store.Store, rule validate.Rule, nav Navigator) *Controller {
	if rule == nil {
		rule = validate.AcceptAll{}
	}
	if nav == nil {
		nav = noopNavigator{}
	}
	return &Controller{
		store: st,
		rule:  rule,
		nav:   nav,
		log:   log.With().Str("component", "phase").Str("key", st.Key()).Logger(),
	}
}

// Current reloads the record and returns it with the phase it resolves to.
func (c *Controller) Current(ctx context.Context) (game.State, Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.store.Load(ctx)
	return st, Resolve(st)
}

// Start leaves Home for ChooseWord(p1). A game already under way is resumed
// where it stands instead.
func (c *Controller) Start(ctx context.Context) Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := Resolve(c.store.Load(ctx))
	if next.Kind == KindHome {
		next = ChooseWordFor(game.P1)
	}
	c.log.Debug().Str("to", next.Route()).Msg("transition")
	c.nav.Navigate(ctx, next)
	return next
}

// ChooseWord records active's secret word.
// The next phase is the opponent's ChooseWord while their word is unset, and
// Guess(p1) once both are chosen, whoever chose last.
func (c *Controller) ChooseWord(ctx context.Context, active game.PlayerID, word string) (Phase, error) {
	if !active.Valid() {
		return Phase{}, fmt.Errorf("%w: %q", game.ErrUnknownPlayer, string(active))
	}
	if strings.TrimSpace(word) == "" {
		return Phase{}, game.ErrEmptyWord
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	st, err := c.store.SetWord(ctx, active, word)
	if err != nil {
		return Phase{}, err
	}

	opponent := active.Opponent()
	next := GuessFor(game.P1)
	if p, _ := st.Player(opponent); !p.HasWord() {
		next = ChooseWordFor(opponent)
	}
	c.log.Debug().Str("player", active.String()).Str("to", next.Route()).Msg("transition")
	c.nav.Navigate(ctx, next)
	return next, nil
}

// SubmitGuess records active's guess at the opponent's word and hands the
// turn over. The marks score the guess against the opponent's secret.
//
// Errors:
//   - ErrWrongPhase: words not both chosen, game already won, or not active's turn.
//   - game.ErrGuessRejected: the validity rule said no.
func (c *Controller) SubmitGuess(ctx context.Context, active game.PlayerID, guess string) (Phase, []game.Mark, error) {
	if !active.Valid() {
		return Phase{}, nil, fmt.Errorf("%w: %q", game.ErrUnknownPlayer, string(active))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := Resolve(c.store.Load(ctx))
	if cur != GuessFor(active) {
		return Phase{}, nil, fmt.Errorf("%w: at %s", ErrWrongPhase, cur.Route())
	}

	st, err := c.store.AddGuess(ctx, active, guess, c.rule)
	if err != nil {
		return Phase{}, nil, err
	}

	opponent := active.Opponent()
	opp, _ := st.Player(opponent)
	marks := game.Score(opp.Secret(), guess)

	next := GuessFor(opponent)
	if st.Solved(active) {
		next = WonBy(active)
	}
	c.log.Debug().Str("player", active.String()).Str("to", next.Route()).Msg("transition")
	c.nav.Navigate(ctx, next)
	return next, marks, nil
}

// Reset clears the record from any phase and returns Home.
func (c *Controller) Reset(ctx context.Context) (Phase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.store.Reset(ctx); err != nil {
		return Phase{}, err
	}
	next := HomePhase()
	c.nav.Navigate(ctx, next)
	return next, nil
}

// Resolve derives the phase a record is in.
//
//   - no words chosen               → Home
//   - one word chosen               → ChooseWord(the other player, p1 first)
//   - a latest guess hits the word  → Won(that player)
//   - otherwise                     → Guess(p1) while p1 has no more guesses than p2, else Guess(p2)
func Resolve(st game.State) Phase {
	if !st.Valid() {
		return HomePhase()
	}
	p1, p2 := st.Users[game.P1], st.Users[game.P2]
	switch {
	case !p1.HasWord() && !p2.HasWord():
		return HomePhase()
	case !p1.HasWord():
		return ChooseWordFor(game.P1)
	case !p2.HasWord():
		return ChooseWordFor(game.P2)
	}
	for _, id := range game.Players {
		if st.Solved(id) {
			return WonBy(id)
		}
	}
	if len(p1.Guesses) <= len(p2.Guesses) {
		return GuessFor(game.P1)
	}
	return GuessFor(game.P2)
}
