// internal/store/store.go
//
// State Store: owns one persisted game record.
// Responsibilities:
//   - Load the record from its Slot, falling back to the default record when
//     it is missing or unreadable.
//   - Apply the sanctioned mutations (choose word, add guess) and write the
//     full record after each accepted one.
//   - Reset: clear the slot and start over.
//
// Notes:
//   - Every mutation re-reads the slot first, so several Store values (or
//     server instances) pointed at the same key never write stale data over
//     each other within one mutation.
//   - Rejected mutations never write.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/validate"
)

// DefaultKey is the slot key used when none is configured.
const DefaultKey = "state"

// Store binds a game record to one key in a Slot.
type Store struct {
	mu    sync.Mutex
	slot  Slot
	key   string
	state game.State
	log   zerolog.Logger
}

// Open creates a Store for key and loads its current record.
func Open(ctx context.Context, slot Slot, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	s := &Store{
		slot: slot,
		key:  key,
		log:  log.With().Str("component", "store").Str("key", key).Logger(),
	}
	s.Load(ctx)
	return s
}

// Key returns the slot key this store persists to.
func (s *Store) Key() string { return s.key }

// Current returns a copy of the last loaded or written record.
func (s *Store) Current() game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Load reads the record from the slot.
// Absent, unreadable or malformed records all yield game.Default(); the
// failure is logged, never returned.
func (s *Store) Load(ctx context.Context) game.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.read(ctx)
	return s.state.Clone()
}

func (s *Store) read(ctx context.Context) game.State {
	b, ok, err := s.slot.Get(ctx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Msg("read record; using default")
		return game.Default()
	}
	if !ok {
		return game.Default()
	}
	st, err := Decode(b)
	if err != nil {
		s.log.Warn().Err(err).Msg("malformed record; using default")
		return game.Default()
	}
	return st
}

var errUnexpectedShape = errors.New("decode record: unexpected shape")

// Decode parses a persisted record. Records that don't have exactly the two
// seats are rejected the same way as invalid JSON. A blank word is read as
// not chosen.
func Decode(b []byte) (game.State, error) {
	var st game.State
	if err := json.Unmarshal(b, &st); err != nil {
		return game.State{}, fmt.Errorf("decode record: %w", err)
	}
	if !st.Valid() {
		return game.State{}, errUnexpectedShape
	}
	for _, p := range st.Users {
		if p.Guesses == nil {
			p.Guesses = []string{}
		}
		if p.Word != nil && strings.TrimSpace(*p.Word) == "" {
			p.Word = nil
		}
	}
	return st, nil
}

// Save writes the full record, overwriting whatever the slot held.
func (s *Store) Save(ctx context.Context, st game.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, st)
}

func (s *Store) write(ctx context.Context, st game.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := s.slot.Set(ctx, s.key, b); err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	s.state = st.Clone()
	return nil
}

// Update re-reads the record, applies fn and persists the result.
// If fn returns an error nothing is written and the error is returned as is.
func (s *Store) Update(ctx context.Context, fn func(game.State) (game.State, error)) (game.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.read(ctx)
	s.state = cur
	next, err := fn(cur.Clone())
	if err != nil {
		return cur.Clone(), err
	}
	if err := s.write(ctx, next); err != nil {
		return cur.Clone(), err
	}
	return next.Clone(), nil
}

// SetWord records id's secret word.
// Empty words (game.ErrEmptyWord) and second choices (game.ErrWordAlreadySet) are rejected.
func (s *Store) SetWord(ctx context.Context, id game.PlayerID, word string) (game.State, error) {
	st, err := s.Update(ctx, func(st game.State) (game.State, error) {
		return st.WithWord(id, word)
	})
	if err == nil {
		s.log.Info().Str("player", id.String()).Msg("word chosen")
	}
	return st, err
}

// AddGuess prepends guess to id's history if rule accepts it (game.ErrGuessRejected otherwise).
func (s *Store) AddGuess(ctx context.Context, id game.PlayerID, guess string, rule validate.Rule) (game.State, error) {
	if !id.Valid() {
		return s.Current(), game.ErrUnknownPlayer
	}
	st, err := s.Update(ctx, func(st game.State) (game.State, error) {
		if !rule.Valid(id, guess, st) {
			return st, game.ErrGuessRejected
		}
		return st.WithGuess(id, guess)
	})
	if err == nil {
		s.log.Info().Str("player", id.String()).Int("guesses", len(st.Users[id].Guesses)).Msg("guess recorded")
	}
	return st, err
}

// Reset clears the slot and returns a fresh default record.
func (s *Store) Reset(ctx context.Context) (game.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.slot.Delete(ctx, s.key); err != nil {
		return s.state.Clone(), fmt.Errorf("clear record: %w", err)
	}
	s.state = game.Default()
	s.log.Info().Msg("record reset")
	return s.state.Clone(), nil
}
