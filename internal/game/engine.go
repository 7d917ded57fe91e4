// internal/game/engine.go
//
// Pure state operations for the word duel.
// Responsibilities:
//   - Build the default two-seat record.
//   - Apply the two sanctioned mutations (choose word, add guess) to a copy.
//   - Score a guess against a secret using the two-pass Wordle algorithm.
//
// Notes:
//   - Nothing here persists; the store package owns load/save.
//   - Mutations never touch the receiver, so a rejected call leaves no trace.
package game

import (
	"strings"
)

var defaultNames = map[PlayerID]string{
	P1: "Player 1",
	P2: "Player 2",
}

// Default returns a fresh record: both seats present, no words, no guesses.
func Default() State {
	s := State{Users: make(map[PlayerID]*Player, len(Players))}
	for _, id := range Players {
		s.Users[id] = &Player{Name: defaultNames[id], Guesses: []string{}}
	}
	return s
}

// Valid reports whether the record has exactly the two fixed seats.
// Anything else (older formats, hand-edited data) is treated as absent by the store.
func (s State) Valid() bool {
	if len(s.Users) != len(Players) {
		return false
	}
	for _, id := range Players {
		if s.Users[id] == nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{Users: make(map[PlayerID]*Player, len(s.Users))}
	for id, p := range s.Users {
		if p == nil {
			out.Users[id] = nil
			continue
		}
		cp := &Player{Name: p.Name, Guesses: append([]string{}, p.Guesses...)}
		if p.Word != nil {
			w := *p.Word
			cp.Word = &w
		}
		out.Users[id] = cp
	}
	return out
}

// Player returns the seat's record. ok is false for an unknown id.
func (s State) Player(id PlayerID) (*Player, bool) {
	p, ok := s.Users[id]
	return p, ok && p != nil
}

// BothChosen reports whether both secret words are set.
func (s State) BothChosen() bool {
	for _, id := range Players {
		if p, ok := s.Player(id); !ok || !p.HasWord() {
			return false
		}
	}
	return true
}

// WithWord returns a copy of s where id's secret word is word.
//
// Rules:
//   - surrounding space is dropped; what remains must be non-empty (ErrEmptyWord).
//   - a chosen word is final (ErrWordAlreadySet).
func (s State) WithWord(id PlayerID, word string) (State, error) {
	p, ok := s.Player(id)
	if !ok {
		return s, ErrUnknownPlayer
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return s, ErrEmptyWord
	}
	if p.HasWord() {
		return s, ErrWordAlreadySet
	}
	next := s.Clone()
	w := word
	next.Users[id].Word = &w
	return next, nil
}

// WithGuess returns a copy of s with guess prepended to id's history.
// Validity is decided by the caller's rule; this only records.
func (s State) WithGuess(id PlayerID, guess string) (State, error) {
	if _, ok := s.Player(id); !ok {
		return s, ErrUnknownPlayer
	}
	next := s.Clone()
	p := next.Users[id]
	p.Guesses = append([]string{guess}, p.Guesses...)
	return next, nil
}

// Solved reports whether id's latest guess equals the opponent's secret.
func (s State) Solved(id PlayerID) bool {
	p, ok := s.Player(id)
	if !ok || len(p.Guesses) == 0 {
		return false
	}
	opp, ok := s.Player(id.Opponent())
	if !ok || !opp.HasWord() {
		return false
	}
	return Matches(opp.Secret(), p.Guesses[0])
}

// Matches compares a guess with a secret, ignoring case and surrounding space.
func Matches(secret, guess string) bool {
	return normalize(secret) == normalize(guess)
}

// Score implements the standard Wordle two-pass scoring algorithm.
//
// Pass 1:
//   - Mark exact matches as Hit.
//   - Count remaining (non-hit) secret letters.
//
// Pass 2:
//   - For each non-hit guess letter: if there is remaining count for that letter,
//     mark Present and decrement the count; otherwise mark Miss.
//
// Guess letters past the end of the secret can never be Hit.
func Score(secret, guess string) []Mark {
	sr := []rune(normalize(secret))
	gr := []rune(normalize(guess))
	res := make([]Mark, len(gr))

	counts := make(map[rune]int, len(sr))
	for i, r := range sr {
		if i < len(gr) && gr[i] == r {
			res[i] = MarkHit
			continue
		}
		counts[r]++
	}

	for i, r := range gr {
		if res[i] == MarkHit {
			continue
		}
		if counts[r] > 0 {
			res[i] = MarkPresent
			counts[r]--
		} else {
			res[i] = MarkMiss
		}
	}
	return res
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
