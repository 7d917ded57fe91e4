// Package validate holds the pluggable guess-validity rules.
//
// A Rule is pure: it looks at the guessing player, the proposed guess and the
// current record, and answers yes or no. The controller consults it before the
// store records anything.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/words"
)

// Rule decides whether a guess may be submitted.
type Rule interface {
	Valid(player game.PlayerID, guess string, state game.State) bool
}

// RuleFunc adapts a plain function to Rule.
type RuleFunc func(player game.PlayerID, guess string, state game.State) bool

func (f RuleFunc) Valid(player game.PlayerID, guess string, state game.State) bool {
	return f(player, guess, state)
}

// AcceptAll accepts every guess.
type AcceptAll struct{}

func (AcceptAll) Valid(game.PlayerID, string, game.State) bool { return true }

// MatchLength accepts guesses with as many letters as the opponent's secret.
// Surrounding space is ignored on both sides, as in game.Matches.
type MatchLength struct{}

func (MatchLength) Valid(player game.PlayerID, guess string, state game.State) bool {
	opp, ok := state.Player(player.Opponent())
	if !ok || !opp.HasWord() {
		return false
	}
	return letters(guess) == letters(opp.Secret())
}

func letters(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

// Dictionary accepts guesses present in Words.
type Dictionary struct {
	Words *words.List
}

func (d Dictionary) Valid(_ game.PlayerID, guess string, _ game.State) bool {
	return d.Words.Contains(guess)
}

// All accepts a guess only when every rule does.
func All(rules ...Rule) Rule {
	return RuleFunc(func(player game.PlayerID, guess string, state game.State) bool {
		for _, r := range rules {
			if !r.Valid(player, guess, state) {
				return false
			}
		}
		return true
	})
}

// Parse maps a GUESS_RULE value to a Rule.
// Names may be joined with '+' ("length+dictionary"). list is only needed for "dictionary".
func Parse(name string, list *words.List) (Rule, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "any" {
		return AcceptAll{}, nil
	}
	var rules []Rule
	for _, part := range strings.Split(name, "+") {
		switch strings.TrimSpace(part) {
		case "any":
			rules = append(rules, AcceptAll{})
		case "length":
			rules = append(rules, MatchLength{})
		case "dictionary":
			if list == nil {
				return nil, fmt.Errorf("validate: rule %q needs a word list", part)
			}
			rules = append(rules, Dictionary{Words: list})
		default:
			return nil, fmt.Errorf("validate: unknown rule %q", part)
		}
	}
	if len(rules) == 1 {
		return rules[0], nil
	}
	return All(rules...), nil
}

// NeedsWords reports whether the named rule set includes the dictionary.
func NeedsWords(name string) bool {
	for _, part := range strings.Split(strings.ToLower(name), "+") {
		if strings.TrimSpace(part) == "dictionary" {
			return true
		}
	}
	return false
}
