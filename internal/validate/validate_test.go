package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordduel/internal/game"
	"github.com/robalobadob/wordduel/internal/words"
)

func chosen(t *testing.T, w1, w2 string) game.State {
	t.Helper()
	s, err := game.Default().WithWord(game.P1, w1)
	require.NoError(t, err)
	s, err = s.WithWord(game.P2, w2)
	require.NoError(t, err)
	return s
}

func TestAcceptAll(t *testing.T) {
	r := AcceptAll{}
	assert.True(t, r.Valid(game.P1, "", game.Default()))
	assert.True(t, r.Valid(game.P2, "anything at all", game.Default()))
}

func TestMatchLength(t *testing.T) {
	s := chosen(t, "alpha", "beta")
	r := MatchLength{}

	assert.True(t, r.Valid(game.P1, "gold", s), "p1 guesses p2's 4-letter word")
	assert.False(t, r.Valid(game.P1, "golds", s))
	assert.True(t, r.Valid(game.P2, "omega", s))
	assert.False(t, r.Valid(game.P1, "gold", game.Default()), "no secret yet")
}

func TestMatchLengthIgnoresSurroundingSpace(t *testing.T) {
	r := MatchLength{}
	padded := " abc "
	legacy := game.Default()
	legacy.Users[game.P2].Word = &padded

	tests := []struct {
		name  string
		state game.State
		guess string
		want  bool
	}{
		{"trimmed on choose", chosen(t, "abc", "abc "), "abc", true},
		{"padded guess", chosen(t, "abc", "abc "), "abc ", true},
		{"wrong length", chosen(t, "abc", "abc "), "abcd", false},
		{"padded secret on record", legacy, "abc", true},
		{"padded secret, wrong length", legacy, "abcd", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Valid(game.P1, tt.guess, tt.state))
		})
	}
}

func TestDictionary(t *testing.T) {
	r := Dictionary{Words: words.New([]string{"crane", "slate"})}
	assert.True(t, r.Valid(game.P1, "CRANE", game.Default()))
	assert.False(t, r.Valid(game.P1, "xxxxx", game.Default()))
}

func TestParse(t *testing.T) {
	list := words.New([]string{"crane", "slate", "at"})
	s := chosen(t, "crane", "slate")

	tests := []struct {
		name    string
		guess   string
		want    bool
		wantErr bool
	}{
		{"", "zz", true, false},
		{"any", "zz", true, false},
		{"length", "zzzzz", true, false},
		{"dictionary", "at", true, false},
		{"length+dictionary", "at", false, false},
		{"length+dictionary", "crane", true, false},
		{"bogus", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.guess, func(t *testing.T) {
			r, err := Parse(tt.name, list)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Valid(game.P1, tt.guess, s))
		})
	}

	_, err := Parse("dictionary", nil)
	assert.Error(t, err)
	assert.True(t, NeedsWords("Length+Dictionary"))
	assert.False(t, NeedsWords("length"))
}
