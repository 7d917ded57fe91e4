// internal/words/words.go
//
// Word list management for the dictionary guess rule.
//
// Responsibilities:
//   - Load a dictionary from a configured file or fall back to the embedded default.
//   - Keep a set for quick membership lookups.
//
// Loading behavior (Load):
//   1. If path is non-empty, read one word per line from that file.
//   2. Otherwise use assets/words.txt.
//
// Constraints:
//   • Words must be alphabetic (Unicode letters); anything else is skipped.
//   • Lists are normalized to lowercase.

package words

import (
	"bufio"
	"errors"
	"os"
	"strings"
	"unicode"

	"github.com/robalobadob/wordduel/assets"
)

// ErrEmpty is returned when a dictionary source yields no usable words.
var ErrEmpty = errors.New("words: list is empty")

// List is an immutable dictionary.
type List struct {
	words []string
	set   map[string]struct{}
}

// Load reads the dictionary from path, or from the embedded default when path is "".
func Load(path string) (*List, error) {
	var raw []string
	var err error
	if path != "" {
		raw, err = readWordFile(path)
	} else {
		raw, err = assets.WordList()
	}
	if err != nil {
		return nil, err
	}
	l := New(raw)
	if l.Len() == 0 {
		return nil, ErrEmpty
	}
	return l, nil
}

// New builds a List from raw words, normalizing and dropping invalid entries.
func New(raw []string) *List {
	l := &List{set: make(map[string]struct{}, len(raw))}
	for _, w := range raw {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" || !isAlpha(w) {
			continue
		}
		if _, dup := l.set[w]; dup {
			continue
		}
		l.set[w] = struct{}{}
		l.words = append(l.words, w)
	}
	return l
}

// readWordFile loads one word per line from a file.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// isAlpha reports whether s consists only of letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Contains reports whether w is in the list (case-insensitive).
func (l *List) Contains(w string) bool {
	if l == nil {
		return false
	}
	_, ok := l.set[strings.ToLower(strings.TrimSpace(w))]
	return ok
}

// Len returns the number of words loaded.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.words)
}
