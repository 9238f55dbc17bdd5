package vocab

import (
	"errors"
	"fmt"
	"strings"
)

// ParsePairs parses uploaded text with one pair per line:
//
//	turkish - uzbek
//
// The uzbek side may pack alternates with ';'. Blank lines are skipped.
func ParsePairs(text string) ([]Word, error) {
	var out []Word
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " - ", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"turkish - uzbek\"", i+1)
		}
		tr := strings.TrimSpace(parts[0])
		uz := strings.TrimSpace(parts[1])
		if tr == "" || uz == "" {
			return nil, fmt.Errorf("line %d: %w", i+1, ErrEmptyWord)
		}
		out = append(out, Word{Turkish: tr, Uzbek: uz})
	}
	if len(out) == 0 {
		return nil, errors.New("no word pairs found")
	}
	return out, nil
}
