package vocab

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidLevel = errors.New("unknown level")
	ErrUnitLimit    = errors.New("no free unit slot")
	ErrEmptyWord    = errors.New("word has an empty side")
)

type Store interface {
	// CreateUnit inserts a unit under a level. number 0 means auto: the
	// lowest free slot in 1..MaxUnitsPerLevel.
	CreateUnit(ctx context.Context, level, name string, number int) (Unit, error)
	Units(ctx context.Context, level string) ([]Unit, error)
	GetUnit(ctx context.Context, id string) (Unit, error)
	// DeleteUnit removes the unit and, through it, its word lists and words.
	DeleteUnit(ctx context.Context, id string) error

	// CreateWordList inserts the list and its words in one transaction.
	CreateWordList(ctx context.Context, wl WordList, words []Word) (WordList, error)
	WordLists(ctx context.Context, unitID string) ([]WordList, error)
	GetWordList(ctx context.Context, id string) (WordList, error)
	DeleteWordList(ctx context.Context, id string) error

	Words(ctx context.Context, wordListID string) ([]Word, error)
	// WordsForLevel collects every word reachable under a level, across all
	// of its units and word lists.
	WordsForLevel(ctx context.Context, level string) ([]Word, error)
}
