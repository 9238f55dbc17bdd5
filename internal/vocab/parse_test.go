package vocab_test

import (
	"errors"
	"testing"

	"github.com/Sardorious/test-me/internal/vocab"
)

func TestParsePairs(t *testing.T) {
	text := "merhaba - salom; assalomu alaykum\r\n\n  güle güle - xayr  \n"
	words, err := vocab.ParsePairs(text)
	if err != nil {
		t.Fatalf("ParsePairs: %v", err)
	}
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}
	if words[0].Turkish != "merhaba" || words[0].Uzbek != "salom; assalomu alaykum" {
		t.Fatalf("first pair = %+v", words[0])
	}
	if words[1].Turkish != "güle güle" || words[1].Uzbek != "xayr" {
		t.Fatalf("second pair = %+v", words[1])
	}
}

func TestParsePairsRejectsMalformed(t *testing.T) {
	if _, err := vocab.ParsePairs("merhaba salom"); err == nil {
		t.Fatal("expected error for missing separator")
	}
	if _, err := vocab.ParsePairs("merhaba -  "); err == nil {
		t.Fatal("expected error for empty side")
	} else if !errors.Is(err, vocab.ErrEmptyWord) {
		t.Fatalf("want ErrEmptyWord, got %v", err)
	}
	if _, err := vocab.ParsePairs("\n\n"); err == nil {
		t.Fatal("expected error for empty upload")
	}
}
