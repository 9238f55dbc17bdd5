package vocab

import "time"

// Levels is the fixed CEFR ladder vocabulary is grouped under. They are an
// enumeration, not rows: content always hangs off one of these six values.
var Levels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

func ValidLevel(s string) bool {
	for _, l := range Levels {
		if s == l {
			return true
		}
	}
	return false
}

// MaxUnitsPerLevel bounds unit numbering within one level.
const MaxUnitsPerLevel = 20

type Unit struct {
	ID        string    `json:"id"`
	Level     string    `json:"level"`
	Number    int       `json:"unit_number"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type WordList struct {
	ID        string    `json:"id"`
	UnitID    string    `json:"unit_id"`
	OwnerID   string    `json:"owner_id,omitempty"` // empty once the owner is deleted
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Word struct {
	ID              string `json:"id"`
	WordListID      string `json:"word_list_id"`
	Turkish         string `json:"turkish"`
	Uzbek           string `json:"uzbek"` // may pack alternates with ';'
	ExampleSentence string `json:"example_sentence,omitempty"`
	Note            string `json:"note,omitempty"`
}
