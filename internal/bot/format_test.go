package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/Sardorious/test-me/internal/quiz"
)

func TestFormatPromptBothDirections(t *testing.T) {
	tr := formatPrompt(&quiz.Prompt{Position: 3, Total: 10, ShownLang: "tr", Text: "ekmek"})
	if !strings.Contains(tr, "#3.") || !strings.Contains(tr, "Turkcha so'z: <b>ekmek</b>") {
		t.Errorf("tr prompt = %q", tr)
	}
	if !strings.Contains(tr, "o'zbekcha tarjimasini") {
		t.Errorf("tr prompt should ask for the uzbek side, got %q", tr)
	}

	uz := formatPrompt(&quiz.Prompt{Position: 1, Total: 10, ShownLang: "uz", Text: "non"})
	if !strings.Contains(uz, "O'zbekcha so'z: <b>non</b>") || !strings.Contains(uz, "turkcha tarjimasini") {
		t.Errorf("uz prompt = %q", uz)
	}
}

func TestFormatPromptEscapesWordText(t *testing.T) {
	got := formatPrompt(&quiz.Prompt{Position: 1, ShownLang: "tr", Text: "a<b>&c"})
	if strings.Contains(got, "<b>a<b>") {
		t.Fatalf("markup not escaped: %q", got)
	}
	if !strings.Contains(got, "a&lt;b&gt;&amp;c") {
		t.Errorf("escaped text missing: %q", got)
	}
}

func TestFormatResult(t *testing.T) {
	got := formatResult(quiz.Result{Total: 20, Correct: 13, NoAnswer: 4, Percent: 65})
	for _, want := range []string{
		"Umumiy savollar: <b>20</b>",
		"To'g'ri javoblar: <b>13</b>",
		"Javobsiz (yo'q / bo'sh): <b>4</b>",
		"Natija: <b>65%</b>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("result text missing %q:\n%s", want, got)
		}
	}
}

func TestFormatResultRow(t *testing.T) {
	fin := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	row := quiz.SessionRow{
		Session: quiz.Session{
			Level:      "B1",
			Direction:  quiz.UzToTr,
			FinishedAt: &fin,
		},
		StudentName: "Aziz <A>",
		Result:      quiz.Result{Total: 10, Correct: 7, Percent: 70},
	}
	got := formatResultRow(row)
	for _, want := range []string{"Aziz &lt;A&gt;", "2025-03-14 09:30", "B1 | UZ ➜ TR", "7/10 (70%)"} {
		if !strings.Contains(got, want) {
			t.Errorf("row missing %q:\n%s", want, got)
		}
	}

	anon := formatResultRow(quiz.SessionRow{})
	if !strings.Contains(anon, "Noma'lum") {
		t.Errorf("nameless row should fall back, got:\n%s", anon)
	}
}

func TestChunkMessageKeepsRowsIntact(t *testing.T) {
	rows := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
	}
	chunks := chunkMessage("HDR:", rows, 50)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3: %q", len(chunks), chunks)
	}
	if !strings.HasPrefix(chunks[0], "HDR:") {
		t.Errorf("first chunk lost the header: %q", chunks[0])
	}
	joined := strings.Join(chunks, "")
	for _, row := range rows {
		if !strings.Contains(joined, row) {
			t.Errorf("row %q lost in chunking", row[:1])
		}
	}
}

func TestChunkMessageSingleChunk(t *testing.T) {
	chunks := chunkMessage("h", []string{"one", "two"}, 4000)
	if len(chunks) != 1 || chunks[0] != "honetwo" {
		t.Fatalf("chunks = %q", chunks)
	}
}

func TestDayWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC)
	midnight := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	from, to := dayWindow("today", now)
	if !from.Equal(midnight) || !to.Equal(midnight.AddDate(0, 0, 1)) {
		t.Errorf("today = [%v, %v)", from, to)
	}

	from, to = dayWindow("yesterday", now)
	if !from.Equal(midnight.AddDate(0, 0, -1)) || !to.Equal(midnight) {
		t.Errorf("yesterday = [%v, %v)", from, to)
	}

	from, to = dayWindow("week", now)
	if !from.Equal(now.AddDate(0, 0, -7)) || !to.IsZero() {
		t.Errorf("week = [%v, %v)", from, to)
	}

	from, to = dayWindow("all", now)
	if !from.IsZero() || !to.IsZero() {
		t.Errorf("all should be unbounded, got [%v, %v)", from, to)
	}
}

func TestDirectionLabel(t *testing.T) {
	if got := directionLabel(quiz.TrToUz); got != "TR ➜ UZ" {
		t.Errorf("TrToUz label = %q", got)
	}
	if got := directionLabel(quiz.UzToTr); got != "UZ ➜ TR" {
		t.Errorf("UzToTr label = %q", got)
	}
}
