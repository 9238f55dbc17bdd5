package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Sardorious/test-me/internal/quiz"
)

// Messages go out with ParseMode HTML, so anything user-supplied (words,
// answers, names) is escaped before interpolation.
func escape(s string) string { return html.EscapeString(s) }

func directionLabel(d quiz.Direction) string {
	if d == quiz.UzToTr {
		return "UZ ➜ TR"
	}
	return "TR ➜ UZ"
}

func formatPrompt(q *quiz.Prompt) string {
	if q.ShownLang == "tr" {
		return fmt.Sprintf("#%d. Turkcha so'z: <b>%s</b>\nJavob sifatida o'zbekcha tarjimasini yozing.",
			q.Position, escape(q.Text))
	}
	return fmt.Sprintf("#%d. O'zbekcha so'z: <b>%s</b>\nJavob sifatida turkcha tarjimasini yozing.",
		q.Position, escape(q.Text))
}

func formatResult(r quiz.Result) string {
	return fmt.Sprintf(
		"Test yakunlandi!\n\n"+
			"Umumiy savollar: <b>%d</b>\n"+
			"To'g'ri javoblar: <b>%d</b>\n"+
			"Javobsiz (yo'q / bo'sh): <b>%d</b>\n"+
			"Natija: <b>%d%%</b>",
		r.Total, r.Correct, r.NoAnswer, r.Percent)
}

func formatResultRow(row quiz.SessionRow) string {
	name := strings.TrimSpace(row.StudentName)
	if name == "" {
		name = "Noma'lum"
	}
	when := ""
	if row.FinishedAt != nil {
		when = row.FinishedAt.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf(
		"\n👤 <b>%s</b>\n📅 %s\n🎓 %s | %s\n✅ %d/%d (%d%%)\n%s",
		escape(name), when, row.Level, directionLabel(row.Direction),
		row.Correct, row.Total, row.Percent, strings.Repeat("─", 20))
}

// chunkMessage splits a long listing into Telegram-sized chunks, breaking
// only at the given row boundaries.
func chunkMessage(header string, rows []string, max int) []string {
	var out []string
	cur := header
	for _, row := range rows {
		if len(cur)+len(row) > max && cur != "" {
			out = append(out, cur)
			cur = ""
		}
		cur += row
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

// dayWindow translates a filter keyword into a [from, to) interval over
// finished_at. Zero bounds mean unbounded.
func dayWindow(key string, now time.Time) (time.Time, time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch key {
	case "today":
		return midnight, midnight.AddDate(0, 0, 1)
	case "yesterday":
		return midnight.AddDate(0, 0, -1), midnight
	case "week":
		return now.AddDate(0, 0, -7), time.Time{}
	case "month":
		return now.AddDate(0, 0, -30), time.Time{}
	default:
		return time.Time{}, time.Time{}
	}
}
