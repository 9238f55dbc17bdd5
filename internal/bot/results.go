package bot

import (
	"context"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/users"
)

const resultsPageLimit = 100

func (b *Bot) cmdViewResults(ctx context.Context, msg *tgbotapi.Message, u *users.User) {
	f := u.Flags()
	if !f.IsTeacher && !f.IsAdmin {
		b.send(msg.Chat.ID, "Bu buyruq faqat o'qituvchilar va adminlar uchun.")
		return
	}
	st := b.states.get(msg.Chat.ID)
	*st = chatState{step: stepResultsFilter, filterDay: "all", filterDegree: "all"}
	b.sendMarkup(msg.Chat.ID, "O'quvchilar natijalarini ko'rish.\n\nFiltrni tanlang:", filtersKeyboard())
}

func (b *Bot) filterPicked(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, st *chatState, val string) {
	f := u.Flags()
	if !f.IsTeacher && !f.IsAdmin {
		b.ackAlert(cb.ID, "Ruxsat yo'q.")
		return
	}
	if st.step != stepResultsFilter {
		b.ack(cb.ID, "")
		return
	}
	switch {
	case strings.HasPrefix(val, "day:"):
		st.filterDay = strings.TrimPrefix(val, "day:")
		b.ack(cb.ID, "Kun: "+st.filterDay)
	case strings.HasPrefix(val, "degree:"):
		st.filterDegree = strings.TrimPrefix(val, "degree:")
		b.ack(cb.ID, "Daraja: "+st.filterDegree)
	case val == "show":
		b.ack(cb.ID, "")
		b.showResults(ctx, cb.Message.Chat.ID, st)
	default:
		b.ack(cb.ID, "")
	}
}

func (b *Bot) showResults(ctx context.Context, chatID int64, st *chatState) {
	from, to := dayWindow(st.filterDay, time.Now())
	opts := quiz.ListOpts{
		Status: quiz.StatusFinished,
		From:   from,
		To:     to,
		Limit:  resultsPageLimit,
	}
	if st.filterDegree != "" && st.filterDegree != "all" {
		opts.Level = st.filterDegree
	}
	rows, err := b.engine.ListSessions(ctx, opts)
	if err != nil {
		log.Printf("bot: list sessions: %v", err)
		b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		return
	}
	b.states.clear(chatID)

	if len(rows) == 0 {
		b.send(chatID, "Natijalar topilmadi.")
		return
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, formatResultRow(row))
	}
	for _, chunk := range chunkMessage("📊 <b>O'quvchilar natijalari:</b>\n", lines, 4000) {
		b.send(chatID, chunk)
	}
}
