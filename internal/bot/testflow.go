package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/users"
)

func (b *Bot) cmdStartTest(ctx context.Context, msg *tgbotapi.Message, u *users.User) {
	if !u.IsRegistered {
		b.send(msg.Chat.ID, "Iltimos, avval ro'yxatdan o'ting: /start")
		return
	}
	st := b.states.get(msg.Chat.ID)
	*st = chatState{step: stepTestLevel}
	b.sendMarkup(msg.Chat.ID, "Qaysi CEFR darajasida test qilamiz?", levelsKeyboard())
}

func (b *Bot) cmdCancel(ctx context.Context, msg *tgbotapi.Message, u *users.User) {
	st := b.states.get(msg.Chat.ID)
	sessionID := st.sessionID
	b.states.clear(msg.Chat.ID)
	if sessionID == "" {
		b.send(msg.Chat.ID, "Faol test yo'q.")
		return
	}
	if err := b.engine.Cancel(ctx, sessionID); err != nil {
		if errors.Is(err, quiz.ErrAlreadyFinished) || errors.Is(err, quiz.ErrSessionNotFound) {
			b.send(msg.Chat.ID, "Faol test yo'q.")
			return
		}
		log.Printf("bot: cancel session %s: %v", sessionID, err)
		b.send(msg.Chat.ID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		return
	}
	b.send(msg.Chat.ID, "Test bekor qilindi.")
}

func (b *Bot) testLevelPicked(cb *tgbotapi.CallbackQuery, st *chatState, level string) {
	st.level = level
	st.step = stepTestDirection
	b.ack(cb.ID, "")
	b.editMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("Daraja: <b>%s</b>\nYo'nalishni tanlang:", level), directionKeyboard())
}

func (b *Bot) testDirectionPicked(cb *tgbotapi.CallbackQuery, st *chatState, dir string) {
	st.direction = dir
	st.step = stepTestCount
	b.ack(cb.ID, "")
	b.editMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("Daraja: <b>%s</b>\nYo'nalish: <b>%s</b>\nNecha ta savol bo'lsin?",
			st.level, directionLabel(quiz.Direction(dir))), countKeyboard())
}

func (b *Bot) countPicked(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, st *chatState, val string) {
	if st.step != stepTestCount {
		b.ack(cb.ID, "")
		return
	}
	count := 0 // 0 draws every word of the level
	if val != "all" {
		n, err := strconv.Atoi(val)
		if err != nil || n <= 0 {
			b.ack(cb.ID, "")
			return
		}
		count = n
	}
	b.ack(cb.ID, "")
	chatID := cb.Message.Chat.ID

	sess, err := b.engine.CreateSession(ctx, u.ID, st.level, quiz.Direction(st.direction), count)
	if err != nil {
		level := st.level
		b.states.clear(chatID)
		if errors.Is(err, quiz.ErrNoContent) {
			b.edit(chatID, cb.Message.MessageID, fmt.Sprintf(
				"Bu darajada (%s) hali so'zlar yuklanmagan. O'qituvchidan so'zlar qo'shishni so'rang.", level))
			return
		}
		log.Printf("bot: create session for %s: %v", u.ID, err)
		b.edit(chatID, cb.Message.MessageID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		return
	}

	q, err := b.engine.CurrentQuestion(ctx, sess.ID)
	if err != nil {
		log.Printf("bot: first question of %s: %v", sess.ID, err)
		b.states.clear(chatID)
		b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		return
	}
	st.step = stepTestAnswer
	st.sessionID = sess.ID
	st.position = q.Position
	b.edit(chatID, cb.Message.MessageID, fmt.Sprintf(
		"Daraja: <b>%s</b>\nYo'nalish: <b>%s</b>\nSavollar soni: <b>%d</b>\n\nTest boshlandi!",
		sess.Level, directionLabel(sess.Direction), sess.TotalQuestions))
	b.sendPrompt(chatID, q)
}

// answerMessage grades free text against the question the chat is on.
func (b *Bot) answerMessage(ctx context.Context, msg *tgbotapi.Message, st *chatState) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	prog, err := b.engine.Submit(ctx, st.sessionID, st.position, text)
	b.applyProgress(ctx, msg.Chat.ID, st, prog, err)
}

func (b *Bot) controlPicked(ctx context.Context, cb *tgbotapi.CallbackQuery, st *chatState, action string) {
	if st.step != stepTestAnswer || st.sessionID == "" {
		b.ack(cb.ID, "Faol test yo'q.")
		return
	}
	var (
		prog    quiz.Progress
		err     error
		ackText string
	)
	switch action {
	case "skip":
		prog, err = b.engine.Skip(ctx, st.sessionID, st.position)
		ackText = "Savol keyinga qoldirildi."
	case "no_answer":
		prog, err = b.engine.Decline(ctx, st.sessionID, st.position)
		ackText = "Javobsiz deb belgilandi."
	case "finish":
		prog, err = b.engine.Finish(ctx, st.sessionID)
		ackText = "Test yakunlandi."
		if err == nil && prog.Question != nil {
			// deferred questions still owed, not done yet
			ackText = ""
		}
	default:
		b.ack(cb.ID, "")
		return
	}
	if err != nil {
		ackText = ""
	}
	b.ack(cb.ID, ackText)
	b.applyProgress(ctx, cb.Message.Chat.ID, st, prog, err)
}

// applyProgress renders the outcome of one answer event and moves the chat
// along. A stale position means a duplicate or late update lost the race;
// the chat resyncs to whatever the session asks now.
func (b *Bot) applyProgress(ctx context.Context, chatID int64, st *chatState, prog quiz.Progress, err error) {
	if err != nil {
		switch {
		case errors.Is(err, quiz.ErrStaleEvent):
			q, cerr := b.engine.CurrentQuestion(ctx, st.sessionID)
			if cerr != nil {
				b.states.clear(chatID)
				b.send(chatID, "Test allaqachon yakunlangan.")
				return
			}
			st.position = q.Position
			b.sendPrompt(chatID, q)
		case errors.Is(err, quiz.ErrAlreadyFinished), errors.Is(err, quiz.ErrSessionNotFound):
			b.states.clear(chatID)
			b.send(chatID, "Test allaqachon yakunlangan.")
		default:
			log.Printf("bot: session %s event: %v", st.sessionID, err)
			b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		}
		return
	}

	if prog.Result != nil {
		res := *prog.Result
		b.states.clear(chatID)
		b.send(chatID, formatResult(res))
		return
	}

	q := prog.Question
	if q.Position < st.position {
		b.send(chatID, "Avval o'tkazib yuborilgan savollar bor. Ularni yakunlaymiz.")
	}
	st.position = q.Position
	b.sendPrompt(chatID, q)
}

func (b *Bot) sendPrompt(chatID int64, q *quiz.Prompt) {
	b.sendMarkup(chatID, formatPrompt(q), answerControls())
}
