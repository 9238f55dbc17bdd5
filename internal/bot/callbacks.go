package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/users"
	"github.com/Sardorious/test-me/internal/vocab"
)

// The level and direction keyboards are reused by several flows, so their
// callbacks route on the chat's current step.

func (b *Bot) levelPicked(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, st *chatState, level string) {
	if !vocab.ValidLevel(level) {
		b.ack(cb.ID, "")
		return
	}
	switch st.step {
	case stepRegLevel:
		b.regLevelPicked(cb, st, level)
	case stepTestLevel:
		b.testLevelPicked(cb, st, level)
	case stepUploadLevel:
		b.uploadLevelPicked(ctx, cb, st, level)
	default:
		b.ack(cb.ID, "")
	}
}

func (b *Bot) directionPicked(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, st *chatState, dir string) {
	if _, ok := quiz.ParseDirection(dir); !ok {
		b.ack(cb.ID, "")
		return
	}
	switch st.step {
	case stepRegDirection:
		b.regDirectionPicked(ctx, cb, u, st, dir)
	case stepTestDirection:
		b.testDirectionPicked(cb, st, dir)
	default:
		b.ack(cb.ID, "")
	}
}
