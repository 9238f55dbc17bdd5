package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/users"
)

// regMessage walks the registration conversation one field per message.
func (b *Bot) regMessage(ctx context.Context, msg *tgbotapi.Message, u *users.User, st *chatState) {
	switch st.step {
	case stepRegFirstName:
		name := strings.TrimSpace(msg.Text)
		if len([]rune(name)) < 2 {
			b.send(msg.Chat.ID, "Iltimos, to'g'ri ism kiriting (kamida 2 belgi):")
			return
		}
		st.firstName = name
		st.step = stepRegLastName
		b.send(msg.Chat.ID, "Familiyangizni kiriting:")

	case stepRegLastName:
		name := strings.TrimSpace(msg.Text)
		if len([]rune(name)) < 2 {
			b.send(msg.Chat.ID, "Iltimos, to'g'ri familiya kiriting (kamida 2 belgi):")
			return
		}
		st.lastName = name
		st.step = stepRegPhone
		b.sendMarkup(msg.Chat.ID, "Telefon raqamingizni yuboring (yoki tugmani bosing):", phoneKeyboard())

	case stepRegPhone:
		phone := strings.TrimSpace(msg.Text)
		if msg.Contact != nil {
			phone = msg.Contact.PhoneNumber
		}
		if len(phone) < 9 {
			b.send(msg.Chat.ID, "Iltimos, to'g'ri telefon raqam kiriting yoki tugmani bosing:")
			return
		}
		st.phone = phone
		st.step = stepRegLevel
		accepted := tgbotapi.NewMessage(msg.Chat.ID, "Telefon raqam qabul qilindi!")
		accepted.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		if _, err := b.api.Send(accepted); err != nil {
			log.Printf("bot: send to %d: %v", msg.Chat.ID, err)
		}
		b.sendMarkup(msg.Chat.ID, "Qaysi CEFR darajasini tanlaysiz?", levelsKeyboard())
	}
}

func (b *Bot) regLevelPicked(cb *tgbotapi.CallbackQuery, st *chatState, level string) {
	st.level = level
	st.step = stepRegDirection
	b.ack(cb.ID, "")
	b.editMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("CEFR daraja: <b>%s</b>\nYo'nalishni tanlang:", level), directionKeyboard())
}

func (b *Bot) regDirectionPicked(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, st *chatState, dir string) {
	u.FirstName = st.firstName
	u.LastName = st.lastName
	u.PhoneNumber = st.phone
	u.IsRegistered = true
	if err := b.users.UpdateProfile(ctx, u); err != nil {
		log.Printf("bot: register user %s: %v", u.ID, err)
		b.ack(cb.ID, "Xatolik yuz berdi.")
		return
	}
	if err := b.users.SetPreferences(ctx, u.ID, st.level, dir); err != nil {
		log.Printf("bot: save preferences for %s: %v", u.ID, err)
	}
	b.ack(cb.ID, "")

	chatID := cb.Message.Chat.ID
	done := fmt.Sprintf(
		"✅ Ro'yxatdan o'tdingiz!\n\n"+
			"Ism: <b>%s %s</b>\n"+
			"Telefon: <b>%s</b>\n"+
			"CEFR daraja: <b>%s</b>\n"+
			"Yo'nalish: <b>%s</b>\n\n"+
			"Testni boshlash: /start_test",
		escape(st.firstName), escape(st.lastName), escape(st.phone),
		st.level, directionLabel(quiz.Direction(dir)))
	b.states.clear(chatID)
	b.edit(chatID, cb.Message.MessageID, done)
}
