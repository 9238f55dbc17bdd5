package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sardorious/test-me/internal/users"
	"github.com/Sardorious/test-me/internal/vocab"
)

func (b *Bot) cmdUploadWords(ctx context.Context, msg *tgbotapi.Message, u *users.User) {
	f := u.Flags()
	if !f.IsTeacher && !f.IsAdmin {
		b.send(msg.Chat.ID, "Bu buyruq faqat o'qituvchilar va adminlar uchun.")
		return
	}
	st := b.states.get(msg.Chat.ID)
	*st = chatState{step: stepUploadLevel}
	b.sendMarkup(msg.Chat.ID, "Qaysi darajaga so'z yuklaysiz?", levelsKeyboard())
}

func (b *Bot) uploadLevelPicked(ctx context.Context, cb *tgbotapi.CallbackQuery, st *chatState, level string) {
	units, err := b.vocab.Units(ctx, level)
	if err != nil {
		log.Printf("bot: units for %s: %v", level, err)
		b.ack(cb.ID, "Xatolik yuz berdi.")
		return
	}
	st.level = level
	st.step = stepUploadUnit
	b.ack(cb.ID, "")
	b.editMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		fmt.Sprintf("Daraja: <b>%s</b>\nUnitni tanlang yoki yangisini yarating:", level),
		unitsKeyboard(units))
}

func (b *Bot) unitPicked(ctx context.Context, cb *tgbotapi.CallbackQuery, u *users.User, st *chatState, val string) {
	if st.step != stepUploadUnit {
		b.ack(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID

	if val == "new" {
		st.step = stepUploadUnitName
		b.ack(cb.ID, "")
		b.edit(chatID, cb.Message.MessageID, "Yangi unit nomini kiriting:")
		return
	}

	unit, err := b.vocab.GetUnit(ctx, val)
	if err != nil {
		log.Printf("bot: unit %s: %v", val, err)
		b.ack(cb.ID, "Xatolik yuz berdi.")
		return
	}
	st.uploadUnitID = unit.ID
	st.step = stepUploadListName
	b.ack(cb.ID, "")
	b.edit(chatID, cb.Message.MessageID, fmt.Sprintf(
		"Unit: <b>%s-%d: %s</b>\nSo'zlar ro'yxati nomini kiriting:",
		unit.Level, unit.Number, escape(unit.Name)))
}

// uploadMessage handles the typed steps of the upload conversation: a new
// unit's name, the word list's name, then the word lines themselves.
func (b *Bot) uploadMessage(ctx context.Context, msg *tgbotapi.Message, u *users.User, st *chatState) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch st.step {
	case stepUploadUnitName:
		if text == "" {
			b.send(chatID, "Iltimos, unit nomini kiriting:")
			return
		}
		unit, err := b.vocab.CreateUnit(ctx, st.level, text, 0)
		if err != nil {
			if errors.Is(err, vocab.ErrUnitLimit) {
				b.states.clear(chatID)
				b.send(chatID, "Bu darajada unit soni chegarasiga yetdi. Avval eski unitlardan birini o'chiring.")
				return
			}
			log.Printf("bot: create unit: %v", err)
			b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
			return
		}
		st.uploadUnitID = unit.ID
		st.step = stepUploadListName
		b.send(chatID, fmt.Sprintf("Unit yaratildi: <b>%s-%d: %s</b>\nSo'zlar ro'yxati nomini kiriting:",
			unit.Level, unit.Number, escape(unit.Name)))

	case stepUploadListName:
		if text == "" {
			b.send(chatID, "Iltimos, ro'yxat nomini kiriting:")
			return
		}
		st.uploadList = text
		st.step = stepUploadWords
		b.send(chatID,
			"So'zlarni yuboring, har qatorda bitta juftlik:\n\n"+
				"<code>turkcha - o'zbekcha</code>\n"+
				"<code>kitap - kitob</code>\n\n"+
				"Bir nechta to'g'ri javob uchun ';' ishlating: <code>anne - ona; oyi</code>")

	case stepUploadWords:
		words, err := vocab.ParsePairs(msg.Text)
		if err != nil {
			b.send(chatID, fmt.Sprintf("Ro'yxat tushunarsiz (%s).\nHar qatorda: turkcha - o'zbekcha", escape(err.Error())))
			return
		}
		wl, err := b.vocab.CreateWordList(ctx,
			vocab.WordList{UnitID: st.uploadUnitID, OwnerID: u.ID, Name: st.uploadList}, words)
		if err != nil {
			log.Printf("bot: create word list: %v", err)
			b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
			return
		}
		b.states.clear(chatID)
		b.send(chatID, fmt.Sprintf("✅ %d ta so'z yuklandi.\nRo'yxat: <b>%s</b>", len(words), escape(wl.Name)))
	}
}
