package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sardorious/test-me/internal/users"
)

func (b *Bot) cmdAddTeacher(ctx context.Context, msg *tgbotapi.Message, u *users.User) {
	if !u.Flags().IsAdmin {
		b.send(msg.Chat.ID, "Bu buyruq faqat adminlar uchun.")
		return
	}

	// The command may already carry the teacher: a reply to their message
	// or a forward of one.
	var target *tgbotapi.User
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		target = msg.ReplyToMessage.From
	} else if msg.ForwardFrom != nil {
		target = msg.ForwardFrom
	}
	if target != nil {
		b.promoteTeacherByTelegramID(ctx, msg.Chat.ID, target.ID, target)
		return
	}

	st := b.states.get(msg.Chat.ID)
	*st = chatState{step: stepTeacherIdent}
	b.send(msg.Chat.ID,
		"Yangi o'qituvchi qo'shish.\n\n"+
			"<b>Usul 1:</b> O'qituvchining xabariga javob bering va /add_teacher yozing\n"+
			"<b>Usul 2:</b> O'qituvchining xabarini forward qiling va /add_teacher yozing\n"+
			"<b>Usul 3:</b> Username (@username) yoki user ID (123456789) yuboring")
}

// teacherIdentMessage resolves the free-form identifier an admin sent after
// /add_teacher: @username or a numeric Telegram id.
func (b *Bot) teacherIdentMessage(ctx context.Context, msg *tgbotapi.Message, st *chatState) {
	ident := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	if strings.HasPrefix(ident, "@") {
		b.states.clear(chatID)
		target, err := b.users.GetByUsername(ctx, strings.TrimPrefix(ident, "@"))
		if err != nil {
			if errors.Is(err, users.ErrNotFound) {
				b.send(chatID, fmt.Sprintf("Foydalanuvchi '%s' topilmadi.\nIltimos, botga /start yuborishi kerak.", escape(ident)))
				return
			}
			log.Printf("bot: lookup %s: %v", ident, err)
			b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
			return
		}
		b.grantTeacher(ctx, chatID, target)
		return
	}

	if id, err := strconv.ParseInt(ident, 10, 64); err == nil && id > 0 {
		b.states.clear(chatID)
		b.promoteTeacherByTelegramID(ctx, chatID, id, nil)
		return
	}

	b.send(chatID, "Noto'g'ri format. Username (@username) yoki user ID (raqam) kiriting.")
}

// promoteTeacherByTelegramID promotes an existing row or, when the id is
// unknown, creates a bare teacher row that fills in once they /start.
func (b *Bot) promoteTeacherByTelegramID(ctx context.Context, chatID, telegramID int64, from *tgbotapi.User) {
	target, err := b.users.GetByTelegramID(ctx, telegramID)
	if err == nil {
		b.grantTeacher(ctx, chatID, target)
		return
	}
	if !errors.Is(err, users.ErrNotFound) {
		log.Printf("bot: lookup telegram id %d: %v", telegramID, err)
		b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		return
	}

	nu := &users.User{
		TelegramID:   telegramID,
		IsRegistered: true,
		Roles:        []string{users.RoleStudent, users.RoleTeacher},
	}
	if from != nil {
		nu.Username = from.UserName
		nu.FirstName = from.FirstName
		nu.LastName = from.LastName
	}
	if err := b.users.Create(ctx, nu); err != nil {
		log.Printf("bot: create teacher %d: %v", telegramID, err)
		b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		return
	}
	b.send(chatID, fmt.Sprintf(
		"✅ Yangi o'qituvchi yaratildi!\n\nID: <b>%d</b>\n\nFoydalanuvchi botga /start yuborishi kerak.",
		telegramID))
}

func (b *Bot) grantTeacher(ctx context.Context, chatID int64, target *users.User) {
	if err := b.users.GrantRole(ctx, target.ID, users.RoleTeacher); err != nil {
		log.Printf("bot: grant teacher to %s: %v", target.ID, err)
		b.send(chatID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		return
	}
	if !target.IsRegistered {
		target.IsRegistered = true
		if err := b.users.UpdateProfile(ctx, target); err != nil {
			log.Printf("bot: mark %s registered: %v", target.ID, err)
		}
	}

	name := target.FullName()
	if name == "" {
		name = target.Username
	}
	b.send(chatID, fmt.Sprintf(
		"✅ O'qituvchi muvaffaqiyatli qo'shildi!\n\nIsm: <b>%s</b>\nID: <b>%d</b>",
		escape(name), target.TelegramID))
}
