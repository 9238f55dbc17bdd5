package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sardorious/test-me/internal/quiz"
	"github.com/Sardorious/test-me/internal/users"
	"github.com/Sardorious/test-me/internal/vocab"
)

// Bot is the Telegram front end. All quiz semantics live in the engine;
// the bot only renders prompts, collects answers and tracks which flow a
// chat is in.
type Bot struct {
	api      *tgbotapi.BotAPI
	engine   *quiz.Engine
	users    users.Store
	vocab    vocab.Store
	adminIDs map[int64]bool
	states   *stateStore
}

func New(token string, engine *quiz.Engine, ust users.Store, vst vocab.Store, adminIDs []int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	api.Debug = os.Getenv("DEBUG") == "true"

	ids := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		ids[id] = true
	}
	return &Bot{
		api:      api,
		engine:   engine,
		users:    ust,
		vocab:    vst,
		adminIDs: ids,
		states:   newStateStore(),
	}, nil
}

// Run long-polls until the context is cancelled. Updates are handled one
// at a time, which keeps the per-chat state transitions ordered.
func (b *Bot) Run(ctx context.Context) {
	log.Printf("bot: polling as @%s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			} else if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	u, err := b.getOrCreateUser(ctx, msg.From)
	if err != nil {
		log.Printf("bot: user lookup for %d: %v", msg.From.ID, err)
		b.send(msg.Chat.ID, "Xatolik yuz berdi. Birozdan so'ng qayta urinib ko'ring.")
		return
	}
	if u.IsBlocked {
		log.Printf("bot: blocked user %d ignored", u.TelegramID)
		return
	}

	switch {
	case strings.HasPrefix(msg.Text, "/start_test"):
		b.cmdStartTest(ctx, msg, u)
	case strings.HasPrefix(msg.Text, "/start"):
		b.cmdStart(ctx, msg, u)
	case strings.HasPrefix(msg.Text, "/cancel"):
		b.cmdCancel(ctx, msg, u)
	case strings.HasPrefix(msg.Text, "/view_results"):
		b.cmdViewResults(ctx, msg, u)
	case strings.HasPrefix(msg.Text, "/add_teacher"):
		b.cmdAddTeacher(ctx, msg, u)
	case strings.HasPrefix(msg.Text, "/upload_words"):
		b.cmdUploadWords(ctx, msg, u)
	default:
		b.handleFlowMessage(ctx, msg, u)
	}
}

// handleFlowMessage routes a plain message by the chat's current step.
func (b *Bot) handleFlowMessage(ctx context.Context, msg *tgbotapi.Message, u *users.User) {
	st := b.states.get(msg.Chat.ID)
	switch st.step {
	case stepRegFirstName, stepRegLastName, stepRegPhone:
		b.regMessage(ctx, msg, u, st)
	case stepTestAnswer:
		b.answerMessage(ctx, msg, st)
	case stepTeacherIdent:
		b.teacherIdentMessage(ctx, msg, st)
	case stepUploadUnitName, stepUploadListName, stepUploadWords:
		b.uploadMessage(ctx, msg, u, st)
	case stepRegLevel, stepRegDirection, stepTestLevel, stepTestDirection,
		stepTestCount, stepUploadLevel, stepUploadUnit, stepResultsFilter:
		b.send(msg.Chat.ID, "Iltimos, tugmalardan birini tanlang.")
	default:
		b.send(msg.Chat.ID, "Buyruq tushunarsiz. Testni boshlash: /start_test")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil {
		return
	}
	u, err := b.getOrCreateUser(ctx, cb.From)
	if err != nil {
		log.Printf("bot: user lookup for %d: %v", cb.From.ID, err)
		b.ack(cb.ID, "Xatolik yuz berdi.")
		return
	}
	if u.IsBlocked {
		b.ack(cb.ID, "Ruxsat yo'q.")
		return
	}

	chatID := cb.Message.Chat.ID
	st := b.states.get(chatID)
	switch {
	case strings.HasPrefix(cb.Data, "level:"):
		b.levelPicked(ctx, cb, u, st, strings.TrimPrefix(cb.Data, "level:"))
	case strings.HasPrefix(cb.Data, "dir:"):
		b.directionPicked(ctx, cb, u, st, strings.TrimPrefix(cb.Data, "dir:"))
	case strings.HasPrefix(cb.Data, "count:"):
		b.countPicked(ctx, cb, u, st, strings.TrimPrefix(cb.Data, "count:"))
	case strings.HasPrefix(cb.Data, "q:"):
		b.controlPicked(ctx, cb, st, strings.TrimPrefix(cb.Data, "q:"))
	case strings.HasPrefix(cb.Data, "filter:"):
		b.filterPicked(ctx, cb, u, st, strings.TrimPrefix(cb.Data, "filter:"))
	case strings.HasPrefix(cb.Data, "unit:"):
		b.unitPicked(ctx, cb, u, st, strings.TrimPrefix(cb.Data, "unit:"))
	default:
		b.ack(cb.ID, "")
	}
}

// getOrCreateUser mirrors /start semantics for every update: unknown
// Telegram users get a student row; ids listed in ADMIN_IDS come up as
// registered admins.
func (b *Bot) getOrCreateUser(ctx context.Context, from *tgbotapi.User) (*users.User, error) {
	u, err := b.users.GetByTelegramID(ctx, from.ID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, err
	}

	roles := []string{users.RoleStudent}
	registered := false
	if b.adminIDs[from.ID] {
		roles = append(roles, users.RoleAdmin)
		registered = true
	}
	nu := &users.User{
		TelegramID:   from.ID,
		Username:     from.UserName,
		FirstName:    from.FirstName,
		LastName:     from.LastName,
		IsRegistered: registered,
		Roles:        roles,
	}
	if err := b.users.Create(ctx, nu); err != nil {
		return nil, err
	}
	return nu, nil
}

func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message, u *users.User) {
	f := u.Flags()
	if !f.IsTeacher && !f.IsAdmin && !u.IsRegistered {
		st := b.states.get(msg.Chat.ID)
		*st = chatState{step: stepRegFirstName}
		b.send(msg.Chat.ID,
			"Salom! Ro'yxatdan o'tish uchun quyidagi ma'lumotlarni kiriting.\n\n"+
				"Ismingizni kiriting:")
		return
	}

	switch {
	case f.IsAdmin:
		b.send(msg.Chat.ID,
			"Salom, Admin! Bot boshqaruv buyruqlari:\n"+
				"/view_results - O'quvchilar natijalarini ko'rish\n"+
				"/add_teacher - O'qituvchi qo'shish\n"+
				"/upload_words - So'zlar yuklash")
	case f.IsTeacher:
		b.send(msg.Chat.ID,
			"Salom, O'qituvchi! Bot buyruqlari:\n"+
				"/view_results - O'quvchilar natijalarini ko'rish\n"+
				"/upload_words - So'zlar yuklash")
	default:
		b.send(msg.Chat.ID,
			"Salom! Men turkcha-o'zbekcha so'zlarni o'rganish uchun botman.\n\n"+
				"Testni boshlash: /start_test")
	}
}

// ---- send helpers ----

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: send to %d: %v", chatID, err)
	}
}

func (b *Bot) sendMarkup(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("bot: send to %d: %v", chatID, err)
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	ed := tgbotapi.NewEditMessageText(chatID, messageID, text)
	ed.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(ed); err != nil {
		log.Printf("bot: edit %d in %d: %v", messageID, chatID, err)
	}
}

func (b *Bot) editMarkup(chatID int64, messageID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	ed := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, markup)
	ed.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(ed); err != nil {
		log.Printf("bot: edit %d in %d: %v", messageID, chatID, err)
	}
}

// ack answers a callback query so the client stops the spinner.
func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("bot: callback ack: %v", err)
	}
}

func (b *Bot) ackAlert(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		log.Printf("bot: callback ack: %v", err)
	}
}
