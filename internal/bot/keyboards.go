package bot

import (
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sardorious/test-me/internal/vocab"
)

func levelsKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, level := range vocab.Levels {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(level, "level:"+level))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func directionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Turkcha ➜ O'zbekcha", "dir:tr_to_uz"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("O'zbekcha ➜ Turkcha", "dir:uz_to_tr"),
		),
	)
}

func countKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("10", "count:10"),
			tgbotapi.NewInlineKeyboardButtonData("20", "count:20"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("50", "count:50"),
			tgbotapi.NewInlineKeyboardButtonData("Hammasi", "count:all"),
		),
	)
}

func answerControls() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("O'tkazib yuborish", "q:skip"),
			tgbotapi.NewInlineKeyboardButtonData("Javob yo'q", "q:no_answer"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Testni yakunlash", "q:finish"),
		),
	)
}

func phoneKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Telefon raqamni yuborish"),
		),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

func filtersKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Bugun", "filter:day:today"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Kecha", "filter:day:yesterday"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Bu hafta", "filter:day:week"),
			tgbotapi.NewInlineKeyboardButtonData("📅 Bu oy", "filter:day:month"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📅 Barcha", "filter:day:all"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎓 A1", "filter:degree:A1"),
			tgbotapi.NewInlineKeyboardButtonData("🎓 A2", "filter:degree:A2"),
			tgbotapi.NewInlineKeyboardButtonData("🎓 B1", "filter:degree:B1"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎓 B2", "filter:degree:B2"),
			tgbotapi.NewInlineKeyboardButtonData("🎓 C1", "filter:degree:C1"),
			tgbotapi.NewInlineKeyboardButtonData("🎓 C2", "filter:degree:C2"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎓 Barcha darajalar", "filter:degree:all"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Ko'rsatish", "filter:show"),
		),
	)
}

// unitsKeyboard lists a level's units plus a "new unit" button, one per row.
func unitsKeyboard(units []vocab.Unit) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, u := range units {
		label := u.Level + "-" + strconv.Itoa(u.Number) + ": " + u.Name
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "unit:"+u.ID),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Yangi unit", "unit:new"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
