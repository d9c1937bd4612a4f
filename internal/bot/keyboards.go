package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
)

const (
	btnQueue    = "📋 Очередь"
	btnUpcoming = "📅 Предстоящие"
	btnToday    = "🔔 Сегодня"
	btnPush     = "📣 Разослать"
	btnReset    = "🧹 Очистить очередь"
	btnBack     = "◀️ Назад"
	btnConfirm  = "✅ Подтвердить"
	btnCancel   = "❌ Отмена"
)

func createMainKeyboard(isAdmin bool) tgbotapi.ReplyKeyboardMarkup {
	if isAdmin {
		return tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(btnQueue),
				tgbotapi.NewKeyboardButton(btnUpcoming),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(btnToday),
				tgbotapi.NewKeyboardButton(btnPush),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(btnReset),
			),
		)
	}

	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnUpcoming),
			tgbotapi.NewKeyboardButton(btnToday),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
}

func createConfirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
}
