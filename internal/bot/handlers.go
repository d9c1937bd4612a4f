package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"curriculum-push/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

var weekdayNames = [...]string{"", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

// Обработка сообщения здесь
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From == nil {
		return
	}

	chatID := message.Chat.ID
	isAdmin := b.cfg.IsAdmin(int64(message.From.ID))

	b.logger.Debug("message",
		zap.String("from", message.From.UserName),
		zap.Int64("chat_id", chatID),
		zap.String("text", message.Text),
	)

	// Проверяем состояние пользователя ПРЕЖДЕ обработки команд
	switch b.session(chatID).State {
	case StateConfirmingDeletion:
		b.handleDeletionConfirmation(ctx, chatID, message.Text)
		return
	case StateConfirmingReset:
		b.handleResetConfirmation(ctx, chatID, message.Text)
		return
	}

	if message.IsCommand() {
		switch message.Command() {
		case "start", "help":
			b.sendWelcomeMessage(chatID, isAdmin)
		case "queue":
			b.requireAdmin(chatID, isAdmin, func() { b.showQueue(ctx, chatID) })
		case "upcoming":
			b.showUpcoming(ctx, chatID)
		case "today":
			b.showToday(ctx, chatID)
		case "delete":
			b.requireAdmin(chatID, isAdmin, func() { b.handleDeleteCommand(chatID, message.CommandArguments()) })
		case "reset":
			b.requireAdmin(chatID, isAdmin, func() { b.handleResetCommand(chatID) })
		case "push":
			b.requireAdmin(chatID, isAdmin, func() { b.handlePushCommand(ctx, chatID) })
		default:
			b.sendWelcomeMessage(chatID, isAdmin)
		}
		return
	}

	switch message.Text {
	case btnQueue:
		b.requireAdmin(chatID, isAdmin, func() { b.showQueue(ctx, chatID) })
	case btnUpcoming:
		b.showUpcoming(ctx, chatID)
	case btnToday:
		b.showToday(ctx, chatID)
	case btnPush:
		b.requireAdmin(chatID, isAdmin, func() { b.handlePushCommand(ctx, chatID) })
	case btnReset:
		b.requireAdmin(chatID, isAdmin, func() { b.handleResetCommand(chatID) })
	default:
		b.sendWelcomeMessage(chatID, isAdmin)
	}
}

func (b *Bot) requireAdmin(chatID int64, isAdmin bool, fn func()) {
	if !isAdmin {
		b.sendError(chatID, "❌ Эта функция доступна только администраторам")
		return
	}
	fn()
}

func (b *Bot) sendWelcomeMessage(chatID int64, isAdmin bool) {
	text := `📚 Очередь уведомлений о занятиях

/upcoming - предстоящие занятия
/today - занятия на сегодня`
	if isAdmin {
		text += `
/queue - вся очередь
/delete 1,2,3 - удалить записи
/reset - очистить очередь
/push - разослать занятия на сегодня`
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createMainKeyboard(isAdmin)
	b.send(msg)
}

func (b *Bot) showQueue(ctx context.Context, chatID int64) {
	res, err := b.QueueService.ListAll(ctx)
	if err != nil {
		b.replyResult(chatID, res)
		return
	}
	b.sendMessage(chatID, formatEntries("📋 Очередь", res.Entries()))
}

func (b *Bot) showUpcoming(ctx context.Context, chatID int64) {
	res, err := b.QueueService.ListUpcoming(ctx)
	if err != nil {
		b.replyResult(chatID, res)
		return
	}
	b.sendMessage(chatID, formatEntries("📅 Предстоящие занятия", res.Entries()))
}

func (b *Bot) showToday(ctx context.Context, chatID int64) {
	entries, pos, err := b.todayEntries(ctx)
	if err != nil {
		b.sendError(chatID, "❌ Не удалось загрузить занятия на сегодня")
		return
	}
	title := fmt.Sprintf("🔔 Сегодня, неделя %d, %s", pos.Period, weekdayName(pos.Week))
	b.sendMessage(chatID, formatEntries(title, entries))
}

func (b *Bot) handleDeleteCommand(chatID int64, args string) {
	ids, err := parseIDs(args)
	if err != nil {
		b.sendError(chatID, "❌ "+err.Error()+"\nПример: /delete 1,2,3")
		return
	}

	b.setSession(chatID, UserSession{State: StateConfirmingDeletion, PendingDeleteIDs: ids})

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🗑️ Удалить записи %s?", joinIDs(ids)))
	msg.ReplyMarkup = createConfirmKeyboard()
	b.send(msg)
}

func (b *Bot) handleDeletionConfirmation(ctx context.Context, chatID int64, text string) {
	switch text {
	case btnConfirm:
		session, ok := b.takeSession(chatID, StateConfirmingDeletion)
		if !ok {
			return
		}

		res, _ := b.QueueService.DeleteMany(ctx, session.PendingDeleteIDs)
		b.replyResult(chatID, res)
	case btnCancel:
		b.cancelOperation(chatID)
	default:
		b.sendError(chatID, "Подтвердите удаление или отмените операцию")
	}
}

func (b *Bot) handleResetCommand(chatID int64) {
	b.setSession(chatID, UserSession{State: StateConfirmingReset})

	msg := tgbotapi.NewMessage(chatID, "🧹 Удалить все записи из очереди?")
	msg.ReplyMarkup = createConfirmKeyboard()
	b.send(msg)
}

func (b *Bot) handleResetConfirmation(ctx context.Context, chatID int64, text string) {
	switch text {
	case btnConfirm:
		if _, ok := b.takeSession(chatID, StateConfirmingReset); !ok {
			return
		}

		res, _ := b.QueueService.Reset(ctx)
		b.replyResult(chatID, res)
	case btnCancel:
		b.cancelOperation(chatID)
	default:
		b.sendError(chatID, "Подтвердите очистку или отмените операцию")
	}
}

func (b *Bot) handlePushCommand(ctx context.Context, chatID int64) {
	delivered, err := b.PushToday(ctx)
	if err != nil {
		b.sendError(chatID, "❌ Не удалось разослать уведомления")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("📣 Разослано в чатов: %d из %d", delivered, len(b.cfg.PushChatIDs)))
}

func (b *Bot) cancelOperation(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "❌ Операция отменена")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(msg)
	b.resetSession(chatID)
}

func (b *Bot) replyResult(chatID int64, res *models.Result) {
	if res == nil {
		b.sendError(chatID, "❌ Внутренняя ошибка")
		return
	}

	prefix := "❌ "
	if res.OK() {
		prefix = "✅ "
	}
	text := prefix + res.Message
	if res.Description != "" {
		text += "\n" + res.Description
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(msg)
}

func formatEntries(title string, entries []models.CurriculumEntry) string {
	if len(entries) == 0 {
		return title + "\n\n📝 Записей нет"
	}

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")
	for _, e := range entries {
		fmt.Fprintf(&sb, "#%d %s\n   неделя %d, %s, пара %d", e.ID, e.CourseName, e.Period, weekdayName(e.Week), e.Section)
		if e.Classroom != "" {
			fmt.Fprintf(&sb, ", ауд. %s", e.Classroom)
		}
		if e.TeacherName != "" {
			fmt.Fprintf(&sb, ", %s", e.TeacherName)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func weekdayName(week int) string {
	if week < 1 || week >= len(weekdayNames) {
		return strconv.Itoa(week)
	}
	return weekdayNames[week]
}

func parseIDs(args string) ([]int, error) {
	fields := strings.FieldsFunc(args, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("укажите ID записей")
	}

	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("некорректный ID %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.Itoa(id))
	}
	return strings.Join(parts, ", ")
}
