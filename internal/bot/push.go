package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"curriculum-push/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// todayEntries берет позицию из того же ответа, по которому загружен список.
func (b *Bot) todayEntries(ctx context.Context) ([]models.CurriculumEntry, models.Position, error) {
	res, err := b.QueueService.ListUpcoming(ctx)
	if err != nil {
		return nil, models.Position{}, err
	}

	pos, ok := res.Position()
	if !ok {
		return nil, models.Position{}, errors.New("upcoming result has no position")
	}

	var today []models.CurriculumEntry
	for _, e := range res.Entries() {
		if e.Period == pos.Period && e.Week == pos.Week {
			today = append(today, e)
		}
	}
	sort.Slice(today, func(i, j int) bool { return today[i].Section < today[j].Section })

	return today, pos, nil
}

// PushToday рассылает сегодняшние занятия во все чаты из PUSH_CHAT_IDS.
// Ошибка доставки в один чат не прерывает рассылку.
func (b *Bot) PushToday(ctx context.Context) (int, error) {
	entries, pos, err := b.todayEntries(ctx)
	if err != nil {
		b.logger.Error("push: load today failed", zap.Error(err))
		return 0, err
	}

	if len(entries) == 0 {
		b.logger.Info("push: nothing scheduled today",
			zap.Int("period", pos.Period), zap.Int("week", pos.Week))
		return 0, nil
	}

	text := formatEntries(fmt.Sprintf("🔔 Занятия на сегодня, неделя %d, %s", pos.Period, weekdayName(pos.Week)), entries)

	delivered := 0
	for _, chatID := range b.cfg.PushChatIDs {
		if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			b.logger.Error("push: delivery failed", zap.Int64("chat_id", chatID), zap.Error(err))
			continue
		}
		delivered++
	}

	b.logger.Info("push: delivered",
		zap.Int("entries", len(entries)),
		zap.Int("chats", delivered),
		zap.Int("period", pos.Period),
		zap.Int("week", pos.Week),
	)
	return delivered, nil
}
