package bot

import (
	"context"
	"fmt"
	"sync"

	"curriculum-push/internal/models/config"
	"curriculum-push/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"go.uber.org/zap"
)

// sender - часть BotAPI, через которую уходят сообщения
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api          *tgbotapi.BotAPI
	sender       sender
	QueueService service.CurriculumQueueService
	cfg          config.BotConfig
	logger       *zap.Logger

	userSessions map[int64]*UserSession // chatID -> session
	mu           sync.RWMutex
}

func NewBot(
	cfg config.BotConfig,
	queueService service.CurriculumQueueService,
	logger *zap.Logger,
) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN не установлен в конфигурации")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	api.Debug = cfg.Debug

	b := newBot(api, cfg, queueService, logger)
	b.api = api

	b.logger.Info("🤖 Бот инициализирован",
		zap.String("username", api.Self.UserName),
		zap.Bool("debug", cfg.Debug),
		zap.Int64s("admins", cfg.AdminIDs),
	)
	return b, nil
}

func newBot(s sender, cfg config.BotConfig, queueService service.CurriculumQueueService, logger *zap.Logger) *Bot {
	return &Bot{
		sender:       s,
		QueueService: queueService,
		cfg:          cfg,
		logger:       logger.Named("bot"),
		userSessions: make(map[int64]*UserSession),
	}
}

// Start читает обновления до отмены ctx.
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Авторизован", zap.String("username", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := b.api.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}

			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.sender.Send(c); err != nil {
		b.logger.Warn("send failed", zap.Error(err))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendError(chatID int64, text string) {
	b.sendMessage(chatID, text)
}
