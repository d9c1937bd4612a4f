package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config основной конфиг
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8080"`

	Bot      BotConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Calendar CalendarConfig
	Log      LogConfig
}

type BotConfig struct {
	Token       string `env:"BOT_TOKEN"`
	Debug       bool   `env:"BOT_DEBUG"`
	AdminIDs    IDList `env:"ADMIN_IDS"`     // ID администраторов
	PushChatIDs IDList `env:"PUSH_CHAT_IDS"` // чаты для рассылки
}

// IDList - список Telegram ID через запятую, пробелы вокруг ID допустимы.
type IDList []int64

func (l *IDList) UnmarshalText(text []byte) error {
	ids := IDList{}
	for _, part := range strings.Split(string(text), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	*l = ids
	return nil
}

// Enabled - бот запускается только при наличии токена.
func (c BotConfig) Enabled() bool {
	return c.Token != ""
}

func (c BotConfig) IsAdmin(id int64) bool {
	for _, adminID := range c.AdminIDs {
		if adminID == id {
			return true
		}
	}
	return false
}

// RedisConfig - распределенная блокировка слотов, необязательна.
type RedisConfig struct {
	URL     string        `env:"REDIS_URL"`
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"10s"`
}

type CalendarConfig struct {
	TermStart string `env:"TERM_START"` // понедельник первой учебной недели, YYYY-MM-DD
	Timezone  string `env:"TIMEZONE" envDefault:"Local"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json | console
}
