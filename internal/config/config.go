// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
// Игровые константы (цены, награды, флаги) живут в game.go и могут
// переопределяться для отдельных чатов через файл GAME_CONFIG_PATH.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Чаты, в которых бот играет. Пустой список: играем во всех группах.
	EnabledChatsRaw string  `envconfig:"ENABLED_CHATS"`
	EnabledChats    []int64 `envconfig:"-"`
	// Тестовый чат: без ограничений по датам и длительности голосования
	TestChatID int64 `envconfig:"TEST_CHAT_ID"`
	// Операторы бота: могут закрывать голосование в любом чате
	AdminIDsRaw string  `envconfig:"ADMIN_IDS"`
	AdminIDs    []int64 `envconfig:"-"`

	// --- Storage ---
	// postgres или memory (локальный запуск без БД)
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"dailypick"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	// JSON/YAML с игровыми константами и переопределениями по чатам
	GameConfigPath string `envconfig:"GAME_CONFIG_PATH"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Jobs ---
	RerollExpiryCron     string `envconfig:"REROLL_EXPIRY_CRON" default:"* * * * *"`
	FinalVotingCloseCron string `envconfig:"FINAL_VOTING_CLOSE_CRON" default:"0 * * * *"`
	FinalVotingAutoClose bool   `envconfig:"FINAL_VOTING_AUTO_CLOSE" default:"true"`

	// --- Game ---
	// Формула веса усиления в пуле: exponential (2^n) или linear (n+1)
	AmplificationWeight string `envconfig:"AMPLIFICATION_WEIGHT" default:"exponential"`

	// Игровые константы, собранные из GAME_CONFIG_PATH (или дефолты)
	Game *GameConfig `envconfig:"-"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	switch c.StorageDriver {
	case "postgres":
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD не задан")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	case "memory":
	default:
		return fmt.Errorf("неизвестный STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.AmplificationWeight {
	case "exponential", "linear":
	default:
		return fmt.Errorf("неизвестный AMPLIFICATION_WEIGHT %q", c.AmplificationWeight)
	}
	return nil
}

// IsChatEnabled — разрешён ли чат. Пустой список разрешает все чаты.
func (c *Config) IsChatEnabled(chatID int64) bool {
	if len(c.EnabledChats) == 0 {
		return true
	}
	for _, id := range c.EnabledChats {
		if id == chatID {
			return true
		}
	}
	return false
}

// IsAdmin — является ли пользователь оператором бота.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Settings возвращает игровые настройки для чата.
// Вызывается на каждый запрос: результат не кешируется.
func (c *Config) Settings(chatID int64) GameSettings {
	return c.Game.Resolve(chatID, chatID == c.TestChatID && c.TestChatID != 0)
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	chats, err := parseInt64CSV(cfg.EnabledChatsRaw)
	if err != nil {
		return nil, fmt.Errorf("ENABLED_CHATS parse: %w", err)
	}
	cfg.EnabledChats = chats

	game, err := LoadGameConfig(cfg.GameConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Game = game

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
