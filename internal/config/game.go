// Package config — game.go описывает игровые константы: цены магазина,
// награды, лимиты, таймауты и флаги функций.
//
// Значения по умолчанию задаются в DefaultGameSettings и могут быть
// переопределены файлом GAME_CONFIG_PATH (JSON или YAML):
//
//	{
//	  "defaults": {"immunity_price": 10, "coins_per_win": 4},
//	  "chat_overrides": {
//	    "-4608252738": {"immunity_price": 5, "max_missed_days_for_final_voting": 100}
//	  }
//	}
package config

import (
	"fmt"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// GameSettings — настройки игры одного чата.
// Передаётся по значению в каждую операцию движка.
type GameSettings struct {
	// Цены в магазине
	ImmunityPrice     int64 `mapstructure:"immunity_price"`
	DoubleChancePrice int64 `mapstructure:"double_chance_price"`
	PredictionPrice   int64 `mapstructure:"prediction_price"`
	RerollPrice       int64 `mapstructure:"reroll_price"`

	// Награды
	CoinsPerWin           int64 `mapstructure:"coins_per_win"`
	SelfPickMultiplier    int64 `mapstructure:"self_pick_multiplier"`
	ProtectionBonus       int64 `mapstructure:"protection_bonus"`
	PredictionReward      int64 `mapstructure:"prediction_reward"`
	GiveCoinsAmount       int64 `mapstructure:"give_coins_amount"`
	GiveCoinsWinnerAmount int64 `mapstructure:"give_coins_winner_amount"`

	// Переводы
	TransferMinAmount         int64 `mapstructure:"transfer_min_amount"`
	TransferCommissionPercent int64 `mapstructure:"transfer_commission_percent"`
	TransferMinCommission     int64 `mapstructure:"transfer_min_commission"`

	// Лимиты и таймауты
	MaxMissedDaysForFinalVoting int `mapstructure:"max_missed_days_for_final_voting"`
	ImmunityCooldownDays        int `mapstructure:"immunity_cooldown_days"`
	RerollTimeoutMinutes        int `mapstructure:"reroll_timeout_minutes"`
	FinalVotingMinDurationHours int `mapstructure:"final_voting_min_duration_hours"`
	// Окно запуска финального голосования: дни декабря включительно
	FinalVotingWindowFrom int `mapstructure:"final_voting_window_from"`
	FinalVotingWindowTo   int `mapstructure:"final_voting_window_to"`

	// Политика финального голосования
	FinalVotingExcludeLeaders bool `mapstructure:"final_voting_exclude_leaders"`
	FinalVotingAssignDays     bool `mapstructure:"final_voting_assign_days"`

	// Feature flags
	RerollEnabled       bool `mapstructure:"reroll_enabled"`
	TransferEnabled     bool `mapstructure:"transfer_enabled"`
	PredictionEnabled   bool `mapstructure:"prediction_enabled"`
	ImmunityEnabled     bool `mapstructure:"immunity_enabled"`
	DoubleChanceEnabled bool `mapstructure:"double_chance_enabled"`
	GiveCoinsEnabled    bool `mapstructure:"give_coins_enabled"`
	FinalVotingEnabled  bool `mapstructure:"final_voting_enabled"`

	// Тестовый чат снимает ограничения по датам и длительности
	IsTest bool `mapstructure:"-"`
}

// DefaultGameSettings возвращает настройки по умолчанию.
func DefaultGameSettings() GameSettings {
	return GameSettings{
		ImmunityPrice:     10,
		DoubleChancePrice: 8,
		PredictionPrice:   3,
		RerollPrice:       15,

		CoinsPerWin:           4,
		SelfPickMultiplier:    2,
		ProtectionBonus:       4,
		PredictionReward:      30,
		GiveCoinsAmount:       1,
		GiveCoinsWinnerAmount: 2,

		TransferMinAmount:         2,
		TransferCommissionPercent: 10,
		TransferMinCommission:     1,

		MaxMissedDaysForFinalVoting: 10,
		ImmunityCooldownDays:        7,
		RerollTimeoutMinutes:        5,
		FinalVotingMinDurationHours: 24,
		FinalVotingWindowFrom:       29,
		FinalVotingWindowTo:         30,

		FinalVotingExcludeLeaders: true,
		FinalVotingAssignDays:     true,

		RerollEnabled:       true,
		TransferEnabled:     true,
		PredictionEnabled:   true,
		ImmunityEnabled:     true,
		DoubleChanceEnabled: true,
		GiveCoinsEnabled:    true,
		FinalVotingEnabled:  true,
	}
}

// RerollTimeout — сколько живёт кнопка перевыбора.
func (s GameSettings) RerollTimeout() time.Duration {
	return time.Duration(s.RerollTimeoutMinutes) * time.Minute
}

// FinalVotingMinDuration — минимальная длительность голосования.
func (s GameSettings) FinalVotingMinDuration() time.Duration {
	return time.Duration(s.FinalVotingMinDurationHours) * time.Hour
}

// InFinalVotingWindow — попадает ли дата в окно запуска финального голосования.
func (s GameSettings) InFinalVotingWindow(t time.Time) bool {
	return t.Month() == time.December && t.Day() >= s.FinalVotingWindowFrom && t.Day() <= s.FinalVotingWindowTo
}

// GameConfig хранит дефолты и уже собранные настройки для чатов с переопределениями.
type GameConfig struct {
	Defaults GameSettings
	Chats    map[int64]GameSettings
}

// NewGameConfig создаёт конфигурацию только с дефолтами.
func NewGameConfig() *GameConfig {
	return &GameConfig{Defaults: DefaultGameSettings(), Chats: map[int64]GameSettings{}}
}

// Resolve возвращает копию настроек для чата.
func (g *GameConfig) Resolve(chatID int64, isTest bool) GameSettings {
	if g == nil {
		g = NewGameConfig()
	}
	s, ok := g.Chats[chatID]
	if !ok {
		s = g.Defaults
	}
	s.IsTest = isTest
	return s
}

// LoadGameConfig читает файл с игровыми константами.
// Пустой путь означает «только дефолты».
func LoadGameConfig(path string) (*GameConfig, error) {
	cfg := NewGameConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}
	return decodeGameConfig(v, cfg)
}

func decodeGameConfig(v *viper.Viper, cfg *GameConfig) (*GameConfig, error) {
	if v.IsSet("defaults") {
		if err := v.UnmarshalKey("defaults", &cfg.Defaults); err != nil {
			return nil, fmt.Errorf("ошибка разбора defaults: %w", err)
		}
	}

	for key, raw := range v.GetStringMap("chat_overrides") {
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			log.WithField("key", key).Warn("Пропускаем переопределение с некорректным chat_id")
			continue
		}
		overrides, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("chat_overrides.%s: ожидается объект", key)
		}

		settings := cfg.Defaults
		sub := viper.New()
		if err := sub.MergeConfigMap(overrides); err != nil {
			return nil, fmt.Errorf("chat_overrides.%s: %w", key, err)
		}
		if err := sub.Unmarshal(&settings); err != nil {
			return nil, fmt.Errorf("chat_overrides.%s: %w", key, err)
		}
		cfg.Chats[chatID] = settings
	}

	log.WithField("chat_overrides", len(cfg.Chats)).Info("Игровые настройки загружены")
	return cfg, nil
}
