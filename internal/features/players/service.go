// Package players — service.go содержит регистрацию игроков и работу с составом.
package players

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
)

// Store — хранилище игр и составов.
type Store interface {
	EnsureGame(ctx context.Context, chatID int64) (*Game, error)
	GameByID(ctx context.Context, gameID int64) (*Game, error)
	UpsertPlayer(ctx context.Context, p *Player) error
	AddToRoster(ctx context.Context, gameID, userID int64) (bool, error)
	RemoveFromRoster(ctx context.Context, gameID, userID int64) (bool, error)
	Roster(ctx context.Context, gameID int64) ([]*Player, error)
	Player(ctx context.Context, userID int64) (*Player, error)
	FindInGame(ctx context.Context, gameID int64, username string) (*Player, error)
}

// Service управляет играми и их составами.
type Service struct {
	repo Store
}

// NewService создаёт сервис игроков.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// EnsureGame возвращает игру чата (создаёт при первом обращении).
func (s *Service) EnsureGame(ctx context.Context, chatID int64) (*Game, error) {
	return s.repo.EnsureGame(ctx, chatID)
}

// Game возвращает игру по ID.
func (s *Service) Game(ctx context.Context, gameID int64) (*Game, error) {
	return s.repo.GameByID(ctx, gameID)
}

// EnsurePlayer сохраняет свежие имя и username пользователя.
func (s *Service) EnsurePlayer(ctx context.Context, p *Player) error {
	return s.repo.UpsertPlayer(ctx, p)
}

// Register добавляет игрока в розыгрыш чата.
// Возвращает common.ErrAlreadyExists, если он уже зарегистрирован.
func (s *Service) Register(ctx context.Context, gameID int64, p *Player) error {
	if err := s.repo.UpsertPlayer(ctx, p); err != nil {
		return err
	}
	added, err := s.repo.AddToRoster(ctx, gameID, p.UserID)
	if err != nil {
		return err
	}
	if !added {
		return common.ErrAlreadyExists
	}

	log.WithFields(log.Fields{
		"game_id":  gameID,
		"user_id":  p.UserID,
		"username": p.Username,
	}).Info("Игрок зарегистрирован")
	return nil
}

// Unregister убирает игрока из розыгрыша. Баланс и история остаются.
func (s *Service) Unregister(ctx context.Context, gameID, userID int64) error {
	removed, err := s.repo.RemoveFromRoster(ctx, gameID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return common.ErrNotFound
	}
	log.WithFields(log.Fields{"game_id": gameID, "user_id": userID}).Info("Игрок покинул игру")
	return nil
}

// Roster возвращает состав игры.
func (s *Service) Roster(ctx context.Context, gameID int64) ([]*Player, error) {
	return s.repo.Roster(ctx, gameID)
}

// Player возвращает игрока по ID.
func (s *Service) Player(ctx context.Context, userID int64) (*Player, error) {
	return s.repo.Player(ctx, userID)
}

// FindByUsername ищет игрока состава по @username.
func (s *Service) FindByUsername(ctx context.Context, gameID int64, username string) (*Player, error) {
	p, err := s.repo.FindInGame(ctx, gameID, username)
	if err != nil {
		return nil, fmt.Errorf("игрок @%s: %w", username, err)
	}
	return p, nil
}

// Names возвращает отображаемые имена для набора ID.
// Неизвестные ID подписываются как idNNN.
func (s *Service) Names(ctx context.Context, ids []int64) map[int64]string {
	out := make(map[int64]string, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		p, err := s.repo.Player(ctx, id)
		if err != nil {
			out[id] = common.FormatUserMention("", "", id)
			continue
		}
		out[id] = p.FullName()
	}
	return out
}
