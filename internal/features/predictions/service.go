// Package predictions — service.go содержит создание и проверку предсказаний.
package predictions

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
)

// Store — хранилище предсказаний.
type Store interface {
	Insert(ctx context.Context, p *Prediction) error
	Get(ctx context.Context, gameID, userID int64, d common.Day) (*Prediction, error)
	ForDay(ctx context.Context, gameID int64, d common.Day) ([]*Prediction, error)
	Update(ctx context.Context, p *Prediction) error
}

// Service управляет предсказаниями.
type Service struct {
	repo   Store
	ledger *ledger.Service
}

// NewService создаёт сервис предсказаний.
func NewService(repo Store, ledgerService *ledger.Service) *Service {
	return &Service{repo: repo, ledger: ledgerService}
}

// CandidatesCount — сколько кандидатов называет предсказание:
// ceil(игроков / 10), но не меньше одного.
func CandidatesCount(rosterSize int) int {
	n := (rosterSize + 9) / 10
	if n < 1 {
		return 1
	}
	return n
}

// Validate проверяет список кандидатов: нужное количество,
// без повторов и самого автора, только игроки состава.
func Validate(userID int64, candidates []int64, roster []int64) error {
	if want := CandidatesCount(len(roster)); len(candidates) != want {
		return fmt.Errorf("нужно назвать %d кандидат(ов), названо %d: %w", want, len(candidates), common.ErrInvalidAmount)
	}
	inRoster := make(map[int64]bool, len(roster))
	for _, id := range roster {
		inRoster[id] = true
	}
	seen := make(map[int64]bool, len(candidates))
	for _, id := range candidates {
		if id == userID {
			return common.ErrSelfTarget
		}
		if !inRoster[id] {
			return fmt.Errorf("игрок %d: %w", id, common.ErrNotFound)
		}
		if seen[id] {
			return fmt.Errorf("игрок %d назван дважды: %w", id, common.ErrAlreadyExists)
		}
		seen[id] = true
	}
	return nil
}

// Place сохраняет предсказание на день d. Оплату проводит вызывающий код
// в той же транзакции.
func (s *Service) Place(ctx context.Context, gameID, userID int64, d common.Day, candidates []int64) (*Prediction, error) {
	p := &Prediction{
		GameID:     gameID,
		UserID:     userID,
		Year:       d.Year,
		Day:        d.Day,
		Candidates: candidates,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id":    gameID,
		"user_id":    userID,
		"year":       d.Year,
		"day":        d.Day,
		"candidates": candidates,
	}).Info("Сделано предсказание")
	return p, nil
}

// Get возвращает предсказание игрока на день.
func (s *Service) Get(ctx context.Context, gameID, userID int64, d common.Day) (*Prediction, error) {
	return s.repo.Get(ctx, gameID, userID, d)
}

// Score проверяет предсказания дня против победителя winnerID и начисляет
// reward угадавшим. За каждую пару (предсказание, победитель) награда
// выплачивается не больше одного раза, поэтому повторная проверка после
// перевыбора платит только за нового победителя.
func (s *Service) Score(ctx context.Context, gameID int64, d common.Day, winnerID, reward int64) ([]Outcome, error) {
	list, err := s.repo.ForDay(ctx, gameID, d)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(list))
	for _, p := range list {
		correct := p.Names(winnerID)
		o := Outcome{Prediction: p, Correct: correct}

		if correct && !p.Rewarded(winnerID) {
			if reward > 0 {
				if _, err := s.ledger.Credit(ctx, gameID, p.UserID, reward, d.Year, ledger.ReasonPredictionCorrect); err != nil {
					return nil, err
				}
			}
			p.RewardedWinners = append(p.RewardedWinners, winnerID)
			o.Reward = reward
		}

		// После перевыбора предсказание остаётся верным, если угадан хоть один из победителей
		isCorrect := correct || len(p.RewardedWinners) > 0
		p.IsCorrect = &isCorrect
		if err := s.repo.Update(ctx, p); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, o)
	}

	if len(outcomes) > 0 {
		log.WithFields(log.Fields{
			"game_id": gameID,
			"year":    d.Year,
			"day":     d.Day,
			"winner":  winnerID,
			"checked": len(outcomes),
		}).Info("Предсказания проверены")
	}
	return outcomes, nil
}
