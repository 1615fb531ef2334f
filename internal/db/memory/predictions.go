package memory

import (
	"context"
	"sort"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/predictions"
)

// PredictionStore — предсказания победителя дня.
type PredictionStore struct {
	m *DB
}

func (s *PredictionStore) Insert(_ context.Context, p *predictions.Prediction) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userDayKey{p.GameID, p.UserID, p.Year, p.Day}
	if _, ok := m.predictions[k]; ok {
		return common.ErrAlreadyExists
	}
	p.ID = m.nextID()
	p.CreatedAt = now()
	m.predictions[k] = copyPrediction(p)
	return nil
}

func (s *PredictionStore) Get(_ context.Context, gameID, userID int64, d common.Day) (*predictions.Prediction, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.predictions[userDayKey{gameID, userID, d.Year, d.Day}]
	if !ok {
		return nil, common.ErrNotFound
	}
	return copyPrediction(p), nil
}

func (s *PredictionStore) ForDay(_ context.Context, gameID int64, d common.Day) ([]*predictions.Prediction, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*predictions.Prediction
	for k, p := range m.predictions {
		if k.gameID == gameID && k.year == d.Year && k.day == d.Day {
			out = append(out, copyPrediction(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *PredictionStore) Update(_ context.Context, p *predictions.Prediction) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userDayKey{p.GameID, p.UserID, p.Year, p.Day}
	if _, ok := m.predictions[k]; !ok {
		return common.ErrNotFound
	}
	m.predictions[k] = copyPrediction(p)
	return nil
}

func copyPrediction(p *predictions.Prediction) *predictions.Prediction {
	out := *p
	out.Candidates = append([]int64(nil), p.Candidates...)
	out.RewardedWinners = append([]int64(nil), p.RewardedWinners...)
	if p.IsCorrect != nil {
		v := *p.IsCorrect
		out.IsCorrect = &v
	}
	return &out
}
