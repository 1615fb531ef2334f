package memory

import (
	"context"
	"sort"
	"time"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
)

// ResultStore — результаты дней.
type ResultStore struct {
	m *DB
}

func (s *ResultStore) Get(_ context.Context, gameID int64, d common.Day) (*selection.DailyResult, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.results[dayKey{gameID, d.Year, d.Day}]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &res, nil
}

func (s *ResultStore) Insert(_ context.Context, res *selection.DailyResult) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := dayKey{res.GameID, res.Year, res.Day}
	if _, ok := m.results[k]; ok {
		return common.ErrAlreadyExists
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now()
	}
	m.results[k] = *res
	return nil
}

func (s *ResultStore) ApplyReroll(_ context.Context, res *selection.DailyResult) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := dayKey{res.GameID, res.Year, res.Day}
	cur, ok := m.results[k]
	if !ok || !cur.RerollAvailable {
		return common.ErrRerollUnavailable
	}
	cur.WinnerID = res.WinnerID
	cur.OriginalWinnerID = res.OriginalWinnerID
	cur.RerollInitiatorID = res.RerollInitiatorID
	cur.RerollAvailable = false
	m.results[k] = cur
	return nil
}

func (s *ResultStore) AttachMessage(_ context.Context, gameID int64, d common.Day, messageID int) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := dayKey{gameID, d.Year, d.Day}
	if cur, ok := m.results[k]; ok {
		cur.MessageID = messageID
		m.results[k] = cur
	}
	return nil
}

func (s *ResultStore) CloseReroll(_ context.Context, gameID int64, d common.Day) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := dayKey{gameID, d.Year, d.Day}
	cur, ok := m.results[k]
	if !ok || !cur.RerollAvailable {
		return false, nil
	}
	cur.RerollAvailable = false
	m.results[k] = cur
	return true, nil
}

func (s *ResultStore) PendingRerolls(_ context.Context, before time.Time) ([]selection.PendingReroll, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []selection.PendingReroll
	for _, res := range m.results {
		if !res.RerollAvailable || !res.CreatedAt.Before(before) {
			continue
		}
		var chatID int64
		if g, ok := m.games[res.GameID]; ok {
			chatID = g.ChatID
		}
		out = append(out, selection.PendingReroll{
			GameID:    res.GameID,
			ChatID:    chatID,
			Year:      res.Year,
			Day:       res.Day,
			MessageID: res.MessageID,
			CreatedAt: res.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *ResultStore) WinCounts(_ context.Context, gameID int64, year int) ([]selection.WinCount, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[int64]int)
	for k, res := range m.results {
		if k.gameID == gameID && (year == 0 || k.year == year) {
			counts[res.WinnerID]++
		}
	}
	out := make([]selection.WinCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, selection.WinCount{UserID: id, Wins: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *ResultStore) Days(_ context.Context, gameID int64, year int) ([]int, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []int
	for k := range m.results {
		if k.gameID == gameID && k.year == year {
			out = append(out, k.day)
		}
	}
	sort.Ints(out)
	return out, nil
}
