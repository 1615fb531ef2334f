package memory

import (
	"context"
	"fmt"
	"sort"

	"serotonyl.ru/dailypick-bot/internal/features/ledger"
)

// LedgerStore — журнал движений койнов.
type LedgerStore struct {
	m *DB
}

func (s *LedgerStore) Insert(_ context.Context, e *ledger.Entry) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.Amount == 0 {
		return fmt.Errorf("нулевая сумма в журнале (reason=%s)", e.Reason)
	}
	e.ID = m.nextID()
	e.CreatedAt = now()
	m.entries = append(m.entries, *e)
	return nil
}

func (s *LedgerStore) Balance(_ context.Context, gameID, userID int64) (int64, error) {
	return s.sum(gameID, userID, 0), nil
}

func (s *LedgerStore) YearBalance(_ context.Context, gameID, userID int64, year int) (int64, error) {
	return s.sum(gameID, userID, year), nil
}

func (s *LedgerStore) Leaderboard(_ context.Context, gameID int64, year, limit int) ([]ledger.Standing, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	totals := make(map[int64]int64)
	for _, e := range m.entries {
		if e.GameID == gameID && (year == 0 || e.Year == year) {
			totals[e.UserID] += e.Amount
		}
	}
	out := make([]ledger.Standing, 0, len(totals))
	for id, b := range totals {
		out = append(out, ledger.Standing{UserID: id, Balance: b})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *LedgerStore) History(_ context.Context, gameID, userID int64, limit int) ([]*ledger.Entry, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*ledger.Entry
	for i := len(m.entries) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		e := m.entries[i]
		if e.GameID == gameID && e.UserID == userID {
			out = append(out, &e)
		}
	}
	return out, nil
}

// Entries возвращает копию всех записей игры (для проверок в тестах).
func (s *LedgerStore) Entries(gameID int64) []ledger.Entry {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ledger.Entry
	for _, e := range m.entries {
		if e.GameID == gameID {
			out = append(out, e)
		}
	}
	return out
}

func (s *LedgerStore) sum(gameID, userID int64, year int) int64 {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var total int64
	for _, e := range m.entries {
		if e.GameID == gameID && e.UserID == userID && (year == 0 || e.Year == year) {
			total += e.Amount
		}
	}
	return total
}
