package memory

import (
	"context"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/transfer"
)

// TransferStore — переводы, банк чата и ежедневные бонусы.
type TransferStore struct {
	m *DB
}

func (s *TransferStore) InsertTransfer(_ context.Context, t *transfer.Transfer) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userDayKey{t.GameID, t.SenderID, t.Year, t.Day}
	if _, ok := m.transfers[k]; ok {
		return common.ErrAlreadyClaimed
	}
	t.ID = m.nextID()
	t.CreatedAt = now()
	m.transfers[k] = *t
	return nil
}

func (s *TransferStore) TransferredOn(_ context.Context, gameID, senderID int64, d common.Day) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.transfers[userDayKey{gameID, senderID, d.Year, d.Day}]
	return ok, nil
}

func (s *TransferStore) AddToBank(_ context.Context, gameID, amount int64) (int64, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	m.banks[gameID] += amount
	return m.banks[gameID], nil
}

func (s *TransferStore) BankBalance(_ context.Context, gameID int64) (int64, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.banks[gameID], nil
}

func (s *TransferStore) InsertClaim(_ context.Context, c *transfer.BonusClaim) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userDayKey{c.GameID, c.UserID, c.Year, c.Day}
	if _, ok := m.claims[k]; ok {
		return common.ErrAlreadyClaimed
	}
	c.CreatedAt = now()
	m.claims[k] = *c
	return nil
}
