package memory

import (
	"context"
	"sort"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/effects"
)

// EffectStore — защита и усиления игроков.
type EffectStore struct {
	m *DB
}

func (s *EffectStore) GetOrCreate(_ context.Context, gameID, userID int64) (*effects.PlayerEffect, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userKey{gameID, userID}
	e, ok := m.effects[k]
	if !ok {
		e = effects.PlayerEffect{GameID: gameID, UserID: userID}
		m.effects[k] = e
	}
	return copyEffect(e), nil
}

func (s *EffectStore) Save(_ context.Context, e *effects.PlayerEffect) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	m.effects[userKey{e.GameID, e.UserID}] = *copyEffect(*e)
	return nil
}

func (s *EffectStore) ForGame(_ context.Context, gameID int64) ([]*effects.PlayerEffect, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*effects.PlayerEffect
	for k, e := range m.effects {
		if k.gameID == gameID {
			out = append(out, copyEffect(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *EffectStore) InsertAmplification(_ context.Context, p *effects.AmplificationPurchase) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userDayKey{p.GameID, p.BuyerID, p.Year, p.Day}
	if _, ok := m.amplifications[k]; ok {
		return common.ErrAlreadyExists
	}
	p.ID = m.nextID()
	p.CreatedAt = now()
	m.amplifications[k] = *p
	return nil
}

func (s *EffectStore) AmplificationBoughtBy(_ context.Context, gameID, buyerID int64, d common.Day) (*effects.AmplificationPurchase, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.amplifications[userDayKey{gameID, buyerID, d.Year, d.Day}]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (s *EffectStore) ResetAmplification(_ context.Context, gameID, userID int64) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	k := userKey{gameID, userID}
	if e, ok := m.effects[k]; ok {
		e.AmplificationCount = 0
		m.effects[k] = e
	}
	return nil
}

func copyEffect(e effects.PlayerEffect) *effects.PlayerEffect {
	out := e
	if e.ProtectedUntil != nil {
		d := *e.ProtectedUntil
		out.ProtectedUntil = &d
	}
	if e.ProtectionBoughtAt != nil {
		t := *e.ProtectionBoughtAt
		out.ProtectionBoughtAt = &t
	}
	return &out
}
