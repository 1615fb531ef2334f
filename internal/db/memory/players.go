package memory

import (
	"context"
	"sort"
	"strings"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/players"
)

// PlayerStore — игры, игроки и составы.
type PlayerStore struct {
	m *DB
}

func (s *PlayerStore) EnsureGame(_ context.Context, chatID int64) (*players.Game, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.gamesByChat[chatID]; ok {
		g := *m.games[id]
		return &g, nil
	}
	g := &players.Game{ID: m.nextID(), ChatID: chatID, CreatedAt: now()}
	m.games[g.ID] = g
	m.gamesByChat[chatID] = g.ID
	out := *g
	return &out, nil
}

func (s *PlayerStore) GameByID(_ context.Context, gameID int64) (*players.Game, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[gameID]
	if !ok {
		return nil, common.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (s *PlayerStore) UpsertPlayer(_ context.Context, p *players.Player) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	m.players[p.UserID] = *p
	return nil
}

func (s *PlayerStore) AddToRoster(_ context.Context, gameID, userID int64) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.rosters[gameID] {
		if e.userID == userID {
			return false, nil
		}
	}
	m.rosters[gameID] = append(m.rosters[gameID], rosterEntry{userID: userID, addedAt: m.nextID()})
	return true, nil
}

func (s *PlayerStore) RemoveFromRoster(_ context.Context, gameID, userID int64) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	roster := m.rosters[gameID]
	for i, e := range roster {
		if e.userID == userID {
			m.rosters[gameID] = append(roster[:i:i], roster[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *PlayerStore) Roster(_ context.Context, gameID int64) ([]*players.Player, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	roster := append([]rosterEntry(nil), m.rosters[gameID]...)
	sort.Slice(roster, func(i, j int) bool { return roster[i].addedAt < roster[j].addedAt })

	out := make([]*players.Player, 0, len(roster))
	for _, e := range roster {
		p, ok := m.players[e.userID]
		if !ok {
			p = players.Player{UserID: e.userID}
		}
		out = append(out, &p)
	}
	return out, nil
}

func (s *PlayerStore) Player(_ context.Context, userID int64) (*players.Player, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (s *PlayerStore) FindInGame(_ context.Context, gameID int64, username string) (*players.Player, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.rosters[gameID] {
		p, ok := m.players[e.userID]
		if ok && p.Username != "" && strings.EqualFold(p.Username, username) {
			return &p, nil
		}
	}
	return nil, common.ErrNotFound
}
