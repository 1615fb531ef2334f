package memory

import (
	"context"
	"sort"
	"time"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/voting"
)

// VotingStore — финальные голосования.
type VotingStore struct {
	m *DB
}

func (s *VotingStore) Create(_ context.Context, v *voting.Voting, candidates []voting.Candidate) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cur := range m.votings {
		if cur.GameID == v.GameID && cur.Year == v.Year {
			return common.ErrAlreadyExists
		}
	}
	v.ID = m.nextID()
	v.Status = voting.StatusActive
	v.Version = 1
	m.votings[v.ID] = copyVoting(v)
	m.candidates[v.ID] = append([]voting.Candidate(nil), candidates...)
	m.ballots[v.ID] = make(map[int64][]int64)
	return nil
}

func (s *VotingStore) Get(_ context.Context, gameID int64, year int) (*voting.Voting, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.votings {
		if v.GameID == gameID && v.Year == year {
			return copyVoting(v), nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *VotingStore) GetByPoll(_ context.Context, pollID string) (*voting.Voting, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if pollID == "" {
		return nil, common.ErrNotFound
	}
	for _, v := range m.votings {
		if v.PollID == pollID {
			return copyVoting(v), nil
		}
	}
	return nil, common.ErrNotFound
}

func (s *VotingStore) AttachPoll(_ context.Context, votingID int64, pollID string, messageID int) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.votings[votingID]
	if !ok {
		return common.ErrNotFound
	}
	v.PollID, v.PollMessageID = pollID, messageID
	return nil
}

func (s *VotingStore) Delete(_ context.Context, votingID int64) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.votings, votingID)
	delete(m.candidates, votingID)
	delete(m.ballots, votingID)
	delete(m.winners, votingID)
	return nil
}

func (s *VotingStore) Candidates(_ context.Context, votingID int64) ([]voting.Candidate, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]voting.Candidate(nil), m.candidates[votingID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (s *VotingStore) SaveBallot(_ context.Context, votingID int64, b voting.Ballot) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	ballots, ok := m.ballots[votingID]
	if !ok {
		return common.ErrNotFound
	}
	ballots[b.VoterID] = append([]int64(nil), b.CandidateIDs...)
	return nil
}

func (s *VotingStore) DeleteBallot(_ context.Context, votingID, voterID int64) error {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.ballots[votingID], voterID)
	return nil
}

func (s *VotingStore) Ballots(_ context.Context, votingID int64) ([]voting.Ballot, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []voting.Ballot
	for voter, ids := range m.ballots[votingID] {
		out = append(out, voting.Ballot{VoterID: voter, CandidateIDs: append([]int64(nil), ids...)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VoterID < out[j].VoterID })
	return out, nil
}

func (s *VotingStore) Complete(_ context.Context, v *voting.Voting, winners []voting.Winner, endedAt time.Time) (bool, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.votings[v.ID]
	if !ok || cur.Status != voting.StatusActive {
		return false, nil
	}
	cur.Status = voting.StatusCompleted
	cur.EndedAt = &endedAt
	cur.Version++

	stored := make([]voting.Winner, len(winners))
	for i, w := range winners {
		w.Days = append([]int(nil), w.Days...)
		stored[i] = w
	}
	m.winners[v.ID] = stored

	v.Status = cur.Status
	v.EndedAt = &endedAt
	v.Version = cur.Version
	return true, nil
}

func (s *VotingStore) Winners(_ context.Context, votingID int64) ([]voting.Winner, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]voting.Winner, 0, len(m.winners[votingID]))
	for _, w := range m.winners[votingID] {
		w.Days = append([]int(nil), w.Days...)
		out = append(out, w)
	}
	return out, nil
}

func (s *VotingStore) Active(_ context.Context) ([]voting.Due, error) {
	m := s.m
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []voting.Due
	for _, v := range m.votings {
		if v.Status != voting.StatusActive {
			continue
		}
		var chatID int64
		if g, ok := m.games[v.GameID]; ok {
			chatID = g.ChatID
		}
		out = append(out, voting.Due{Voting: copyVoting(v), ChatID: chatID})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Voting.StartedAt.Before(out[j].Voting.StartedAt) })
	return out, nil
}

func copyVoting(v *voting.Voting) *voting.Voting {
	out := *v
	out.MissedDays = append([]int(nil), v.MissedDays...)
	out.ExcludedLeaders = append([]int64(nil), v.ExcludedLeaders...)
	if v.EndedAt != nil {
		t := *v.EndedAt
		out.EndedAt = &t
	}
	return &out
}
