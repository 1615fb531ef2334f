// Package voting — tally.go подсчитывает взвешенные голоса.
//
// Вес игрока: его победы за год. Бюллетень делит вес голосующего
// поровну между выбранными кандидатами. Кандидат, который не голосовал
// и не исключён, получает автоматический бюллетень [сам]×maxChoices,
// то есть весь свой вес себе. Голоса исключённых лидеров учитываются,
// но автоматического бюллетеня у них нет.
// Кандидаты: варианты опроса. Игроки, не вошедшие в опрос, автоматического
// бюллетеня не получают, их собственные голоса учитываются.
package voting

import (
	"sort"

	"github.com/shopspring/decimal"
)

// scorePlaces — точность итоговых очков.
const scorePlaces = 4

// TallyInput — данные для подсчёта.
type TallyInput struct {
	// Weights — победы за год по игрокам
	Weights    map[int64]int
	Candidates []int64
	Excluded   map[int64]bool
	Ballots    []Ballot
	MaxChoices int
}

// Tally считает очки и возвращает кандидатов в порядке ранжирования:
// очки по убыванию, затем ручные голоса по убыванию, затем user_id.
func Tally(in TallyInput) []Score {
	scores := make(map[int64]*Score, len(in.Candidates))
	get := func(id int64) *Score {
		s, ok := scores[id]
		if !ok {
			s = &Score{UserID: id, Score: decimal.Zero, Excluded: in.Excluded[id]}
			scores[id] = s
		}
		return s
	}
	for _, id := range in.Candidates {
		get(id)
	}

	voted := make(map[int64]bool, len(in.Ballots))
	for _, b := range in.Ballots {
		if len(b.CandidateIDs) == 0 {
			continue
		}
		voted[b.VoterID] = true

		weight := in.Weights[b.VoterID]
		share := decimal.Zero
		if weight > 0 {
			share = decimal.NewFromInt(int64(weight)).Div(decimal.NewFromInt(int64(len(b.CandidateIDs))))
		}
		for _, id := range b.CandidateIDs {
			s := get(id)
			s.Score = s.Score.Add(share)
			s.Votes++
		}
	}

	if in.MaxChoices > 0 {
		for _, id := range in.Candidates {
			weight := in.Weights[id]
			if voted[id] || in.Excluded[id] || weight <= 0 {
				continue
			}
			s := get(id)
			s.AutoVoted = true
			s.AutoVotes += in.MaxChoices
			// [id]×maxChoices, каждая запись весит weight/maxChoices
			s.Score = s.Score.Add(decimal.NewFromInt(int64(weight)))
		}
	}

	out := make([]Score, 0, len(scores))
	for _, s := range scores {
		s.Score = s.Score.Round(scorePlaces)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Score.Cmp(out[j].Score); c != 0 {
			return c > 0
		}
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// TopWinners возвращает до n неисключённых кандидатов с положительными очками
// в порядке ранжирования. scores должен быть уже отсортирован Tally.
func TopWinners(scores []Score, n int) []Score {
	var out []Score
	for _, s := range scores {
		if len(out) >= n {
			break
		}
		if s.Excluded || !s.Score.IsPositive() {
			continue
		}
		out = append(out, s)
	}
	return out
}
