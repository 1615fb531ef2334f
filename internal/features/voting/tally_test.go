package voting

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/shopspring/decimal"
)

const (
	userA int64 = 1
	userB int64 = 2
	userC int64 = 3
)

func TestMaxChoices(t *testing.T) {
	cases := map[int]int{
		0: 0, 1: 1, 2: 1, 3: 1, 4: 2, 6: 3, 7: 1, 9: 3, 10: 5, 15: 5, 21: 7, 25: 5, 49: 7,
	}
	for m, want := range cases {
		assert.Equal(t, want, MaxChoices(m), fmt.Sprintf("maxChoices(%d)", m))
	}
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func scoreOf(scores []Score, id int64) Score {
	for _, s := range scores {
		if s.UserID == id {
			return s
		}
	}
	return Score{UserID: id}
}

// A=5, B=3, C=2 побед; A голосует за B, C за A, B не голосует.
func scenarioInput(excluded map[int64]bool) TallyInput {
	candidates := []int64{userA, userB, userC}
	if excluded[userA] {
		candidates = []int64{userB, userC}
	}
	return TallyInput{
		Weights:    map[int64]int{userA: 5, userB: 3, userC: 2},
		Candidates: candidates,
		Excluded:   excluded,
		Ballots: []Ballot{
			{VoterID: userA, CandidateIDs: []int64{userB}},
			{VoterID: userC, CandidateIDs: []int64{userA}},
		},
		MaxChoices: MaxChoices(4),
	}
}

func TestTallyScenario(t *testing.T) {
	scores := Tally(scenarioInput(nil))

	assert.Equal(t, 3, len(scores))
	assert.Equal(t, userB, scores[0].UserID)
	assert.Equal(t, userA, scores[1].UserID)
	assert.Equal(t, userC, scores[2].UserID)

	b := scoreOf(scores, userB)
	assert.T(t, b.Score.Equal(dec(8)), b.Score.String())
	assert.Equal(t, 1, b.Votes)
	assert.Equal(t, 2, b.AutoVotes)
	assert.T(t, b.AutoVoted)

	a := scoreOf(scores, userA)
	assert.T(t, a.Score.Equal(dec(2)), a.Score.String())
	assert.T(t, !a.AutoVoted)

	c := scoreOf(scores, userC)
	assert.T(t, c.Score.IsZero(), c.Score.String())

	winners := Allocate(TopWinners(scores, 2), []int{10, 3, 7, 1})
	assert.Equal(t, 2, len(winners))
	assert.Equal(t, userB, winners[0].UserID)
	assert.Equal(t, []int{1, 3, 7}, winners[0].Days)
	assert.Equal(t, userA, winners[1].UserID)
	assert.Equal(t, []int{10}, winners[1].Days)
}

func TestTallyScenarioWithLeaderExcluded(t *testing.T) {
	scores := Tally(scenarioInput(map[int64]bool{userA: true}))

	// голос A за B засчитан, но сам A выиграть не может
	assert.T(t, scoreOf(scores, userB).Score.Equal(dec(8)))
	assert.T(t, scoreOf(scores, userA).Excluded)

	top := TopWinners(scores, 2)
	assert.Equal(t, 1, len(top))
	assert.Equal(t, userB, top[0].UserID)

	winners := Allocate(top, []int{1, 3, 7, 10})
	assert.Equal(t, []int{1, 3, 7, 10}, winners[0].Days)
}

func TestTallySplitsBallotEvenly(t *testing.T) {
	scores := Tally(TallyInput{
		Weights:    map[int64]int{1: 6, 2: 4, 3: 2},
		Candidates: []int64{1, 2, 3},
		Ballots:    []Ballot{{VoterID: 1, CandidateIDs: []int64{1, 2}}},
		MaxChoices: 2,
	})

	assert.T(t, scoreOf(scores, 1).Score.Equal(dec(3)))
	assert.T(t, scoreOf(scores, 2).Score.Equal(dec(7)))
	assert.T(t, scoreOf(scores, 3).Score.Equal(dec(2)))
	assert.Equal(t, int64(2), scores[0].UserID)
}

func TestTallyRoundsToFourPlaces(t *testing.T) {
	scores := Tally(TallyInput{
		Weights:    map[int64]int{1: 1},
		Candidates: []int64{1, 2, 3},
		Ballots:    []Ballot{{VoterID: 1, CandidateIDs: []int64{1, 2, 3}}},
		MaxChoices: 1,
	})
	assert.Equal(t, "0.3333", scoreOf(scores, 2).Score.String())
}

func TestTallyTieBreak(t *testing.T) {
	// у 2 и 3 по 2 очка, у 3 больше ручных голосов
	scores := Tally(TallyInput{
		Weights:    map[int64]int{1: 2, 2: 2, 4: 1, 5: 1},
		Candidates: []int64{2, 3},
		Ballots: []Ballot{
			{VoterID: 4, CandidateIDs: []int64{3}},
			{VoterID: 5, CandidateIDs: []int64{3}},
		},
		MaxChoices: 1,
	})
	assert.Equal(t, int64(3), scores[0].UserID)
	assert.Equal(t, int64(2), scores[1].UserID)
}

func TestTallyNobodyHasWeight(t *testing.T) {
	scores := Tally(TallyInput{
		Weights:    map[int64]int{},
		Candidates: []int64{1, 2},
		MaxChoices: 1,
	})
	assert.Equal(t, 0, len(TopWinners(scores, 1)))
}

func TestApportionLargestRemainder(t *testing.T) {
	// 8 и 2 на 4 дня: 3.2 и 0.8 → 3 и 1
	assert.Equal(t, []int{3, 1}, Apportion([]decimal.Decimal{dec(8), dec(2)}, 4))
	// 1:1:1 на 4 дня: остаток уходит первому
	assert.Equal(t, []int{2, 1, 1}, Apportion([]decimal.Decimal{dec(1), dec(1), dec(1)}, 4))
	// равные остатки решает счёт: 0.5 и 1.5, у второго больше очков
	assert.Equal(t, []int{0, 2}, Apportion([]decimal.Decimal{dec(1), dec(3)}, 2))
}

func TestApportionZeroScoresSplitEqually(t *testing.T) {
	assert.Equal(t, []int{2, 1, 1}, Apportion([]decimal.Decimal{decimal.Zero, decimal.Zero, decimal.Zero}, 4))
	assert.Equal(t, []int{0, 0}, Apportion([]decimal.Decimal{dec(1), dec(2)}, 0))
	assert.Equal(t, []int{}, Apportion(nil, 3))
}

func TestApportionConservesTotalAndIsMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		n := 1 + rng.Intn(6)
		total := rng.Intn(40)
		scores := make([]decimal.Decimal, n)
		for i := range scores {
			scores[i] = decimal.NewFromInt(int64(rng.Intn(20))).Div(decimal.NewFromInt(int64(1 + rng.Intn(3)))).Round(4)
		}

		got := Apportion(scores, total)
		sum := 0
		for i, c := range got {
			assert.T(t, c >= 0)
			sum += c
			for j := range got {
				if scores[i].GreaterThan(scores[j]) {
					assert.T(t, got[i] >= got[j], fmt.Sprintf("scores=%v got=%v", scores, got))
				}
			}
		}
		assert.Equal(t, total, sum, fmt.Sprintf("scores=%v total=%d", scores, total))
	}
}
