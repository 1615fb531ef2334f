package selection

import (
	"testing"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/effects"
)

var today = common.Day{Year: 2025, Day: 150}

func TestPickRespectsWeights(t *testing.T) {
	p := NewPicker(42)
	pool := []Candidate{{UserID: 1, Weight: 1}, {UserID: 2, Weight: 4}}

	hits := map[int64]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		c, ok := p.Pick(pool)
		assert.T(t, ok)
		hits[c.UserID]++
	}

	// ожидаем 20% / 80% с запасом
	assert.T(t, hits[1] > n*15/100 && hits[1] < n*25/100)
	assert.Equal(t, n, hits[1]+hits[2])
}

func TestPickEmptyPool(t *testing.T) {
	_, ok := NewPicker(1).Pick(nil)
	assert.T(t, !ok)
}

func TestBuildPoolExponential(t *testing.T) {
	registry := effects.NewRegistry(nil)
	fx := map[int64]*effects.PlayerEffect{
		2: {UserID: 2, AmplificationCount: 1},
		3: {UserID: 3, AmplificationCount: 3},
	}
	pool := BuildPool([]int64{1, 2, 3}, fx, registry, today)

	assert.Equal(t, 3, len(pool))
	assert.Equal(t, 1, pool[0].Weight)
	assert.Equal(t, 2, pool[1].Weight)
	assert.Equal(t, 8, pool[2].Weight)
	assert.T(t, !pool[0].Amplified)
	assert.T(t, pool[2].Amplified)
}

func TestBuildPoolLinear(t *testing.T) {
	registry := effects.NewRegistry(nil)
	registry.UseWeight(effects.LinearWeight)
	fx := map[int64]*effects.PlayerEffect{3: {UserID: 3, AmplificationCount: 3}}
	pool := BuildPool([]int64{1, 3}, fx, registry, today)

	assert.Equal(t, 1, pool[0].Weight)
	assert.Equal(t, 4, pool[1].Weight)
}

func TestBuildPoolProtection(t *testing.T) {
	until := today
	fx := map[int64]*effects.PlayerEffect{1: {UserID: 1, ProtectedUntil: &until}}
	pool := BuildPool([]int64{1, 2}, fx, effects.NewRegistry(nil), today)

	assert.T(t, pool[0].Protected)
	assert.T(t, !pool[1].Protected)
	assert.Equal(t, 1, len(Eligible(pool)))
}

func TestDrawWinnerSingleEligible(t *testing.T) {
	p := NewPicker(7)
	pool := []Candidate{
		{UserID: 1, Weight: 1, Protected: true},
		{UserID: 2, Weight: 1, Protected: true},
		{UserID: 3, Weight: 1},
	}

	saves := 0
	for i := 0; i < 200; i++ {
		choice, ok := p.DrawWinner(pool, false)
		assert.T(t, ok)
		assert.Equal(t, int64(3), choice.Winner.UserID)
		if choice.Saved != nil {
			assert.T(t, choice.Saved.Protected)
			saves++
		}
	}
	// защищённые занимают 2/3 пула, спасения должны случаться
	assert.T(t, saves > 0)
}

func TestDrawWinnerAllProtected(t *testing.T) {
	p := NewPicker(3)
	pool := []Candidate{{UserID: 1, Weight: 1, Protected: true}, {UserID: 2, Weight: 1, Protected: true}}

	_, ok := p.DrawWinner(pool, false)
	assert.T(t, !ok)

	choice, ok := p.DrawWinner(pool, true)
	assert.T(t, ok)
	assert.T(t, choice.Saved == nil)
	assert.T(t, choice.Winner.UserID == 1 || choice.Winner.UserID == 2)
}

func TestSample(t *testing.T) {
	p := NewPicker(5)
	ids := []int64{1, 2, 3, 4, 5}

	got := p.Sample(ids, 3)
	assert.Equal(t, 3, len(got))
	seen := map[int64]bool{}
	for _, id := range got {
		assert.T(t, !seen[id])
		seen[id] = true
	}
	assert.Equal(t, 5, len(p.Sample(ids, 10)))
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestMissedDays(t *testing.T) {
	missed := MissedDays([]int{1, 3, 4}, common.Day{Year: 2025, Day: 7})
	assert.Equal(t, []int{2, 5, 6}, missed)
	assert.Equal(t, 0, len(MissedDays(nil, common.Day{Year: 2025, Day: 1})))
}

func TestRerollData(t *testing.T) {
	d := common.Day{Year: 2025, Day: 42}
	got, ok := ParseRerollData(RerollData(d))
	assert.T(t, ok)
	assert.Equal(t, d, got)

	for _, bad := range []string{"", "reroll:", "reroll:2025", "reroll:x:1", "reroll:2025:0", "reroll:2025:366", "shop:2025:1"} {
		_, ok := ParseRerollData(bad)
		assert.T(t, !ok, bad)
	}
	_, ok = ParseRerollData("reroll:2024:366")
	assert.T(t, ok)
}
