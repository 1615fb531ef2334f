package effects

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
)

func TestExponentialWeight(t *testing.T) {
	cases := map[int]int{-1: 1, 0: 1, 1: 2, 2: 4, 3: 8, 5: 32}
	for count, want := range cases {
		assert.Equal(t, want, ExponentialWeight(count))
	}
	assert.Equal(t, 1<<maxAmplificationShift, ExponentialWeight(100))
}

func TestLinearWeight(t *testing.T) {
	cases := map[int]int{-1: 1, 0: 1, 1: 2, 2: 3, 3: 4}
	for count, want := range cases {
		assert.Equal(t, want, LinearWeight(count))
	}
}

func TestRegistryWeight(t *testing.T) {
	r := NewRegistry(nil)
	e := &PlayerEffect{AmplificationCount: 3}
	assert.Equal(t, 8, r.Weight(e))
	assert.Equal(t, 1, r.Weight(nil))

	r.UseWeight(LinearWeight)
	assert.Equal(t, 4, r.Weight(e))
}

func TestWeightByName(t *testing.T) {
	r := NewRegistry(nil)
	e := &PlayerEffect{AmplificationCount: 2}

	fn, err := WeightByName("linear")
	assert.Equal(t, nil, err)
	r.UseWeight(fn)
	assert.Equal(t, 3, r.Weight(e))

	fn, err = WeightByName("")
	assert.Equal(t, nil, err)
	r.UseWeight(fn)
	assert.Equal(t, 4, r.Weight(e))

	_, err = WeightByName("cubic")
	assert.NotEqual(t, nil, err)
}

func TestIsProtected(t *testing.T) {
	until := common.Day{Year: 2025, Day: 100}
	e := &PlayerEffect{ProtectedUntil: &until}

	assert.T(t, e.IsProtected(common.Day{Year: 2025, Day: 99}))
	assert.T(t, e.IsProtected(common.Day{Year: 2025, Day: 100}))
	assert.T(t, !e.IsProtected(common.Day{Year: 2025, Day: 101}))
	assert.T(t, !e.IsProtected(common.Day{Year: 2026, Day: 1}))

	var none *PlayerEffect
	assert.T(t, !none.IsProtected(until))
}

func TestProtectionIgnoredOnLastDay(t *testing.T) {
	until := common.Day{Year: 2026, Day: 1}
	e := &PlayerEffect{ProtectedUntil: &until}
	assert.T(t, !e.IsProtected(common.Day{Year: 2025, Day: 365}))
	assert.T(t, e.IsProtected(common.Day{Year: 2025, Day: 364}))
}

func TestCooldownLeft(t *testing.T) {
	loc := common.MoscowLocation()
	bought := time.Date(2025, time.March, 1, 23, 0, 0, 0, loc)
	e := &PlayerEffect{ProtectionBoughtAt: &bought}

	assert.Equal(t, 7, e.CooldownLeft(bought, 7))
	assert.Equal(t, 6, e.CooldownLeft(time.Date(2025, time.March, 2, 0, 30, 0, 0, loc), 7))
	assert.Equal(t, 0, e.CooldownLeft(time.Date(2025, time.March, 8, 0, 0, 0, 0, loc), 7))
	assert.Equal(t, 0, (&PlayerEffect{}).CooldownLeft(bought, 7))
}
