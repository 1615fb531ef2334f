package middleware

import (
	"strings"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.T(t, rl.Allow(1))
	assert.T(t, rl.Allow(1))
	assert.T(t, !rl.Allow(1), "третий запрос в окне")
	assert.T(t, rl.Allow(2), "у другого пользователя своё окно")

	now = now.Add(61 * time.Second)
	assert.T(t, rl.Allow(1), "окно сдвинулось")
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	defer rl.Close()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.Allow(1)

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	assert.Equal(t, 0, len(rl.requests))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	defer rl.Close()
	for i := 0; i < 100; i++ {
		assert.T(t, rl.Allow(1))
	}
}

func TestShorten(t *testing.T) {
	assert.Equal(t, "привет", shorten("привет"))
	long := strings.Repeat("я", 60)
	got := shorten(long)
	assert.Equal(t, strings.Repeat("я", 50)+"...", got)
}
