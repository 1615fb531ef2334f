package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
	"serotonyl.ru/dailypick-bot/internal/features/voting"
)

func TestInGameIsReentrant(t *testing.T) {
	m := New()
	ctx := context.Background()

	calls := 0
	err := m.InGame(ctx, 1, func(ctx context.Context) error {
		calls++
		return m.InGame(ctx, 1, func(context.Context) error {
			calls++
			return nil
		})
	})
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, calls)
}

func TestInGameSerializesGame(t *testing.T) {
	m := New()
	ctx := context.Background()

	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.InGame(ctx, 7, func(context.Context) error {
				v := counter
				time.Sleep(time.Microsecond)
				counter = v + 1
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestResultInsertOncePerDay(t *testing.T) {
	m := New()
	ctx := context.Background()
	store := m.Results()
	d := common.Day{Year: 2025, Day: 40}

	err := store.Insert(ctx, &selection.DailyResult{GameID: 1, Year: d.Year, Day: d.Day, WinnerID: 5})
	assert.Equal(t, nil, err)
	err = store.Insert(ctx, &selection.DailyResult{GameID: 1, Year: d.Year, Day: d.Day, WinnerID: 6})
	assert.Equal(t, common.ErrAlreadyExists, err)

	res, err := store.Get(ctx, 1, d)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(5), res.WinnerID)

	_, err = store.Get(ctx, 2, d)
	assert.Equal(t, common.ErrNotFound, err)
}

func TestVotingCompleteOnce(t *testing.T) {
	m := New()
	ctx := context.Background()
	store := m.Votings()

	v := &voting.Voting{GameID: 1, Year: 2025, MissedDays: []int{3}, MaxChoices: 1}
	err := store.Create(ctx, v, []voting.Candidate{{Position: 0, UserID: 9}})
	assert.Equal(t, nil, err)
	assert.Equal(t, voting.StatusActive, v.Status)

	err = store.Create(ctx, &voting.Voting{GameID: 1, Year: 2025}, nil)
	assert.Equal(t, common.ErrAlreadyExists, err)

	winners := []voting.Winner{{Rank: 1, UserID: 9, Days: []int{3}}}
	ok, err := store.Complete(ctx, v, winners, time.Now())
	assert.Equal(t, nil, err)
	assert.T(t, ok)
	assert.Equal(t, voting.StatusCompleted, v.Status)
	assert.Equal(t, 2, v.Version)

	ok, err = store.Complete(ctx, v, nil, time.Now())
	assert.Equal(t, nil, err)
	assert.T(t, !ok)

	stored, err := store.Winners(ctx, v.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(stored))
	assert.Equal(t, []int{3}, stored[0].Days)

	// снимок не меняется вместе с исходным срезом
	winners[0].Days[0] = 99
	stored, _ = store.Winners(ctx, v.ID)
	assert.Equal(t, []int{3}, stored[0].Days)
}
