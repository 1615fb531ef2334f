package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/db/memory"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
)

const testChatID int64 = -1001

// fakePoller запоминает открытые и закрытые опросы.
type fakePoller struct {
	mu      sync.Mutex
	openErr error
	opened  int
	stopped []int
}

func (p *fakePoller) OpenPoll(_ context.Context, _ int64, _ string, options []string) (string, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.openErr != nil {
		return "", 0, p.openErr
	}
	p.opened++
	return fmt.Sprintf("poll-%d", p.opened), 100 + p.opened, nil
}

func (p *fakePoller) StopPoll(_ context.Context, _ int64, messageID int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = append(p.stopped, messageID)
	return nil
}

func (p *fakePoller) stopCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.stopped)
}

type env struct {
	t        *testing.T
	ctx      context.Context
	db       *memory.DB
	svc      *Services
	poller   *fakePoller
	settings config.GameSettings
	game     *players.Game
}

func newEnv(t *testing.T) *env {
	e := &env{
		t:        t,
		ctx:      context.Background(),
		db:       memory.New(),
		poller:   &fakePoller{},
		settings: config.DefaultGameSettings(),
	}
	e.svc = NewServices(MemoryStores(e.db), selection.NewPicker(42), e.poller,
		func(int64) config.GameSettings { return e.settings })

	game, err := e.svc.Players.EnsureGame(e.ctx, testChatID)
	assert.Equal(t, nil, err)
	e.game = game
	return e
}

func (e *env) register(ids ...int64) {
	for _, id := range ids {
		p := &players.Player{UserID: id, FirstName: fmt.Sprintf("user%d", id)}
		err := e.svc.Players.Register(e.ctx, e.game.ID, p)
		assert.Equal(e.t, nil, err, fmt.Sprintf("register %d", id))
	}
}

func (e *env) fund(userID, amount int64) {
	_, err := e.svc.Ledger.Credit(e.ctx, e.game.ID, userID, amount, 2025, "test_fund")
	assert.Equal(e.t, nil, err)
}

func (e *env) balance(userID int64) int64 {
	b, err := e.svc.Ledger.Balance(e.ctx, e.game.ID, userID)
	assert.Equal(e.t, nil, err)
	return b
}

func (e *env) entries(reason string) []ledger.Entry {
	var out []ledger.Entry
	for _, en := range e.db.Ledger().Entries(e.game.ID) {
		if en.Reason == reason {
			out = append(out, en)
		}
	}
	return out
}

// assign записывает результат дня напрямую, без розыгрыша.
func (e *env) assign(year int, winnerID int64, days ...int) {
	for _, d := range days {
		ok, err := e.svc.Selection.AssignDay(e.ctx, e.game.ID, common.Day{Year: year, Day: d}, winnerID, msk(year, 1, 1, 0))
		assert.Equal(e.t, nil, err)
		assert.T(e.t, ok, fmt.Sprintf("day %d already taken", d))
	}
}

func msk(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, common.MoscowLocation())
}

func isErr(err, target error) bool {
	return errors.Is(err, target)
}
