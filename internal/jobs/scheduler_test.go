package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/db/memory"
	"serotonyl.ru/dailypick-bot/internal/features/effects"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/predictions"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
	"serotonyl.ru/dailypick-bot/internal/features/voting"
)

const chatID int64 = -42

type cleared struct {
	chatID    int64
	messageID int
}

type fakeCleaner struct{ calls []cleared }

func (f *fakeCleaner) ClearRerollButton(chatID int64, messageID int) {
	f.calls = append(f.calls, cleared{chatID, messageID})
}

type fakeAnnouncer struct{ results []*voting.Result }

func (f *fakeAnnouncer) Announce(_ context.Context, _ int64, res *voting.Result) {
	f.results = append(f.results, res)
}

type fixture struct {
	ctx       context.Context
	game      *players.Game
	players   *players.Service
	selection *selection.Service
	voting    *voting.Service
	cleaner   *fakeCleaner
	announcer *fakeAnnouncer
	scheduler *Scheduler
	cfg       *config.Config
}

func newFixture(t *testing.T, now time.Time) *fixture {
	m := memory.New()
	cfg := &config.Config{TestChatID: chatID, Game: config.NewGameConfig()}

	playerService := players.NewService(m.Players())
	ledgerService := ledger.NewService(m.Ledger())
	predictionService := predictions.NewService(m.Predictions(), ledgerService)
	picker := selection.NewPicker(1)
	selectionService := selection.NewService(m.Results(), m, playerService, effects.NewRegistry(m.Effects()),
		ledgerService, predictionService, picker)
	votingService := voting.NewService(m.Votings(), m, playerService, selectionService, picker, nil, cfg.Settings)

	f := &fixture{
		ctx:       context.Background(),
		players:   playerService,
		selection: selectionService,
		voting:    votingService,
		cleaner:   &fakeCleaner{},
		announcer: &fakeAnnouncer{},
		cfg:       cfg,
	}
	f.scheduler = NewScheduler(cfg, selectionService, votingService, f.cleaner, f.announcer)
	f.scheduler.now = func() time.Time { return now }

	game, err := playerService.EnsureGame(f.ctx, chatID)
	assert.Equal(t, nil, err)
	f.game = game
	for _, id := range []int64{1, 2} {
		err := playerService.Register(f.ctx, game.ID, &players.Player{UserID: id, FirstName: "p"})
		assert.Equal(t, nil, err)
	}
	return f
}

func TestExpireRerollsClearsButtons(t *testing.T) {
	drawnAt := time.Date(2025, time.March, 10, 12, 0, 0, 0, common.MoscowLocation())
	f := newFixture(t, drawnAt.Add(6*time.Minute))
	d := common.DayOf(drawnAt)

	_, err := f.selection.Draw(f.ctx, f.game.ID, 0, d, f.cfg.Settings(chatID), drawnAt)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, f.selection.AttachMessage(f.ctx, f.game.ID, d, 55))

	f.scheduler.ExpireRerolls(f.ctx)
	assert.Equal(t, []cleared{{chatID, 55}}, f.cleaner.calls)

	res, err := f.selection.Result(f.ctx, f.game.ID, d)
	assert.Equal(t, nil, err)
	assert.T(t, !res.RerollAvailable)

	f.scheduler.ExpireRerolls(f.ctx)
	assert.Equal(t, 1, len(f.cleaner.calls))
}

func TestCloseVotingsFinalizesOnce(t *testing.T) {
	now := time.Date(2025, time.January, 10, 12, 0, 0, 0, common.MoscowLocation())
	f := newFixture(t, now.Add(time.Hour))
	for day := 1; day <= 5; day++ {
		winner := int64(1)
		if day > 3 {
			winner = 2
		}
		_, err := f.selection.AssignDay(f.ctx, f.game.ID, common.Day{Year: 2025, Day: day}, winner, now)
		assert.Equal(t, nil, err)
	}

	_, _, err := f.voting.Start(f.ctx, f.game, f.cfg.Settings(chatID), now)
	assert.Equal(t, nil, err)

	f.scheduler.CloseVotings(f.ctx)
	assert.Equal(t, 1, len(f.announcer.results))
	winners := f.announcer.results[0].Winners
	assert.Equal(t, 1, len(winners))
	assert.Equal(t, int64(2), winners[0].UserID)
	assert.Equal(t, []int{6, 7, 8, 9}, winners[0].Days)

	f.scheduler.CloseVotings(f.ctx)
	assert.Equal(t, 1, len(f.announcer.results))
}
