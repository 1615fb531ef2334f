package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
)

func TestDrawIsIdempotentPerDay(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2, 3)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)

	first, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	assert.T(t, !first.Existing)
	assert.Equal(t, int64(4), first.Reward)

	second, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now.Add(time.Hour))
	assert.Equal(t, nil, err)
	assert.T(t, second.Existing)
	assert.Equal(t, first.Result.WinnerID, second.Result.WinnerID)
	assert.Equal(t, int64(0), second.Reward)

	assert.Equal(t, 1, len(e.entries(ledger.ReasonWin)))
	assert.Equal(t, int64(4), e.balance(first.Result.WinnerID))
}

func TestDrawSelfPickDoublesReward(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	now := msk(2025, time.March, 10, 12)

	out, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 1, common.DayOf(now), e.settings, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), out.Result.WinnerID)
	assert.Equal(t, int64(8), out.Reward)
	assert.Equal(t, int64(8), e.balance(1))
}

func TestDrawWithoutPlayers(t *testing.T) {
	e := newEnv(t)
	now := msk(2025, time.March, 10, 12)

	_, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 1, common.DayOf(now), e.settings, now)
	assert.T(t, isErr(err, common.ErrNoPlayers))
}

func TestDrawAllProtectedLeavesDayEmpty(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)
	err := e.svc.Effects.GrantProtection(e.ctx, e.game.ID, 1, d.Next(), now)
	assert.Equal(t, nil, err)

	out, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	assert.T(t, out.AllProtected)
	assert.T(t, out.Result == nil)

	_, err = e.svc.Selection.Result(e.ctx, e.game.ID, d)
	assert.T(t, isErr(err, common.ErrNotFound))
	assert.Equal(t, 0, len(e.db.Ledger().Entries(e.game.ID)))
}

func TestProtectionIgnoredOnLastDayOfYear(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	now := msk(2025, time.December, 31, 12)
	d := common.DayOf(now)
	err := e.svc.Effects.GrantProtection(e.ctx, e.game.ID, 1, d, now.AddDate(0, 0, -1))
	assert.Equal(t, nil, err)

	out, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	assert.T(t, !out.AllProtected)
	assert.Equal(t, int64(1), out.Result.WinnerID)
}

func TestProtectedPlayerIsSavedAndPaid(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	start := msk(2025, time.January, 1, 12)
	err := e.svc.Effects.GrantProtection(e.ctx, e.game.ID, 1, common.Day{Year: 2025, Day: 364}, start)
	assert.Equal(t, nil, err)

	saves := 0
	for i := 0; i < 60; i++ {
		now := start.AddDate(0, 0, i)
		out, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, common.DayOf(now), e.settings, now)
		assert.Equal(t, nil, err)
		assert.Equal(t, int64(2), out.Result.WinnerID, fmt.Sprintf("day %d", i+1))
		if out.SavedID == 1 {
			saves++
			assert.Equal(t, int64(4), out.Bonus)
		}
	}

	assert.T(t, saves > 0)
	assert.Equal(t, int64(saves*4), e.balance(1))
	assert.Equal(t, int64(60*4), e.balance(2))
	assert.Equal(t, saves, len(e.entries(ledger.ReasonProtectionBonus)))
}

func TestAmplificationStacksAndResetsOnWin(t *testing.T) {
	e := newEnv(t)
	e.register(2)
	e.fund(1, 20)
	e.fund(3, 20)
	now := msk(2025, time.March, 10, 9)
	d := common.DayOf(now)

	_, err := e.svc.Shop.BuyDoubleChance(e.ctx, e.game.ID, 1, 2, e.settings, now)
	assert.Equal(t, nil, err)
	_, err = e.svc.Shop.BuyDoubleChance(e.ctx, e.game.ID, 3, 2, e.settings, now)
	assert.Equal(t, nil, err)

	fx, err := e.svc.Effects.Get(e.ctx, e.game.ID, 2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, fx.AmplificationCount)
	assert.Equal(t, 4, e.svc.Effects.Weight(fx))

	out, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	assert.T(t, out.Amplified)

	fx, err = e.svc.Effects.Get(e.ctx, e.game.ID, 2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, fx.AmplificationCount)
}

func TestMissedDays(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	e.assign(2025, 1, 1, 3)

	missed, err := e.svc.Selection.MissedDays(e.ctx, e.game.ID, common.Day{Year: 2025, Day: 5})
	assert.Equal(t, nil, err)
	assert.Equal(t, []int{2, 4}, missed)

	ok, err := e.svc.Selection.AssignDay(e.ctx, e.game.ID, common.Day{Year: 2025, Day: 3}, 2, time.Now())
	assert.Equal(t, nil, err)
	assert.T(t, !ok, "занятый день не перезаписывается")
}

func TestRerollGuards(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)

	_, err := e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, e.settings, now)
	assert.T(t, isErr(err, common.ErrNotFound))

	drawn, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	assert.T(t, drawn.Result.RerollAvailable)

	disabled := e.settings
	disabled.RerollEnabled = false
	_, err = e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, disabled, now)
	assert.T(t, isErr(err, common.ErrFeatureDisabled))

	_, err = e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, e.settings, now.Add(time.Minute))
	assert.T(t, isErr(err, common.ErrInsufficientFunds))

	res, err := e.svc.Selection.Result(e.ctx, e.game.ID, d)
	assert.Equal(t, nil, err)
	assert.Equal(t, drawn.Result.WinnerID, res.WinnerID)
	assert.T(t, res.RerollAvailable)
	assert.T(t, !res.Rerolled())
}

func TestRerollOnce(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	e.fund(3, 20)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)

	drawn, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)

	out, err := e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, e.settings, now.Add(time.Minute))
	assert.Equal(t, nil, err)
	assert.Equal(t, drawn.Result.WinnerID, out.PreviousWinnerID)
	assert.Equal(t, drawn.Result.WinnerID, *out.Result.OriginalWinnerID)
	assert.Equal(t, int64(3), *out.Result.RerollInitiatorID)
	assert.T(t, !out.Result.RerollAvailable)
	assert.Equal(t, int64(4), out.Reward)
	assert.Equal(t, int64(5), e.balance(3))

	paid := e.entries(ledger.ReasonReroll)
	won := e.entries(ledger.ReasonWinReroll)
	assert.Equal(t, 1, len(paid))
	assert.Equal(t, 1, len(won))
	assert.Equal(t, paid[0].OperationID, won[0].OperationID)
	assert.Equal(t, int64(-15), paid[0].Amount)

	// первая награда не отзывается
	assert.Equal(t, 1, len(e.entries(ledger.ReasonWin)))

	_, err = e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, e.settings, now.Add(2*time.Minute))
	assert.T(t, isErr(err, common.ErrRerollUnavailable))
	assert.Equal(t, int64(5), e.balance(3))
}

func TestRerollExpires(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	e.fund(3, 20)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)

	_, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)

	_, err = e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, e.settings, now.Add(10*time.Minute))
	assert.T(t, isErr(err, common.ErrRerollUnavailable))
	assert.Equal(t, int64(20), e.balance(3))
}

func TestRerollWithEmptyRosterKeepsBalance(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	e.fund(3, 20)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)

	_, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, e.svc.Players.Unregister(e.ctx, e.game.ID, 1))
	assert.Equal(t, nil, e.svc.Players.Unregister(e.ctx, e.game.ID, 2))

	_, err = e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, e.settings, now.Add(time.Minute))
	assert.T(t, isErr(err, common.ErrNoPlayers))
	assert.Equal(t, int64(20), e.balance(3))
	assert.Equal(t, 0, len(e.entries(ledger.ReasonReroll)))

	res, err := e.svc.Selection.Result(e.ctx, e.game.ID, d)
	assert.Equal(t, nil, err)
	assert.T(t, res.RerollAvailable)
	assert.T(t, !res.Rerolled())
}

func TestRerollIgnoresProtectionWhenEveryoneProtected(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	e.fund(3, 20)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)

	_, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	err = e.svc.Effects.GrantProtection(e.ctx, e.game.ID, 1, d, now)
	assert.Equal(t, nil, err)

	out, err := e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, e.settings, now.Add(time.Minute))
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(1), out.Result.WinnerID)
	assert.Equal(t, int64(0), out.SavedID)
}

func TestPredictionPaidOncePerWinner(t *testing.T) {
	e := newEnv(t)
	e.register(2)
	e.fund(3, 3)
	evening := msk(2025, time.March, 9, 20)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)

	receipt, err := e.svc.Shop.BuyPrediction(e.ctx, e.game.ID, 3, []int64{2}, e.settings, evening)
	assert.Equal(t, nil, err)
	assert.Equal(t, d, receipt.Day)
	assert.Equal(t, int64(0), e.balance(3))

	out, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(out.Predictions))
	assert.T(t, out.Predictions[0].Correct)
	assert.Equal(t, int64(30), e.balance(3))

	e.fund(3, 15)
	rr, err := e.svc.Selection.Reroll(e.ctx, e.game.ID, 3, d, e.settings, now.Add(time.Minute))
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(2), rr.Result.WinnerID)
	assert.Equal(t, int64(0), rr.Predictions[0].Reward)

	assert.Equal(t, 1, len(e.entries(ledger.ReasonPredictionCorrect)))
	assert.Equal(t, int64(30), e.balance(3))

	p, err := e.svc.Predictions.Get(e.ctx, e.game.ID, 3, d)
	assert.Equal(t, nil, err)
	assert.T(t, p.IsCorrect != nil && *p.IsCorrect)
}

func TestExpireRerollsClosesOldResults(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	now := msk(2025, time.March, 10, 12)
	d := common.DayOf(now)

	_, err := e.svc.Selection.Draw(e.ctx, e.game.ID, 0, d, e.settings, now)
	assert.Equal(t, nil, err)
	err = e.svc.Selection.AttachMessage(e.ctx, e.game.ID, d, 77)
	assert.Equal(t, nil, err)

	timeout := func(int64) time.Duration { return 5 * time.Minute }

	closed, err := e.svc.Selection.ExpireRerolls(e.ctx, now.Add(time.Minute), timeout)
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(closed))

	closed, err = e.svc.Selection.ExpireRerolls(e.ctx, now.Add(6*time.Minute), timeout)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(closed))
	assert.Equal(t, testChatID, closed[0].ChatID)
	assert.Equal(t, 77, closed[0].MessageID)

	res, err := e.svc.Selection.Result(e.ctx, e.game.ID, d)
	assert.Equal(t, nil, err)
	assert.T(t, !res.RerollAvailable)
}
