package app

import (
	"errors"
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/shop"
)

func TestBuyImmunityProtectsTomorrow(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	e.fund(1, 10)
	now := msk(2025, time.March, 10, 18)
	tomorrow := common.DayOf(now).Next()

	receipt, err := e.svc.Shop.BuyImmunity(e.ctx, e.game.ID, 1, e.settings, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, tomorrow, receipt.Day)
	assert.Equal(t, int64(10), receipt.Price)
	assert.Equal(t, int64(0), e.balance(1))

	fx, err := e.svc.Effects.Get(e.ctx, e.game.ID, 1)
	assert.Equal(t, nil, err)
	assert.T(t, fx.IsProtected(tomorrow))
	assert.T(t, !fx.IsProtected(common.DayOf(now)), "защита начинается завтра")
	assert.T(t, !fx.IsProtected(tomorrow.Next()))

	// защита на завтра уже есть
	_, err = e.svc.Shop.BuyImmunity(e.ctx, e.game.ID, 1, e.settings, now.Add(time.Hour))
	assert.T(t, isErr(err, common.ErrAlreadyExists))
}

func TestBuyImmunityCooldown(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	e.fund(1, 30)
	now := msk(2025, time.March, 10, 18)

	_, err := e.svc.Shop.BuyImmunity(e.ctx, e.game.ID, 1, e.settings, now)
	assert.Equal(t, nil, err)

	_, err = e.svc.Shop.BuyImmunity(e.ctx, e.game.ID, 1, e.settings, now.AddDate(0, 0, 1))
	assert.T(t, isErr(err, common.ErrCooldown))
	var cd *shop.CooldownError
	assert.T(t, errors.As(err, &cd))
	assert.Equal(t, 6, cd.DaysLeft)
	assert.Equal(t, int64(20), e.balance(1))

	_, err = e.svc.Shop.BuyImmunity(e.ctx, e.game.ID, 1, e.settings, now.AddDate(0, 0, 7))
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(10), e.balance(1))
}

func TestBuyImmunityGuards(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	now := msk(2025, time.March, 10, 18)

	_, err := e.svc.Shop.BuyImmunity(e.ctx, e.game.ID, 1, e.settings, now)
	assert.T(t, isErr(err, common.ErrInsufficientFunds))

	disabled := e.settings
	disabled.ImmunityEnabled = false
	e.fund(1, 10)
	_, err = e.svc.Shop.BuyImmunity(e.ctx, e.game.ID, 1, disabled, now)
	assert.T(t, isErr(err, common.ErrFeatureDisabled))
	assert.Equal(t, int64(10), e.balance(1))
}

func TestBuyDoubleChanceOncePerDay(t *testing.T) {
	e := newEnv(t)
	e.register(2, 3)
	e.fund(1, 20)
	now := msk(2025, time.March, 10, 9)

	_, err := e.svc.Shop.BuyDoubleChance(e.ctx, e.game.ID, 1, 9, e.settings, now)
	assert.T(t, isErr(err, common.ErrNotFound), "цель не в игре")

	_, err = e.svc.Shop.BuyDoubleChance(e.ctx, e.game.ID, 1, 2, e.settings, now)
	assert.Equal(t, nil, err)
	_, err = e.svc.Shop.BuyDoubleChance(e.ctx, e.game.ID, 1, 3, e.settings, now.Add(time.Hour))
	assert.T(t, isErr(err, common.ErrAlreadyExists))
	assert.Equal(t, int64(12), e.balance(1))

	paid := e.entries(ledger.ReasonShopDoublePrefix + "2")
	assert.Equal(t, 1, len(paid))

	_, err = e.svc.Shop.BuyDoubleChance(e.ctx, e.game.ID, 1, 2, e.settings, now.AddDate(0, 0, 1))
	assert.Equal(t, nil, err)

	fx, err := e.svc.Effects.Get(e.ctx, e.game.ID, 2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, fx.AmplificationCount)
}

func TestBuyPredictionValidation(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2, 3)
	e.fund(1, 10)
	now := msk(2025, time.March, 10, 20)

	_, err := e.svc.Shop.BuyPrediction(e.ctx, e.game.ID, 1, []int64{1}, e.settings, now)
	assert.T(t, isErr(err, common.ErrSelfTarget))
	_, err = e.svc.Shop.BuyPrediction(e.ctx, e.game.ID, 1, []int64{2, 3}, e.settings, now)
	assert.T(t, isErr(err, common.ErrInvalidAmount), "на трёх игроков называют одного")
	_, err = e.svc.Shop.BuyPrediction(e.ctx, e.game.ID, 1, []int64{8}, e.settings, now)
	assert.T(t, isErr(err, common.ErrNotFound))
	assert.Equal(t, int64(10), e.balance(1))

	_, err = e.svc.Shop.BuyPrediction(e.ctx, e.game.ID, 1, []int64{2}, e.settings, now)
	assert.Equal(t, nil, err)
	_, err = e.svc.Shop.BuyPrediction(e.ctx, e.game.ID, 1, []int64{3}, e.settings, now)
	assert.T(t, isErr(err, common.ErrAlreadyExists))
	assert.Equal(t, int64(7), e.balance(1))

	st, err := e.svc.Shop.Status(e.ctx, e.game.ID, 1, e.settings, now)
	assert.Equal(t, nil, err)
	assert.T(t, st.Predicted)
	assert.Equal(t, int64(7), st.Balance)
}

func TestFreeItemsNeedNoCoins(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	e.settings.ImmunityPrice = 0
	e.settings.DoubleChancePrice = 0
	now := msk(2025, time.March, 10, 18)

	receipt, err := e.svc.Shop.BuyImmunity(e.ctx, e.game.ID, 1, e.settings, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), receipt.Price)

	_, err = e.svc.Shop.BuyDoubleChance(e.ctx, e.game.ID, 1, 2, e.settings, now)
	assert.Equal(t, nil, err)

	assert.Equal(t, int64(0), e.balance(1))
	assert.Equal(t, 0, len(e.entries(ledger.ReasonShopImmunity)))
	assert.Equal(t, 0, len(e.db.Ledger().Entries(e.game.ID)))
}
