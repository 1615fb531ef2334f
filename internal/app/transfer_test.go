package app

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/transfer"
)

func TestCommission(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, int64(10), transfer.Commission(100, e.settings))
	assert.Equal(t, int64(1), transfer.Commission(5, e.settings), "минимальная комиссия")
	assert.Equal(t, int64(1), transfer.Commission(19, e.settings))
	assert.Equal(t, int64(2), transfer.Commission(25, e.settings))
}

func TestSendMovesCoinsThroughBank(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	e.fund(1, 150)
	now := msk(2025, time.March, 10, 12)

	tr, err := e.svc.Transfer.Send(e.ctx, e.game.ID, 1, 2, 100, e.settings, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(10), tr.Commission)
	assert.Equal(t, int64(90), tr.Received())

	assert.Equal(t, int64(50), e.balance(1))
	assert.Equal(t, int64(90), e.balance(2))
	bank, err := e.svc.Transfer.Bank(e.ctx, e.game.ID)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(10), bank)

	sent := e.entries("transfer_to_2")
	got := e.entries("transfer_from_1")
	assert.Equal(t, 1, len(sent))
	assert.Equal(t, 1, len(got))
	assert.Equal(t, sent[0].OperationID, got[0].OperationID)

	_, err = e.svc.Transfer.Send(e.ctx, e.game.ID, 1, 2, 10, e.settings, now.Add(time.Hour))
	assert.T(t, isErr(err, common.ErrAlreadyClaimed))

	_, err = e.svc.Transfer.Send(e.ctx, e.game.ID, 1, 2, 10, e.settings, now.AddDate(0, 0, 1))
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(40), e.balance(1))
}

func TestSendGuards(t *testing.T) {
	e := newEnv(t)
	e.register(1, 2)
	e.fund(1, 5)
	now := msk(2025, time.March, 10, 12)

	_, err := e.svc.Transfer.Send(e.ctx, e.game.ID, 1, 1, 5, e.settings, now)
	assert.T(t, isErr(err, common.ErrSelfTarget))
	_, err = e.svc.Transfer.Send(e.ctx, e.game.ID, 1, 2, 0, e.settings, now)
	assert.T(t, isErr(err, common.ErrInvalidAmount))
	_, err = e.svc.Transfer.Send(e.ctx, e.game.ID, 1, 2, 1, e.settings, now)
	assert.T(t, isErr(err, common.ErrTransferTooSmall))
	_, err = e.svc.Transfer.Send(e.ctx, e.game.ID, 1, 2, 6, e.settings, now)
	assert.T(t, isErr(err, common.ErrInsufficientFunds))

	disabled := e.settings
	disabled.TransferEnabled = false
	_, err = e.svc.Transfer.Send(e.ctx, e.game.ID, 1, 2, 5, disabled, now)
	assert.T(t, isErr(err, common.ErrFeatureDisabled))

	assert.Equal(t, int64(5), e.balance(1))
	assert.Equal(t, int64(0), e.balance(2))
}

func TestClaimBonus(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	now := msk(2025, time.March, 10, 12)

	// до розыгрыша победителя нет
	claim, err := e.svc.Transfer.ClaimBonus(e.ctx, e.game.ID, 2, e.settings, now)
	assert.Equal(t, nil, err)
	assert.T(t, !claim.IsWinner)
	assert.Equal(t, int64(1), claim.Amount)

	_, err = e.svc.Selection.Draw(e.ctx, e.game.ID, 0, common.DayOf(now), e.settings, now)
	assert.Equal(t, nil, err)

	claim, err = e.svc.Transfer.ClaimBonus(e.ctx, e.game.ID, 1, e.settings, now)
	assert.Equal(t, nil, err)
	assert.T(t, claim.IsWinner)
	assert.Equal(t, int64(2), claim.Amount)
	assert.Equal(t, int64(4+2), e.balance(1))

	_, err = e.svc.Transfer.ClaimBonus(e.ctx, e.game.ID, 1, e.settings, now.Add(time.Hour))
	assert.T(t, isErr(err, common.ErrAlreadyClaimed))
	assert.Equal(t, int64(6), e.balance(1))
}

func TestClaimZeroBonus(t *testing.T) {
	e := newEnv(t)
	e.register(1)
	e.settings.GiveCoinsAmount = 0
	now := msk(2025, time.March, 10, 12)

	claim, err := e.svc.Transfer.ClaimBonus(e.ctx, e.game.ID, 1, e.settings, now)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), claim.Amount)
	assert.Equal(t, int64(0), e.balance(1))

	_, err = e.svc.Transfer.ClaimBonus(e.ctx, e.game.ID, 1, e.settings, now.Add(time.Hour))
	assert.T(t, isErr(err, common.ErrAlreadyClaimed))
}
