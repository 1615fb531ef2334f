package app

import (
	"testing"

	"github.com/bmizerany/assert"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
)

func TestLedgerBalanceIsSumOfEntries(t *testing.T) {
	e := newEnv(t)
	gid := e.game.ID

	_, err := e.svc.Ledger.Credit(e.ctx, gid, 1, 10, 2024, ledger.ReasonWin)
	assert.Equal(t, nil, err)
	_, err = e.svc.Ledger.Credit(e.ctx, gid, 1, 5, 2025, ledger.ReasonWin)
	assert.Equal(t, nil, err)
	_, err = e.svc.Ledger.Debit(e.ctx, gid, 1, 3, 2025, ledger.ReasonReroll)
	assert.Equal(t, nil, err)

	assert.Equal(t, int64(12), e.balance(1))

	year, err := e.svc.Ledger.YearBalance(e.ctx, gid, 1, 2025)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(2), year)

	assert.Equal(t, int64(0), e.balance(2))
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Ledger.Credit(e.ctx, e.game.ID, 1, 0, 2025, ledger.ReasonWin)
	assert.T(t, isErr(err, common.ErrInvalidAmount))
	_, err = e.svc.Ledger.Debit(e.ctx, e.game.ID, 1, -4, 2025, ledger.ReasonWin)
	assert.T(t, isErr(err, common.ErrInvalidAmount))
	assert.Equal(t, 0, len(e.db.Ledger().Entries(e.game.ID)))
}

func TestLedgerSpendChecksFunds(t *testing.T) {
	e := newEnv(t)
	e.fund(1, 9)

	_, err := e.svc.Ledger.Spend(e.ctx, e.game.ID, 1, 10, 2025, ledger.ReasonShopImmunity)
	assert.T(t, isErr(err, common.ErrInsufficientFunds))
	assert.Equal(t, int64(9), e.balance(1))

	_, err = e.svc.Ledger.Spend(e.ctx, e.game.ID, 1, 9, 2025, ledger.ReasonShopImmunity)
	assert.Equal(t, nil, err)
	assert.Equal(t, int64(0), e.balance(1))
}

func TestLedgerOperationGroupsEntries(t *testing.T) {
	e := newEnv(t)
	ctx := ledger.WithOperation(e.ctx)

	a, err := e.svc.Ledger.Credit(ctx, e.game.ID, 1, 4, 2025, ledger.ReasonWin)
	assert.Equal(t, nil, err)
	b, err := e.svc.Ledger.Credit(ctx, e.game.ID, 2, 4, 2025, ledger.ReasonProtectionBonus)
	assert.Equal(t, nil, err)
	assert.Equal(t, a.OperationID, b.OperationID)

	other, err := e.svc.Ledger.Credit(e.ctx, e.game.ID, 1, 1, 2025, ledger.ReasonGiveCoins)
	assert.Equal(t, nil, err)
	assert.NotEqual(t, a.OperationID, other.OperationID)
}

func TestLedgerLeaderboard(t *testing.T) {
	e := newEnv(t)
	e.fund(1, 5)
	e.fund(2, 20)
	e.fund(3, 10)

	top, err := e.svc.Ledger.Leaderboard(e.ctx, e.game.ID, 0, 2)
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(top))
	assert.Equal(t, int64(2), top[0].UserID)
	assert.Equal(t, int64(20), top[0].Balance)
	assert.Equal(t, int64(3), top[1].UserID)
}
