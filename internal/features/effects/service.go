// Package effects — service.go содержит реестр эффектов: выдачу защиты,
// покупку усиления, сброс после победы и снимок для розыгрыша.
package effects

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
)

// Store — хранилище эффектов.
type Store interface {
	GetOrCreate(ctx context.Context, gameID, userID int64) (*PlayerEffect, error)
	Save(ctx context.Context, e *PlayerEffect) error
	ForGame(ctx context.Context, gameID int64) ([]*PlayerEffect, error)
	InsertAmplification(ctx context.Context, p *AmplificationPurchase) error
	AmplificationBoughtBy(ctx context.Context, gameID, buyerID int64, d common.Day) (*AmplificationPurchase, error)
	ResetAmplification(ctx context.Context, gameID, userID int64) error
}

// Registry управляет эффектами игроков.
type Registry struct {
	repo   Store
	weight WeightFunc
}

// NewRegistry создаёт реестр с экспоненциальным весом усиления.
func NewRegistry(repo Store) *Registry {
	return &Registry{repo: repo, weight: ExponentialWeight}
}

// UseWeight меняет формулу веса. Приложение передаёт сюда формулу
// из AMPLIFICATION_WEIGHT.
func (r *Registry) UseWeight(fn WeightFunc) {
	if fn != nil {
		r.weight = fn
	}
}

// Weight возвращает вес игрока в пуле выбора.
func (r *Registry) Weight(e *PlayerEffect) int {
	if e == nil {
		return r.weight(0)
	}
	return r.weight(e.AmplificationCount)
}

// Get возвращает эффекты игрока (создаёт нулевую строку при отсутствии).
func (r *Registry) Get(ctx context.Context, gameID, userID int64) (*PlayerEffect, error) {
	return r.repo.GetOrCreate(ctx, gameID, userID)
}

// CheckProtectionCooldown возвращает common.ErrCooldown и остаток дней,
// если с последней покупки защиты прошло меньше cooldownDays.
func (r *Registry) CheckProtectionCooldown(ctx context.Context, gameID, userID int64, now time.Time, cooldownDays int) (int, error) {
	e, err := r.repo.GetOrCreate(ctx, gameID, userID)
	if err != nil {
		return 0, err
	}
	if left := e.CooldownLeft(now, cooldownDays); left > 0 {
		return left, common.ErrCooldown
	}
	return 0, nil
}

// GrantProtection выдаёт защиту до дня until включительно,
// перезаписывая прежнюю, и запоминает время покупки для кулдауна.
func (r *Registry) GrantProtection(ctx context.Context, gameID, userID int64, until common.Day, now time.Time) error {
	e, err := r.repo.GetOrCreate(ctx, gameID, userID)
	if err != nil {
		return err
	}
	e.ProtectedUntil = &until
	e.ProtectionBoughtAt = &now
	if err := r.repo.Save(ctx, e); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"game_id": gameID,
		"user_id": userID,
		"year":    until.Year,
		"day":     until.Day,
	}).Info("Выдана защита")
	return nil
}

// Amplify записывает покупку усиления buyer → target за день d
// и увеличивает счётчик цели. Одна покупка на покупателя в день.
func (r *Registry) Amplify(ctx context.Context, gameID, buyerID, targetID int64, d common.Day) (*PlayerEffect, error) {
	p := &AmplificationPurchase{GameID: gameID, BuyerID: buyerID, TargetID: targetID, Year: d.Year, Day: d.Day}
	if err := r.repo.InsertAmplification(ctx, p); err != nil {
		return nil, err
	}

	e, err := r.repo.GetOrCreate(ctx, gameID, targetID)
	if err != nil {
		return nil, err
	}
	e.AmplificationCount++
	if err := r.repo.Save(ctx, e); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"game_id":   gameID,
		"buyer_id":  buyerID,
		"target_id": targetID,
		"count":     e.AmplificationCount,
	}).Info("Куплено усиление")
	return e, nil
}

// AmplifiedToday — покупал ли buyer усиление в день d.
func (r *Registry) AmplifiedToday(ctx context.Context, gameID, buyerID int64, d common.Day) (bool, error) {
	_, err := r.repo.AmplificationBoughtBy(ctx, gameID, buyerID, d)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ResetAmplification обнуляет усиление победителя.
func (r *Registry) ResetAmplification(ctx context.Context, gameID, userID int64) error {
	return r.repo.ResetAmplification(ctx, gameID, userID)
}

// Snapshot возвращает эффекты всех игроков игры по user_id.
// Игроков без строки в карте нет: у них нулевые эффекты.
func (r *Registry) Snapshot(ctx context.Context, gameID int64) (map[int64]*PlayerEffect, error) {
	list, err := r.repo.ForGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]*PlayerEffect, len(list))
	for _, e := range list {
		out[e.UserID] = e
	}
	return out, nil
}
