// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: закрытие истёкших перевыборов
// и автозакрытие финальных голосований.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
	"serotonyl.ru/dailypick-bot/internal/features/voting"
)

// RerollCleaner убирает кнопку перевыбора из сообщения.
type RerollCleaner interface {
	ClearRerollButton(chatID int64, messageID int)
}

// Announcer публикует итоги голосования.
type Announcer interface {
	Announce(ctx context.Context, chatID int64, res *voting.Result)
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron *cron.Cron
	cfg  *config.Config

	selectionService *selection.Service
	votingService    *voting.Service
	rerolls          RerollCleaner
	announcer        Announcer

	now func() time.Time
}

// NewScheduler создаёт планировщик задач с московским часовым поясом.
func NewScheduler(
	cfg *config.Config,
	selectionService *selection.Service,
	votingService *voting.Service,
	rerolls RerollCleaner,
	announcer Announcer,
) *Scheduler {
	return &Scheduler{
		cron:             cron.New(cron.WithLocation(common.MoscowLocation())),
		cfg:              cfg,
		selectionService: selectionService,
		votingService:    votingService,
		rerolls:          rerolls,
		announcer:        announcer,
		now:              common.GetMoscowTime,
	}
}

// Start регистрирует и запускает задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.cfg.RerollExpiryCron, func() { s.ExpireRerolls(ctx) }); err != nil {
		return err
	}

	if s.cfg.FinalVotingAutoClose {
		if _, err := s.cron.AddFunc(s.cfg.FinalVotingCloseCron, func() { s.CloseVotings(ctx) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"reroll_expiry": s.cfg.RerollExpiryCron,
		"voting_close":  s.cfg.FinalVotingCloseCron,
		"auto_close":    s.cfg.FinalVotingAutoClose,
	}).Info("Планировщик задач запущен (Europe/Moscow)")
	return nil
}

// Stop останавливает планировщик и ждёт завершения задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// ExpireRerolls закрывает перевыборы, у которых истёк таймаут, и убирает кнопки.
func (s *Scheduler) ExpireRerolls(ctx context.Context) {
	closed, err := s.selectionService.ExpireRerolls(ctx, s.now(), func(chatID int64) time.Duration {
		return s.cfg.Settings(chatID).RerollTimeout()
	})
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка закрытия перевыборов")
	}
	for _, p := range closed {
		if p.MessageID != 0 && s.rerolls != nil {
			s.rerolls.ClearRerollButton(p.ChatID, p.MessageID)
		}
	}
	if len(closed) > 0 {
		log.WithField("count", len(closed)).Debug("[CRON] Перевыборы закрыты")
	}
}

// CloseVotings закрывает голосования, которые шли дольше минимального срока.
func (s *Scheduler) CloseVotings(ctx context.Context) {
	now := s.now()
	due, err := s.votingService.DueForClose(ctx, now)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка получения голосований")
		return
	}

	for _, d := range due {
		game := &players.Game{ID: d.Voting.GameID, ChatID: d.ChatID}
		res, err := s.votingService.Finalize(ctx, game, d.Voting.Year, s.cfg.Settings(d.ChatID), now, false)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"game_id": d.Voting.GameID,
				"year":    d.Voting.Year,
			}).Error("[CRON] Ошибка закрытия голосования")
			continue
		}
		if !res.AlreadyCompleted && s.announcer != nil {
			s.announcer.Announce(ctx, d.ChatID, res)
		}
	}
}
