// Package voting — service.go управляет жизненным циклом голосования:
// запуск с опросом, приём голосов, закрытие с подсчётом и раздачей дней.
package voting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/config"
	"serotonyl.ru/dailypick-bot/internal/db"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
)

// maxPollOptions — лимит вариантов в опросе Telegram.
const maxPollOptions = 10

// Store — хранилище голосований.
type Store interface {
	Create(ctx context.Context, v *Voting, candidates []Candidate) error
	Get(ctx context.Context, gameID int64, year int) (*Voting, error)
	GetByPoll(ctx context.Context, pollID string) (*Voting, error)
	AttachPoll(ctx context.Context, votingID int64, pollID string, messageID int) error
	Delete(ctx context.Context, votingID int64) error
	Candidates(ctx context.Context, votingID int64) ([]Candidate, error)
	SaveBallot(ctx context.Context, votingID int64, b Ballot) error
	DeleteBallot(ctx context.Context, votingID, voterID int64) error
	Ballots(ctx context.Context, votingID int64) ([]Ballot, error)
	Complete(ctx context.Context, v *Voting, winners []Winner, endedAt time.Time) (bool, error)
	Winners(ctx context.Context, votingID int64) ([]Winner, error)
	Active(ctx context.Context) ([]Due, error)
}

// Poller открывает и закрывает опросы в чате.
type Poller interface {
	OpenPoll(ctx context.Context, chatID int64, question string, options []string) (pollID string, messageID int, err error)
	StopPoll(ctx context.Context, chatID int64, messageID int) error
}

// SettingsFunc возвращает настройки игры чата.
type SettingsFunc func(chatID int64) config.GameSettings

// Service проводит финальные голосования.
type Service struct {
	repo      Store
	tx        db.Transactor
	players   *players.Service
	selection *selection.Service
	picker    *selection.Picker
	poller    Poller
	settings  SettingsFunc
}

// NewService создаёт сервис голосования.
func NewService(
	repo Store,
	tx db.Transactor,
	playerService *players.Service,
	selectionService *selection.Service,
	picker *selection.Picker,
	poller Poller,
	settings SettingsFunc,
) *Service {
	return &Service{
		repo:      repo,
		tx:        tx,
		players:   playerService,
		selection: selectionService,
		picker:    picker,
		poller:    poller,
		settings:  settings,
	}
}

// Start запускает голосование за текущий год и открывает опрос.
// Проверки идут в порядке: флаг, окно дат, лимит пропусков, существующее голосование.
// Окно дат и лимит пропусков не действуют в тестовом чате.
func (s *Service) Start(ctx context.Context, game *players.Game, settings config.GameSettings, now time.Time) (*Voting, []Candidate, error) {
	if !settings.FinalVotingEnabled {
		return nil, nil, common.ErrFeatureDisabled
	}
	today := common.DayOf(now)

	var (
		v          *Voting
		candidates []Candidate
	)
	err := s.tx.InGame(ctx, game.ID, func(ctx context.Context) error {
		if !settings.IsTest && !settings.InFinalVotingWindow(now) {
			return common.ErrOutsideVotingWindow
		}

		missed, err := s.selection.MissedDays(ctx, game.ID, today)
		if err != nil {
			return err
		}
		if !settings.IsTest && len(missed) >= settings.MaxMissedDaysForFinalVoting {
			return fmt.Errorf("%w: %d", common.ErrTooManyMissedDays, len(missed))
		}

		if _, err := s.repo.Get(ctx, game.ID, today.Year); err == nil {
			return common.ErrAlreadyExists
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		wins, err := s.selection.WinCounts(ctx, game.ID, today.Year)
		if err != nil {
			return err
		}
		if len(wins) == 0 || len(missed) == 0 {
			return common.ErrNothingToVote
		}

		var excluded []int64
		if settings.FinalVotingExcludeLeaders {
			excluded = Leaders(wins)
		}

		roster, err := s.players.Roster(ctx, game.ID)
		if err != nil {
			return err
		}
		candidates = PickCandidates(roster, wins, excluded)
		if len(candidates) == 0 {
			return common.ErrNothingToVote
		}

		v = &Voting{
			GameID:          game.ID,
			Year:            today.Year,
			StartedAt:       now,
			MissedDays:      missed,
			MaxChoices:      MaxChoices(len(missed)),
			ExcludedLeaders: excluded,
		}
		return s.repo.Create(ctx, v, candidates)
	})
	if err != nil {
		return nil, nil, err
	}

	if len(candidates) >= 2 && s.poller != nil {
		if err := s.openPoll(ctx, game, v, candidates); err != nil {
			return nil, nil, err
		}
	}

	log.WithFields(log.Fields{
		"game_id":     game.ID,
		"year":        v.Year,
		"missed":      len(v.MissedDays),
		"max_choices": v.MaxChoices,
		"candidates":  len(candidates),
		"excluded":    v.ExcludedLeaders,
	}).Info("Финальное голосование запущено")
	return v, candidates, nil
}

// openPoll отправляет опрос. Если Telegram отказал, голосование удаляется,
// чтобы его можно было запустить заново.
func (s *Service) openPoll(ctx context.Context, game *players.Game, v *Voting, candidates []Candidate) error {
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.UserID)
	}
	names := s.players.Names(ctx, ids)

	options := make([]string, 0, len(candidates))
	for _, c := range candidates {
		options = append(options, fmt.Sprintf("%s (%d)", names[c.UserID], c.Wins))
	}
	question := fmt.Sprintf("🗳 Финал %d: кому отдать %d %s? Можно выбрать до %d",
		v.Year, len(v.MissedDays), common.PluralizeDays(len(v.MissedDays)), v.MaxChoices)

	pollID, messageID, err := s.poller.OpenPoll(ctx, game.ChatID, question, options)
	if err != nil {
		if delErr := s.repo.Delete(ctx, v.ID); delErr != nil {
			log.WithError(delErr).WithField("voting_id", v.ID).Error("Не удалось удалить голосование без опроса")
		}
		return fmt.Errorf("ошибка открытия опроса: %w", err)
	}
	if err := s.repo.AttachPoll(ctx, v.ID, pollID, messageID); err != nil {
		return err
	}
	v.PollID, v.PollMessageID = pollID, messageID
	return nil
}

// RecordBallot сохраняет ответ игрока в опросе. optionIDs это номера вариантов,
// пустой список отзывает голос. При выборе больше MaxChoices вариантов
// возвращает common.ErrTooManyChoices, прежний голос остаётся.
func (s *Service) RecordBallot(ctx context.Context, pollID string, voterID int64, optionIDs []int) error {
	v, err := s.repo.GetByPoll(ctx, pollID)
	if err != nil {
		return err
	}

	return s.tx.InGame(ctx, v.GameID, func(ctx context.Context) error {
		v, err := s.repo.GetByPoll(ctx, pollID)
		if err != nil {
			return err
		}
		if v.Status != StatusActive {
			return common.ErrNotFound
		}

		if len(optionIDs) == 0 {
			return s.repo.DeleteBallot(ctx, v.ID, voterID)
		}
		if len(optionIDs) > v.MaxChoices {
			return fmt.Errorf("%w: %d > %d", common.ErrTooManyChoices, len(optionIDs), v.MaxChoices)
		}

		candidates, err := s.repo.Candidates(ctx, v.ID)
		if err != nil {
			return err
		}
		byPosition := make(map[int]int64, len(candidates))
		for _, c := range candidates {
			byPosition[c.Position] = c.UserID
		}

		b := Ballot{VoterID: voterID}
		for _, opt := range optionIDs {
			id, ok := byPosition[opt]
			if !ok {
				log.WithFields(log.Fields{"voting_id": v.ID, "option": opt}).Warn("Неизвестный вариант опроса")
				continue
			}
			b.CandidateIDs = append(b.CandidateIDs, id)
		}
		if len(b.CandidateIDs) == 0 {
			return s.repo.DeleteBallot(ctx, v.ID, voterID)
		}
		return s.repo.SaveBallot(ctx, v.ID, b)
	})
}

// Finalize закрывает голосование игры за год: подсчёт, раздача дней,
// перевод в completed. Повторный вызов ничего не меняет и возвращает
// сохранённых победителей с AlreadyCompleted.
// skipDuration снимает проверку минимальной длительности (закрытие опроса).
func (s *Service) Finalize(ctx context.Context, game *players.Game, year int, settings config.GameSettings, now time.Time, skipDuration bool) (*Result, error) {
	var res *Result
	err := s.tx.InGame(ctx, game.ID, func(ctx context.Context) error {
		v, err := s.repo.Get(ctx, game.ID, year)
		if err != nil {
			return err
		}
		if v.Status == StatusCompleted {
			res, err = s.completed(ctx, v)
			return err
		}
		if !skipDuration && !settings.IsTest && now.Sub(v.StartedAt) < settings.FinalVotingMinDuration() {
			return common.ErrVotingTooEarly
		}

		res, err = s.tally(ctx, v)
		if err != nil {
			return err
		}

		ok, err := s.repo.Complete(ctx, v, res.Winners, now)
		if err != nil {
			return err
		}
		if !ok {
			res, err = s.completed(ctx, v)
			return err
		}

		if settings.FinalVotingAssignDays {
			return s.assignDays(ctx, v, res.Winners, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.AlreadyCompleted {
		return res, nil
	}

	if s.poller != nil && res.Voting.PollMessageID != 0 {
		if err := s.poller.StopPoll(ctx, game.ChatID, res.Voting.PollMessageID); err != nil {
			log.WithError(err).WithField("voting_id", res.Voting.ID).Warn("Не удалось закрыть опрос")
		}
	}

	log.WithFields(log.Fields{
		"game_id": game.ID,
		"year":    year,
		"winners": len(res.Winners),
		"random":  res.Random,
	}).Info("Финальное голосование завершено")
	return res, nil
}

// FinalizeByPoll закрывает голосование по закрытому опросу.
// Закрытие опроса может прийти несколько раз: повтор безопасен.
func (s *Service) FinalizeByPoll(ctx context.Context, pollID string, now time.Time) (*Result, *players.Game, error) {
	v, err := s.repo.GetByPoll(ctx, pollID)
	if err != nil {
		return nil, nil, err
	}
	game, err := s.players.Game(ctx, v.GameID)
	if err != nil {
		return nil, nil, err
	}
	res, err := s.Finalize(ctx, game, v.Year, s.settings(game.ChatID), now, true)
	if err != nil {
		return nil, nil, err
	}
	return res, game, nil
}

// Overview возвращает состояние голосования за год.
func (s *Service) Overview(ctx context.Context, gameID int64, year int) (*Overview, error) {
	v, err := s.repo.Get(ctx, gameID, year)
	if errors.Is(err, common.ErrNotFound) {
		return &Overview{Status: StatusNotStarted}, nil
	}
	if err != nil {
		return nil, err
	}

	out := &Overview{Status: v.Status, Voting: v}
	if out.Candidates, err = s.repo.Candidates(ctx, v.ID); err != nil {
		return nil, err
	}
	ballots, err := s.repo.Ballots(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	out.Voters = len(ballots)
	if v.Status == StatusCompleted {
		if out.Winners, err = s.repo.Winners(ctx, v.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DueForClose возвращает активные голосования, которые можно закрыть в now.
func (s *Service) DueForClose(ctx context.Context, now time.Time) ([]Due, error) {
	active, err := s.repo.Active(ctx)
	if err != nil {
		return nil, err
	}
	var out []Due
	for _, d := range active {
		settings := s.settings(d.ChatID)
		if settings.IsTest || now.Sub(d.Voting.StartedAt) >= settings.FinalVotingMinDuration() {
			out = append(out, d)
		}
	}
	return out, nil
}

// tally считает голоса и выбирает победителей. Ничего не пишет.
func (s *Service) tally(ctx context.Context, v *Voting) (*Result, error) {
	candidates, err := s.repo.Candidates(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	ballots, err := s.repo.Ballots(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	wins, err := s.selection.WinCounts(ctx, v.GameID, v.Year)
	if err != nil {
		return nil, err
	}

	in := TallyInput{
		Weights:    make(map[int64]int, len(wins)),
		Excluded:   make(map[int64]bool, len(v.ExcludedLeaders)),
		Ballots:    ballots,
		MaxChoices: v.MaxChoices,
	}
	for _, w := range wins {
		in.Weights[w.UserID] = w.Wins
	}
	for _, id := range v.ExcludedLeaders {
		in.Excluded[id] = true
	}
	for _, c := range candidates {
		if !in.Excluded[c.UserID] {
			in.Candidates = append(in.Candidates, c.UserID)
		}
	}

	res := &Result{Voting: v, Scores: Tally(in)}
	top := TopWinners(res.Scores, v.MaxChoices)
	if len(top) == 0 {
		res.Random = true
		for _, id := range s.picker.Sample(in.Candidates, v.MaxChoices) {
			top = append(top, Score{UserID: id, Score: decimal.Zero})
		}
	}

	res.Winners = Allocate(top, v.MissedDays)
	return res, nil
}

// completed собирает результат уже закрытого голосования.
func (s *Service) completed(ctx context.Context, v *Voting) (*Result, error) {
	winners, err := s.repo.Winners(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return &Result{Voting: v, Winners: winners, AlreadyCompleted: true}, nil
}

func (s *Service) assignDays(ctx context.Context, v *Voting, winners []Winner, now time.Time) error {
	for _, w := range winners {
		for _, day := range w.Days {
			ok, err := s.selection.AssignDay(ctx, v.GameID, common.Day{Year: v.Year, Day: day}, w.UserID, now)
			if err != nil {
				return err
			}
			if !ok {
				log.WithFields(log.Fields{"game_id": v.GameID, "year": v.Year, "day": day}).
					Warn("День уже занят, пропускаем")
			}
		}
	}
	return nil
}

// Allocate делит дни между победителями в порядке ранга.
func Allocate(top []Score, missedDays []int) []Winner {
	days := append([]int(nil), missedDays...)
	sort.Ints(days)

	scores := make([]decimal.Decimal, len(top))
	for i, t := range top {
		scores[i] = t.Score
	}
	split := SplitDays(days, Apportion(scores, len(days)))

	winners := make([]Winner, len(top))
	for i, t := range top {
		winners[i] = Winner{Rank: i + 1, UserID: t.UserID, Score: t.Score, Days: split[i]}
	}
	return winners
}

// Leaders возвращает всех игроков с максимальным числом побед.
func Leaders(wins []selection.WinCount) []int64 {
	maxWins := 0
	for _, w := range wins {
		maxWins = max(maxWins, w.Wins)
	}
	if maxWins == 0 {
		return nil
	}
	var out []int64
	for _, w := range wins {
		if w.Wins == maxWins {
			out = append(out, w.UserID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PickCandidates выбирает варианты опроса: состав без исключённых,
// по убыванию побед, не больше maxPollOptions.
func PickCandidates(roster []*players.Player, wins []selection.WinCount, excluded []int64) []Candidate {
	byUser := make(map[int64]int, len(wins))
	for _, w := range wins {
		byUser[w.UserID] = w.Wins
	}
	skip := make(map[int64]bool, len(excluded))
	for _, id := range excluded {
		skip[id] = true
	}

	var out []Candidate
	for _, p := range roster {
		if skip[p.UserID] {
			continue
		}
		out = append(out, Candidate{UserID: p.UserID, Wins: byUser[p.UserID]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].UserID < out[j].UserID
	})
	if len(out) > maxPollOptions {
		out = out[:maxPollOptions]
	}
	for i := range out {
		out[i].Position = i
	}
	return out
}

// FormatDays печатает дни года датами через запятую.
func FormatDays(year int, days []int) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, common.FormatDay(common.Day{Year: year, Day: d}))
	}
	return strings.Join(parts, ", ")
}
