// Package memory — хранилище в памяти процесса с теми же контрактами,
// что и репозитории PostgreSQL. Используется для локального запуска
// (STORAGE_DRIVER=memory) и в тестах сервисов.
//
// Все данные защищены одним мьютексом. InGame дополнительно
// сериализует операции одной игры. Отката нет: сервисы проверяют
// условия до первой записи, поэтому ошибка оставляет состояние целым.
package memory

import (
	"context"
	"sync"
	"time"

	"serotonyl.ru/dailypick-bot/internal/db"
	"serotonyl.ru/dailypick-bot/internal/features/effects"
	"serotonyl.ru/dailypick-bot/internal/features/ledger"
	"serotonyl.ru/dailypick-bot/internal/features/players"
	"serotonyl.ru/dailypick-bot/internal/features/predictions"
	"serotonyl.ru/dailypick-bot/internal/features/selection"
	"serotonyl.ru/dailypick-bot/internal/features/transfer"
	"serotonyl.ru/dailypick-bot/internal/features/voting"
)

type userKey struct {
	gameID int64
	userID int64
}

type dayKey struct {
	gameID int64
	year   int
	day    int
}

type userDayKey struct {
	gameID int64
	userID int64
	year   int
	day    int
}

type rosterEntry struct {
	userID  int64
	addedAt int64
}

// DB хранит все таблицы в памяти.
type DB struct {
	mu  sync.Mutex
	seq int64

	games       map[int64]*players.Game
	gamesByChat map[int64]int64
	players     map[int64]players.Player
	rosters     map[int64][]rosterEntry

	entries []ledger.Entry

	effects        map[userKey]effects.PlayerEffect
	amplifications map[userDayKey]effects.AmplificationPurchase

	predictions map[userDayKey]*predictions.Prediction

	results map[dayKey]selection.DailyResult

	transfers map[userDayKey]transfer.Transfer
	banks     map[int64]int64
	claims    map[userDayKey]transfer.BonusClaim

	votings    map[int64]*voting.Voting
	candidates map[int64][]voting.Candidate
	ballots    map[int64]map[int64][]int64
	winners    map[int64][]voting.Winner

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// New создаёт пустое хранилище.
func New() *DB {
	return &DB{
		games:          make(map[int64]*players.Game),
		gamesByChat:    make(map[int64]int64),
		players:        make(map[int64]players.Player),
		rosters:        make(map[int64][]rosterEntry),
		effects:        make(map[userKey]effects.PlayerEffect),
		amplifications: make(map[userDayKey]effects.AmplificationPurchase),
		predictions:    make(map[userDayKey]*predictions.Prediction),
		results:        make(map[dayKey]selection.DailyResult),
		transfers:      make(map[userDayKey]transfer.Transfer),
		banks:          make(map[int64]int64),
		claims:         make(map[userDayKey]transfer.BonusClaim),
		votings:        make(map[int64]*voting.Voting),
		candidates:     make(map[int64][]voting.Candidate),
		ballots:        make(map[int64]map[int64][]int64),
		winners:        make(map[int64][]voting.Winner),
		locks:          make(map[int64]*sync.Mutex),
	}
}

// nextID выдаёт следующий идентификатор. Вызывается под mu.
func (m *DB) nextID() int64 {
	m.seq++
	return m.seq
}

type gameLockKey struct{}

// InGame выполняет fn, удерживая блокировку игры.
// Вложенный вызов для той же игры не блокируется повторно.
func (m *DB) InGame(ctx context.Context, gameID int64, fn func(ctx context.Context) error) error {
	if held, ok := ctx.Value(gameLockKey{}).(int64); ok && held == gameID {
		return fn(ctx)
	}

	lock := m.gameLock(gameID)
	lock.Lock()
	defer lock.Unlock()

	return fn(context.WithValue(ctx, gameLockKey{}, gameID))
}

func (m *DB) gameLock(gameID int64) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[gameID] = l
	}
	return l
}

func now() time.Time {
	return time.Now()
}

// Players возвращает хранилище игр и составов.
func (m *DB) Players() *PlayerStore { return &PlayerStore{m: m} }

// Ledger возвращает хранилище журнала.
func (m *DB) Ledger() *LedgerStore { return &LedgerStore{m: m} }

// Effects возвращает хранилище эффектов.
func (m *DB) Effects() *EffectStore { return &EffectStore{m: m} }

// Predictions возвращает хранилище предсказаний.
func (m *DB) Predictions() *PredictionStore { return &PredictionStore{m: m} }

// Results возвращает хранилище результатов дней.
func (m *DB) Results() *ResultStore { return &ResultStore{m: m} }

// Transfers возвращает хранилище переводов и бонусов.
func (m *DB) Transfers() *TransferStore { return &TransferStore{m: m} }

// Votings возвращает хранилище голосований.
func (m *DB) Votings() *VotingStore { return &VotingStore{m: m} }

// compile-time проверки контрактов
var (
	_ db.Transactor     = (*DB)(nil)
	_ players.Store     = (*PlayerStore)(nil)
	_ ledger.Store      = (*LedgerStore)(nil)
	_ effects.Store     = (*EffectStore)(nil)
	_ predictions.Store = (*PredictionStore)(nil)
	_ selection.Store   = (*ResultStore)(nil)
	_ transfer.Store    = (*TransferStore)(nil)
	_ voting.Store      = (*VotingStore)(nil)
)
