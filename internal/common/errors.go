// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Общие ошибки хранилища
var (
	// ErrNotFound — запись не найдена (результат дня, голосование, игрок)
	ErrNotFound = errors.New("запись не найдена")
	// ErrAlreadyExists — запись уже существует (результат дня, голосование, покупка)
	ErrAlreadyExists = errors.New("запись уже существует")
	// ErrFeatureDisabled — функция выключена в настройках чата
	ErrFeatureDisabled = errors.New("функция отключена в этом чате")
)

// Ошибки экономики (койны, переводы)
var (
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrInsufficientFunds — недостаточно койнов на счёте
	ErrInsufficientFunds = errors.New("недостаточно койнов на счёте")
	// ErrSelfTarget — действие нельзя направить на самого себя
	ErrSelfTarget = errors.New("нельзя выбрать самого себя")
	// ErrTransferTooSmall — сумма перевода меньше минимальной
	ErrTransferTooSmall = errors.New("сумма перевода меньше минимальной")
	// ErrAlreadyClaimed — бонус или перевод уже использованы сегодня
	ErrAlreadyClaimed = errors.New("сегодня уже было")
	// ErrCooldown — повторная покупка раньше окончания кулдауна
	ErrCooldown = errors.New("кулдаун ещё не прошёл")
)

// Ошибки розыгрыша
var (
	// ErrNoPlayers — в игре нет зарегистрированных игроков
	ErrNoPlayers = errors.New("нет зарегистрированных игроков")
	// ErrRerollUnavailable — перевыбор на этот день уже использован или истёк
	ErrRerollUnavailable = errors.New("перевыбор недоступен")
)

// Ошибки финального голосования
var (
	// ErrOutsideVotingWindow — голосование можно запускать только в конце года
	ErrOutsideVotingWindow = errors.New("финальное голосование доступно только 29 и 30 декабря")
	// ErrTooManyMissedDays — пропущено слишком много дней
	ErrTooManyMissedDays = errors.New("слишком много пропущенных дней")
	// ErrNothingToVote — нет пропущенных дней или кандидатов
	ErrNothingToVote = errors.New("нечего разыгрывать")
	// ErrTooManyChoices — в бюллетене больше кандидатов, чем разрешено
	ErrTooManyChoices = errors.New("выбрано слишком много кандидатов")
	// ErrVotingTooEarly — голосование ещё нельзя закрыть
	ErrVotingTooEarly = errors.New("голосование ещё нельзя закрыть")
	// ErrNotAdmin — пользователь не является администратором чата
	ErrNotAdmin = errors.New("у вас нет прав администратора")
)
