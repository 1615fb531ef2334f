// Package selection — engine.go содержит сам розыгрыш: построение
// взвешенного пула и выбор победителя. Здесь нет работы с хранилищем,
// поэтому алгоритм проверяется тестами с фиксированным seed.
package selection

import (
	"math/rand"
	"sync"
	"time"

	"serotonyl.ru/dailypick-bot/internal/common"
	"serotonyl.ru/dailypick-bot/internal/features/effects"
)

// Candidate — игрок в пуле розыгрыша.
type Candidate struct {
	UserID    int64
	Weight    int // сколько раз игрок лежит в пуле
	Protected bool
	Amplified bool
}

// Picker — потокобезопасный генератор для розыгрышей.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker создаёт генератор с заданным seed. 0: seed от текущего времени.
func NewPicker(seed int64) *Picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Picker{rng: rand.New(rand.NewSource(seed))}
}

// Intn возвращает число из [0, n).
func (p *Picker) Intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// Sample возвращает k случайных различных элементов ids.
func (p *Picker) Sample(ids []int64, k int) []int64 {
	out := append([]int64(nil), ids...)
	p.mu.Lock()
	p.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	p.mu.Unlock()
	if k < len(out) {
		out = out[:k]
	}
	return out
}

// Pick выбирает кандидата с вероятностью, пропорциональной весу.
// Вес меньше 1 считается за 1.
func (p *Picker) Pick(pool []Candidate) (Candidate, bool) {
	if len(pool) == 0 {
		return Candidate{}, false
	}
	total := 0
	for _, c := range pool {
		total += max(c.Weight, 1)
	}

	n := p.Intn(total)
	for _, c := range pool {
		n -= max(c.Weight, 1)
		if n < 0 {
			return c, true
		}
	}
	return pool[len(pool)-1], true
}

// BuildPool собирает пул по составу игры на день d.
// Игроки без строки эффектов получают вес 1 и не защищены.
func BuildPool(roster []int64, fx map[int64]*effects.PlayerEffect, registry *effects.Registry, d common.Day) []Candidate {
	pool := make([]Candidate, 0, len(roster))
	for _, id := range roster {
		e := fx[id]
		c := Candidate{
			UserID:    id,
			Weight:    registry.Weight(e),
			Protected: e.IsProtected(d),
		}
		if e != nil && e.AmplificationCount > 0 {
			c.Amplified = true
		}
		pool = append(pool, c)
	}
	return pool
}

// Eligible возвращает незащищённых кандидатов.
func Eligible(pool []Candidate) []Candidate {
	out := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if !c.Protected {
			out = append(out, c)
		}
	}
	return out
}

// Choice — итог выбора победителя.
type Choice struct {
	Winner Candidate
	// Saved — защищённый игрок, на которого сначала выпал выбор
	Saved *Candidate
}

// DrawWinner тянет из полного пула. Если выпал защищённый игрок, он
// запоминается в Saved, а выбор повторяется среди незащищённых.
// Если незащищённых нет, при ignoreAllProtected защита не учитывается,
// иначе возвращается false.
func (p *Picker) DrawWinner(pool []Candidate, ignoreAllProtected bool) (Choice, bool) {
	eligible := Eligible(pool)
	if len(eligible) == 0 {
		if !ignoreAllProtected {
			return Choice{}, false
		}
		w, ok := p.Pick(pool)
		return Choice{Winner: w}, ok
	}

	first, _ := p.Pick(pool)
	if !first.Protected {
		return Choice{Winner: first}, true
	}

	saved := first
	w, _ := p.Pick(eligible)
	return Choice{Winner: w, Saved: &saved}, true
}
