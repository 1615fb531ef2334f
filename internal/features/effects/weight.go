// Package effects — weight.go переводит число усилений в вес игрока в пуле.
package effects

import "fmt"

// maxAmplificationShift ограничивает степень, чтобы вес не переполнил int.
const maxAmplificationShift = 30

// WeightFunc возвращает, сколько раз игрок попадает в пул выбора.
type WeightFunc func(count int) int

// ExponentialWeight — 2^count: каждая покупка удваивает шанс.
func ExponentialWeight(count int) int {
	if count <= 0 {
		return 1
	}
	if count > maxAmplificationShift {
		count = maxAmplificationShift
	}
	return 1 << count
}

// LinearWeight — count+1: каждая покупка добавляет одну запись.
// Включается через AMPLIFICATION_WEIGHT=linear.
func LinearWeight(count int) int {
	if count <= 0 {
		return 1
	}
	return count + 1
}

// WeightByName возвращает формулу веса по имени из конфигурации.
func WeightByName(name string) (WeightFunc, error) {
	switch name {
	case "", "exponential":
		return ExponentialWeight, nil
	case "linear":
		return LinearWeight, nil
	default:
		return nil, fmt.Errorf("неизвестная формула веса усиления %q", name)
	}
}
