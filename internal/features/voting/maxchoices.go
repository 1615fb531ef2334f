// Package voting — maxchoices.go считает, сколько кандидатов можно выбрать
// и сколько будет победителей при M пропущенных днях.
package voting

// MaxChoices возвращает число выборов для M пропущенных дней:
// чётное M → M/2, простое → 1, нечётное составное → M / наименьший делитель.
// M ≤ 1 возвращается как есть.
func MaxChoices(m int) int {
	if m <= 1 {
		return m
	}
	if m%2 == 0 {
		return m / 2
	}
	for d := 3; d*d <= m; d += 2 {
		if m%d == 0 {
			return m / d
		}
	}
	// простое
	return 1
}
