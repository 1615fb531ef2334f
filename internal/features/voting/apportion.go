// Package voting — apportion.go делит пропущенные дни между победителями
// методом наибольшего остатка.
package voting

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Apportion делит total дней пропорционально очкам scores.
// Точные доли округляются вниз, оставшиеся дни по одному раздаются
// по убыванию дробной части, при равенстве: по очкам, затем по порядку.
// Если сумма очков нулевая, дни делятся поровну.
// Сумма результата всегда равна total.
func Apportion(scores []decimal.Decimal, total int) []int {
	n := len(scores)
	out := make([]int, n)
	if n == 0 || total <= 0 {
		return out
	}

	sum := decimal.Zero
	for _, s := range scores {
		if s.IsPositive() {
			sum = sum.Add(s)
		}
	}

	if !sum.IsPositive() {
		for i := range out {
			out[i] = total / n
		}
		for i := 0; i < total%n; i++ {
			out[i]++
		}
		return out
	}

	type share struct {
		idx   int
		score decimal.Decimal
		frac  decimal.Decimal
	}
	shares := make([]share, n)
	totalDec := decimal.NewFromInt(int64(total))
	assigned := 0
	for i, s := range scores {
		if s.IsNegative() {
			s = decimal.Zero
		}
		exact := s.Mul(totalDec).Div(sum)
		floor := exact.Floor()
		out[i] = int(floor.IntPart())
		assigned += out[i]
		shares[i] = share{idx: i, score: s, frac: exact.Sub(floor)}
	}

	sort.SliceStable(shares, func(a, b int) bool {
		if c := shares[a].frac.Cmp(shares[b].frac); c != 0 {
			return c > 0
		}
		if c := shares[a].score.Cmp(shares[b].score); c != 0 {
			return c > 0
		}
		return shares[a].idx < shares[b].idx
	})
	for i := 0; assigned < total; i++ {
		out[shares[i%n].idx]++
		assigned++
	}
	return out
}

// SplitDays раздаёт дни по победителям в порядке ранга:
// первому достаются первые counts[0] дней, и так далее. days должен быть отсортирован.
func SplitDays(days []int, counts []int) [][]int {
	out := make([][]int, len(counts))
	pos := 0
	for i, c := range counts {
		end := min(pos+c, len(days))
		out[i] = append([]int(nil), days[pos:end]...)
		pos = end
	}
	return out
}
