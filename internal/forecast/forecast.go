// Package forecast projects future account balances from past monthly
// activity. The projection is deliberately simple: each future month is
// assumed to repeat the average net of the trailing window of observed
// months.
package forecast

import (
	"github.com/shopspring/decimal"

	"contas/internal/core"
)

// DefaultWindow is the number of trailing months averaged when the caller
// does not choose one.
const DefaultWindow = 3

// MonthNet is the observed net (income minus expenses) of one calendar month.
type MonthNet struct {
	Year  int
	Month int // 1-12
	Net   core.Money
}

// MonthBalance is a projected end-of-month balance.
type MonthBalance struct {
	Year    int
	Month   int // 1-12
	Balance core.Money
}

// TrailingAverage returns the average net of the last `window` entries of
// history, rounded half-up to whole cents. History is expected in
// chronological order. An empty history or window averages to zero.
func TrailingAverage(history []MonthNet, window int) core.Money {
	if window <= 0 || len(history) == 0 {
		return core.Money{}
	}
	if window > len(history) {
		window = len(history)
	}

	sum := decimal.Zero
	for _, m := range history[len(history)-window:] {
		sum = sum.Add(decimal.NewFromInt(m.Net.Cents))
	}
	avg := sum.Div(decimal.NewFromInt(int64(window))).Round(0)
	return core.Money{Cents: avg.IntPart()}
}

// Project extends a balance forward by `months` months, starting from the
// month after the last history entry. Every projected month applies the
// trailing average net of the observed history; the projection does not
// feed back into itself.
func Project(opening core.Money, history []MonthNet, window, months int) []MonthBalance {
	if months <= 0 || len(history) == 0 {
		return nil
	}
	if window <= 0 {
		window = DefaultWindow
	}

	year, month := nextMonth(history)
	avg := TrailingAverage(history, window)

	balance := opening.Cents
	for _, m := range history {
		balance += m.Net.Cents
	}

	out := make([]MonthBalance, 0, months)
	for i := 0; i < months; i++ {
		balance += avg.Cents
		out = append(out, MonthBalance{Year: year, Month: month, Balance: core.Money{Cents: balance}})
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return out
}

func nextMonth(history []MonthNet) (year, month int) {
	last := history[len(history)-1]
	year, month = last.Year, last.Month+1
	if month > 12 {
		month = 1
		year++
	}
	return year, month
}
