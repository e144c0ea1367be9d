// Package report exports a run's month history as CSV or Markdown.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"finanzstart/internal/game"
)

const Currency = money.EUR

var csvHeader = []string{"Month", "Income", "Passive", "Expenses", "Invested", "Liabilities", "Net"}

// WriteCSV writes one row per history record with every amount rounded to a
// whole unit. Net is income minus expenses.
func WriteCSV(w io.Writer, history []game.MonthRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range history {
		b := r.Budget
		row := []string{
			strconv.Itoa(r.MonthIndex),
			whole(b.Income),
			whole(b.PassiveIncome),
			whole(b.Expenses),
			whole(b.Investments),
			whole(b.Liabilities),
			whole(b.Net()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func whole(v float64) string {
	if !finite(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).Round(0).String()
}

// finite guards decimal.NewFromFloat, which panics on NaN and infinities.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Markdown renders the last n records (all when n <= 0) as a table. Note-only
// records from random events are shown by their note.
func Markdown(history []game.MonthRecord, n int) string {
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}

	var b strings.Builder
	b.WriteString("| Month | Income | Passive | Expenses | Invested | Liabilities | Net |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|---:|\n")
	if len(history) == 0 {
		b.WriteString("| - | | | | | | |\n")
		return b.String()
	}
	for _, r := range history {
		if len(r.Notes) > 0 && r.Budget == (game.Budget{}) {
			fmt.Fprintf(&b, "| %d | %s | | | | | |\n", r.MonthIndex, escape(strings.Join(r.Notes, "; ")))
			continue
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			r.MonthIndex,
			Money(r.Budget.Income),
			Money(r.Budget.PassiveIncome),
			Money(r.Budget.Expenses),
			Money(r.Budget.Investments),
			Money(r.Budget.Liabilities),
			Money(r.Budget.Net()),
		)
	}
	return b.String()
}

// Money formats an amount in the game currency, rounded to cents.
func Money(v float64) string {
	if !finite(v) {
		return strconv.FormatFloat(v, 'f', -1, 64) + " " + Currency
	}
	cur := money.GetCurrency(Currency)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := decimal.NewFromFloat(v).Mul(factor).Round(0)
	return money.New(minor.IntPart(), Currency).Display()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
