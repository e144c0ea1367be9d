package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"finanzstart/internal/game"
	"finanzstart/internal/leaderboard"
	"finanzstart/internal/report"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

// promptIndex asks for a 1-based position in a list of n items.
func promptIndex(label string, n int) (int, error) {
	for {
		text, err := promptRequired(fmt.Sprintf("%s [1-%d]", label, n))
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(text)
		if err != nil || v < 1 || v > n {
			printWarn("Pick one of the listed numbers.")
			continue
		}
		return v - 1, nil
	}
}

func parseAmount(label, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", label, raw)
	}
	return v, nil
}

func renderStatus(st *game.State) {
	sum := st.Summary()
	accent.Printf("\n== FINANZSTART (age %s) ==\n", sum.Age)
	fmt.Printf("Cash:               %s\n", colorizeMoney(st.Cash))
	fmt.Printf("Active income:      %s\n", report.Money(sum.ActiveIncome))
	fmt.Printf("Passive income:     %s\n", report.Money(sum.PassiveIncome))
	fmt.Printf("Projected expenses: %s\n", report.Money(sum.ProjectedExpenses))
	fmt.Printf("Projected net:      %s\n", colorizeMoney(sum.ProjectedNet))
	fmt.Printf("Degree:             %s\n", st.Degree)

	switch {
	case st.Career != nil:
		fmt.Printf("Job:                %s (%s)\n", st.Career.Title, report.Money(st.Career.MonthlySalary))
	case st.Studying && st.Study != nil:
		fmt.Printf("Studying:           %s %s, %d months left\n", st.Study.Level, st.Study.Field, st.Study.RemainingMonths)
	default:
		fmt.Printf("Job:                none\n")
	}
	if sum.JobSearchBlocked {
		warn.Printf("Job search blocked for %d more month(s).\n", st.JobSearchCooldownMonths)
	}
	fmt.Printf("Living:             %s\n", livingLabel(st.Living))
	if st.Car != nil {
		fmt.Printf("Car:                %s (%s/mo)\n", st.Car.Tier, report.Money(st.Car.MonthlyCost))
	}
	fmt.Printf("Family:             %s\n", familyLabel(st.Dependents))

	if len(st.Loans) > 0 {
		fmt.Println()
		accent.Println("Loans")
		fmt.Printf("%-10s %14s %8s %14s\n", "KIND", "PRINCIPAL", "APR", "PAYMENT")
		for _, l := range st.Loans {
			fmt.Printf("%-10s %14s %7.2f%% %14s\n", l.Kind, report.Money(l.Principal), l.RateAPR*100, report.Money(l.MonthlyPayment))
		}
	}
	if len(st.Investments) > 0 {
		fmt.Println()
		accent.Println("Investments")
		fmt.Printf("%-12s %14s %14s\n", "PRODUCT", "PRINCIPAL", "YIELD/MO")
		for _, inv := range st.Investments {
			fmt.Printf("%-12s %14s %14s\n", inv.Kind, report.Money(inv.Principal), report.Money(inv.MonthlyYield))
		}
	}
	if len(st.PendingOffers) > 0 {
		fmt.Println()
		renderOffers(st.PendingOffers)
	}

	fmt.Println()
	switch {
	case st.GameOver:
		success.Println("Retired. Submit your run with `fs leaderboard submit <name>`.")
	case st.AchievedFI:
		success.Println("Financially independent! Run `fs retire` to finish.")
	}
}

func livingLabel(l game.Living) string {
	switch l.Mode {
	case game.LivingRented:
		return fmt.Sprintf("renting %s (%s/mo)", truncate(l.SizeLabel, 20), report.Money(l.MonthlyRent))
	case game.LivingOwned:
		return fmt.Sprintf("own home (%s/mo)", report.Money(l.MortgagePayment))
	default:
		return "with parents"
	}
}

func familyLabel(d game.Dependents) string {
	parts := []string{"single"}
	if d.Spouse {
		parts[0] = "married"
	}
	if n := len(d.Children); n > 0 {
		parts = append(parts, fmt.Sprintf("%d child(ren)", n))
	}
	return strings.Join(parts, ", ")
}

func renderRecord(rec game.MonthRecord) {
	b := rec.Budget
	accent.Printf("Month %d\n", rec.MonthIndex)
	fmt.Printf("  income %s (passive %s)  expenses %s  net %s\n",
		report.Money(b.Income),
		report.Money(b.PassiveIncome),
		report.Money(b.Expenses),
		colorizeMoney(b.Net()),
	)
	for _, n := range rec.Notes {
		warn.Printf("  %s\n", n)
	}
}

func renderOffers(offers []game.Offer) {
	accent.Println("Pending offers")
	for _, o := range offers {
		cost := report.Money(o.CostMonthly) + "/mo"
		if o.OneTimeCost > 0 {
			cost = report.Money(o.OneTimeCost) + " once"
		}
		fmt.Printf("  %s  %-40s %s\n", o.ID, truncate(o.Description, 40), cost)
	}
}

func renderCatalog(cat game.Catalog, degree game.Degree) {
	accent.Println("\nJobs")
	for _, j := range cat.JobsFor(degree) {
		fmt.Printf("  %-28s %12s\n", truncate(j.Title, 28), report.Money(j.MonthlySalary))
	}
	accent.Println("\nStudies")
	for _, p := range cat.StudiesFor(degree) {
		fmt.Printf("  %-9s %-26s %dy %12s/yr\n", p.Level, truncate(p.Field, 26), p.Years, report.Money(p.AnnualTuition))
	}
	accent.Println("\nRent")
	for _, r := range cat.Rents {
		fmt.Printf("  %-28s %12s\n", truncate(r.SizeLabel, 28), report.Money(r.MonthlyRent))
	}
	accent.Println("\nCars")
	for _, c := range cat.Cars {
		fmt.Printf("  %-9s %-18s %12s\n", c.Tier, truncate(c.Label, 18), report.Money(c.MonthlyCost))
	}
	accent.Println("\nInvestments")
	for _, p := range cat.Products {
		fmt.Printf("  %-12s %-20s %6.2f%%/mo\n", p.Kind, truncate(p.Name, 20), p.MonthlyYieldRate*100)
	}
	fmt.Println()
}

func renderBoard(board leaderboard.Board) {
	renderBoardSide("Youngest retirement", board.Youngest)
	renderBoardSide("Highest passive income", board.Richest)
}

func renderBoardSide(title string, rows []leaderboard.Entry) {
	accent.Printf("\n== %s ==\n", strings.ToUpper(title))
	if len(rows) == 0 {
		printInfo("No leaderboard rows yet.")
		return
	}
	fmt.Printf("%-6s %-24s %-10s %14s\n", "RANK", "PLAYER", "AGE", "PASSIVE")
	for i, row := range rows {
		fmt.Printf("%-6d %-24s %-10s %14s\n",
			i+1,
			truncate(row.PlayerName, 24),
			game.FormatAge(int(row.RetirementAgeMonths)),
			report.Money(row.PassiveIncomeAtRetirement),
		)
	}
}

func colorizeMoney(v float64) string {
	text := report.Money(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
