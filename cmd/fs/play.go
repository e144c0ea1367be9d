package main

import (
	"fmt"
	"strconv"
	"strings"

	"finanzstart/internal/game"
	"finanzstart/internal/report"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("6")).Padding(0, 1)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const playHelp = "n next month · N next year · e event · o offer · a accept · d decline · r retire · q quit"

func newPlayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the saved game in an interactive dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, done, err := a.open()
			if err != nil {
				return err
			}
			defer done()
			m := newPlayModel(sess, func() error { return a.home.SaveSnapshot(sess.Snapshot()) })
			final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			if err != nil {
				return err
			}
			if pm, ok := final.(playModel); ok && pm.saveErr != nil {
				return pm.saveErr
			}
			return nil
		},
	}
}

type playModel struct {
	sess    *game.Session
	save    func() error
	state   *game.State
	history table.Model
	status  string
	saveErr error
}

func newPlayModel(sess *game.Session, save func() error) playModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Month", Width: 6},
			{Title: "Age", Width: 8},
			{Title: "Income", Width: 12},
			{Title: "Passive", Width: 11},
			{Title: "Expenses", Width: 12},
			{Title: "Net", Width: 12},
			{Title: "Notes", Width: 30},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("14"))
	t.SetStyles(styles)

	m := playModel{sess: sess, save: save, history: t, status: "Welcome back."}
	m.refresh()
	return m
}

// refresh reloads the state copy and rebuilds the history rows.
func (m *playModel) refresh() {
	m.state = m.sess.State()
	rows := make([]table.Row, 0, len(m.state.MonthHistory))
	startAge := game.StartAgeMonths
	for _, rec := range m.state.MonthHistory {
		b := rec.Budget
		rows = append(rows, table.Row{
			strconv.Itoa(rec.MonthIndex),
			game.FormatAge(startAge + rec.MonthIndex),
			report.Money(b.Income),
			report.Money(b.PassiveIncome),
			report.Money(b.Expenses),
			report.Money(b.Net()),
			strings.Join(rec.Notes, "; "),
		})
	}
	m.history.SetRows(rows)
	m.history.GotoBottom()
}

func (m playModel) Init() tea.Cmd {
	return nil
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if h := msg.Height - 14; h > 5 {
			m.history.SetHeight(h)
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "n":
			m.advance(1)
			return m, nil
		case "N":
			m.advance(12)
			return m, nil
		case "e":
			res := m.apply(game.Action{Kind: game.ActRandomEvent})
			m.status = eventStatus(res)
			return m, nil
		case "o":
			res := m.apply(game.Action{Kind: game.ActTriggerOffer})
			if res.Offer != nil {
				m.status = fmt.Sprintf("Offer: %s (a to accept, d to decline)", res.Offer.Description)
			}
			return m, nil
		case "a", "d":
			if len(m.state.PendingOffers) == 0 {
				m.status = "No pending offers."
				return m, nil
			}
			latest := m.state.PendingOffers[len(m.state.PendingOffers)-1]
			kind, verb := game.ActAcceptOffer, "Accepted"
			if msg.String() == "d" {
				kind, verb = game.ActDeclineOffer, "Declined"
			}
			if res := m.apply(game.Action{Kind: kind, ID: latest.ID}); res.Applied {
				m.status = verb + ": " + latest.Description
			}
			return m, nil
		case "r":
			if res := m.apply(game.Action{Kind: game.ActRetire}); res.Applied {
				m.status = "Retired! Quit and run `fs leaderboard submit <name>`."
			} else {
				m.status = "Passive income does not cover expenses yet."
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.history, cmd = m.history.Update(msg)
	return m, cmd
}

func (m *playModel) apply(a game.Action) game.Result {
	res, err := m.sess.Apply(a)
	if err != nil {
		m.status = err.Error()
		return res
	}
	if err := m.save(); err != nil {
		m.saveErr = err
		m.status = "save failed: " + err.Error()
	}
	m.refresh()
	return res
}

func (m *playModel) advance(months int) {
	wasFI := m.state.AchievedFI
	for i := 0; i < months; i++ {
		res, err := m.sess.Apply(game.Action{Kind: game.ActAdvanceMonth})
		if err != nil {
			m.status = err.Error()
			break
		}
		if !res.Applied {
			m.status = "The game is over."
			break
		}
		m.status = fmt.Sprintf("Month %d done.", res.Record.MonthIndex)
	}
	if err := m.save(); err != nil {
		m.saveErr = err
		m.status = "save failed: " + err.Error()
	}
	m.refresh()
	if m.state.AchievedFI && !wasFI {
		m.status = "Financial independence reached! Press r to retire."
	}
}

func eventStatus(res game.Result) string {
	switch {
	case res.Event == "":
		return "Nothing happened."
	case !res.Effective:
		return fmt.Sprintf("Event %s had no effect.", res.Event)
	}
	switch res.Event {
	case game.EventRentIncrease:
		return "Your rent went up."
	case game.EventJobLoss:
		return "You lost your job."
	case game.EventPromotion:
		return "Promotion!"
	}
	return string(res.Event)
}

func (m playModel) View() string {
	st := m.state
	sum := st.Summary()

	net := goodStyle.Render(report.Money(sum.ProjectedNet))
	if sum.ProjectedNet < 0 {
		net = badStyle.Render(report.Money(sum.ProjectedNet))
	}
	fi := dimStyle.Render("not yet")
	if st.AchievedFI {
		fi = goodStyle.Render("reached")
	}
	lines := []string{
		titleStyle.Render("FinanzStart") + "  age " + sum.Age,
		fmt.Sprintf("Cash %s   Passive %s   Expenses %s   Net %s",
			report.Money(st.Cash), report.Money(sum.PassiveIncome), report.Money(sum.ProjectedExpenses), net),
		fmt.Sprintf("Living: %s   Family: %s   FI: %s", livingLabel(st.Living), familyLabel(st.Dependents), fi),
	}
	if n := len(st.PendingOffers); n > 0 {
		lines = append(lines, fmt.Sprintf("Pending offers: %d", n))
	}
	header := panelStyle.Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.history.View(),
		m.status,
		dimStyle.Render(playHelp),
	) + "\n"
}
