package main

import (
	"fmt"
	"os"

	"finanzstart/internal/report"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newHistoryCmd(a *app) *cobra.Command {
	var (
		last    int
		csvPath string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the month-by-month history or export it as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.home.LoadSnapshot()
			if err != nil {
				return err
			}
			history := snap.State.MonthHistory

			if csvPath != "" {
				f, err := os.OpenFile(csvPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
				if err != nil {
					return err
				}
				if err := report.WriteCSV(f, history); err != nil {
					_ = f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				printSuccess(fmt.Sprintf("Wrote %d month(s) to %s.", len(history), csvPath))
				return nil
			}

			md := report.Markdown(history, last)
			fd := int(os.Stdout.Fd())
			if !term.IsTerminal(fd) {
				fmt.Print(md)
				return nil
			}
			width := 100
			if w, _, err := term.GetSize(fd); err == nil && w > 20 {
				width = w
			}
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
			if err != nil {
				return err
			}
			out, err := r.Render(md)
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 12, "show only the last N months (0 for all)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the full history to this CSV file")
	return cmd
}
