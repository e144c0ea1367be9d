package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	cl "finanzstart/internal/cli"
	"finanzstart/internal/game"
	"finanzstart/internal/leaderboard"
	"finanzstart/internal/syncq"

	"github.com/spf13/cobra"
)

func (a *app) client() *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(a.cfg.APIBaseURL), "/"))
}

// flushQueue replays submissions queued while offline. Only network errors
// keep an entry queued; a rejection from the API drops it.
func (a *app) flushQueue(ctx context.Context, client *cl.Client) {
	sent, remaining, err := syncq.Flush(ctx, a.home.QueueDir(), func(ctx context.Context, sub leaderboard.Submission) (bool, error) {
		_, err := client.SubmitLeaderboard(ctx, sub)
		if err != nil && !cl.IsNetworkError(err) {
			printError(fmt.Sprintf("Queued submission for %s rejected: %v", sub.PlayerName, err))
		}
		return cl.IsNetworkError(err), err
	})
	if err != nil {
		a.log.Warn("sync queue flush failed", "err", err)
		return
	}
	if sent > 0 {
		printSuccess(fmt.Sprintf("Sent %d queued submission(s).", sent))
	}
	if len(remaining) > 0 {
		printWarn(fmt.Sprintf("%d submission(s) still queued.", len(remaining)))
	}
}

func newLeaderboardCmd(a *app) *cobra.Command {
	lb := &cobra.Command{
		Use:     "leaderboard",
		Short:   "Leaderboard commands",
		Aliases: []string{"lb"},
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "Show the youngest and richest retirements",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.client()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			a.flushQueue(ctx, client)
			board, err := client.Leaderboard(ctx, limit)
			if err != nil {
				return err
			}
			renderBoard(board)
			fmt.Println()
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", leaderboard.DefaultLimit, "rows per list")
	lb.AddCommand(list)

	lb.AddCommand(&cobra.Command{
		Use:   "submit <player name>",
		Short: "Submit your finished run",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			sess, done, err := a.open()
			if err != nil {
				return err
			}
			defer done()

			client := a.client()
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			a.flushQueue(ctx, client)

			queued := false
			sub, err := sess.SubmitLeaderboard(name, func(sub game.LeaderboardSubmission) error {
				out := leaderboard.Submission{
					PlayerName:                sub.PlayerName,
					RetirementAgeMonths:       sub.RetirementAgeMonths,
					PassiveIncomeAtRetirement: sub.PassiveIncomeAtRetirement,
				}
				if err := out.Validate(); err != nil {
					return err
				}
				_, err := client.SubmitLeaderboard(ctx, out)
				if err != nil && cl.IsNetworkError(err) {
					a.log.Debug("leaderboard offline, queueing", "err", err)
					queued = true
					return syncq.Push(a.home.QueueDir(), out, time.Now())
				}
				return err
			})
			if err != nil {
				return err
			}
			if err := a.home.SaveSnapshot(sess.Snapshot()); err != nil {
				return err
			}
			if queued {
				printWarn("Leaderboard unreachable. Submission queued; it is sent with the next leaderboard command.")
				return nil
			}
			success.Printf("Submitted %s: retired at %s.\n", sub.PlayerName, game.FormatAge(int(sub.RetirementAgeMonths)))
			return nil
		},
	})

	lb.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Send submissions queued while offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := syncq.Load(a.home.QueueDir())
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()
			a.flushQueue(ctx, a.client())
			return nil
		},
	})
	return lb
}
