package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	cl "finanzstart/internal/cli"
	"finanzstart/internal/config"
	"finanzstart/internal/game"
	"finanzstart/internal/journal"
	"finanzstart/internal/report"

	"github.com/spf13/cobra"
)

type app struct {
	cfg     config.CLIConfig
	home    cl.Home
	catalog game.Catalog
	log     *slog.Logger
}

func main() {
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	level := slog.LevelWarn
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	catalog, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	a := &app{cfg: cfg, home: cl.Home(cfg.Home), catalog: catalog, log: logger}

	root := &cobra.Command{
		Use:          "fs",
		Short:        "FinanzStart: play your first years of adult finances",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.cfg.APIBaseURL, "api", cfg.APIBaseURL, "leaderboard API base URL")

	root.AddCommand(
		newNewCmd(a),
		newStatusCmd(a),
		newMonthCmd(a),
		newJobCmd(a),
		newStudyCmd(a),
		newSideIncomeCmd(a),
		newLiveCmd(a),
		newInvestCmd(a),
		newHouseCmd(a),
		newLoanCmd(a),
		newCarCmd(a),
		newOfferCmd(a),
		newEventCmd(a),
		newFamilyCmd(a),
		newRetireCmd(a),
		newResetCmd(a),
		newHistoryCmd(a),
		newCatalogCmd(a),
		newLeaderboardCmd(a),
		newPlayCmd(a),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// open resumes the saved game with its journal attached. The returned close
// func must run after the last Apply.
func (a *app) open() (*game.Session, func(), error) {
	snap, err := a.home.LoadSnapshot()
	if err != nil {
		return nil, nil, err
	}
	j, err := journal.NewZstdWriter(a.home.JournalDir(), snap.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	sess := game.NewSession(game.FromSnapshot(snap), game.WithJournal(j), game.WithLogger(a.log))
	closeFn := func() {
		if err := j.Close(); err != nil {
			a.log.Warn("journal close failed", "err", err)
		}
	}
	return sess, closeFn, nil
}

// act applies one action to the saved game and persists the result.
func (a *app) act(action game.Action) (game.Result, *game.State, error) {
	sess, done, err := a.open()
	if err != nil {
		return game.Result{}, nil, err
	}
	defer done()
	res, err := sess.Apply(action)
	if err != nil {
		return res, nil, err
	}
	if err := a.home.SaveSnapshot(sess.Snapshot()); err != nil {
		return res, nil, fmt.Errorf("save game: %w", err)
	}
	return res, sess.State(), nil
}

// announce prints the outcome of a simple action.
func announce(res game.Result, ok, notApplied string) {
	if res.Applied {
		printSuccess(ok)
		return
	}
	printWarn("Not applied: " + notApplied)
}

func newNewCmd(a *app) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new game at age 18",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []game.SessionOption{game.WithLogger(a.log)}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, game.WithSeed(seed))
			}
			if _, err := a.home.LoadSnapshot(); err == nil {
				printWarn("Replacing the saved game.")
			}
			sess := game.NewSession(opts...)
			if err := a.home.SaveSnapshot(sess.Snapshot()); err != nil {
				return err
			}
			printSuccess("New game started.")
			renderStatus(sess.State())
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for offers and events")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show your finances",
		Aliases: []string{"dash"},
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.home.LoadSnapshot()
			if err != nil {
				return err
			}
			renderStatus(snap.State)
			return nil
		},
	}
}

func newMonthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "month [count]",
		Short: "Advance one or more months",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid month count %q", args[0])
				}
				count = n
			}
			sess, done, err := a.open()
			if err != nil {
				return err
			}
			defer done()
			wasFI := sess.State().AchievedFI
			for i := 0; i < count; i++ {
				res, err := sess.Apply(game.Action{Kind: game.ActAdvanceMonth})
				if err != nil {
					return err
				}
				if !res.Applied {
					printWarn("The game is over. Start again with `fs new` or `fs reset`.")
					break
				}
				renderRecord(*res.Record)
			}
			if err := a.home.SaveSnapshot(sess.Snapshot()); err != nil {
				return err
			}
			st := sess.State()
			if st.AchievedFI && !wasFI {
				success.Printf("Financial independence reached at %s!\n", game.FormatAge(st.AgeMonths))
			}
			fmt.Printf("Cash now %s\n", colorizeMoney(st.Cash))
			return nil
		},
	}
}

func newJobCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "job [title]",
		Short: "Take a job from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.home.LoadSnapshot()
			if err != nil {
				return err
			}
			jobs := a.catalog.JobsFor(snap.State.Degree)
			var job game.JobOffer
			if len(args) > 0 {
				title := strings.Join(args, " ")
				found, ok := a.catalog.FindJob(title)
				if !ok {
					return fmt.Errorf("unknown job %q", title)
				}
				job = found
			} else {
				accent.Println("Open positions")
				for i, j := range jobs {
					fmt.Printf("  %2d. %-28s %s\n", i+1, j.Title, colorizeMoney(j.MonthlySalary))
				}
				idx, err := promptIndex("Job", len(jobs))
				if err != nil {
					return err
				}
				job = jobs[idx]
			}
			if job.MinDegree.Rank() > snap.State.Degree.Rank() {
				return fmt.Errorf("%s needs a %s degree", job.Title, job.MinDegree)
			}
			res, _, err := a.act(game.Action{Kind: game.ActStartJob, Title: job.Title, Amount: job.MonthlySalary})
			if err != nil {
				return err
			}
			announce(res, "Hired as "+job.Title+".", "job search is blocked after a job loss.")
			return nil
		},
	}
}

func newStudyCmd(a *app) *cobra.Command {
	var level string
	cmd := &cobra.Command{
		Use:   "study [field]",
		Short: "Enroll in a study program",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.home.LoadSnapshot()
			if err != nil {
				return err
			}
			var prog game.StudyProgram
			if len(args) > 0 {
				lvl, ok := game.ParseDegree(level)
				if !ok || lvl == game.DegreeNone {
					return fmt.Errorf("invalid --level %q", level)
				}
				field := strings.Join(args, " ")
				found, ok := a.catalog.FindStudy(field, lvl)
				if !ok {
					return fmt.Errorf("no %s program in %q", lvl, field)
				}
				if lvl.Rank() <= snap.State.Degree.Rank() {
					return fmt.Errorf("you already hold a %s degree", snap.State.Degree)
				}
				prog = found
			} else {
				progs := a.catalog.StudiesFor(snap.State.Degree)
				if len(progs) == 0 {
					printInfo("No further study programs available.")
					return nil
				}
				accent.Println("Programs")
				for i, p := range progs {
					fmt.Printf("  %2d. %-9s %-26s %dy  %s/yr\n", i+1, p.Level, p.Field, p.Years, colorizeMoney(p.AnnualTuition))
				}
				idx, err := promptIndex("Program", len(progs))
				if err != nil {
					return err
				}
				prog = progs[idx]
			}
			res, _, err := a.act(game.Action{
				Kind:   game.ActStartStudy,
				Field:  prog.Field,
				Level:  string(prog.Level),
				Years:  prog.Years,
				Amount: prog.AnnualTuition,
			})
			if err != nil {
				return err
			}
			announce(res, fmt.Sprintf("Enrolled in %s %s.", prog.Level, prog.Field), "only a level above your degree can be studied.")
			return nil
		},
	}
	cmd.Flags().StringVar(&level, "level", string(game.DegreeBachelor), "degree level: bachelor, master or phd")
	return cmd
}

func newSideIncomeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "side-income <amount>",
		Short: "Set a monthly side income while studying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[0])
			if err != nil {
				return err
			}
			res, _, err := a.act(game.Action{Kind: game.ActSetSideIncome, Amount: amount})
			if err != nil {
				return err
			}
			announce(res, "Side income updated.", "side income only applies while studying.")
			return nil
		},
	}
}

func newLiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "live home|rent [size]",
		Short: "Move back home or rent a place",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch strings.ToLower(args[0]) {
			case "home":
				res, _, err := a.act(game.Action{Kind: game.ActChooseLiving, Mode: string(game.LivingHome)})
				if err != nil {
					return err
				}
				announce(res, "Moved back in with your parents.", "could not move.")
				return nil
			case "rent":
				var tier game.RentTier
				if len(args) > 1 {
					label := strings.Join(args[1:], " ")
					found, ok := a.catalog.FindRent(label)
					if !ok {
						return fmt.Errorf("unknown apartment size %q", label)
					}
					tier = found
				} else {
					for i, r := range a.catalog.Rents {
						fmt.Printf("  %2d. %-20s %s/mo\n", i+1, r.SizeLabel, colorizeMoney(r.MonthlyRent))
					}
					idx, err := promptIndex("Apartment", len(a.catalog.Rents))
					if err != nil {
						return err
					}
					tier = a.catalog.Rents[idx]
				}
				res, _, err := a.act(game.Action{
					Kind:      game.ActChooseLiving,
					Mode:      string(game.LivingRented),
					SizeLabel: tier.SizeLabel,
					Amount:    tier.MonthlyRent,
				})
				if err != nil {
					return err
				}
				announce(res, "Renting a "+tier.SizeLabel+".", "could not rent.")
				return nil
			default:
				return fmt.Errorf("unknown living option %q (use home or rent)", args[0])
			}
		},
	}
}

func newInvestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "invest <etf|bond|real_estate> <amount>",
		Short: "Invest cash in a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[1])
			if err != nil {
				return err
			}
			res, st, err := a.act(game.Action{Kind: game.ActInvest, Product: args[0], Amount: amount})
			if err != nil {
				return err
			}
			if res.Applied {
				fmt.Printf("Passive income now %s/mo\n", colorizeMoney(st.PassiveIncome()))
			}
			announce(res, "Investment placed.", "unknown product or not enough cash.")
			return nil
		},
	}
}

func newHouseCmd(a *app) *cobra.Command {
	house := &cobra.Command{
		Use:   "house",
		Short: "Buy a home",
	}
	house.AddCommand(&cobra.Command{
		Use:   "cash <price>",
		Short: "Buy a home outright",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseAmount("price", args[0])
			if err != nil {
				return err
			}
			res, _, err := a.act(game.Action{Kind: game.ActBuyHouseCash, Amount: price})
			if err != nil {
				return err
			}
			announce(res, "You own your home.", "not enough cash.")
			return nil
		},
	})

	var rate float64
	var years int
	mortgage := &cobra.Command{
		Use:   "mortgage <price>",
		Short: "Buy a home with a mortgage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseAmount("price", args[0])
			if err != nil {
				return err
			}
			snap, err := a.home.LoadSnapshot()
			if err != nil {
				return err
			}
			limit := snap.State.MaxMortgagePrincipal()
			res, _, err := a.act(game.Action{Kind: game.ActBuyHouseMortgage, Amount: price, Rate: rate, Years: years})
			if err != nil {
				return err
			}
			announce(res, "Mortgage approved.", "the bank lends at most "+colorizeMoney(limit)+" on your current cash flow.")
			return nil
		},
	}
	mortgage.Flags().Float64Var(&rate, "rate", 0.04, "annual interest rate, e.g. 0.04")
	mortgage.Flags().IntVar(&years, "years", 25, "term in years")
	house.AddCommand(mortgage)
	return house
}

func newLoanCmd(a *app) *cobra.Command {
	var rate float64
	var years int
	cmd := &cobra.Command{
		Use:   "loan <amount>",
		Short: "Take a personal loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[0])
			if err != nil {
				return err
			}
			res, _, err := a.act(game.Action{Kind: game.ActTakePersonalLoan, Amount: amount, Rate: rate, Years: years})
			if err != nil {
				return err
			}
			announce(res, "Loan paid out.", "invalid loan terms.")
			return nil
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", 0.08, "annual interest rate, e.g. 0.08")
	cmd.Flags().IntVar(&years, "years", 5, "term in years")
	return cmd
}

func newCarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "car <tier>",
		Short: "Pick a car tier (none, used, compact, sedan, luxury)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, ok := a.catalog.FindCar(game.CarTier(strings.ToLower(args[0])))
			if !ok {
				return fmt.Errorf("unknown car tier %q", args[0])
			}
			res, _, err := a.act(game.Action{Kind: game.ActSetCar, Tier: string(opt.Tier), Amount: opt.MonthlyCost})
			if err != nil {
				return err
			}
			announce(res, "Car set to "+opt.Label+".", "could not change car.")
			return nil
		},
	}
}

func newOfferCmd(a *app) *cobra.Command {
	offer := &cobra.Command{
		Use:   "offer",
		Short: "Lifestyle offers",
	}
	offer.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show pending offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.home.LoadSnapshot()
			if err != nil {
				return err
			}
			if len(snap.State.PendingOffers) == 0 {
				printInfo("No pending offers.")
				return nil
			}
			renderOffers(snap.State.PendingOffers)
			return nil
		},
	})
	offer.AddCommand(&cobra.Command{
		Use:   "trigger",
		Short: "Draw a random lifestyle offer",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.act(game.Action{Kind: game.ActTriggerOffer})
			if err != nil {
				return err
			}
			if res.Offer == nil {
				printWarn("No offer drawn.")
				return nil
			}
			renderOffers([]game.Offer{*res.Offer})
			return nil
		},
	})
	for _, verb := range []struct {
		use  string
		kind game.ActionKind
		ok   string
	}{
		{use: "accept", kind: game.ActAcceptOffer, ok: "Offer accepted."},
		{use: "decline", kind: game.ActDeclineOffer, ok: "Offer declined."},
	} {
		offer.AddCommand(&cobra.Command{
			Use:   verb.use + " <id>",
			Short: strings.ToUpper(verb.use[:1]) + verb.use[1:] + " a pending offer",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, _, err := a.act(game.Action{Kind: verb.kind, ID: strings.TrimSpace(args[0])})
				if err != nil {
					return err
				}
				announce(res, verb.ok, "no pending offer with that id.")
				return nil
			},
		})
	}
	return offer
}

func newEventCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "event",
		Short: "Roll a random life event",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, st, err := a.act(game.Action{Kind: game.ActRandomEvent})
			if err != nil {
				return err
			}
			switch res.Event {
			case game.EventRentIncrease:
				if res.Effective {
					printWarn("Your landlord raised the rent to " + report.Money(st.Living.MonthlyRent) + ".")
				} else {
					printInfo("Rent increase letter arrived, but you are not renting.")
				}
			case game.EventJobLoss:
				if res.Effective {
					printError(fmt.Sprintf("You lost your job. Job search blocked for %d months.", st.JobSearchCooldownMonths))
				} else {
					printInfo(fmt.Sprintf("Layoffs at work, but you had no job to lose. Job search blocked for %d months.", st.JobSearchCooldownMonths))
				}
			case game.EventPromotion:
				if res.Effective && st.Career != nil {
					printSuccess("Promotion! Salary is now " + report.Money(st.Career.MonthlySalary) + ".")
				} else {
					printInfo("A promotion round passed you by: no job.")
				}
			default:
				printInfo("Nothing happened.")
			}
			return nil
		},
	}
}

func newFamilyCmd(a *app) *cobra.Command {
	family := &cobra.Command{
		Use:   "family",
		Short: "Family decisions",
	}
	family.AddCommand(&cobra.Command{
		Use:   "marry",
		Short: "Get married",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.act(game.Action{Kind: game.ActMarry})
			if err != nil {
				return err
			}
			announce(res, "Congratulations on your wedding!", "could not marry.")
			return nil
		},
	})
	family.AddCommand(&cobra.Command{
		Use:   "child",
		Short: "Have a child",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := a.act(game.Action{Kind: game.ActAddChild})
			if err != nil {
				return err
			}
			announce(res, "Welcome to the family!", "could not add a child.")
			return nil
		},
	})
	return family
}

func newRetireCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retire",
		Short: "Retire once financially independent",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, st, err := a.act(game.Action{Kind: game.ActRetire})
			if err != nil {
				return err
			}
			if !res.Applied {
				printWarn("Not yet: passive income must cover your expenses first.")
				return nil
			}
			success.Printf("Retired at %s with %s passive income per month.\n", game.FormatAge(st.AgeMonths), report.Money(st.PassiveIncome()))
			printInfo("Submit with `fs leaderboard submit <name>`.")
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restart the saved game from age 18",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := a.act(game.Action{Kind: game.ActReset}); err != nil {
				if errors.Is(err, cl.ErrNoGame) {
					printInfo("Nothing to reset.")
					return nil
				}
				return err
			}
			printSuccess("Game reset.")
			return nil
		},
	}
}

func newCatalogCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List jobs, studies, housing, cars and products",
		RunE: func(cmd *cobra.Command, args []string) error {
			degree := game.DegreeNone
			if snap, err := a.home.LoadSnapshot(); err == nil {
				degree = snap.State.Degree
			}
			renderCatalog(a.catalog, degree)
			return nil
		},
	}
}
