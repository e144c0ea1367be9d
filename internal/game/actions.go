package game

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Rand is the random source behind offers and events. *math/rand.Rand
// satisfies it; tests pass a seeded one.
type Rand interface {
	Intn(n int) int
	Read(p []byte) (int, error)
}

// Action handlers report whether they changed the state. A false return is a
// silent no-op: the state is exactly as before the call.

// StartJob is blocked while the job search cooldown runs.
func (s *State) StartJob(title string, monthlySalary float64) bool {
	if s.JobSearchBlocked() || !finite(monthlySalary) {
		return false
	}
	s.Career = &Career{Title: strings.TrimSpace(title), MonthlySalary: monthlySalary}
	s.Studying = false
	s.Study = nil
	return true
}

// StartStudy drops any career and replaces an in-progress study. Only a level
// above the current degree can be studied, so completion never lowers it.
func (s *State) StartStudy(field string, level Degree, years int, annualTuition float64) bool {
	if level.Rank() <= s.Degree.Rank() || years <= 0 || !finite(annualTuition) {
		return false
	}
	s.Studying = true
	s.Study = &Study{
		Field:           strings.TrimSpace(field),
		Level:           level,
		RemainingMonths: years * 12,
		AnnualTuition:   annualTuition,
	}
	s.Career = nil
	return true
}

func (s *State) SetSideIncome(amount float64) bool {
	if s.Study == nil || !finite(amount) {
		return false
	}
	s.Study.SideIncome = amount
	return true
}

// ChooseLiving always clears the living record's mortgage payment. A mortgage
// loan taken earlier stays in Loans and keeps being charged from there.
func (s *State) ChooseLiving(mode LivingMode, monthlyRent float64, sizeLabel string) bool {
	if _, ok := ParseLivingMode(string(mode)); !ok || !finite(monthlyRent) {
		return false
	}
	s.Living = Living{
		Mode:        mode,
		MonthlyRent: monthlyRent,
		SizeLabel:   strings.TrimSpace(sizeLabel),
	}
	return true
}

func (s *State) Invest(kind InvestmentKind, amount float64) bool {
	if !finite(amount) || amount <= 0 || s.Cash < amount {
		return false
	}
	rate, ok := productRate(kind)
	if !ok {
		return false
	}
	s.Cash -= amount
	s.Investments = append(s.Investments, Investment{
		Kind:         kind,
		Principal:    amount,
		MonthlyYield: amount * rate,
	})
	s.PendingInvestmentThisMonth += amount
	return true
}

func (s *State) BuyHouseCash(price float64) bool {
	if !finite(price) || price < 0 || s.Cash < price {
		return false
	}
	s.Cash -= price
	s.Living = Living{Mode: LivingOwned}
	return true
}

// MaxMortgagePrincipal is the affordability ceiling: current income minus base
// costs and rent, times MortgageCashflowMultiple. Other obligations are ignored.
func (s *State) MaxMortgagePrincipal() float64 {
	cashflow := s.ActiveIncome() + s.PassiveIncome() - BaseExpensesMonthly
	if s.Living.Mode == LivingRented {
		cashflow -= s.Living.MonthlyRent
	}
	return math.Max(0, cashflow) * MortgageCashflowMultiple
}

func (s *State) BuyHouseMortgage(price, rateAPR float64, years int) bool {
	if !finite(price) || price <= 0 || price > s.MaxMortgagePrincipal() {
		return false
	}
	payment, err := MonthlyPayment(price, rateAPR, years)
	if err != nil {
		return false
	}
	s.Living = Living{Mode: LivingOwned, MortgagePayment: payment}
	s.appendLoan(LoanMortgage, price, rateAPR, payment)
	return true
}

func (s *State) TakePersonalLoan(amount, rateAPR float64, years int) bool {
	if !finite(amount) || amount <= 0 || years <= 0 {
		return false
	}
	payment, err := MonthlyPayment(amount, rateAPR, years)
	if err != nil {
		return false
	}
	s.Cash += amount
	s.appendLoan(LoanPersonal, amount, rateAPR, payment)
	return true
}

// TriggerOffer draws one lifestyle offer and queues it.
func (s *State) TriggerOffer(rng Rand) (Offer, bool) {
	if rng == nil {
		return Offer{}, false
	}
	t := offerTemplates[rng.Intn(len(offerTemplates))]
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return Offer{}, false
	}
	o := Offer{
		ID:          id.String(),
		Kind:        t.Kind,
		Description: t.Description,
		CostMonthly: t.CostMonthly,
		OneTimeCost: t.OneTimeCost,
	}
	s.PendingOffers = append(s.PendingOffers, o)
	return o, true
}

func (s *State) takeOffer(id string) (Offer, bool) {
	for i, o := range s.PendingOffers {
		if o.ID == id {
			s.PendingOffers = append(s.PendingOffers[:i:i], s.PendingOffers[i+1:]...)
			return o, true
		}
	}
	return Offer{}, false
}

// AcceptOffer books the offer's recurring cost and charges its one-time cost
// right away, even if that takes cash below zero.
func (s *State) AcceptOffer(id string) bool {
	o, ok := s.takeOffer(id)
	if !ok {
		return false
	}
	s.LifestyleExtrasMonthly += o.CostMonthly
	s.Cash -= o.OneTimeCost
	return true
}

func (s *State) DeclineOffer(id string) bool {
	_, ok := s.takeOffer(id)
	return ok
}

type EventKind string

const (
	EventRentIncrease EventKind = "rent_increase"
	EventJobLoss      EventKind = "job_loss"
	EventPromotion    EventKind = "promotion"
)

var eventKinds = []EventKind{EventRentIncrease, EventJobLoss, EventPromotion}

// RandomEvent draws one event and always logs a zero-value note in the
// history. The bool reports whether the event hit anything: a rent increase
// needs a rented home, a job loss or promotion needs a career. The job search
// cooldown starts on every job loss.
func (s *State) RandomEvent(rng Rand) (EventKind, bool) {
	if rng == nil {
		return "", false
	}
	kind := eventKinds[rng.Intn(len(eventKinds))]
	var (
		note      string
		effective bool
	)
	switch kind {
	case EventRentIncrease:
		if s.Living.Mode == LivingRented {
			s.Living.MonthlyRent = math.Round(s.Living.MonthlyRent * RentIncreaseFactor)
			effective = true
		}
		note = "Housing crisis: rent increased"
	case EventJobLoss:
		effective = s.Career != nil
		s.Career = nil
		if s.JobSearchCooldownMonths < JobLossCooldownMonths {
			s.JobSearchCooldownMonths = JobLossCooldownMonths
		}
		note = "You lost your job. Searching for new role..."
	case EventPromotion:
		if s.Career != nil {
			s.Career.MonthlySalary = math.Round(s.Career.MonthlySalary * PromotionFactor)
			effective = true
		}
		note = "Good news: You received a promotion!"
	}
	s.MonthHistory = append(s.MonthHistory, MonthRecord{
		MonthIndex: s.AgeMonths - StartAgeMonths,
		Notes:      []string{note},
	})
	return kind, effective
}

func (s *State) AddChild() bool {
	s.Dependents.Children = append(s.Dependents.Children, Child{})
	return true
}

// Marry does not guard against repeat calls; clients hide the option.
func (s *State) Marry() bool {
	s.Dependents.Spouse = true
	return true
}

func (s *State) SetCar(tier CarTier, monthlyCost float64) bool {
	if !finite(monthlyCost) {
		return false
	}
	s.Car = &Car{Tier: tier, MonthlyCost: monthlyCost}
	return true
}

// Retire ends the run. Only a player who reached FI can retire.
func (s *State) Retire() bool {
	if !s.AchievedFI || s.GameOver {
		return false
	}
	s.GameOver = true
	return true
}

func (s *State) MarkLeaderboardSubmitted() bool {
	if s.LeaderboardSubmitted {
		return false
	}
	s.LeaderboardSubmitted = true
	return true
}

// LeaderboardEntry builds the leaderboard record for this run.
func (s *State) LeaderboardEntry(playerName string) (LeaderboardSubmission, error) {
	if !s.AchievedFI {
		return LeaderboardSubmission{}, ErrNotRetired
	}
	if s.LeaderboardSubmitted {
		return LeaderboardSubmission{}, ErrAlreadySubmitted
	}
	if err := ValidatePlayerName(playerName); err != nil {
		return LeaderboardSubmission{}, err
	}
	return LeaderboardSubmission{
		PlayerName:                strings.TrimSpace(playerName),
		RetirementAgeMonths:       int64(s.AgeMonths),
		PassiveIncomeAtRetirement: s.PassiveIncome(),
	}, nil
}
