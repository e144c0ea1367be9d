package game

// NewState returns the state every run starts from: 18 years old, no cash,
// living with the parents.
func NewState() *State {
	return &State{
		AgeMonths:     StartAgeMonths,
		Degree:        DegreeNone,
		Living:        Living{Mode: LivingHome},
		Dependents:    Dependents{Children: []Child{}},
		Loans:         []Loan{},
		Investments:   []Investment{},
		MonthHistory:  []MonthRecord{},
		PendingOffers: []Offer{},
	}
}

// Reset puts s back into the starting state.
func (s *State) Reset() {
	*s = *NewState()
}

func (s *State) PassiveIncome() float64 {
	var sum float64
	for _, inv := range s.Investments {
		sum += inv.MonthlyYield
	}
	return sum
}

func (s *State) ActiveIncome() float64 {
	var sum float64
	if s.Career != nil {
		sum += s.Career.MonthlySalary
	}
	if s.Studying && s.Study != nil {
		sum += s.Study.SideIncome
	}
	return sum
}

func (s *State) housingExpense() float64 {
	var sum float64
	if s.Living.Mode == LivingRented {
		sum += s.Living.MonthlyRent
	}
	// Only a mortgaged home carries a payment here; ChooseLiving zeroes it.
	sum += s.Living.MortgagePayment
	if s.Living.Mode == LivingHome && s.AgeMonths >= ParentRentAgeMonths {
		sum += ParentRentBase + float64(s.AgeMonths-ParentRentAgeMonths)*ParentRentMonthlyGrowth
	}
	return sum
}

func (s *State) dependentsExpense() float64 {
	var sum float64
	if s.Dependents.Spouse {
		sum += SpouseMonthlyCost
	}
	for _, c := range s.Dependents.Children {
		if c.AgeMonths < AdultAgeMonths {
			sum += ChildMonthlyCost
		}
	}
	return sum
}

func (s *State) tuition() float64 {
	if s.Studying && s.Study != nil {
		return s.Study.AnnualTuition / 12
	}
	return 0
}

func (s *State) carCost() float64 {
	if s.Car == nil {
		return 0
	}
	return s.Car.MonthlyCost
}

// ProjectedBudget computes what the next AdvanceMonth would book, without
// changing anything.
func (s *State) ProjectedBudget() Budget {
	loans := s.LoanPayments()
	passive := s.PassiveIncome()
	expenses := BaseExpensesMonthly +
		s.housingExpense() +
		s.dependentsExpense() +
		loans +
		s.tuition() +
		s.LifestyleExtrasMonthly +
		s.carCost()
	return Budget{
		Income:        s.ActiveIncome() + passive,
		PassiveIncome: passive,
		Expenses:      expenses,
		Investments:   s.PendingInvestmentThisMonth,
		Liabilities:   loans,
	}
}

// AdvanceMonth books one month: cash flow, history, aging, study progress and
// the FI latch. It returns false without touching s once the run is over.
func (s *State) AdvanceMonth() (MonthRecord, bool) {
	if s.GameOver {
		return MonthRecord{}, false
	}

	budget := s.ProjectedBudget()
	s.Cash += budget.Income - budget.Expenses

	rec := MonthRecord{
		MonthIndex: s.AgeMonths - StartAgeMonths + 1,
		Budget:     budget,
	}
	s.MonthHistory = append(s.MonthHistory, rec)
	s.PendingInvestmentThisMonth = 0

	s.AgeMonths++

	if s.Studying && s.Study != nil {
		s.Study.RemainingMonths--
		if s.Study.RemainingMonths <= 0 {
			s.Degree = s.Study.Level
			s.Studying = false
			s.Study = nil
		}
	}

	for i := range s.Dependents.Children {
		s.Dependents.Children[i].AgeMonths++
	}

	if !s.AchievedFI && budget.Expenses > 0 && budget.PassiveIncome >= budget.Expenses {
		s.AchievedFI = true
	}

	if s.JobSearchCooldownMonths > 0 {
		s.JobSearchCooldownMonths--
	}
	return rec, true
}

func (s *State) JobSearchBlocked() bool {
	return s.JobSearchCooldownMonths > 0
}

func (s *State) Summary() Summary {
	b := s.ProjectedBudget()
	return Summary{
		Age:               FormatAge(s.AgeMonths),
		ActiveIncome:      b.Income - b.PassiveIncome,
		PassiveIncome:     b.PassiveIncome,
		ProjectedExpenses: b.Expenses,
		ProjectedNet:      b.Net(),
		JobSearchBlocked:  s.JobSearchBlocked(),
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	out := *s
	if s.Career != nil {
		c := *s.Career
		out.Career = &c
	}
	if s.Study != nil {
		st := *s.Study
		out.Study = &st
	}
	if s.Car != nil {
		c := *s.Car
		out.Car = &c
	}
	out.Dependents.Children = append([]Child{}, s.Dependents.Children...)
	out.Loans = append([]Loan{}, s.Loans...)
	out.Investments = append([]Investment{}, s.Investments...)
	out.PendingOffers = append([]Offer{}, s.PendingOffers...)
	out.MonthHistory = make([]MonthRecord, len(s.MonthHistory))
	for i, r := range s.MonthHistory {
		r.Notes = append([]string(nil), r.Notes...)
		out.MonthHistory[i] = r
	}
	return &out
}
