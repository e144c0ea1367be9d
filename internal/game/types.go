package game

type State struct {
	AgeMonths                  int           `json:"age_months"`
	Cash                       float64       `json:"cash"`
	Degree                     Degree        `json:"degree"`
	Career                     *Career       `json:"career,omitempty"`
	Studying                   bool          `json:"studying"`
	Study                      *Study        `json:"study,omitempty"`
	Living                     Living        `json:"living"`
	Dependents                 Dependents    `json:"dependents"`
	Loans                      []Loan        `json:"loans"`
	Investments                []Investment  `json:"investments"`
	MonthHistory               []MonthRecord `json:"month_history"`
	GameOver                   bool          `json:"game_over"`
	AchievedFI                 bool          `json:"achieved_fi"`
	LeaderboardSubmitted       bool          `json:"leaderboard_submitted"`
	LifestyleExtrasMonthly     float64       `json:"lifestyle_extras_monthly"`
	PendingOffers              []Offer       `json:"pending_offers"`
	JobSearchCooldownMonths    int           `json:"job_search_cooldown_months"`
	Car                        *Car          `json:"car,omitempty"`
	PendingInvestmentThisMonth float64       `json:"pending_investment_this_month"`
}

type Career struct {
	Title         string  `json:"title"`
	MonthlySalary float64 `json:"monthly_salary"`
}

type Study struct {
	Field           string  `json:"field"`
	Level           Degree  `json:"level"`
	RemainingMonths int     `json:"remaining_months"`
	AnnualTuition   float64 `json:"annual_tuition"`
	SideIncome      float64 `json:"side_income"`
}

type Living struct {
	Mode            LivingMode `json:"mode"`
	MonthlyRent     float64    `json:"monthly_rent"`
	MortgagePayment float64    `json:"mortgage_payment"`
	SizeLabel       string     `json:"size_label,omitempty"`
}

type Dependents struct {
	Spouse   bool    `json:"spouse"`
	Children []Child `json:"children"`
}

type Child struct {
	AgeMonths int `json:"age_months"`
}

type Loan struct {
	Kind           LoanKind `json:"kind"`
	Principal      float64  `json:"principal"`
	RateAPR        float64  `json:"rate_apr"`
	MonthlyPayment float64  `json:"monthly_payment"`
}

type Investment struct {
	Kind         InvestmentKind `json:"kind"`
	Principal    float64        `json:"principal"`
	MonthlyYield float64        `json:"monthly_yield"`
}

type Budget struct {
	Income        float64 `json:"income"`
	PassiveIncome float64 `json:"passive_income"`
	Expenses      float64 `json:"expenses"`
	Investments   float64 `json:"investments"`
	Liabilities   float64 `json:"liabilities"`
}

// Net is income minus expenses for the month.
func (b Budget) Net() float64 {
	return b.Income - b.Expenses
}

type MonthRecord struct {
	MonthIndex int      `json:"month_index"`
	Budget     Budget   `json:"budget"`
	Notes      []string `json:"notes,omitempty"`
}

type Offer struct {
	ID          string    `json:"id"`
	Kind        OfferKind `json:"kind"`
	Description string    `json:"description"`
	CostMonthly float64   `json:"cost_monthly,omitempty"`
	OneTimeCost float64   `json:"one_time_cost,omitempty"`
}

type Car struct {
	Tier        CarTier `json:"tier"`
	MonthlyCost float64 `json:"monthly_cost"`
}

// Summary is the read-only projection shown next to the state by clients.
type Summary struct {
	Age               string  `json:"age"`
	ActiveIncome      float64 `json:"active_income"`
	PassiveIncome     float64 `json:"passive_income"`
	ProjectedExpenses float64 `json:"projected_expenses"`
	ProjectedNet      float64 `json:"projected_net"`
	JobSearchBlocked  bool    `json:"job_search_blocked"`
}

type LeaderboardSubmission struct {
	PlayerName                string  `json:"playerName"`
	RetirementAgeMonths       int64   `json:"retirementAgeMonths"`
	PassiveIncomeAtRetirement float64 `json:"passiveIncomeAtRetirement"`
}
