package game

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fixed monthly living costs every player pays.
const (
	FoodMonthly      = 250.0
	PhoneMonthly     = 30.0
	ClothesMonthly   = 50.0
	TransportMonthly = 120.0

	BaseExpensesMonthly = FoodMonthly + PhoneMonthly + ClothesMonthly + TransportMonthly
)

type JobOffer struct {
	Title         string  `yaml:"title" json:"title"`
	MonthlySalary float64 `yaml:"monthly_salary" json:"monthly_salary"`
	// MinDegree hides the job until the player holds at least this degree.
	MinDegree Degree `yaml:"min_degree,omitempty" json:"min_degree,omitempty"`
}

type StudyProgram struct {
	Field                 string  `yaml:"field" json:"field"`
	Level                 Degree  `yaml:"level" json:"level"`
	Years                 int     `yaml:"years" json:"years"`
	AnnualTuition         float64 `yaml:"annual_tuition" json:"annual_tuition"`
	ExpectedMonthlySalary float64 `yaml:"expected_monthly_salary" json:"expected_monthly_salary"`
}

type RentTier struct {
	SizeLabel   string  `yaml:"size_label" json:"size_label"`
	MonthlyRent float64 `yaml:"monthly_rent" json:"monthly_rent"`
}

type CarOption struct {
	Tier        CarTier `yaml:"tier" json:"tier"`
	Label       string  `yaml:"label" json:"label"`
	MonthlyCost float64 `yaml:"monthly_cost" json:"monthly_cost"`
}

type Product struct {
	Kind             InvestmentKind `json:"kind"`
	Name             string         `json:"name"`
	MonthlyYieldRate float64        `json:"monthly_yield_rate"`
}

// Catalog is the menu a client offers the player. Formula inputs (products,
// offers, base expenses) are fixed and not part of the override file.
type Catalog struct {
	Jobs     []JobOffer     `yaml:"jobs" json:"jobs"`
	Studies  []StudyProgram `yaml:"studies" json:"studies"`
	Rents    []RentTier     `yaml:"rents" json:"rents"`
	Cars     []CarOption    `yaml:"cars" json:"cars"`
	Products []Product      `yaml:"-" json:"products"`
}

var products = []Product{
	{Kind: InvestETF, Name: "Global Stock ETF", MonthlyYieldRate: 0.004},
	{Kind: InvestBond, Name: "Bond Fund", MonthlyYieldRate: 0.002},
	{Kind: InvestRealEstate, Name: "REIT", MonthlyYieldRate: 0.003},
}

func productRate(kind InvestmentKind) (float64, bool) {
	for _, p := range products {
		if p.Kind == kind {
			return p.MonthlyYieldRate, true
		}
	}
	return 0, false
}

type offerTemplate struct {
	Kind        OfferKind
	Description string
	CostMonthly float64
	OneTimeCost float64
}

var offerTemplates = []offerTemplate{
	{Kind: OfferUpgradeCar, Description: "Upgrade your car - nicer ride!", CostMonthly: 250},
	{Kind: OfferUpgradeHouse, Description: "Move to a bigger apartment", CostMonthly: 400},
	{Kind: OfferBuyClothes, Description: "Designer clothing subscription", CostMonthly: 120},
	{Kind: OfferVacation, Description: "Take a luxury vacation", OneTimeCost: 2000},
}

func DefaultCatalog() Catalog {
	return Catalog{
		Jobs: []JobOffer{
			{Title: "Retail Associate", MonthlySalary: 1800},
			{Title: "Barista", MonthlySalary: 1700},
			{Title: "Administrative Assistant", MonthlySalary: 2400},
			{Title: "Apprentice Electrician", MonthlySalary: 2600},
			{Title: "Delivery Driver", MonthlySalary: 2200},
			{Title: "Warehouse Worker", MonthlySalary: 2300},
			{Title: "Entry-level in field", MonthlySalary: 3500, MinDegree: DegreeBachelor},
			{Title: "Advanced role", MonthlySalary: 5500, MinDegree: DegreeMaster},
			{Title: "Senior Researcher", MonthlySalary: 7000, MinDegree: DegreePhD},
			{Title: "Quant Analyst", MonthlySalary: 7500, MinDegree: DegreePhD},
			{Title: "R&D Manager", MonthlySalary: 8000, MinDegree: DegreePhD},
		},
		Studies: []StudyProgram{
			{Field: "Business Administration", Level: DegreeBachelor, Years: 3, AnnualTuition: 4000, ExpectedMonthlySalary: 3500},
			{Field: "Computer Science", Level: DegreeBachelor, Years: 3, AnnualTuition: 5000, ExpectedMonthlySalary: 4200},
			{Field: "Nursing", Level: DegreeBachelor, Years: 3, AnnualTuition: 3500, ExpectedMonthlySalary: 3200},
			{Field: "MBA", Level: DegreeMaster, Years: 2, AnnualTuition: 7000, ExpectedMonthlySalary: 5500},
			{Field: "Data Science", Level: DegreeMaster, Years: 2, AnnualTuition: 7500, ExpectedMonthlySalary: 6000},
			{Field: "Economics", Level: DegreePhD, Years: 3, AnnualTuition: 8000, ExpectedMonthlySalary: 7000},
			{Field: "Computer Science", Level: DegreePhD, Years: 3, AnnualTuition: 9000, ExpectedMonthlySalary: 8000},
		},
		Rents: []RentTier{
			{SizeLabel: "Studio", MonthlyRent: 700},
			{SizeLabel: "1-Bedroom", MonthlyRent: 1000},
			{SizeLabel: "2-Bedroom", MonthlyRent: 1400},
		},
		Cars: []CarOption{
			{Tier: CarNone, Label: "No car", MonthlyCost: 0},
			{Tier: CarUsed, Label: "Used", MonthlyCost: 100},
			{Tier: CarCompact, Label: "Compact", MonthlyCost: 200},
			{Tier: CarSedan, Label: "Sedan", MonthlyCost: 350},
			{Tier: CarLuxury, Label: "Luxury", MonthlyCost: 600},
		},
		Products: append([]Product(nil), products...),
	}
}

// LoadCatalog reads a YAML file and replaces every non-empty section of the
// default catalog with it. An empty path returns the defaults.
func LoadCatalog(path string) (Catalog, error) {
	cat := DefaultCatalog()
	if strings.TrimSpace(path) == "" {
		return cat, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cat, fmt.Errorf("read catalog: %w", err)
	}
	var override Catalog
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return cat, fmt.Errorf("catalog yaml: %w", err)
	}
	if err := override.validate(); err != nil {
		return cat, err
	}
	if len(override.Jobs) > 0 {
		cat.Jobs = override.Jobs
	}
	if len(override.Studies) > 0 {
		cat.Studies = override.Studies
	}
	if len(override.Rents) > 0 {
		cat.Rents = override.Rents
	}
	if len(override.Cars) > 0 {
		cat.Cars = override.Cars
	}
	return cat, nil
}

func (c Catalog) validate() error {
	for _, s := range c.Studies {
		if s.Level.Rank() == 0 {
			return fmt.Errorf("catalog study %q: invalid level %q", s.Field, s.Level)
		}
		if s.Years <= 0 {
			return fmt.Errorf("catalog study %q: years must be > 0", s.Field)
		}
	}
	for _, r := range c.Rents {
		if r.MonthlyRent < 0 {
			return fmt.Errorf("catalog rent %q: negative rent", r.SizeLabel)
		}
	}
	return nil
}

// JobsFor lists the jobs open to a player holding degree d.
func (c Catalog) JobsFor(d Degree) []JobOffer {
	out := make([]JobOffer, 0, len(c.Jobs))
	for _, j := range c.Jobs {
		if j.MinDegree.Rank() <= d.Rank() {
			out = append(out, j)
		}
	}
	return out
}

// StudiesFor lists the programs one level above degree d.
func (c Catalog) StudiesFor(d Degree) []StudyProgram {
	var out []StudyProgram
	for _, s := range c.Studies {
		if s.Level.Rank() == d.Rank()+1 {
			out = append(out, s)
		}
	}
	return out
}

func (c Catalog) FindJob(title string) (JobOffer, bool) {
	for _, j := range c.Jobs {
		if strings.EqualFold(j.Title, strings.TrimSpace(title)) {
			return j, true
		}
	}
	return JobOffer{}, false
}

func (c Catalog) FindStudy(field string, level Degree) (StudyProgram, bool) {
	for _, s := range c.Studies {
		if s.Level == level && strings.EqualFold(s.Field, strings.TrimSpace(field)) {
			return s, true
		}
	}
	return StudyProgram{}, false
}

func (c Catalog) FindRent(label string) (RentTier, bool) {
	for _, r := range c.Rents {
		if strings.EqualFold(r.SizeLabel, strings.TrimSpace(label)) {
			return r, true
		}
	}
	return RentTier{}, false
}

func (c Catalog) FindCar(tier CarTier) (CarOption, bool) {
	for _, o := range c.Cars {
		if o.Tier == tier {
			return o, true
		}
	}
	return CarOption{}, false
}
