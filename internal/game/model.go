package game

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

const (
	StartAgeMonths = 18 * 12
	AdultAgeMonths = 18 * 12

	// Parents start charging rent once the player turns 21.
	ParentRentAgeMonths     = 21 * 12
	ParentRentBase          = 500.0
	ParentRentMonthlyGrowth = 50.0

	SpouseMonthlyCost = 300.0
	ChildMonthlyCost  = 250.0

	MortgageCashflowMultiple = 300.0

	JobLossCooldownMonths = 3
	RentIncreaseFactor    = 1.15
	PromotionFactor       = 1.10
)

var (
	ErrInvalidLoanTerms = errors.New("loan terms must have years > 0 and non-negative principal and rate")
	ErrUnknownAction    = errors.New("unknown action")
	ErrInvalidAction    = errors.New("invalid action parameters")
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotRetired       = errors.New("financial independence not reached")
	ErrAlreadySubmitted = errors.New("run already submitted to leaderboard")
	ErrInvalidName      = errors.New("player name must be 1-40 printable characters")
)

var playerNameRE = regexp.MustCompile(`^[\p{L}\p{N} _.\-']{1,40}$`)

func ValidatePlayerName(name string) error {
	if !playerNameRE.MatchString(strings.TrimSpace(name)) {
		return ErrInvalidName
	}
	return nil
}

// Degree is ordered: none < bachelor < master < phd.
type Degree string

const (
	DegreeNone     Degree = "none"
	DegreeBachelor Degree = "bachelor"
	DegreeMaster   Degree = "master"
	DegreePhD      Degree = "phd"
)

func (d Degree) Rank() int {
	switch d {
	case DegreeBachelor:
		return 1
	case DegreeMaster:
		return 2
	case DegreePhD:
		return 3
	default:
		return 0
	}
}

func ParseDegree(s string) (Degree, bool) {
	switch d := Degree(strings.ToLower(strings.TrimSpace(s))); d {
	case DegreeNone, DegreeBachelor, DegreeMaster, DegreePhD:
		return d, true
	}
	return DegreeNone, false
}

type LivingMode string

const (
	LivingHome   LivingMode = "home"
	LivingRented LivingMode = "rented"
	LivingOwned  LivingMode = "owned"
)

func ParseLivingMode(s string) (LivingMode, bool) {
	switch m := LivingMode(strings.ToLower(strings.TrimSpace(s))); m {
	case LivingHome, LivingRented, LivingOwned:
		return m, true
	}
	return "", false
}

type LoanKind string

const (
	LoanStudent  LoanKind = "student"
	LoanMortgage LoanKind = "mortgage"
	LoanPersonal LoanKind = "personal"
)

type InvestmentKind string

const (
	InvestETF        InvestmentKind = "etf"
	InvestBond       InvestmentKind = "bond"
	InvestRealEstate InvestmentKind = "real_estate"
	InvestBusiness   InvestmentKind = "business"
)

type CarTier string

const (
	CarNone    CarTier = "none"
	CarUsed    CarTier = "used"
	CarCompact CarTier = "compact"
	CarSedan   CarTier = "sedan"
	CarLuxury  CarTier = "luxury"
)

type OfferKind string

const (
	OfferUpgradeCar   OfferKind = "upgrade_car"
	OfferUpgradeHouse OfferKind = "upgrade_house"
	OfferBuyClothes   OfferKind = "buy_clothes"
	OfferVacation     OfferKind = "vacation"
)

// FormatAge renders months as "25y 3m".
func FormatAge(months int) string {
	return fmt.Sprintf("%dy %dm", months/12, months%12)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
