package game

import "math"

// MonthlyPayment returns the fixed monthly payment that retires principal at
// annualRate over termYears. A zero rate is split evenly over the term.
func MonthlyPayment(principal, annualRate float64, termYears int) (float64, error) {
	if termYears <= 0 || principal < 0 || annualRate < 0 || !finite(principal) || !finite(annualRate) {
		return 0, ErrInvalidLoanTerms
	}
	n := float64(termYears * 12)
	r := annualRate / 12
	if r == 0 {
		return principal / n, nil
	}
	return principal * r / (1 - math.Pow(1+r, -n)), nil
}

func (s *State) LoanPayments() float64 {
	var sum float64
	for _, l := range s.Loans {
		sum += l.MonthlyPayment
	}
	return sum
}

func (s *State) appendLoan(kind LoanKind, principal, rate, payment float64) {
	s.Loans = append(s.Loans, Loan{
		Kind:           kind,
		Principal:      principal,
		RateAPR:        rate,
		MonthlyPayment: payment,
	})
}
