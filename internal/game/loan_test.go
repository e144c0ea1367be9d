package game

import (
	"errors"
	"math"
	"testing"
)

func TestMonthlyPaymentZeroRate(t *testing.T) {
	tests := []struct {
		principal float64
		years     int
	}{
		{principal: 12_000, years: 1},
		{principal: 150_000, years: 25},
		{principal: 0, years: 3},
		{principal: 999.99, years: 7},
	}
	for _, tc := range tests {
		got, err := MonthlyPayment(tc.principal, 0, tc.years)
		if err != nil {
			t.Fatalf("principal=%v years=%d: unexpected error: %v", tc.principal, tc.years, err)
		}
		want := tc.principal / float64(tc.years*12)
		if got != want {
			t.Fatalf("principal=%v years=%d got=%v want=%v", tc.principal, tc.years, got, want)
		}
	}
}

func TestMonthlyPaymentMortgageClosedForm(t *testing.T) {
	got, err := MonthlyPayment(150_000, 0.04, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := 0.04 / 12
	want := 150_000 * r / (1 - math.Pow(1+r, -300))
	if math.Abs(got-want) > 0.005 {
		t.Fatalf("got %.4f want %.4f", got, want)
	}
	if math.Abs(got-791.76) > 0.005 {
		t.Fatalf("got %.4f want about 791.76", got)
	}
}

func TestMonthlyPaymentExceedsPrincipalAndFallsWithTerm(t *testing.T) {
	for _, rate := range []float64{0.001, 0.04, 0.08, 0.25} {
		prev := math.Inf(1)
		for years := 1; years <= 30; years++ {
			p, err := MonthlyPayment(10_000, rate, years)
			if err != nil {
				t.Fatalf("rate=%v years=%d: %v", rate, years, err)
			}
			if p*float64(years*12) <= 10_000 {
				t.Fatalf("rate=%v years=%d: total %v does not exceed principal", rate, years, p*float64(years*12))
			}
			if p >= prev {
				t.Fatalf("rate=%v years=%d: payment %v not below %v", rate, years, p, prev)
			}
			prev = p
		}
	}
}

func TestMonthlyPaymentRejectsBadTerms(t *testing.T) {
	bad := []struct {
		principal, rate float64
		years           int
	}{
		{principal: 1000, rate: 0.05, years: 0},
		{principal: 1000, rate: 0.05, years: -2},
		{principal: -1, rate: 0.05, years: 5},
		{principal: 1000, rate: -0.01, years: 5},
		{principal: math.NaN(), rate: 0.05, years: 5},
	}
	for _, tc := range bad {
		if _, err := MonthlyPayment(tc.principal, tc.rate, tc.years); !errors.Is(err, ErrInvalidLoanTerms) {
			t.Fatalf("%+v: expected ErrInvalidLoanTerms, got %v", tc, err)
		}
	}
}

func TestMonthlyPaymentTinyRateIsStable(t *testing.T) {
	p, err := MonthlyPayment(12_000, 1e-12, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || math.Abs(p-100) > 0.5 {
		t.Fatalf("unstable payment for tiny rate: %v", p)
	}
}
