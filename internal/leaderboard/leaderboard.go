// Package leaderboard stores runs that reached financial independence and
// ranks them two ways: youngest retirement and highest passive income.
package leaderboard

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	maxNameRunes = 40
)

var (
	ErrInvalidSubmission = errors.New("invalid leaderboard submission")
	ErrUnavailable       = errors.New("leaderboard unavailable")
)

type Submission struct {
	PlayerName                string  `json:"playerName"`
	RetirementAgeMonths       int64   `json:"retirementAgeMonths"`
	PassiveIncomeAtRetirement float64 `json:"passiveIncomeAtRetirement"`
}

type Entry struct {
	ID                        string    `json:"id"`
	PlayerName                string    `json:"playerName"`
	RetirementAgeMonths       int64     `json:"retirementAgeMonths"`
	PassiveIncomeAtRetirement float64   `json:"passiveIncomeAtRetirement"`
	CreatedAt                 time.Time `json:"createdAt"`
}

type Board struct {
	Youngest []Entry `json:"youngest"`
	Richest  []Entry `json:"richest"`
}

type Store interface {
	Submit(ctx context.Context, sub Submission) (Entry, error)
	Top(ctx context.Context, limit int) (Board, error)
	Close() error
}

// Validate trims the name in place and checks the numbers.
func (s *Submission) Validate() error {
	s.PlayerName = strings.TrimSpace(s.PlayerName)
	n := utf8.RuneCountInString(s.PlayerName)
	if n == 0 || n > maxNameRunes {
		return fmt.Errorf("%w: player name must be 1-%d characters", ErrInvalidSubmission, maxNameRunes)
	}
	for _, r := range s.PlayerName {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: player name has control characters", ErrInvalidSubmission)
		}
	}
	if s.RetirementAgeMonths < 0 {
		return fmt.Errorf("%w: negative retirement age", ErrInvalidSubmission)
	}
	p := s.PassiveIncomeAtRetirement
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return fmt.Errorf("%w: passive income must be a non-negative number", ErrInvalidSubmission)
	}
	return nil
}

//go:embed submission.schema.json
var submissionSchemaSrc string

var submissionSchema = jsonschema.MustCompileString("submission.schema.json", submissionSchemaSrc)

// ValidateJSON checks a raw request body against the submission schema and
// decodes it. Unknown fields are ignored and a fractional age is rounded to
// the nearest month.
func ValidateJSON(raw []byte) (Submission, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	if err := submissionSchema.Validate(doc); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	var wire struct {
		PlayerName                string  `json:"playerName"`
		RetirementAgeMonths       float64 `json:"retirementAgeMonths"`
		PassiveIncomeAtRetirement float64 `json:"passiveIncomeAtRetirement"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	if wire.RetirementAgeMonths > math.MaxInt32 {
		return Submission{}, fmt.Errorf("%w: retirement age out of range", ErrInvalidSubmission)
	}
	sub := Submission{
		PlayerName:                wire.PlayerName,
		RetirementAgeMonths:       int64(math.Round(wire.RetirementAgeMonths)),
		PassiveIncomeAtRetirement: wire.PassiveIncomeAtRetirement,
	}
	if err := sub.Validate(); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func youngestLess(a, b Entry) bool {
	if a.RetirementAgeMonths != b.RetirementAgeMonths {
		return a.RetirementAgeMonths < b.RetirementAgeMonths
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func richestLess(a, b Entry) bool {
	if a.PassiveIncomeAtRetirement != b.PassiveIncomeAtRetirement {
		return a.PassiveIncomeAtRetirement > b.PassiveIncomeAtRetirement
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// rank builds a Board from an unsorted set of entries.
func rank(entries []Entry, limit int) Board {
	limit = clampLimit(limit)
	top := func(less func(a, b Entry) bool) []Entry {
		out := append([]Entry(nil), entries...)
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
		if len(out) > limit {
			out = out[:limit]
		}
		if out == nil {
			out = []Entry{}
		}
		return out
	}
	return Board{Youngest: top(youngestLess), Richest: top(richestLess)}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
