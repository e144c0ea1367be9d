package game

import (
	"fmt"
	"strings"
)

type ActionKind string

const (
	ActStartJob         ActionKind = "start_job"
	ActStartStudy       ActionKind = "start_study"
	ActSetSideIncome    ActionKind = "set_side_income"
	ActChooseLiving     ActionKind = "choose_living"
	ActInvest           ActionKind = "invest"
	ActBuyHouseCash     ActionKind = "buy_house_cash"
	ActBuyHouseMortgage ActionKind = "buy_house_mortgage"
	ActTakePersonalLoan ActionKind = "take_personal_loan"
	ActTriggerOffer     ActionKind = "trigger_offer"
	ActAcceptOffer      ActionKind = "accept_offer"
	ActDeclineOffer     ActionKind = "decline_offer"
	ActRandomEvent      ActionKind = "random_event"
	ActAddChild         ActionKind = "add_child"
	ActMarry            ActionKind = "marry"
	ActSetCar           ActionKind = "set_car"
	ActAdvanceMonth     ActionKind = "advance_month"
	ActRetire           ActionKind = "retire"
	ActReset            ActionKind = "reset"
)

// Action is one player command. Only the fields its Kind reads are used.
type Action struct {
	Kind      ActionKind `json:"kind"`
	Title     string     `json:"title,omitempty"`
	Field     string     `json:"field,omitempty"`
	Level     string     `json:"level,omitempty"`
	Mode      string     `json:"mode,omitempty"`
	SizeLabel string     `json:"size_label,omitempty"`
	Tier      string     `json:"tier,omitempty"`
	Product   string     `json:"product,omitempty"`
	ID        string     `json:"id,omitempty"`
	Amount    float64    `json:"amount,omitempty"`
	Rate      float64    `json:"rate,omitempty"`
	Years     int        `json:"years,omitempty"`
}

type Result struct {
	Applied bool         `json:"applied"`
	Record  *MonthRecord `json:"record,omitempty"`
	Offer   *Offer       `json:"offer,omitempty"`
	Event   EventKind    `json:"event,omitempty"`
	// Effective is set for events that changed rent or career. For events
	// Applied only says the note was logged.
	Effective bool `json:"effective,omitempty"`
}

// apply routes a to its handler. Malformed enum values are rejected with an
// error; failed preconditions come back as Applied=false.
func (s *State) apply(a Action, rng Rand) (Result, error) {
	var res Result
	switch ActionKind(strings.ToLower(strings.TrimSpace(string(a.Kind)))) {
	case ActStartJob:
		res.Applied = s.StartJob(a.Title, a.Amount)
	case ActStartStudy:
		level, ok := ParseDegree(a.Level)
		if !ok || level == DegreeNone {
			return res, fmt.Errorf("%w: level %q", ErrInvalidAction, a.Level)
		}
		res.Applied = s.StartStudy(a.Field, level, a.Years, a.Amount)
	case ActSetSideIncome:
		res.Applied = s.SetSideIncome(a.Amount)
	case ActChooseLiving:
		mode, ok := ParseLivingMode(a.Mode)
		if !ok {
			return res, fmt.Errorf("%w: mode %q", ErrInvalidAction, a.Mode)
		}
		res.Applied = s.ChooseLiving(mode, a.Amount, a.SizeLabel)
	case ActInvest:
		res.Applied = s.Invest(InvestmentKind(strings.ToLower(strings.TrimSpace(a.Product))), a.Amount)
	case ActBuyHouseCash:
		res.Applied = s.BuyHouseCash(a.Amount)
	case ActBuyHouseMortgage:
		res.Applied = s.BuyHouseMortgage(a.Amount, a.Rate, a.Years)
	case ActTakePersonalLoan:
		res.Applied = s.TakePersonalLoan(a.Amount, a.Rate, a.Years)
	case ActTriggerOffer:
		o, ok := s.TriggerOffer(rng)
		res.Applied = ok
		if ok {
			res.Offer = &o
		}
	case ActAcceptOffer:
		res.Applied = s.AcceptOffer(a.ID)
	case ActDeclineOffer:
		res.Applied = s.DeclineOffer(a.ID)
	case ActRandomEvent:
		res.Event, res.Effective = s.RandomEvent(rng)
		res.Applied = res.Event != ""
	case ActAddChild:
		res.Applied = s.AddChild()
	case ActMarry:
		res.Applied = s.Marry()
	case ActSetCar:
		res.Applied = s.SetCar(CarTier(strings.ToLower(strings.TrimSpace(a.Tier))), a.Amount)
	case ActAdvanceMonth:
		rec, ok := s.AdvanceMonth()
		res.Applied = ok
		if ok {
			res.Record = &rec
		}
	case ActRetire:
		res.Applied = s.Retire()
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownAction, a.Kind)
	}
	return res, nil
}
