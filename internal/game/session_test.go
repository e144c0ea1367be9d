package game

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

type memJournal struct {
	mu      sync.Mutex
	entries []JournalEntry
	closed  bool
	fail    error
}

func (j *memJournal) Append(e JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.fail != nil {
		return j.fail
	}
	j.entries = append(j.entries, e)
	return nil
}

func (j *memJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionApplyJournalsEveryCommand(t *testing.T) {
	j := &memJournal{}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := NewSession(WithSeed(1), WithJournal(j), WithLogger(quietLogger()), WithClock(func() time.Time { return at }))

	if _, err := s.Apply(Action{Kind: ActStartJob, Title: "Retail Associate", Amount: 1800}); err != nil {
		t.Fatalf("start job: %v", err)
	}
	res, err := s.Apply(Action{Kind: ActAdvanceMonth})
	if err != nil || !res.Applied || res.Record == nil || res.Record.Budget.Net() != 1350 {
		t.Fatalf("advance: res=%+v err=%v", res, err)
	}
	res, err = s.Apply(Action{Kind: ActInvest, Product: "etf", Amount: 9999})
	if err != nil || res.Applied {
		t.Fatalf("invest over cash: res=%+v err=%v", res, err)
	}
	if _, err := s.Apply(Action{Kind: "fly"}); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err=%v want ErrUnknownAction", err)
	}

	if len(j.entries) != 4 {
		t.Fatalf("entries=%d want 4", len(j.entries))
	}
	for i, e := range j.entries {
		if e.Seq != int64(i+1) || e.SessionID != s.ID() || !e.At.Equal(at) {
			t.Fatalf("entry %d=%+v", i, e)
		}
	}
	if j.entries[1].Cash != 1350 || j.entries[1].AgeMonths != 217 {
		t.Fatalf("advance entry=%+v", j.entries[1])
	}
	if j.entries[2].Applied || j.entries[3].Error == "" {
		t.Fatalf("rejected entries=%+v %+v", j.entries[2], j.entries[3])
	}
}

func TestSessionJournalFailureDoesNotFailAction(t *testing.T) {
	s := NewSession(WithJournal(&memJournal{fail: errors.New("disk full")}), WithLogger(quietLogger()))
	res, err := s.Apply(Action{Kind: ActMarry})
	if err != nil || !res.Applied {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestSessionDispatchValidation(t *testing.T) {
	s := NewSession(WithLogger(quietLogger()))
	bad := []Action{
		{Kind: ActStartStudy, Field: "X", Level: "wizard", Years: 3},
		{Kind: ActStartStudy, Field: "X", Level: "none", Years: 3},
		{Kind: ActChooseLiving, Mode: "castle"},
	}
	for _, a := range bad {
		if _, err := s.Apply(a); !errors.Is(err, ErrInvalidAction) {
			t.Fatalf("%+v: err=%v want ErrInvalidAction", a, err)
		}
	}
	res, err := s.Apply(Action{Kind: " Start_Study ", Field: "Nursing", Level: "Bachelor", Years: 3, Amount: 3500})
	if err != nil || !res.Applied {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestSessionResetAndOffers(t *testing.T) {
	s := NewSession(WithSeed(99), WithLogger(quietLogger()))
	res, err := s.Apply(Action{Kind: ActTriggerOffer})
	if err != nil || res.Offer == nil {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	res, err = s.Apply(Action{Kind: ActDeclineOffer, ID: res.Offer.ID})
	if err != nil || !res.Applied {
		t.Fatalf("decline: res=%+v err=%v", res, err)
	}
	res, err = s.Apply(Action{Kind: ActRandomEvent})
	if err != nil || res.Event == "" {
		t.Fatalf("event: res=%+v err=%v", res, err)
	}

	if _, err := s.Apply(Action{Kind: ActReset}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !reflect.DeepEqual(s.State(), NewState()) {
		t.Fatalf("state not reset")
	}
}

func TestSessionSameSeedSameRun(t *testing.T) {
	script := []Action{
		{Kind: ActStartJob, Title: "Barista", Amount: 1700},
		{Kind: ActTriggerOffer},
		{Kind: ActRandomEvent},
		{Kind: ActAdvanceMonth},
		{Kind: ActRandomEvent},
		{Kind: ActTriggerOffer},
		{Kind: ActAdvanceMonth},
	}
	run := func() *State {
		s := NewSession(WithSeed(2024), WithLogger(quietLogger()))
		for _, a := range script {
			if _, err := s.Apply(a); err != nil {
				t.Fatalf("%s: %v", a.Kind, err)
			}
		}
		return s.State()
	}
	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed diverged")
	}
}

func TestSessionSnapshotResume(t *testing.T) {
	s := NewSession(WithSeed(5), WithLogger(quietLogger()))
	s.Apply(Action{Kind: ActStartJob, Title: "Barista", Amount: 1700})
	s.Apply(Action{Kind: ActAdvanceMonth})

	snap := s.Snapshot()
	if snap.Seq != 2 || snap.Seed != 5 || snap.ID != s.ID() {
		t.Fatalf("snapshot=%+v", snap)
	}

	a := NewSession(FromSnapshot(snap), WithLogger(quietLogger()))
	b := NewSession(FromSnapshot(snap), WithLogger(quietLogger()))
	if a.ID() != s.ID() {
		t.Fatalf("id=%s want %s", a.ID(), s.ID())
	}
	ra, _ := a.Apply(Action{Kind: ActTriggerOffer})
	rb, _ := b.Apply(Action{Kind: ActTriggerOffer})
	if ra.Offer == nil || rb.Offer == nil || *ra.Offer != *rb.Offer {
		t.Fatalf("resumed sessions diverged: %+v %+v", ra.Offer, rb.Offer)
	}

	// The snapshot owns its state; later commands do not leak into it.
	s.Apply(Action{Kind: ActAdvanceMonth})
	if snap.State.AgeMonths != 217 {
		t.Fatalf("snapshot mutated: age=%d", snap.State.AgeMonths)
	}
}

func TestSessionLeaderboardFlow(t *testing.T) {
	s := NewSession(WithLogger(quietLogger()))
	if _, err := s.LeaderboardEntry("Ada"); !errors.Is(err, ErrNotRetired) {
		t.Fatalf("err=%v", err)
	}
	snap := s.Snapshot()
	snap.State.Investments = []Investment{{Kind: InvestETF, Principal: 200_000, MonthlyYield: 800}}
	s = NewSession(FromSnapshot(snap), WithLogger(quietLogger()))

	s.Apply(Action{Kind: ActAdvanceMonth})
	res, err := s.Apply(Action{Kind: ActRetire})
	if err != nil || !res.Applied {
		t.Fatalf("retire: res=%+v err=%v", res, err)
	}
	if res, _ := s.Apply(Action{Kind: ActAdvanceMonth}); res.Applied {
		t.Fatalf("advance after retirement applied")
	}
	sub, err := s.LeaderboardEntry("Ada")
	if err != nil || sub.RetirementAgeMonths != 217 || sub.PassiveIncomeAtRetirement != 800 {
		t.Fatalf("sub=%+v err=%v", sub, err)
	}
	s.MarkLeaderboardSubmitted()
	if _, err := s.LeaderboardEntry("Ada"); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("err=%v", err)
	}
}

func TestServiceRegistry(t *testing.T) {
	var opened []*memJournal
	svc := NewService(DefaultCatalog(), func(string) (Journal, error) {
		j := &memJournal{}
		opened = append(opened, j)
		return j, nil
	}, quietLogger())

	seed := int64(11)
	a, err := svc.CreateSession(&seed)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := svc.CreateSession(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.ID() == b.ID() || a.Snapshot().Seed != 11 {
		t.Fatalf("a=%s b=%s", a.ID(), b.ID())
	}

	got, err := svc.Session(a.ID())
	if err != nil || got != a {
		t.Fatalf("lookup: %v", err)
	}
	a.Apply(Action{Kind: ActMarry})
	if len(opened[0].entries) != 1 {
		t.Fatalf("journal not attached")
	}

	if err := svc.EndSession(a.ID()); err != nil {
		t.Fatalf("end: %v", err)
	}
	if !opened[0].closed {
		t.Fatalf("journal not closed")
	}
	if _, err := svc.Session(a.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err=%v", err)
	}
	if err := svc.EndSession(a.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("err=%v", err)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !opened[1].closed {
		t.Fatalf("remaining journal not closed")
	}
}

func TestServiceJournalOpenError(t *testing.T) {
	svc := NewService(DefaultCatalog(), func(string) (Journal, error) {
		return nil, errors.New("read-only fs")
	}, quietLogger())
	if _, err := svc.CreateSession(nil); err == nil {
		t.Fatalf("expected journal error")
	}
}

func TestLoadCatalogOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	body := `
jobs:
  - title: Lifeguard
    monthly_salary: 1900
  - title: Marine Biologist
    monthly_salary: 4100
    min_degree: bachelor
rents:
  - size_label: Loft
    monthly_rent: 1650
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cat.Jobs) != 2 || len(cat.JobsFor(DegreeNone)) != 1 || len(cat.JobsFor(DegreeBachelor)) != 2 {
		t.Fatalf("jobs=%+v", cat.Jobs)
	}
	if r, ok := cat.FindRent("loft"); !ok || r.MonthlyRent != 1650 {
		t.Fatalf("rent=%+v ok=%v", r, ok)
	}
	if len(cat.Studies) != len(DefaultCatalog().Studies) || len(cat.Products) != 3 {
		t.Fatalf("defaults not kept: studies=%d products=%d", len(cat.Studies), len(cat.Products))
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("studies:\n  - field: Alchemy\n    level: none\n    years: 2\n"), 0o600)
	if _, err := LoadCatalog(bad); err == nil {
		t.Fatalf("expected invalid level to fail")
	}
	if _, err := LoadCatalog(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file to fail")
	}
	if cat, err := LoadCatalog(""); err != nil || len(cat.Jobs) != len(DefaultCatalog().Jobs) {
		t.Fatalf("empty path: err=%v", err)
	}
}

func TestCatalogMenus(t *testing.T) {
	cat := DefaultCatalog()
	if got := cat.StudiesFor(DegreeNone); len(got) != 3 {
		t.Fatalf("bachelor programs=%d", len(got))
	}
	if got := cat.StudiesFor(DegreeMaster); len(got) != 2 || got[0].Level != DegreePhD {
		t.Fatalf("phd programs=%+v", got)
	}
	if got := cat.StudiesFor(DegreePhD); len(got) != 0 {
		t.Fatalf("nothing above phd: %+v", got)
	}
	if j, ok := cat.FindJob(" retail associate "); !ok || j.MonthlySalary != 1800 {
		t.Fatalf("job=%+v", j)
	}
	if s, ok := cat.FindStudy("computer science", DegreePhD); !ok || s.AnnualTuition != 9000 {
		t.Fatalf("study=%+v", s)
	}
	if c, ok := cat.FindCar(CarLuxury); !ok || c.MonthlyCost != 600 {
		t.Fatalf("car=%+v", c)
	}
}

func TestFormatAgeAndParsers(t *testing.T) {
	if got := FormatAge(StartAgeMonths + 15); got != "19y 3m" {
		t.Fatalf("age=%q", got)
	}
	if d, ok := ParseDegree("PhD"); !ok || d != DegreePhD {
		t.Fatalf("degree=%s ok=%v", d, ok)
	}
	if _, ok := ParseLivingMode("tent"); ok {
		t.Fatalf("tent is not a living mode")
	}
}

func TestServiceEvictIdle(t *testing.T) {
	var journals []*memJournal
	svc := NewService(DefaultCatalog(), func(string) (Journal, error) {
		j := &memJournal{}
		journals = append(journals, j)
		return j, nil
	}, quietLogger())
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	old, _ := svc.CreateSession(nil)
	now = now.Add(90 * time.Minute)
	fresh, _ := svc.CreateSession(nil)
	now = now.Add(40 * time.Minute)

	if n := svc.EvictIdle(2 * time.Hour); n != 1 {
		t.Fatalf("evicted=%d want 1", n)
	}
	if _, err := svc.Session(old.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("old session still present: %v", err)
	}
	if !journals[0].closed || journals[1].closed {
		t.Fatalf("journals closed: %v %v", journals[0].closed, journals[1].closed)
	}

	// A lookup keeps a session alive.
	now = now.Add(100 * time.Minute)
	svc.Session(fresh.ID())
	now = now.Add(30 * time.Minute)
	if n := svc.EvictIdle(2*time.Hour); n != 0 || svc.Len() != 1 {
		t.Fatalf("evicted=%d len=%d", n, svc.Len())
	}
}

func TestSessionSubmitLeaderboard(t *testing.T) {
	s := NewSession(WithLogger(quietLogger()))
	snap := s.Snapshot()
	snap.State.AchievedFI = true
	snap.State.Investments = []Investment{{Kind: InvestBond, Principal: 300_000, MonthlyYield: 600}}
	s = NewSession(FromSnapshot(snap), WithLogger(quietLogger()))

	storeErr := errors.New("store down")
	if _, err := s.SubmitLeaderboard("Ada", func(LeaderboardSubmission) error { return storeErr }); !errors.Is(err, storeErr) {
		t.Fatalf("err=%v", err)
	}
	if s.State().LeaderboardSubmitted {
		t.Fatalf("flag set after failed store")
	}

	var got LeaderboardSubmission
	if _, err := s.SubmitLeaderboard(" Ada ", func(sub LeaderboardSubmission) error { got = sub; return nil }); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got.PlayerName != "Ada" || got.PassiveIncomeAtRetirement != 600 || !s.State().LeaderboardSubmitted {
		t.Fatalf("got=%+v", got)
	}
	if _, err := s.SubmitLeaderboard("Ada", func(LeaderboardSubmission) error { return nil }); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("err=%v", err)
	}
}
