package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildDayLedgerNewDay(t *testing.T) {
	date := NewDate(2026, 8, 31)
	run := Event{Date: date, Time: NewTimeOfDay(8, 0, 0), Category: CategoryTraining, Activity: "Run", Energy: -300}

	ledger, err := BuildDayLedger(date, 1360, nil, run)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(ledger) != 2 {
		t.Fatalf("expected basal + training, got %d records", len(ledger))
	}
	if ledger[0].Category != CategoryBasal || ledger[0].Energy != -1360 {
		t.Fatalf("first record must be the synthetic baseline, got %+v", ledger[0])
	}
	if ledger[1].Activity != "Run" {
		t.Fatalf("expected training second, got %+v", ledger[1])
	}
}

func TestBuildDayLedgerExistingDayKeepsBasal(t *testing.T) {
	date := NewDate(2026, 8, 31)
	stored := []Event{
		BasalEvent(date, 1360),
		{Date: date, Time: NewTimeOfDay(8, 0, 0), Category: CategoryTraining, Activity: "Run", Energy: -300},
	}
	food := Event{Date: date, Time: NewTimeOfDay(12, 0, 0), Category: CategoryFood, Activity: ActivityEat, Energy: 600}

	ledger, err := BuildDayLedger(date, 1500, stored, food)
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if len(ledger) != 3 {
		t.Fatalf("expected 3 records, got %d", len(ledger))
	}
	// Stored baseline is reused, not regenerated with the new rate.
	if ledger[0].Energy != -1360 {
		t.Fatalf("baseline was regenerated: %+v", ledger[0])
	}
	basals := 0
	for _, e := range ledger {
		if e.Category == CategoryBasal {
			basals++
		}
	}
	if basals != 1 {
		t.Fatalf("expected exactly one basal record, got %d", basals)
	}
}

func TestBuildDayLedgerRejectsZeroBMR(t *testing.T) {
	_, err := BuildDayLedger(NewDate(2026, 8, 31), 0, nil)
	if !errors.Is(err, ErrInvalidBaseline) {
		t.Fatalf("expected ErrInvalidBaseline, got %v", err)
	}
	_, err = BuildDayLedger(NewDate(2026, 8, 31), -100, nil)
	if !errors.Is(err, ErrInvalidBaseline) {
		t.Fatalf("expected ErrInvalidBaseline, got %v", err)
	}
}

func TestSortLedgerStable(t *testing.T) {
	date := NewDate(2026, 8, 31)
	events := []Event{
		{Date: date, Time: NewTimeOfDay(12, 0, 0), Category: CategoryFood, Energy: 600, Note: "first"},
		{Date: date, Time: NewTimeOfDay(8, 0, 0), Category: CategoryTraining, Activity: "Run", Energy: -300},
		{Date: date, Time: NewTimeOfDay(12, 0, 0), Category: CategoryFood, Energy: 200, Note: "second"},
	}
	SortLedger(events)
	if events[0].Activity != "Run" {
		t.Fatalf("expected 08:00 first, got %+v", events[0])
	}
	// Same-second records keep insertion order.
	if events[1].Note != "first" || events[2].Note != "second" {
		t.Fatalf("tie order broken: %q then %q", events[1].Note, events[2].Note)
	}
}

func TestAccumulatePrefixSums(t *testing.T) {
	date := NewDate(2026, 8, 31)
	ledger := []Event{
		BasalEvent(date, 1360),
		{Date: date, Time: NewTimeOfDay(8, 0, 0), Category: CategoryTraining, Activity: "Run", Energy: -300},
		{Date: date, Time: NewTimeOfDay(12, 0, 0), Category: CategoryFood, Energy: 600, Protein: 40},
	}
	acc := Accumulate(ledger)

	wantEnergy := []int{-1360, -1660, -1060}
	wantProtein := []float64{0, 0, 40}
	for i := range acc {
		if acc[i].EnergyAcc != wantEnergy[i] {
			t.Fatalf("record %d: energy_acc %d want %d", i, acc[i].EnergyAcc, wantEnergy[i])
		}
		if acc[i].ProteinAcc != wantProtein[i] {
			t.Fatalf("record %d: protein_acc %v want %v", i, acc[i].ProteinAcc, wantProtein[i])
		}
	}
	// Input untouched.
	if ledger[0].EnergyAcc != 0 {
		t.Fatalf("Accumulate mutated its input")
	}
}

func TestAccumulateReplayDeterminism(t *testing.T) {
	date := NewDate(2026, 8, 31)
	ledger := []Event{
		BasalEvent(date, 1360),
		{Date: date, Time: NewTimeOfDay(7, 30, 0), Category: CategoryTraining, Activity: "Swim", Energy: -450},
		{Date: date, Time: NewTimeOfDay(12, 0, 0), Category: CategoryFood, Energy: 700, Protein: 35.5},
		{Date: date, Time: NewTimeOfDay(19, 0, 0), Category: CategoryFood, Energy: 550, Protein: 28},
	}
	first := Accumulate(ledger)
	second := Accumulate(ledger)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("replay produced different accumulated values")
	}
	// Re-running on an already accumulated ledger that was stripped first
	// reproduces the same totals.
	third := Accumulate(StripAccumulated(first))
	if !reflect.DeepEqual(first, third) {
		t.Fatalf("strip + replay drifted from original accumulation")
	}
}

func TestAccumulateEmpty(t *testing.T) {
	if got := Accumulate(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d records", len(got))
	}
}

func TestStripAccumulated(t *testing.T) {
	date := NewDate(2026, 8, 31)
	acc := Accumulate([]Event{BasalEvent(date, 1360)})
	stripped := StripAccumulated(acc)
	if stripped[0].EnergyAcc != 0 || stripped[0].ProteinAcc != 0 {
		t.Fatalf("accumulated fields survived strip: %+v", stripped[0])
	}
	if acc[0].EnergyAcc == 0 {
		t.Fatalf("StripAccumulated mutated its input")
	}
}
