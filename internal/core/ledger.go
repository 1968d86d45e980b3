package core

import "sort"

// SortLedger orders a day's events by time of day. The sort is stable so
// same-second registrations keep their insertion order.
func SortLedger(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Time < events[j].Time
	})
}

// BuildDayLedger assembles the ordered ledger for one date from the events
// already stored for it. A day with no stored events gets a synthetic BASAL
// record first; a day that already has one keeps it (the baseline is never
// regenerated on insert). bmr must be strictly positive.
//
// The input slice is not modified; accumulated fields on the result are
// stale and must be recomputed with Accumulate.
func BuildDayLedger(date Date, bmr int, stored []Event, add ...Event) ([]Event, error) {
	if bmr <= 0 {
		return nil, ErrInvalidBaseline
	}
	ledger := make([]Event, 0, len(stored)+len(add)+1)
	ledger = append(ledger, stored...)
	if !hasBasal(ledger) {
		ledger = append(ledger, BasalEvent(date, bmr))
	}
	ledger = append(ledger, add...)
	SortLedger(ledger)
	return ledger, nil
}

func hasBasal(events []Event) bool {
	for _, e := range events {
		if e.Category == CategoryBasal {
			return true
		}
	}
	return false
}

// Accumulate replays a time-ordered day ledger and fills in the running
// energy and protein totals on every record. It is a pure function: the
// input is copied, never written to, and replaying an unchanged ledger
// reproduces identical accumulated values.
func Accumulate(ledger []Event) []Event {
	out := make([]Event, len(ledger))
	copy(out, ledger)
	var energy int
	var protein float64
	for i := range out {
		energy += out[i].Energy
		protein += out[i].Protein
		out[i].EnergyAcc = energy
		out[i].ProteinAcc = protein
	}
	return out
}

// StripAccumulated zeroes the derived running totals. The mutator calls
// this before rebuilding a day so stale values are recomputed, never merged.
func StripAccumulated(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	for i := range out {
		out[i].EnergyAcc = 0
		out[i].ProteinAcc = 0
	}
	return out
}
