package ledger

import (
	"sort"

	"energi/internal/core"
)

// Snapshot is an in-memory view of the whole event store grouped by date.
// Mutations rewrite exactly one date's slice; every other day passes
// through a mutation byte for byte.
type Snapshot struct {
	days map[string][]core.Event
}

func NewSnapshot(events []core.Event) *Snapshot {
	s := &Snapshot{days: map[string][]core.Event{}}
	for _, e := range events {
		key := e.Date.String()
		s.days[key] = append(s.days[key], e)
	}
	return s
}

// Day returns a copy of the stored slice for one date, empty when the date
// has no events.
func (s *Snapshot) Day(d core.Date) []core.Event {
	stored := s.days[d.String()]
	out := make([]core.Event, len(stored))
	copy(out, stored)
	return out
}

func (s *Snapshot) HasDay(d core.Date) bool {
	return len(s.days[d.String()]) > 0
}

// ReplaceDay swaps in a rebuilt day ledger.
func (s *Snapshot) ReplaceDay(d core.Date, ledger []core.Event) {
	s.days[d.String()] = ledger
}

func (s *Snapshot) DropDay(d core.Date) {
	delete(s.days, d.String())
}

// Events flattens the snapshot back into persisted order: by date, then by
// the time order the day ledgers already carry.
func (s *Snapshot) Events() []core.Event {
	keys := make([]string, 0, len(s.days))
	for k := range s.days {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []core.Event
	for _, k := range keys {
		out = append(out, s.days[k]...)
	}
	return out
}
