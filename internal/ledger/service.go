// Package ledger owns the event store: every insert or delete goes through
// the Service, which rebuilds the affected day from scratch and writes the
// store back through the configured backend.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"energi/internal/core"
	"energi/internal/dataset"
)

// Publisher notifies downstream replicas that a day was rebuilt. A nil
// publisher disables replication; publish failures never fail a mutation
// that already reached the backing store.
type Publisher interface {
	PublishDaySync(ctx context.Context, date core.Date) error
}

// Item is one row of the "registered items" view: the bits the
// presentation layer needs to show and later identify a row for deletion.
type Item struct {
	Time    core.TimeOfDay `json:"time"`
	Summary string         `json:"summary"`
}

type Service struct {
	// Serializes mutations. Delete drops and rebuilds a whole day, so
	// interleaved writers could observe a half-rebuilt store.
	mu sync.Mutex

	store     dataset.Store
	dataset   string
	publisher Publisher
}

func NewService(store dataset.Store, publisher Publisher) *Service {
	return &Service{
		store:     store,
		dataset:   dataset.EnergyBalance,
		publisher: publisher,
	}
}

// Insert adds one event to the store. The event's day is rebuilt in full:
// stale accumulated values are stripped, the day is re-sorted and
// re-accumulated, and only that day's slice is replaced. A day logged for
// the first time gets its synthetic basal record here.
func (s *Service) Insert(ctx context.Context, e core.Event, bmr int) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Category == core.CategoryBasal {
		return fmt.Errorf("%w: baseline records are synthesized, not registered", core.ErrMalformedEvent)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}

	stored := core.StripAccumulated(snap.Day(e.Date))
	day, err := core.BuildDayLedger(e.Date, bmr, stored, e)
	if err != nil {
		return err
	}
	snap.ReplaceDay(e.Date, core.Accumulate(day))

	if err := s.save(ctx, snap); err != nil {
		return err
	}
	slog.InfoContext(ctx, "event registered",
		"date", e.Date.String(),
		"time", e.Time.String(),
		"category", string(e.Category),
		"energy", e.Energy)

	s.publishDaySync(ctx, e.Date)
	return nil
}

// Delete removes the event on date matching (time, summary) and rebuilds
// the day from the survivors: the basal record is re-synthesized with the
// BMR in force, survivors re-attached, the day re-sorted and
// re-accumulated. Removing the last user event is legal and leaves a
// basal-only day. No match means no mutation and ErrNotFound.
func (s *Service) Delete(ctx context.Context, date core.Date, tod core.TimeOfDay, summary string, bmr int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return err
	}
	if !snap.HasDay(date) {
		return fmt.Errorf("%w: no events on %s", core.ErrNotFound, date)
	}

	var survivors []core.Event
	removed := 0
	for _, e := range snap.Day(date) {
		if e.Category == core.CategoryBasal {
			continue // regenerated below, never a delete target
		}
		if e.Time == tod && e.Summary() == summary {
			removed++
			continue
		}
		survivors = append(survivors, e)
	}
	if removed == 0 {
		return fmt.Errorf("%w: no event at %s matching %q", core.ErrNotFound, tod, summary)
	}

	day, err := core.BuildDayLedger(date, bmr, nil, core.StripAccumulated(survivors)...)
	if err != nil {
		return err
	}
	snap.DropDay(date)
	snap.ReplaceDay(date, core.Accumulate(day))

	if err := s.save(ctx, snap); err != nil {
		return err
	}
	slog.InfoContext(ctx, "event deleted",
		"date", date.String(),
		"time", tod.String(),
		"removed", removed)

	s.publishDaySync(ctx, date)
	return nil
}

// Analyze answers the windowed deficit/surplus query against a fresh
// snapshot of the store.
func (s *Service) Analyze(ctx context.Context, ref core.Date) (core.Analysis, error) {
	events, err := s.store.Load(ctx, s.dataset)
	if err != nil {
		return core.Analysis{}, err
	}
	return core.Analyze(events, ref), nil
}

// DayLedger returns one date's accumulated ledger in time order.
func (s *Service) DayLedger(ctx context.Context, date core.Date) ([]core.Event, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	day := snap.Day(date)
	core.SortLedger(day)
	return day, nil
}

// Items lists the user-visible rows of one date (basal excluded), in the
// shape the deletion interface identifies rows by.
func (s *Service) Items(ctx context.Context, date core.Date) ([]Item, error) {
	day, err := s.DayLedger(ctx, date)
	if err != nil {
		return nil, err
	}
	var items []Item
	for _, e := range day {
		if e.Category == core.CategoryBasal {
			continue
		}
		items = append(items, Item{Time: e.Time, Summary: e.Summary()})
	}
	return items, nil
}

func (s *Service) load(ctx context.Context) (*Snapshot, error) {
	events, err := s.store.Load(ctx, s.dataset)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(events), nil
}

func (s *Service) save(ctx context.Context, snap *Snapshot) error {
	return s.store.Save(ctx, s.dataset, snap.Events())
}

func (s *Service) publishDaySync(ctx context.Context, date core.Date) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDaySync(ctx, date); err != nil {
		slog.ErrorContext(ctx, "day sync publish failed", "date", date.String(), "error", err)
	}
}
