package worker

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"energi/internal/amqp"
	"energi/internal/core"
	"energi/internal/dataset"
)

type fakeSource struct {
	table   []core.Event
	days    map[string][]core.Event
	loadErr error
}

func (f *fakeSource) Load(ctx context.Context, name string) ([]core.Event, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.table, nil
}

func (f *fakeSource) LoadDay(ctx context.Context, date core.Date) ([]core.Event, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.days[date.String()], nil
}

type fakeMirror struct {
	saved       []core.Event
	replaced    map[string][]core.Event
	replaceErr  error
	saveCalls   int
	replaceHits int
}

func (f *fakeMirror) Save(ctx context.Context, name string, events []core.Event) error {
	f.saveCalls++
	f.saved = events
	return nil
}

func (f *fakeMirror) ReplaceDay(ctx context.Context, name string, date core.Date, events []core.Event) error {
	f.replaceHits++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	if f.replaced == nil {
		f.replaced = make(map[string][]core.Event)
	}
	f.replaced[date.String()] = events
	return nil
}

func dayEvents(date core.Date) []core.Event {
	meal := core.Event{
		Date:     date,
		Time:     core.NewTimeOfDay(12, 0, 0),
		Category: core.CategoryFood,
		Activity: core.ActivityEat,
		Energy:   600,
		Protein:  30,
	}
	ledger, _ := core.BuildDayLedger(date, 1360, nil, meal)
	return core.Accumulate(ledger)
}

func TestSyncWorker_HandleSyncMessage(t *testing.T) {
	date := core.NewDate(2026, 3, 14)
	events := dayEvents(date)

	source := &fakeSource{days: map[string][]core.Event{date.String(): events}}
	mirror := &fakeMirror{}
	w := NewSyncWorker(source, mirror)

	msg := amqp.NewDaySyncMessage(date)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage() error: %v", err)
	}

	got := mirror.replaced[date.String()]
	if !reflect.DeepEqual(got, events) {
		t.Errorf("replaced rows = %+v, want %+v", got, events)
	}
}

func TestSyncWorker_HandleSyncMessage_EmptyDayClearsRemote(t *testing.T) {
	date := core.NewDate(2026, 3, 15)
	source := &fakeSource{days: map[string][]core.Event{}}
	mirror := &fakeMirror{}
	w := NewSyncWorker(source, mirror)

	if err := w.HandleSyncMessage(context.Background(), amqp.NewDaySyncMessage(date)); err != nil {
		t.Fatalf("HandleSyncMessage() error: %v", err)
	}
	if mirror.replaceHits != 1 {
		t.Errorf("ReplaceDay calls = %d, want 1", mirror.replaceHits)
	}
	if len(mirror.replaced[date.String()]) != 0 {
		t.Errorf("empty local day should clear the remote day, got %d rows", len(mirror.replaced[date.String()]))
	}
}

func TestSyncWorker_HandleSyncMessage_Errors(t *testing.T) {
	date := core.NewDate(2026, 3, 14)

	t.Run("storage failure", func(t *testing.T) {
		source := &fakeSource{loadErr: errors.New("db locked")}
		w := NewSyncWorker(source, &fakeMirror{})
		if err := w.HandleSyncMessage(context.Background(), amqp.NewDaySyncMessage(date)); err == nil {
			t.Error("expected error when storage load fails")
		}
	})

	t.Run("sheet failure", func(t *testing.T) {
		source := &fakeSource{days: map[string][]core.Event{date.String(): dayEvents(date)}}
		mirror := &fakeMirror{replaceErr: &dataset.StoreError{Op: "save", Dataset: dataset.EnergyBalance, Err: errors.New("quota")}}
		w := NewSyncWorker(source, mirror)
		err := w.HandleSyncMessage(context.Background(), amqp.NewDaySyncMessage(date))
		var storeErr *dataset.StoreError
		if !errors.As(err, &storeErr) {
			t.Errorf("expected wrapped *dataset.StoreError, got %v", err)
		}
	})
}

func TestSyncWorker_ReconcileAll(t *testing.T) {
	d1 := core.NewDate(2026, 3, 14)
	d2 := core.NewDate(2026, 3, 15)
	table := append(dayEvents(d1), dayEvents(d2)...)

	source := &fakeSource{table: table}
	mirror := &fakeMirror{}
	w := NewSyncWorker(source, mirror)

	if err := w.ReconcileAll(context.Background()); err != nil {
		t.Fatalf("ReconcileAll() error: %v", err)
	}
	if mirror.saveCalls != 1 {
		t.Errorf("Save calls = %d, want 1", mirror.saveCalls)
	}
	if !reflect.DeepEqual(mirror.saved, table) {
		t.Errorf("saved table = %+v, want %+v", mirror.saved, table)
	}
}
