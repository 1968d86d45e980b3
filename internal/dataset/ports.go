package dataset

import (
	"context"
	"fmt"

	"energi/internal/core"
)

// EnergyBalance is the dataset id of the tracked event table. The food and
// recipe datasets live outside this service.
const EnergyBalance = "energy_balance"

// Ports for the backing stores. A store holds flat event rows keyed by a
// dataset id; the ledger service reads the full dataset before a mutation
// and writes the rebuilt dataset back after.
type (
	Loader interface {
		Load(ctx context.Context, dataset string) ([]core.Event, error)
	}

	Saver interface {
		Save(ctx context.Context, dataset string, events []core.Event) error
	}

	Store interface {
		Loader
		Saver
	}
)

// StoreError reports a failed load or save. A mutation whose save fails is
// not durably applied, whatever was computed in memory.
type StoreError struct {
	Op      string // "load" or "save"
	Dataset string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("backing store %s %s: %v", e.Op, e.Dataset, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
