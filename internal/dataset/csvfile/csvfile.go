// Package csvfile is the flat tabular file backend: one CSV file per
// dataset under a data directory, whole-file rewrite on save.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"energi/internal/core"
	"energi/internal/dataset"
)

type Store struct {
	dir string
}

var _ dataset.Store = (*Store)(nil)

func New(dir string) *Store {
	return &Store{dir: dir}
}

// Load reads the dataset file. A dataset that has never been written loads
// as an empty event list, not an error.
func (s *Store) Load(_ context.Context, name string) ([]core.Event, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &dataset.StoreError{Op: "load", Dataset: name, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // older files have fewer columns
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &dataset.StoreError{Op: "load", Dataset: name, Err: err}
	}

	var events []core.Event
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "date" {
			continue // header
		}
		e, err := dataset.DecodeRow(row)
		if err != nil {
			return nil, &dataset.StoreError{
				Op:      "load",
				Dataset: name,
				Err:     fmt.Errorf("row %d: %w", i+1, err),
			}
		}
		events = append(events, e)
	}
	return events, nil
}

// Save rewrites the whole dataset file. The write goes to a temp file in
// the same directory first so a crash mid-write never truncates the
// current data.
func (s *Store) Save(_ context.Context, name string, events []core.Event) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, name+"-*.csv")
	if err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(dataset.Columns); err != nil {
		tmp.Close()
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}
	for _, e := range events {
		if err := w.Write(dataset.EncodeRow(e)); err != nil {
			tmp.Close()
			return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}
