package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"energi/internal/core"
	"energi/internal/dataset"

	_ "modernc.org/sqlite"
)

// SQLiteRepository keeps the flat event table in a local SQLite file. It is
// the durable backend behind the mutator and the read side of the sheet
// replication worker.
type SQLiteRepository struct {
	db *sql.DB
}

var _ dataset.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const selectColumns = `date, time, label, activity, distance, energy,
	pro, carb, fat, note, energy_acc, protein_acc, duration, pace, steps`

// Load implements dataset.Loader: the whole table in ledger order.
func (r *SQLiteRepository) Load(ctx context.Context, name string) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM energy_balance ORDER BY date, time, id`)
	if err != nil {
		return nil, &dataset.StoreError{Op: "load", Dataset: name, Err: err}
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, &dataset.StoreError{Op: "load", Dataset: name, Err: err}
	}
	return events, nil
}

// Save implements dataset.Saver: last write wins, the whole table is
// replaced inside one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, name string, events []core.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM energy_balance`); err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: fmt.Errorf("clear table: %w", err)}
	}
	if err := insertEvents(ctx, tx, events); err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &dataset.StoreError{Op: "save", Dataset: name, Err: err}
	}
	return nil
}

// LoadDay returns one date's rows in time order, for the replication
// worker.
func (r *SQLiteRepository) LoadDay(ctx context.Context, date core.Date) ([]core.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM energy_balance WHERE date = ? ORDER BY time, id`,
		date.String())
	if err != nil {
		return nil, fmt.Errorf("select day %s: %w", date, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func insertEvents(ctx context.Context, tx *sql.Tx, events []core.Event) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO energy_balance (
			date, time, label, activity, distance, energy,
			pro, carb, fat, note, energy_acc, protein_acc,
			duration, pace, steps
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err := stmt.ExecContext(ctx,
			e.Date.String(), e.Time.String(), string(e.Category), e.Activity,
			e.Distance, e.Energy, e.Protein, e.Carb, e.Fat, e.Note,
			e.EnergyAcc, e.ProteinAcc, dataset.FormatDuration(e.Duration),
			e.Pace, e.Steps)
		if err != nil {
			return fmt.Errorf("insert row %s %s: %w", e.Date, e.Time, err)
		}
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]core.Event, error) {
	var events []core.Event
	for rows.Next() {
		var (
			e                  core.Event
			dateStr, timeStr   string
			label, durationStr string
		)
		err := rows.Scan(&dateStr, &timeStr, &label, &e.Activity, &e.Distance,
			&e.Energy, &e.Protein, &e.Carb, &e.Fat, &e.Note,
			&e.EnergyAcc, &e.ProteinAcc, &durationStr, &e.Pace, &e.Steps)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if e.Date, err = core.ParseDate(dateStr); err != nil {
			return nil, err
		}
		if e.Time, err = core.ParseTimeOfDay(timeStr); err != nil {
			return nil, err
		}
		e.Category = core.Category(label)
		e.Duration = dataset.ParseDuration(durationStr)
		events = append(events, e)
	}
	return events, rows.Err()
}
