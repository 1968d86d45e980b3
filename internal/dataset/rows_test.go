package dataset

import (
	"testing"
	"time"

	"energi/internal/core"
)

func TestEncodeDecodeTrainingRow(t *testing.T) {
	e := core.Event{
		Date:       core.NewDate(2026, 8, 31),
		Time:       core.NewTimeOfDay(8, 0, 0),
		Category:   core.CategoryTraining,
		Activity:   "Run",
		Energy:     -300,
		Distance:   5.2,
		Duration:   45*time.Minute + 30*time.Second,
		Pace:       5.38,
		Steps:      6200,
		Note:       "Intervals",
		EnergyAcc:  -1660,
		ProteinAcc: 0,
	}
	row := EncodeRow(e)
	if len(row) != len(Columns) {
		t.Fatalf("row width %d, want %d", len(row), len(Columns))
	}
	if row[0] != "2026-08-31" || row[1] != "08:00:00" || row[12] != "00:45:30" {
		t.Fatalf("unexpected cells: %v", row)
	}

	back, err := DecodeRow(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back != e {
		t.Fatalf("round trip mismatch:\n in  %+v\n out %+v", e, back)
	}
}

func TestDecodeRowToleratesShortAndLegacyRows(t *testing.T) {
	// Row written before the duration/pace/steps columns existed, with a
	// unit suffix in the distance cell.
	row := []string{
		"2025-03-02", "07:15", "TRAINING", "Walk", "8.93 km",
		"-410", "0", "0", "0", "morning walk",
	}
	e, err := DecodeRow(row)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Distance != 8.93 {
		t.Fatalf("distance: got %v want 8.93", e.Distance)
	}
	if e.Energy != -410 || e.Duration != 0 || e.Steps != 0 {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Time != core.NewTimeOfDay(7, 15, 0) {
		t.Fatalf("time: got %s", e.Time)
	}
}

func TestDecodeRowRejectsGarbage(t *testing.T) {
	cases := [][]string{
		{"not-a-date", "08:00", "FOOD"},
		{"2026-08-31", "late", "FOOD"},
		{"2026-08-31", "08:00", "NAP"},
	}
	for i, row := range cases {
		if _, err := DecodeRow(row); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
