package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"energi/internal/core"
)

// Columns is the flat-table layout shared by every backing store: CSV
// files, the SQLite table and the remote sheet all carry these fifteen
// columns in this order.
var Columns = []string{
	"date", "time", "label", "activity", "distance",
	"energy", "pro", "carb", "fat", "note",
	"energy_acc", "protein_acc", "duration", "pace", "steps",
}

// EncodeRow flattens an event into the persisted column order.
func EncodeRow(e core.Event) []string {
	return []string{
		e.Date.String(),
		e.Time.String(),
		string(e.Category),
		e.Activity,
		formatFloat(e.Distance),
		strconv.Itoa(e.Energy),
		formatFloat(e.Protein),
		formatFloat(e.Carb),
		formatFloat(e.Fat),
		e.Note,
		strconv.Itoa(e.EnergyAcc),
		formatFloat(e.ProteinAcc),
		FormatDuration(e.Duration),
		formatFloat(e.Pace),
		strconv.Itoa(e.Steps),
	}
}

// DecodeRow parses one persisted row. Missing trailing cells and blank
// numeric cells decode to zero values, so older rows without the training
// metric columns still load.
func DecodeRow(cells []string) (core.Event, error) {
	get := func(i int) string {
		if i < len(cells) {
			return strings.TrimSpace(cells[i])
		}
		return ""
	}

	date, err := core.ParseDate(get(0))
	if err != nil {
		return core.Event{}, fmt.Errorf("row date: %w", err)
	}
	tod, err := core.ParseTimeOfDay(get(1))
	if err != nil {
		return core.Event{}, fmt.Errorf("row time: %w", err)
	}

	e := core.Event{
		Date:     date,
		Time:     tod,
		Category: core.Category(get(2)),
		Activity: get(3),
		Note:     get(9),
	}
	if !e.Category.Valid() {
		return core.Event{}, fmt.Errorf("row label %q: unknown category", get(2))
	}
	e.Distance = parseFloat(get(4))
	e.Energy = parseInt(get(5))
	e.Protein = parseFloat(get(6))
	e.Carb = parseFloat(get(7))
	e.Fat = parseFloat(get(8))
	e.EnergyAcc = parseInt(get(10))
	e.ProteinAcc = parseFloat(get(11))
	e.Duration = ParseDuration(get(12))
	e.Pace = parseFloat(get(13))
	e.Steps = parseInt(get(14))
	return e, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatDuration renders HH:MM:SS, the layout the tracked table has always
// used for session durations.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseDuration reads an HH:MM:SS cell; blanks and zeros mean no duration.
func ParseDuration(s string) time.Duration {
	if s == "" || s == "0" {
		return 0
	}
	var h, m, sec int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second
}

// parseFloat tolerates unit suffixes left behind by older rows ("8.93 km").
func parseFloat(s string) float64 {
	if s == "" {
		return 0
	}
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	// Some rows carry integral values written as floats.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}
