package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	CategoryBasal    Category = "BASAL"
	CategoryTraining Category = "TRAINING"
	CategoryFood     Category = "FOOD"
)

// Activity sentinels for non-training events. Training events carry a
// free-form activity label (Walk, Run, Swim, Bike, Strength, Yoga, ...).
const (
	ActivityBasal = "Bmr"
	ActivityEat   = "Eat"
)

type (
	Category string

	// Date is a calendar date. The time-of-day portion of the embedded
	// time.Time is always midnight UTC.
	Date struct {
		time.Time
	}

	// TimeOfDay is a local time of day with second resolution,
	// stored as seconds since midnight.
	TimeOfDay int

	// Event is one energy-relevant occurrence: the daily basal burn, a
	// training session, or a meal. EnergyAcc and ProteinAcc are derived
	// fields filled in by Accumulate; they are zero on a freshly
	// registered event.
	Event struct {
		Date     Date
		Time     TimeOfDay
		Category Category
		Activity string

		// Energy is signed kilocalories: negative for BASAL and
		// TRAINING (expenditure), positive for FOOD (intake).
		Energy  int
		Protein float64 // grams
		Carb    float64 // grams
		Fat     float64 // grams

		// Training metrics, zero for non-training events.
		Distance float64 // km
		Duration time.Duration
		Pace     float64 // min/km
		Steps    int

		Note string

		EnergyAcc  int
		ProteinAcc float64
	}
)

var (
	ErrInvalidBaseline = errors.New("invalid baseline: basal rate must be positive")
	ErrMalformedEvent  = errors.New("malformed event")
	ErrNotFound        = errors.New("event not found")
)

func (c Category) Valid() bool {
	switch c {
	case CategoryBasal, CategoryTraining, CategoryFood:
		return true
	}
	return false
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON renders the date as a plain YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Weekday01 returns the weekday with Monday = 0 .. Sunday = 6.
func (d Date) Weekday01() int {
	wd := int(d.Weekday())
	if wd == 0 {
		return 6
	}
	return wd - 1
}

// NewTimeOfDay builds a TimeOfDay from clock components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay accepts HH:MM or HH:MM:SS.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	var h, m, sec int
	switch strings.Count(s, ":") {
	case 1:
		if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("parse time %q: %w", s, err)
		}
	case 2:
		if _, err := fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec); err != nil {
			return 0, fmt.Errorf("parse time %q: %w", s, err)
		}
	default:
		return 0, fmt.Errorf("parse time %q: expected HH:MM or HH:MM:SS", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("parse time %q: out of range", s)
	}
	return NewTimeOfDay(h, m, sec), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 3600 }
func (t TimeOfDay) Minute() int { return int(t) / 60 % 60 }
func (t TimeOfDay) Second() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// MarshalJSON renders the time of day as an HH:MM:SS string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	parsed, err := ParseTimeOfDay(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Validate rejects events the ledger must never store. Date and time
// presence are required; category-dependent sign rules keep intake and
// expenditure from being conflated downstream.
func (e Event) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrMalformedEvent)
	}
	if e.Time < 0 || e.Time >= 24*3600 {
		return fmt.Errorf("%w: time of day out of range", ErrMalformedEvent)
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrMalformedEvent, e.Category)
	}
	switch e.Category {
	case CategoryFood:
		if e.Energy < 0 {
			return fmt.Errorf("%w: food energy must be non-negative", ErrMalformedEvent)
		}
	case CategoryTraining:
		if e.Energy > 0 {
			return fmt.Errorf("%w: training energy must be non-positive", ErrMalformedEvent)
		}
		if strings.TrimSpace(e.Activity) == "" {
			return fmt.Errorf("%w: training event needs an activity", ErrMalformedEvent)
		}
	case CategoryBasal:
		if e.Energy >= 0 {
			return fmt.Errorf("%w: basal energy must be negative", ErrMalformedEvent)
		}
	}
	if e.Protein < 0 || e.Carb < 0 || e.Fat < 0 {
		return fmt.Errorf("%w: negative macro grams", ErrMalformedEvent)
	}
	return nil
}

// Summary is the short row text shown in "registered items" views. The
// deletion interface identifies rows by (date, time, summary), so this
// must stay deterministic for a given event.
func (e Event) Summary() string {
	switch e.Category {
	case CategoryFood:
		if e.Note != "" {
			return "Meal: " + e.Note
		}
		return fmt.Sprintf("Meal: %d kcal", e.Energy)
	case CategoryTraining:
		if e.Distance > 0 {
			return fmt.Sprintf("%s %.2f km", e.Activity, e.Distance)
		}
		if e.Note != "" {
			return e.Activity + ": " + e.Note
		}
		return e.Activity
	default:
		return "Basal metabolic burn"
	}
}

// BasalEvent synthesizes the per-day baseline event: the full daily basal
// burn applied at the top of the day, before any user-entered time.
func BasalEvent(date Date, bmr int) Event {
	return Event{
		Date:     date,
		Time:     NewTimeOfDay(0, 0, 0),
		Category: CategoryBasal,
		Activity: ActivityBasal,
		Energy:   -bmr,
	}
}
