package core

import (
	"fmt"
	"sort"
)

// MinStreakDays is the shortest run of contiguous logged dates that
// qualifies for the overall deficit analysis.
const MinStreakDays = 8

// dailyGuidanceLimit is the absolute daily average (kcal/day) beyond which
// the overall analysis flags a warning.
const dailyGuidanceLimit = 500

const (
	GuidanceSuccess = "success"
	GuidanceWarning = "warning"
)

type (
	// Balance is the energy summary of one date window.
	Balance struct {
		Period       string `json:"period"`
		InputEnergy  int    `json:"input_energy"`
		OutputEnergy int    `json:"output_energy"`
		NetBalance   int    `json:"net_balance"`
		DaysWithData int    `json:"days_with_data"`
	}

	Guidance struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}

	// StreakBalance is the overall analysis over the run of contiguous
	// logged dates ending at the most recent logged date.
	StreakBalance struct {
		Balance
		ConsecutiveDays int      `json:"consecutive_days"`
		DailyAverage    int      `json:"daily_average"`
		StartDate       Date     `json:"start_date"`
		EndDate         Date     `json:"end_date"`
		Guidance        Guidance `json:"guidance"`
	}

	Analysis struct {
		Day                Balance        `json:"day"`
		Week               Balance        `json:"week"`
		Month              Balance        `json:"month"`
		Overall            *StreakBalance `json:"overall,omitempty"`
		HasSufficientData  bool           `json:"has_sufficient_data"`
		MaxConsecutiveDays int            `json:"max_consecutive_days"`
	}
)

// WeekBounds returns the Monday and Sunday of the week containing d.
func WeekBounds(d Date) (Date, Date) {
	start := d.AddDays(-d.Weekday01())
	return start, start.AddDays(6)
}

// MonthBounds returns the first and last calendar day of d's month.
func MonthBounds(d Date) (Date, Date) {
	start := NewDate(d.Year(), int(d.Month()), 1)
	end := start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return start, Date{Time: end}
}

// Analyze computes the deficit/surplus report for the day, the
// Monday-aligned week and the calendar month containing ref, plus the
// overall analysis over the contiguous logging streak ending at the most
// recent logged date at or before ref. Windows with no events yield zeroed
// balances rather than errors.
func Analyze(events []Event, ref Date) Analysis {
	day := windowBalance(events, ref, ref,
		fmt.Sprintf("Day (%s)", ref))

	weekStart, weekEnd := WeekBounds(ref)
	week := windowBalance(events, weekStart, weekEnd,
		fmt.Sprintf("Week (%s to %s)", weekStart, weekEnd))

	monthStart, monthEnd := MonthBounds(ref)
	month := windowBalance(events, monthStart, monthEnd,
		fmt.Sprintf("Month (%s)", ref.Format("2006-01")))

	dates := distinctDates(events, ref)
	streak := latestRun(dates)
	maxRun := maxConsecutiveRun(dates)

	a := Analysis{
		Day:                day,
		Week:               week,
		Month:              month,
		HasSufficientData:  len(streak) >= MinStreakDays,
		MaxConsecutiveDays: maxRun,
	}
	if a.HasSufficientData {
		start, end := streak[0], streak[len(streak)-1]
		overall := windowBalance(events, start, end,
			fmt.Sprintf("%d-Day Period (%s to %s)", len(streak), start, end))
		avg := overall.NetBalance / len(streak)
		a.Overall = &StreakBalance{
			Balance:         overall,
			ConsecutiveDays: len(streak),
			DailyAverage:    avg,
			StartDate:       start,
			EndDate:         end,
			Guidance:        guidanceFor(avg),
		}
	}
	return a
}

// windowBalance sums intake and expenditure over [start, end]. Input is
// positive FOOD energy only; output is the magnitude of everything that is
// not food (basal plus training).
func windowBalance(events []Event, start, end Date, period string) Balance {
	b := Balance{Period: period}
	seen := map[string]struct{}{}
	for _, e := range events {
		if e.Date.Before(start.Time) || e.Date.After(end.Time) {
			continue
		}
		seen[e.Date.String()] = struct{}{}
		if e.Category == CategoryFood {
			if e.Energy > 0 {
				b.InputEnergy += e.Energy
			}
		} else {
			b.OutputEnergy += e.Energy
		}
	}
	if b.OutputEnergy < 0 {
		b.OutputEnergy = -b.OutputEnergy
	}
	b.NetBalance = b.InputEnergy - b.OutputEnergy
	b.DaysWithData = len(seen)
	return b
}

// distinctDates returns the distinct logged dates at or before ref,
// ascending.
func distinctDates(events []Event, ref Date) []Date {
	seen := map[string]Date{}
	for _, e := range events {
		if e.Date.After(ref.Time) {
			continue
		}
		seen[e.Date.String()] = e.Date
	}
	dates := make([]Date, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j].Time) })
	return dates
}

// latestRun returns the run of contiguous dates ending at the most recent
// logged date, ascending. The scan stops at the first gap: a streak must be
// unbroken, older runs do not count.
func latestRun(dates []Date) []Date {
	if len(dates) == 0 {
		return nil
	}
	end := len(dates) - 1
	start := end
	for start > 0 && dates[start].AddDays(-1).Equal(dates[start-1].Time) {
		start--
	}
	return dates[start : end+1]
}

// maxConsecutiveRun reports the length of the longest run of contiguous
// dates anywhere in the log.
func maxConsecutiveRun(dates []Date) int {
	if len(dates) == 0 {
		return 0
	}
	best, cur := 1, 1
	for i := 1; i < len(dates); i++ {
		if dates[i-1].AddDays(1).Equal(dates[i].Time) {
			cur++
			if cur > best {
				best = cur
			}
		} else {
			cur = 1
		}
	}
	return best
}

func guidanceFor(dailyAvg int) Guidance {
	switch {
	case dailyAvg < -dailyGuidanceLimit:
		return Guidance{
			Type:    GuidanceWarning,
			Message: "Large daily deficit: consider whether this aligns with your health goals",
		}
	case dailyAvg > dailyGuidanceLimit:
		return Guidance{
			Type:    GuidanceWarning,
			Message: "Large daily surplus: consider whether this aligns with your health goals",
		}
	default:
		return Guidance{Type: GuidanceSuccess, Message: "Moderate energy balance"}
	}
}
