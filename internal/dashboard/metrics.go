package dashboard

import (
	"math"
	"time"
)

// Period selects the window for period-scoped metrics.
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
)

// DefaultMonthlyTarget is the fallback when neither an allocation nor a
// profile working-hours target exists.
const DefaultMonthlyTarget = 40.0

// TaskStat is the slice of a task the metrics care about.
type TaskStat struct {
	Status string
}

// LogStat is the slice of a daily log the metrics care about.
type LogStat struct {
	Hours float64
	Date  time.Time
}

// PerformanceMetrics is recomputed from scratch on every call; nothing
// here is incremental or stateful.
type PerformanceMetrics struct {
	TasksCompleted     int     `json:"tasks_completed"`
	TasksTotal         int     `json:"tasks_total"`
	CompletionRate     float64 `json:"completion_rate"`
	TotalHoursLogged   float64 `json:"total_hours_logged"`
	PeriodHours        float64 `json:"period_hours"`
	AverageHoursPerDay float64 `json:"average_hours_per_day"`
	ProductivityScore  float64 `json:"productivity_score"`
}

// sanitize coerces malformed numeric input to 0 instead of propagating
// NaN or Inf into the metrics.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// CompletionRate is done/total as a percentage, 0 for an empty task set.
func CompletionRate(done, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

// TotalHours sums logged hours. Addition order does not matter.
func TotalHours(logs []LogStat) float64 {
	var total float64
	for _, l := range logs {
		total += sanitize(l.Hours)
	}
	return total
}

// PeriodStart returns the start of the ISO week (Monday 00:00), the
// calendar month, or the calendar quarter containing now.
func PeriodStart(period Period, now time.Time) time.Time {
	switch period {
	case PeriodWeek:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday belongs to the week that started last Monday
		}
		day := now.AddDate(0, 0, -(weekday - 1))
		return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
	case PeriodQuarter:
		quarterMonth := time.Month(((int(now.Month())-1)/3)*3 + 1)
		return time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
}

// PeriodHours sums hours for logs dated on or after the period start.
func PeriodHours(logs []LogStat, periodStart time.Time) float64 {
	var total float64
	for _, l := range logs {
		if !l.Date.Before(periodStart) {
			total += sanitize(l.Hours)
		}
	}
	return total
}

// AverageHoursPerDay divides period hours by the days elapsed since the
// period start, rounded up and never below one.
func AverageHoursPerDay(periodHours float64, periodStart, now time.Time) float64 {
	days := math.Ceil(now.Sub(periodStart).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return sanitize(periodHours / days)
}

// ProductivityScore blends completion rate (60%) with hours-vs-target
// attainment (40%), capped at 100.
func ProductivityScore(completionRate, totalHours, target float64) float64 {
	completionRate = sanitize(completionRate)
	totalHours = sanitize(totalHours)
	target = sanitize(target)

	attainment := 0.0
	if target > 0 {
		attainment = totalHours / target
		if attainment > 1 {
			attainment = 1
		}
	}

	score := completionRate*0.6 + attainment*40
	if score > 100 {
		score = 100
	}
	return score
}

// MonthlyTarget resolves the target hour chain: explicit allocation,
// then the profile's working hours, then the default.
func MonthlyTarget(allocation, workingHours *float64) float64 {
	if allocation != nil && sanitize(*allocation) > 0 {
		return *allocation
	}
	if workingHours != nil && sanitize(*workingHours) > 0 {
		return *workingHours
	}
	return DefaultMonthlyTarget
}

// MonthlyPercentage is current/target as a percentage, 0 when the
// target is 0.
func MonthlyPercentage(current, target float64) float64 {
	current = sanitize(current)
	target = sanitize(target)
	if target == 0 {
		return 0
	}
	return current / target * 100
}

// ComputeMetrics derives the full metric set for one user's tasks and
// logs over the given period.
func ComputeMetrics(tasks []TaskStat, logs []LogStat, period Period, target float64, now time.Time) PerformanceMetrics {
	done := 0
	for _, t := range tasks {
		if t.Status == "done" {
			done++
		}
	}

	completionRate := CompletionRate(done, len(tasks))
	totalHours := TotalHours(logs)
	periodStart := PeriodStart(period, now)
	periodHours := PeriodHours(logs, periodStart)

	return PerformanceMetrics{
		TasksCompleted:     done,
		TasksTotal:         len(tasks),
		CompletionRate:     completionRate,
		TotalHoursLogged:   totalHours,
		PeriodHours:        periodHours,
		AverageHoursPerDay: AverageHoursPerDay(periodHours, periodStart, now),
		ProductivityScore:  ProductivityScore(completionRate, totalHours, sanitize(target)),
	}
}
