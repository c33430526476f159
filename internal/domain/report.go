package domain

import (
	"context"
	"time"

	"github.com/so647/study-time-tracker/internal/apperror"
)

// WeekdayNames labels the week-view buckets, Monday first.
var WeekdayNames = []string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// DayReport buckets today's activities by start hour, in minutes.
type DayReport struct {
	// Buckets holds 24 entries keyed by hour of day ("00".."23").
	Buckets []float64
	Total   string
}

// WeekReport buckets the current week's activities by weekday, in hours.
type WeekReport struct {
	// Buckets holds 7 entries, Monday first.
	Buckets []float64
	Total   string
}

// MonthReport buckets the current year's activities by start month, in hours.
type MonthReport struct {
	// Buckets holds 12 entries, January first.
	Buckets []float64
	Total   string
}

// YearBucket pairs a year with its accumulated hours.
type YearBucket struct {
	Year  int
	Hours float64
}

// YearReport buckets activities by start year in first-encounter order.
type YearReport struct {
	Buckets []YearBucket
	Total   string
}

// Reporter aggregates persisted activities into chart series. Reports cover
// all stored activities, not just the requesting user's.
type Reporter struct {
	repo ActivityRepository
	now  func() time.Time
}

// NewReporter constructs a Reporter.
func NewReporter(repo ActivityRepository) *Reporter {
	return &Reporter{repo: repo, now: time.Now}
}

// Day reports activities that started today. Each activity is attributed
// entirely to its start hour; spans crossing an hour boundary are not split.
func (r *Reporter) Day(ctx context.Context) (*DayReport, error) {
	now := r.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	activities, err := r.repo.ListStartedSince(ctx, dayStart)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load day activities", err)
	}

	buckets := make([]float64, 24)
	var totalMinutes float64
	for _, a := range activities {
		minutes := a.Duration().Minutes()
		buckets[a.StartTime.Hour()] += minutes
		totalMinutes += minutes
	}

	return &DayReport{Buckets: buckets, Total: FormatMinutes(totalMinutes)}, nil
}

// Week reports activities enclosed by the current week, Monday 00:00 through
// Monday+6d. The window filter is asymmetric (start_time >= window start,
// end_time <= window end): an activity whose end spills past the window end
// is excluded entirely, even when it started inside the week.
func (r *Reporter) Week(ctx context.Context) (*WeekReport, error) {
	now := r.now()
	weekStart := startOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 6)

	activities, err := r.repo.ListEnclosed(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load week activities", err)
	}

	buckets := make([]float64, 7)
	var totalHours float64
	for _, a := range activities {
		hours := a.Duration().Hours()
		buckets[mondayIndex(a.StartTime.Weekday())] += hours
		totalHours += hours
	}

	return &WeekReport{Buckets: buckets, Total: FormatMinutes(totalHours * 60)}, nil
}

// Month reports the current calendar year bucketed by start month, in hours.
func (r *Reporter) Month(ctx context.Context) (*MonthReport, error) {
	year := r.now().Year()

	activities, err := r.repo.ListByStartYear(ctx, year)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load month activities", err)
	}

	buckets := make([]float64, 12)
	var totalMinutes float64
	for _, a := range activities {
		buckets[int(a.StartTime.Month())-1] += a.Duration().Hours()
		totalMinutes += a.Duration().Minutes()
	}

	return &MonthReport{Buckets: buckets, Total: FormatMinutes(totalMinutes)}, nil
}

// Year reports activities from the current year onward, bucketed by start
// year. Bucket order is first-encounter order over the stored rows, not
// sorted.
func (r *Reporter) Year(ctx context.Context) (*YearReport, error) {
	year := r.now().Year()

	activities, err := r.repo.ListStartYearOnOrAfter(ctx, year)
	if err != nil {
		return nil, apperror.NewDatabase("failed to load year activities", err)
	}

	var buckets []YearBucket
	index := make(map[int]int)
	var totalMinutes float64
	for _, a := range activities {
		y := a.StartTime.Year()
		i, ok := index[y]
		if !ok {
			i = len(buckets)
			index[y] = i
			buckets = append(buckets, YearBucket{Year: y})
		}
		buckets[i].Hours += a.Duration().Hours()
		totalMinutes += a.Duration().Minutes()
	}

	return &YearReport{Buckets: buckets, Total: FormatMinutes(totalMinutes)}, nil
}

// startOfWeek truncates t to Monday 00:00 in t's location.
func startOfWeek(t time.Time) time.Time {
	dayStart := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return dayStart.AddDate(0, 0, -mondayIndex(t.Weekday()))
}

// mondayIndex maps time.Weekday (Sunday=0) to a Monday-first index.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
