// Package domain defines the business logic for activity recording and
// duration reporting.
package domain

import (
	"context"
	"time"
)

// Activity is a time-boxed record owned by a single user. Rows are immutable
// after insert; duration is always derived from the two timestamps.
type Activity struct {
	ID        int64
	UserID    int
	StartTime time.Time
	EndTime   time.Time
}

// Duration returns end minus start.
func (a Activity) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// ActivityRepository captures persistence operations for activities. List
// methods return rows in insertion order (ascending id); the report engine
// relies on that for first-encounter bucket ordering.
type ActivityRepository interface {
	Create(ctx context.Context, activity Activity) (*Activity, error)
	ListAll(ctx context.Context) ([]Activity, error)
	// ListStartedSince returns activities with start_time >= since.
	ListStartedSince(ctx context.Context, since time.Time) ([]Activity, error)
	// ListEnclosed returns activities with start_time >= start AND
	// end_time <= end. The asymmetric bound drops any activity whose end
	// spills past the window even when it started inside it.
	ListEnclosed(ctx context.Context, start, end time.Time) ([]Activity, error)
	// ListByStartYear returns activities whose start_time falls in year.
	ListByStartYear(ctx context.Context, year int) ([]Activity, error)
	// ListStartYearOnOrAfter returns activities whose start year >= year.
	ListStartYearOnOrAfter(ctx context.Context, year int) ([]Activity, error)
}
