package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/so647/study-time-tracker/internal/domain"
	"github.com/so647/study-time-tracker/internal/observability"
)

// ActivityRepository provides Postgres-backed persistence for activities.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

const activityColumns = `id, user_id, start_time, end_time`

// Create inserts the activity and returns it with its assigned id.
func (r *ActivityRepository) Create(ctx context.Context, activity domain.Activity) (*domain.Activity, error) {
	const query = `INSERT INTO activities (user_id, start_time, end_time)
        VALUES ($1, $2, $3)
        RETURNING id`

	err := r.pool.QueryRow(ctx, query, activity.UserID, activity.StartTime, activity.EndTime).
		Scan(&activity.ID)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	observability.RecordActivityPersisted(activity.StartTime)
	return &activity, nil
}

// ListAll returns every activity in insertion order.
func (r *ActivityRepository) ListAll(ctx context.Context) ([]domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities ORDER BY id`, activityColumns)
	return r.list(ctx, query)
}

// ListStartedSince returns activities with start_time >= since.
func (r *ActivityRepository) ListStartedSince(ctx context.Context, since time.Time) ([]domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE start_time >= $1 ORDER BY id`, activityColumns)
	return r.list(ctx, query, since)
}

// ListEnclosed returns activities with start_time >= start AND end_time <= end.
func (r *ActivityRepository) ListEnclosed(ctx context.Context, start, end time.Time) ([]domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE start_time >= $1 AND end_time <= $2 ORDER BY id`, activityColumns)
	return r.list(ctx, query, start, end)
}

// ListByStartYear returns activities whose start_time falls in year.
func (r *ActivityRepository) ListByStartYear(ctx context.Context, year int) ([]domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE EXTRACT(YEAR FROM start_time) = $1 ORDER BY id`, activityColumns)
	return r.list(ctx, query, year)
}

// ListStartYearOnOrAfter returns activities whose start year >= year.
func (r *ActivityRepository) ListStartYearOnOrAfter(ctx context.Context, year int) ([]domain.Activity, error) {
	query := fmt.Sprintf(`SELECT %s FROM activities WHERE EXTRACT(YEAR FROM start_time) >= $1 ORDER BY id`, activityColumns)
	return r.list(ctx, query, year)
}

func (r *ActivityRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	activities, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Activity, error) {
		var a domain.Activity
		err := row.Scan(&a.ID, &a.UserID, &a.StartTime, &a.EndTime)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan activities: %w", err)
	}
	return activities, nil
}
