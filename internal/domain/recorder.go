package domain

import (
	"context"
	"time"

	"github.com/so647/study-time-tracker/internal/apperror"
)

// Recorder persists new activities from duration specs.
type Recorder struct {
	repo ActivityRepository
	now  func() time.Time
}

// NewRecorder constructs a Recorder.
func NewRecorder(repo ActivityRepository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record parses durationSpec ("HH:MM:SS"), stamps the activity with
// start_time = now and end_time = now + duration, and persists it. A spec
// that is not three colon-separated integers yields a validation error.
// Overlapping activities for the same user are permitted; there is no
// conflict detection.
func (r *Recorder) Record(ctx context.Context, userID int, durationSpec string) (*Activity, error) {
	duration, err := ParseClock(durationSpec)
	if err != nil {
		return nil, apperror.NewValidation("duration must be in HH:MM:SS format", err)
	}

	start := r.now()
	activity := Activity{
		UserID:    userID,
		StartTime: start,
		EndTime:   start.Add(duration),
	}

	created, err := r.repo.Create(ctx, activity)
	if err != nil {
		return nil, apperror.NewDatabase("failed to record activity", err)
	}
	return created, nil
}
