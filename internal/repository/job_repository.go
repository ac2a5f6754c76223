package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"shift-match/internal/database"
	"shift-match/internal/domain/job"
	"shift-match/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// JobRepository is the read/status view the matching engine needs of jobs.
// Job profiles themselves are owned by the job management service.
type JobRepository interface {
	GetByID(ctx context.Context, jobID uuid.UUID) (job.Job, error)
	// UpdateStatus moves the job from -> to and reports whether the row was
	// still in from.
	UpdateStatus(ctx context.Context, jobID uuid.UUID, from, to job.Status) (bool, error)
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, jobID uuid.UUID) (job.Job, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, employer_id, COALESCE(title, ''), lat, lng, skills, skills_preferred,
		        min_experience_months, windows, status, max_matches, workers_needed,
		        radius_km, response_window_seconds, lead_price, created_at, updated_at
		 FROM jobs
		 WHERE id = $1`,
		jobID,
	)

	var (
		j          job.Job
		status     string
		rawWindows []byte
		windowSecs int64
	)
	err := row.Scan(
		&j.ID, &j.EmployerID, &j.Title, &j.Location.Lat, &j.Location.Lng, &j.Skills, &j.SkillsPreferred,
		&j.MinExperienceMonths, &rawWindows, &status, &j.MaxMatches, &j.WorkersNeeded,
		&j.RadiusKm, &windowSecs, &j.LeadPrice, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}

	j.Status, err = job.ParseStatus(status)
	if err != nil {
		return job.Job{}, err
	}
	j.Windows, err = decodeWindows(rawWindows)
	if err != nil {
		return job.Job{}, err
	}
	j.ResponseWindow = time.Duration(windowSecs) * time.Second
	return j, nil
}

func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, jobID uuid.UUID, from, to job.Status) (bool, error) {
	if !job.CanTransition(from, to) {
		return false, job.ErrInvalidTransition
	}
	n, err := r.db.Exec(ctx,
		`UPDATE jobs SET status = $3, updated_at = now()
		 WHERE id = $1 AND status = $2`,
		jobID, string(from), string(to),
	)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func decodeWindows(raw []byte) ([]schedule.Window, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []schedule.Window
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
