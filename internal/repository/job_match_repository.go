package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"shift-match/internal/database"
	"shift-match/internal/domain/match"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrDuplicatePaymentRef = errors.New("payment reference already used")

// UnlockRecord is the ledger entry written together with the accepted -> unlocked move.
type UnlockRecord struct {
	MatchID    uuid.UUID
	PaymentRef string
	Amount     float64
	Currency   string
	At         time.Time
}

type JobMatchRepository interface {
	// CreateIfAbsent inserts m unless a proposed, accepted or unlocked match
	// for the same job and worker already exists. It reports whether a row was
	// created.
	CreateIfAbsent(ctx context.Context, m match.JobMatch) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (match.JobMatch, error)
	// CompareAndSetStatus moves the match from -> to only if it is still in from.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to match.Status, respondedAt *time.Time) (bool, error)
	ListExpirable(ctx context.Context, now time.Time, limit int) ([]match.JobMatch, error)
	// CountByJobAndStatuses counts distinct workers with a match in statuses.
	CountByJobAndStatuses(ctx context.Context, jobID uuid.UUID, statuses ...match.Status) (int, error)
	ListByJob(ctx context.Context, jobID uuid.UUID, statuses ...match.Status) ([]match.JobMatch, error)
	ListByWorker(ctx context.Context, workerID uuid.UUID) ([]match.JobMatch, error)
	// Unlock atomically moves an accepted match to unlocked and records the
	// payment. It reports false when the match was no longer accepted.
	Unlock(ctx context.Context, rec UnlockRecord) (bool, error)
}

type PostgresJobMatchRepository struct {
	db database.DB
}

func NewPostgresJobMatchRepository(db database.DB) *PostgresJobMatchRepository {
	return &PostgresJobMatchRepository{db: db}
}

const jobMatchColumns = `id, job_id, worker_id, employer_id, score, distance_km, status,
	created_at, response_deadline, responded_at, unlocked_at, payment_ref, lead_price`

func (r *PostgresJobMatchRepository) CreateIfAbsent(ctx context.Context, m match.JobMatch) (bool, error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	n, err := r.db.Exec(ctx,
		`INSERT INTO job_matches (id, job_id, worker_id, employer_id, score, distance_km, status,
		                          created_at, response_deadline, lead_price)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (job_id, worker_id) WHERE status IN ('proposed', 'accepted', 'unlocked') DO NOTHING`,
		m.ID, m.JobID, m.WorkerID, m.EmployerID, m.Score, m.DistanceKm, string(match.StatusProposed),
		m.CreatedAt, m.ResponseDeadline, m.LeadPrice,
	)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresJobMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (match.JobMatch, error) {
	row := r.db.QueryRow(ctx, `SELECT `+jobMatchColumns+` FROM job_matches WHERE id = $1`, id)
	m, err := scanJobMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return match.JobMatch{}, match.ErrNotFound
		}
		return match.JobMatch{}, err
	}
	return m, nil
}

func (r *PostgresJobMatchRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to match.Status, respondedAt *time.Time) (bool, error) {
	n, err := r.db.Exec(ctx,
		`UPDATE job_matches
		 SET status = $3, responded_at = COALESCE($4, responded_at)
		 WHERE id = $1 AND status = $2`,
		id, string(from), string(to), respondedAt,
	)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresJobMatchRepository) ListExpirable(ctx context.Context, now time.Time, limit int) ([]match.JobMatch, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+jobMatchColumns+`
		 FROM job_matches
		 WHERE status = $1 AND response_deadline < $2
		 ORDER BY response_deadline ASC
		 LIMIT $3`,
		string(match.StatusProposed), now, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectJobMatches(rows)
}

func (r *PostgresJobMatchRepository) CountByJobAndStatuses(ctx context.Context, jobID uuid.UUID, statuses ...match.Status) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(DISTINCT worker_id) FROM job_matches WHERE job_id = $1 AND status = ANY($2)`,
		jobID, statusStrings(statuses),
	).Scan(&n)
	return n, err
}

func (r *PostgresJobMatchRepository) ListByJob(ctx context.Context, jobID uuid.UUID, statuses ...match.Status) ([]match.JobMatch, error) {
	q := `SELECT ` + jobMatchColumns + ` FROM job_matches WHERE job_id = $1`
	args := []any{jobID}
	if len(statuses) > 0 {
		q += ` AND status = ANY($2)`
		args = append(args, statusStrings(statuses))
	}
	q += ` ORDER BY score DESC, created_at ASC`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectJobMatches(rows)
}

func (r *PostgresJobMatchRepository) ListByWorker(ctx context.Context, workerID uuid.UUID) ([]match.JobMatch, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobMatchColumns+` FROM job_matches WHERE worker_id = $1 ORDER BY created_at DESC`,
		workerID,
	)
	if err != nil {
		return nil, err
	}
	return collectJobMatches(rows)
}

func (r *PostgresJobMatchRepository) Unlock(ctx context.Context, rec UnlockRecord) (ok bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil || !ok {
			_ = tx.Rollback(ctx)
		}
	}()

	n, err := tx.Exec(ctx,
		`UPDATE job_matches
		 SET status = $2, unlocked_at = $3, payment_ref = $4
		 WHERE id = $1 AND status = $5`,
		rec.MatchID, string(match.StatusUnlocked), rec.At, rec.PaymentRef, string(match.StatusAccepted),
	)
	if err != nil {
		return false, err
	}
	if n != 1 {
		return false, nil
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO match_unlocks (match_id, payment_ref, amount, currency, unlocked_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		rec.MatchID, rec.PaymentRef, rec.Amount, rec.Currency, rec.At,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if strings.Contains(pgErr.ConstraintName, "payment_ref") {
				return false, ErrDuplicatePaymentRef
			}
			return false, nil
		}
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func scanJobMatch(row database.Row) (match.JobMatch, error) {
	var (
		m      match.JobMatch
		status string
	)
	if err := row.Scan(
		&m.ID, &m.JobID, &m.WorkerID, &m.EmployerID, &m.Score, &m.DistanceKm, &status,
		&m.CreatedAt, &m.ResponseDeadline, &m.RespondedAt, &m.UnlockedAt, &m.PaymentRef, &m.LeadPrice,
	); err != nil {
		return match.JobMatch{}, err
	}
	st, err := match.ParseStatus(status)
	if err != nil {
		return match.JobMatch{}, err
	}
	m.Status = st
	return m, nil
}

func collectJobMatches(rows database.Rows) ([]match.JobMatch, error) {
	defer rows.Close()

	out := make([]match.JobMatch, 0)
	for rows.Next() {
		m, err := scanJobMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func statusStrings(statuses []match.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
