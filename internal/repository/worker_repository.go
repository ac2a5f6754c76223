package repository

import (
	"context"
	"database/sql"
	"errors"

	"shift-match/internal/database"
	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/worker"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type WorkerRepository interface {
	// ListActiveWithin returns active workers whose location falls inside box.
	ListActiveWithin(ctx context.Context, box geo.BoundingBox) ([]worker.Worker, error)
	GetContact(ctx context.Context, workerID uuid.UUID) (worker.Contact, error)
}

type PostgresWorkerRepository struct {
	db database.DB
}

func NewPostgresWorkerRepository(db database.DB) *PostgresWorkerRepository {
	return &PostgresWorkerRepository{db: db}
}

func (r *PostgresWorkerRepository) ListActiveWithin(ctx context.Context, box geo.BoundingBox) ([]worker.Worker, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, lat, lng, max_commute_km, windows, skills, experience_months, status, registered_at
		 FROM workers
		 WHERE status = $1
		   AND lat BETWEEN $2 AND $3
		   AND lng BETWEEN $4 AND $5
		 ORDER BY registered_at ASC, id ASC`,
		string(worker.StatusActive), box.MinLat, box.MaxLat, box.MinLng, box.MaxLng,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]worker.Worker, 0)
	for rows.Next() {
		var (
			w          worker.Worker
			status     string
			rawWindows []byte
		)
		if err := rows.Scan(&w.ID, &w.Location.Lat, &w.Location.Lng, &w.MaxCommuteKm, &rawWindows, &w.Skills, &w.ExperienceMonths, &status, &w.RegisteredAt); err != nil {
			return nil, err
		}
		if w.Status, err = worker.ParseStatus(status); err != nil {
			return nil, err
		}
		if w.Windows, err = decodeWindows(rawWindows); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresWorkerRepository) GetContact(ctx context.Context, workerID uuid.UUID) (worker.Contact, error) {
	var c worker.Contact
	row := r.db.QueryRow(ctx,
		`SELECT full_name, phone, COALESCE(whatsapp, '') FROM workers WHERE id = $1`,
		workerID,
	)
	if err := row.Scan(&c.FullName, &c.Phone, &c.WhatsApp); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return worker.Contact{}, worker.ErrNotFound
		}
		return worker.Contact{}, err
	}
	return c, nil
}
