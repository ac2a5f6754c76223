package seeder

import (
	"context"
	"encoding/json"
	"fmt"

	"shift-match/internal/database"
	"shift-match/internal/repository/memory"
)

type WorkersSeeder struct {
	Workers []WorkerSeed
}

func (WorkersSeeder) Name() string { return "workers" }

func (s WorkersSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "workers",
		"id", "full_name", "phone", "whatsapp", "lat", "lng", "max_commute_km",
		"windows", "skills", "experience_months", "status", "registered_at",
	); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for _, it := range s.Workers {
		w := it.Worker
		windows, err := json.Marshal(w.Windows)
		if err != nil {
			return fmt.Errorf("encode windows for %s: %w", w.ID, err)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO workers (id, full_name, phone, whatsapp, lat, lng, max_commute_km, windows, skills, experience_months, status, registered_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO NOTHING`,
			w.ID, it.Contact.FullName, it.Contact.Phone, it.Contact.WhatsApp,
			w.Location.Lat, w.Location.Lng, w.MaxCommuteKm, windows, w.Skills,
			w.ExperienceMonths, string(w.Status), w.RegisteredAt,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type JobsSeeder struct {
	Demo Demo
}

func (JobsSeeder) Name() string { return "jobs" }

func (s JobsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "jobs",
		"id", "employer_id", "title", "lat", "lng", "skills", "skills_preferred",
		"min_experience_months", "windows", "status", "max_matches", "workers_needed", "radius_km",
	); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for _, j := range s.Demo.Jobs {
		windows, err := json.Marshal(j.Windows)
		if err != nil {
			return fmt.Errorf("encode windows for %s: %w", j.ID, err)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO jobs (id, employer_id, title, lat, lng, skills, skills_preferred, min_experience_months, windows, status, max_matches, workers_needed, radius_km)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO NOTHING`,
			j.ID, j.EmployerID, j.Title, j.Location.Lat, j.Location.Lng, j.Skills, j.SkillsPreferred,
			j.MinExperienceMonths, windows, string(j.Status), j.MaxMatches, j.WorkersNeeded, j.RadiusKm,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SeedMemory loads d into an in-memory store.
func SeedMemory(store *memory.Store, d Demo) {
	for _, w := range d.Workers {
		store.PutWorker(w.Worker, w.Contact)
	}
	for _, j := range d.Jobs {
		store.PutJob(j)
	}
}
