package seeder

import (
	"time"

	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/job"
	"shift-match/internal/domain/schedule"
	"shift-match/internal/domain/worker"

	"github.com/google/uuid"
)

var demoNamespace = uuid.MustParse("5b0f3a52-6f0e-4c1e-9a43-2f1d8c7e9b10")

// DemoID derives a stable id so repeated seeding stays idempotent.
func DemoID(name string) uuid.UUID {
	return uuid.NewSHA1(demoNamespace, []byte(name))
}

type WorkerSeed struct {
	Worker  worker.Worker
	Contact worker.Contact
}

type Demo struct {
	Jobs    []job.Job
	Workers []WorkerSeed
}

// DemoData is a small Mumbai dataset: two published jobs and workers at
// varying distances, one of them too far and one not yet verified.
func DemoData(now time.Time) Demo {
	cafe := geo.Point{Lat: 19.0760, Lng: 72.8777}
	warehouse := geo.Point{Lat: 19.1136, Lng: 72.8697}
	employer := DemoID("employer/bandra-cafe")
	registered := now.Add(-30 * 24 * time.Hour).UTC().Truncate(time.Second)

	weekend := []schedule.Window{
		schedule.MustWindow(time.Saturday, "10:00", "16:00"),
		schedule.MustWindow(time.Sunday, "10:00", "16:00"),
	}
	nights := []schedule.Window{schedule.MustWindow(time.Friday, "22:00", "06:00")}

	return Demo{
		Jobs: []job.Job{
			{
				ID:                  DemoID("job/weekend-barista"),
				EmployerID:          employer,
				Title:               "Weekend barista",
				Location:            cafe,
				Skills:              []string{"barista", "cash handling"},
				MinExperienceMonths: 3,
				Windows:             weekend,
				Status:              job.StatusPublished,
				WorkersNeeded:       2,
				RadiusKm:            15,
			},
			{
				ID:              DemoID("job/night-loader"),
				EmployerID:      employer,
				Title:           "Night shift loader",
				Location:        warehouse,
				Skills:          []string{"forklift", "lifting"},
				SkillsPreferred: true,
				Windows:         nights,
				Status:          job.StatusPublished,
				WorkersNeeded:   1,
			},
		},
		Workers: []WorkerSeed{
			demoWorker("asha", geo.Point{Lat: 19.0820, Lng: 72.8800}, weekend, []string{"Barista", "Cash Handling"}, 14, worker.StatusActive, registered, "Asha Rao", "+91-98200-10001"),
			demoWorker("vikram", geo.Point{Lat: 19.1200, Lng: 72.8900}, weekend, []string{"barista", "cash handling", "latte art"}, 4, worker.StatusActive, registered.Add(time.Hour), "Vikram Shah", "+91-98200-10002"),
			demoWorker("meera", geo.Point{Lat: 19.1100, Lng: 72.8600}, []schedule.Window{schedule.MustWindow(time.Friday, "20:00", "08:00")},
				[]string{"lifting"}, 24, worker.StatusActive, registered, "Meera Pillai", "+91-98200-10003"),
			demoWorker("rohan", geo.Point{Lat: 18.5204, Lng: 73.8567}, weekend, []string{"barista", "cash handling"}, 36, worker.StatusActive, registered, "Rohan Kulkarni", "+91-98200-10004"),
			demoWorker("sana", geo.Point{Lat: 19.0700, Lng: 72.8700}, weekend, []string{"barista", "cash handling"}, 8, worker.StatusPendingVerification, registered, "Sana Khan", "+91-98200-10005"),
		},
	}
}

func demoWorker(name string, at geo.Point, windows []schedule.Window, skills []string, months int, status worker.Status, registered time.Time, fullName, phone string) WorkerSeed {
	return WorkerSeed{
		Worker: worker.Worker{
			ID:               DemoID("worker/" + name),
			Location:         at,
			Windows:          windows,
			Skills:           skills,
			ExperienceMonths: months,
			Status:           status,
			RegisteredAt:     registered,
		},
		Contact: worker.Contact{FullName: fullName, Phone: phone, WhatsApp: phone},
	}
}
