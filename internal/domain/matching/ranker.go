package matching

import (
	"math"
	"sort"

	"shift-match/internal/domain/geo"
	"shift-match/internal/domain/job"
	"shift-match/internal/domain/schedule"
	"shift-match/internal/domain/worker"
)

// Gate names the eligibility check a candidate failed.
type Gate string

const (
	GateNone         Gate = ""
	GateStatus       Gate = "status"
	GateDistance     Gate = "distance"
	GateAvailability Gate = "availability"
	GateSkills       Gate = "skills"
	GateExperience   Gate = "experience"
)

type Evaluation struct {
	Eligible      bool
	Failed        Gate
	DistanceKm    float64
	Proximity     float64
	SkillFit      float64
	ExperienceFit float64
	Score         float64
}

type Ranked struct {
	Worker     worker.Worker
	Score      float64
	DistanceKm float64
}

// Ranker scores and orders workers for a job. It holds no mutable state and is
// safe for concurrent use.
type Ranker struct {
	cfg Config
}

func NewRanker(cfg Config) (*Ranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Ranker{cfg: cfg}, nil
}

func (r *Ranker) Config() Config {
	return r.cfg
}

// Radius is the job's search radius in km.
func (r *Ranker) Radius(j job.Job) float64 {
	if j.RadiusKm > 0 {
		return j.RadiusKm
	}
	return r.cfg.MaxRadiusKm
}

// Limit is the maximum number of offers created for the job: MaxMatches (or
// DefaultMaxMatches) capped at WorkersNeeded*CandidateMultiplier. With the
// default multiplier of 3 a single-seat job gets at most 3 offers, not 5.
func (r *Ranker) Limit(j job.Job) int {
	limit := j.MaxMatches
	if limit <= 0 {
		limit = r.cfg.DefaultMaxMatches
	}
	if r.cfg.CandidateMultiplier > 0 {
		limit = min(limit, j.Needed()*r.cfg.CandidateMultiplier)
	}
	return limit
}

// Evaluate applies the eligibility gates in order and, if all pass, scores the
// candidate.
func (r *Ranker) Evaluate(j job.Job, w worker.Worker) Evaluation {
	if w.Status != worker.StatusActive {
		return Evaluation{Failed: GateStatus}
	}

	radius := r.Radius(j)
	dist := geo.Haversine(j.Location, w.Location)
	limit := radius
	if w.MaxCommuteKm > 0 && w.MaxCommuteKm < limit {
		limit = w.MaxCommuteKm
	}
	if dist > limit {
		return Evaluation{Failed: GateDistance, DistanceKm: dist}
	}

	if !schedule.Covers(j.Windows, w.Windows, r.cfg.MinOverlapMinutes) {
		return Evaluation{Failed: GateAvailability, DistanceKm: dist}
	}

	skillFit := SkillFit(j.Skills, w.Skills)
	if j.SkillsPreferred {
		if skillFit < r.cfg.PreferredSkillThreshold {
			return Evaluation{Failed: GateSkills, DistanceKm: dist, SkillFit: skillFit}
		}
	} else if skillFit < 1 {
		return Evaluation{Failed: GateSkills, DistanceKm: dist, SkillFit: skillFit}
	}

	if w.ExperienceMonths < j.MinExperienceMonths {
		return Evaluation{Failed: GateExperience, DistanceKm: dist, SkillFit: skillFit}
	}

	proximity := clampFloat(1-dist/radius, 0, 1)
	expFit := ExperienceFit(w.ExperienceMonths, j.MinExperienceMonths)
	score := r.cfg.ProximityWeight*proximity + r.cfg.SkillWeight*skillFit + r.cfg.ExperienceWeight*expFit

	return Evaluation{
		Eligible:      true,
		DistanceKm:    dist,
		Proximity:     proximity,
		SkillFit:      skillFit,
		ExperienceFit: expFit,
		Score:         roundScore(score),
	}
}

// Rank filters candidates through the eligibility gates and returns the
// survivors ordered by score, earlier registration, then id. The result is
// truncated to Limit(j). Identical inputs always give identical output.
func (r *Ranker) Rank(j job.Job, candidates []worker.Worker) []Ranked {
	out := make([]Ranked, 0, len(candidates))
	for _, w := range candidates {
		ev := r.Evaluate(j, w)
		if !ev.Eligible {
			continue
		}
		out = append(out, Ranked{Worker: w, Score: ev.Score, DistanceKm: ev.DistanceKm})
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		ra, rb := out[a].Worker.RegisteredAt, out[b].Worker.RegisteredAt
		if !ra.Equal(rb) {
			return ra.Before(rb)
		}
		return out[a].Worker.ID.String() < out[b].Worker.ID.String()
	})

	if limit := r.Limit(j); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func roundScore(v float64) float64 {
	return math.Round(clampFloat(v, 0, 1)*1e6) / 1e6
}
