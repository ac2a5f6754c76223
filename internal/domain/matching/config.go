package matching

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidConfig = errors.New("invalid matching config")

type Config struct {
	MaxRadiusKm             float64
	ProximityWeight         float64
	SkillWeight             float64
	ExperienceWeight        float64
	DefaultMaxMatches       int
	PreferredSkillThreshold float64
	// MinOverlapMinutes <= 0 requires every job window to be fully covered.
	MinOverlapMinutes int
	// CandidateMultiplier > 0 caps offers at WorkersNeeded * CandidateMultiplier.
	CandidateMultiplier int
}

func DefaultConfig() Config {
	return Config{
		MaxRadiusKm:             25,
		ProximityWeight:         0.4,
		SkillWeight:             0.4,
		ExperienceWeight:        0.2,
		DefaultMaxMatches:       5,
		PreferredSkillThreshold: 0.5,
		CandidateMultiplier:     3,
	}
}

const weightTolerance = 1e-9

func (c Config) Validate() error {
	if c.MaxRadiusKm <= 0 {
		return fmt.Errorf("%w: max radius must be positive", ErrInvalidConfig)
	}
	for name, w := range map[string]float64{
		"proximity":  c.ProximityWeight,
		"skill":      c.SkillWeight,
		"experience": c.ExperienceWeight,
	} {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("%w: %s weight must be non-negative", ErrInvalidConfig, name)
		}
	}
	sum := c.ProximityWeight + c.SkillWeight + c.ExperienceWeight
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1.0", ErrInvalidConfig, sum)
	}
	if c.DefaultMaxMatches < 1 {
		return fmt.Errorf("%w: default max matches must be at least 1", ErrInvalidConfig)
	}
	if c.PreferredSkillThreshold < 0 || c.PreferredSkillThreshold > 1 {
		return fmt.Errorf("%w: preferred skill threshold must be within [0,1]", ErrInvalidConfig)
	}
	if c.CandidateMultiplier < 0 {
		return fmt.Errorf("%w: candidate multiplier must not be negative", ErrInvalidConfig)
	}
	return nil
}
