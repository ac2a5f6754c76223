package matching

import (
	"sort"
	"strings"
)

// NormalizeSkills lower-cases, trims and de-duplicates skill names and
// returns them sorted.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.Join(strings.Fields(s), " "))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func skillSet(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range NormalizeSkills(skills) {
		set[s] = struct{}{}
	}
	return set
}

// SkillFit is |job ∩ worker| / |job|, or 1 when the job lists no skills.
func SkillFit(jobSkills, workerSkills []string) float64 {
	required := skillSet(jobSkills)
	if len(required) == 0 {
		return 1
	}
	have := skillSet(workerSkills)
	matched := 0
	for s := range required {
		if _, ok := have[s]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(required))
}

// HasAllSkills reports whether workerSkills is a superset of jobSkills.
func HasAllSkills(jobSkills, workerSkills []string) bool {
	return SkillFit(jobSkills, workerSkills) == 1
}

// ExperienceFit is min(1, have / max(1, required)).
func ExperienceFit(haveMonths, requiredMonths int) float64 {
	if haveMonths <= 0 {
		return 0
	}
	denom := requiredMonths
	if denom < 1 {
		denom = 1
	}
	return clampFloat(float64(haveMonths)/float64(denom), 0, 1)
}

func clampFloat(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
