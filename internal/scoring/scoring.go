package scoring

// Level is the qualitative bucket of a risk score.
type Level string

const (
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"
	LevelUnknown  Level = "Unknown"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Levels lists the valid levels from lowest to highest.
var Levels = []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}

var hints = map[Level]string{
	LevelLow:      "Accept / monitor",
	LevelMedium:   "Plan mitigation within 6 months",
	LevelHigh:     "Prioritize action + compensating controls (NIST PR.AC)",
	LevelCritical: "Immediate mitigation required + executive reporting",
}

// Assessment is the derived part of a risk record.
type Assessment struct {
	Score          int    `json:"score"`
	Level          Level  `json:"level"`
	MitigationHint string `json:"mitigation_hint"`
}

// ComputeScore expects both ratings to be validated by the caller.
func ComputeScore(likelihood, impact int) int {
	return likelihood * impact
}

// ClassifyLevel never fails: scores outside 1..25 map to LevelUnknown.
func ClassifyLevel(score int) Level {
	switch {
	case score >= 1 && score <= 5:
		return LevelLow
	case score >= 6 && score <= 12:
		return LevelMedium
	case score >= 13 && score <= 18:
		return LevelHigh
	case score >= 19 && score <= 25:
		return LevelCritical
	default:
		return LevelUnknown
	}
}

func MitigationHint(level Level) string {
	return hints[level]
}

func Assess(likelihood, impact int) Assessment {
	score := ComputeScore(likelihood, impact)
	level := ClassifyLevel(score)
	return Assessment{
		Score:          score,
		Level:          level,
		MitigationHint: MitigationHint(level),
	}
}

// IsHighOrCritical reports whether a level counts toward the high/critical total.
func IsHighOrCritical(level Level) bool {
	return level == LevelHigh || level == LevelCritical
}

// ParseLevel matches a level name exactly; unknown names return false.
func ParseLevel(s string) (Level, bool) {
	for _, l := range Levels {
		if string(l) == s {
			return l, true
		}
	}
	return LevelUnknown, false
}

func InRange(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}
