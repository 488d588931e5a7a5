package models

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"grc-risk/internal/apperr"
	"grc-risk/internal/scoring"

	"github.com/m-mizutani/goerr/v2"
)

const (
	msgRequired   = "Asset and threat are required"
	msgNotInteger = "Invalid range: Likelihood and Impact must be integers between 1-5."
	msgOutOfRange = "Invalid range: Likelihood and Impact must be 1–5."
)

// Risk is the only persisted entity. Score and Level are derived from
// Likelihood and Impact at creation and never supplied by a client.
type Risk struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	Asset      string        `gorm:"type:text;not null" json:"asset"`
	Threat     string        `gorm:"type:text;not null" json:"threat"`
	Likelihood int           `gorm:"not null" json:"likelihood"`
	Impact     int           `gorm:"not null" json:"impact"`
	Score      int           `gorm:"not null;index" json:"score"`
	Level      scoring.Level `gorm:"type:varchar(16);not null;index" json:"level"`
	CreatedAt  time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

// RiskView is a Risk enriched with its mitigation hint.
type RiskView struct {
	Risk
	MitigationHint string `json:"mitigation_hint"`
}

// NewRisk builds an unsaved record; ratings must already be validated.
func NewRisk(asset, threat string, likelihood, impact int) Risk {
	a := scoring.Assess(likelihood, impact)
	return Risk{
		Asset:      asset,
		Threat:     threat,
		Likelihood: likelihood,
		Impact:     impact,
		Score:      a.Score,
		Level:      a.Level,
	}
}

func (r Risk) View() RiskView {
	return RiskView{
		Risk:           r,
		MitigationHint: scoring.MitigationHint(r.Level),
	}
}

func Views(risks []Risk) []RiskView {
	views := make([]RiskView, 0, len(risks))
	for _, r := range risks {
		views = append(views, r.View())
	}
	return views
}

// RiskInput is an unvalidated assessment request. Likelihood and Impact are
// kept loosely typed so that strings and fractions can be rejected as
// non-integers instead of failing JSON decoding.
type RiskInput struct {
	Asset      string `json:"asset" yaml:"asset" form:"asset"`
	Threat     string `json:"threat" yaml:"threat" form:"threat"`
	Likelihood any    `json:"likelihood" yaml:"likelihood" form:"likelihood"`
	Impact     any    `json:"impact" yaml:"impact" form:"impact"`
}

// Validate checks presence, integrality and range, in that order, and
// returns the scored record on success.
func (in RiskInput) Validate() (Risk, error) {
	asset := strings.TrimSpace(in.Asset)
	threat := strings.TrimSpace(in.Threat)
	if asset == "" || threat == "" {
		return Risk{}, goerr.New(msgRequired, goerr.T(apperr.ErrTagValidation))
	}

	likelihood, ok1 := asInteger(in.Likelihood)
	impact, ok2 := asInteger(in.Impact)
	if !ok1 || !ok2 {
		return Risk{}, goerr.New(msgNotInteger,
			goerr.T(apperr.ErrTagValidation),
			goerr.V("likelihood", in.Likelihood),
			goerr.V("impact", in.Impact))
	}

	if !scoring.InRange(likelihood) || !scoring.InRange(impact) {
		return Risk{}, goerr.New(msgOutOfRange,
			goerr.T(apperr.ErrTagValidation),
			goerr.V("likelihood", likelihood),
			goerr.V("impact", impact))
	}

	return NewRisk(asset, threat, likelihood, impact), nil
}

func asInteger(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) || n != math.Trunc(n) {
			return 0, false
		}
		// still an integer, just far out of range; 0 fails the range check
		if math.Abs(n) > math.MaxInt32 {
			return 0, true
		}
		return int(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return asInteger(f)
	default:
		return 0, false
	}
}
