package database

import (
	"context"
	"log/slog"
	"os"

	"grc-risk/internal/apperr"
	"grc-risk/internal/models"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DefaultSeed is loaded into an empty table on first start.
var DefaultSeed = []models.RiskInput{
	{Asset: "Customer Database", Threat: "Unauthorized Access", Likelihood: 5, Impact: 5},
	{Asset: "Web Application", Threat: "SQL Injection", Likelihood: 4, Impact: 5},
	{Asset: "Cloud Storage", Threat: "Misconfiguration", Likelihood: 3, Impact: 4},
	{Asset: "Internal Network", Threat: "Ransomware", Likelihood: 4, Impact: 4},
	{Asset: "Backup Server", Threat: "Backup Failure", Likelihood: 2, Impact: 4},
	{Asset: "Email System", Threat: "Phishing Attack", Likelihood: 5, Impact: 3},
	{Asset: "HR System", Threat: "Insider Data Leak", Likelihood: 2, Impact: 5},
	{Asset: "API Gateway", Threat: "DDoS Attack", Likelihood: 3, Impact: 4},
}

type seedFile struct {
	Risks []models.RiskInput `yaml:"risks"`
}

// LoadSeedFile reads a YAML document of the form
//
//	risks:
//	  - asset: Web Application
//	    threat: SQL Injection
//	    likelihood: 4
//	    impact: 5
func LoadSeedFile(path string) ([]models.RiskInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read seed file", goerr.V("path", path))
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, goerr.Wrap(err, "failed to parse seed file", goerr.V("path", path))
	}
	if len(f.Risks) == 0 {
		return nil, goerr.New("seed file has no risks", goerr.V("path", path))
	}
	return f.Risks, nil
}

// Seed inserts the given risks only if the table is empty. The count check
// and the inserts share one transaction. It returns how many rows were added.
func (s *Store) Seed(ctx context.Context, inputs []models.RiskInput) (int, error) {
	logger := ctxlog.From(ctx)

	risks := make([]models.Risk, 0, len(inputs))
	for i, in := range inputs {
		r, err := in.Validate()
		if err != nil {
			return 0, goerr.Wrap(err, "invalid seed entry",
				goerr.V("index", i),
				goerr.V("asset", in.Asset))
		}
		risks = append(risks, r)
	}

	inserted := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Risk{}).Count(&count).Error; err != nil {
			return goerr.Wrap(err, "failed to check existing risks", goerr.T(apperr.ErrTagStorage))
		}
		if count > 0 {
			logger.Info("risks already exist, skipping seed", slog.Int64("count", count))
			return nil
		}
		if len(risks) == 0 {
			return nil
		}

		if err := tx.Create(&risks).Error; err != nil {
			return goerr.Wrap(err, "failed to insert seed risks", goerr.T(apperr.ErrTagStorage))
		}
		inserted = len(risks)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		logger.Info("default risks inserted", slog.Int("count", inserted))
	}
	return inserted, nil
}
