package database

import (
	"context"
	"errors"

	"grc-risk/internal/aggregate"
	"grc-risk/internal/apperr"
	"grc-risk/internal/models"

	"github.com/m-mizutani/goerr/v2"
	"gorm.io/gorm"
)

// CreateRisk inserts a validated record and fills in ID and CreatedAt.
func (s *Store) CreateRisk(ctx context.Context, risk *models.Risk) error {
	if err := s.db.WithContext(ctx).Create(risk).Error; err != nil {
		return goerr.Wrap(err, "failed to insert risk",
			goerr.T(apperr.ErrTagStorage),
			goerr.V("asset", risk.Asset))
	}
	return nil
}

// ListRisks returns risks by score desc, then newest first. An empty level
// returns every risk.
func (s *Store) ListRisks(ctx context.Context, level string) ([]models.Risk, error) {
	q := s.db.WithContext(ctx).Order("score desc, created_at desc, id desc")
	if level != "" {
		q = q.Where("level = ?", level)
	}

	risks := []models.Risk{}
	if err := q.Find(&risks).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to fetch risks",
			goerr.T(apperr.ErrTagStorage),
			goerr.V("level", level))
	}
	return risks, nil
}

// AllRisks returns every risk in insertion order.
func (s *Store) AllRisks(ctx context.Context) ([]models.Risk, error) {
	risks := []models.Risk{}
	if err := s.db.WithContext(ctx).Order("id asc").Find(&risks).Error; err != nil {
		return nil, goerr.Wrap(err, "failed to fetch risks", goerr.T(apperr.ErrTagStorage))
	}
	return risks, nil
}

func (s *Store) GetRisk(ctx context.Context, id uint) (models.Risk, error) {
	var risk models.Risk
	err := s.db.WithContext(ctx).First(&risk, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Risk{}, goerr.New("risk not found",
			goerr.T(apperr.ErrTagNotFound),
			goerr.V("id", id))
	}
	if err != nil {
		return models.Risk{}, goerr.Wrap(err, "failed to fetch risk",
			goerr.T(apperr.ErrTagStorage),
			goerr.V("id", id))
	}
	return risk, nil
}

// DeleteRisk hard-deletes a record. A missing id is reported as not found
// and leaves the table untouched.
func (s *Store) DeleteRisk(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Risk{}, id)
	if res.Error != nil {
		return goerr.Wrap(res.Error, "failed to delete risk",
			goerr.T(apperr.ErrTagStorage),
			goerr.V("id", id))
	}
	if res.RowsAffected == 0 {
		return goerr.New("risk not found",
			goerr.T(apperr.ErrTagNotFound),
			goerr.V("id", id))
	}
	return nil
}

func (s *Store) CountRisks(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Risk{}).Count(&count).Error; err != nil {
		return 0, goerr.Wrap(err, "failed to count risks", goerr.T(apperr.ErrTagStorage))
	}
	return count, nil
}

func (s *Store) Stats(ctx context.Context) (aggregate.Stats, error) {
	risks, err := s.AllRisks(ctx)
	if err != nil {
		return aggregate.Stats{}, err
	}
	return aggregate.ComputeStats(risks), nil
}

func (s *Store) Heatmap(ctx context.Context) (aggregate.Heatmap, error) {
	risks, err := s.AllRisks(ctx)
	if err != nil {
		return nil, err
	}
	return aggregate.ComputeHeatmap(risks), nil
}
