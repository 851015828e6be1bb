package repositories

import (
	"context"
	"errors"

	"carenest/internal/models/db_models"

	"gorm.io/gorm"
)

type IPlanRepository interface {
	GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error)
	GetAllPlans(ctx context.Context) ([]db_models.Plan, error)
}

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) IPlanRepository {
	return &PlanRepository{db: db}
}

func (p PlanRepository) GetPlanByCode(ctx context.Context, code string) (*db_models.Plan, error) {
	var plan db_models.Plan
	err := p.db.WithContext(ctx).
		Where("code = ? AND is_active = TRUE", code).
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &plan, nil
}

func (p PlanRepository) GetAllPlans(ctx context.Context) ([]db_models.Plan, error) {
	var plans []db_models.Plan
	err := p.db.WithContext(ctx).
		Where("is_active = TRUE").
		Order("sort_order ASC, price_per_bed_minor ASC").
		Find(&plans).Error

	if err != nil {
		return nil, err
	}

	return plans, nil
}
