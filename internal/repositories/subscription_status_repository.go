package repositories

import (
	"context"
	"errors"

	"carenest/internal/models/db_models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionStatusRepository interface {
	// Upsert writes row unless a newer row (by UpdatedAt) is already stored.
	// applied is false when the write lost the last-write-wins race.
	Upsert(ctx context.Context, row *db_models.SubscriptionStatus) (applied bool, err error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*db_models.SubscriptionStatus, error)
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*db_models.SubscriptionStatus, error)
}

type subscriptionStatusRepository struct {
	db *gorm.DB
}

func NewSubscriptionStatusRepository(db *gorm.DB) SubscriptionStatusRepository {
	return &subscriptionStatusRepository{db: db}
}

func (s *subscriptionStatusRepository) Upsert(ctx context.Context, row *db_models.SubscriptionStatus) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"subscription_id", "plan_id", "status", "beds_count",
			"has_boost", "current_period_end", "updated_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "subscription_statuses.updated_at <= excluded.updated_at"},
		}},
	}).Create(row)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *subscriptionStatusRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*db_models.SubscriptionStatus, error) {
	var row db_models.SubscriptionStatus
	err := s.db.WithContext(ctx).First(&row, "user_id = ?", userID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}

func (s *subscriptionStatusRepository) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*db_models.SubscriptionStatus, error) {
	var row db_models.SubscriptionStatus
	err := s.db.WithContext(ctx).First(&row, "subscription_id = ?", subscriptionID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &row, nil
}
