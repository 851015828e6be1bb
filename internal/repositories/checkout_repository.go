package repositories

import (
	"context"
	"time"

	"carenest/internal/models/db_models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CheckoutRepository interface {
	Create(ctx context.Context, session *db_models.CheckoutSession) error
	AttachProviderSession(ctx context.Context, id uuid.UUID, providerSessionID string, metadata datatypes.JSON) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
	// MarkCompleted is idempotent: already-completed rows are left untouched.
	MarkCompleted(ctx context.Context, providerSessionID, customerID string) error
}

type checkoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) CheckoutRepository {
	return &checkoutRepository{db: db}
}

func (c *checkoutRepository) Create(ctx context.Context, session *db_models.CheckoutSession) error {
	return c.db.WithContext(ctx).Create(session).Error
}

func (c *checkoutRepository) AttachProviderSession(ctx context.Context, id uuid.UUID, providerSessionID string, metadata datatypes.JSON) error {
	return c.db.WithContext(ctx).
		Model(&db_models.CheckoutSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"provider_session_id": providerSessionID,
			"metadata":            metadata,
		}).Error
}

func (c *checkoutRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	return c.db.WithContext(ctx).
		Model(&db_models.CheckoutSession{}).
		Where("id = ? AND status = ?", id, db_models.CheckoutPending).
		Update("status", db_models.CheckoutFailed).Error
}

func (c *checkoutRepository) MarkCompleted(ctx context.Context, providerSessionID, customerID string) error {
	return c.db.WithContext(ctx).
		Model(&db_models.CheckoutSession{}).
		Where("provider_session_id = ? AND status <> ?", providerSessionID, db_models.CheckoutCompleted).
		Updates(map[string]interface{}{
			"status":               db_models.CheckoutCompleted,
			"provider_customer_id": customerID,
			"completed_at":         time.Now().UnixMilli(),
		}).Error
}
