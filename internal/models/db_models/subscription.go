package db_models

import "github.com/google/uuid"

type SubscriptionState string

const (
	SubStateActive   SubscriptionState = "active"
	SubStateCanceled SubscriptionState = "canceled"
	SubStateExpired  SubscriptionState = "expired"
	SubStateNone     SubscriptionState = "none"
)

// SubscriptionStatus is the denormalized per-user mirror of the provider's
// subscription record. Rows are never deleted, only moved to canceled/expired.
type SubscriptionStatus struct {
	UserID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	SubscriptionID   string    `gorm:"index"`
	PlanID           string
	Status           SubscriptionState `gorm:"index"`
	BedsCount        int               `gorm:"not null;default:1"`
	HasBoost         bool              `gorm:"default:false"`
	CurrentPeriodEnd *int64            // unix millis
	UpdatedAt        int64             `gorm:"autoUpdateTime:false;not null"` // unix millis, last-write-wins key
}

func (SubscriptionStatus) TableName() string { return "subscription_statuses" }

func (s SubscriptionStatus) IsActive() bool { return s.Status == SubStateActive }
