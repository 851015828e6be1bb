package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CheckoutStatus string

const (
	CheckoutPending   CheckoutStatus = "pending"
	CheckoutCompleted CheckoutStatus = "completed"
	CheckoutFailed    CheckoutStatus = "failed"
)

// CheckoutSession records every hand-off to the hosted checkout page.
// Completion is only learned later from the provider's webhook.
type CheckoutSession struct {
	BaseModel
	AccountID    uuid.UUID `gorm:"type:uuid;index"`
	PlanID       string
	NumberOfBeds int
	BoostEnabled bool
	PromoCode    string
	Status       CheckoutStatus `gorm:"index"`

	Provider           string `gorm:"index"`
	ProviderSessionID  string `gorm:"index"`
	ProviderCustomerID string
	CompletedAt        *int64 // unix millis

	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
}
