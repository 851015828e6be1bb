package db_models

type PromoCode struct {
	BaseModel
	Code                string  `gorm:"uniqueIndex"`
	DiscountPercentage  float64 `gorm:"not null"`
	Active              bool    `gorm:"default:true"`
	ExpiresAt           *int64  // unix seconds
	MaxRedemptions      *int
	Redemptions         int    `gorm:"default:0"`
	ProviderPromotionID string // matching promotion code at the billing provider, if any
}
