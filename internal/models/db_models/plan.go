package db_models

import "github.com/lib/pq"

type Plan struct {
	BaseModel
	Code             string `gorm:"uniqueIndex"` // "basic" | "pro" | "elite"
	Name             string
	Description      *string
	PricePerBedMinor int64          // 1499 = $14.99 per bed per month
	Currency         string         `gorm:"size:3"`
	Features         pq.StringArray `gorm:"type:text[]"`
	Recommended      bool           `gorm:"default:false"`
	SortOrder        int            `gorm:"default:0"`
	IsActive         bool           `gorm:"default:true"`
	ProviderPriceID  string         // price object at the billing provider
}
