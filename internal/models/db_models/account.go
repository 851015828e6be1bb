package db_models

type Account struct {
	BaseModel
	Name              string
	Email             string `gorm:"index"`
	BillingCustomerID string `gorm:"index"`
}
