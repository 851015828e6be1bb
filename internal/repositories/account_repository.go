package repositories

import (
	"context"
	"errors"

	"carenest/internal/models/db_models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AccountRepository interface {
	FindById(ctx context.Context, id uuid.UUID) (*db_models.Account, error)
	FindByBillingCustomerID(ctx context.Context, customerID string) (*db_models.Account, error)
	SetBillingCustomerID(ctx context.Context, id uuid.UUID, email, customerID string) error
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (a *accountRepository) FindById(ctx context.Context, id uuid.UUID) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "id = ?", id).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

func (a *accountRepository) FindByBillingCustomerID(ctx context.Context, customerID string) (*db_models.Account, error) {
	var account db_models.Account
	err := a.db.WithContext(ctx).First(&account, "billing_customer_id = ?", customerID).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &account, nil
}

// SetBillingCustomerID creates the account row on first checkout; identities live
// with the external session provider, so the row may not exist yet.
func (a *accountRepository) SetBillingCustomerID(ctx context.Context, id uuid.UUID, email, customerID string) error {
	account := db_models.Account{
		BaseModel:         db_models.BaseModel{ID: id},
		Email:             email,
		BillingCustomerID: customerID,
	}
	return a.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"billing_customer_id", "updated_at"}),
	}).Create(&account).Error
}
