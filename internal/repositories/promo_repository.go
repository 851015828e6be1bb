package repositories

import (
	"context"
	"errors"
	"strings"

	"carenest/internal/models/db_models"

	"gorm.io/gorm"
)

type PromoCodeRepository interface {
	FindByCode(ctx context.Context, code string) (*db_models.PromoCode, error)
}

type promoCodeRepository struct {
	db *gorm.DB
}

func NewPromoCodeRepository(db *gorm.DB) PromoCodeRepository {
	return &promoCodeRepository{db: db}
}

// FindByCode matches case-insensitively; owners type codes by hand.
func (p *promoCodeRepository) FindByCode(ctx context.Context, code string) (*db_models.PromoCode, error) {
	var promo db_models.PromoCode
	err := p.db.WithContext(ctx).
		Where("UPPER(code) = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&promo).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &promo, nil
}
