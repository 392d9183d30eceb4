package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
)

type (
	PromoCodeService interface {
		Create(ctx context.Context, code string, discountPerc decimal.Decimal, isActive bool) (*models.PromoCode, error)
		Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
		GetAll(ctx context.Context) (*[]models.PromoCode, error)
	}
	PromoCodeServiceImpl struct {
		promoCodeRepo repository.PromoCodeRepository
	}
)

func NewPromoCodeService(promoCodeRepo repository.PromoCodeRepository) *PromoCodeServiceImpl {
	return &PromoCodeServiceImpl{promoCodeRepo: promoCodeRepo}
}

func validatePromoCode(code string, discountPerc decimal.Decimal) error {
	if code == "" {
		return appErrors.NewValidation("Promo code must not be empty")
	}
	if discountPerc.LessThanOrEqual(decimal.Zero) || discountPerc.GreaterThan(decimal.NewFromInt(100)) {
		return appErrors.NewValidation("Discount percentage must be between 0 and 100")
	}
	return nil
}

func (ps *PromoCodeServiceImpl) Create(ctx context.Context, code string, discountPerc decimal.Decimal, isActive bool) (*models.PromoCode, error) {
	err := validatePromoCode(code, discountPerc)
	if err != nil {
		return nil, err
	}
	promo := models.PromoCode{
		Code:         code,
		DiscountPerc: discountPerc,
		IsActive:     isActive,
	}
	err = ps.promoCodeRepo.Create(ctx, &promo)
	if err != nil {
		return nil, appErrors.New(err, "create promo code")
	}
	return &promo, nil
}

func (ps *PromoCodeServiceImpl) Update(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error) {
	err := validatePromoCode(promo.Code, promo.DiscountPerc)
	if err != nil {
		return nil, err
	}
	existing, err := ps.promoCodeRepo.GetByID(ctx, promo.ID)
	if err != nil {
		return nil, appErrors.New(err, "get promo code")
	}
	if existing == nil {
		return nil, appErrors.NewNotFound(fmt.Sprintf("Promo code with id %d not found", promo.ID))
	}
	err = ps.promoCodeRepo.Update(ctx, promo)
	if err != nil {
		return nil, err
	}
	return promo, nil
}

func (ps *PromoCodeServiceImpl) GetAll(ctx context.Context) (*[]models.PromoCode, error) {
	return ps.promoCodeRepo.GetAll(ctx)
}
