package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
)

const settingsCacheKey = "settings"

type (
	// SettingsService serves the global fee parameters through a small
	// read-through cache so that every order does not hit the settings
	// row.
	SettingsService interface {
		Get(ctx context.Context) (*models.Settings, error)
		Update(ctx context.Context, settings *models.Settings) (*models.Settings, error)
	}
	SettingsServiceImpl struct {
		settingsRepo repository.SettingsRepository
		cache        *cache.Cache
	}
)

func NewSettingsService(settingsRepo repository.SettingsRepository, cacheTTL time.Duration) *SettingsServiceImpl {
	return &SettingsServiceImpl{
		settingsRepo: settingsRepo,
		cache:        cache.New(cacheTTL, 2*cacheTTL),
	}
}

func (ss *SettingsServiceImpl) Get(ctx context.Context) (*models.Settings, error) {
	if cached, ok := ss.cache.Get(settingsCacheKey); ok {
		return cached.(*models.Settings), nil
	}
	settings, err := ss.settingsRepo.Get(ctx)
	if err != nil {
		return nil, appErrors.New(err, "get settings")
	}
	ss.cache.SetDefault(settingsCacheKey, settings)
	return settings, nil
}

func (ss *SettingsServiceImpl) Update(ctx context.Context, settings *models.Settings) (*models.Settings, error) {
	err := validateSettings(settings)
	if err != nil {
		return nil, err
	}
	err = ss.settingsRepo.Update(ctx, settings)
	if err != nil {
		return nil, appErrors.New(err, "update settings")
	}
	ss.cache.Delete(settingsCacheKey)
	return ss.Get(ctx)
}

func validateSettings(settings *models.Settings) error {
	percents := []decimal.Decimal{settings.DepositPerc, settings.BorrowPerc, settings.DelayPerc}
	for _, p := range percents {
		if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
			return appErrors.NewValidation("Percentages must be between 0 and 100")
		}
	}
	if settings.DeliveryFees.IsNegative() || settings.MinBorrowFee.IsNegative() {
		return appErrors.NewValidation("Fees must not be negative")
	}
	if settings.MaxNumOfBorrowBooks < 1 {
		return appErrors.NewValidation("Max number of borrowed books must be at least 1")
	}
	return nil
}
