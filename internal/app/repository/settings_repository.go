package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/ujwegh/bookmart/internal/app/models"
)

// SettingsRepository reads and writes the single settings row seeded by
// the migrations.
type SettingsRepository interface {
	Get(ctx context.Context) (*models.Settings, error)
	Update(ctx context.Context, settings *models.Settings) error
	GetDB() *sqlx.DB
}

type SettingsRepositoryImpl struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepositoryImpl {
	return &SettingsRepositoryImpl{db: db}
}

func (sr *SettingsRepositoryImpl) Get(ctx context.Context) (*models.Settings, error) {
	query := `SELECT * FROM settings WHERE id = 1;`
	settings := models.Settings{}
	err := sr.db.GetContext(ctx, &settings, query)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return &settings, nil
}

func (sr *SettingsRepositoryImpl) Update(ctx context.Context, settings *models.Settings) error {
	query := `UPDATE settings
			  SET deposit_perc            = $1,
				  borrow_perc             = $2,
				  delay_perc              = $3,
				  delivery_fees           = $4,
				  min_borrow_fee          = $5,
				  max_num_of_borrow_books = $6
			  WHERE id = 1;`
	_, err := sr.db.ExecContext(ctx, query, settings.DepositPerc, settings.BorrowPerc,
		settings.DelayPerc, settings.DeliveryFees, settings.MinBorrowFee, settings.MaxNumOfBorrowBooks)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func (sr *SettingsRepositoryImpl) GetDB() *sqlx.DB {
	return sr.db
}
