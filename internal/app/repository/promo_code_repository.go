package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
)

type PromoCodeRepository interface {
	Create(ctx context.Context, promo *models.PromoCode) error
	GetByID(ctx context.Context, id int64) (*models.PromoCode, error)
	Update(ctx context.Context, promo *models.PromoCode) error
	GetAll(ctx context.Context) (*[]models.PromoCode, error)
	GetDB() *sqlx.DB
}

type PromoCodeRepositoryImpl struct {
	db *sqlx.DB
}

func NewPromoCodeRepository(db *sqlx.DB) *PromoCodeRepositoryImpl {
	return &PromoCodeRepositoryImpl{db: db}
}

func (pr *PromoCodeRepositoryImpl) Create(ctx context.Context, promo *models.PromoCode) error {
	query := `INSERT INTO promo_codes (code, discount_perc, is_active) VALUES ($1, $2, $3) returning id;`
	err := pr.db.GetContext(ctx, &promo.ID, query, promo.Code, promo.DiscountPerc, promo.IsActive)
	if err != nil {
		return fmt.Errorf("create promo code: %w", err)
	}
	return nil
}

func (pr *PromoCodeRepositoryImpl) GetByID(ctx context.Context, id int64) (*models.PromoCode, error) {
	query := `SELECT * FROM promo_codes WHERE id = $1;`
	promo := models.PromoCode{}
	err := pr.db.GetContext(ctx, &promo, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("read promo code: %w", err)
	}
	return &promo, nil
}

func (pr *PromoCodeRepositoryImpl) Update(ctx context.Context, promo *models.PromoCode) error {
	query := `UPDATE promo_codes SET code = $1, discount_perc = $2, is_active = $3 WHERE id = $4;`
	res, err := pr.db.ExecContext(ctx, query, promo.Code, promo.DiscountPerc, promo.IsActive, promo.ID)
	if err != nil {
		return fmt.Errorf("update promo code: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update promo code: %w", err)
	}
	if count == 0 {
		return appErrors.NewNotFound("Promo code not found")
	}
	return nil
}

func (pr *PromoCodeRepositoryImpl) GetAll(ctx context.Context) (*[]models.PromoCode, error) {
	query := `SELECT * FROM promo_codes ORDER BY id DESC;`
	promos := make([]models.PromoCode, 0)
	err := pr.db.SelectContext(ctx, &promos, query)
	if err != nil {
		return nil, fmt.Errorf("read promo codes: %w", err)
	}
	return &promos, nil
}

func (pr *PromoCodeRepositoryImpl) GetDB() *sqlx.DB {
	return pr.db
}
