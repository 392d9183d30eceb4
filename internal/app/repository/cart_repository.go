package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/ujwegh/bookmart/internal/app/models"
)

type CartRepository interface {
	GetItem(ctx context.Context, userUID *uuid.UUID, bookDetailsID int64) (*models.CartItem, error)
	Insert(ctx context.Context, item *models.CartItem) error
	Update(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, userUID *uuid.UUID, bookDetailsID int64) (bool, error)
	DeleteAll(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID) error
	ListByUser(ctx context.Context, userUID *uuid.UUID) (*[]models.CartItem, error)
	SumBorrowQuantity(ctx context.Context, userUID *uuid.UUID) (int, error)
	GetDB() *sqlx.DB
}

type CartRepositoryImpl struct {
	db *sqlx.DB
}

func NewCartRepository(db *sqlx.DB) *CartRepositoryImpl {
	return &CartRepositoryImpl{db: db}
}

func (cr *CartRepositoryImpl) GetItem(ctx context.Context, userUID *uuid.UUID, bookDetailsID int64) (*models.CartItem, error) {
	query := `SELECT * FROM carts WHERE user_uuid = $1 AND book_details_id = $2;`
	item := models.CartItem{}
	err := cr.db.GetContext(ctx, &item, query, userUID, bookDetailsID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}
	return &item, nil
}

func (cr *CartRepositoryImpl) Insert(ctx context.Context, item *models.CartItem) error {
	query := `INSERT INTO carts (user_uuid, book_details_id, quantity, borrowing_weeks, created_at)
			  VALUES ($1, $2, $3, $4, $5);`
	_, err := cr.db.ExecContext(ctx, query, item.UserUUID, item.BookDetailsID, item.Quantity, item.BorrowingWeeks, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

func (cr *CartRepositoryImpl) Update(ctx context.Context, item *models.CartItem) error {
	query := `UPDATE carts SET quantity = $1, borrowing_weeks = $2 WHERE user_uuid = $3 AND book_details_id = $4;`
	_, err := cr.db.ExecContext(ctx, query, item.Quantity, item.BorrowingWeeks, item.UserUUID, item.BookDetailsID)
	if err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (cr *CartRepositoryImpl) Delete(ctx context.Context, userUID *uuid.UUID, bookDetailsID int64) (bool, error) {
	query := `DELETE FROM carts WHERE user_uuid = $1 AND book_details_id = $2;`
	res, err := cr.db.ExecContext(ctx, query, userUID, bookDetailsID)
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete cart item: %w", err)
	}
	return affected > 0, nil
}

func (cr *CartRepositoryImpl) DeleteAll(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID) error {
	query := `DELETE FROM carts WHERE user_uuid = $1;`
	_, err := tx.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (cr *CartRepositoryImpl) ListByUser(ctx context.Context, userUID *uuid.UUID) (*[]models.CartItem, error) {
	query := `SELECT * FROM carts WHERE user_uuid = $1 ORDER BY book_details_id;`
	items := make([]models.CartItem, 0)
	err := cr.db.SelectContext(ctx, &items, query, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &items, nil
		}
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	return &items, nil
}

// SumBorrowQuantity counts the BORROW units currently sitting in the
// user's cart, for the borrow-limit check.
func (cr *CartRepositoryImpl) SumBorrowQuantity(ctx context.Context, userUID *uuid.UUID) (int, error) {
	query := `SELECT coalesce(sum(c.quantity), 0) FROM carts c
			  JOIN book_details bd ON bd.id = c.book_details_id
			  WHERE c.user_uuid = $1 AND bd.status = 'BORROW';`
	var total int
	err := cr.db.GetContext(ctx, &total, query, userUID)
	if err != nil {
		return 0, fmt.Errorf("sum borrow quantity: %w", err)
	}
	return total, nil
}

func (cr *CartRepositoryImpl) GetDB() *sqlx.DB {
	return cr.db
}
