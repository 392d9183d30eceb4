package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
)

type UserRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUUID(ctx context.Context, userUID *uuid.UUID) (*models.User, error)
	DebitWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, amount decimal.Decimal, allowNegative bool) (decimal.Decimal, error)
	CreditWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	AdjustBorrowedCount(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, delta int) error
	GetDB() *sqlx.DB
}

type UserRepositoryImpl struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

func (ur *UserRepositoryImpl) Create(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	query := `INSERT INTO users (uuid, first_name, last_name, email, phone_number, password_hash, wallet, role, current_borrowed_books, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, user.UUID, user.FirstName, user.LastName, user.Email, user.PhoneNumber,
		user.PasswordHash, user.Wallet, user.Role.String(), user.CurrentBorrowedBooks, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return appErrors.New(err, "User already exists")
		}
		return fmt.Errorf("exec statement: %w", err)
	}
	return nil
}

func (ur *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = $1;`
	user := models.User{}
	err := ur.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

func (ur *UserRepositoryImpl) GetByUUID(ctx context.Context, userUID *uuid.UUID) (*models.User, error) {
	query := `SELECT * FROM users WHERE uuid = $1;`
	user := models.User{}
	err := ur.db.GetContext(ctx, &user, query, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewNotFound("User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// DebitWallet decrements the denormalized wallet balance. When
// allowNegative is false the decrement is conditional on the current
// balance, so concurrent debits serialize on the row and can never
// drive the balance below zero.
func (ur *UserRepositoryImpl) DebitWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, amount decimal.Decimal, allowNegative bool) (decimal.Decimal, error) {
	query := `UPDATE users SET wallet = wallet - $1 WHERE uuid = $2 returning wallet;`
	if !allowNegative {
		query = `UPDATE users SET wallet = wallet - $1 WHERE uuid = $2 AND wallet >= $1 returning wallet;`
	}
	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance, query, amount, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrInsufficientBalance
		}
		return decimal.Zero, fmt.Errorf("debit wallet: %w", err)
	}
	return balance, nil
}

// ErrInsufficientBalance is returned when a guarded debit finds too low a balance.
var ErrInsufficientBalance = errors.New("insufficient wallet balance")

func (ur *UserRepositoryImpl) CreditWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	query := `UPDATE users SET wallet = wallet + $1 WHERE uuid = $2 returning wallet;`
	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance, query, amount, userUID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit wallet: %w", err)
	}
	return balance, nil
}

func (ur *UserRepositoryImpl) AdjustBorrowedCount(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, delta int) error {
	query := `UPDATE users SET current_borrowed_books = current_borrowed_books + $1 WHERE uuid = $2;`
	_, err := tx.ExecContext(ctx, query, delta, userUID)
	if err != nil {
		return fmt.Errorf("adjust borrowed count: %w", err)
	}
	return nil
}

func (ur *UserRepositoryImpl) GetDB() *sqlx.DB {
	return ur.db
}
