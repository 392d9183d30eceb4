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

// TransactionRepository appends to the wallet ledger. Rows are never
// updated or deleted; the ledger is the audit source of truth for the
// denormalized balance on users.
type TransactionRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, transaction *models.Transaction) error
	GetByUserUID(ctx context.Context, userUID *uuid.UUID) (*[]models.Transaction, error)
	GetDB() *sqlx.DB
}

type TransactionRepositoryImpl struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepositoryImpl {
	return &TransactionRepositoryImpl{db: db}
}

func (tr *TransactionRepositoryImpl) Create(ctx context.Context, tx *sqlx.Tx, transaction *models.Transaction) error {
	query := `INSERT INTO transactions (user_uuid, order_id, amount, transaction_type, description, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6) returning id;`
	err := tx.GetContext(ctx, &transaction.ID, query, transaction.UserUUID, transaction.OrderID, transaction.Amount,
		transaction.TransactionType.String(), transaction.Description, transaction.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (tr *TransactionRepositoryImpl) GetByUserUID(ctx context.Context, userUID *uuid.UUID) (*[]models.Transaction, error) {
	query := `SELECT * FROM transactions WHERE user_uuid = $1 ORDER BY created_at DESC;`
	transactions := make([]models.Transaction, 0)
	err := tr.db.SelectContext(ctx, &transactions, query, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &transactions, nil
		}
		return nil, fmt.Errorf("read user transactions: %w", err)
	}
	return &transactions, nil
}

func (tr *TransactionRepositoryImpl) GetDB() *sqlx.DB {
	return tr.db
}
