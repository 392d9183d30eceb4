package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
)

type (
	// WalletService moves money between a user's denormalized wallet
	// balance and the append-only transactions ledger. Every movement
	// writes exactly one ledger row inside the caller's transaction.
	WalletService interface {
		PayFromWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, orderID *int64, amount decimal.Decimal, description string, applyNegativeBalance bool) error
		AddToWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, orderID *int64, amount decimal.Decimal, description string) error
		TopUp(ctx context.Context, userUID *uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
		GetBalance(ctx context.Context, userUID *uuid.UUID) (decimal.Decimal, error)
		GetTransactions(ctx context.Context, userUID *uuid.UUID) (*[]models.Transaction, error)
	}
	WalletServiceImpl struct {
		userRepo        repository.UserRepository
		transactionRepo repository.TransactionRepository
	}
)

func NewWalletService(userRepo repository.UserRepository, transactionRepo repository.TransactionRepository) *WalletServiceImpl {
	return &WalletServiceImpl{userRepo: userRepo, transactionRepo: transactionRepo}
}

func (ws *WalletServiceImpl) PayFromWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, orderID *int64, amount decimal.Decimal, description string, applyNegativeBalance bool) error {
	_, err := ws.userRepo.DebitWallet(ctx, tx, userUID, amount, applyNegativeBalance)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			user, uErr := ws.userRepo.GetByUUID(ctx, userUID)
			if uErr != nil {
				return appErrors.New(uErr, "get user")
			}
			msg := fmt.Sprintf("Insufficient funds in wallet. Current balance: %s, required: %s",
				user.Wallet.StringFixed(2), amount.StringFixed(2))
			return appErrors.NewInsufficientFunds(msg)
		}
		return appErrors.New(err, "debit wallet")
	}
	transaction := models.Transaction{
		UserUUID:        *userUID,
		OrderID:         orderID,
		Amount:          amount,
		TransactionType: models.WITHDRAWING,
		Description:     description,
		CreatedAt:       time.Now(),
	}
	err = ws.transactionRepo.Create(ctx, tx, &transaction)
	if err != nil {
		return appErrors.New(err, "create transaction")
	}
	return nil
}

func (ws *WalletServiceImpl) AddToWallet(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, orderID *int64, amount decimal.Decimal, description string) error {
	_, err := ws.userRepo.CreditWallet(ctx, tx, userUID, amount)
	if err != nil {
		return appErrors.New(err, "credit wallet")
	}
	transaction := models.Transaction{
		UserUUID:        *userUID,
		OrderID:         orderID,
		Amount:          amount,
		TransactionType: models.ADDING,
		Description:     description,
		CreatedAt:       time.Now(),
	}
	err = ws.transactionRepo.Create(ctx, tx, &transaction)
	if err != nil {
		return appErrors.New(err, "create transaction")
	}
	return nil
}

func (ws *WalletServiceImpl) TopUp(ctx context.Context, userUID *uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, appErrors.NewValidation("Top-up amount must be positive")
	}
	tx, err := ws.userRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	err = ws.AddToWallet(ctx, tx, userUID, nil, amount, "Wallet top-up")
	if err != nil {
		return decimal.Zero, err
	}
	err = tx.Commit()
	if err != nil {
		return decimal.Zero, fmt.Errorf("commit transaction: %w", err)
	}
	return ws.GetBalance(ctx, userUID)
}

func (ws *WalletServiceImpl) GetBalance(ctx context.Context, userUID *uuid.UUID) (decimal.Decimal, error) {
	user, err := ws.userRepo.GetByUUID(ctx, userUID)
	if err != nil {
		return decimal.Zero, appErrors.New(err, "get user")
	}
	return user.Wallet, nil
}

func (ws *WalletServiceImpl) GetTransactions(ctx context.Context, userUID *uuid.UUID) (*[]models.Transaction, error) {
	return ws.transactionRepo.GetByUserUID(ctx, userUID)
}
