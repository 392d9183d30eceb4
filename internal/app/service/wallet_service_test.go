package service

import (
	"context"
	"strings"
	"testing"

	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
)

func TestWalletServiceImpl_TopUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "10.00")

	balance, err := env.walletService.TopUp(ctx, userUID, mustDecimal(t, "25.50"))
	if err != nil {
		t.Fatalf("TopUp() error = %v", err)
	}
	if !balance.Equal(mustDecimal(t, "35.50")) {
		t.Errorf("TopUp() balance = %s, want 35.50", balance)
	}

	transactions, err := env.walletService.GetTransactions(ctx, userUID)
	if err != nil {
		t.Fatalf("GetTransactions() error = %v", err)
	}
	if len(*transactions) != 1 {
		t.Fatalf("GetTransactions() returned %d rows, want 1", len(*transactions))
	}
	transaction := (*transactions)[0]
	if transaction.TransactionType != models.ADDING {
		t.Errorf("transaction type = %s, want ADDING", transaction.TransactionType)
	}
	if !transaction.Amount.Equal(mustDecimal(t, "25.50")) {
		t.Errorf("transaction amount = %s, want 25.50", transaction.Amount)
	}
	if transaction.Description != "Wallet top-up" {
		t.Errorf("transaction description = %q", transaction.Description)
	}
}

func TestWalletServiceImpl_TopUpRejectsNonPositiveAmount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "10.00")

	_, err := env.walletService.TopUp(ctx, userUID, mustDecimal(t, "0"))
	if !appErrors.IsKind(err, appErrors.KindValidation) {
		t.Errorf("TopUp(0) error = %v, want validation error", err)
	}
	_, err = env.walletService.TopUp(ctx, userUID, mustDecimal(t, "-5.00"))
	if !appErrors.IsKind(err, appErrors.KindValidation) {
		t.Errorf("TopUp(-5) error = %v, want validation error", err)
	}
}

func TestWalletServiceImpl_PayFromWallet(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "100.00")

	tx, err := env.db.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	err = env.walletService.PayFromWallet(ctx, tx, userUID, nil, mustDecimal(t, "40.00"), "test charge", false)
	if err != nil {
		t.Fatalf("PayFromWallet() error = %v", err)
	}
	if err = tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if balance := env.walletBalance(t, userUID); !balance.Equal(mustDecimal(t, "60.00")) {
		t.Errorf("balance = %s, want 60.00", balance)
	}
	transactions, err := env.walletService.GetTransactions(ctx, userUID)
	if err != nil {
		t.Fatalf("GetTransactions() error = %v", err)
	}
	if len(*transactions) != 1 || (*transactions)[0].TransactionType != models.WITHDRAWING {
		t.Errorf("expected one WITHDRAWING transaction, got %+v", *transactions)
	}
}

func TestWalletServiceImpl_PayFromWalletInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "10.00")

	tx, err := env.db.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback()

	err = env.walletService.PayFromWallet(ctx, tx, userUID, nil, mustDecimal(t, "50.00"), "test charge", false)
	if !appErrors.IsKind(err, appErrors.KindInsufficientFunds) {
		t.Fatalf("PayFromWallet() error = %v, want insufficient funds", err)
	}
	if !strings.Contains(err.Error(), "Insufficient funds in wallet. Current balance: 10.00, required: 50.00") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestWalletServiceImpl_PayFromWalletAllowNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "10.00")

	tx, err := env.db.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	err = env.walletService.PayFromWallet(ctx, tx, userUID, nil, mustDecimal(t, "50.00"), "penalty", true)
	if err != nil {
		t.Fatalf("PayFromWallet() error = %v", err)
	}
	if err = tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if balance := env.walletBalance(t, userUID); !balance.Equal(mustDecimal(t, "-40.00")) {
		t.Errorf("balance = %s, want -40.00", balance)
	}
}
