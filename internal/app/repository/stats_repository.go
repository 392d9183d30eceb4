package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type (
	// StatusCount is a generic group-by row for status and role breakdowns.
	StatusCount struct {
		Key   string `db:"key"`
		Count int64  `db:"count"`
	}
	LowStockBook struct {
		Title          string `db:"title"`
		AvailableStock int    `db:"available_stock"`
	}
	TopSellingBook struct {
		Title             string `db:"title"`
		TotalSoldQuantity int64  `db:"total_sold_quantity"`
	}
	MostBorrowedBook struct {
		Title        string `db:"title"`
		TotalBorrows int64  `db:"total_borrows"`
	}
	FinancialTotals struct {
		PurchaseRevenue    decimal.Decimal `db:"purchase_revenue"`
		BorrowingRevenue   decimal.Decimal `db:"borrowing_revenue"`
		PromoCodeDiscounts decimal.Decimal `db:"promo_code_discounts"`
		WalletDeposits     decimal.Decimal `db:"wallet_deposits"`
		WalletWithdrawals  decimal.Decimal `db:"wallet_withdrawals"`
		WalletBalance      decimal.Decimal `db:"wallet_balance"`
	}
)

// StatsRepository runs the aggregate queries behind the manager dashboard.
type StatsRepository interface {
	CountOrders(ctx context.Context) (int64, error)
	OrdersByStatus(ctx context.Context) ([]StatusCount, error)
	OrdersByPickupType(ctx context.Context) ([]StatusCount, error)
	TotalDeliveryFees(ctx context.Context) (decimal.Decimal, error)
	CountReturnOrders(ctx context.Context) (int64, error)
	ReturnOrdersByStatus(ctx context.Context) ([]StatusCount, error)
	CountBorrowProblems(ctx context.Context, problem string) (int64, error)
	FinancialTotals(ctx context.Context) (*FinancialTotals, error)
	CountBooks(ctx context.Context) (int64, error)
	BooksByStatus(ctx context.Context) ([]StatusCount, error)
	LowStockBooks(ctx context.Context, threshold int, limit int) ([]LowStockBook, error)
	TopSellingBooks(ctx context.Context, limit int) ([]TopSellingBook, error)
	MostBorrowedBooks(ctx context.Context, limit int) ([]MostBorrowedBook, error)
	CountUsers(ctx context.Context) (int64, error)
	UsersByRole(ctx context.Context) ([]StatusCount, error)
	GetDB() *sqlx.DB
}

type StatsRepositoryImpl struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepositoryImpl {
	return &StatsRepositoryImpl{db: db}
}

func (sr *StatsRepositoryImpl) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var total int64
	err := sr.db.GetContext(ctx, &total, query, args...)
	if err != nil {
		return 0, fmt.Errorf("count query: %w", err)
	}
	return total, nil
}

func (sr *StatsRepositoryImpl) grouped(ctx context.Context, query string) ([]StatusCount, error) {
	rows := make([]StatusCount, 0)
	err := sr.db.SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, fmt.Errorf("grouped count query: %w", err)
	}
	return rows, nil
}

func (sr *StatsRepositoryImpl) CountOrders(ctx context.Context) (int64, error) {
	return sr.count(ctx, `SELECT count(*) FROM orders;`)
}

func (sr *StatsRepositoryImpl) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	return sr.grouped(ctx, `SELECT status AS key, count(*) AS count FROM orders GROUP BY status;`)
}

func (sr *StatsRepositoryImpl) OrdersByPickupType(ctx context.Context) ([]StatusCount, error) {
	return sr.grouped(ctx, `SELECT pickup_type AS key, count(*) AS count FROM orders GROUP BY pickup_type;`)
}

func (sr *StatsRepositoryImpl) TotalDeliveryFees(ctx context.Context) (decimal.Decimal, error) {
	query := `SELECT COALESCE((SELECT sum(delivery_fees) FROM orders WHERE delivery_fees IS NOT NULL), 0)
				   + COALESCE((SELECT sum(delivery_fees) FROM return_orders WHERE delivery_fees IS NOT NULL), 0);`
	var total decimal.Decimal
	err := sr.db.GetContext(ctx, &total, query)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total delivery fees: %w", err)
	}
	return total, nil
}

func (sr *StatsRepositoryImpl) CountReturnOrders(ctx context.Context) (int64, error) {
	return sr.count(ctx, `SELECT count(*) FROM return_orders;`)
}

func (sr *StatsRepositoryImpl) ReturnOrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	return sr.grouped(ctx, `SELECT status AS key, count(*) AS count FROM return_orders GROUP BY status;`)
}

func (sr *StatsRepositoryImpl) CountBorrowProblems(ctx context.Context, problem string) (int64, error) {
	return sr.count(ctx, `SELECT count(*) FROM borrow_order_books WHERE borrow_book_problem = $1;`, problem)
}

func (sr *StatsRepositoryImpl) FinancialTotals(ctx context.Context) (*FinancialTotals, error) {
	query := `SELECT
		COALESCE((SELECT sum(paid_price_per_book * quantity) FROM purchase_order_books), 0)                      AS purchase_revenue,
		COALESCE((SELECT sum(borrow_fees) FROM borrow_order_books), 0)                                           AS borrowing_revenue,
		COALESCE((SELECT sum(promo_code_discount_per_book * quantity) FROM purchase_order_books
				  WHERE promo_code_discount_per_book IS NOT NULL), 0)
	  + COALESCE((SELECT sum(promo_code_discount) FROM borrow_order_books
				  WHERE promo_code_discount IS NOT NULL), 0)                                                     AS promo_code_discounts,
		COALESCE((SELECT sum(amount) FROM transactions WHERE transaction_type = 'ADDING'), 0)                    AS wallet_deposits,
		COALESCE((SELECT sum(amount) FROM transactions WHERE transaction_type = 'WITHDRAWING'), 0)               AS wallet_withdrawals,
		COALESCE((SELECT sum(wallet) FROM users), 0)                                                             AS wallet_balance;`
	totals := FinancialTotals{}
	err := sr.db.GetContext(ctx, &totals, query)
	if err != nil {
		return nil, fmt.Errorf("financial totals: %w", err)
	}
	return &totals, nil
}

func (sr *StatsRepositoryImpl) CountBooks(ctx context.Context) (int64, error) {
	return sr.count(ctx, `SELECT count(*) FROM books;`)
}

func (sr *StatsRepositoryImpl) BooksByStatus(ctx context.Context) ([]StatusCount, error) {
	return sr.grouped(ctx, `SELECT status AS key, count(*) AS count FROM book_details GROUP BY status;`)
}

func (sr *StatsRepositoryImpl) LowStockBooks(ctx context.Context, threshold int, limit int) ([]LowStockBook, error) {
	query := `SELECT b.title, bd.available_stock
			  FROM books b
					   JOIN book_details bd ON bd.book_id = b.id
			  WHERE bd.available_stock < $1
			  LIMIT $2;`
	books := make([]LowStockBook, 0)
	err := sr.db.SelectContext(ctx, &books, query, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("low stock books: %w", err)
	}
	return books, nil
}

func (sr *StatsRepositoryImpl) TopSellingBooks(ctx context.Context, limit int) ([]TopSellingBook, error) {
	query := `SELECT b.title, sum(pob.quantity) AS total_sold_quantity
			  FROM books b
					   JOIN book_details bd ON bd.book_id = b.id
					   JOIN purchase_order_books pob ON pob.book_details_id = bd.id
			  GROUP BY b.id, b.title
			  ORDER BY total_sold_quantity DESC
			  LIMIT $1;`
	books := make([]TopSellingBook, 0)
	err := sr.db.SelectContext(ctx, &books, query, limit)
	if err != nil {
		return nil, fmt.Errorf("top selling books: %w", err)
	}
	return books, nil
}

func (sr *StatsRepositoryImpl) MostBorrowedBooks(ctx context.Context, limit int) ([]MostBorrowedBook, error) {
	query := `SELECT b.title, count(bob.id) AS total_borrows
			  FROM books b
					   JOIN book_details bd ON bd.book_id = b.id
					   JOIN borrow_order_books bob ON bob.book_details_id = bd.id
			  GROUP BY b.id, b.title
			  ORDER BY total_borrows DESC
			  LIMIT $1;`
	books := make([]MostBorrowedBook, 0)
	err := sr.db.SelectContext(ctx, &books, query, limit)
	if err != nil {
		return nil, fmt.Errorf("most borrowed books: %w", err)
	}
	return books, nil
}

func (sr *StatsRepositoryImpl) CountUsers(ctx context.Context) (int64, error) {
	return sr.count(ctx, `SELECT count(*) FROM users;`)
}

func (sr *StatsRepositoryImpl) UsersByRole(ctx context.Context) ([]StatusCount, error) {
	return sr.grouped(ctx, `SELECT role AS key, count(*) AS count FROM users GROUP BY role;`)
}

func (sr *StatsRepositoryImpl) GetDB() *sqlx.DB {
	return sr.db
}
