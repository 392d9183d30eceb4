package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/ujwegh/bookmart/internal/app/models"
)

type (
	// BorrowedBookInfo is an outstanding borrow line joined with its book,
	// as listed to the client when picking lines for a return order.
	BorrowedBookInfo struct {
		ID                 int64           `db:"id"`
		BookDetailsID      int64           `db:"book_details_id"`
		Title              string          `db:"title"`
		BorrowingWeeks     int             `db:"borrowing_weeks"`
		ExpectedReturnDate *time.Time      `db:"expected_return_date"`
		DepositFees        decimal.Decimal `db:"deposit_fees"`
		BorrowFees         decimal.Decimal `db:"borrow_fees"`
		DelayFeesPerDay    decimal.Decimal `db:"delay_fees_per_day"`
	}
	OrderRepository interface {
		CreateOrder(ctx context.Context, tx *sqlx.Tx, order *models.Order) error
		AddBorrowLine(ctx context.Context, tx *sqlx.Tx, line *models.BorrowOrderBook) error
		AddPurchaseLine(ctx context.Context, tx *sqlx.Tx, line *models.PurchaseOrderBook) error
		GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error)
		GetOrdersByUserUID(ctx context.Context, userUID *uuid.UUID) (*[]models.Order, error)
		ListByPickupType(ctx context.Context, pickupType models.PickupType, courierUID *uuid.UUID) (*[]models.Order, error)
		UpdateOrderStatus(ctx context.Context, tx *sqlx.Tx, order *models.Order) error
		GetBorrowLinesByOrder(ctx context.Context, orderID int64) (*[]models.BorrowOrderBook, error)
		GetPurchaseLinesByOrder(ctx context.Context, orderID int64) (*[]models.PurchaseOrderBook, error)
		GetBorrowLine(ctx context.Context, lineID int64) (*models.BorrowOrderBook, error)
		SetBorrowLineExpectedReturn(ctx context.Context, tx *sqlx.Tx, lineID int64, expected time.Time) error
		UpdateBorrowLineProblem(ctx context.Context, tx *sqlx.Tx, line *models.BorrowOrderBook) error
		GetOutstandingBorrows(ctx context.Context, userUID *uuid.UUID) (*[]BorrowedBookInfo, error)
		GetDueReminderLines(ctx context.Context, dueBefore time.Time) (*[]models.BorrowOrderBook, error)
		GetDB() *sqlx.DB
	}
	OrderRepositoryImpl struct {
		db *sqlx.DB
	}
)

func NewOrderRepository(db *sqlx.DB) *OrderRepositoryImpl {
	return &OrderRepositoryImpl{db: db}
}

func (or *OrderRepositoryImpl) CreateOrder(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `INSERT INTO orders (address, phone_number, pickup_date, pickup_type, status, delivery_fees, user_uuid, promo_code_id, courier_uuid, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) returning id;`
	err := tx.GetContext(ctx, &order.ID, query, order.Address, order.PhoneNumber, order.PickupDate, order.PickupType.String(),
		order.Status.String(), order.DeliveryFees, order.UserUUID, order.PromoCodeID, order.CourierUUID, order.CreatedAt)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (or *OrderRepositoryImpl) AddBorrowLine(ctx context.Context, tx *sqlx.Tx, line *models.BorrowOrderBook) error {
	query := `INSERT INTO borrow_order_books (order_id, book_details_id, user_uuid, borrowing_weeks, borrow_book_problem,
				deposit_fees, borrow_fees, delay_fees_per_day, promo_code_discount, original_book_price,
				expected_return_date, actual_return_date, return_order_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) returning id;`
	err := tx.GetContext(ctx, &line.ID, query, line.OrderID, line.BookDetailsID, line.UserUUID, line.BorrowingWeeks,
		line.BorrowBookProblem.String(), line.DepositFees, line.BorrowFees, line.DelayFeesPerDay,
		line.PromoCodeDiscount, line.OriginalBookPrice, line.ExpectedReturnDate, line.ActualReturnDate, line.ReturnOrderID)
	if err != nil {
		return fmt.Errorf("add borrow line: %w", err)
	}
	return nil
}

func (or *OrderRepositoryImpl) AddPurchaseLine(ctx context.Context, tx *sqlx.Tx, line *models.PurchaseOrderBook) error {
	query := `INSERT INTO purchase_order_books (order_id, book_details_id, user_uuid, quantity, paid_price_per_book, promo_code_discount_per_book)
			  VALUES ($1, $2, $3, $4, $5, $6) returning id;`
	err := tx.GetContext(ctx, &line.ID, query, line.OrderID, line.BookDetailsID, line.UserUUID,
		line.Quantity, line.PaidPricePerBook, line.PromoCodeDiscountPerBook)
	if err != nil {
		return fmt.Errorf("add purchase line: %w", err)
	}
	return nil
}

func (or *OrderRepositoryImpl) GetOrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	query := `SELECT * FROM orders WHERE id = $1;`
	order := models.Order{}
	err := or.db.GetContext(ctx, &order, query, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

func (or *OrderRepositoryImpl) GetOrdersByUserUID(ctx context.Context, userUID *uuid.UUID) (*[]models.Order, error) {
	query := `SELECT * FROM orders WHERE user_uuid = $1 ORDER BY created_at DESC;`
	orders := make([]models.Order, 0)
	err := or.db.SelectContext(ctx, &orders, query, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &orders, nil
		}
		return nil, fmt.Errorf("read user orders: %w", err)
	}
	return &orders, nil
}

func (or *OrderRepositoryImpl) ListByPickupType(ctx context.Context, pickupType models.PickupType, courierUID *uuid.UUID) (*[]models.Order, error) {
	query := `SELECT * FROM orders WHERE pickup_type = $1 ORDER BY created_at DESC;`
	args := []interface{}{pickupType.String()}
	if courierUID != nil {
		query = `SELECT * FROM orders WHERE pickup_type = $1 AND courier_uuid = $2 ORDER BY created_at DESC;`
		args = append(args, courierUID)
	}
	orders := make([]models.Order, 0)
	err := or.db.SelectContext(ctx, &orders, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &orders, nil
		}
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &orders, nil
}

func (or *OrderRepositoryImpl) UpdateOrderStatus(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `UPDATE orders SET status = $1, courier_uuid = $2, pickup_date = $3 WHERE id = $4;`
	_, err := tx.ExecContext(ctx, query, order.Status.String(), order.CourierUUID, order.PickupDate, order.ID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (or *OrderRepositoryImpl) GetBorrowLinesByOrder(ctx context.Context, orderID int64) (*[]models.BorrowOrderBook, error) {
	query := `SELECT * FROM borrow_order_books WHERE order_id = $1 ORDER BY id;`
	lines := make([]models.BorrowOrderBook, 0)
	err := or.db.SelectContext(ctx, &lines, query, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &lines, nil
		}
		return nil, fmt.Errorf("read borrow lines: %w", err)
	}
	return &lines, nil
}

func (or *OrderRepositoryImpl) GetPurchaseLinesByOrder(ctx context.Context, orderID int64) (*[]models.PurchaseOrderBook, error) {
	query := `SELECT * FROM purchase_order_books WHERE order_id = $1 ORDER BY id;`
	lines := make([]models.PurchaseOrderBook, 0)
	err := or.db.SelectContext(ctx, &lines, query, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &lines, nil
		}
		return nil, fmt.Errorf("read purchase lines: %w", err)
	}
	return &lines, nil
}

func (or *OrderRepositoryImpl) GetBorrowLine(ctx context.Context, lineID int64) (*models.BorrowOrderBook, error) {
	query := `SELECT * FROM borrow_order_books WHERE id = $1;`
	line := models.BorrowOrderBook{}
	err := or.db.GetContext(ctx, &line, query, lineID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get borrow line: %w", err)
	}
	return &line, nil
}

func (or *OrderRepositoryImpl) SetBorrowLineExpectedReturn(ctx context.Context, tx *sqlx.Tx, lineID int64, expected time.Time) error {
	query := `UPDATE borrow_order_books SET expected_return_date = $1 WHERE id = $2;`
	_, err := tx.ExecContext(ctx, query, expected, lineID)
	if err != nil {
		return fmt.Errorf("set expected return date: %w", err)
	}
	return nil
}

func (or *OrderRepositoryImpl) UpdateBorrowLineProblem(ctx context.Context, tx *sqlx.Tx, line *models.BorrowOrderBook) error {
	query := `UPDATE borrow_order_books SET borrow_book_problem = $1, actual_return_date = $2 WHERE id = $3;`
	_, err := tx.ExecContext(ctx, query, line.BorrowBookProblem.String(), line.ActualReturnDate, line.ID)
	if err != nil {
		return fmt.Errorf("update borrow line problem: %w", err)
	}
	return nil
}

// GetOutstandingBorrows lists the user's borrow lines that are eligible
// for a return order: picked up, not yet linked to one, still NORMAL.
func (or *OrderRepositoryImpl) GetOutstandingBorrows(ctx context.Context, userUID *uuid.UUID) (*[]BorrowedBookInfo, error) {
	query := `SELECT bob.id, bob.book_details_id, b.title, bob.borrowing_weeks, bob.expected_return_date,
					 bob.deposit_fees, bob.borrow_fees, bob.delay_fees_per_day
			  FROM borrow_order_books bob
			  JOIN orders o ON o.id = bob.order_id
			  JOIN book_details bd ON bd.id = bob.book_details_id
			  JOIN books b ON b.id = bd.book_id
			  WHERE bob.user_uuid = $1
				AND bob.return_order_id IS NULL
				AND o.status = 'PICKED_UP'
				AND bob.borrow_book_problem = 'NORMAL'
			  ORDER BY bob.id;`
	infos := make([]BorrowedBookInfo, 0)
	err := or.db.SelectContext(ctx, &infos, query, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &infos, nil
		}
		return nil, fmt.Errorf("read outstanding borrows: %w", err)
	}
	return &infos, nil
}

// GetDueReminderLines returns borrow lines that are still out and due
// before the given cutoff: the overdue ones plus those coming due soon.
func (or *OrderRepositoryImpl) GetDueReminderLines(ctx context.Context, dueBefore time.Time) (*[]models.BorrowOrderBook, error) {
	query := `SELECT * FROM borrow_order_books
			  WHERE return_order_id IS NULL
				AND actual_return_date IS NULL
				AND borrow_book_problem = 'NORMAL'
				AND expected_return_date IS NOT NULL
				AND expected_return_date < $1
			  ORDER BY expected_return_date;`
	lines := make([]models.BorrowOrderBook, 0)
	err := or.db.SelectContext(ctx, &lines, query, dueBefore)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &lines, nil
		}
		return nil, fmt.Errorf("read due borrow lines: %w", err)
	}
	return &lines, nil
}

func (or *OrderRepositoryImpl) GetDB() *sqlx.DB {
	return or.db
}
