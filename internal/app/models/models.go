package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	User struct {
		UUID                 uuid.UUID       `db:"uuid"`
		FirstName            string          `db:"first_name"`
		LastName             string          `db:"last_name"`
		Email                string          `db:"email"`
		PhoneNumber          string          `db:"phone_number"`
		PasswordHash         string          `db:"password_hash"`
		Wallet               decimal.Decimal `db:"wallet"`
		Role                 UserRole        `db:"role"`
		CurrentBorrowedBooks int             `db:"current_borrowed_books"`
		CreatedAt            time.Time       `db:"created_at"`
	}
	Book struct {
		ID        int64           `db:"id"`
		Title     string          `db:"title"`
		Author    string          `db:"author"`
		Price     decimal.Decimal `db:"price"`
		CreatedAt time.Time       `db:"created_at"`
	}
	// BookDetails is the stock-keeping row for one (book, status) pair:
	// a book has at most one row per status.
	BookDetails struct {
		ID             int64      `db:"id"`
		BookID         int64      `db:"book_id"`
		Status         BookStatus `db:"status"`
		AvailableStock int        `db:"available_stock"`
	}
	CartItem struct {
		UserUUID       uuid.UUID `db:"user_uuid"`
		BookDetailsID  int64     `db:"book_details_id"`
		Quantity       int       `db:"quantity"`
		BorrowingWeeks *int      `db:"borrowing_weeks"`
		CreatedAt      time.Time `db:"created_at"`
	}
	Order struct {
		ID           int64            `db:"id"`
		Address      *string          `db:"address"`
		PhoneNumber  *string          `db:"phone_number"`
		PickupDate   *time.Time       `db:"pickup_date"`
		PickupType   PickupType       `db:"pickup_type"`
		Status       OrderStatus      `db:"status"`
		DeliveryFees *decimal.Decimal `db:"delivery_fees"`
		UserUUID     uuid.UUID        `db:"user_uuid"`
		PromoCodeID  *int64           `db:"promo_code_id"`
		CourierUUID  *uuid.UUID       `db:"courier_uuid"`
		CreatedAt    time.Time        `db:"created_at"`
	}
	// BorrowOrderBook is a single borrowed unit within an order. Money
	// fields are snapshots taken at order time and are never recomputed
	// from current book prices or promo codes.
	BorrowOrderBook struct {
		ID                 int64             `db:"id"`
		OrderID            int64             `db:"order_id"`
		BookDetailsID      int64             `db:"book_details_id"`
		UserUUID           uuid.UUID         `db:"user_uuid"`
		BorrowingWeeks     int               `db:"borrowing_weeks"`
		BorrowBookProblem  BorrowBookProblem `db:"borrow_book_problem"`
		DepositFees        decimal.Decimal   `db:"deposit_fees"`
		BorrowFees         decimal.Decimal   `db:"borrow_fees"`
		DelayFeesPerDay    decimal.Decimal   `db:"delay_fees_per_day"`
		PromoCodeDiscount  *decimal.Decimal  `db:"promo_code_discount"`
		OriginalBookPrice  decimal.Decimal   `db:"original_book_price"`
		ExpectedReturnDate *time.Time        `db:"expected_return_date"`
		ActualReturnDate   *time.Time        `db:"actual_return_date"`
		ReturnOrderID      *int64            `db:"return_order_id"`
	}
	PurchaseOrderBook struct {
		ID                       int64            `db:"id"`
		OrderID                  int64            `db:"order_id"`
		BookDetailsID            int64            `db:"book_details_id"`
		UserUUID                 uuid.UUID        `db:"user_uuid"`
		Quantity                 int              `db:"quantity"`
		PaidPricePerBook         decimal.Decimal  `db:"paid_price_per_book"`
		PromoCodeDiscountPerBook *decimal.Decimal `db:"promo_code_discount_per_book"`
	}
	ReturnOrder struct {
		ID           int64             `db:"id"`
		Address      *string           `db:"address"`
		PhoneNumber  *string           `db:"phone_number"`
		PickupType   PickupType        `db:"pickup_type"`
		Status       ReturnOrderStatus `db:"status"`
		DeliveryFees *decimal.Decimal  `db:"delivery_fees"`
		UserUUID     uuid.UUID         `db:"user_uuid"`
		CourierUUID  *uuid.UUID        `db:"courier_uuid"`
		CreatedAt    time.Time         `db:"created_at"`
	}
	// Transaction is an append-only wallet ledger entry. Amount is always
	// a positive magnitude; the direction lives in TransactionType.
	Transaction struct {
		ID              int64           `db:"id"`
		UserUUID        uuid.UUID       `db:"user_uuid"`
		OrderID         *int64          `db:"order_id"`
		Amount          decimal.Decimal `db:"amount"`
		TransactionType TransactionType `db:"transaction_type"`
		Description     string          `db:"description"`
		CreatedAt       time.Time       `db:"created_at"`
	}
	PromoCode struct {
		ID           int64           `db:"id"`
		Code         string          `db:"code"`
		DiscountPerc decimal.Decimal `db:"discount_perc"`
		IsActive     bool            `db:"is_active"`
	}
	// Settings is a singleton row (id = 1) holding the global fee and
	// limit parameters.
	Settings struct {
		ID                  int64           `db:"id"`
		DepositPerc         decimal.Decimal `db:"deposit_perc"`
		BorrowPerc          decimal.Decimal `db:"borrow_perc"`
		DelayPerc           decimal.Decimal `db:"delay_perc"`
		DeliveryFees        decimal.Decimal `db:"delivery_fees"`
		MinBorrowFee        decimal.Decimal `db:"min_borrow_fee"`
		MaxNumOfBorrowBooks int             `db:"max_num_of_borrow_books"`
	}
	// Notification is an outbox row: written in the same transaction as
	// the business event it announces, dispatched after commit.
	Notification struct {
		ID           int64            `db:"id"`
		UserUUID     *uuid.UUID       `db:"user_uuid"`
		Role         *UserRole        `db:"role"`
		Type         NotificationType `db:"type"`
		Payload      []byte           `db:"payload"`
		CreatedAt    time.Time        `db:"created_at"`
		DispatchedAt *time.Time       `db:"dispatched_at"`
	}
)

type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	CLIENT   UserRole = "CLIENT"
	EMPLOYEE UserRole = "EMPLOYEE"
	COURIER  UserRole = "COURIER"
	MANAGER  UserRole = "MANAGER"
)

type BookStatus string

func (s BookStatus) String() string {
	return string(s)
}

const (
	BORROW   BookStatus = "BORROW"
	PURCHASE BookStatus = "PURCHASE"
)

type PickupType string

func (t PickupType) String() string {
	return string(t)
}

const (
	PickupSite    PickupType = "SITE"
	PickupCourier PickupType = "COURIER"
)

type OrderStatus string

func (s OrderStatus) String() string {
	return string(s)
}

const (
	OrderCreated  OrderStatus = "CREATED"
	OrderOnTheWay OrderStatus = "ON_THE_WAY"
	OrderPickedUp OrderStatus = "PICKED_UP"
	OrderProblem  OrderStatus = "PROBLEM"
)

type ReturnOrderStatus string

func (s ReturnOrderStatus) String() string {
	return string(s)
}

const (
	ReturnCreated  ReturnOrderStatus = "CREATED"
	ReturnOnTheWay ReturnOrderStatus = "ON_THE_WAY"
	ReturnPickedUp ReturnOrderStatus = "PICKED_UP"
	ReturnChecking ReturnOrderStatus = "CHECKING"
	ReturnDone     ReturnOrderStatus = "DONE"
	ReturnProblem  ReturnOrderStatus = "PROBLEM"
)

type BorrowBookProblem string

func (p BorrowBookProblem) String() string {
	return string(p)
}

const (
	ProblemNormal  BorrowBookProblem = "NORMAL"
	ProblemLost    BorrowBookProblem = "LOST"
	ProblemDamaged BorrowBookProblem = "DAMAGED"
)

type TransactionType string

func (t TransactionType) String() string {
	return string(t)
}

const (
	ADDING      TransactionType = "ADDING"
	WITHDRAWING TransactionType = "WITHDRAWING"
)

type NotificationType string

func (t NotificationType) String() string {
	return string(t)
}

const (
	NotifyOrderCreated       NotificationType = "order_created"
	NotifyOrderStatusUpdated NotificationType = "order_status_updated"
	NotifyReturnCreated      NotificationType = "return_order_created"
	NotifyReturnStatusUpdate NotificationType = "return_order_status_updated"
	NotifyReturnReminder     NotificationType = "return_reminder"
)
