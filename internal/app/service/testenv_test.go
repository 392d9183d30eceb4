package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
	"github.com/ujwegh/bookmart/internal/app/service/clients"
)

const testSchema = `
CREATE TABLE users
(
    uuid                   TEXT PRIMARY KEY,
    first_name             TEXT      NOT NULL,
    last_name              TEXT      NOT NULL,
    email                  TEXT      NOT NULL UNIQUE,
    phone_number           TEXT      NOT NULL,
    password_hash          TEXT      NOT NULL,
    wallet                 NUMERIC   NOT NULL DEFAULT 0,
    role                   TEXT      NOT NULL DEFAULT 'CLIENT',
    current_borrowed_books INTEGER   NOT NULL DEFAULT 0,
    created_at             TIMESTAMP NOT NULL
);

CREATE TABLE books
(
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    title      TEXT      NOT NULL,
    author     TEXT      NOT NULL,
    price      NUMERIC   NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE book_details
(
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    book_id         INTEGER NOT NULL REFERENCES books (id),
    status          TEXT    NOT NULL,
    available_stock INTEGER NOT NULL DEFAULT 0,
    UNIQUE (book_id, status)
);

CREATE TABLE carts
(
    user_uuid       TEXT      NOT NULL,
    book_details_id INTEGER   NOT NULL,
    quantity        INTEGER   NOT NULL DEFAULT 1,
    borrowing_weeks INTEGER,
    created_at      TIMESTAMP NOT NULL,
    PRIMARY KEY (user_uuid, book_details_id)
);

CREATE TABLE promo_codes
(
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    code          TEXT    NOT NULL,
    discount_perc NUMERIC NOT NULL,
    is_active     BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE orders
(
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    address       TEXT,
    phone_number  TEXT,
    pickup_date   TIMESTAMP,
    pickup_type   TEXT      NOT NULL,
    status        TEXT      NOT NULL DEFAULT 'CREATED',
    delivery_fees NUMERIC,
    user_uuid     TEXT      NOT NULL,
    promo_code_id INTEGER,
    courier_uuid  TEXT,
    created_at    TIMESTAMP NOT NULL
);

CREATE TABLE return_orders
(
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    address       TEXT,
    phone_number  TEXT,
    pickup_type   TEXT      NOT NULL,
    status        TEXT      NOT NULL DEFAULT 'CREATED',
    delivery_fees NUMERIC,
    user_uuid     TEXT      NOT NULL,
    courier_uuid  TEXT,
    created_at    TIMESTAMP NOT NULL
);

CREATE TABLE borrow_order_books
(
    id                   INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id             INTEGER NOT NULL,
    book_details_id      INTEGER NOT NULL,
    user_uuid            TEXT    NOT NULL,
    borrowing_weeks      INTEGER NOT NULL,
    borrow_book_problem  TEXT    NOT NULL DEFAULT 'NORMAL',
    deposit_fees         NUMERIC NOT NULL,
    borrow_fees          NUMERIC NOT NULL,
    delay_fees_per_day   NUMERIC NOT NULL,
    promo_code_discount  NUMERIC,
    original_book_price  NUMERIC NOT NULL,
    expected_return_date TIMESTAMP,
    actual_return_date   TIMESTAMP,
    return_order_id      INTEGER
);

CREATE TABLE purchase_order_books
(
    id                           INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id                     INTEGER NOT NULL,
    book_details_id              INTEGER NOT NULL,
    user_uuid                    TEXT    NOT NULL,
    quantity                     INTEGER NOT NULL DEFAULT 1,
    paid_price_per_book          NUMERIC NOT NULL,
    promo_code_discount_per_book NUMERIC
);

CREATE TABLE transactions
(
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    user_uuid        TEXT      NOT NULL,
    order_id         INTEGER,
    amount           NUMERIC   NOT NULL,
    transaction_type TEXT      NOT NULL,
    description      TEXT      NOT NULL DEFAULT '',
    created_at       TIMESTAMP NOT NULL
);

CREATE TABLE settings
(
    id                      INTEGER PRIMARY KEY,
    deposit_perc            NUMERIC NOT NULL,
    borrow_perc             NUMERIC NOT NULL,
    delay_perc              NUMERIC NOT NULL,
    delivery_fees           NUMERIC NOT NULL,
    min_borrow_fee          NUMERIC NOT NULL,
    max_num_of_borrow_books INTEGER NOT NULL
);

INSERT INTO settings (id, deposit_perc, borrow_perc, delay_perc, delivery_fees, min_borrow_fee, max_num_of_borrow_books)
VALUES (1, 30.00, 10.00, 3.00, 20.00, 5.00, 3);

CREATE TABLE notifications
(
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    user_uuid     TEXT,
    role          TEXT,
    type          TEXT      NOT NULL,
    payload       BLOB      NOT NULL,
    created_at    TIMESTAMP NOT NULL,
    dispatched_at TIMESTAMP
);
`

// fakeNotificationClient records sent messages instead of calling the
// gateway.
type fakeNotificationClient struct {
	sent []*clients.NotificationMessage
}

func (f *fakeNotificationClient) Send(message *clients.NotificationMessage) error {
	f.sent = append(f.sent, message)
	return nil
}

type testEnv struct {
	db *sqlx.DB

	userRepo        repository.UserRepository
	bookRepo        repository.BookRepository
	cartRepo        repository.CartRepository
	orderRepo       repository.OrderRepository
	returnRepo      repository.ReturnOrderRepository
	transactionRepo repository.TransactionRepository
	promoRepo       repository.PromoCodeRepository
	settingsRepo    repository.SettingsRepository
	notifRepo       repository.NotificationRepository

	notificationClient *fakeNotificationClient

	walletService   WalletService
	settingsService SettingsService
	notifier        Notifier
	cartService     CartService
	orderService    OrderService
	returnService   ReturnOrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "bookmart.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.MustExec(testSchema)

	env := &testEnv{
		db:                 db,
		userRepo:           repository.NewUserRepository(db),
		bookRepo:           repository.NewBookRepository(db),
		cartRepo:           repository.NewCartRepository(db),
		orderRepo:          repository.NewOrderRepository(db),
		returnRepo:         repository.NewReturnOrderRepository(db),
		transactionRepo:    repository.NewTransactionRepository(db),
		promoRepo:          repository.NewPromoCodeRepository(db),
		settingsRepo:       repository.NewSettingsRepository(db),
		notifRepo:          repository.NewNotificationRepository(db),
		notificationClient: &fakeNotificationClient{},
	}
	env.walletService = NewWalletService(env.userRepo, env.transactionRepo)
	env.settingsService = NewSettingsService(env.settingsRepo, time.Minute)
	env.notifier = NewNotifier(env.notifRepo, env.notificationClient, time.Minute)
	env.cartService = NewCartService(env.cartRepo, env.bookRepo)
	env.orderService = NewOrderService(env.orderRepo, env.bookRepo, env.cartRepo, env.userRepo,
		env.promoRepo, env.walletService, env.settingsService, env.notifier)
	env.returnService = NewReturnOrderService(env.returnRepo, env.orderRepo, env.bookRepo, env.userRepo,
		env.walletService, env.settingsService, env.notifier)
	return env
}

func (env *testEnv) createUser(t *testing.T, role models.UserRole, wallet string) *uuid.UUID {
	t.Helper()
	uid := uuid.New()
	env.db.MustExec(`INSERT INTO users (uuid, first_name, last_name, email, phone_number, password_hash, wallet, role, current_borrowed_books, created_at)
					 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, $9);`,
		uid.String(), "Test", string(role), uid.String()+"@example.com", "+10000000000", "hash", wallet, role.String(), time.Now())
	return &uid
}

// createBook inserts a book with one stock row and returns the book
// details id.
func (env *testEnv) createBook(t *testing.T, price string, status models.BookStatus, stock int) int64 {
	t.Helper()
	res := env.db.MustExec(`INSERT INTO books (title, author, price, created_at) VALUES ($1, $2, $3, $4);`,
		"Book "+string(status), "Author", price, time.Now())
	bookID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("book id: %v", err)
	}
	res = env.db.MustExec(`INSERT INTO book_details (book_id, status, available_stock) VALUES ($1, $2, $3);`,
		bookID, status.String(), stock)
	detailsID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("book details id: %v", err)
	}
	return detailsID
}

func (env *testEnv) createPromoCode(t *testing.T, code string, discountPerc string, active bool) int64 {
	t.Helper()
	res := env.db.MustExec(`INSERT INTO promo_codes (code, discount_perc, is_active) VALUES ($1, $2, $3);`,
		code, discountPerc, active)
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("promo code id: %v", err)
	}
	return id
}

func (env *testEnv) walletBalance(t *testing.T, userUID *uuid.UUID) decimal.Decimal {
	t.Helper()
	var balance decimal.Decimal
	err := env.db.Get(&balance, `SELECT wallet FROM users WHERE uuid = $1;`, userUID)
	if err != nil {
		t.Fatalf("read wallet: %v", err)
	}
	return balance
}

func (env *testEnv) availableStock(t *testing.T, bookDetailsID int64) int {
	t.Helper()
	var stock int
	err := env.db.Get(&stock, `SELECT available_stock FROM book_details WHERE id = $1;`, bookDetailsID)
	if err != nil {
		t.Fatalf("read stock: %v", err)
	}
	return stock
}

func (env *testEnv) borrowedCount(t *testing.T, userUID *uuid.UUID) int {
	t.Helper()
	var count int
	err := env.db.Get(&count, `SELECT current_borrowed_books FROM users WHERE uuid = $1;`, userUID)
	if err != nil {
		t.Fatalf("read borrowed count: %v", err)
	}
	return count
}

func (env *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	err := env.db.Get(&count, `SELECT count(*) FROM `+table+`;`)
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return count
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}
