package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
)

type (
	// BookDetailsInfo is a BookDetails row joined with its book's title
	// and current price.
	BookDetailsInfo struct {
		ID             int64             `db:"id"`
		BookID         int64             `db:"book_id"`
		Status         models.BookStatus `db:"status"`
		AvailableStock int               `db:"available_stock"`
		Title          string            `db:"title"`
		Price          decimal.Decimal   `db:"price"`
	}
	BookRepository interface {
		CreateBook(ctx context.Context, tx *sqlx.Tx, book *models.Book) error
		CreateBookDetails(ctx context.Context, tx *sqlx.Tx, details *models.BookDetails) error
		GetDetails(ctx context.Context, bookDetailsID int64) (*BookDetailsInfo, error)
		GetDetailsByIDs(ctx context.Context, ids []int64) (map[int64]*BookDetailsInfo, error)
		Reserve(ctx context.Context, tx *sqlx.Tx, bookDetailsID int64, amount int) error
		Release(ctx context.Context, tx *sqlx.Tx, bookDetailsID int64, amount int) error
		ListBooks(ctx context.Context) (*[]models.Book, error)
		GetDB() *sqlx.DB
	}
	BookRepositoryImpl struct {
		db *sqlx.DB
	}
)

func NewBookRepository(db *sqlx.DB) *BookRepositoryImpl {
	return &BookRepositoryImpl{db: db}
}

func (br *BookRepositoryImpl) CreateBook(ctx context.Context, tx *sqlx.Tx, book *models.Book) error {
	query := `INSERT INTO books (title, author, price, created_at) VALUES ($1, $2, $3, $4) returning id;`
	err := tx.GetContext(ctx, &book.ID, query, book.Title, book.Author, book.Price, book.CreatedAt)
	if err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (br *BookRepositoryImpl) CreateBookDetails(ctx context.Context, tx *sqlx.Tx, details *models.BookDetails) error {
	query := `INSERT INTO book_details (book_id, status, available_stock) VALUES ($1, $2, $3) returning id;`
	err := tx.GetContext(ctx, &details.ID, query, details.BookID, details.Status.String(), details.AvailableStock)
	if err != nil {
		return fmt.Errorf("create book details: %w", err)
	}
	return nil
}

const bookDetailsInfoQuery = `SELECT bd.id, bd.book_id, bd.status, bd.available_stock, b.title, b.price
							  FROM book_details bd JOIN books b ON b.id = bd.book_id`

func (br *BookRepositoryImpl) GetDetails(ctx context.Context, bookDetailsID int64) (*BookDetailsInfo, error) {
	query := bookDetailsInfoQuery + ` WHERE bd.id = $1;`
	info := BookDetailsInfo{}
	err := br.db.GetContext(ctx, &info, query, bookDetailsID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get book details: %w", err)
	}
	return &info, nil
}

func (br *BookRepositoryImpl) GetDetailsByIDs(ctx context.Context, ids []int64) (map[int64]*BookDetailsInfo, error) {
	if len(ids) == 0 {
		return map[int64]*BookDetailsInfo{}, nil
	}
	query, args, err := sqlx.In(bookDetailsInfoQuery+` WHERE bd.id IN (?);`, ids)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = br.db.Rebind(query)
	infos := make([]BookDetailsInfo, 0, len(ids))
	if err := br.db.SelectContext(ctx, &infos, query, args...); err != nil {
		return nil, fmt.Errorf("get book details by ids: %w", err)
	}
	result := make(map[int64]*BookDetailsInfo, len(infos))
	for i := range infos {
		result[infos[i].ID] = &infos[i]
	}
	return result, nil
}

// Reserve decrements available stock. The decrement is conditional on
// the current stock, so two concurrent orders can never both take the
// last unit: the losing update matches zero rows and fails here.
func (br *BookRepositoryImpl) Reserve(ctx context.Context, tx *sqlx.Tx, bookDetailsID int64, amount int) error {
	query := `UPDATE book_details SET available_stock = available_stock - $1
			  WHERE id = $2 AND available_stock >= $1;`
	res, err := tx.ExecContext(ctx, query, amount, bookDetailsID)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT count(*) FROM book_details WHERE id = $1;`, bookDetailsID); err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if exists == 0 {
			return appErrors.NewNotFound(fmt.Sprintf("Book details with id %d not found", bookDetailsID))
		}
		return appErrors.NewOutOfStock(fmt.Sprintf("Not enough stock for book details with id %d", bookDetailsID))
	}
	return nil
}

func (br *BookRepositoryImpl) Release(ctx context.Context, tx *sqlx.Tx, bookDetailsID int64, amount int) error {
	query := `UPDATE book_details SET available_stock = available_stock + $1 WHERE id = $2;`
	_, err := tx.ExecContext(ctx, query, amount, bookDetailsID)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	return nil
}

func (br *BookRepositoryImpl) ListBooks(ctx context.Context) (*[]models.Book, error) {
	query := `SELECT * FROM books ORDER BY created_at DESC;`
	books := make([]models.Book, 0)
	err := br.db.SelectContext(ctx, &books, query)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &books, nil
		}
		return nil, fmt.Errorf("list books: %w", err)
	}
	return &books, nil
}

func (br *BookRepositoryImpl) GetDB() *sqlx.DB {
	return br.db
}
