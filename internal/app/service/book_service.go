package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
)

type (
	CreateBookInput struct {
		Title         string
		Author        string
		Price         decimal.Decimal
		BorrowStock   int
		PurchaseStock int
	}
	BookService interface {
		CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error)
		ListBooks(ctx context.Context) (*[]models.Book, error)
		GetBookDetails(ctx context.Context, bookDetailsID int64) (*repository.BookDetailsInfo, error)
	}
	BookServiceImpl struct {
		bookRepo repository.BookRepository
	}
)

func NewBookService(bookRepo repository.BookRepository) *BookServiceImpl {
	return &BookServiceImpl{bookRepo: bookRepo}
}

// CreateBook inserts the catalog row plus one stock row per sales
// channel the book participates in.
func (bs *BookServiceImpl) CreateBook(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	if input.Title == "" || input.Author == "" {
		return nil, appErrors.NewValidation("Title and author are required")
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, appErrors.NewValidation("Price must be positive")
	}
	if input.BorrowStock < 0 || input.PurchaseStock < 0 {
		return nil, appErrors.NewValidation("Stock must not be negative")
	}
	if input.BorrowStock == 0 && input.PurchaseStock == 0 {
		return nil, appErrors.NewValidation("Book must have borrow stock, purchase stock or both")
	}

	tx, err := bs.bookRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	book := models.Book{
		Title:     input.Title,
		Author:    input.Author,
		Price:     input.Price,
		CreatedAt: time.Now(),
	}
	err = bs.bookRepo.CreateBook(ctx, tx, &book)
	if err != nil {
		return nil, appErrors.New(err, "create book")
	}
	if input.BorrowStock > 0 {
		details := models.BookDetails{
			BookID:         book.ID,
			Status:         models.BORROW,
			AvailableStock: input.BorrowStock,
		}
		err = bs.bookRepo.CreateBookDetails(ctx, tx, &details)
		if err != nil {
			return nil, appErrors.New(err, "create book details")
		}
	}
	if input.PurchaseStock > 0 {
		details := models.BookDetails{
			BookID:         book.ID,
			Status:         models.PURCHASE,
			AvailableStock: input.PurchaseStock,
		}
		err = bs.bookRepo.CreateBookDetails(ctx, tx, &details)
		if err != nil {
			return nil, appErrors.New(err, "create book details")
		}
	}
	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &book, nil
}

func (bs *BookServiceImpl) ListBooks(ctx context.Context) (*[]models.Book, error) {
	return bs.bookRepo.ListBooks(ctx)
}

func (bs *BookServiceImpl) GetBookDetails(ctx context.Context, bookDetailsID int64) (*repository.BookDetailsInfo, error) {
	details, err := bs.bookRepo.GetDetails(ctx, bookDetailsID)
	if err != nil {
		return nil, appErrors.New(err, "get book details")
	}
	if details == nil {
		return nil, appErrors.NewNotFound(fmt.Sprintf("Book with id %d not found", bookDetailsID))
	}
	return details, nil
}
