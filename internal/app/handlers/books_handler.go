package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	appContext "github.com/ujwegh/bookmart/internal/app/context"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/service"
)

type (
	BooksHandler struct {
		bookService    service.BookService
		contextTimeout time.Duration
	}
	CreateBookDto struct {
		Title         string          `json:"title"`
		Author        string          `json:"author"`
		Price         decimal.Decimal `json:"price"`
		BorrowStock   int             `json:"borrow_stock"`
		PurchaseStock int             `json:"purchase_stock"`
	}
	BookDto struct {
		ID     int64  `json:"id"`
		Title  string `json:"title"`
		Author string `json:"author"`
		Price  string `json:"price"`
	}
)

func NewBooksHandler(bookService service.BookService, contextTimeoutSec int) *BooksHandler {
	return &BooksHandler{
		bookService:    bookService,
		contextTimeout: time.Duration(contextTimeoutSec) * time.Second,
	}
}

func (bh *BooksHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), bh.contextTimeout)
	defer cancel()

	books, err := bh.bookService.ListBooks(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dtos := make([]BookDto, 0, len(*books))
	for _, book := range *books {
		dtos = append(dtos, BookDto{
			ID:     book.ID,
			Title:  book.Title,
			Author: book.Author,
			Price:  book.Price.StringFixed(2),
		})
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}

func (bh *BooksHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), bh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := CreateBookDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	book, err := bh.bookService.CreateBook(ctx, service.CreateBookInput{
		Title:         dto.Title,
		Author:        dto.Author,
		Price:         dto.Price,
		BorrowStock:   dto.BorrowStock,
		PurchaseStock: dto.PurchaseStock,
	})
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, BookDto{
		ID:     book.ID,
		Title:  book.Title,
		Author: book.Author,
		Price:  book.Price.StringFixed(2),
	}, http.StatusCreated)
}
