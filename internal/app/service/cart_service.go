package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
)

type (
	// CartItemView is a cart row joined with its book info for display.
	CartItemView struct {
		BookDetailsID  int64
		Title          string
		Status         models.BookStatus
		Price          decimal.Decimal
		Quantity       int
		BorrowingWeeks *int
	}
	CartService interface {
		AddItem(ctx context.Context, userUID *uuid.UUID, bookDetailsID int64, quantity int, borrowingWeeks *int) error
		RemoveItem(ctx context.Context, userUID *uuid.UUID, bookDetailsID int64) error
		GetCart(ctx context.Context, userUID *uuid.UUID) ([]CartItemView, error)
	}
	CartServiceImpl struct {
		cartRepo repository.CartRepository
		bookRepo repository.BookRepository
	}
)

func NewCartService(cartRepo repository.CartRepository, bookRepo repository.BookRepository) *CartServiceImpl {
	return &CartServiceImpl{cartRepo: cartRepo, bookRepo: bookRepo}
}

func (cs *CartServiceImpl) AddItem(ctx context.Context, userUID *uuid.UUID, bookDetailsID int64, quantity int, borrowingWeeks *int) error {
	details, err := cs.bookRepo.GetDetails(ctx, bookDetailsID)
	if err != nil {
		return appErrors.New(err, "get book details")
	}
	if details == nil {
		return appErrors.NewNotFound(fmt.Sprintf("Book with id %d not found", bookDetailsID))
	}

	switch details.Status {
	case models.BORROW:
		if borrowingWeeks == nil {
			return appErrors.NewValidation("Borrowing weeks are required for borrowed books")
		}
		if *borrowingWeeks < 1 || *borrowingWeeks > 4 {
			return appErrors.NewValidation("Borrowing weeks must be between 1 and 4.")
		}
		if details.AvailableStock < 1 {
			return appErrors.NewOutOfStock(fmt.Sprintf("Book with id %d is out of stock.", bookDetailsID))
		}
		// A borrow line is always a single copy.
		quantity = 1
	case models.PURCHASE:
		if borrowingWeeks != nil {
			return appErrors.NewValidation("Borrowing weeks apply only to borrowed books")
		}
		if quantity <= 0 || quantity > details.AvailableStock {
			return appErrors.NewValidation(
				fmt.Sprintf("Invalid quantity or not enough stock for book with id %d.", bookDetailsID))
		}
	}

	existing, err := cs.cartRepo.GetItem(ctx, userUID, bookDetailsID)
	if err != nil {
		return appErrors.New(err, "get cart item")
	}
	if existing != nil && details.Status == models.PURCHASE {
		// Re-adding a purchase line grows it, still capped by stock.
		quantity += existing.Quantity
		if quantity > details.AvailableStock {
			return appErrors.NewValidation(
				fmt.Sprintf("Invalid quantity or not enough stock for book with id %d.", bookDetailsID))
		}
	}
	item := models.CartItem{
		UserUUID:       *userUID,
		BookDetailsID:  bookDetailsID,
		Quantity:       quantity,
		BorrowingWeeks: borrowingWeeks,
		CreatedAt:      time.Now(),
	}
	if existing != nil {
		err = cs.cartRepo.Update(ctx, &item)
	} else {
		err = cs.cartRepo.Insert(ctx, &item)
	}
	if err != nil {
		return appErrors.New(err, "save cart item")
	}
	return nil
}

func (cs *CartServiceImpl) RemoveItem(ctx context.Context, userUID *uuid.UUID, bookDetailsID int64) error {
	found, err := cs.cartRepo.Delete(ctx, userUID, bookDetailsID)
	if err != nil {
		return appErrors.New(err, "delete cart item")
	}
	if !found {
		return appErrors.NewNotFound("Cart item not found")
	}
	return nil
}

func (cs *CartServiceImpl) GetCart(ctx context.Context, userUID *uuid.UUID) ([]CartItemView, error) {
	items, err := cs.cartRepo.ListByUser(ctx, userUID)
	if err != nil {
		return nil, appErrors.New(err, "list cart items")
	}
	views := make([]CartItemView, 0, len(*items))
	if len(*items) == 0 {
		return views, nil
	}
	ids := make([]int64, 0, len(*items))
	for _, item := range *items {
		ids = append(ids, item.BookDetailsID)
	}
	detailsByID, err := cs.bookRepo.GetDetailsByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.New(err, "get book details")
	}
	for _, item := range *items {
		details, ok := detailsByID[item.BookDetailsID]
		if !ok {
			continue
		}
		views = append(views, CartItemView{
			BookDetailsID:  item.BookDetailsID,
			Title:          details.Title,
			Status:         details.Status,
			Price:          details.Price,
			Quantity:       item.Quantity,
			BorrowingWeeks: item.BorrowingWeeks,
		})
	}
	return views, nil
}
