package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	appContext "github.com/ujwegh/bookmart/internal/app/context"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/service"
)

type (
	CartHandler struct {
		cartService    service.CartService
		contextTimeout time.Duration
	}
	AddCartItemDto struct {
		BookDetailsID  int64 `json:"book_details_id"`
		Quantity       int   `json:"quantity"`
		BorrowingWeeks *int  `json:"borrowing_weeks,omitempty"`
	}
	CartItemDto struct {
		BookDetailsID  int64  `json:"book_details_id"`
		Title          string `json:"title"`
		Status         string `json:"status"`
		Price          string `json:"price"`
		Quantity       int    `json:"quantity"`
		BorrowingWeeks *int   `json:"borrowing_weeks,omitempty"`
	}
)

func NewCartHandler(cartService service.CartService, contextTimeoutSec int) *CartHandler {
	return &CartHandler{
		cartService:    cartService,
		contextTimeout: time.Duration(contextTimeoutSec) * time.Second,
	}
}

func (ch *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), ch.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := AddCartItemDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	userUID := appContext.UserUID(r.Context())
	err = ch.cartService.AddItem(ctx, userUID, dto.BookDetailsID, dto.Quantity, dto.BorrowingWeeks)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (ch *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), ch.contextTimeout)
	defer cancel()

	bookDetailsID, err := strconv.ParseInt(chi.URLParam(r, "bookDetailsID"), 10, 64)
	if err != nil {
		err = appErrors.NewWithCode(err, "Invalid book details id", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	userUID := appContext.UserUID(r.Context())
	err = ch.cartService.RemoveItem(ctx, userUID, bookDetailsID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ch *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), ch.contextTimeout)
	defer cancel()

	userUID := appContext.UserUID(r.Context())
	items, err := ch.cartService.GetCart(ctx, userUID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}

	dtos := make([]CartItemDto, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, CartItemDto{
			BookDetailsID:  item.BookDetailsID,
			Title:          item.Title,
			Status:         item.Status.String(),
			Price:          item.Price.StringFixed(2),
			Quantity:       item.Quantity,
			BorrowingWeeks: item.BorrowingWeeks,
		})
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}
