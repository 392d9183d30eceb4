package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	appContext "github.com/ujwegh/bookmart/internal/app/context"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/service"
)

type (
	ReturnOrdersHandler struct {
		returnOrderService service.ReturnOrderService
		contextTimeout     time.Duration
	}
	BorrowedBookDto struct {
		ID                 int64      `json:"id"`
		BookDetailsID      int64      `json:"book_details_id"`
		Title              string     `json:"title"`
		BorrowingWeeks     int        `json:"borrowing_weeks"`
		ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
		DepositFees        string     `json:"deposit_fees"`
		BorrowFees         string     `json:"borrow_fees"`
		DelayFeesPerDay    string     `json:"delay_fees_per_day"`
	}
	CreateReturnOrderDto struct {
		Address         *string `json:"address,omitempty"`
		PhoneNumber     *string `json:"phone_number,omitempty"`
		PickupType      string  `json:"pickup_type"`
		BorrowedBookIDs []int64 `json:"borrowed_books_ids"`
	}
	ReturnOrderDto struct {
		ID           int64     `json:"id"`
		Address      *string   `json:"address,omitempty"`
		PhoneNumber  *string   `json:"phone_number,omitempty"`
		PickupType   string    `json:"pickup_type"`
		Status       string    `json:"status"`
		DeliveryFees *string   `json:"delivery_fees,omitempty"`
		CreatedAt    time.Time `json:"created_at"`
	}
	ReturnOrderDetailsDto struct {
		ReturnOrder ReturnOrderDto  `json:"return_order"`
		Books       []BorrowLineDto `json:"books"`
	}
	ReturnedBookStateDto struct {
		ID      int64  `json:"id"`
		Problem string `json:"borrow_book_problem"`
	}
	UpdateReturnStatusDto struct {
		ID     int64                  `json:"id"`
		Status string                 `json:"status"`
		Books  []ReturnedBookStateDto `json:"borrow_order_books_details,omitempty"`
	}
)

func NewReturnOrdersHandler(returnOrderService service.ReturnOrderService, contextTimeoutSec int) *ReturnOrdersHandler {
	return &ReturnOrdersHandler{
		returnOrderService: returnOrderService,
		contextTimeout:     time.Duration(contextTimeoutSec) * time.Second,
	}
}

func toReturnOrderDto(returnOrder *models.ReturnOrder) ReturnOrderDto {
	dto := ReturnOrderDto{
		ID:          returnOrder.ID,
		Address:     returnOrder.Address,
		PhoneNumber: returnOrder.PhoneNumber,
		PickupType:  returnOrder.PickupType.String(),
		Status:      returnOrder.Status.String(),
		CreatedAt:   returnOrder.CreatedAt,
	}
	if returnOrder.DeliveryFees != nil {
		fees := returnOrder.DeliveryFees.StringFixed(2)
		dto.DeliveryFees = &fees
	}
	return dto
}

// GetBorrowedBooks lists the caller's books that are still out and can
// go into a new return order.
func (rh *ReturnOrdersHandler) GetBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), rh.contextTimeout)
	defer cancel()

	userUID := appContext.UserUID(r.Context())
	books, err := rh.returnOrderService.GetBorrowedBooks(ctx, userUID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dtos := make([]BorrowedBookDto, 0, len(*books))
	for _, book := range *books {
		dtos = append(dtos, BorrowedBookDto{
			ID:                 book.ID,
			BookDetailsID:      book.BookDetailsID,
			Title:              book.Title,
			BorrowingWeeks:     book.BorrowingWeeks,
			ExpectedReturnDate: book.ExpectedReturnDate,
			DepositFees:        book.DepositFees.StringFixed(2),
			BorrowFees:         book.BorrowFees.StringFixed(2),
			DelayFeesPerDay:    book.DelayFeesPerDay.StringFixed(2),
		})
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}

func (rh *ReturnOrdersHandler) CreateReturnOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), rh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := CreateReturnOrderDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	pickupType := models.PickupType(dto.PickupType)
	if pickupType != models.PickupSite && pickupType != models.PickupCourier {
		PrepareError(w, appErrors.NewValidation("Pickup type must be SITE or COURIER"))
		return
	}

	userUID := appContext.UserUID(r.Context())
	returnOrder, err := rh.returnOrderService.CreateReturnOrder(ctx, userUID, service.CreateReturnOrderInput{
		Address:         dto.Address,
		PhoneNumber:     dto.PhoneNumber,
		PickupType:      pickupType,
		BorrowedBookIDs: dto.BorrowedBookIDs,
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
	writeJSONResponse(w, toReturnOrderDto(returnOrder), http.StatusCreated)
}

func (rh *ReturnOrdersHandler) GetReturnOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), rh.contextTimeout)
	defer cancel()

	userUID := appContext.UserUID(r.Context())
	returnOrders, err := rh.returnOrderService.GetUserReturnOrders(ctx, userUID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dtos := make([]ReturnOrderDto, 0, len(*returnOrders))
	for i := range *returnOrders {
		dtos = append(dtos, toReturnOrderDto(&(*returnOrders)[i]))
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}

func (rh *ReturnOrdersHandler) GetReturnOrderDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), rh.contextTimeout)
	defer cancel()

	returnOrderID, err := strconv.ParseInt(chi.URLParam(r, "returnOrderID"), 10, 64)
	if err != nil {
		err = appErrors.NewWithCode(err, "Invalid return order id", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	userUID := appContext.UserUID(r.Context())
	role := appContext.UserRole(r.Context())
	returnOrder, lines, err := rh.returnOrderService.GetReturnOrderDetails(ctx, userUID, role, returnOrderID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dto := ReturnOrderDetailsDto{
		ReturnOrder: toReturnOrderDto(returnOrder),
		Books:       make([]BorrowLineDto, 0, len(*lines)),
	}
	for i := range *lines {
		dto.Books = append(dto.Books, toBorrowLineDto(&(*lines)[i]))
	}
	writeJSONResponse(w, dto, http.StatusOK)
}

func (rh *ReturnOrdersHandler) GetStaffReturnOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), rh.contextTimeout)
	defer cancel()

	staffUID := appContext.UserUID(r.Context())
	role := appContext.UserRole(r.Context())
	returnOrders, err := rh.returnOrderService.GetStaffReturnOrders(ctx, staffUID, role)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dtos := make([]ReturnOrderDto, 0, len(*returnOrders))
	for i := range *returnOrders {
		dtos = append(dtos, toReturnOrderDto(&(*returnOrders)[i]))
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}

func (rh *ReturnOrdersHandler) UpdateReturnStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), rh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := UpdateReturnStatusDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	input := service.UpdateReturnStatusInput{
		ID:     dto.ID,
		Status: models.ReturnOrderStatus(dto.Status),
		Books:  make([]service.ReturnedBookState, 0, len(dto.Books)),
	}
	for _, book := range dto.Books {
		input.Books = append(input.Books, service.ReturnedBookState{
			ID:      book.ID,
			Problem: models.BorrowBookProblem(book.Problem),
		})
	}

	staffUID := appContext.UserUID(r.Context())
	role := appContext.UserRole(r.Context())
	returnOrder, err := rh.returnOrderService.UpdateReturnStatus(ctx, staffUID, role, input)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, map[string]interface{}{
		"message":         fmt.Sprintf("Return order status updated successfully to %s", returnOrder.Status),
		"return_order_id": returnOrder.ID,
	}, http.StatusOK)
}
