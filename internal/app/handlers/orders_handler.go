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
	OrdersHandler struct {
		orderService   service.OrderService
		contextTimeout time.Duration
	}
	CreateOrderDto struct {
		Address     *string `json:"address,omitempty"`
		PhoneNumber *string `json:"phone_number,omitempty"`
		PickupType  string  `json:"pickup_type"`
		PromoCodeID *int64  `json:"promo_code_id,omitempty"`
	}
	OrderCreatedDto struct {
		Message string `json:"message"`
		OrderID int64  `json:"order_id"`
	}
	OrderDto struct {
		ID           int64      `json:"id"`
		Address      *string    `json:"address,omitempty"`
		PhoneNumber  *string    `json:"phone_number,omitempty"`
		PickupDate   *time.Time `json:"pickup_date,omitempty"`
		PickupType   string     `json:"pickup_type"`
		Status       string     `json:"status"`
		DeliveryFees *string    `json:"delivery_fees,omitempty"`
		CreatedAt    time.Time  `json:"created_at"`
	}
	BorrowLineDto struct {
		ID                 int64      `json:"id"`
		BookDetailsID      int64      `json:"book_details_id"`
		BorrowingWeeks     int        `json:"borrowing_weeks"`
		Problem            string     `json:"borrow_book_problem"`
		DepositFees        string     `json:"deposit_fees"`
		BorrowFees         string     `json:"borrow_fees"`
		DelayFeesPerDay    string     `json:"delay_fees_per_day"`
		PromoCodeDiscount  *string    `json:"promo_code_discount,omitempty"`
		OriginalBookPrice  string     `json:"original_book_price"`
		ExpectedReturnDate *time.Time `json:"expected_return_date,omitempty"`
		ActualReturnDate   *time.Time `json:"actual_return_date,omitempty"`
		ReturnOrderID      *int64     `json:"return_order_id,omitempty"`
	}
	PurchaseLineDto struct {
		ID                       int64   `json:"id"`
		BookDetailsID            int64   `json:"book_details_id"`
		Quantity                 int     `json:"quantity"`
		PaidPricePerBook         string  `json:"paid_price_per_book"`
		PromoCodeDiscountPerBook *string `json:"promo_code_discount_per_book,omitempty"`
	}
	OrderDetailsDto struct {
		Order         OrderDto          `json:"order"`
		BorrowBooks   []BorrowLineDto   `json:"borrow_books"`
		PurchaseBooks []PurchaseLineDto `json:"purchase_books"`
	}
	UpdateOrderStatusDto struct {
		OrderID   int64  `json:"order_id"`
		NewStatus string `json:"new_status"`
	}
	UpdateBorrowProblemDto struct {
		BorrowOrderBookID int64  `json:"borrow_order_book_id"`
		NewStatus         string `json:"new_status"`
	}
	MessageDto struct {
		Message string `json:"message"`
	}
)

func NewOrdersHandler(orderService service.OrderService, contextTimeoutSec int) *OrdersHandler {
	return &OrdersHandler{
		orderService:   orderService,
		contextTimeout: time.Duration(contextTimeoutSec) * time.Second,
	}
}

func toOrderDto(order *models.Order) OrderDto {
	dto := OrderDto{
		ID:          order.ID,
		Address:     order.Address,
		PhoneNumber: order.PhoneNumber,
		PickupDate:  order.PickupDate,
		PickupType:  order.PickupType.String(),
		Status:      order.Status.String(),
		CreatedAt:   order.CreatedAt,
	}
	if order.DeliveryFees != nil {
		fees := order.DeliveryFees.StringFixed(2)
		dto.DeliveryFees = &fees
	}
	return dto
}

func toBorrowLineDto(line *models.BorrowOrderBook) BorrowLineDto {
	dto := BorrowLineDto{
		ID:                 line.ID,
		BookDetailsID:      line.BookDetailsID,
		BorrowingWeeks:     line.BorrowingWeeks,
		Problem:            line.BorrowBookProblem.String(),
		DepositFees:        line.DepositFees.StringFixed(2),
		BorrowFees:         line.BorrowFees.StringFixed(2),
		DelayFeesPerDay:    line.DelayFeesPerDay.StringFixed(2),
		OriginalBookPrice:  line.OriginalBookPrice.StringFixed(2),
		ExpectedReturnDate: line.ExpectedReturnDate,
		ActualReturnDate:   line.ActualReturnDate,
		ReturnOrderID:      line.ReturnOrderID,
	}
	if line.PromoCodeDiscount != nil {
		discount := line.PromoCodeDiscount.StringFixed(2)
		dto.PromoCodeDiscount = &discount
	}
	return dto
}

// CreateOrder turns the caller's cart into an order.
func (oh *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), oh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := CreateOrderDto{}
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
	order, err := oh.orderService.CreateOrder(ctx, userUID, service.CreateOrderInput{
		Address:     dto.Address,
		PhoneNumber: dto.PhoneNumber,
		PickupType:  pickupType,
		PromoCodeID: dto.PromoCodeID,
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
	writeJSONResponse(w, OrderCreatedDto{
		Message: "Order created successfully",
		OrderID: order.ID,
	}, http.StatusCreated)
}

func (oh *OrdersHandler) GetOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), oh.contextTimeout)
	defer cancel()

	userUID := appContext.UserUID(r.Context())
	orders, err := oh.orderService.GetUserOrders(ctx, userUID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dtos := make([]OrderDto, 0, len(*orders))
	for i := range *orders {
		dtos = append(dtos, toOrderDto(&(*orders)[i]))
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}

func (oh *OrdersHandler) GetOrderDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), oh.contextTimeout)
	defer cancel()

	orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		err = appErrors.NewWithCode(err, "Invalid order id", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	userUID := appContext.UserUID(r.Context())
	role := appContext.UserRole(r.Context())
	details, err := oh.orderService.GetOrderDetails(ctx, userUID, role, orderID)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}

	dto := OrderDetailsDto{
		Order:         toOrderDto(details.Order),
		BorrowBooks:   make([]BorrowLineDto, 0, len(details.BorrowBooks)),
		PurchaseBooks: make([]PurchaseLineDto, 0, len(details.PurchaseBooks)),
	}
	for i := range details.BorrowBooks {
		dto.BorrowBooks = append(dto.BorrowBooks, toBorrowLineDto(&details.BorrowBooks[i]))
	}
	for _, line := range details.PurchaseBooks {
		lineDto := PurchaseLineDto{
			ID:               line.ID,
			BookDetailsID:    line.BookDetailsID,
			Quantity:         line.Quantity,
			PaidPricePerBook: line.PaidPricePerBook.StringFixed(2),
		}
		if line.PromoCodeDiscountPerBook != nil {
			discount := line.PromoCodeDiscountPerBook.StringFixed(2)
			lineDto.PromoCodeDiscountPerBook = &discount
		}
		dto.PurchaseBooks = append(dto.PurchaseBooks, lineDto)
	}
	writeJSONResponse(w, dto, http.StatusOK)
}

// GetStaffOrders lists the orders a staff member works with, scoped by
// their role.
func (oh *OrdersHandler) GetStaffOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), oh.contextTimeout)
	defer cancel()

	staffUID := appContext.UserUID(r.Context())
	role := appContext.UserRole(r.Context())
	orders, err := oh.orderService.GetStaffOrders(ctx, staffUID, role)
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	dtos := make([]OrderDto, 0, len(*orders))
	for i := range *orders {
		dtos = append(dtos, toOrderDto(&(*orders)[i]))
	}
	writeJSONResponse(w, dtos, http.StatusOK)
}

func (oh *OrdersHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), oh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := UpdateOrderStatusDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	staffUID := appContext.UserUID(r.Context())
	role := appContext.UserRole(r.Context())
	order, err := oh.orderService.UpdateOrderStatus(ctx, staffUID, role, dto.OrderID, models.OrderStatus(dto.NewStatus))
	if err != nil {
		PrepareError(w, err)
		return
	}
	err = appContext.GetContextError(ctx)
	if err != nil {
		PrepareError(w, err)
		return
	}
	writeJSONResponse(w, OrderCreatedDto{
		Message: fmt.Sprintf("Order status updated successfully to %s", order.Status),
		OrderID: order.ID,
	}, http.StatusOK)
}

func (oh *OrdersHandler) UpdateBorrowProblem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), oh.contextTimeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = appErrors.NewWithCode(err, errMsgEnableReadBody, http.StatusBadRequest)
		PrepareError(w, err)
		return
	}
	dto := UpdateBorrowProblemDto{}
	err = json.Unmarshal(body, &dto)
	if err != nil {
		err = appErrors.NewWithCode(err, "Unable to parse body", http.StatusBadRequest)
		PrepareError(w, err)
		return
	}

	line, err := oh.orderService.UpdateBorrowProblem(ctx, dto.BorrowOrderBookID, models.BorrowBookProblem(dto.NewStatus))
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
		"message":              fmt.Sprintf("Borrow order book status updated successfully to %s", line.BorrowBookProblem),
		"borrow_order_book_id": line.ID,
	}, http.StatusOK)
}
