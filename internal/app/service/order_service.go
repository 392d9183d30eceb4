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
	CreateOrderInput struct {
		Address     *string
		PhoneNumber *string
		PickupType  models.PickupType
		PromoCodeID *int64
	}
	OrderDetails struct {
		Order         *models.Order
		BorrowBooks   []models.BorrowOrderBook
		PurchaseBooks []models.PurchaseOrderBook
	}
	OrderService interface {
		CreateOrder(ctx context.Context, userUID *uuid.UUID, input CreateOrderInput) (*models.Order, error)
		GetUserOrders(ctx context.Context, userUID *uuid.UUID) (*[]models.Order, error)
		GetOrderDetails(ctx context.Context, userUID *uuid.UUID, role models.UserRole, orderID int64) (*OrderDetails, error)
		GetStaffOrders(ctx context.Context, staffUID *uuid.UUID, role models.UserRole) (*[]models.Order, error)
		UpdateOrderStatus(ctx context.Context, staffUID *uuid.UUID, role models.UserRole, orderID int64, newStatus models.OrderStatus) (*models.Order, error)
		UpdateBorrowProblem(ctx context.Context, lineID int64, newProblem models.BorrowBookProblem) (*models.BorrowOrderBook, error)
	}
	OrderServiceImpl struct {
		orderRepo       repository.OrderRepository
		bookRepo        repository.BookRepository
		cartRepo        repository.CartRepository
		userRepo        repository.UserRepository
		promoCodeRepo   repository.PromoCodeRepository
		walletService   WalletService
		settingsService SettingsService
		notifier        Notifier
	}
)

func NewOrderService(orderRepo repository.OrderRepository,
	bookRepo repository.BookRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	promoCodeRepo repository.PromoCodeRepository,
	walletService WalletService,
	settingsService SettingsService,
	notifier Notifier) *OrderServiceImpl {
	return &OrderServiceImpl{
		orderRepo:       orderRepo,
		bookRepo:        bookRepo,
		cartRepo:        cartRepo,
		userRepo:        userRepo,
		promoCodeRepo:   promoCodeRepo,
		walletService:   walletService,
		settingsService: settingsService,
		notifier:        notifier,
	}
}

// CreateOrder turns the user's cart into an order in one transaction:
// snapshot fees per line, reserve stock, charge the wallet once for the
// whole order and clear the cart. Any failure rolls the whole thing
// back, stock included.
func (os *OrderServiceImpl) CreateOrder(ctx context.Context, userUID *uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	settings, err := os.settingsService.Get(ctx)
	if err != nil {
		return nil, err
	}
	user, err := os.userRepo.GetByUUID(ctx, userUID)
	if err != nil {
		return nil, appErrors.New(err, "get user")
	}
	items, err := os.cartRepo.ListByUser(ctx, userUID)
	if err != nil {
		return nil, appErrors.New(err, "list cart items")
	}
	if len(*items) == 0 {
		return nil, appErrors.NewValidation("Cart is empty")
	}

	if input.PickupType == models.PickupCourier {
		if input.Address == nil || *input.Address == "" {
			return nil, appErrors.NewValidation("Address is required for courier pickup.")
		}
		if input.PhoneNumber == nil || *input.PhoneNumber == "" {
			return nil, appErrors.NewValidation("Phone number is required for courier pickup.")
		}
	}

	var promoCodePerc *decimal.Decimal
	if input.PromoCodeID != nil {
		promo, pErr := os.promoCodeRepo.GetByID(ctx, *input.PromoCodeID)
		if pErr != nil {
			return nil, appErrors.New(pErr, "get promo code")
		}
		if promo == nil || !promo.IsActive {
			return nil, appErrors.NewValidation("Invalid or inactive promo code.")
		}
		promoCodePerc = &promo.DiscountPerc
	}

	ids := make([]int64, 0, len(*items))
	for _, item := range *items {
		ids = append(ids, item.BookDetailsID)
	}
	detailsByID, err := os.bookRepo.GetDetailsByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.New(err, "get book details")
	}

	for _, item := range *items {
		if _, ok := detailsByID[item.BookDetailsID]; !ok {
			return nil, appErrors.NewNotFound(fmt.Sprintf("Book details with id %d not found.", item.BookDetailsID))
		}
	}
	borrowCount, err := os.cartRepo.SumBorrowQuantity(ctx, userUID)
	if err != nil {
		return nil, appErrors.New(err, "sum borrow quantity")
	}
	if borrowCount+user.CurrentBorrowedBooks > settings.MaxNumOfBorrowBooks {
		return nil, appErrors.NewLimitExceeded(
			fmt.Sprintf("Cannot borrow more than %d books at once.", settings.MaxNumOfBorrowBooks))
	}

	tx, err := os.orderRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	totalOrderValue := decimal.Zero
	var deliveryFees *decimal.Decimal
	if input.PickupType == models.PickupCourier {
		fees := settings.DeliveryFees
		deliveryFees = &fees
		totalOrderValue = totalOrderValue.Add(fees)
	}

	order := models.Order{
		Address:      input.Address,
		PhoneNumber:  input.PhoneNumber,
		PickupType:   input.PickupType,
		Status:       models.OrderCreated,
		DeliveryFees: deliveryFees,
		UserUUID:     *userUID,
		PromoCodeID:  input.PromoCodeID,
		CreatedAt:    time.Now(),
	}
	err = os.orderRepo.CreateOrder(ctx, tx, &order)
	if err != nil {
		return nil, appErrors.New(err, "create order")
	}

	for _, item := range *items {
		details := detailsByID[item.BookDetailsID]
		switch details.Status {
		case models.BORROW:
			if item.BorrowingWeeks == nil || *item.BorrowingWeeks < 1 || *item.BorrowingWeeks > 4 {
				return nil, appErrors.NewValidation("Borrowing weeks must be between 1 and 4.")
			}
			fees := CalculateBorrowFees(details.Price, *item.BorrowingWeeks, settings, promoCodePerc)
			err = os.bookRepo.Reserve(ctx, tx, item.BookDetailsID, 1)
			if err != nil {
				return nil, err
			}
			line := models.BorrowOrderBook{
				OrderID:           order.ID,
				BookDetailsID:     item.BookDetailsID,
				UserUUID:          *userUID,
				BorrowingWeeks:    *item.BorrowingWeeks,
				BorrowBookProblem: models.ProblemNormal,
				DepositFees:       fees.DepositFees,
				BorrowFees:        fees.BorrowFees,
				DelayFeesPerDay:   fees.DelayFeesPerDay,
				OriginalBookPrice: details.Price,
			}
			if promoCodePerc != nil {
				discount := fees.PromoCodeDiscount
				line.PromoCodeDiscount = &discount
			}
			err = os.orderRepo.AddBorrowLine(ctx, tx, &line)
			if err != nil {
				return nil, appErrors.New(err, "add borrow line")
			}
			totalOrderValue = totalOrderValue.Add(fees.BorrowFees).Add(fees.DepositFees)
		case models.PURCHASE:
			if item.Quantity <= 0 {
				return nil, appErrors.NewValidation(
					fmt.Sprintf("Invalid quantity or not enough stock for book with id %d.", item.BookDetailsID))
			}
			fees := CalculatePurchaseFees(details.Price, promoCodePerc)
			err = os.bookRepo.Reserve(ctx, tx, item.BookDetailsID, item.Quantity)
			if err != nil {
				return nil, err
			}
			line := models.PurchaseOrderBook{
				OrderID:          order.ID,
				BookDetailsID:    item.BookDetailsID,
				UserUUID:         *userUID,
				Quantity:         item.Quantity,
				PaidPricePerBook: fees.PaidPricePerBook,
			}
			if promoCodePerc != nil {
				discount := fees.PromoCodeDiscountPerBook
				line.PromoCodeDiscountPerBook = &discount
			}
			err = os.orderRepo.AddPurchaseLine(ctx, tx, &line)
			if err != nil {
				return nil, appErrors.New(err, "add purchase line")
			}
			totalOrderValue = totalOrderValue.Add(fees.PaidPricePerBook.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}

	err = os.walletService.PayFromWallet(ctx, tx, userUID, &order.ID, totalOrderValue,
		fmt.Sprintf("Payment for Order ID: %d", order.ID), false)
	if err != nil {
		return nil, err
	}
	if borrowCount > 0 {
		err = os.userRepo.AdjustBorrowedCount(ctx, tx, userUID, borrowCount)
		if err != nil {
			return nil, appErrors.New(err, "adjust borrowed count")
		}
	}
	err = os.cartRepo.DeleteAll(ctx, tx, userUID)
	if err != nil {
		return nil, appErrors.New(err, "clear cart")
	}
	err = os.notifier.Enqueue(ctx, tx, NotificationEvent{
		UserUID: userUID,
		Type:    models.NotifyOrderCreated,
		Payload: map[string]interface{}{
			"order_id":    order.ID,
			"pickup_type": order.PickupType,
			"total":       totalOrderValue,
		},
	})
	if err != nil {
		return nil, err
	}
	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &order, nil
}

func (os *OrderServiceImpl) GetUserOrders(ctx context.Context, userUID *uuid.UUID) (*[]models.Order, error) {
	return os.orderRepo.GetOrdersByUserUID(ctx, userUID)
}

func (os *OrderServiceImpl) GetOrderDetails(ctx context.Context, userUID *uuid.UUID, role models.UserRole, orderID int64) (*OrderDetails, error) {
	order, err := os.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, appErrors.New(err, "get order")
	}
	if order == nil {
		return nil, appErrors.NewNotFound(fmt.Sprintf("Order with id %d not found.", orderID))
	}
	if role == models.CLIENT && order.UserUUID != *userUID {
		return nil, appErrors.NewForbidden("You are not authorized to view this order.")
	}
	borrowLines, err := os.orderRepo.GetBorrowLinesByOrder(ctx, orderID)
	if err != nil {
		return nil, appErrors.New(err, "get borrow lines")
	}
	purchaseLines, err := os.orderRepo.GetPurchaseLinesByOrder(ctx, orderID)
	if err != nil {
		return nil, appErrors.New(err, "get purchase lines")
	}
	return &OrderDetails{
		Order:         order,
		BorrowBooks:   *borrowLines,
		PurchaseBooks: *purchaseLines,
	}, nil
}

// GetStaffOrders lists the orders relevant to a staff member: site
// pickups for employees, courier deliveries for couriers. A courier
// sees unclaimed orders plus their own.
func (os *OrderServiceImpl) GetStaffOrders(ctx context.Context, staffUID *uuid.UUID, role models.UserRole) (*[]models.Order, error) {
	switch role {
	case models.COURIER:
		return os.orderRepo.ListByPickupType(ctx, models.PickupCourier, staffUID)
	default:
		return os.orderRepo.ListByPickupType(ctx, models.PickupSite, nil)
	}
}

func (os *OrderServiceImpl) UpdateOrderStatus(ctx context.Context, staffUID *uuid.UUID, role models.UserRole, orderID int64, newStatus models.OrderStatus) (*models.Order, error) {
	order, err := os.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, appErrors.New(err, "get order")
	}
	if order == nil {
		return nil, appErrors.NewNotFound(fmt.Sprintf("Order with id %d not found.", orderID))
	}
	err = validateOrderTransition(order.Status, newStatus)
	if err != nil {
		return nil, err
	}

	switch newStatus {
	case models.OrderOnTheWay:
		if role != models.COURIER {
			return nil, appErrors.NewForbidden("Only couriers can set order status to ON_THE_WAY")
		}
		order.CourierUUID = staffUID
	case models.OrderPickedUp:
		if role == models.COURIER && (order.CourierUUID == nil || *order.CourierUUID != *staffUID) {
			return nil, appErrors.NewForbidden("You are not authorized to update this order's status.")
		}
		now := time.Now()
		order.PickupDate = &now
	}
	order.Status = newStatus

	tx, err := os.orderRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = os.orderRepo.UpdateOrderStatus(ctx, tx, order)
	if err != nil {
		return nil, appErrors.New(err, "update order status")
	}
	if newStatus == models.OrderPickedUp {
		// The borrowing clock starts at pickup, not at order creation.
		lines, lErr := os.orderRepo.GetBorrowLinesByOrder(ctx, orderID)
		if lErr != nil {
			return nil, appErrors.New(lErr, "get borrow lines")
		}
		for _, line := range *lines {
			expected := order.PickupDate.AddDate(0, 0, line.BorrowingWeeks*7)
			err = os.orderRepo.SetBorrowLineExpectedReturn(ctx, tx, line.ID, expected)
			if err != nil {
				return nil, appErrors.New(err, "set expected return date")
			}
		}
	}
	err = os.notifier.Enqueue(ctx, tx, NotificationEvent{
		UserUID: &order.UserUUID,
		Type:    models.NotifyOrderStatusUpdated,
		Payload: map[string]interface{}{
			"order_id": order.ID,
			"status":   order.Status,
		},
	})
	if err != nil {
		return nil, err
	}
	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return order, nil
}

// UpdateBorrowProblem marks a borrowed book lost or damaged while it is
// still out. The client is charged the remainder of the book price not
// already covered by the deposit and borrow fees; the debit may push
// the wallet negative. Stock is not restored.
func (os *OrderServiceImpl) UpdateBorrowProblem(ctx context.Context, lineID int64, newProblem models.BorrowBookProblem) (*models.BorrowOrderBook, error) {
	if newProblem != models.ProblemLost && newProblem != models.ProblemDamaged {
		return nil, appErrors.NewValidation("New status must be LOST or DAMAGED.")
	}
	line, err := os.orderRepo.GetBorrowLine(ctx, lineID)
	if err != nil {
		return nil, appErrors.New(err, "get borrow line")
	}
	if line == nil {
		return nil, appErrors.NewNotFound(fmt.Sprintf("Borrow order book with id %d not found.", lineID))
	}
	if line.BorrowBookProblem != models.ProblemNormal {
		return nil, appErrors.NewInvalidStateTransition(fmt.Sprintf(
			"Cannot update status from %s to %s. Only updates from NORMAL are allowed to a non-NORMAL state.",
			line.BorrowBookProblem, newProblem))
	}
	if line.ReturnOrderID != nil {
		return nil, appErrors.NewInvalidStateTransition(
			fmt.Sprintf("Borrow order book with id %d is already part of a return order.", lineID))
	}

	tx, err := os.orderRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	penaltyFees := line.OriginalBookPrice.Sub(line.DepositFees.Add(line.BorrowFees))
	if penaltyFees.IsPositive() {
		err = os.walletService.PayFromWallet(ctx, tx, &line.UserUUID, nil, penaltyFees,
			fmt.Sprintf("Charge for lost or damaged book (ID: %d)", line.BookDetailsID), true)
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	line.BorrowBookProblem = newProblem
	line.ActualReturnDate = &now
	err = os.orderRepo.UpdateBorrowLineProblem(ctx, tx, line)
	if err != nil {
		return nil, appErrors.New(err, "update borrow line problem")
	}
	err = os.userRepo.AdjustBorrowedCount(ctx, tx, &line.UserUUID, -1)
	if err != nil {
		return nil, appErrors.New(err, "adjust borrowed count")
	}
	err = os.notifier.Enqueue(ctx, tx, NotificationEvent{
		UserUID: &line.UserUUID,
		Type:    models.NotifyOrderStatusUpdated,
		Payload: map[string]interface{}{
			"borrow_order_book_id": line.ID,
			"problem":              newProblem,
		},
	})
	if err != nil {
		return nil, err
	}
	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return line, nil
}
