package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
)

type (
	CreateReturnOrderInput struct {
		Address         *string
		PhoneNumber     *string
		PickupType      models.PickupType
		BorrowedBookIDs []int64
	}
	// ReturnedBookState is the per-book verdict an employee submits when
	// closing a return order.
	ReturnedBookState struct {
		ID      int64
		Problem models.BorrowBookProblem
	}
	UpdateReturnStatusInput struct {
		ID     int64
		Status models.ReturnOrderStatus
		Books  []ReturnedBookState
	}
	ReturnOrderService interface {
		GetBorrowedBooks(ctx context.Context, userUID *uuid.UUID) (*[]repository.BorrowedBookInfo, error)
		CreateReturnOrder(ctx context.Context, userUID *uuid.UUID, input CreateReturnOrderInput) (*models.ReturnOrder, error)
		GetUserReturnOrders(ctx context.Context, userUID *uuid.UUID) (*[]models.ReturnOrder, error)
		GetReturnOrderDetails(ctx context.Context, userUID *uuid.UUID, role models.UserRole, returnOrderID int64) (*models.ReturnOrder, *[]models.BorrowOrderBook, error)
		GetStaffReturnOrders(ctx context.Context, staffUID *uuid.UUID, role models.UserRole) (*[]models.ReturnOrder, error)
		UpdateReturnStatus(ctx context.Context, staffUID *uuid.UUID, role models.UserRole, input UpdateReturnStatusInput) (*models.ReturnOrder, error)
	}
	ReturnOrderServiceImpl struct {
		returnOrderRepo repository.ReturnOrderRepository
		orderRepo       repository.OrderRepository
		bookRepo        repository.BookRepository
		userRepo        repository.UserRepository
		walletService   WalletService
		settingsService SettingsService
		notifier        Notifier
	}
)

func NewReturnOrderService(returnOrderRepo repository.ReturnOrderRepository,
	orderRepo repository.OrderRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	walletService WalletService,
	settingsService SettingsService,
	notifier Notifier) *ReturnOrderServiceImpl {
	return &ReturnOrderServiceImpl{
		returnOrderRepo: returnOrderRepo,
		orderRepo:       orderRepo,
		bookRepo:        bookRepo,
		userRepo:        userRepo,
		walletService:   walletService,
		settingsService: settingsService,
		notifier:        notifier,
	}
}

func (rs *ReturnOrderServiceImpl) GetBorrowedBooks(ctx context.Context, userUID *uuid.UUID) (*[]repository.BorrowedBookInfo, error) {
	return rs.orderRepo.GetOutstandingBorrows(ctx, userUID)
}

func (rs *ReturnOrderServiceImpl) CreateReturnOrder(ctx context.Context, userUID *uuid.UUID, input CreateReturnOrderInput) (*models.ReturnOrder, error) {
	if len(input.BorrowedBookIDs) == 0 {
		return nil, appErrors.NewValidation("No books selected for return.")
	}
	var deliveryFees *decimal.Decimal
	if input.PickupType == models.PickupCourier {
		if input.Address == nil || *input.Address == "" {
			return nil, appErrors.NewValidation("Address is required for courier pickup.")
		}
		if input.PhoneNumber == nil || *input.PhoneNumber == "" {
			return nil, appErrors.NewValidation("Phone number is required for courier pickup.")
		}
		settings, err := rs.settingsService.Get(ctx)
		if err != nil {
			return nil, err
		}
		fees := settings.DeliveryFees
		deliveryFees = &fees
	}

	tx, err := rs.returnOrderRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	returnOrder := models.ReturnOrder{
		Address:      input.Address,
		PhoneNumber:  input.PhoneNumber,
		PickupType:   input.PickupType,
		Status:       models.ReturnCreated,
		DeliveryFees: deliveryFees,
		UserUUID:     *userUID,
		CreatedAt:    time.Now(),
	}
	err = rs.returnOrderRepo.Create(ctx, tx, &returnOrder)
	if err != nil {
		return nil, appErrors.New(err, "create return order")
	}

	if deliveryFees != nil {
		err = rs.walletService.PayFromWallet(ctx, tx, userUID, nil, *deliveryFees,
			fmt.Sprintf("Delivery fees for Return Order ID:%d", returnOrder.ID), false)
		if err != nil {
			return nil, err
		}
	}

	candidates, err := rs.returnOrderRepo.GetReturnCandidates(ctx, tx, userUID, input.BorrowedBookIDs)
	if err != nil {
		return nil, appErrors.New(err, "get return candidates")
	}
	if len(*candidates) != len(input.BorrowedBookIDs) {
		return nil, appErrors.NewValidation(
			"One or more selected books are not valid for return or not currently loaned to you.")
	}
	for _, candidate := range *candidates {
		if candidate.OrderStatus != models.OrderPickedUp {
			return nil, appErrors.NewValidation(
				fmt.Sprintf("Book ID %d has not been picked up yet.", candidate.ID))
		}
		if candidate.BorrowBookProblem != models.ProblemNormal {
			return nil, appErrors.NewValidation(
				fmt.Sprintf("Book ID %d has a problem status and cannot be returned normally.", candidate.ID))
		}
		err = rs.returnOrderRepo.LinkBorrowLine(ctx, tx, returnOrder.ID, candidate.ID)
		if err != nil {
			return nil, err
		}
	}

	err = rs.notifier.Enqueue(ctx, tx, NotificationEvent{
		UserUID: userUID,
		Type:    models.NotifyReturnCreated,
		Payload: map[string]interface{}{
			"return_order_id": returnOrder.ID,
			"book_ids":        input.BorrowedBookIDs,
		},
	})
	if err != nil {
		return nil, err
	}
	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &returnOrder, nil
}

func (rs *ReturnOrderServiceImpl) GetUserReturnOrders(ctx context.Context, userUID *uuid.UUID) (*[]models.ReturnOrder, error) {
	return rs.returnOrderRepo.ListByUser(ctx, userUID)
}

func (rs *ReturnOrderServiceImpl) GetReturnOrderDetails(ctx context.Context, userUID *uuid.UUID, role models.UserRole, returnOrderID int64) (*models.ReturnOrder, *[]models.BorrowOrderBook, error) {
	returnOrder, err := rs.returnOrderRepo.GetByID(ctx, returnOrderID)
	if err != nil {
		return nil, nil, appErrors.New(err, "get return order")
	}
	if returnOrder == nil {
		return nil, nil, appErrors.NewNotFound(fmt.Sprintf("Return Order with id %d not found.", returnOrderID))
	}
	if role == models.CLIENT && returnOrder.UserUUID != *userUID {
		return nil, nil, appErrors.NewForbidden("You are not authorized to view this return order.")
	}
	lines, err := rs.returnOrderRepo.GetLines(ctx, returnOrderID)
	if err != nil {
		return nil, nil, appErrors.New(err, "get return order lines")
	}
	return returnOrder, lines, nil
}

func (rs *ReturnOrderServiceImpl) GetStaffReturnOrders(ctx context.Context, staffUID *uuid.UUID, role models.UserRole) (*[]models.ReturnOrder, error) {
	switch role {
	case models.COURIER:
		return rs.returnOrderRepo.ListByPickupType(ctx, models.PickupCourier, staffUID)
	default:
		return rs.returnOrderRepo.ListByPickupType(ctx, models.PickupSite, nil)
	}
}

func (rs *ReturnOrderServiceImpl) UpdateReturnStatus(ctx context.Context, staffUID *uuid.UUID, role models.UserRole, input UpdateReturnStatusInput) (*models.ReturnOrder, error) {
	returnOrder, err := rs.returnOrderRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, appErrors.New(err, "get return order")
	}
	if returnOrder == nil {
		return nil, appErrors.NewNotFound(fmt.Sprintf("Return Order with id %d not found.", input.ID))
	}
	err = validateReturnOrderTransition(returnOrder.Status, input.Status)
	if err != nil {
		return nil, err
	}
	err = rs.validateStaffRole(returnOrder, input.Status, staffUID, role)
	if err != nil {
		return nil, err
	}

	if input.Status == models.ReturnOnTheWay {
		returnOrder.CourierUUID = staffUID
	}

	tx, err := rs.returnOrderRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if input.Status == models.ReturnDone {
		err = rs.reconcile(ctx, tx, returnOrder, input.Books)
		if err != nil {
			return nil, err
		}
	}

	returnOrder.Status = input.Status
	err = rs.returnOrderRepo.UpdateStatus(ctx, tx, returnOrder)
	if err != nil {
		return nil, appErrors.New(err, "update return order status")
	}
	err = rs.notifier.Enqueue(ctx, tx, NotificationEvent{
		UserUID: &returnOrder.UserUUID,
		Type:    models.NotifyReturnStatusUpdate,
		Payload: map[string]interface{}{
			"return_order_id": returnOrder.ID,
			"status":          returnOrder.Status,
		},
	})
	if err != nil {
		return nil, err
	}
	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return returnOrder, nil
}

func (rs *ReturnOrderServiceImpl) validateStaffRole(returnOrder *models.ReturnOrder, newStatus models.ReturnOrderStatus, staffUID *uuid.UUID, role models.UserRole) error {
	switch role {
	case models.COURIER:
		switch newStatus {
		case models.ReturnOnTheWay:
			if returnOrder.PickupType != models.PickupCourier {
				return appErrors.NewForbidden("Site returns are not handled by couriers.")
			}
		case models.ReturnPickedUp, models.ReturnProblem:
			if returnOrder.CourierUUID == nil || *returnOrder.CourierUUID != *staffUID {
				return appErrors.NewForbidden("You are not authorized to update this return order's status.")
			}
		default:
			return appErrors.NewForbidden("Couriers cannot set this return order status.")
		}
	case models.EMPLOYEE, models.MANAGER:
		switch newStatus {
		case models.ReturnChecking:
			// From CREATED only for site drop-offs; courier returns reach
			// CHECKING after the courier delivers them.
			if returnOrder.Status == models.ReturnCreated && returnOrder.PickupType != models.PickupSite {
				return appErrors.NewForbidden("Courier returns must be collected by a courier first.")
			}
		case models.ReturnDone, models.ReturnProblem:
		default:
			return appErrors.NewForbidden("Employees cannot set this return order status.")
		}
	}
	return nil
}

// reconcile settles the money and stock for every book in a closed
// return order. Normal on-time returns get their deposit back, late
// ones forfeit it and pay per-day delay fees, lost or damaged books
// are charged the remaining book price. A single credit and a single
// debit cover the whole order.
func (rs *ReturnOrderServiceImpl) reconcile(ctx context.Context, tx *sqlx.Tx, returnOrder *models.ReturnOrder, books []ReturnedBookState) error {
	lines, err := rs.returnOrderRepo.GetLines(ctx, returnOrder.ID)
	if err != nil {
		return appErrors.New(err, "get return order lines")
	}
	verdicts := make(map[int64]models.BorrowBookProblem, len(books))
	for _, book := range books {
		switch book.Problem {
		case models.ProblemNormal, models.ProblemLost, models.ProblemDamaged:
		default:
			return appErrors.NewValidation(fmt.Sprintf("Unknown problem status for book %d", book.ID))
		}
		verdicts[book.ID] = book.Problem
	}
	for _, line := range *lines {
		if _, ok := verdicts[line.ID]; !ok {
			return appErrors.NewValidation(
				fmt.Sprintf("Missing verdict for book %d; every book in the return order must be checked.", line.ID))
		}
	}

	amountToAdd := decimal.Zero
	amountToWithdraw := decimal.Zero
	now := time.Now()

	for i := range *lines {
		line := &(*lines)[i]
		if line.ExpectedReturnDate == nil {
			return appErrors.NewValidation(fmt.Sprintf("Book with id %d has not been picked up yet.", line.ID))
		}
		line.BorrowBookProblem = verdicts[line.ID]
		line.ActualReturnDate = &now

		switch line.BorrowBookProblem {
		case models.ProblemNormal:
			if line.ExpectedReturnDate.Before(now) {
				daysOverdue := int64(now.Sub(*line.ExpectedReturnDate).Hours() / 24)
				amountToWithdraw = amountToWithdraw.Add(
					line.DelayFeesPerDay.Mul(decimal.NewFromInt(daysOverdue)))
			} else {
				amountToAdd = amountToAdd.Add(line.DepositFees)
			}
			err = rs.bookRepo.Release(ctx, tx, line.BookDetailsID, 1)
			if err != nil {
				return appErrors.New(err, "release stock")
			}
		default:
			priceAfterDiscount := line.OriginalBookPrice
			if line.PromoCodeDiscount != nil {
				priceAfterDiscount = priceAfterDiscount.Sub(*line.PromoCodeDiscount)
			}
			amountToWithdraw = amountToWithdraw.Add(priceAfterDiscount.Sub(line.DepositFees))
		}

		err = rs.orderRepo.UpdateBorrowLineProblem(ctx, tx, line)
		if err != nil {
			return appErrors.New(err, "update borrow line")
		}
		err = rs.userRepo.AdjustBorrowedCount(ctx, tx, &returnOrder.UserUUID, -1)
		if err != nil {
			return appErrors.New(err, "adjust borrowed count")
		}
	}

	if amountToAdd.IsPositive() {
		err = rs.walletService.AddToWallet(ctx, tx, &returnOrder.UserUUID, nil, amountToAdd,
			fmt.Sprintf("Deposit return for Return Order ID: %d", returnOrder.ID))
		if err != nil {
			return err
		}
	}
	if amountToWithdraw.IsPositive() {
		err = rs.walletService.PayFromWallet(ctx, tx, &returnOrder.UserUUID, nil, amountToWithdraw,
			fmt.Sprintf("Penalty fees for Return Order ID: %d", returnOrder.ID), true)
		if err != nil {
			return err
		}
	}
	return nil
}
