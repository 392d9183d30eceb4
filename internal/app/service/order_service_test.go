package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
)

func strPtr(v string) *string { return &v }

// createBorrowOrder seeds a borrow book, carts it and creates a site
// pickup order for it. Returns the order and the stock row id.
func createBorrowOrder(t *testing.T, env *testEnv, userUID *uuid.UUID, weeks int) (*models.Order, int64) {
	t.Helper()
	ctx := context.Background()
	detailsID := env.createBook(t, "100.00", models.BORROW, 2)
	if err := env.cartService.AddItem(ctx, userUID, detailsID, 1, intPtr(weeks)); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	order, err := env.orderService.CreateOrder(ctx, userUID, CreateOrderInput{PickupType: models.PickupSite})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	return order, detailsID
}

func TestOrderServiceImpl_CreateOrderBorrow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "200.00")
	order, detailsID := createBorrowOrder(t, env, userUID, 2)

	if order.Status != models.OrderCreated {
		t.Errorf("order status = %s, want CREATED", order.Status)
	}
	if order.DeliveryFees != nil {
		t.Errorf("site pickup order has delivery fees %s", order.DeliveryFees)
	}
	// Charged 20.00 borrow fees plus 30.00 deposit.
	if balance := env.walletBalance(t, userUID); !balance.Equal(mustDecimal(t, "150.00")) {
		t.Errorf("balance = %s, want 150.00", balance)
	}
	if stock := env.availableStock(t, detailsID); stock != 1 {
		t.Errorf("stock = %d, want 1", stock)
	}
	if count := env.borrowedCount(t, userUID); count != 1 {
		t.Errorf("borrowed count = %d, want 1", count)
	}
	if count := env.countRows(t, "carts"); count != 0 {
		t.Errorf("cart rows = %d, want 0", count)
	}
	if count := env.countRows(t, "notifications"); count != 1 {
		t.Errorf("notification rows = %d, want 1", count)
	}

	lines, err := env.orderRepo.GetBorrowLinesByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetBorrowLinesByOrder() error = %v", err)
	}
	if len(*lines) != 1 {
		t.Fatalf("borrow lines = %d, want 1", len(*lines))
	}
	line := (*lines)[0]
	if !line.BorrowFees.Equal(mustDecimal(t, "20.00")) {
		t.Errorf("borrow fees = %s, want 20.00", line.BorrowFees)
	}
	if !line.DepositFees.Equal(mustDecimal(t, "30.00")) {
		t.Errorf("deposit fees = %s, want 30.00", line.DepositFees)
	}
	if !line.DelayFeesPerDay.Equal(mustDecimal(t, "1.47")) {
		t.Errorf("delay fees per day = %s, want 1.47", line.DelayFeesPerDay)
	}
	if !line.OriginalBookPrice.Equal(mustDecimal(t, "100.00")) {
		t.Errorf("original book price = %s, want 100.00", line.OriginalBookPrice)
	}
	if line.ExpectedReturnDate != nil {
		t.Errorf("expected return date set before pickup: %v", line.ExpectedReturnDate)
	}
}

func TestOrderServiceImpl_CreateOrderCourierWithPromo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "500.00")
	borrowID := env.createBook(t, "100.00", models.BORROW, 1)
	purchaseID := env.createBook(t, "40.00", models.PURCHASE, 5)
	promoID := env.createPromoCode(t, "SUMMER20", "20.00", true)

	if err := env.cartService.AddItem(ctx, userUID, borrowID, 1, intPtr(2)); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if err := env.cartService.AddItem(ctx, userUID, purchaseID, 2, nil); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	order, err := env.orderService.CreateOrder(ctx, userUID, CreateOrderInput{
		Address:     strPtr("1 Main St"),
		PhoneNumber: strPtr("+15550100"),
		PickupType:  models.PickupCourier,
		PromoCodeID: &promoID,
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if order.DeliveryFees == nil || !order.DeliveryFees.Equal(mustDecimal(t, "20.00")) {
		t.Errorf("delivery fees = %v, want 20.00", order.DeliveryFees)
	}
	// Delivery 20.00, borrow 16.00 + deposit 30.00, purchase 2 x 32.00.
	if balance := env.walletBalance(t, userUID); !balance.Equal(mustDecimal(t, "370.00")) {
		t.Errorf("balance = %s, want 370.00", balance)
	}

	lines, err := env.orderRepo.GetBorrowLinesByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetBorrowLinesByOrder() error = %v", err)
	}
	line := (*lines)[0]
	if !line.BorrowFees.Equal(mustDecimal(t, "16.00")) {
		t.Errorf("borrow fees = %s, want 16.00", line.BorrowFees)
	}
	if line.PromoCodeDiscount == nil || !line.PromoCodeDiscount.Equal(mustDecimal(t, "4.00")) {
		t.Errorf("promo code discount = %v, want 4.00", line.PromoCodeDiscount)
	}

	purchaseLines, err := env.orderRepo.GetPurchaseLinesByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetPurchaseLinesByOrder() error = %v", err)
	}
	purchaseLine := (*purchaseLines)[0]
	if !purchaseLine.PaidPricePerBook.Equal(mustDecimal(t, "32.00")) {
		t.Errorf("paid price per book = %s, want 32.00", purchaseLine.PaidPricePerBook)
	}
	if stock := env.availableStock(t, purchaseID); stock != 3 {
		t.Errorf("purchase stock = %d, want 3", stock)
	}
}

func TestOrderServiceImpl_CreateOrderValidation(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T, env *testEnv, userUID *uuid.UUID) CreateOrderInput
		wantKind appErrors.Kind
	}{
		{
			name: "Empty Cart",
			setup: func(t *testing.T, env *testEnv, userUID *uuid.UUID) CreateOrderInput {
				return CreateOrderInput{PickupType: models.PickupSite}
			},
			wantKind: appErrors.KindValidation,
		},
		{
			name: "Courier Without Address",
			setup: func(t *testing.T, env *testEnv, userUID *uuid.UUID) CreateOrderInput {
				detailsID := env.createBook(t, "40.00", models.PURCHASE, 5)
				if err := env.cartService.AddItem(context.Background(), userUID, detailsID, 1, nil); err != nil {
					t.Fatalf("AddItem() error = %v", err)
				}
				return CreateOrderInput{PickupType: models.PickupCourier, PhoneNumber: strPtr("+15550100")}
			},
			wantKind: appErrors.KindValidation,
		},
		{
			name: "Inactive Promo Code",
			setup: func(t *testing.T, env *testEnv, userUID *uuid.UUID) CreateOrderInput {
				detailsID := env.createBook(t, "40.00", models.PURCHASE, 5)
				if err := env.cartService.AddItem(context.Background(), userUID, detailsID, 1, nil); err != nil {
					t.Fatalf("AddItem() error = %v", err)
				}
				promoID := env.createPromoCode(t, "EXPIRED", "20.00", false)
				return CreateOrderInput{PickupType: models.PickupSite, PromoCodeID: &promoID}
			},
			wantKind: appErrors.KindValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			userUID := env.createUser(t, models.CLIENT, "200.00")
			input := tt.setup(t, env, userUID)
			_, err := env.orderService.CreateOrder(context.Background(), userUID, input)
			if !appErrors.IsKind(err, tt.wantKind) {
				t.Errorf("CreateOrder() error = %v, want kind %s", err, tt.wantKind)
			}
		})
	}
}

func TestOrderServiceImpl_CreateOrderBorrowLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "500.00")
	env.db.MustExec(`UPDATE users SET current_borrowed_books = 3 WHERE uuid = $1;`, userUID)

	detailsID := env.createBook(t, "100.00", models.BORROW, 2)
	if err := env.cartService.AddItem(ctx, userUID, detailsID, 1, intPtr(2)); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	_, err := env.orderService.CreateOrder(ctx, userUID, CreateOrderInput{PickupType: models.PickupSite})
	if !appErrors.IsKind(err, appErrors.KindLimitExceeded) {
		t.Errorf("CreateOrder() error = %v, want limit exceeded", err)
	}
}

func TestOrderServiceImpl_CreateOrderInsufficientFundsRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "10.00")
	detailsID := env.createBook(t, "100.00", models.BORROW, 2)
	if err := env.cartService.AddItem(ctx, userUID, detailsID, 1, intPtr(2)); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	_, err := env.orderService.CreateOrder(ctx, userUID, CreateOrderInput{PickupType: models.PickupSite})
	if !appErrors.IsKind(err, appErrors.KindInsufficientFunds) {
		t.Fatalf("CreateOrder() error = %v, want insufficient funds", err)
	}

	if stock := env.availableStock(t, detailsID); stock != 2 {
		t.Errorf("stock after rollback = %d, want 2", stock)
	}
	if count := env.countRows(t, "orders"); count != 0 {
		t.Errorf("order rows after rollback = %d, want 0", count)
	}
	if count := env.countRows(t, "transactions"); count != 0 {
		t.Errorf("transaction rows after rollback = %d, want 0", count)
	}
	if count := env.countRows(t, "carts"); count != 1 {
		t.Errorf("cart rows after rollback = %d, want 1", count)
	}
	if balance := env.walletBalance(t, userUID); !balance.Equal(mustDecimal(t, "10.00")) {
		t.Errorf("balance after rollback = %s, want 10.00", balance)
	}
}

func TestOrderServiceImpl_UpdateOrderStatusPickedUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "200.00")
	employeeUID := env.createUser(t, models.EMPLOYEE, "0")
	order, _ := createBorrowOrder(t, env, userUID, 2)

	updated, err := env.orderService.UpdateOrderStatus(ctx, employeeUID, models.EMPLOYEE, order.ID, models.OrderPickedUp)
	if err != nil {
		t.Fatalf("UpdateOrderStatus() error = %v", err)
	}
	if updated.Status != models.OrderPickedUp {
		t.Errorf("status = %s, want PICKED_UP", updated.Status)
	}
	if updated.PickupDate == nil {
		t.Fatal("pickup date not set")
	}

	lines, err := env.orderRepo.GetBorrowLinesByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetBorrowLinesByOrder() error = %v", err)
	}
	line := (*lines)[0]
	if line.ExpectedReturnDate == nil {
		t.Fatal("expected return date not set")
	}
	wantExpected := updated.PickupDate.AddDate(0, 0, 14)
	if diff := line.ExpectedReturnDate.Sub(wantExpected); diff > time.Minute || diff < -time.Minute {
		t.Errorf("expected return date = %v, want about %v", line.ExpectedReturnDate, wantExpected)
	}
}

func TestOrderServiceImpl_UpdateOrderStatusRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "500.00")
	employeeUID := env.createUser(t, models.EMPLOYEE, "0")
	courierUID := env.createUser(t, models.COURIER, "0")
	otherCourierUID := env.createUser(t, models.COURIER, "0")
	order, _ := createBorrowOrder(t, env, userUID, 2)

	_, err := env.orderService.UpdateOrderStatus(ctx, employeeUID, models.EMPLOYEE, order.ID, models.OrderOnTheWay)
	if !appErrors.IsKind(err, appErrors.KindForbidden) {
		t.Fatalf("employee set ON_THE_WAY error = %v, want forbidden", err)
	}

	updated, err := env.orderService.UpdateOrderStatus(ctx, courierUID, models.COURIER, order.ID, models.OrderOnTheWay)
	if err != nil {
		t.Fatalf("courier claim error = %v", err)
	}
	if updated.CourierUUID == nil || *updated.CourierUUID != *courierUID {
		t.Errorf("courier uuid = %v, want %v", updated.CourierUUID, courierUID)
	}

	_, err = env.orderService.UpdateOrderStatus(ctx, otherCourierUID, models.COURIER, order.ID, models.OrderPickedUp)
	if !appErrors.IsKind(err, appErrors.KindForbidden) {
		t.Fatalf("other courier picked up error = %v, want forbidden", err)
	}

	_, err = env.orderService.UpdateOrderStatus(ctx, courierUID, models.COURIER, order.ID, models.OrderPickedUp)
	if err != nil {
		t.Fatalf("assigned courier picked up error = %v", err)
	}

	_, err = env.orderService.UpdateOrderStatus(ctx, courierUID, models.COURIER, order.ID, models.OrderOnTheWay)
	if !appErrors.IsKind(err, appErrors.KindInvalidStateTransition) {
		t.Fatalf("picked up to on the way error = %v, want invalid state transition", err)
	}
}

func TestOrderServiceImpl_UpdateBorrowProblem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "200.00")
	employeeUID := env.createUser(t, models.EMPLOYEE, "0")
	order, detailsID := createBorrowOrder(t, env, userUID, 2)

	_, err := env.orderService.UpdateOrderStatus(ctx, employeeUID, models.EMPLOYEE, order.ID, models.OrderPickedUp)
	if err != nil {
		t.Fatalf("UpdateOrderStatus() error = %v", err)
	}
	lines, err := env.orderRepo.GetBorrowLinesByOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetBorrowLinesByOrder() error = %v", err)
	}
	lineID := (*lines)[0].ID

	line, err := env.orderService.UpdateBorrowProblem(ctx, lineID, models.ProblemLost)
	if err != nil {
		t.Fatalf("UpdateBorrowProblem() error = %v", err)
	}
	if line.BorrowBookProblem != models.ProblemLost {
		t.Errorf("problem = %s, want LOST", line.BorrowBookProblem)
	}
	if line.ActualReturnDate == nil {
		t.Error("actual return date not set")
	}
	// Penalty 100.00 - (30.00 deposit + 20.00 borrow) = 50.00, on top of
	// the 50.00 charged at order time.
	if balance := env.walletBalance(t, userUID); !balance.Equal(mustDecimal(t, "100.00")) {
		t.Errorf("balance = %s, want 100.00", balance)
	}
	if count := env.borrowedCount(t, userUID); count != 0 {
		t.Errorf("borrowed count = %d, want 0", count)
	}
	// Lost books never restock.
	if stock := env.availableStock(t, detailsID); stock != 1 {
		t.Errorf("stock = %d, want 1", stock)
	}

	_, err = env.orderService.UpdateBorrowProblem(ctx, lineID, models.ProblemDamaged)
	if !appErrors.IsKind(err, appErrors.KindInvalidStateTransition) {
		t.Errorf("second problem update error = %v, want invalid state transition", err)
	}
	_, err = env.orderService.UpdateBorrowProblem(ctx, lineID, models.ProblemNormal)
	if !appErrors.IsKind(err, appErrors.KindValidation) {
		t.Errorf("NORMAL target error = %v, want validation", err)
	}
}
