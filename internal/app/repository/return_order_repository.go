package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/models"
)

type (
	// ReturnCandidate is a borrow line joined with its parent order's
	// status, for eligibility checks when building a return order.
	ReturnCandidate struct {
		models.BorrowOrderBook
		OrderStatus models.OrderStatus `db:"order_status"`
	}
	ReturnOrderRepository interface {
		Create(ctx context.Context, tx *sqlx.Tx, returnOrder *models.ReturnOrder) error
		GetByID(ctx context.Context, returnOrderID int64) (*models.ReturnOrder, error)
		GetReturnCandidates(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, lineIDs []int64) (*[]ReturnCandidate, error)
		LinkBorrowLine(ctx context.Context, tx *sqlx.Tx, returnOrderID, lineID int64) error
		GetLines(ctx context.Context, returnOrderID int64) (*[]models.BorrowOrderBook, error)
		UpdateStatus(ctx context.Context, tx *sqlx.Tx, returnOrder *models.ReturnOrder) error
		ListByUser(ctx context.Context, userUID *uuid.UUID) (*[]models.ReturnOrder, error)
		ListByPickupType(ctx context.Context, pickupType models.PickupType, courierUID *uuid.UUID) (*[]models.ReturnOrder, error)
		GetDB() *sqlx.DB
	}
	ReturnOrderRepositoryImpl struct {
		db *sqlx.DB
	}
)

func NewReturnOrderRepository(db *sqlx.DB) *ReturnOrderRepositoryImpl {
	return &ReturnOrderRepositoryImpl{db: db}
}

func (rr *ReturnOrderRepositoryImpl) Create(ctx context.Context, tx *sqlx.Tx, returnOrder *models.ReturnOrder) error {
	query := `INSERT INTO return_orders (address, phone_number, pickup_type, status, delivery_fees, user_uuid, courier_uuid, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8) returning id;`
	err := tx.GetContext(ctx, &returnOrder.ID, query, returnOrder.Address, returnOrder.PhoneNumber, returnOrder.PickupType.String(),
		returnOrder.Status.String(), returnOrder.DeliveryFees, returnOrder.UserUUID, returnOrder.CourierUUID, returnOrder.CreatedAt)
	if err != nil {
		return fmt.Errorf("create return order: %w", err)
	}
	return nil
}

func (rr *ReturnOrderRepositoryImpl) GetByID(ctx context.Context, returnOrderID int64) (*models.ReturnOrder, error) {
	query := `SELECT * FROM return_orders WHERE id = $1;`
	returnOrder := models.ReturnOrder{}
	err := rr.db.GetContext(ctx, &returnOrder, query, returnOrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get return order: %w", err)
	}
	return &returnOrder, nil
}

func (rr *ReturnOrderRepositoryImpl) GetReturnCandidates(ctx context.Context, tx *sqlx.Tx, userUID *uuid.UUID, lineIDs []int64) (*[]ReturnCandidate, error) {
	candidates := make([]ReturnCandidate, 0, len(lineIDs))
	if len(lineIDs) == 0 {
		return &candidates, nil
	}
	query, args, err := sqlx.In(`SELECT bob.*, o.status AS order_status
								 FROM borrow_order_books bob
								 JOIN orders o ON o.id = bob.order_id
								 WHERE bob.id IN (?) AND bob.user_uuid = ? AND bob.return_order_id IS NULL;`, lineIDs, userUID)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	query = tx.Rebind(query)
	if err := tx.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, fmt.Errorf("read return candidates: %w", err)
	}
	return &candidates, nil
}

func (rr *ReturnOrderRepositoryImpl) LinkBorrowLine(ctx context.Context, tx *sqlx.Tx, returnOrderID, lineID int64) error {
	// The link is set once and never moved to another return order.
	query := `UPDATE borrow_order_books SET return_order_id = $1 WHERE id = $2 AND return_order_id IS NULL;`
	res, err := tx.ExecContext(ctx, query, returnOrderID, lineID)
	if err != nil {
		return fmt.Errorf("link borrow line: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("link borrow line: %w", err)
	}
	if affected == 0 {
		return appErrors.NewValidation(fmt.Sprintf("Borrow order book with id %d is already part of a return order", lineID))
	}
	return nil
}

func (rr *ReturnOrderRepositoryImpl) GetLines(ctx context.Context, returnOrderID int64) (*[]models.BorrowOrderBook, error) {
	query := `SELECT * FROM borrow_order_books WHERE return_order_id = $1 ORDER BY id;`
	lines := make([]models.BorrowOrderBook, 0)
	err := rr.db.SelectContext(ctx, &lines, query, returnOrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &lines, nil
		}
		return nil, fmt.Errorf("read return order lines: %w", err)
	}
	return &lines, nil
}

func (rr *ReturnOrderRepositoryImpl) UpdateStatus(ctx context.Context, tx *sqlx.Tx, returnOrder *models.ReturnOrder) error {
	query := `UPDATE return_orders SET status = $1, courier_uuid = $2 WHERE id = $3;`
	_, err := tx.ExecContext(ctx, query, returnOrder.Status.String(), returnOrder.CourierUUID, returnOrder.ID)
	if err != nil {
		return fmt.Errorf("update return order status: %w", err)
	}
	return nil
}

func (rr *ReturnOrderRepositoryImpl) ListByUser(ctx context.Context, userUID *uuid.UUID) (*[]models.ReturnOrder, error) {
	query := `SELECT * FROM return_orders WHERE user_uuid = $1 ORDER BY created_at DESC;`
	returnOrders := make([]models.ReturnOrder, 0)
	err := rr.db.SelectContext(ctx, &returnOrders, query, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &returnOrders, nil
		}
		return nil, fmt.Errorf("list return orders: %w", err)
	}
	return &returnOrders, nil
}

func (rr *ReturnOrderRepositoryImpl) ListByPickupType(ctx context.Context, pickupType models.PickupType, courierUID *uuid.UUID) (*[]models.ReturnOrder, error) {
	query := `SELECT * FROM return_orders WHERE pickup_type = $1 ORDER BY created_at DESC;`
	args := []interface{}{pickupType.String()}
	if courierUID != nil {
		query = `SELECT * FROM return_orders WHERE pickup_type = $1 AND courier_uuid = $2 ORDER BY created_at DESC;`
		args = append(args, courierUID)
	}
	returnOrders := make([]models.ReturnOrder, 0)
	err := rr.db.SelectContext(ctx, &returnOrders, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &returnOrders, nil
		}
		return nil, fmt.Errorf("list return orders: %w", err)
	}
	return &returnOrders, nil
}

func (rr *ReturnOrderRepositoryImpl) GetDB() *sqlx.DB {
	return rr.db
}
