package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/ujwegh/bookmart/internal/app/models"
)

// NotificationRepository is the outbox store. Rows are inserted inside
// business transactions and later claimed by the dispatcher.
type NotificationRepository interface {
	Create(ctx context.Context, tx *sqlx.Tx, notification *models.Notification) error
	FetchUndispatched(ctx context.Context, limit int) (*[]models.Notification, error)
	MarkDispatched(ctx context.Context, ids []int64) error
	GetDB() *sqlx.DB
}

type NotificationRepositoryImpl struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepositoryImpl {
	return &NotificationRepositoryImpl{db: db}
}

func (nr *NotificationRepositoryImpl) Create(ctx context.Context, tx *sqlx.Tx, notification *models.Notification) error {
	query := `INSERT INTO notifications (user_uuid, role, type, payload, created_at)
			  VALUES ($1, $2, $3, $4, $5) returning id;`
	err := tx.GetContext(ctx, &notification.ID, query, notification.UserUUID, notification.Role,
		notification.Type.String(), notification.Payload, notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (nr *NotificationRepositoryImpl) FetchUndispatched(ctx context.Context, limit int) (*[]models.Notification, error) {
	query := `SELECT * FROM notifications WHERE dispatched_at IS NULL ORDER BY id LIMIT $1;`
	notifications := make([]models.Notification, 0)
	err := nr.db.SelectContext(ctx, &notifications, query, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch undispatched notifications: %w", err)
	}
	return &notifications, nil
}

func (nr *NotificationRepositoryImpl) MarkDispatched(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE notifications SET dispatched_at = ? WHERE id IN (?);`, time.Now(), ids)
	if err != nil {
		return fmt.Errorf("mark dispatched: %w", err)
	}
	query = nr.db.Rebind(query)
	_, err = nr.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("mark dispatched: %w", err)
	}
	return nil
}

func (nr *NotificationRepositoryImpl) GetDB() *sqlx.DB {
	return nr.db
}
