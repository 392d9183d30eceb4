package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/jmoiron/sqlx"
	appErrors "github.com/ujwegh/bookmart/internal/app/errors"
	"github.com/ujwegh/bookmart/internal/app/logger"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
	"github.com/ujwegh/bookmart/internal/app/service/clients"
	"go.uber.org/zap"
)

const dispatchBatchSize = 50

type (
	// NotificationEvent is what business services enqueue. Payload must
	// be jsoniter-marshallable.
	NotificationEvent struct {
		UserUID *uuid.UUID
		Role    *models.UserRole
		Type    models.NotificationType
		Payload interface{}
	}
	// Notifier implements the outbox: Enqueue writes a row inside the
	// caller's transaction, Run dispatches committed rows to the
	// gateway. A row is marked dispatched before sending, so a crash
	// between the two loses the event instead of duplicating it.
	Notifier interface {
		Enqueue(ctx context.Context, tx *sqlx.Tx, event NotificationEvent) error
		Run(ctx context.Context)
	}
	NotifierImpl struct {
		notificationRepo   repository.NotificationRepository
		notificationClient clients.NotificationClient
		dispatchInterval   time.Duration
		wake               chan struct{}
	}
)

func NewNotifier(notificationRepo repository.NotificationRepository, notificationClient clients.NotificationClient, dispatchInterval time.Duration) *NotifierImpl {
	return &NotifierImpl{
		notificationRepo:   notificationRepo,
		notificationClient: notificationClient,
		dispatchInterval:   dispatchInterval,
		wake:               make(chan struct{}, 1),
	}
}

func (n *NotifierImpl) Enqueue(ctx context.Context, tx *sqlx.Tx, event NotificationEvent) error {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(event.Payload)
	if err != nil {
		return appErrors.New(err, "marshal notification payload")
	}
	notification := models.Notification{
		UserUUID:  event.UserUID,
		Role:      event.Role,
		Type:      event.Type,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	err = n.notificationRepo.Create(ctx, tx, &notification)
	if err != nil {
		return appErrors.New(err, "enqueue notification")
	}
	// Nudge the dispatcher; it will pick the row up after commit.
	select {
	case n.wake <- struct{}{}:
	default:
	}
	return nil
}

func (n *NotifierImpl) Run(ctx context.Context) {
	ticker := time.NewTicker(n.dispatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-n.wake:
		}
		n.dispatchPending(ctx)
	}
}

func (n *NotifierImpl) dispatchPending(ctx context.Context) {
	for {
		notifications, err := n.notificationRepo.FetchUndispatched(ctx, dispatchBatchSize)
		if err != nil {
			logger.Log.Error("fetch undispatched notifications", zap.Error(err))
			return
		}
		if len(*notifications) == 0 {
			return
		}
		ids := make([]int64, 0, len(*notifications))
		for _, notification := range *notifications {
			ids = append(ids, notification.ID)
		}
		err = n.notificationRepo.MarkDispatched(ctx, ids)
		if err != nil {
			logger.Log.Error("mark notifications dispatched", zap.Error(err))
			return
		}
		for i := range *notifications {
			notification := &(*notifications)[i]
			message := &clients.NotificationMessage{
				Type:    notification.Type.String(),
				Payload: notification.Payload,
			}
			if notification.UserUUID != nil {
				message.UserUUID = notification.UserUUID.String()
			}
			if notification.Role != nil {
				message.Role = notification.Role.String()
			}
			err = n.notificationClient.Send(message)
			if err != nil {
				logger.Log.Error("send notification",
					zap.Int64("notification_id", notification.ID),
					zap.String("type", notification.Type.String()),
					zap.Error(err))
			}
		}
		if len(*notifications) < dispatchBatchSize {
			return
		}
	}
}
