package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ujwegh/bookmart/internal/app/logger"
	"github.com/ujwegh/bookmart/internal/app/models"
	"github.com/ujwegh/bookmart/internal/app/repository"
	"go.uber.org/zap"
)

type (
	// ReminderJob periodically scans outstanding borrows and enqueues
	// return reminders for books due by the end of tomorrow or already
	// overdue.
	ReminderJob interface {
		Run(ctx context.Context)
		ScanOnce(ctx context.Context) error
	}
	ReminderJobImpl struct {
		orderRepo    repository.OrderRepository
		notifier     Notifier
		scanInterval time.Duration
	}
)

func NewReminderJob(orderRepo repository.OrderRepository, notifier Notifier, scanInterval time.Duration) *ReminderJobImpl {
	return &ReminderJobImpl{
		orderRepo:    orderRepo,
		notifier:     notifier,
		scanInterval: scanInterval,
	}
}

func (rj *ReminderJobImpl) Run(ctx context.Context) {
	ticker := time.NewTicker(rj.scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := rj.ScanOnce(ctx)
			if err != nil {
				logger.Log.Error("return reminder scan failed", zap.Error(err))
			}
		}
	}
}

func (rj *ReminderJobImpl) ScanOnce(ctx context.Context) error {
	now := time.Now()
	endOfTomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 2)
	lines, err := rj.orderRepo.GetDueReminderLines(ctx, endOfTomorrow)
	if err != nil {
		return fmt.Errorf("get due reminder lines: %w", err)
	}
	if len(*lines) == 0 {
		return nil
	}

	tx, err := rj.orderRepo.GetDB().BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, line := range *lines {
		kind := "upcoming"
		if line.ExpectedReturnDate.Before(now) {
			kind = "overdue"
		}
		err = rj.notifier.Enqueue(ctx, tx, NotificationEvent{
			UserUID: &line.UserUUID,
			Type:    models.NotifyReturnReminder,
			Payload: map[string]interface{}{
				"borrow_order_book_id": line.ID,
				"expected_return_date": line.ExpectedReturnDate,
				"reminder":             kind,
			},
		})
		if err != nil {
			return err
		}
	}
	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	logger.Log.Info("return reminders enqueued", zap.Int("count", len(*lines)))
	return nil
}
