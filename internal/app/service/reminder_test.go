package service

import (
	"context"
	"testing"
	"time"

	"github.com/ujwegh/bookmart/internal/app/models"
)

func TestReminderJobImpl_ScanOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "200.00")
	employeeUID := env.createUser(t, models.EMPLOYEE, "0")
	job := NewReminderJob(env.orderRepo, env.notifier, time.Minute)

	// Nothing borrowed yet, nothing to remind about.
	if err := job.ScanOnce(ctx); err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if count := env.countRows(t, "notifications"); count != 0 {
		t.Fatalf("notification rows = %d, want 0", count)
	}

	lineID, _ := pickedUpBorrow(t, env, userUID, employeeUID)
	notificationsAfterOrder := env.countRows(t, "notifications")

	// Due in two weeks, outside the reminder window.
	if err := job.ScanOnce(ctx); err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if count := env.countRows(t, "notifications"); count != notificationsAfterOrder {
		t.Fatalf("notification rows = %d, want %d", count, notificationsAfterOrder)
	}

	env.db.MustExec(`UPDATE borrow_order_books SET expected_return_date = $1 WHERE id = $2;`,
		time.Now().Add(-24*time.Hour), lineID)
	if err := job.ScanOnce(ctx); err != nil {
		t.Fatalf("ScanOnce() error = %v", err)
	}
	if count := env.countRows(t, "notifications"); count != notificationsAfterOrder+1 {
		t.Fatalf("notification rows = %d, want %d", count, notificationsAfterOrder+1)
	}

	var notificationType string
	err := env.db.Get(&notificationType, `SELECT type FROM notifications ORDER BY id DESC LIMIT 1;`)
	if err != nil {
		t.Fatalf("read notification type: %v", err)
	}
	if notificationType != models.NotifyReturnReminder.String() {
		t.Errorf("notification type = %s, want %s", notificationType, models.NotifyReturnReminder)
	}
}
