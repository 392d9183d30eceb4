package service

import (
	"context"
	"testing"

	"github.com/ujwegh/bookmart/internal/app/models"
)

func TestNotifierImpl_EnqueueAndDispatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userUID := env.createUser(t, models.CLIENT, "0")
	notifier := env.notifier.(*NotifierImpl)

	tx, err := env.db.BeginTxx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	err = notifier.Enqueue(ctx, tx, NotificationEvent{
		UserUID: userUID,
		Type:    models.NotifyOrderCreated,
		Payload: map[string]interface{}{"order_id": int64(1)},
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if err = tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	notifier.dispatchPending(ctx)

	if len(env.notificationClient.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(env.notificationClient.sent))
	}
	message := env.notificationClient.sent[0]
	if message.Type != models.NotifyOrderCreated.String() {
		t.Errorf("message type = %s, want %s", message.Type, models.NotifyOrderCreated)
	}
	if message.UserUUID != userUID.String() {
		t.Errorf("message user uuid = %s, want %s", message.UserUUID, userUID)
	}

	// Already marked dispatched; a second pass sends nothing.
	notifier.dispatchPending(ctx)
	if len(env.notificationClient.sent) != 1 {
		t.Errorf("sent %d messages after second pass, want 1", len(env.notificationClient.sent))
	}

	pending, err := env.notifRepo.FetchUndispatched(ctx, 10)
	if err != nil {
		t.Fatalf("FetchUndispatched() error = %v", err)
	}
	if len(*pending) != 0 {
		t.Errorf("undispatched rows = %d, want 0", len(*pending))
	}
}
