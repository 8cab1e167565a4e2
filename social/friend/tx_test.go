package friend_test

import (
	"context"
	"errors"
	"testing"
	"time"

	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"github.com/rckrdmrd/glit-backend-sub002/social/friend"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// inCallerTx runs fn inside a transaction owned by the test and fails if it
// does not finish promptly.
func inCallerTx(t *testing.T, db *gorm.DB, fn func(ctx context.Context) error) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- db.Transaction(func(tx *gorm.DB) error {
			return fn(dbadapter.WithTx(context.Background(), tx))
		})
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("operation inside caller transaction did not finish")
		return nil
	}
}

func TestSendRequest_JoinsCallerTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	notes := notification.NewService(db, zap.NewNop())
	svc := friend.NewService(db, friend.Options{}, notes, zap.NewNop())
	a, b := testutil.NewUser(t, db), testutil.NewUser(t, db)

	err := inCallerTx(t, db, func(ctx context.Context) error {
		_, err := svc.SendRequest(ctx, a.ID, b.ID)
		return err
	})
	require.NoError(t, err)

	var count int64
	db.Model(&model.Notification{}).Where("user_id = ?", b.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSendRequest_RollbackDiscardsNotification(t *testing.T) {
	db := testutil.SetupTestDB(t)
	notes := notification.NewService(db, zap.NewNop())
	svc := friend.NewService(db, friend.Options{}, notes, zap.NewNop())
	a, b := testutil.NewUser(t, db), testutil.NewUser(t, db)
	abort := errors.New("abort")

	err := inCallerTx(t, db, func(ctx context.Context) error {
		if _, err := svc.SendRequest(ctx, a.ID, b.ID); err != nil {
			return err
		}
		return abort
	})
	require.ErrorIs(t, err, abort)

	var friendships, notifications int64
	db.Model(&model.Friendship{}).Count(&friendships)
	db.Model(&model.Notification{}).Count(&notifications)
	assert.Zero(t, friendships)
	assert.Zero(t, notifications)
}
