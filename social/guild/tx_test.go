package guild_test

import (
	"context"
	"errors"
	"testing"
	"time"

	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"github.com/rckrdmrd/glit-backend-sub002/social/guild"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

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

func TestJoinGuild_CallerTransactionWithRealNotifier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	rec := &recorder{}
	svc := guild.NewService(db, guild.Options{}, notification.NewService(db, zap.NewNop()), rec, zap.NewNop())
	owner, u1, u2 := testutil.NewUser(t, db), testutil.NewUser(t, db), testutil.NewUser(t, db)
	g := createGuild(t, svc, owner.ID, "Night Owls", 5)

	require.NoError(t, inCallerTx(t, db, func(ctx context.Context) error {
		_, err := svc.JoinGuild(ctx, g.ID, u1.ID)
		return err
	}))

	abort := errors.New("abort")
	err := inCallerTx(t, db, func(ctx context.Context) error {
		if _, err := svc.JoinGuild(ctx, g.ID, u2.ID); err != nil {
			return err
		}
		return abort
	})
	require.ErrorIs(t, err, abort)

	assert.Equal(t, 2, reload(t, db, g.ID).CurrentMembersCount)
	var joined int64
	db.Model(&model.Notification{}).
		Where("user_id = ? AND type = ?", owner.ID, model.NotifyGuildJoined).Count(&joined)
	assert.Equal(t, int64(1), joined)
}
