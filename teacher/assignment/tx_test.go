package assignment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/assignment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func TestAssignTo_CallerTransactionWithRealNotifier(t *testing.T) {
	f := setup(t)
	f.svc = assignment.NewService(f.db, f.classrooms, notification.NewService(f.db, zap.NewNop()), f.rec, zap.NewNop())
	a := f.create(t, 2)
	c, students := f.classroom(t, 3)

	run := func(fn func(ctx context.Context) error) error {
		done := make(chan error, 1)
		go func() {
			done <- f.db.Transaction(func(tx *gorm.DB) error {
				return fn(dbadapter.WithTx(context.Background(), tx))
			})
		}()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("assign inside caller transaction did not finish")
			return nil
		}
	}

	abort := errors.New("abort")
	err := run(func(ctx context.Context) error {
		if _, err := f.svc.AssignTo(ctx, a.ID, f.teacher.ID, []string{c.ID}, nil); err != nil {
			return err
		}
		return abort
	})
	require.ErrorIs(t, err, abort)
	assert.Empty(t, f.submissions(t, a.ID))

	var notes int64
	f.db.Model(&model.Notification{}).Count(&notes)
	assert.Zero(t, notes)

	var res *assignment.AssignResult
	require.NoError(t, run(func(ctx context.Context) error {
		var err error
		res, err = f.svc.AssignTo(ctx, a.ID, f.teacher.ID, []string{c.ID}, nil)
		return err
	}))
	assert.Equal(t, 3, res.Created)
	assert.Len(t, f.submissions(t, a.ID), 3)
	f.db.Model(&model.Notification{}).Where("user_id IN ?", students).Count(&notes)
	assert.Equal(t, int64(3), notes)
}
