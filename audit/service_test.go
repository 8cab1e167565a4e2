package audit

import (
	"context"
	"testing"

	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLog_EnqueuedAndFlushed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	ctx := WithRequestMeta(context.Background(), "trace-123", "127.0.0.1")
	svc.Log(ctx, Entry{
		ActorID:    "owner-1",
		Action:     "guild.kick",
		TargetType: "guild",
		TargetID:   "g-1",
		Request:    map[string]string{"member": "u-2", "reason": "spam"},
	})

	require.NoError(t, svc.Stop(context.Background()))

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, "trace-123", logs[0].TraceID)
	assert.Equal(t, "owner-1", logs[0].ActorID)
	assert.Equal(t, "guild.kick", logs[0].Action)
	assert.Equal(t, "g-1", logs[0].TargetID)
	assert.Equal(t, "127.0.0.1", logs[0].IP)
	assert.JSONEq(t, `{"member":"u-2","reason":"spam"}`, string(logs[0].Request))
}

func TestLog_WithoutRequestMeta(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	svc.Log(context.Background(), Entry{Action: "assignment.publish"})
	require.NoError(t, svc.Stop(context.Background()))

	var log model.AuditLog
	require.NoError(t, db.First(&log).Error)
	assert.Empty(t, log.TraceID)
	assert.Empty(t, log.IP)
}

func TestLog_BatchFlush(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())

	for i := 0; i < batchSize+5; i++ {
		svc.Log(context.Background(), Entry{Action: "batch"})
	}
	require.NoError(t, svc.Stop(context.Background()))

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.Equal(t, int64(batchSize+5), count)
}

func TestStop_IdempotentAndDropsLateEntries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())
	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))

	svc.Log(context.Background(), Entry{Action: "guild.join"})
	assert.Equal(t, int64(1), svc.Dropped())

	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	assert.Zero(t, count)
}

func TestStop_HonorsExpiredContext(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, zap.NewNop())
	defer svc.Stop(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.Stop(ctx)
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
