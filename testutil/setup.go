package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rckrdmrd/glit-backend-sub002/cache"
	"github.com/rckrdmrd/glit-backend-sub002/config"
	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates a private in-memory SQLite DB and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbadapter.Open(config.DatabaseConfig{
		Mode:       dbadapter.ModeSQLite,
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	t.Cleanup(func() { _ = dbadapter.Close(db) })
	return db
}

// SetupTestCache opens the in-process backend and closes it with the test.
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	b, err := cache.Open(config.CacheConfig{LocalGCInterval: time.Minute})
	require.NoError(t, err, "SetupTestCache")
	t.Cleanup(func() { _ = b.Close() })
	return b, b
}

// UserOption tweaks a user created by NewUser.
type UserOption func(u *model.User, s *model.UserStats)

// WithRole sets the account role.
func WithRole(role string) UserOption {
	return func(u *model.User, _ *model.UserStats) { u.Role = role }
}

// WithDisplayName overrides the generated display name.
func WithDisplayName(name string) UserOption {
	return func(u *model.User, _ *model.UserStats) { u.DisplayName = name }
}

// WithStats sets the XP and rank of the user.
func WithStats(xp int64, rank string) UserOption {
	return func(_ *model.User, s *model.UserStats) {
		s.TotalXP = xp
		s.Rank = rank
	}
}

// WithLastLogin sets the last login time.
func WithLastLogin(at time.Time) UserOption {
	return func(u *model.User, _ *model.UserStats) { u.LastLoginAt = &at }
}

// NewUser inserts an active student with fake profile data and its stats row.
func NewUser(t *testing.T, db *gorm.DB, opts ...UserOption) *model.User {
	t.Helper()
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	tag := strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	u := &model.User{
		Email:        strings.ToLower(first+"."+tag) + "@example.test",
		Username:     strings.ToLower(first[:1] + last + tag),
		PasswordHash: "x",
		DisplayName:  first + " " + last,
		FullName:     first + " " + gofakeit.FirstName() + " " + last,
		Role:         model.RoleStudent,
		IsActive:     true,
	}
	if len(u.Username) > 32 {
		u.Username = u.Username[:32]
	}
	stats := &model.UserStats{Level: 1}
	for _, opt := range opts {
		opt(u, stats)
	}
	require.NoError(t, db.Create(u).Error, "NewUser: user")
	stats.UserID = u.ID
	require.NoError(t, db.Create(stats).Error, "NewUser: stats")
	return u
}

// NewUsers inserts n students.
func NewUsers(t *testing.T, db *gorm.DB, n int) []*model.User {
	t.Helper()
	users := make([]*model.User, n)
	for i := range users {
		users[i] = NewUser(t, db)
	}
	return users
}
