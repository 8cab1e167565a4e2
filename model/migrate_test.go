package model_test

import (
	"testing"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoMigrate_InsertAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)

	u := &model.User{Email: "a@example.com", Username: "alpha", PasswordHash: "hash", Role: model.RoleStudent, IsActive: true}
	require.NoError(t, db.Create(u).Error)
	assert.Len(t, u.ID, 36)

	var found model.User
	require.NoError(t, db.First(&found, "id = ?", u.ID).Error)
	assert.Equal(t, "alpha", found.Username)

	g := &model.Guild{Name: "Owls", CreatorID: u.ID, LeaderID: u.ID, MaxMembers: 20, IsPublic: true, IsActive: true, JoinCode: "OWLS0001"}
	require.NoError(t, db.Create(g).Error)
	m := &model.GuildMembership{GuildID: g.ID, UserID: u.ID, Role: model.GuildRoleOwner, Status: model.MemberActive, JoinedAt: time.Now()}
	require.NoError(t, db.Create(m).Error)

	c := &model.Classroom{TeacherID: u.ID, Name: "5A", IsActive: true}
	require.NoError(t, db.Create(c).Error)
	a := &model.Assignment{TeacherID: u.ID, Title: "Week 1", Type: model.AssignmentHomework, TotalPoints: 100}
	require.NoError(t, db.Create(a).Error)
	s := &model.AssignmentSubmission{AssignmentID: a.ID, StudentID: u.ID, Status: model.SubmissionNotStarted}
	require.NoError(t, db.Create(s).Error)

	n := &model.Notification{UserID: u.ID, Type: model.NotifyAssignment, Title: "New assignment"}
	require.NoError(t, db.Create(n).Error)

	var stats int64
	require.NoError(t, db.Model(&model.UserStats{}).Count(&stats).Error)
	assert.Zero(t, stats)
}

func TestFriendship_PairIsUniqueInEitherDirection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	a, b := testutil.NewUser(t, db), testutil.NewUser(t, db)

	f := &model.Friendship{RequesterID: a.ID, AddresseeID: b.ID, Status: model.FriendshipPending}
	require.NoError(t, db.Create(f).Error)
	assert.Equal(t, model.PairKey(b.ID, a.ID), f.PairKey)
	assert.Equal(t, b.ID, f.OtherParty(a.ID))

	reverse := &model.Friendship{RequesterID: b.ID, AddresseeID: a.ID, Status: model.FriendshipPending}
	assert.Error(t, db.Create(reverse).Error)
}

func TestSubmission_OnePerStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	teacher := testutil.NewUser(t, db, testutil.WithRole(model.RoleTeacher))
	student := testutil.NewUser(t, db)

	a := &model.Assignment{TeacherID: teacher.ID, Title: "Quiz", Type: model.AssignmentQuiz, TotalPoints: 10}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(&model.AssignmentSubmission{AssignmentID: a.ID, StudentID: student.ID, Status: model.SubmissionNotStarted}).Error)
	assert.Error(t, db.Create(&model.AssignmentSubmission{AssignmentID: a.ID, StudentID: student.ID, Status: model.SubmissionNotStarted}).Error)
}

func TestUserIsOnline(t *testing.T) {
	now := time.Now()
	u := &model.User{}
	assert.False(t, u.IsOnline(now, 5*time.Minute))

	recent := now.Add(-time.Minute)
	u.LastLoginAt = &recent
	assert.True(t, u.IsOnline(now, 5*time.Minute))

	old := now.Add(-time.Hour)
	u.LastLoginAt = &old
	assert.False(t, u.IsOnline(now, 5*time.Minute))
}

func TestGuildIsFull(t *testing.T) {
	g := &model.Guild{MaxMembers: 2, CurrentMembersCount: 1}
	assert.False(t, g.IsFull())
	g.CurrentMembersCount = 2
	assert.True(t, g.IsFull())
}
