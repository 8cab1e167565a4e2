package guild_test

import (
	"context"
	"testing"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/social/guild"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func validChallenge() guild.ChallengeInput {
	now := time.Now()
	return guild.ChallengeInput{
		Title:       "Reach 1000 XP",
		Type:        model.ChallengeXPGoal,
		TargetValue: 1000,
		RewardXP:    50,
		StartDate:   now,
		EndDate:     now.Add(7 * 24 * time.Hour),
	}
}

func TestCreateChallenge_Validation(t *testing.T) {
	svc, db, _ := setup(t)
	owner := testutil.NewUser(t, db)
	g := createGuild(t, svc, owner.ID, "Challengers", 10)
	ctx := context.Background()

	cases := map[string]func(in *guild.ChallengeInput){
		"blank title":     func(in *guild.ChallengeInput) { in.Title = "  " },
		"unknown type":    func(in *guild.ChallengeInput) { in.Type = "speedrun" },
		"zero target":     func(in *guild.ChallengeInput) { in.TargetValue = 0 },
		"negative reward": func(in *guild.ChallengeInput) { in.RewardCoins = -1 },
		"end before start": func(in *guild.ChallengeInput) {
			in.EndDate = in.StartDate.Add(-time.Hour)
		},
		"already over": func(in *guild.ChallengeInput) {
			in.StartDate = time.Now().Add(-48 * time.Hour)
			in.EndDate = time.Now().Add(-24 * time.Hour)
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validChallenge()
			mutate(&in)
			_, err := svc.CreateChallenge(ctx, g.ID, owner.ID, in)
			requireKind(t, err, apperr.KindValidation, "")
		})
	}
}

func TestCreateChallenge_ManagersOnly(t *testing.T) {
	svc, db, rec := setup(t)
	owner, member := testutil.NewUser(t, db), testutil.NewUser(t, db)
	g := createGuild(t, svc, owner.ID, "Challengers", 10)
	ctx := context.Background()
	_, err := svc.JoinGuild(ctx, g.ID, member.ID)
	require.NoError(t, err)

	_, err = svc.CreateChallenge(ctx, g.ID, member.ID, validChallenge())
	requireKind(t, err, apperr.KindForbidden, "")

	_, err = svc.CreateChallenge(ctx, "missing", owner.ID, validChallenge())
	requireKind(t, err, apperr.KindNotFound, apperr.CodeGuildNotFound)

	ch, err := svc.CreateChallenge(ctx, g.ID, owner.ID, validChallenge())
	require.NoError(t, err)
	assert.True(t, ch.IsActive)
	assert.False(t, ch.IsCompleted)
	assert.Equal(t, owner.ID, ch.CreatedBy)
	assert.Contains(t, rec.actions, "guild.challenge")

	list, err := svc.ListChallenges(ctx, g.ID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ch.ID, list[0].ID)
}

func TestSweepChallenges(t *testing.T) {
	svc, db, _ := setup(t)
	owner := testutil.NewUser(t, db)
	g := createGuild(t, svc, owner.ID, "Sweepers", 10)
	ctx := context.Background()

	running, err := svc.CreateChallenge(ctx, g.ID, owner.ID, validChallenge())
	require.NoError(t, err)
	reached, err := svc.CreateChallenge(ctx, g.ID, owner.ID, validChallenge())
	require.NoError(t, err)
	require.NoError(t, db.Model(&model.GuildChallenge{}).Where("id = ?", reached.ID).
		Update("current_value", 1200).Error)

	past := time.Now().Add(-time.Hour)
	expired := &model.GuildChallenge{
		GuildID:     g.ID,
		Title:       "Old",
		Type:        model.ChallengeCustom,
		TargetValue: 10,
		StartDate:   past.Add(-24 * time.Hour),
		EndDate:     past,
		IsActive:    true,
		CreatedBy:   owner.ID,
	}
	require.NoError(t, db.Create(expired).Error)

	res, err := svc.SweepChallenges(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Completed)
	assert.Equal(t, int64(1), res.Expired)

	load := func(id string) model.GuildChallenge {
		var ch model.GuildChallenge
		require.NoError(t, db.First(&ch, "id = ?", id).Error)
		return ch
	}
	assert.True(t, load(running.ID).IsActive)
	assert.True(t, load(reached.ID).IsCompleted)
	assert.False(t, load(reached.ID).IsActive)
	assert.False(t, load(expired.ID).IsActive)
	assert.False(t, load(expired.ID).IsCompleted)

	active, err := svc.ListChallenges(ctx, g.ID, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := svc.ListChallenges(ctx, g.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	again, err := svc.SweepChallenges(ctx)
	require.NoError(t, err)
	assert.Zero(t, again.Completed+again.Expired)
}

func TestSweepChallenges_LogsOneSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	db := testutil.SetupTestDB(t)
	rec := &recorder{}
	svc := guild.NewService(db, guild.Options{}, rec, rec, zap.New(core))
	owner := testutil.NewUser(t, db)
	g := createGuild(t, svc, owner.ID, "Loggers", 10)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&model.GuildChallenge{
		GuildID:     g.ID,
		Title:       "Old",
		Type:        model.ChallengeCustom,
		TargetValue: 10,
		StartDate:   past.Add(-24 * time.Hour),
		EndDate:     past,
		IsActive:    true,
		CreatedBy:   owner.ID,
	}).Error)

	_, err := svc.SweepChallenges(ctx)
	require.NoError(t, err)
	swept := logs.FilterMessage("guild challenges swept").All()
	require.Len(t, swept, 1)
	assert.Equal(t, int64(1), swept[0].ContextMap()["expired"])

	_, err = svc.SweepChallenges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("guild challenges swept").Len())
}
