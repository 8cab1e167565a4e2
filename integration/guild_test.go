package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/social/guild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildCapacityAndOwnerNotification(t *testing.T) {
	ts := NewTestServer(t)
	owner := ts.Register(t, model.RoleStudent)
	second := ts.Register(t, model.RoleStudent)
	third := ts.Register(t, model.RoleStudent)

	resp := ts.PostJSON(t, "/api/guilds", map[string]any{"name": UniqueID("Team"), "maxMembers": 2}, owner.Token)
	require.Equal(t, http.StatusCreated, resp.Status)
	var g model.Guild
	resp.Into(t, &g)
	assert.Equal(t, 1, g.CurrentMembersCount)

	stream := ts.Listen(t, owner.Token)

	resp = ts.PostJSON(t, "/api/guilds/"+g.ID+"/join", nil, second.Token)
	require.Equal(t, http.StatusOK, resp.Status)

	ev := stream.Next(t, 2*time.Second)
	var n model.Notification
	require.NoError(t, json.Unmarshal([]byte(ev.Data), &n))
	assert.Equal(t, model.NotifyGuildJoined, n.Type)

	resp = ts.PostJSON(t, "/api/guilds/"+g.ID+"/join", nil, third.Token)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Equal(t, "GUILD_FULL", resp.ErrorCode())

	resp = ts.PostJSON(t, "/api/guilds/"+g.ID+"/leave", nil, second.Token)
	require.Equal(t, http.StatusOK, resp.Status)
	resp = ts.PostJSON(t, "/api/guilds/"+g.ID+"/join", nil, third.Token)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = ts.Get(t, "/api/guilds/"+g.ID+"/members", "")
	require.Equal(t, http.StatusOK, resp.Status)
	var members []guild.Member
	resp.Into(t, &members)
	assert.Len(t, members, 2)

	// Audit entries are flushed when the writer stops.
	ts.Audit.Stop(context.Background())
	var joins int64
	require.NoError(t, ts.DB.Model(&model.AuditLog{}).Where("action = ?", "guild.join").Count(&joins).Error)
	assert.Equal(t, int64(2), joins)
}

func TestGuildConcurrentJoinsOverHTTP(t *testing.T) {
	ts := NewTestServer(t)
	owner := ts.Register(t, model.RoleStudent)

	resp := ts.PostJSON(t, "/api/guilds", map[string]any{"name": UniqueID("Rush"), "maxMembers": 3}, owner.Token)
	require.Equal(t, http.StatusCreated, resp.Status)
	var g model.Guild
	resp.Into(t, &g)

	joiners := make([]*Account, 5)
	for i := range joiners {
		joiners[i] = ts.Register(t, model.RoleStudent)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = map[int]int{}
	)
	for _, a := range joiners {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			r := ts.PostJSON(t, "/api/guilds/"+g.ID+"/join", nil, token)
			mu.Lock()
			statuses[r.Status]++
			mu.Unlock()
		}(a.Token)
	}
	wg.Wait()

	assert.Equal(t, 2, statuses[http.StatusOK])
	assert.Equal(t, 3, statuses[http.StatusConflict])

	var stored model.Guild
	require.NoError(t, ts.DB.First(&stored, "id = ?", g.ID).Error)
	assert.Equal(t, 3, stored.CurrentMembersCount)
}

func TestChallengeSweepRunsOnSchedule(t *testing.T) {
	ts := NewTestServer(t)
	owner := ts.Register(t, model.RoleStudent)

	resp := ts.PostJSON(t, "/api/guilds", map[string]any{"name": UniqueID("Sweep")}, owner.Token)
	require.Equal(t, http.StatusCreated, resp.Status)
	var g model.Guild
	resp.Into(t, &g)

	now := time.Now()
	reached := &model.GuildChallenge{GuildID: g.ID, Title: "reached", Type: "xp_goal", TargetValue: 10, CurrentValue: 10,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour), IsActive: true, CreatedBy: owner.ID}
	lapsed := &model.GuildChallenge{GuildID: g.ID, Title: "lapsed", Type: "xp_goal", TargetValue: 10,
		StartDate: now.Add(-2 * time.Hour), EndDate: now.Add(-time.Minute), IsActive: true, CreatedBy: owner.ID}
	require.NoError(t, ts.DB.Create(reached).Error)
	require.NoError(t, ts.DB.Create(lapsed).Error)

	ts.Sched.Every("guild_challenge_sweep", 20*time.Millisecond, func(ctx context.Context) error {
		_, err := ts.Guilds.SweepChallenges(ctx)
		return err
	})

	require.Eventually(t, func() bool {
		var active int64
		ts.DB.Model(&model.GuildChallenge{}).Where("guild_id = ? AND is_active = ?", g.ID, true).Count(&active)
		return active == 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, ts.DB.First(reached, "id = ?", reached.ID).Error)
	assert.True(t, reached.IsCompleted)
	require.NoError(t, ts.DB.First(lapsed, "id = ?", lapsed.ID).Error)
	assert.False(t, lapsed.IsCompleted)
}
