package rest_test

import (
	"net/http"
	"testing"

	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/social/guild"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuildCapacityScenario(t *testing.T) {
	s := newServer(t)
	u1, u2, u3 := testutil.NewUser(t, s.db), testutil.NewUser(t, s.db), testutil.NewUser(t, s.db)
	t1, t2, t3 := s.login(u1), s.login(u2), s.login(u3)

	res := s.do(http.MethodPost, "/api/guilds", "", map[string]any{"name": "Team A", "maxMembers": 2})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, apperr.CodeUnauthorized, res.ErrorCode())

	res = s.do(http.MethodPost, "/api/guilds", t1, map[string]any{"name": "Team A", "maxMembers": 2})
	require.Equal(t, http.StatusCreated, res.Code)
	var g model.Guild
	res.Decode(&g)
	assert.Equal(t, 1, g.CurrentMembersCount)

	res = s.do(http.MethodPost, "/api/guilds/"+g.ID+"/join", t2, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(http.MethodPost, "/api/guilds/"+g.ID+"/join", t3, nil)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, apperr.CodeGuildFull, res.ErrorCode())

	res = s.do(http.MethodGet, "/api/guilds/"+g.ID, "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var d guild.Detail
	res.Decode(&d)
	assert.Equal(t, 2, d.CurrentMembersCount)
	assert.Len(t, d.Members, 2)

	res = s.do(http.MethodPost, "/api/guilds/"+g.ID+"/leave", t1, nil)
	assert.Equal(t, http.StatusConflict, res.Code)
	assert.Equal(t, apperr.CodeOwnerMustTransfer, res.ErrorCode())
}

func TestGuildValidation(t *testing.T) {
	s := newServer(t)
	tok := s.login(testutil.NewUser(t, s.db))

	cases := map[string]map[string]any{
		"short name":    {"name": "ab"},
		"cap too small": {"name": "Valid", "maxMembers": 1},
		"cap too large": {"name": "Valid", "maxMembers": 101},
		"bad color":     {"name": "Valid", "colorPrimary": "#12345"},
		"named color":   {"name": "Valid", "colorSecondary": "red"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res := s.do(http.MethodPost, "/api/guilds", tok, body)
			assert.Equal(t, http.StatusBadRequest, res.Code)
			assert.Equal(t, apperr.CodeValidation, res.ErrorCode())
		})
	}

	res := s.do(http.MethodPost, "/api/guilds", tok, map[string]any{"name": "Valid", "colorPrimary": "#A1b2C3"})
	assert.Equal(t, http.StatusCreated, res.Code)
}

func TestGuildMembersRoutes(t *testing.T) {
	s := newServer(t)
	owner, member := testutil.NewUser(t, s.db), testutil.NewUser(t, s.db)
	to, tm := s.login(owner), s.login(member)

	res := s.do(http.MethodPost, "/api/guilds", to, map[string]any{"name": "Routes", "isPublic": false})
	require.Equal(t, http.StatusCreated, res.Code)
	var g model.Guild
	res.Decode(&g)

	res = s.do(http.MethodPost, "/api/guilds/"+g.ID+"/join", tm, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, apperr.CodeGuildPrivate, res.ErrorCode())

	res = s.do(http.MethodPost, "/api/guilds/join-by-code", tm, map[string]string{"code": g.JoinCode})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(http.MethodPatch, "/api/guilds/"+g.ID+"/members/"+member.ID+"/role", to, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(http.MethodPatch, "/api/guilds/"+g.ID+"/members/"+member.ID+"/role", to, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(http.MethodDelete, "/api/guilds/"+g.ID+"/members/"+owner.ID, tm, map[string]string{"reason": "coup"})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, apperr.CodeCannotRemoveOwner, res.ErrorCode())

	res = s.do(http.MethodDelete, "/api/guilds/"+g.ID+"/members/"+member.ID, to, map[string]string{"reason": "inactive"})
	require.Equal(t, http.StatusOK, res.Code)

	var m model.GuildMembership
	require.NoError(t, s.db.Where("guild_id = ? AND user_id = ?", g.ID, member.ID).First(&m).Error)
	assert.Equal(t, model.MemberKicked, m.Status)
	assert.Equal(t, "inactive", m.KickReason)

	res = s.do(http.MethodGet, "/api/guilds/user/"+owner.ID, "", nil)
	require.Equal(t, http.StatusOK, res.Code)
	var mine []guild.UserGuild
	res.Decode(&mine)
	require.Len(t, mine, 1)
	assert.Equal(t, model.GuildRoleOwner, mine[0].MemberRole)

	res = s.do(http.MethodDelete, "/api/guilds/"+g.ID, to, nil)
	require.Equal(t, http.StatusOK, res.Code)
	res = s.do(http.MethodGet, "/api/guilds/"+g.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func TestAdminGuildListRequiresRole(t *testing.T) {
	s := newServer(t)
	student := s.login(testutil.NewUser(t, s.db))
	admin := s.login(testutil.NewUser(t, s.db, testutil.WithRole(model.RoleAdmin)))

	res := s.do(http.MethodGet, "/api/admin/guilds", student, nil)
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(http.MethodGet, "/api/admin/guilds", admin, nil)
	assert.Equal(t, http.StatusOK, res.Code)
}
