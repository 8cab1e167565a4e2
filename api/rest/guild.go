package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/social/guild"
)

// GuildHandler exposes the guild engine.
type GuildHandler struct {
	svc *guild.Service
}

// NewGuildHandler creates a new GuildHandler.
func NewGuildHandler(svc *guild.Service) *GuildHandler {
	return &GuildHandler{svc: svc}
}

type createGuildRequest struct {
	Name              string  `json:"name"              binding:"required,min=3,max=50"`
	Description       string  `json:"description"       binding:"max=2000"`
	Motto             string  `json:"motto"             binding:"max=200"`
	ColorPrimary      string  `json:"colorPrimary"      binding:"omitempty,hexcolor6"`
	ColorSecondary    string  `json:"colorSecondary"    binding:"omitempty,hexcolor6"`
	AvatarURL         string  `json:"avatarUrl"         binding:"omitempty,url,max=255"`
	BannerURL         string  `json:"bannerUrl"         binding:"omitempty,url,max=255"`
	MaxMembers        *int    `json:"maxMembers"        binding:"omitempty,min=2,max=100"`
	IsPublic          *bool   `json:"isPublic"`
	AllowJoinRequests *bool   `json:"allowJoinRequests"`
	RequireApproval   *bool   `json:"requireApproval"`
	TenantID          *string `json:"tenantId"          binding:"omitempty,uuid"`
}

type updateGuildRequest struct {
	Name              *string `json:"name"              binding:"omitempty,min=3,max=50"`
	Description       *string `json:"description"       binding:"omitempty,max=2000"`
	Motto             *string `json:"motto"             binding:"omitempty,max=200"`
	ColorPrimary      *string `json:"colorPrimary"      binding:"omitempty,hexcolor6"`
	ColorSecondary    *string `json:"colorSecondary"    binding:"omitempty,hexcolor6"`
	AvatarURL         *string `json:"avatarUrl"         binding:"omitempty,url,max=255"`
	BannerURL         *string `json:"bannerUrl"         binding:"omitempty,url,max=255"`
	MaxMembers        *int    `json:"maxMembers"        binding:"omitempty,min=2,max=100"`
	IsPublic          *bool   `json:"isPublic"`
	AllowJoinRequests *bool   `json:"allowJoinRequests"`
	RequireApproval   *bool   `json:"requireApproval"`
}

type joinByCodeRequest struct {
	Code string `json:"code" binding:"required,max=12"`
}

type kickRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

type transferRequest struct {
	NewOwnerID string `json:"newOwnerId" binding:"required,uuid"`
}

type challengeRequest struct {
	Title       string    `json:"title"       binding:"required,max=100"`
	Description string    `json:"description" binding:"max=2000"`
	Type        string    `json:"type"        binding:"required,oneof=xp_goal modules_completion achievement_hunt custom"`
	TargetValue int64     `json:"targetValue" binding:"required,gt=0"`
	RewardXP    int64     `json:"rewardXp"    binding:"min=0"`
	RewardCoins int64     `json:"rewardCoins" binding:"min=0"`
	StartDate   time.Time `json:"startDate"   binding:"required"`
	EndDate     time.Time `json:"endDate"     binding:"required,gtfield=StartDate"`
}

func listQuery(c *gin.Context) guild.ListQuery {
	return guild.ListQuery{
		Query:  c.Query("q"),
		Limit:  queryInt(c, "limit", 0),
		Offset: queryInt(c, "offset", 0),
	}
}

// Create handles POST /api/guilds.
func (h *GuildHandler) Create(c *gin.Context) {
	var req createGuildRequest
	if !bind(c, &req) {
		return
	}
	g, err := h.svc.CreateGuild(requestCtx(c), mw.GetUserID(c), guild.CreateInput{
		Name:              req.Name,
		Description:       req.Description,
		Motto:             req.Motto,
		ColorPrimary:      req.ColorPrimary,
		ColorSecondary:    req.ColorSecondary,
		AvatarURL:         req.AvatarURL,
		BannerURL:         req.BannerURL,
		MaxMembers:        req.MaxMembers,
		IsPublic:          req.IsPublic,
		AllowJoinRequests: req.AllowJoinRequests,
		RequireApproval:   req.RequireApproval,
	}, req.TenantID)
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("guild", "create")
	created(c, g)
}

// ListPublic handles GET /api/guilds.
func (h *GuildHandler) ListPublic(c *gin.Context) {
	p, err := h.svc.ListPublic(c.Request.Context(), listQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

// ListAll handles GET /api/admin/guilds.
func (h *GuildHandler) ListAll(c *gin.Context) {
	p, err := h.svc.ListAll(c.Request.Context(), listQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

// Search handles GET /api/guilds/search?q=.
func (h *GuildHandler) Search(c *gin.Context) {
	p, err := h.svc.Search(c.Request.Context(), listQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, p)
}

// Leaderboard handles GET /api/guilds/leaderboard?limit=.
func (h *GuildHandler) Leaderboard(c *gin.Context) {
	out, err := h.svc.Leaderboard(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// UserGuilds handles GET /api/guilds/user/:userId.
func (h *GuildHandler) UserGuilds(c *gin.Context) {
	out, err := h.svc.ListUserGuilds(c.Request.Context(), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Detail handles GET /api/guilds/:id.
func (h *GuildHandler) Detail(c *gin.Context) {
	d, err := h.svc.GetGuild(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, d)
}

// Members handles GET /api/guilds/:id/members.
func (h *GuildHandler) Members(c *gin.Context) {
	out, err := h.svc.ListMembers(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Update handles PUT /api/guilds/:id.
func (h *GuildHandler) Update(c *gin.Context) {
	var req updateGuildRequest
	if !bind(c, &req) {
		return
	}
	g, err := h.svc.UpdateGuild(requestCtx(c), c.Param("id"), mw.GetUserID(c), guild.UpdateInput{
		Name:              req.Name,
		Description:       req.Description,
		Motto:             req.Motto,
		ColorPrimary:      req.ColorPrimary,
		ColorSecondary:    req.ColorSecondary,
		AvatarURL:         req.AvatarURL,
		BannerURL:         req.BannerURL,
		MaxMembers:        req.MaxMembers,
		IsPublic:          req.IsPublic,
		AllowJoinRequests: req.AllowJoinRequests,
		RequireApproval:   req.RequireApproval,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, g)
}

// Delete handles DELETE /api/guilds/:id.
func (h *GuildHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteGuild(requestCtx(c), c.Param("id"), mw.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("guild", "delete")
	ok(c, gin.H{"message": "guild deleted"})
}

// Join handles POST /api/guilds/:id/join.
func (h *GuildHandler) Join(c *gin.Context) {
	m, err := h.svc.JoinGuild(requestCtx(c), c.Param("id"), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("guild", "join")
	ok(c, m)
}

// JoinByCode handles POST /api/guilds/join-by-code.
func (h *GuildHandler) JoinByCode(c *gin.Context) {
	var req joinByCodeRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.svc.JoinByCode(requestCtx(c), req.Code, mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("guild", "join")
	ok(c, m)
}

// Leave handles POST /api/guilds/:id/leave.
func (h *GuildHandler) Leave(c *gin.Context) {
	if err := h.svc.LeaveGuild(requestCtx(c), c.Param("id"), mw.GetUserID(c)); err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("guild", "leave")
	ok(c, gin.H{"message": "left guild"})
}

// RemoveMember handles DELETE /api/guilds/:id/members/:memberId with an
// optional {reason} body.
func (h *GuildHandler) RemoveMember(c *gin.Context) {
	var req kickRequest
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	err := h.svc.RemoveMember(requestCtx(c), c.Param("id"), mw.GetUserID(c), c.Param("memberId"), req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("guild", "kick")
	ok(c, gin.H{"message": "member removed"})
}

// UpdateRole handles PATCH /api/guilds/:id/members/:memberId/role.
func (h *GuildHandler) UpdateRole(c *gin.Context) {
	var req roleRequest
	if !bind(c, &req) {
		return
	}
	m, err := h.svc.UpdateMemberRole(requestCtx(c), c.Param("id"), mw.GetUserID(c), c.Param("memberId"), req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, m)
}

// Transfer handles POST /api/guilds/:id/transfer.
func (h *GuildHandler) Transfer(c *gin.Context) {
	var req transferRequest
	if !bind(c, &req) {
		return
	}
	if err := h.svc.TransferOwnership(requestCtx(c), c.Param("id"), mw.GetUserID(c), req.NewOwnerID); err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("guild", "transfer")
	ok(c, gin.H{"message": "ownership transferred"})
}

// CreateChallenge handles POST /api/guilds/:id/challenges.
func (h *GuildHandler) CreateChallenge(c *gin.Context) {
	var req challengeRequest
	if !bind(c, &req) {
		return
	}
	ch, err := h.svc.CreateChallenge(requestCtx(c), c.Param("id"), mw.GetUserID(c), guild.ChallengeInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		TargetValue: req.TargetValue,
		RewardXP:    req.RewardXP,
		RewardCoins: req.RewardCoins,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		fail(c, err)
		return
	}
	created(c, ch)
}

// Challenges handles GET /api/guilds/:id/challenges?active=true.
func (h *GuildHandler) Challenges(c *gin.Context) {
	out, err := h.svc.ListChallenges(c.Request.Context(), c.Param("id"), c.Query("active") == "true")
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}
