// Package guild implements guilds: creation, membership with capacity and
// role rules, ownership transfer, soft deletion, rankings and challenges.
package guild

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"github.com/rckrdmrd/glit-backend-sub002/audit"
	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	MinNameLen    = 3
	MaxNameLen    = 50
	MinMaxMembers = 2
	MaxMaxMembers = 100
)

// Options holds guild defaults.
type Options struct {
	DefaultMaxMembers int // default 20
	LeaderboardLimit  int // default 10
}

// CreateInput describes a new guild. Nil pointers take defaults.
type CreateInput struct {
	Name              string
	Description       string
	Motto             string
	ColorPrimary      string
	ColorSecondary    string
	AvatarURL         string
	BannerURL         string
	MaxMembers        *int
	IsPublic          *bool
	AllowJoinRequests *bool
	RequireApproval   *bool
}

// UpdateInput is a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Name              *string
	Description       *string
	Motto             *string
	ColorPrimary      *string
	ColorSecondary    *string
	AvatarURL         *string
	BannerURL         *string
	MaxMembers        *int
	IsPublic          *bool
	AllowJoinRequests *bool
	RequireApproval   *bool
}

// Member is an active membership with the member's profile.
type Member struct {
	MembershipID      string    `json:"membership_id"`
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	DisplayName       string    `json:"display_name"`
	AvatarURL         string    `json:"avatar_url"`
	Role              string    `json:"role"`
	JoinedAt          time.Time `json:"joined_at"`
	ContributionXP    int64     `json:"contribution_xp"`
	ContributionCoins int64     `json:"contribution_coins"`
}

// Detail is a guild with its active members.
type Detail struct {
	model.Guild
	Members []Member `json:"members"`
}

// UserGuild is a guild seen from one of its members.
type UserGuild struct {
	model.Guild
	MemberRole  string    `json:"member_role"`
	MemberSince time.Time `json:"member_since"`
}

// LeaderboardEntry is a ranked guild.
type LeaderboardEntry struct {
	Rank                int    `json:"rank"`
	GuildID             string `json:"guild_id"`
	Name                string `json:"name"`
	AvatarURL           string `json:"avatar_url"`
	TotalXP             int64  `json:"total_xp"`
	CurrentMembersCount int    `json:"current_members_count"`
}

// ListQuery pages and filters guild listings.
type ListQuery struct {
	Query  string
	Limit  int
	Offset int
}

func (q *ListQuery) normalize() {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// Page is one page of guilds.
type Page struct {
	Items  []model.Guild `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Service is the Guild Engine.
type Service struct {
	db       *gorm.DB
	repo     *repository
	opts     Options
	notifier notification.Notifier
	audit    audit.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a guild Service. notifier and recorder may be nil.
func NewService(db *gorm.DB, opts Options, notifier notification.Notifier, recorder audit.Recorder, logger *zap.Logger) *Service {
	if opts.DefaultMaxMembers < MinMaxMembers || opts.DefaultMaxMembers > MaxMaxMembers {
		opts.DefaultMaxMembers = 20
	}
	if opts.LeaderboardLimit <= 0 {
		opts.LeaderboardLimit = 10
	}
	return &Service{
		db:       db,
		repo:     &repository{db: db},
		opts:     opts,
		notifier: notifier,
		audit:    recorder,
		logger:   logger,
		now:      time.Now,
	}
}

func (svc *Service) fail(op string, err error, fields ...zap.Field) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	svc.logger.Error("guild: "+op, append(fields, zap.Error(err))...)
	return apperr.Internal(err)
}

func (svc *Service) notify(ctx context.Context, userID, kind, title, message string, data any) {
	if svc.notifier != nil {
		svc.notifier.Notify(ctx, userID, kind, title, message, data)
	}
}

func (svc *Service) record(ctx context.Context, actorID, action, guildID string, req any) {
	if svc.audit != nil {
		svc.audit.Log(ctx, audit.Entry{ActorID: actorID, Action: action, TargetType: "guild", TargetID: guildID, Request: req})
	}
}

var (
	errGuildNotFound = apperr.NotFound(apperr.CodeGuildNotFound, "guild not found")
	errNotMember     = apperr.NotFound(apperr.CodeNotMember, "not an active member of this guild")
)

func validateName(name string) error {
	if n := utf8.RuneCountInString(name); n < MinNameLen || n > MaxNameLen {
		return apperr.Validation(apperr.CodeValidation, "guild name must be 3 to 50 characters")
	}
	return nil
}

func validateMaxMembers(n int) error {
	if n < MinMaxMembers || n > MaxMaxMembers {
		return apperr.Validation(apperr.CodeValidation, "max members must be between 2 and 100")
	}
	return nil
}

func newJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ---- Create / Read ----

// CreateGuild creates a guild owned and led by ownerID, with the owner as its
// first active member.
func (svc *Service) CreateGuild(ctx context.Context, ownerID string, in CreateInput, tenantID *string) (*model.Guild, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateName(in.Name); err != nil {
		return nil, err
	}
	maxMembers := svc.opts.DefaultMaxMembers
	if in.MaxMembers != nil {
		if err := validateMaxMembers(*in.MaxMembers); err != nil {
			return nil, err
		}
		maxMembers = *in.MaxMembers
	}

	now := svc.now()
	g := &model.Guild{
		Name:                in.Name,
		Description:         in.Description,
		Motto:               in.Motto,
		ColorPrimary:        in.ColorPrimary,
		ColorSecondary:      in.ColorSecondary,
		AvatarURL:           in.AvatarURL,
		BannerURL:           in.BannerURL,
		CreatorID:           ownerID,
		LeaderID:            ownerID,
		TenantID:            tenantID,
		MaxMembers:          maxMembers,
		CurrentMembersCount: 1,
		IsPublic:            boolOr(in.IsPublic, true),
		AllowJoinRequests:   boolOr(in.AllowJoinRequests, true),
		RequireApproval:     boolOr(in.RequireApproval, false),
		IsActive:            true,
		JoinCode:            newJoinCode(),
		LastActivityAt:      &now,
	}
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		taken, err := svc.repo.nameTaken(dbadapter.WithTx(ctx, tx), g.Name, "")
		if err != nil {
			return err
		}
		if taken {
			return apperr.Conflict(apperr.CodeGuildNameTaken, "guild name already taken")
		}
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		return tx.Create(&model.GuildMembership{
			GuildID:  g.ID,
			UserID:   ownerID,
			Role:     model.GuildRoleOwner,
			Status:   model.MemberActive,
			JoinedAt: now,
		}).Error
	})
	if err != nil {
		return nil, svc.fail("create", err, zap.String("owner_id", ownerID), zap.String("name", in.Name))
	}
	return g, nil
}

// GetGuild returns an active guild with its active members.
func (svc *Service) GetGuild(ctx context.Context, guildID string) (*Detail, error) {
	g, err := svc.repo.guild(ctx, guildID, false)
	if err != nil {
		return nil, svc.fail("get", err, zap.String("guild_id", guildID))
	}
	if g == nil {
		return nil, errGuildNotFound
	}
	members, err := svc.repo.members(ctx, guildID)
	if err != nil {
		return nil, svc.fail("get members", err, zap.String("guild_id", guildID))
	}
	return &Detail{Guild: *g, Members: members}, nil
}

// ListMembers returns the active members, owner first, then admins, then
// members by join time.
func (svc *Service) ListMembers(ctx context.Context, guildID string) ([]Member, error) {
	d, err := svc.GetGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	return d.Members, nil
}

// ListUserGuilds returns the guilds userID actively belongs to.
func (svc *Service) ListUserGuilds(ctx context.Context, userID string) ([]UserGuild, error) {
	rows, err := svc.repo.userGuilds(ctx, userID)
	if err != nil {
		return nil, svc.fail("list user guilds", err, zap.String("user_id", userID))
	}
	return rows, nil
}

// ListPublic pages public guilds by total XP.
func (svc *Service) ListPublic(ctx context.Context, q ListQuery) (*Page, error) {
	q.normalize()
	p, err := svc.repo.page(ctx, q, true)
	if err != nil {
		return nil, svc.fail("list public", err)
	}
	return p, nil
}

// ListAll pages every active guild, private ones included.
func (svc *Service) ListAll(ctx context.Context, q ListQuery) (*Page, error) {
	q.normalize()
	p, err := svc.repo.page(ctx, q, false)
	if err != nil {
		return nil, svc.fail("list all", err)
	}
	return p, nil
}

// Search pages public guilds whose name or description contains the query.
func (svc *Service) Search(ctx context.Context, q ListQuery) (*Page, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return nil, apperr.Validation(apperr.CodeValidation, "search query is required")
	}
	return svc.ListPublic(ctx, q)
}

// Leaderboard ranks public guilds by total XP. Ranks are positions in that
// order; equal XP does not share a rank.
func (svc *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = svc.opts.LeaderboardLimit
	}
	rows, err := svc.repo.leaderboard(ctx, limit)
	if err != nil {
		return nil, svc.fail("leaderboard", err)
	}
	out := make([]LeaderboardEntry, len(rows))
	for i, g := range rows {
		out[i] = LeaderboardEntry{
			Rank:                i + 1,
			GuildID:             g.ID,
			Name:                g.Name,
			AvatarURL:           g.AvatarURL,
			TotalXP:             g.TotalXP,
			CurrentMembersCount: g.CurrentMembersCount,
		}
	}
	return out, nil
}

// ---- Update / Delete ----

// UpdateGuild applies a partial update. Only the owner or an admin may call it.
func (svc *Service) UpdateGuild(ctx context.Context, guildID, actorID string, in UpdateInput) (*model.Guild, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := validateName(name); err != nil {
			return nil, err
		}
		in.Name = &name
	}
	if in.MaxMembers != nil {
		if err := validateMaxMembers(*in.MaxMembers); err != nil {
			return nil, err
		}
	}

	var g *model.Guild
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		var err error
		if g, err = svc.repo.guild(txCtx, guildID, true); err != nil {
			return err
		}
		if g == nil {
			return errGuildNotFound
		}
		actor, err := svc.repo.membership(txCtx, guildID, actorID)
		if err != nil {
			return err
		}
		if actor == nil || !actor.CanManageMembers() {
			return apperr.Forbidden(apperr.CodeForbidden, "only the owner or an admin can update the guild")
		}

		updates := map[string]any{}
		if in.Name != nil && *in.Name != g.Name {
			taken, err := svc.repo.nameTaken(txCtx, *in.Name, guildID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict(apperr.CodeGuildNameTaken, "guild name already taken")
			}
			updates["name"], g.Name = *in.Name, *in.Name
		}
		if in.MaxMembers != nil {
			if *in.MaxMembers < g.CurrentMembersCount {
				return apperr.Validation(apperr.CodeMaxMembersTooLow, "max members cannot be below the current member count")
			}
			updates["max_members"], g.MaxMembers = *in.MaxMembers, *in.MaxMembers
		}
		setString := func(col string, v *string, dst *string) {
			if v != nil {
				updates[col], *dst = *v, *v
			}
		}
		setBool := func(col string, v *bool, dst *bool) {
			if v != nil {
				updates[col], *dst = *v, *v
			}
		}
		setString("description", in.Description, &g.Description)
		setString("motto", in.Motto, &g.Motto)
		setString("color_primary", in.ColorPrimary, &g.ColorPrimary)
		setString("color_secondary", in.ColorSecondary, &g.ColorSecondary)
		setString("avatar_url", in.AvatarURL, &g.AvatarURL)
		setString("banner_url", in.BannerURL, &g.BannerURL)
		setBool("is_public", in.IsPublic, &g.IsPublic)
		setBool("allow_join_requests", in.AllowJoinRequests, &g.AllowJoinRequests)
		setBool("require_approval", in.RequireApproval, &g.RequireApproval)
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&model.Guild{}).Where("id = ?", guildID).Updates(updates).Error
	})
	if err != nil {
		return nil, svc.fail("update", err, zap.String("guild_id", guildID), zap.String("actor_id", actorID))
	}
	return g, nil
}

// DeleteGuild soft-deletes the guild and ends every active membership. Only
// the owner may call it.
func (svc *Service) DeleteGuild(ctx context.Context, guildID, actorID string) error {
	now := svc.now()
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		g, err := svc.repo.guild(txCtx, guildID, true)
		if err != nil {
			return err
		}
		if g == nil {
			return errGuildNotFound
		}
		actor, err := svc.repo.membership(txCtx, guildID, actorID)
		if err != nil {
			return err
		}
		if actor == nil || actor.Role != model.GuildRoleOwner {
			return apperr.Forbidden(apperr.CodeForbidden, "only the owner can delete the guild")
		}
		err = tx.Model(&model.GuildMembership{}).
			Where("guild_id = ? AND status = ?", guildID, model.MemberActive).
			Updates(map[string]any{"status": model.MemberLeft, "left_at": now}).Error
		if err != nil {
			return err
		}
		return tx.Model(&model.Guild{}).Where("id = ?", guildID).
			Updates(map[string]any{"is_active": false, "current_members_count": 0, "last_activity_at": now}).Error
	})
	if err != nil {
		return svc.fail("delete", err, zap.String("guild_id", guildID), zap.String("actor_id", actorID))
	}
	svc.record(ctx, actorID, "guild.delete", guildID, nil)
	return nil
}

// ---- Membership ----

// JoinGuild adds userID as a member of a public guild.
func (svc *Service) JoinGuild(ctx context.Context, guildID, userID string) (*model.GuildMembership, error) {
	return svc.join(ctx, userID, false, func(txCtx context.Context) (*model.Guild, error) {
		return svc.repo.guild(txCtx, guildID, true)
	})
}

// JoinByCode adds userID to the guild owning the invite code. Codes also
// open private guilds.
func (svc *Service) JoinByCode(ctx context.Context, code, userID string) (*model.GuildMembership, error) {
	return svc.join(ctx, userID, true, func(txCtx context.Context) (*model.Guild, error) {
		return svc.repo.guildByCode(txCtx, code, true)
	})
}

// join holds the guild row lock across the capacity check, the membership
// insert and the counter update.
func (svc *Service) join(ctx context.Context, userID string, invited bool, load func(context.Context) (*model.Guild, error)) (*model.GuildMembership, error) {
	now := svc.now()
	var (
		g *model.Guild
		m *model.GuildMembership
	)
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		var err error
		if g, err = load(txCtx); err != nil {
			return err
		}
		if g == nil {
			return errGuildNotFound
		}
		if g.IsFull() {
			return apperr.Conflict(apperr.CodeGuildFull, "guild full")
		}
		existing, err := svc.repo.membership(txCtx, g.ID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperr.Conflict(apperr.CodeAlreadyMember, "already member")
		}
		if !invited && (!g.IsPublic || g.RequireApproval) {
			return apperr.Forbidden(apperr.CodeGuildPrivate, "this guild can only be joined with an invite code")
		}
		m = &model.GuildMembership{
			GuildID:  g.ID,
			UserID:   userID,
			Role:     model.GuildRoleMember,
			Status:   model.MemberActive,
			JoinedAt: now,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return svc.repo.adjustCount(txCtx, g.ID, 1, now)
	})
	if err != nil {
		return nil, svc.fail("join", err, zap.String("user_id", userID))
	}
	svc.record(ctx, userID, "guild.join", g.ID, map[string]bool{"invite_code": invited})
	svc.notify(ctx, g.LeaderID, model.NotifyGuildJoined, "New guild member",
		"A new member joined "+g.Name, map[string]string{"guild_id": g.ID, "user_id": userID})
	return m, nil
}

// LeaveGuild ends userID's membership. The owner must transfer ownership first.
func (svc *Service) LeaveGuild(ctx context.Context, guildID, userID string) error {
	now := svc.now()
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		g, err := svc.repo.guild(txCtx, guildID, true)
		if err != nil {
			return err
		}
		if g == nil {
			return errGuildNotFound
		}
		m, err := svc.repo.membership(txCtx, guildID, userID)
		if err != nil {
			return err
		}
		if m == nil {
			return errNotMember
		}
		if m.Role == model.GuildRoleOwner {
			return apperr.Conflict(apperr.CodeOwnerMustTransfer, "owner must transfer first")
		}
		ended, err := svc.repo.endMembership(txCtx, m.ID, map[string]any{"status": model.MemberLeft, "left_at": now})
		if err != nil {
			return err
		}
		if !ended {
			return errNotMember
		}
		return svc.repo.adjustCount(txCtx, guildID, -1, now)
	})
	if err != nil {
		return svc.fail("leave", err, zap.String("guild_id", guildID), zap.String("user_id", userID))
	}
	return nil
}

// RemoveMember kicks targetID out of the guild. The owner may kick anyone but
// themself; admins may kick members only. Self-removal goes through the same
// role rules, so it is always forbidden.
func (svc *Service) RemoveMember(ctx context.Context, guildID, actorID, targetID, reason string) error {
	now := svc.now()
	var guildName string
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		g, err := svc.repo.guild(txCtx, guildID, true)
		if err != nil {
			return err
		}
		if g == nil {
			return errGuildNotFound
		}
		guildName = g.Name
		actor, err := svc.repo.membership(txCtx, guildID, actorID)
		if err != nil {
			return err
		}
		if actor == nil || !actor.CanManageMembers() {
			return apperr.Forbidden(apperr.CodeForbidden, "only the owner or an admin can remove members")
		}
		target, err := svc.repo.membership(txCtx, guildID, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			return errNotMember
		}
		if target.Role == model.GuildRoleOwner {
			return apperr.Forbidden(apperr.CodeCannotRemoveOwner, "cannot remove owner")
		}
		if actor.Role == model.GuildRoleAdmin && target.Role == model.GuildRoleAdmin {
			return apperr.Forbidden(apperr.CodeForbidden, "admins cannot remove other admins")
		}
		ended, err := svc.repo.endMembership(txCtx, target.ID, map[string]any{
			"status":      model.MemberKicked,
			"kicked_at":   now,
			"kick_reason": strings.TrimSpace(reason),
		})
		if err != nil {
			return err
		}
		if !ended {
			return errNotMember
		}
		return svc.repo.adjustCount(txCtx, guildID, -1, now)
	})
	if err != nil {
		return svc.fail("remove member", err, zap.String("guild_id", guildID), zap.String("target_id", targetID))
	}
	svc.record(ctx, actorID, "guild.kick", guildID, map[string]string{"user_id": targetID, "reason": reason})
	svc.notify(ctx, targetID, model.NotifyGuildKicked, "Removed from guild",
		"You were removed from "+guildName, map[string]string{"guild_id": guildID, "reason": reason})
	return nil
}

// UpdateMemberRole switches an active member between admin and member. Only
// the owner may call it; ownership moves with TransferOwnership.
func (svc *Service) UpdateMemberRole(ctx context.Context, guildID, ownerID, targetID, role string) (*model.GuildMembership, error) {
	if role != model.GuildRoleAdmin && role != model.GuildRoleMember {
		return nil, apperr.Validation(apperr.CodeValidation, "role must be admin or member")
	}
	var target *model.GuildMembership
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		g, err := svc.repo.guild(txCtx, guildID, true)
		if err != nil {
			return err
		}
		if g == nil {
			return errGuildNotFound
		}
		actor, err := svc.repo.membership(txCtx, guildID, ownerID)
		if err != nil {
			return err
		}
		if actor == nil || actor.Role != model.GuildRoleOwner {
			return apperr.Forbidden(apperr.CodeForbidden, "only the owner can change roles")
		}
		if target, err = svc.repo.membership(txCtx, guildID, targetID); err != nil {
			return err
		}
		if target == nil {
			return errNotMember
		}
		if target.Role == model.GuildRoleOwner {
			return apperr.Forbidden(apperr.CodeCannotChangeOwner, "cannot change the owner's role")
		}
		target.Role = role
		return svc.repo.setRole(txCtx, target.ID, role)
	})
	if err != nil {
		return nil, svc.fail("update role", err, zap.String("guild_id", guildID), zap.String("target_id", targetID))
	}
	svc.record(ctx, ownerID, "guild.role", guildID, map[string]string{"user_id": targetID, "role": role})
	svc.notify(ctx, targetID, model.NotifyGuildRole, "Guild role changed",
		"Your guild role is now "+role, map[string]string{"guild_id": guildID, "role": role})
	return target, nil
}

// TransferOwnership makes newOwnerID the owner and leader; the previous owner
// stays on as admin.
func (svc *Service) TransferOwnership(ctx context.Context, guildID, ownerID, newOwnerID string) error {
	if ownerID == newOwnerID {
		return apperr.Validation(apperr.CodeValidation, "already the owner")
	}
	now := svc.now()
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		g, err := svc.repo.guild(txCtx, guildID, true)
		if err != nil {
			return err
		}
		if g == nil {
			return errGuildNotFound
		}
		current, err := svc.repo.membership(txCtx, guildID, ownerID)
		if err != nil {
			return err
		}
		if current == nil || current.Role != model.GuildRoleOwner {
			return apperr.Forbidden(apperr.CodeForbidden, "only the owner can transfer ownership")
		}
		next, err := svc.repo.membership(txCtx, guildID, newOwnerID)
		if err != nil {
			return err
		}
		if next == nil {
			return errNotMember
		}
		if err := svc.repo.setRole(txCtx, current.ID, model.GuildRoleAdmin); err != nil {
			return err
		}
		if err := svc.repo.setRole(txCtx, next.ID, model.GuildRoleOwner); err != nil {
			return err
		}
		return tx.Model(&model.Guild{}).Where("id = ?", guildID).
			Updates(map[string]any{"leader_id": newOwnerID, "last_activity_at": now}).Error
	})
	if err != nil {
		return svc.fail("transfer", err, zap.String("guild_id", guildID), zap.String("new_owner_id", newOwnerID))
	}
	svc.record(ctx, ownerID, "guild.transfer", guildID, map[string]string{"new_owner_id": newOwnerID})
	svc.notify(ctx, newOwnerID, model.NotifyGuildOwner, "You are the new guild owner",
		"Ownership of the guild was transferred to you", map[string]string{"guild_id": guildID})
	return nil
}
