package guild

import (
	"context"
	"errors"
	"strings"
	"time"

	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeGuilds restricts a query to guilds that have not been deleted. It is
// the only place that reads the soft-delete flag.
func activeGuilds(q *gorm.DB) *gorm.DB {
	return q.Where("guilds.is_active = ?", true)
}

type repository struct {
	db *gorm.DB
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return dbadapter.Conn(ctx, r.db)
}

func (r *repository) guildWhere(ctx context.Context, lock bool, query string, args ...any) (*model.Guild, error) {
	q := r.conn(ctx).Scopes(activeGuilds)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var g model.Guild
	err := q.Where(query, args...).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// guild returns an active guild by id, or nil.
func (r *repository) guild(ctx context.Context, id string, lock bool) (*model.Guild, error) {
	return r.guildWhere(ctx, lock, "guilds.id = ?", id)
}

// guildByCode returns an active guild by join code, or nil.
func (r *repository) guildByCode(ctx context.Context, code string, lock bool) (*model.Guild, error) {
	return r.guildWhere(ctx, lock, "guilds.join_code = ?", strings.ToUpper(code))
}

func (r *repository) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	var n int64
	q := r.conn(ctx).Model(&model.Guild{}).Scopes(activeGuilds).Where("LOWER(guilds.name) = ?", strings.ToLower(name))
	if exceptID != "" {
		q = q.Where("guilds.id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// membership returns the active membership of userID in guildID, or nil.
func (r *repository) membership(ctx context.Context, guildID, userID string) (*model.GuildMembership, error) {
	var m model.GuildMembership
	err := r.conn(ctx).
		Where("guild_id = ? AND user_id = ? AND status = ?", guildID, userID, model.MemberActive).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// adjustCount moves current_members_count by delta, never below zero.
func (r *repository) adjustCount(ctx context.Context, guildID string, delta int, now time.Time) error {
	expr := gorm.Expr("current_members_count + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN current_members_count + ? > 0 THEN current_members_count + ? ELSE 0 END", delta, delta)
	}
	return r.conn(ctx).Model(&model.Guild{}).Where("id = ?", guildID).
		Updates(map[string]any{"current_members_count": expr, "last_activity_at": now}).Error
}

// endMembership moves an active membership to a terminal status.
func (r *repository) endMembership(ctx context.Context, id string, updates map[string]any) (bool, error) {
	res := r.conn(ctx).Model(&model.GuildMembership{}).
		Where("id = ? AND status = ?", id, model.MemberActive).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) setRole(ctx context.Context, membershipID, role string) error {
	return r.conn(ctx).Model(&model.GuildMembership{}).Where("id = ?", membershipID).Update("role", role).Error
}

const roleOrder = "CASE guild_memberships.role WHEN 'owner' THEN 0 WHEN 'admin' THEN 1 ELSE 2 END"

// members returns active members with profile data, owner first.
func (r *repository) members(ctx context.Context, guildID string) ([]Member, error) {
	var out []Member
	err := r.conn(ctx).Model(&model.GuildMembership{}).
		Select("guild_memberships.id AS membership_id, guild_memberships.user_id, users.username, users.display_name, users.avatar_url, "+
			"guild_memberships.role, guild_memberships.joined_at, guild_memberships.contribution_xp, guild_memberships.contribution_coins").
		Joins("JOIN users ON users.id = guild_memberships.user_id").
		Where("guild_memberships.guild_id = ? AND guild_memberships.status = ?", guildID, model.MemberActive).
		Order(roleOrder).
		Order("guild_memberships.joined_at").
		Scan(&out).Error
	return out, err
}

// userGuilds returns the active guilds userID is an active member of.
func (r *repository) userGuilds(ctx context.Context, userID string) ([]UserGuild, error) {
	var rows []UserGuild
	err := r.conn(ctx).Model(&model.Guild{}).Scopes(activeGuilds).
		Select("guilds.*, guild_memberships.role AS member_role, guild_memberships.joined_at AS member_since").
		Joins("JOIN guild_memberships ON guild_memberships.guild_id = guilds.id").
		Where("guild_memberships.user_id = ? AND guild_memberships.status = ?", userID, model.MemberActive).
		Order("guild_memberships.joined_at DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) page(ctx context.Context, q ListQuery, publicOnly bool) (*Page, error) {
	base := r.conn(ctx).Model(&model.Guild{}).Scopes(activeGuilds)
	if publicOnly {
		base = base.Where("guilds.is_public = ?", true)
	}
	if term := strings.TrimSpace(q.Query); term != "" {
		pattern := dbadapter.ContainsPattern(strings.ToLower(term))
		like := "LIKE ? " + dbadapter.LikeEscape
		base = base.Where("LOWER(guilds.name) "+like+" OR LOWER(guilds.description) "+like, pattern, pattern)
	}
	p := &Page{Limit: q.Limit, Offset: q.Offset}
	if err := base.Count(&p.Total).Error; err != nil {
		return nil, err
	}
	err := base.Order("guilds.total_xp DESC").Order("guilds.created_at").
		Limit(q.Limit).Offset(q.Offset).Find(&p.Items).Error
	return p, err
}

func (r *repository) leaderboard(ctx context.Context, limit int) ([]model.Guild, error) {
	var rows []model.Guild
	err := r.conn(ctx).Scopes(activeGuilds).
		Where("guilds.is_public = ?", true).
		Order("guilds.total_xp DESC").
		Order("guilds.created_at").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
