package friend

import (
	"context"
	"errors"
	"time"

	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// profile is a user joined with its stats row.
type profile struct {
	model.User
	TotalXP int64
	Level   int
	Rank    string `gorm:"column:user_rank"`
}

// repository runs the friendship queries on the ambient transaction of ctx
// when there is one.
type repository struct {
	db *gorm.DB
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return dbadapter.Conn(ctx, r.db)
}

// findPair returns the row of the unordered pair (a, b), or nil.
func (r *repository) findPair(ctx context.Context, a, b string, lock bool) (*model.Friendship, error) {
	q := r.conn(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var f model.Friendship
	err := q.Where("pair_key = ?", model.PairKey(a, b)).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// lockByID loads a friendship row for update, or nil.
func (r *repository) lockByID(ctx context.Context, id string) (*model.Friendship, error) {
	var f model.Friendship
	err := r.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// transition moves a pending row to status. It reports whether a row changed.
func (r *repository) transition(ctx context.Context, id string, status model.FriendshipStatus, updates map[string]any) (bool, error) {
	updates["status"] = status
	res := r.conn(ctx).Model(&model.Friendship{}).
		Where("id = ? AND status = ?", id, model.FriendshipPending).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) activeUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.conn(ctx).Where("id = ? AND is_active = ?", id, true).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// byUser returns the rows involving userID with one of statuses.
func (r *repository) byUser(ctx context.Context, userID string, statuses ...string) ([]model.Friendship, error) {
	var rows []model.Friendship
	err := r.conn(ctx).
		Where("(requester_id = ? OR addressee_id = ?) AND status IN ?", userID, userID, statuses).
		Find(&rows).Error
	return rows, err
}

// acceptedAmong returns accepted rows having at least one side in ids.
func (r *repository) acceptedAmong(ctx context.Context, ids []string) ([]model.Friendship, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []model.Friendship
	err := r.conn(ctx).
		Where("status = ? AND (requester_id IN ? OR addressee_id IN ?)", model.FriendshipAccepted, ids, ids).
		Find(&rows).Error
	return rows, err
}

func (r *repository) byPairKeys(ctx context.Context, keys []string) ([]model.Friendship, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var rows []model.Friendship
	err := r.conn(ctx).Where("pair_key IN ?", keys).Find(&rows).Error
	return rows, err
}

func profileQuery(q *gorm.DB) *gorm.DB {
	return q.Model(&model.User{}).
		Select("users.*, COALESCE(user_stats.total_xp, 0) AS total_xp, COALESCE(user_stats.level, 1) AS level, COALESCE(user_stats.user_rank, '') AS user_rank").
		Joins("LEFT JOIN user_stats ON user_stats.user_id = users.id")
}

// profiles loads active users with stats, keyed by id.
func (r *repository) profiles(ctx context.Context, ids []string) (map[string]*profile, error) {
	out := make(map[string]*profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []profile
	err := profileQuery(r.conn(ctx)).
		Where("users.id IN ? AND users.is_active = ?", ids, true).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

// rankedStrangers returns active, ranked users outside exclude, by XP.
func (r *repository) rankedStrangers(ctx context.Context, exclude []string, limit int) ([]profile, error) {
	var rows []profile
	err := profileQuery(r.conn(ctx)).
		Where("users.is_active = ? AND users.id NOT IN ?", true, exclude).
		Where("user_stats.user_rank IS NOT NULL AND user_stats.user_rank <> ''").
		Order("user_stats.total_xp DESC").
		Order("users.id").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// search matches display name, full name or email case-insensitively.
func (r *repository) search(ctx context.Context, query, callerID string, limit int) ([]profile, error) {
	pattern := dbadapter.ContainsPattern(query)
	like := "LIKE ? " + dbadapter.LikeEscape
	var rows []profile
	err := profileQuery(r.conn(ctx)).
		Where("users.is_active = ? AND users.id <> ?", true, callerID).
		Where("LOWER(users.display_name) "+like+" OR LOWER(users.full_name) "+like+" OR LOWER(users.email) "+like,
			pattern, pattern, pattern).
		Order("users.display_name").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// guildJoin is a membership row of a friend joined with the guild name.
type guildJoin struct {
	UserID    string
	GuildID   string
	GuildName string
	JoinedAt  time.Time
}

func (r *repository) guildJoins(ctx context.Context, userIDs []string, limit int) ([]guildJoin, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []guildJoin
	err := r.conn(ctx).Model(&model.GuildMembership{}).
		Select("guild_memberships.user_id, guild_memberships.guild_id, guilds.name AS guild_name, guild_memberships.joined_at").
		Joins("JOIN guilds ON guilds.id = guild_memberships.guild_id").
		Where("guild_memberships.user_id IN ? AND guilds.is_active = ?", userIDs, true).
		Order("guild_memberships.joined_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repository) recentAcceptances(ctx context.Context, userIDs []string, limit int) ([]model.Friendship, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var rows []model.Friendship
	err := r.conn(ctx).
		Where("status = ? AND accepted_at IS NOT NULL AND (requester_id IN ? OR addressee_id IN ?)",
			model.FriendshipAccepted, userIDs, userIDs).
		Order("accepted_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
