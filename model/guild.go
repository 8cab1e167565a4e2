package model

import "time"

// Membership roles.
const (
	GuildRoleOwner  = "owner"
	GuildRoleAdmin  = "admin"
	GuildRoleMember = "member"
)

// Membership statuses. Left and kicked are terminal for the row.
const (
	MemberActive   = "active"
	MemberInactive = "inactive"
	MemberKicked   = "kicked"
	MemberLeft     = "left"
)

// GuildState is the lifecycle state of a guild.
type GuildState int

const (
	GuildActive GuildState = iota
	GuildDeleted
)

// Guild is a group of students. CurrentMembersCount mirrors the number of
// active memberships and is maintained by the guild service.
type Guild struct {
	Base
	Name                string     `gorm:"size:50;not null;index" json:"name"`
	Description         string     `gorm:"type:text" json:"description"`
	Motto               string     `gorm:"size:200" json:"motto"`
	ColorPrimary        string     `gorm:"size:7" json:"color_primary"`
	ColorSecondary      string     `gorm:"size:7" json:"color_secondary"`
	AvatarURL           string     `gorm:"size:255" json:"avatar_url"`
	BannerURL           string     `gorm:"size:255" json:"banner_url"`
	CreatorID           string     `gorm:"size:36;not null" json:"creator_id"`
	LeaderID            string     `gorm:"size:36;not null;index" json:"leader_id"`
	TenantID            *string    `gorm:"size:36;index" json:"tenant_id"`
	MaxMembers          int        `gorm:"not null" json:"max_members"`
	CurrentMembersCount int        `gorm:"not null;default:0" json:"current_members_count"`
	IsPublic            bool       `gorm:"not null" json:"is_public"`
	AllowJoinRequests   bool       `gorm:"not null" json:"allow_join_requests"`
	RequireApproval     bool       `gorm:"not null" json:"require_approval"`
	TotalXP             int64      `gorm:"not null;default:0;index" json:"total_xp"`
	TotalCoins          int64      `gorm:"not null;default:0" json:"total_coins"`
	ModulesCompleted    int        `gorm:"not null;default:0" json:"modules_completed"`
	AchievementsEarned  int        `gorm:"not null;default:0" json:"achievements_earned"`
	IsActive            bool       `gorm:"not null;index" json:"is_active"`
	JoinCode            string     `gorm:"size:12;not null;uniqueIndex" json:"join_code"`
	LastActivityAt      *time.Time `json:"last_activity_at"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// State maps the soft-delete flag to a GuildState.
func (g *Guild) State() GuildState {
	if g.IsActive {
		return GuildActive
	}
	return GuildDeleted
}

// IsFull reports whether no further member can join.
func (g *Guild) IsFull() bool {
	return g.CurrentMembersCount >= g.MaxMembers
}

// GuildMembership links a user to a guild. A user re-joining a guild gets a
// fresh row; terminal rows are kept for history.
type GuildMembership struct {
	Base
	GuildID           string     `gorm:"size:36;not null;index:idx_membership_guild_user" json:"guild_id"`
	UserID            string     `gorm:"size:36;not null;index:idx_membership_guild_user;index" json:"user_id"`
	Role              string     `gorm:"size:16;not null" json:"role"`
	Status            string     `gorm:"size:16;not null;index" json:"status"`
	JoinedAt          time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt            *time.Time `json:"left_at"`
	KickedAt          *time.Time `json:"kicked_at"`
	KickReason        string     `gorm:"size:255" json:"kick_reason"`
	ContributionXP    int64      `gorm:"not null;default:0" json:"contribution_xp"`
	ContributionCoins int64      `gorm:"not null;default:0" json:"contribution_coins"`

	Guild *Guild `gorm:"foreignKey:GuildID" json:"-"`
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// CanManageMembers reports whether the role may remove members and create challenges.
func (m *GuildMembership) CanManageMembers() bool {
	return m.Role == GuildRoleOwner || m.Role == GuildRoleAdmin
}

// Challenge types.
const (
	ChallengeXPGoal            = "xp_goal"
	ChallengeModulesCompletion = "modules_completion"
	ChallengeAchievementHunt   = "achievement_hunt"
	ChallengeCustom            = "custom"
)

// GuildChallenge is a goal the guild works on together.
type GuildChallenge struct {
	Base
	GuildID      string    `gorm:"size:36;not null;index" json:"guild_id"`
	Title        string    `gorm:"size:100;not null" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Type         string    `gorm:"size:32;not null" json:"type"`
	TargetValue  int64     `gorm:"not null" json:"target_value"`
	CurrentValue int64     `gorm:"not null;default:0" json:"current_value"`
	RewardXP     int64     `gorm:"not null;default:0" json:"reward_xp"`
	RewardCoins  int64     `gorm:"not null;default:0" json:"reward_coins"`
	StartDate    time.Time `gorm:"not null" json:"start_date"`
	EndDate      time.Time `gorm:"not null;index" json:"end_date"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	IsCompleted  bool      `gorm:"not null" json:"is_completed"`
	CreatedBy    string    `gorm:"size:36;not null" json:"created_by"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`

	Guild *Guild `gorm:"foreignKey:GuildID" json:"-"`
}
