package guild

import (
	"context"
	"strings"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"go.uber.org/zap"
)

var challengeTypes = map[string]bool{
	model.ChallengeXPGoal:            true,
	model.ChallengeModulesCompletion: true,
	model.ChallengeAchievementHunt:   true,
	model.ChallengeCustom:            true,
}

// ChallengeInput describes a new guild challenge.
type ChallengeInput struct {
	Title       string
	Description string
	Type        string
	TargetValue int64
	RewardXP    int64
	RewardCoins int64
	StartDate   time.Time
	EndDate     time.Time
}

func (in *ChallengeInput) validate(now time.Time) error {
	in.Title = strings.TrimSpace(in.Title)
	switch {
	case in.Title == "":
		return apperr.Validation(apperr.CodeValidation, "title is required")
	case !challengeTypes[in.Type]:
		return apperr.Validation(apperr.CodeValidation, "unknown challenge type")
	case in.TargetValue <= 0:
		return apperr.Validation(apperr.CodeValidation, "target value must be positive")
	case in.RewardXP < 0 || in.RewardCoins < 0:
		return apperr.Validation(apperr.CodeValidation, "rewards cannot be negative")
	case !in.EndDate.After(in.StartDate):
		return apperr.Validation(apperr.CodeValidation, "end date must be after start date")
	case !in.EndDate.After(now):
		return apperr.Validation(apperr.CodeValidation, "end date must be in the future")
	}
	return nil
}

// CreateChallenge adds a challenge to the guild. Only the owner or an admin
// may call it.
func (svc *Service) CreateChallenge(ctx context.Context, guildID, actorID string, in ChallengeInput) (*model.GuildChallenge, error) {
	if err := in.validate(svc.now()); err != nil {
		return nil, err
	}
	g, err := svc.repo.guild(ctx, guildID, false)
	if err != nil {
		return nil, svc.fail("create challenge", err, zap.String("guild_id", guildID))
	}
	if g == nil {
		return nil, errGuildNotFound
	}
	actor, err := svc.repo.membership(ctx, guildID, actorID)
	if err != nil {
		return nil, svc.fail("create challenge", err, zap.String("guild_id", guildID))
	}
	if actor == nil || !actor.CanManageMembers() {
		return nil, apperr.Forbidden(apperr.CodeForbidden, "only the owner or an admin can create challenges")
	}

	ch := &model.GuildChallenge{
		GuildID:     guildID,
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		TargetValue: in.TargetValue,
		RewardXP:    in.RewardXP,
		RewardCoins: in.RewardCoins,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		IsActive:    true,
		CreatedBy:   actorID,
	}
	if err := dbadapter.Conn(ctx, svc.db).Create(ch).Error; err != nil {
		return nil, svc.fail("create challenge", err, zap.String("guild_id", guildID))
	}
	svc.record(ctx, actorID, "guild.challenge", guildID, map[string]string{"challenge_id": ch.ID, "type": ch.Type})
	return ch, nil
}

// ListChallenges returns the guild's challenges, latest ending first.
func (svc *Service) ListChallenges(ctx context.Context, guildID string, activeOnly bool) ([]model.GuildChallenge, error) {
	g, err := svc.repo.guild(ctx, guildID, false)
	if err != nil {
		return nil, svc.fail("list challenges", err, zap.String("guild_id", guildID))
	}
	if g == nil {
		return nil, errGuildNotFound
	}
	q := dbadapter.Conn(ctx, svc.db).Where("guild_id = ?", guildID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var out []model.GuildChallenge
	if err := q.Order("end_date DESC").Find(&out).Error; err != nil {
		return nil, svc.fail("list challenges", err, zap.String("guild_id", guildID))
	}
	return out, nil
}

// SweepResult counts the challenges a sweep closed.
type SweepResult struct {
	Completed int64
	Expired   int64
}

// SweepChallenges closes active challenges: those that reached their target
// become completed, those past their end date become inactive.
func (svc *Service) SweepChallenges(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := svc.now()
	conn := dbadapter.Conn(ctx, svc.db)

	done := conn.Model(&model.GuildChallenge{}).
		Where("is_active = ? AND is_completed = ? AND current_value >= target_value", true, false).
		Updates(map[string]any{"is_completed": true, "is_active": false})
	if done.Error != nil {
		return res, svc.fail("sweep challenges", done.Error)
	}
	res.Completed = done.RowsAffected

	expired := conn.Model(&model.GuildChallenge{}).
		Where("is_active = ? AND end_date < ?", true, now).
		Update("is_active", false)
	if expired.Error != nil {
		return res, svc.fail("sweep challenges", expired.Error)
	}
	res.Expired = expired.RowsAffected

	if res.Completed+res.Expired > 0 {
		svc.logger.Info("guild challenges swept",
			zap.Int64("completed", res.Completed), zap.Int64("expired", res.Expired))
	}
	return res, nil
}
