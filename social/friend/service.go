// Package friend implements the friendship lifecycle: requests, acceptance,
// removal, blocking, and the discovery views built on top of it
// (recommendations, search, activity feed).
package friend

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ReasonMutualFriends = "mutual_friends"
	ReasonSimilarRank   = "similar_rank"

	ActivityFriendAccepted = "friend_accepted"
	ActivityGuildJoined    = "guild_joined"
)

// Options tunes the read views.
type Options struct {
	OnlineWindow        time.Duration // default 5m
	RecommendationLimit int           // default 10
	SearchLimit         int           // default 20
	ActivityLimit       int           // default 20
}

func (o *Options) fill() {
	if o.OnlineWindow <= 0 {
		o.OnlineWindow = 5 * time.Minute
	}
	if o.RecommendationLimit <= 0 {
		o.RecommendationLimit = 10
	}
	if o.SearchLimit <= 0 {
		o.SearchLimit = 20
	}
	if o.ActivityLimit <= 0 {
		o.ActivityLimit = 20
	}
}

// Friend is an accepted friend with profile and online state.
type Friend struct {
	FriendshipID string     `json:"friendship_id"`
	UserID       string     `json:"user_id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	AvatarURL    string     `json:"avatar_url"`
	TotalXP      int64      `json:"total_xp"`
	Level        int        `json:"level"`
	Rank         string     `json:"rank"`
	IsOnline     bool       `json:"is_online"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	FriendsSince *time.Time `json:"friends_since"`
}

// Request is a pending friendship seen from one side.
type Request struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"` // the other party
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Recommendation is a suggested new friend.
type Recommendation struct {
	UserID        string `json:"user_id"`
	Username      string `json:"username"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url"`
	TotalXP       int64  `json:"total_xp"`
	Rank          string `json:"rank"`
	MutualFriends int    `json:"mutual_friends"`
	Reason        string `json:"reason"`
}

// SearchResult is a user hit annotated with the caller's relationship to it.
type SearchResult struct {
	UserID            string `json:"user_id"`
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	FullName          string `json:"full_name"`
	AvatarURL         string `json:"avatar_url"`
	TotalXP           int64  `json:"total_xp"`
	IsFriend          bool   `json:"is_friend"`
	HasPendingRequest bool   `json:"has_pending_request"`
}

// Activity is one entry of the friends feed.
type Activity struct {
	Type        string    `json:"type"`
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	TargetID    string    `json:"target_id"`
	TargetName  string    `json:"target_name"`
	At          time.Time `json:"at"`
}

// Service is the Friendship Engine.
type Service struct {
	db       *gorm.DB
	repo     *repository
	opts     Options
	notifier notification.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a friend Service. notifier may be nil.
func NewService(db *gorm.DB, opts Options, notifier notification.Notifier, logger *zap.Logger) *Service {
	opts.fill()
	return &Service{
		db:       db,
		repo:     &repository{db: db},
		opts:     opts,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// fail passes typed errors through and logs anything else as internal.
func (svc *Service) fail(op string, err error, fields ...zap.Field) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	svc.logger.Error("friend: "+op, append(fields, zap.Error(err))...)
	return apperr.Internal(err)
}

func (svc *Service) notify(ctx context.Context, userID, kind, title, message string, data any) {
	if svc.notifier != nil {
		svc.notifier.Notify(ctx, userID, kind, title, message, data)
	}
}

// ---- Lifecycle ----

// SendRequest creates a pending request from requesterID to addresseeID.
// A previously declined pair is reopened with the caller as requester.
func (svc *Service) SendRequest(ctx context.Context, requesterID, addresseeID string) (*model.Friendship, error) {
	if requesterID == addresseeID {
		return nil, apperr.Validation(apperr.CodeSelfRequest, "cannot send a friend request to yourself")
	}
	var (
		f         *model.Friendship
		requester *model.User
	)
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		addressee, err := svc.repo.activeUser(txCtx, addresseeID)
		if err != nil {
			return err
		}
		if addressee == nil {
			return apperr.NotFound(apperr.CodeUserNotFound, "user not found")
		}
		if requester, err = svc.repo.activeUser(txCtx, requesterID); err != nil {
			return err
		}
		if requester == nil {
			return apperr.NotFound(apperr.CodeUserNotFound, "user not found")
		}

		existing, err := svc.repo.findPair(txCtx, requesterID, addresseeID, true)
		if err != nil {
			return err
		}
		if existing != nil {
			switch existing.Status {
			case model.FriendshipAccepted:
				return apperr.Conflict(apperr.CodeAlreadyFriends, "already friends")
			case model.FriendshipPending:
				return apperr.Conflict(apperr.CodeRequestPending, "request already sent")
			case model.FriendshipBlocked:
				return apperr.Forbidden(apperr.CodeBlocked, "friendship is blocked")
			}
			existing.RequesterID, existing.AddresseeID = requesterID, addresseeID
			existing.Status = model.FriendshipPending
			existing.AcceptedAt = nil
			f = existing
			return tx.Model(existing).Select("requester_id", "addressee_id", "status", "accepted_at").Updates(existing).Error
		}

		f = &model.Friendship{RequesterID: requesterID, AddresseeID: addresseeID, Status: model.FriendshipPending}
		if err := tx.Create(f).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict(apperr.CodeRequestPending, "request already sent")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, svc.fail("send request", err, zap.String("requester_id", requesterID), zap.String("addressee_id", addresseeID))
	}
	svc.notify(ctx, addresseeID, model.NotifyFriendRequest, "New friend request",
		requester.DisplayName+" wants to be your friend", map[string]string{"friendship_id": f.ID, "user_id": requesterID})
	return f, nil
}

// AcceptRequest accepts a pending request addressed to callerID.
func (svc *Service) AcceptRequest(ctx context.Context, callerID, friendshipID string) (*model.Friendship, error) {
	now := svc.now()
	f, err := svc.respond(ctx, callerID, friendshipID, model.FriendshipAccepted, map[string]any{"accepted_at": now})
	if err != nil {
		return nil, err
	}
	f.AcceptedAt = &now
	svc.notify(ctx, f.RequesterID, model.NotifyFriendAccepted, "Friend request accepted",
		"Your friend request was accepted", map[string]string{"friendship_id": f.ID, "user_id": callerID})
	return f, nil
}

// DeclineRequest declines a pending request addressed to callerID.
func (svc *Service) DeclineRequest(ctx context.Context, callerID, friendshipID string) (*model.Friendship, error) {
	return svc.respond(ctx, callerID, friendshipID, model.FriendshipDeclined, map[string]any{})
}

// respond checks the caller is the addressee before applying the transition.
func (svc *Service) respond(ctx context.Context, callerID, friendshipID string, status model.FriendshipStatus, updates map[string]any) (*model.Friendship, error) {
	var f *model.Friendship
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		row, err := svc.repo.lockByID(txCtx, friendshipID)
		if err != nil {
			return err
		}
		if row == nil || row.Status != model.FriendshipPending {
			return apperr.NotFound(apperr.CodeFriendshipMissing, "friend request not found")
		}
		if row.AddresseeID != callerID {
			return apperr.Forbidden(apperr.CodeForbidden, "only the recipient can answer this request")
		}
		changed, err := svc.repo.transition(txCtx, friendshipID, status, updates)
		if err != nil {
			return err
		}
		if !changed {
			return apperr.NotFound(apperr.CodeFriendshipMissing, "friend request not found")
		}
		row.Status = status
		f = row
		return nil
	})
	if err != nil {
		return nil, svc.fail("respond", err, zap.String("friendship_id", friendshipID), zap.String("status", status))
	}
	return f, nil
}

// RemoveFriend deletes the accepted friendship between userID and otherID.
func (svc *Service) RemoveFriend(ctx context.Context, userID, otherID string) error {
	res := dbadapter.Conn(ctx, svc.db).
		Where("pair_key = ? AND status = ?", model.PairKey(userID, otherID), model.FriendshipAccepted).
		Delete(&model.Friendship{})
	if res.Error != nil {
		return svc.fail("remove", res.Error, zap.String("user_id", userID), zap.String("other_id", otherID))
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeFriendshipMissing, "friendship not found")
	}
	return nil
}

// BlockUser marks the pair blocked with userID as the blocking side,
// replacing any previous state of the pair.
func (svc *Service) BlockUser(ctx context.Context, userID, targetID string) (*model.Friendship, error) {
	if userID == targetID {
		return nil, apperr.Validation(apperr.CodeSelfRequest, "cannot block yourself")
	}
	var f *model.Friendship
	err := dbadapter.RunInTx(ctx, svc.db, func(tx *gorm.DB) error {
		txCtx := dbadapter.WithTx(ctx, tx)
		target, err := svc.repo.activeUser(txCtx, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			return apperr.NotFound(apperr.CodeUserNotFound, "user not found")
		}
		existing, err := svc.repo.findPair(txCtx, userID, targetID, true)
		if err != nil {
			return err
		}
		if existing == nil {
			f = &model.Friendship{RequesterID: userID, AddresseeID: targetID, Status: model.FriendshipBlocked}
			return tx.Create(f).Error
		}
		existing.RequesterID, existing.AddresseeID = userID, targetID
		existing.Status = model.FriendshipBlocked
		existing.AcceptedAt = nil
		f = existing
		return tx.Model(existing).Select("requester_id", "addressee_id", "status", "accepted_at").Updates(existing).Error
	})
	if err != nil {
		return nil, svc.fail("block", err, zap.String("user_id", userID), zap.String("target_id", targetID))
	}
	return f, nil
}

// UnblockUser removes a block userID placed on targetID.
func (svc *Service) UnblockUser(ctx context.Context, userID, targetID string) error {
	res := dbadapter.Conn(ctx, svc.db).
		Where("pair_key = ? AND status = ? AND requester_id = ?", model.PairKey(userID, targetID), model.FriendshipBlocked, userID).
		Delete(&model.Friendship{})
	if res.Error != nil {
		return svc.fail("unblock", res.Error, zap.String("user_id", userID), zap.String("target_id", targetID))
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(apperr.CodeFriendshipMissing, "block not found")
	}
	return nil
}

// ---- Views ----

// ListFriends returns accepted friends ordered by display name.
func (svc *Service) ListFriends(ctx context.Context, userID string) ([]Friend, error) {
	rows, err := svc.repo.byUser(ctx, userID, model.FriendshipAccepted)
	if err != nil {
		return nil, svc.fail("list friends", err, zap.String("user_id", userID))
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].OtherParty(userID)
	}
	profiles, err := svc.repo.profiles(ctx, ids)
	if err != nil {
		return nil, svc.fail("list friends", err, zap.String("user_id", userID))
	}

	now := svc.now()
	friends := make([]Friend, 0, len(rows))
	for i := range rows {
		p, ok := profiles[ids[i]]
		if !ok {
			continue
		}
		friends = append(friends, Friend{
			FriendshipID: rows[i].ID,
			UserID:       p.ID,
			Username:     p.Username,
			DisplayName:  p.DisplayName,
			AvatarURL:    p.AvatarURL,
			TotalXP:      p.TotalXP,
			Level:        p.Level,
			Rank:         p.Rank,
			IsOnline:     p.IsOnline(now, svc.opts.OnlineWindow),
			LastLoginAt:  p.LastLoginAt,
			FriendsSince: rows[i].AcceptedAt,
		})
	}
	sort.SliceStable(friends, func(i, j int) bool {
		return strings.ToLower(friends[i].DisplayName) < strings.ToLower(friends[j].DisplayName)
	})
	return friends, nil
}

// ListOnlineFriends returns friends seen within the online window, most
// recent login first.
func (svc *Service) ListOnlineFriends(ctx context.Context, userID string) ([]Friend, error) {
	all, err := svc.ListFriends(ctx, userID)
	if err != nil {
		return nil, err
	}
	online := make([]Friend, 0, len(all))
	for _, f := range all {
		if f.IsOnline {
			online = append(online, f)
		}
	}
	sort.SliceStable(online, func(i, j int) bool {
		return online[i].LastLoginAt.After(*online[j].LastLoginAt)
	})
	return online, nil
}

// ListPending returns requests waiting for userID to answer.
func (svc *Service) ListPending(ctx context.Context, userID string) ([]Request, error) {
	return svc.listRequests(ctx, userID, true)
}

// ListSent returns requests userID sent that are still pending.
func (svc *Service) ListSent(ctx context.Context, userID string) ([]Request, error) {
	return svc.listRequests(ctx, userID, false)
}

func (svc *Service) listRequests(ctx context.Context, userID string, incoming bool) ([]Request, error) {
	column := "requester_id"
	if incoming {
		column = "addressee_id"
	}
	var rows []model.Friendship
	err := dbadapter.Conn(ctx, svc.db).
		Where(column+" = ? AND status = ?", userID, model.FriendshipPending).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, svc.fail("list requests", err, zap.String("user_id", userID))
	}
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].OtherParty(userID)
	}
	profiles, err := svc.repo.profiles(ctx, ids)
	if err != nil {
		return nil, svc.fail("list requests", err, zap.String("user_id", userID))
	}
	out := make([]Request, 0, len(rows))
	for i := range rows {
		p, ok := profiles[ids[i]]
		if !ok {
			continue
		}
		out = append(out, Request{
			ID:          rows[i].ID,
			UserID:      p.ID,
			Username:    p.Username,
			DisplayName: p.DisplayName,
			AvatarURL:   p.AvatarURL,
			CreatedAt:   rows[i].CreatedAt,
		})
	}
	return out, nil
}

// Recommend suggests users who share friends with userID or hold a rank,
// ranked by mutual friend count then total XP.
func (svc *Service) Recommend(ctx context.Context, userID string, limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = svc.opts.RecommendationLimit
	}
	related, err := svc.repo.byUser(ctx, userID,
		model.FriendshipPending, model.FriendshipAccepted, model.FriendshipDeclined, model.FriendshipBlocked)
	if err != nil {
		return nil, svc.fail("recommend", err, zap.String("user_id", userID))
	}
	excluded := map[string]bool{userID: true}
	var friendIDs []string
	friendSet := make(map[string]bool)
	for i := range related {
		other := related[i].OtherParty(userID)
		excluded[other] = true
		if related[i].Status == model.FriendshipAccepted {
			friendIDs = append(friendIDs, other)
			friendSet[other] = true
		}
	}

	edges, err := svc.repo.acceptedAmong(ctx, friendIDs)
	if err != nil {
		return nil, svc.fail("recommend", err, zap.String("user_id", userID))
	}
	mutual := make(map[string]int)
	for i := range edges {
		a, b := edges[i].RequesterID, edges[i].AddresseeID
		if friendSet[a] && !excluded[b] {
			mutual[b]++
		}
		if friendSet[b] && !excluded[a] {
			mutual[a]++
		}
	}

	candidateIDs := make([]string, 0, len(mutual))
	for id := range mutual {
		candidateIDs = append(candidateIDs, id)
	}
	profiles, err := svc.repo.profiles(ctx, candidateIDs)
	if err != nil {
		return nil, svc.fail("recommend", err, zap.String("user_id", userID))
	}

	exclude := make([]string, 0, len(excluded))
	for id := range excluded {
		exclude = append(exclude, id)
	}
	ranked, err := svc.repo.rankedStrangers(ctx, exclude, limit)
	if err != nil {
		return nil, svc.fail("recommend", err, zap.String("user_id", userID))
	}
	for i := range ranked {
		if _, ok := profiles[ranked[i].ID]; !ok {
			profiles[ranked[i].ID] = &ranked[i]
		}
	}

	recs := make([]Recommendation, 0, len(profiles))
	for id, p := range profiles {
		m := mutual[id]
		reason := ReasonSimilarRank
		if m > 0 {
			reason = ReasonMutualFriends
		} else if p.Rank == "" {
			continue
		}
		recs = append(recs, Recommendation{
			UserID:        id,
			Username:      p.Username,
			DisplayName:   p.DisplayName,
			AvatarURL:     p.AvatarURL,
			TotalXP:       p.TotalXP,
			Rank:          p.Rank,
			MutualFriends: m,
			Reason:        reason,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].MutualFriends != recs[j].MutualFriends {
			return recs[i].MutualFriends > recs[j].MutualFriends
		}
		if recs[i].TotalXP != recs[j].TotalXP {
			return recs[i].TotalXP > recs[j].TotalXP
		}
		return recs[i].UserID < recs[j].UserID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// SearchUsers finds active users other than the caller whose display name,
// full name or email contains query.
func (svc *Service) SearchUsers(ctx context.Context, query, callerID string, limit int) ([]SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if len([]rune(query)) < 2 {
		return nil, apperr.Validation(apperr.CodeValidation, "search query must be at least 2 characters")
	}
	if limit <= 0 || limit > 50 {
		limit = svc.opts.SearchLimit
	}
	hits, err := svc.repo.search(ctx, query, callerID, limit)
	if err != nil {
		return nil, svc.fail("search", err, zap.String("user_id", callerID))
	}
	keys := make([]string, len(hits))
	for i := range hits {
		keys[i] = model.PairKey(callerID, hits[i].ID)
	}
	rows, err := svc.repo.byPairKeys(ctx, keys)
	if err != nil {
		return nil, svc.fail("search", err, zap.String("user_id", callerID))
	}
	status := make(map[string]string, len(rows))
	for i := range rows {
		status[rows[i].OtherParty(callerID)] = rows[i].Status
	}

	out := make([]SearchResult, len(hits))
	for i, h := range hits {
		out[i] = SearchResult{
			UserID:            h.ID,
			Username:          h.Username,
			DisplayName:       h.DisplayName,
			FullName:          h.FullName,
			AvatarURL:         h.AvatarURL,
			TotalXP:           h.TotalXP,
			IsFriend:          status[h.ID] == model.FriendshipAccepted,
			HasPendingRequest: status[h.ID] == model.FriendshipPending,
		}
	}
	return out, nil
}

// Activities returns the recent friendships and guild joins of userID's
// friends, newest first.
func (svc *Service) Activities(ctx context.Context, userID string, limit int) ([]Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = svc.opts.ActivityLimit
	}
	rows, err := svc.repo.byUser(ctx, userID, model.FriendshipAccepted)
	if err != nil {
		return nil, svc.fail("activities", err, zap.String("user_id", userID))
	}
	friendIDs := make([]string, len(rows))
	friendSet := make(map[string]bool, len(rows))
	for i := range rows {
		friendIDs[i] = rows[i].OtherParty(userID)
		friendSet[friendIDs[i]] = true
	}

	accepted, err := svc.repo.recentAcceptances(ctx, friendIDs, limit)
	if err != nil {
		return nil, svc.fail("activities", err, zap.String("user_id", userID))
	}
	joins, err := svc.repo.guildJoins(ctx, friendIDs, limit)
	if err != nil {
		return nil, svc.fail("activities", err, zap.String("user_id", userID))
	}

	nameIDs := append([]string{}, friendIDs...)
	for i := range accepted {
		nameIDs = append(nameIDs, accepted[i].RequesterID, accepted[i].AddresseeID)
	}
	profiles, err := svc.repo.profiles(ctx, nameIDs)
	if err != nil {
		return nil, svc.fail("activities", err, zap.String("user_id", userID))
	}
	name := func(id string) string {
		if p, ok := profiles[id]; ok {
			return p.DisplayName
		}
		return ""
	}

	feed := make([]Activity, 0, len(accepted)+len(joins))
	for i := range accepted {
		actor, target := accepted[i].RequesterID, accepted[i].AddresseeID
		if !friendSet[actor] {
			actor, target = target, actor
		}
		feed = append(feed, Activity{
			Type:        ActivityFriendAccepted,
			UserID:      actor,
			DisplayName: name(actor),
			TargetID:    target,
			TargetName:  name(target),
			At:          *accepted[i].AcceptedAt,
		})
	}
	for _, j := range joins {
		feed = append(feed, Activity{
			Type:        ActivityGuildJoined,
			UserID:      j.UserID,
			DisplayName: name(j.UserID),
			TargetID:    j.GuildID,
			TargetName:  j.GuildName,
			At:          j.JoinedAt,
		})
	}
	sort.SliceStable(feed, func(i, j int) bool { return feed[i].At.After(feed[j].At) })
	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed, nil
}
