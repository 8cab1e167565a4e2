package rest

import (
	"github.com/gin-gonic/gin"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/social/friend"
)

// FriendHandler exposes the friendship engine.
type FriendHandler struct {
	svc *friend.Service
}

// NewFriendHandler creates a new FriendHandler.
func NewFriendHandler(svc *friend.Service) *FriendHandler {
	return &FriendHandler{svc: svc}
}

type friendRequest struct {
	AddresseeID string `json:"addresseeId" binding:"required,uuid"`
}

// List handles GET /api/friends.
func (h *FriendHandler) List(c *gin.Context) {
	out, err := h.svc.ListFriends(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Online handles GET /api/friends/online.
func (h *FriendHandler) Online(c *gin.Context) {
	out, err := h.svc.ListOnlineFriends(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Pending handles GET /api/friends/pending.
func (h *FriendHandler) Pending(c *gin.Context) {
	out, err := h.svc.ListPending(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Sent handles GET /api/friends/sent.
func (h *FriendHandler) Sent(c *gin.Context) {
	out, err := h.svc.ListSent(c.Request.Context(), mw.GetUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// SendRequest handles POST /api/friends/request.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req friendRequest
	if !bind(c, &req) {
		return
	}
	f, err := h.svc.SendRequest(c.Request.Context(), mw.GetUserID(c), req.AddresseeID)
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("friend", "request")
	created(c, f)
}

// Accept handles POST /api/friends/:id/accept, id being the friendship.
func (h *FriendHandler) Accept(c *gin.Context) {
	f, err := h.svc.AcceptRequest(c.Request.Context(), mw.GetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("friend", "accept")
	ok(c, f)
}

// Decline handles POST /api/friends/:id/decline, id being the friendship.
func (h *FriendHandler) Decline(c *gin.Context) {
	f, err := h.svc.DeclineRequest(c.Request.Context(), mw.GetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("friend", "decline")
	ok(c, f)
}

// Remove handles DELETE /api/friends/:id, id being the friend's user id.
func (h *FriendHandler) Remove(c *gin.Context) {
	if err := h.svc.RemoveFriend(c.Request.Context(), mw.GetUserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("friend", "remove")
	ok(c, gin.H{"message": "friend removed"})
}

// Block handles POST /api/friends/:id/block, id being the user to block.
func (h *FriendHandler) Block(c *gin.Context) {
	f, err := h.svc.BlockUser(c.Request.Context(), mw.GetUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	mw.RecordEvent("friend", "block")
	ok(c, f)
}

// Unblock handles DELETE /api/friends/:id/block.
func (h *FriendHandler) Unblock(c *gin.Context) {
	if err := h.svc.UnblockUser(c.Request.Context(), mw.GetUserID(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": "user unblocked"})
}

// Recommendations handles GET /api/friends/recommendations?limit=.
func (h *FriendHandler) Recommendations(c *gin.Context) {
	out, err := h.svc.Recommend(c.Request.Context(), mw.GetUserID(c), queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Search handles GET /api/friends/search?q=&limit=.
func (h *FriendHandler) Search(c *gin.Context) {
	out, err := h.svc.SearchUsers(c.Request.Context(), c.Query("q"), mw.GetUserID(c), queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}

// Activities handles GET /api/friends/activities?limit=.
func (h *FriendHandler) Activities(c *gin.Context) {
	out, err := h.svc.Activities(c.Request.Context(), mw.GetUserID(c), queryInt(c, "limit", 0))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, out)
}
