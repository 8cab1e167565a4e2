package rest

import (
	"github.com/gin-gonic/gin"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/model"
)

// Handlers groups every REST handler mounted under /api.
type Handlers struct {
	Auth          *AuthHandler
	Friends       *FriendHandler
	Guilds        *GuildHandler
	Teacher       *TeacherHandler
	Notifications *NotificationHandler
}

// RegisterRoutes mounts the API on api. auth must populate the caller
// identity; it guards every route except registration, login and the public
// guild views.
func RegisterRoutes(api *gin.RouterGroup, h Handlers, auth gin.HandlerFunc) {
	RegisterValidators()

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	api.GET("/guilds", h.Guilds.ListPublic)
	api.GET("/guilds/search", h.Guilds.Search)
	api.GET("/guilds/leaderboard", h.Guilds.Leaderboard)
	api.GET("/guilds/user/:userId", h.Guilds.UserGuilds)
	api.GET("/guilds/:id", h.Guilds.Detail)
	api.GET("/guilds/:id/members", h.Guilds.Members)
	api.GET("/guilds/:id/challenges", h.Guilds.Challenges)

	authed := api.Group("", auth)
	authed.POST("/auth/logout", h.Auth.Logout)
	authed.GET("/auth/me", h.Auth.Me)

	friends := authed.Group("/friends")
	friends.GET("", h.Friends.List)
	friends.GET("/online", h.Friends.Online)
	friends.GET("/pending", h.Friends.Pending)
	friends.GET("/sent", h.Friends.Sent)
	friends.GET("/recommendations", h.Friends.Recommendations)
	friends.GET("/search", h.Friends.Search)
	friends.GET("/activities", h.Friends.Activities)
	friends.POST("/request", h.Friends.SendRequest)
	friends.POST("/:id/accept", h.Friends.Accept)
	friends.POST("/:id/decline", h.Friends.Decline)
	friends.DELETE("/:id", h.Friends.Remove)
	friends.POST("/:id/block", h.Friends.Block)
	friends.DELETE("/:id/block", h.Friends.Unblock)

	guilds := authed.Group("/guilds")
	guilds.POST("", h.Guilds.Create)
	guilds.POST("/join-by-code", h.Guilds.JoinByCode)
	guilds.PUT("/:id", h.Guilds.Update)
	guilds.DELETE("/:id", h.Guilds.Delete)
	guilds.POST("/:id/join", h.Guilds.Join)
	guilds.POST("/:id/leave", h.Guilds.Leave)
	guilds.POST("/:id/transfer", h.Guilds.Transfer)
	guilds.POST("/:id/challenges", h.Guilds.CreateChallenge)
	guilds.DELETE("/:id/members/:memberId", h.Guilds.RemoveMember)
	guilds.PATCH("/:id/members/:memberId/role", h.Guilds.UpdateRole)

	admin := authed.Group("/admin", mw.RequireRole(model.RoleAdmin))
	admin.GET("/guilds", h.Guilds.ListAll)

	teacher := authed.Group("/teacher", mw.RequireRole(model.RoleTeacher, model.RoleAdmin))
	teacher.POST("/classrooms", h.Teacher.CreateClassroom)
	teacher.GET("/classrooms", h.Teacher.ListClassrooms)
	teacher.POST("/classrooms/:id/students", h.Teacher.AddStudents)
	teacher.GET("/classrooms/:id/students", h.Teacher.ListStudents)
	teacher.DELETE("/classrooms/:id/students/:studentId", h.Teacher.RemoveStudent)
	teacher.POST("/assignments", h.Teacher.CreateAssignment)
	teacher.GET("/assignments", h.Teacher.ListAssignments)
	teacher.GET("/assignments/:id", h.Teacher.GetAssignment)
	teacher.DELETE("/assignments/:id", h.Teacher.DeleteAssignment)
	teacher.POST("/assignments/:id/publish", h.Teacher.Publish)
	teacher.POST("/assignments/:id/assign", h.Teacher.Assign)
	teacher.GET("/assignments/:id/submissions", h.Teacher.Submissions)
	teacher.POST("/assignments/:id/submissions/:submissionId/grade", h.Teacher.Grade)

	authed.GET("/assignments", h.Teacher.MyAssignments)
	authed.POST("/assignments/submissions/:submissionId/submit", h.Teacher.Submit)

	notes := authed.Group("/notifications")
	notes.GET("", h.Notifications.List)
	notes.GET("/unread-count", h.Notifications.UnreadCount)
	notes.POST("/read-all", h.Notifications.MarkAllRead)
	notes.POST("/:id/read", h.Notifications.MarkRead)
}
