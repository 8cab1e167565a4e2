package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rckrdmrd/glit-backend-sub002/api/rest"
	"github.com/rckrdmrd/glit-backend-sub002/cache"
	"github.com/rckrdmrd/glit-backend-sub002/config"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"github.com/rckrdmrd/glit-backend-sub002/notification"
	"github.com/rckrdmrd/glit-backend-sub002/social/friend"
	"github.com/rckrdmrd/glit-backend-sub002/social/guild"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/assignment"
	"github.com/rckrdmrd/glit-backend-sub002/teacher/classroom"
	"github.com/rckrdmrd/glit-backend-sub002/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testSec = config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: time.Hour}

type server struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	cache  cache.Cache
}

func newServer(t *testing.T) *server {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c, _ := testutil.SetupTestCache(t)
	log := zap.NewNop()

	notes := notification.NewService(db, log)
	classrooms := classroom.NewService(db, log)
	h := rest.Handlers{
		Auth:          rest.NewAuthHandler(db, c, testSec, log).WithBcryptCost(bcrypt.MinCost),
		Friends:       rest.NewFriendHandler(friend.NewService(db, friend.Options{}, notes, log)),
		Guilds:        rest.NewGuildHandler(guild.NewService(db, guild.Options{}, notes, nil, log)),
		Teacher:       rest.NewTeacherHandler(classrooms, assignment.NewService(db, classrooms, notes, nil, log)),
		Notifications: rest.NewNotificationHandler(notes),
	}
	r := gin.New()
	r.Use(mw.TraceID())
	rest.RegisterRoutes(r.Group("/api"), h, mw.Auth(testSec, c))
	return &server{t: t, router: r, db: db, cache: c}
}

// login issues a live session for u without going through the password flow.
func (s *server) login(u *model.User) string {
	s.t.Helper()
	token, err := mw.GenerateToken(u.ID, u.Role, testSec.JWTSecret, testSec.JWTTTLH)
	require.NoError(s.t, err)
	require.NoError(s.t, s.cache.Set(context.Background(), mw.SessionKey(token), u.ID, testSec.JWTTTLH))
	return token
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type result struct {
	Code int
	env  envelope
	t    *testing.T
}

func (r *result) ErrorCode() string {
	if r.env.Error == nil {
		return ""
	}
	return r.env.Error.Code
}

func (r *result) Decode(dst any) {
	r.t.Helper()
	require.True(r.t, r.env.Success, "expected success envelope, got %+v", r.env.Error)
	require.NoError(r.t, json.Unmarshal(r.env.Data, dst))
}

func (s *server) do(method, path, token string, body any) *result {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	res := &result{Code: w.Code, t: s.t}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &res.env), "body: %s", w.Body.String())
	return res
}
