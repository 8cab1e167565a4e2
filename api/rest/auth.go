package rest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	"github.com/rckrdmrd/glit-backend-sub002/cache"
	"github.com/rckrdmrd/glit-backend-sub002/config"
	mw "github.com/rckrdmrd/glit-backend-sub002/middleware"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles registration and login sessions.
type AuthHandler struct {
	db         *gorm.DB
	cache      cache.Cache
	sec        config.SecurityConfig
	logger     *zap.Logger
	bcryptCost int
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec, logger: logger, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the password hashing cost.
func (h *AuthHandler) WithBcryptCost(cost int) *AuthHandler {
	h.bcryptCost = cost
	return h
}

type registerRequest struct {
	Email       string `json:"email"       binding:"required,email,max=128"`
	Username    string `json:"username"    binding:"required,min=3,max=32"`
	Password    string `json:"password"    binding:"required,min=8,max=72"`
	DisplayName string `json:"displayName" binding:"max=64"`
	FullName    string `json:"fullName"    binding:"max=128"`
	Role        string `json:"role"        binding:"omitempty,oneof=student teacher"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		fail(c, apperr.Internal(err))
		return
	}
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	display := strings.TrimSpace(req.DisplayName)
	if display == "" {
		display = req.Username
	}
	u := &model.User{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		DisplayName:  display,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
		IsActive:     true,
	}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return tx.Create(&model.UserStats{UserID: u.ID, Level: 1}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		fail(c, apperr.Conflict(apperr.CodeAccountExists, "email or username already registered"))
		return
	}
	if err != nil {
		h.logger.Error("register failed", zap.String("email", u.Email), zap.Error(err))
		fail(c, apperr.Internal(err))
		return
	}
	created(c, u)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	var u model.User
	err := h.db.WithContext(c.Request.Context()).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, apperr.New(apperr.KindUnauthorized, apperr.CodeInvalidCredentials, "invalid credentials"))
		return
	}
	if err != nil {
		fail(c, apperr.Internal(err))
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		fail(c, apperr.New(apperr.KindUnauthorized, apperr.CodeInvalidCredentials, "invalid credentials"))
		return
	}
	if !u.IsActive {
		fail(c, apperr.Forbidden(apperr.CodeAccountDisabled, "account disabled"))
		return
	}

	token, err := mw.GenerateToken(u.ID, u.Role, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		fail(c, apperr.Internal(err))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, mw.SessionKey(token), u.ID, h.sec.JWTTTLH); err != nil {
		h.logger.Error("session store failed", zap.String("user_id", u.ID), zap.Error(err))
		fail(c, apperr.Internal(err))
		return
	}

	// last_login_at drives the online view; a failed update only costs freshness.
	now := time.Now()
	if err := h.db.WithContext(c.Request.Context()).Model(&u).Update("last_login_at", now).Error; err != nil {
		h.logger.Warn("last login update failed", zap.String("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLoginAt = &now
	}
	ok(c, gin.H{"token": token, "user": u})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Del(ctx, mw.SessionKey(mw.GetToken(c))); err != nil {
		h.logger.Error("session delete failed", zap.String("user_id", mw.GetUserID(c)), zap.Error(err))
		fail(c, apperr.Internal(err))
		return
	}
	ok(c, gin.H{"message": "logged out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	var u model.User
	err := h.db.WithContext(c.Request.Context()).Where("id = ?", mw.GetUserID(c)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, apperr.NotFound(apperr.CodeUserNotFound, "user not found"))
		return
	}
	if err != nil {
		fail(c, apperr.Internal(err))
		return
	}
	ok(c, u)
}
