package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler serves register and login.
type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	TokenTTL  time.Duration
}

func NewAuthHandler(db *gorm.DB, jwtSecret string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		DB:        db,
		JWTSecret: jwtSecret,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
	}
}

type registerReq struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	DisplayName     string `json:"display_name" binding:"max=64"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	usernameRe := regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)
	if !usernameRe.MatchString(req.Username) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "username must be 3-20 letters, digits or underscores")
		return
	}

	if !isStrongPassword(req.Password) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "password must be 8-32 characters with upper, lower and digit")
		return
	}

	if req.Password != req.ConfirmPassword {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "passwords do not match")
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).
		Where("LOWER(username) = LOWER(?)", req.Username).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user failed")
		return
	}
	if count > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "username already taken")
		return
	}

	const bcryptCost = 12
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "hash password failed")
		return
	}

	user := models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		DisplayName:  req.DisplayName,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create user failed")
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
		},
	})
}

// 8-32 characters with at least one upper, one lower and one digit
func isStrongPassword(pwd string) bool {
	if len(pwd) < 8 || len(pwd) > 32 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range pwd {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	var user models.User
	if err := h.DB.Where("LOWER(username) = LOWER(?)", req.Username).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong username or password")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query user failed")
		}
		return
	}

	now := time.Now()

	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account locked, try again later")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		// five failures lock the account for ten minutes
		user.FailedLoginAttempts++
		if user.FailedLoginAttempts >= 5 {
			lockUntil := now.Add(10 * time.Minute)
			user.LockedUntil = &lockUntil
			user.FailedLoginAttempts = 0
		}
		_ = h.DB.Save(&user).Error
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong username or password")
		return
	}

	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginIP = c.ClientIP()
	user.LastLoginAt = &now
	_ = h.DB.Save(&user).Error

	token, err := util.GenerateToken(h.JWTSecret, user.ID, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "generate token failed")
		return
	}

	util.Success(c, util.Response{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
		},
	})
}
