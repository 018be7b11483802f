package handler

import (
	"net/http"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserHandler serves the signed-in tutor's own account.
type UserHandler struct {
	DB *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

func (h *UserHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	util.Success(c, util.Response{
		"user": gin.H{
			"id":            user.ID,
			"username":      user.Username,
			"display_name":  user.DisplayName,
			"last_login_at": user.LastLoginAt,
			"last_login_ip": user.LastLoginIP,
		},
	})
}

type updateProfileReq struct {
	DisplayName string `json:"display_name" binding:"max=64"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	user.DisplayName = req.DisplayName
	if err := h.DB.Save(user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
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

type changePasswordReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req changePasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "wrong password")
		return
	}
	if !isStrongPassword(req.NewPassword) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "password must be 8-32 characters with upper, lower and digit")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "hash password failed")
		return
	}
	user.PasswordHash = string(hash)
	if err := h.DB.Save(user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
		return
	}

	util.Success(c, util.Response{"changed": true})
}
