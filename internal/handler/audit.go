package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditHandler serves the owner's action log.
type AuditHandler struct {
	DB       *gorm.DB
	PageSize int
}

func NewAuditHandler(db *gorm.DB, pageSize int) *AuditHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &AuditHandler{DB: db, PageSize: pageSize}
}

type auditResp struct {
	ID        uint      `json:"id"`
	Action    string    `json:"action"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the owner's audit log, paged, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(h.PageSize)))
	if size <= 0 || size > 100 {
		size = h.PageSize
	}

	q := h.DB.Model(&models.AuditLog{}).Where("user_id = ?", user.ID)
	if method := c.Query("method"); method != "" {
		q = q.Where("method = ?", method)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var logs []models.AuditLog
	err := q.Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&logs).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	resp := make([]auditResp, 0, len(logs))
	for _, entry := range logs {
		resp = append(resp, auditResp{
			ID:        entry.ID,
			Action:    entry.Action,
			Path:      entry.Path,
			Method:    entry.Method,
			IP:        entry.IP,
			UserAgent: entry.UserAgent,
			CreatedAt: entry.CreatedAt,
		})
	}

	util.Success(c, util.Response{
		"logs":  resp,
		"total": total,
		"page":  page,
		"size":  size,
	})
}
