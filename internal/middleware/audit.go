package middleware

import (
	"bytes"
	"io"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditMiddleware records every mutating request of a signed-in user.
// Reads pass through unlogged.
func AuditMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case "GET", "HEAD", "OPTIONS":
			c.Next()
			return
		}

		// capture the body before the handler consumes it
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}

		c.Next()

		var userID uint
		if v, ok := c.Get("currentUser"); ok {
			if user, ok := v.(*models.User); ok && user != nil {
				userID = user.ID
			}
		}
		if userID == 0 {
			return
		}

		path := c.Request.URL.Path
		action := c.Request.Method + " " + path
		if len(bodyBytes) > 0 && len(bodyBytes) < 1000 {
			action += " " + string(bodyBytes)
		}

		entry := models.AuditLog{
			UserID:    &userID,
			Path:      path,
			Method:    c.Request.Method,
			Action:    action,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		_ = db.Create(&entry).Error
	}
}
