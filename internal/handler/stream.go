package handler

import (
	"io"
	"net/http"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/store"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StreamHandler serves server-sent-event subscriptions. Each stream
// pushes the topic's full current list immediately and again after
// every change, and is torn down when the client disconnects.
type StreamHandler struct {
	DB  *gorm.DB
	Hub *store.Hub
}

func NewStreamHandler(db *gorm.DB, hub *store.Hub) *StreamHandler {
	return &StreamHandler{DB: db, Hub: hub}
}

func (h *StreamHandler) snapshot(topic string, userID uint) (interface{}, error) {
	switch topic {
	case store.TopicStudents:
		var students []models.Student
		if err := h.DB.Where("user_id = ?", userID).Order("name").Find(&students).Error; err != nil {
			return nil, err
		}
		resp := make([]studentResp, 0, len(students))
		for i := range students {
			resp = append(resp, toStudentResp(&students[i]))
		}
		return resp, nil
	case store.TopicSchedule:
		var entries []models.ScheduleEntry
		if err := h.DB.Where("user_id = ?", userID).Order("start_at").Find(&entries).Error; err != nil {
			return nil, err
		}
		resp := make([]entryResp, 0, len(entries))
		for i := range entries {
			resp = append(resp, toEntryResp(&entries[i]))
		}
		return resp, nil
	case store.TopicGradings:
		var gradings []models.Grading
		if err := h.DB.Where("user_id = ?", userID).Order("date DESC").Find(&gradings).Error; err != nil {
			return nil, err
		}
		resp := make([]gradingResp, 0, len(gradings))
		for i := range gradings {
			resp = append(resp, toGradingResp(&gradings[i]))
		}
		return resp, nil
	}
	return nil, nil
}

// Subscribe streams one topic to the client until it disconnects.
func (h *StreamHandler) Subscribe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	topic := c.Param("topic")
	switch topic {
	case store.TopicStudents, store.TopicSchedule, store.TopicGradings:
	default:
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown topic")
		return
	}

	ch, cancel := h.Hub.Subscribe(user.ID, topic)
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// first event carries the current state
	sendCurrent := func() bool {
		data, err := h.snapshot(topic, user.ID)
		if err != nil {
			return false
		}
		c.SSEvent(topic, data)
		return true
	}
	if !sendCurrent() {
		return
	}
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case <-ch:
			return sendCurrent()
		}
	})
}
