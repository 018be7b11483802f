package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/store"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GradingHandler serves grading income entries.
type GradingHandler struct {
	DB  *gorm.DB
	Hub *store.Hub
}

func NewGradingHandler(db *gorm.DB, hub *store.Hub) *GradingHandler {
	return &GradingHandler{DB: db, Hub: hub}
}

type gradingReq struct {
	Course    string `json:"course" binding:"required,max=64"`
	Task      string `json:"task" binding:"max=128"`
	Units     int    `json:"units" binding:"required"`
	UnitPrice int64  `json:"unit_price" binding:"required"`
	Date      string `json:"date"`
}

type gradingResp struct {
	ID        uint      `json:"id"`
	Course    string    `json:"course"`
	Task      string    `json:"task,omitempty"`
	Units     int       `json:"units"`
	UnitPrice int64     `json:"unit_price"`
	Total     int64     `json:"total"`
	Date      time.Time `json:"date"`
}

func toGradingResp(g *models.Grading) gradingResp {
	return gradingResp{
		ID:        g.ID,
		Course:    g.Course,
		Task:      g.Task,
		Units:     g.Units,
		UnitPrice: g.UnitPrice,
		Total:     g.Total,
		Date:      g.Date,
	}
}

func (h *GradingHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req gradingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	req.Course = strings.TrimSpace(req.Course)
	if req.Course == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please choose a course")
		return
	}
	if req.Units <= 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "units must be positive")
		return
	}
	if err := util.ValidateAmount(req.UnitPrice); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid unit price")
		return
	}

	date := time.Now()
	if req.Date != "" {
		t, err := parseTime(req.Date)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid date")
			return
		}
		date = t
	}

	grading := models.Grading{
		UserID:    user.ID,
		Course:    req.Course,
		Task:      req.Task,
		Units:     req.Units,
		UnitPrice: req.UnitPrice,
		Total:     int64(req.Units) * req.UnitPrice,
		Date:      date,
	}
	if err := h.DB.Create(&grading).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
		return
	}
	h.Hub.Publish(user.ID, store.TopicGradings)

	util.Success(c, util.Response{"grading": toGradingResp(&grading)})
}

func (h *GradingHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	q := h.DB.Where("user_id = ?", user.ID)
	if course := c.Query("course"); course != "" {
		q = q.Where("course = ?", course)
	}

	var gradings []models.Grading
	if err := q.Order("date DESC").Find(&gradings).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	resp := make([]gradingResp, 0, len(gradings))
	for i := range gradings {
		resp = append(resp, toGradingResp(&gradings[i]))
	}
	util.Success(c, util.Response{"gradings": resp})
}

func (h *GradingHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Grading{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "grading not found")
		return
	}
	h.Hub.Publish(user.ID, store.TopicGradings)

	util.Success(c, util.Response{"deleted": id})
}
