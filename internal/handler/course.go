package handler

import (
	"net/http"
	"strings"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CourseHandler maintains the course list used by grading entries.
type CourseHandler struct {
	DB *gorm.DB
}

func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{DB: db}
}

type courseReq struct {
	Name      string `json:"name" binding:"required,max=64"`
	UnitPrice int64  `json:"unit_price" binding:"required"`
}

type courseResp struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
}

func (h *CourseHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := util.ValidateName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a course name")
		return
	}
	if err := util.ValidateAmount(req.UnitPrice); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid unit price")
		return
	}

	var count int64
	if err := h.DB.Model(&models.Course{}).
		Where("user_id = ? AND name = ?", user.ID, req.Name).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	if count > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "course already exists")
		return
	}

	course := models.Course{
		UserID:    user.ID,
		Name:      req.Name,
		UnitPrice: req.UnitPrice,
	}
	if err := h.DB.Create(&course).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
		return
	}

	util.Success(c, util.Response{"course": courseResp{course.ID, course.Name, course.UnitPrice}})
}

func (h *CourseHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var courses []models.Course
	if err := h.DB.Where("user_id = ?", user.ID).Order("name").Find(&courses).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	resp := make([]courseResp, 0, len(courses))
	for _, course := range courses {
		resp = append(resp, courseResp{course.ID, course.Name, course.UnitPrice})
	}
	util.Success(c, util.Response{"courses": resp})
}

func (h *CourseHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Course{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "course not found")
		return
	}

	util.Success(c, util.Response{"deleted": id})
}
