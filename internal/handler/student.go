package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/ledger"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/store"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// StudentHandler serves student CRUD and per-student history.
type StudentHandler struct {
	DB         *gorm.DB
	Hub        *store.Hub
	Reconciler *ledger.Reconciler
}

func NewStudentHandler(db *gorm.DB, hub *store.Hub, rec *ledger.Reconciler) *StudentHandler {
	return &StudentHandler{DB: db, Hub: hub, Reconciler: rec}
}

type studentReq struct {
	Name  string `json:"name" binding:"required,max=64"`
	Level string `json:"level" binding:"required"`
}

type studentResp struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Level   string `json:"level"`
	Balance int64  `json:"balance"`
}

func toStudentResp(s *models.Student) studentResp {
	return studentResp{
		ID:      s.ID,
		Name:    s.Name,
		Level:   string(s.Level),
		Balance: s.Balance,
	}
}

func (h *StudentHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req studentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := util.ValidateName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a name")
		return
	}
	if !models.ValidLevel(req.Level) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown study level")
		return
	}

	student := models.Student{
		UserID: user.ID,
		Name:   req.Name,
		Level:  models.Level(req.Level),
	}
	if err := h.DB.Create(&student).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
		return
	}
	h.Hub.Publish(user.ID, store.TopicStudents)

	util.Success(c, util.Response{"student": toStudentResp(&student)})
}

func (h *StudentHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var students []models.Student
	if err := h.DB.Where("user_id = ?", user.ID).Order("name").Find(&students).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	resp := make([]studentResp, 0, len(students))
	for i := range students {
		resp = append(resp, toStudentResp(&students[i]))
	}
	util.Success(c, util.Response{"students": resp})
}

func (h *StudentHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req studentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := util.ValidateName(req.Name); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a name")
		return
	}
	if !models.ValidLevel(req.Level) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown study level")
		return
	}

	var student models.Student
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&student).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "student not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	student.Name = req.Name
	student.Level = models.Level(req.Level)
	if err := h.DB.Save(&student).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
		return
	}
	// keep the denormalized name on future schedule entries current
	h.DB.Model(&models.ScheduleEntry{}).
		Where("user_id = ? AND student_id = ?", user.ID, id).
		Update("student_name", student.Name)
	h.Hub.Publish(user.ID, store.TopicStudents)
	h.Hub.Publish(user.ID, store.TopicSchedule)

	util.Success(c, util.Response{"student": toStudentResp(&student)})
}

// Delete removes the student record only. Lessons and payments stay
// behind for bookkeeping; they simply no longer resolve to a student.
func (h *StudentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	res := h.DB.Where("id = ? AND user_id = ?", id, user.ID).Delete(&models.Student{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "student not found")
		return
	}
	h.Hub.Publish(user.ID, store.TopicStudents)

	util.Success(c, util.Response{"deleted": id})
}

// History returns a student's lessons and payments, newest first.
func (h *StudentHandler) History(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	// settle the balance before showing it next to the rows it came from
	if _, err := h.Reconciler.Recalculate(c.Request.Context(), user.ID, id); err != nil {
		log.Printf("reconcile student %d before history: %v", id, err)
	}

	var student models.Student
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&student).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "student not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	var lessons []models.ScheduleEntry
	err := h.DB.Where("user_id = ? AND student_id = ? AND kind <> ?", user.ID, id, models.KindBlock).
		Order("start_at DESC").
		Find(&lessons).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	var payments []models.Payment
	err = h.DB.Where("user_id = ? AND student_id = ?", user.ID, id).
		Order("paid_at DESC").
		Find(&payments).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	lessonResp := make([]entryResp, 0, len(lessons))
	for i := range lessons {
		lessonResp = append(lessonResp, toEntryResp(&lessons[i]))
	}
	payResp := make([]paymentResp, 0, len(payments))
	for i := range payments {
		payResp = append(payResp, toPaymentResp(&payments[i]))
	}
	util.Success(c, util.Response{
		"student":  toStudentResp(&student),
		"lessons":  lessonResp,
		"payments": payResp,
	})
}
