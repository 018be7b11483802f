package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/report"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ReportHandler serves the monthly report and future-income figures.
type ReportHandler struct {
	DB *gorm.DB
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{DB: db}
}

// window resolves ?year=&month= to a billing window; without them it
// is the window containing today.
func reportWindow(c *gin.Context) (report.Window, bool) {
	yearStr, monthStr := c.Query("year"), c.Query("month")
	if yearStr == "" && monthStr == "" {
		return report.CurrentWindow(time.Now()), true
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2200 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid year")
		return report.Window{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid month")
		return report.Window{}, false
	}
	return report.MonthWindow(year, time.Month(month), time.Local), true
}

func (h *ReportHandler) monthData(c *gin.Context, userID uint, w report.Window) (report.Summary, []models.ScheduleEntry, []models.Payment, []models.Grading, bool) {
	var entries []models.ScheduleEntry
	if err := h.DB.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return report.Summary{}, nil, nil, nil, false
	}
	var payments []models.Payment
	if err := h.DB.Where("user_id = ?", userID).Find(&payments).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return report.Summary{}, nil, nil, nil, false
	}
	var gradings []models.Grading
	if err := h.DB.Where("user_id = ?", userID).Find(&gradings).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return report.Summary{}, nil, nil, nil, false
	}
	return report.Monthly(entries, payments, gradings, w), entries, payments, gradings, true
}

// Monthly returns one billing month's totals plus its rows.
func (h *ReportHandler) Monthly(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	w, ok := reportWindow(c)
	if !ok {
		return
	}

	summary, entries, payments, gradings, ok := h.monthData(c, user.ID, w)
	if !ok {
		return
	}

	lessonRows := make([]entryResp, 0)
	for i := range entries {
		e := &entries[i]
		if e.IsLesson() && !e.Recurring && w.Contains(e.StartAt) {
			lessonRows = append(lessonRows, toEntryResp(e))
		}
	}
	paymentRows := make([]paymentResp, 0)
	for i := range payments {
		if w.Contains(payments[i].PaidAt) {
			paymentRows = append(paymentRows, toPaymentResp(&payments[i]))
		}
	}
	gradingRows := make([]gradingResp, 0)
	for i := range gradings {
		if w.Contains(gradings[i].Date) {
			gradingRows = append(gradingRows, toGradingResp(&gradings[i]))
		}
	}

	util.Success(c, util.Response{
		"window": gin.H{
			"from": summary.Window.From.Format("2006-01-02"),
			"to":   summary.Window.To.Format("2006-01-02"),
		},
		"lesson_count":   summary.LessonCount,
		"lesson_hours":   summary.LessonHours,
		"lesson_income":  summary.LessonIncome,
		"payments":       summary.Payments,
		"grading_income": summary.GradingIncome,
		"received":       summary.Received(),
		"lessons":        lessonRows,
		"payment_rows":   paymentRows,
		"grading_rows":   gradingRows,
	})
}

// FutureIncome sums the prices of lessons that have not started yet.
func (h *ReportHandler) FutureIncome(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var entries []models.ScheduleEntry
	err := h.DB.Where("user_id = ? AND kind <> ? AND start_at > ?", user.ID, models.KindBlock, time.Now()).
		Find(&entries).Error
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	util.Success(c, util.Response{
		"future_income": report.FutureIncome(entries, time.Now()),
		"lesson_count":  len(entries),
	})
}
