package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/report"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler writes a billing month's report as CSV or XLSX.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

// reportRow is one line in either export format.
type reportRow struct {
	Kind   string // lesson | payment | grading
	Who    string
	Detail string
	Amount int64
	Date   time.Time
}

func formatShekels(agorot int64) string {
	return strconv.FormatFloat(float64(agorot)/100.0, 'f', 2, 64)
}

func (h *ExportHandler) monthRows(c *gin.Context, userID uint, w report.Window) ([]reportRow, bool) {
	var entries []models.ScheduleEntry
	if err := h.DB.Where("user_id = ?", userID).Find(&entries).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return nil, false
	}
	var payments []models.Payment
	if err := h.DB.Where("user_id = ?", userID).Find(&payments).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return nil, false
	}
	var gradings []models.Grading
	if err := h.DB.Where("user_id = ?", userID).Find(&gradings).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return nil, false
	}

	var rows []reportRow
	for _, e := range entries {
		if !e.IsLesson() || e.Recurring || !w.Contains(e.StartAt) {
			continue
		}
		rows = append(rows, reportRow{
			Kind:   "lesson",
			Who:    e.StudentName,
			Detail: fmt.Sprintf("%s, %.1f hours", e.Kind, e.Hours),
			Amount: e.Price,
			Date:   e.StartAt,
		})
	}
	for _, p := range payments {
		if !w.Contains(p.PaidAt) {
			continue
		}
		rows = append(rows, reportRow{
			Kind:   "payment",
			Detail: p.Method,
			Amount: p.Amount,
			Date:   p.PaidAt,
		})
	}
	for _, g := range gradings {
		if !w.Contains(g.Date) {
			continue
		}
		rows = append(rows, reportRow{
			Kind:   "grading",
			Who:    g.Course,
			Detail: fmt.Sprintf("%s, %d units", g.Task, g.Units),
			Amount: g.Total,
			Date:   g.Date,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, true
}

var exportHeaders = []string{"Type", "Student/Course", "Detail", "Amount (ILS)", "Date"}

func (r reportRow) cells() []string {
	return []string{
		r.Kind,
		r.Who,
		r.Detail,
		formatShekels(r.Amount),
		r.Date.Format("2006-01-02"),
	}
}

// CSV streams the month's rows as a CSV attachment.
func (h *ExportHandler) CSV(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	w, ok := reportWindow(c)
	if !ok {
		return
	}
	rows, ok := h.monthRows(c, user.ID, w)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"report_%s.csv\"",
		w.From.Format("20060102")))

	// UTF-8 BOM so Excel renders Hebrew names correctly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for _, r := range rows {
		writer.Write(r.cells())
	}
}

// XLSX writes the month's rows as a spreadsheet attachment.
func (h *ExportHandler) XLSX(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	w, ok := reportWindow(c)
	if !ok {
		return
	}
	rows, ok := h.monthRows(c, user.ID, w)
	if !ok {
		return
	}

	f := excelize.NewFile()
	sheetName := "Monthly report"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create sheet failed")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, head := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, head)
	}
	for idx, r := range rows {
		for i, v := range r.cells() {
			cell := fmt.Sprintf("%c%d", 'A'+i, idx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 20)
	f.SetColWidth(sheetName, "C", "C", 30)
	f.SetColWidth(sheetName, "D", "D", 12)
	f.SetColWidth(sheetName, "E", "E", 12)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"report_%s.xlsx\"",
		w.From.Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "export failed")
	}
}
