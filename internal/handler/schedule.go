package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/schedule"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/scheduling"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
)

// ScheduleHandler serves the calendar: lessons, blocks, series and
// the price suggestion.
type ScheduleHandler struct {
	Service *scheduling.Service
	Store   scheduling.Store
}

func NewScheduleHandler(svc *scheduling.Service, st scheduling.Store) *ScheduleHandler {
	return &ScheduleHandler{Service: svc, Store: st}
}

type entryResp struct {
	ID           uint       `json:"id"`
	Kind         string     `json:"kind"`
	Title        string     `json:"title,omitempty"`
	StudentID    uint       `json:"student_id,omitempty"`
	StudentName  string     `json:"student_name,omitempty"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	Hours        float64    `json:"hours"`
	Price        int64      `json:"price"`
	Location     string     `json:"location,omitempty"`
	NeedsLibrary bool       `json:"needs_library,omitempty"`
	Charged      bool       `json:"charged"`
	Reminders    []int      `json:"reminders,omitempty"`
	SlotID       string     `json:"slot_id,omitempty"`
	Recurring    bool       `json:"recurring,omitempty"`
	DayOfWeek    int        `json:"day_of_week,omitempty"`
	RecurringEnd *time.Time `json:"recurring_end,omitempty"`
}

func toEntryResp(e *models.ScheduleEntry) entryResp {
	return entryResp{
		ID:           e.ID,
		Kind:         e.Kind,
		Title:        e.Title,
		StudentID:    e.StudentID,
		StudentName:  e.StudentName,
		Start:        e.StartAt,
		End:          e.EndAt,
		Hours:        e.Hours,
		Price:        e.Price,
		Location:     e.Location,
		NeedsLibrary: e.NeedsLibrary,
		Charged:      e.Charged,
		Reminders:    e.Reminders,
		SlotID:       e.SlotID,
		Recurring:    e.Recurring,
		DayOfWeek:    e.DayOfWeek,
		RecurringEnd: e.RecurringEnd,
	}
}

func writeSchedulingError(c *gin.Context, err error) {
	var ce *scheduling.ConflictError
	switch {
	case errors.As(err, &ce):
		util.Error(c, http.StatusConflict, util.CodeConflict, ce.Error())
	case errors.Is(err, scheduling.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "entry not found")
	case errors.Is(err, scheduling.ErrInvalidInterval),
		errors.Is(err, scheduling.ErrNoStudents),
		errors.Is(err, scheduling.ErrBadKind),
		errors.Is(err, scheduling.ErrCutoffRequired):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
	default:
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
	}
}

// ---------- list ----------

// List returns the calendar for a window, recurring entries expanded
// into their concrete occurrences.
func (h *ScheduleHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now.AddDate(0, 2, 0)
	if s := c.Query("from"); s != "" {
		t, err := parseTime(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid from date")
			return
		}
		from = t
	}
	if s := c.Query("to"); s != "" {
		t, err := parseTime(s)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid to date")
			return
		}
		to = t
	}

	entries, err := h.Store.EntriesByOwner(c.Request.Context(), user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	occs := schedule.ExpandAll(entries, from, to)
	resp := make([]entryResp, 0, len(occs))
	for _, occ := range occs {
		r := toEntryResp(occ.Entry)
		r.Start = occ.Interval.Start
		r.End = occ.Interval.End
		resp = append(resp, r)
	}
	util.Success(c, util.Response{"entries": resp})
}

// ---------- lessons ----------

type createLessonReq struct {
	StudentIDs   []uint `json:"student_ids" binding:"required,min=1"`
	Kind         string `json:"kind" binding:"required,oneof=frontal online"`
	Start        string `json:"start" binding:"required"`
	End          string `json:"end" binding:"required"`
	Location     string `json:"location" binding:"max=128"`
	NeedsLibrary bool   `json:"needs_library"`
	Reminders    []int  `json:"reminders"`
	Price        *int64 `json:"price"`
}

func (h *ScheduleHandler) CreateLessons(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createLessonReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	start, err := parseTime(req.Start)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start time")
		return
	}
	end, err := parseTime(req.End)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end time")
		return
	}
	if req.Price != nil {
		if verr := util.ValidateAmount(*req.Price); verr != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid price")
			return
		}
	}

	lessons, err := h.Service.CreateLessons(c.Request.Context(), user.ID, scheduling.LessonRequest{
		StudentIDs:   req.StudentIDs,
		Kind:         req.Kind,
		Start:        start,
		End:          end,
		Location:     req.Location,
		NeedsLibrary: req.NeedsLibrary,
		Reminders:    req.Reminders,
		TotalPrice:   req.Price,
	})
	if err != nil {
		writeSchedulingError(c, err)
		return
	}

	resp := make([]entryResp, 0, len(lessons))
	for _, l := range lessons {
		resp = append(resp, toEntryResp(l))
	}
	util.Success(c, util.Response{"lessons": resp})
}

type suggestPriceReq struct {
	StudentIDs []uint `json:"student_ids" binding:"required,min=1"`
	Start      string `json:"start" binding:"required"`
	End        string `json:"end" binding:"required"`
}

func (h *ScheduleHandler) SuggestPrice(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req suggestPriceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	start, err := parseTime(req.Start)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start time")
		return
	}
	end, err := parseTime(req.End)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end time")
		return
	}

	price, err := h.Service.SuggestPrice(c.Request.Context(), user.ID, req.StudentIDs, start, end)
	if err != nil {
		writeSchedulingError(c, err)
		return
	}
	util.Success(c, util.Response{"price": price})
}

// ---------- blocks ----------

type createBlockReq struct {
	Title        string `json:"title" binding:"max=128"`
	Start        string `json:"start" binding:"required"`
	End          string `json:"end" binding:"required"`
	Recurring    bool   `json:"recurring"`
	RecurringEnd string `json:"recurring_end"`
	// Materialize writes one row per week instead of a single
	// virtual series entry. Requires recurring_end.
	Materialize bool `json:"materialize"`
}

func (h *ScheduleHandler) CreateBlock(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createBlockReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	start, err := parseTime(req.Start)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start time")
		return
	}
	end, err := parseTime(req.End)
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end time")
		return
	}
	var cutoff *time.Time
	if req.RecurringEnd != "" {
		t, err := parseTime(req.RecurringEnd)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end date")
			return
		}
		cutoff = &t
	}

	breq := scheduling.BlockRequest{
		Title:        req.Title,
		Start:        start,
		End:          end,
		Recurring:    req.Recurring,
		RecurringEnd: cutoff,
	}

	if req.Materialize {
		res, err := h.Service.CreateBlockSeries(c.Request.Context(), user.ID, breq)
		if err != nil {
			writeSchedulingError(c, err)
			return
		}
		created := make([]entryResp, 0, len(res.Created))
		for _, e := range res.Created {
			created = append(created, toEntryResp(e))
		}
		skipped := make([]gin.H, 0, len(res.Skipped))
		for _, sk := range res.Skipped {
			skipped = append(skipped, gin.H{
				"date":     sk.Date.Format("2006-01-02"),
				"conflict": toEntryResp(sk.With),
			})
		}
		util.Success(c, util.Response{"created": created, "skipped": skipped})
		return
	}

	e, err := h.Service.CreateBlock(c.Request.Context(), user.ID, breq)
	if err != nil {
		writeSchedulingError(c, err)
		return
	}
	util.Success(c, util.Response{"block": toEntryResp(e)})
}

// ---------- update / delete ----------

type updateEntryReq struct {
	Start        *string `json:"start"`
	End          *string `json:"end"`
	StudentID    *uint   `json:"student_id"`
	Price        *int64  `json:"price"`
	Title        *string `json:"title"`
	Location     *string `json:"location"`
	NeedsLibrary *bool   `json:"needs_library"`
	Reminders    *[]int  `json:"reminders"`
	RecurringEnd *string `json:"recurring_end"`
}

func (h *ScheduleHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateEntryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}

	var ureq scheduling.UpdateRequest
	if req.Start != nil {
		t, err := parseTime(*req.Start)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid start time")
			return
		}
		ureq.Start = &t
	}
	if req.End != nil {
		t, err := parseTime(*req.End)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end time")
			return
		}
		ureq.End = &t
	}
	if req.RecurringEnd != nil {
		t, err := parseTime(*req.RecurringEnd)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid end date")
			return
		}
		ureq.RecurringEnd = &t
	}
	ureq.StudentID = req.StudentID
	ureq.Price = req.Price
	ureq.Title = req.Title
	ureq.Location = req.Location
	ureq.NeedsLibrary = req.NeedsLibrary
	ureq.Reminders = req.Reminders

	e, err := h.Service.UpdateEntry(c.Request.Context(), user.ID, id, ureq)
	if err != nil {
		writeSchedulingError(c, err)
		return
	}
	util.Success(c, util.Response{"entry": toEntryResp(e)})
}

func (h *ScheduleHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.Service.DeleteEntry(c.Request.Context(), user.ID, id); err != nil {
		writeSchedulingError(c, err)
		return
	}
	util.Success(c, util.Response{"deleted": id})
}
