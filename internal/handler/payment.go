package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/ledger"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentHandler records and removes payments. Every write reruns the
// ledger for the affected student.
type PaymentHandler struct {
	DB         *gorm.DB
	Reconciler *ledger.Reconciler
}

func NewPaymentHandler(db *gorm.DB, rec *ledger.Reconciler) *PaymentHandler {
	return &PaymentHandler{DB: db, Reconciler: rec}
}

type createPaymentReq struct {
	StudentID uint   `json:"student_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required"`
	Method    string `json:"method" binding:"required"`
	PaidAt    string `json:"paid_at"`
}

type paymentResp struct {
	ID        uint      `json:"id"`
	StudentID uint      `json:"student_id"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"method"`
	PaidAt    time.Time `json:"paid_at"`
}

func toPaymentResp(p *models.Payment) paymentResp {
	return paymentResp{
		ID:        p.ID,
		StudentID: p.StudentID,
		Amount:    p.Amount,
		Method:    p.Method,
		PaidAt:    p.PaidAt,
	}
}

func (h *PaymentHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req createPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	if err := util.ValidateAmount(req.Amount); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "please enter a valid amount")
		return
	}
	if !models.ValidMethod(req.Method) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "unknown payment method")
		return
	}

	var student models.Student
	if err := h.DB.Where("id = ? AND user_id = ?", req.StudentID, user.ID).First(&student).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "student not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	paidAt := time.Now()
	if req.PaidAt != "" {
		t, err := parseTime(req.PaidAt)
		if err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid payment date")
			return
		}
		paidAt = t
	}

	payment := models.Payment{
		UserID:    user.ID,
		StudentID: req.StudentID,
		Amount:    req.Amount,
		Method:    req.Method,
		PaidAt:    paidAt,
	}
	if err := h.DB.Create(&payment).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
		return
	}

	balance, err := h.Reconciler.Recalculate(c.Request.Context(), user.ID, req.StudentID)
	if err != nil {
		// the payment is committed; the balance heals on the next trigger
		log.Printf("reconcile student %d after payment create: %v", req.StudentID, err)
		balance = student.Balance
	}

	util.Success(c, util.Response{
		"payment": toPaymentResp(&payment),
		"balance": balance,
	})
}

func (h *PaymentHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	q := h.DB.Where("user_id = ?", user.ID)
	if s := c.Query("student_id"); s != "" {
		q = q.Where("student_id = ?", s)
	}

	var payments []models.Payment
	if err := q.Order("paid_at DESC").Find(&payments).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	resp := make([]paymentResp, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResp(&payments[i]))
	}
	util.Success(c, util.Response{"payments": resp})
}

func (h *PaymentHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var payment models.Payment
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "payment not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	if err := h.DB.Delete(&payment).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}

	balance, err := h.Reconciler.Recalculate(c.Request.Context(), user.ID, payment.StudentID)
	if err != nil {
		// the delete is committed; report the stored balance until the
		// next recompute heals it
		log.Printf("reconcile student %d after payment delete: %v", payment.StudentID, err)
		var student models.Student
		if lookErr := h.DB.Where("id = ? AND user_id = ?", payment.StudentID, user.ID).
			First(&student).Error; lookErr == nil {
			balance = student.Balance
		}
	}
	util.Success(c, util.Response{
		"deleted": id,
		"balance": balance,
	})
}
