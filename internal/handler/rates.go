package handler

import (
	"errors"
	"net/http"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/pricing"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RatesHandler reads and writes the owner's pricing overrides.
type RatesHandler struct {
	DB *gorm.DB
}

func NewRatesHandler(db *gorm.DB) *RatesHandler {
	return &RatesHandler{DB: db}
}

type ratesPayload struct {
	ElementaryHourly int64 `json:"elementary_hourly" binding:"required"`

	MiddleSolo  int64 `json:"middle_solo" binding:"required"`
	MiddlePair  int64 `json:"middle_pair" binding:"required"`
	MiddleGroup int64 `json:"middle_group" binding:"required"`

	HighSolo  int64 `json:"high_solo" binding:"required"`
	HighPair  int64 `json:"high_pair" binding:"required"`
	HighGroup int64 `json:"high_group" binding:"required"`

	AcademicFirstHour int64 `json:"academic_first_hour" binding:"required"`
	AcademicExtraHour int64 `json:"academic_extra_hour" binding:"required"`
	AcademicPair      int64 `json:"academic_pair" binding:"required"`
	AcademicGroup     int64 `json:"academic_group" binding:"required"`
}

func toRatesPayload(r pricing.Rates) ratesPayload {
	return ratesPayload{
		ElementaryHourly:  r.ElementaryHourly,
		MiddleSolo:        r.MiddleSolo,
		MiddlePair:        r.MiddlePair,
		MiddleGroup:       r.MiddleGroup,
		HighSolo:          r.HighSolo,
		HighPair:          r.HighPair,
		HighGroup:         r.HighGroup,
		AcademicFirstHour: r.AcademicFirstHour,
		AcademicExtraHour: r.AcademicExtraHour,
		AcademicPair:      r.AcademicPair,
		AcademicGroup:     r.AcademicGroup,
	}
}

// Get returns the effective rate table: the owner's overrides when
// saved, otherwise the defaults.
func (h *RatesHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var rc models.RateCard
	err := h.DB.Where("user_id = ?", user.ID).First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.Success(c, util.Response{"rates": toRatesPayload(pricing.DefaultRates()), "custom": false})
		return
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}
	util.Success(c, util.Response{"rates": toRatesPayload(pricing.FromRateCard(&rc)), "custom": true})
}

// Put upserts the owner's rate card.
func (h *RatesHandler) Put(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req ratesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid parameters")
		return
	}
	for _, v := range []int64{
		req.ElementaryHourly,
		req.MiddleSolo, req.MiddlePair, req.MiddleGroup,
		req.HighSolo, req.HighPair, req.HighGroup,
		req.AcademicFirstHour, req.AcademicExtraHour, req.AcademicPair, req.AcademicGroup,
	} {
		if err := util.ValidateAmount(v); err != nil {
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "all rates must be positive")
			return
		}
	}

	var rc models.RateCard
	err := h.DB.Where("user_id = ?", user.ID).First(&rc).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	rc.UserID = user.ID
	rc.ElementaryHourly = req.ElementaryHourly
	rc.MiddleSolo = req.MiddleSolo
	rc.MiddlePair = req.MiddlePair
	rc.MiddleGroup = req.MiddleGroup
	rc.HighSolo = req.HighSolo
	rc.HighPair = req.HighPair
	rc.HighGroup = req.HighGroup
	rc.AcademicFirstHour = req.AcademicFirstHour
	rc.AcademicExtraHour = req.AcademicExtraHour
	rc.AcademicPair = req.AcademicPair
	rc.AcademicGroup = req.AcademicGroup

	if err := h.DB.Save(&rc).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save failed, please retry")
		return
	}
	util.Success(c, util.Response{"rates": toRatesPayload(pricing.FromRateCard(&rc))})
}

// Reset removes the overrides, returning the owner to the defaults.
func (h *RatesHandler) Reset(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.DB.Where("user_id = ?", user.ID).Delete(&models.RateCard{}).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}
	util.Success(c, util.Response{"rates": toRatesPayload(pricing.DefaultRates()), "custom": false})
}
