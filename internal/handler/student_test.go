package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/ledger"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/store"

	"github.com/gin-gonic/gin"
)

func TestStudentHistory_SettlesBalanceFirst(t *testing.T) {
	db := testDB(t)
	user := &models.User{Username: "dana", PasswordHash: "x"}
	db.Create(user)
	// stored balance is deliberately stale
	student := &models.Student{UserID: user.ID, Name: "Yoav", Level: models.LevelHigh, Balance: 999}
	db.Create(student)

	past := time.Now().Add(-48 * time.Hour)
	db.Create(&models.ScheduleEntry{
		UserID:    user.ID,
		Kind:      models.KindFrontal,
		StudentID: student.ID,
		StartAt:   past,
		EndAt:     past.Add(time.Hour),
		Hours:     1,
		Price:     20000,
		Charged:   true,
	})
	db.Create(&models.Payment{
		UserID:    user.ID,
		StudentID: student.ID,
		Amount:    5000,
		Method:    models.MethodCash,
		PaidAt:    past.Add(2 * time.Hour),
	})

	st := store.New(db, store.NewHub())
	h := NewStudentHandler(db, st.Hub(), ledger.NewReconciler(st))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("currentUser", user) })
	r.GET("/students/:id/history", h.History)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/students/%d/history", student.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Data struct {
			Student struct {
				Balance int64 `json:"balance"`
			} `json:"student"`
			Lessons  []json.RawMessage `json:"lessons"`
			Payments []json.RawMessage `json:"payments"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Student.Balance != -15000 {
		t.Errorf("balance = %d, want reconciled -15000", envelope.Data.Student.Balance)
	}
	if len(envelope.Data.Lessons) != 1 || len(envelope.Data.Payments) != 1 {
		t.Errorf("history = %d lessons / %d payments, want 1/1",
			len(envelope.Data.Lessons), len(envelope.Data.Payments))
	}

	var stored models.Student
	if err := db.First(&stored, student.ID).Error; err != nil {
		t.Fatalf("reload student: %v", err)
	}
	if stored.Balance != -15000 {
		t.Errorf("stored balance = %d, want -15000 after the visit", stored.Balance)
	}
}
