package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/models"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BackupHandler snapshots one owner's business data to a JSON file
// and restores from it.
type BackupHandler struct {
	DB        *gorm.DB
	BackupDir string
}

func NewBackupHandler(db *gorm.DB, backupDir string) *BackupHandler {
	return &BackupHandler{DB: db, BackupDir: backupDir}
}

// snapshot is the file layout of one backup.
type snapshot struct {
	Version   int                    `json:"version"`
	CreatedAt time.Time              `json:"created_at"`
	Students  []models.Student       `json:"students"`
	Entries   []models.ScheduleEntry `json:"entries"`
	Payments  []models.Payment       `json:"payments"`
	Gradings  []models.Grading       `json:"gradings"`
	Courses   []models.Course        `json:"courses"`
}

func (h *BackupHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	snap := snapshot{Version: 1, CreatedAt: time.Now()}
	queries := []struct {
		dest interface{}
	}{
		{&snap.Students},
		{&snap.Entries},
		{&snap.Payments},
		{&snap.Gradings},
		{&snap.Courses},
	}
	for _, q := range queries {
		if err := h.DB.Where("user_id = ?", user.ID).Find(q.dest).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
			return
		}
	}

	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "encode backup failed")
		return
	}

	if err := os.MkdirAll(h.BackupDir, 0o755); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create backup dir failed")
		return
	}

	fileName := fmt.Sprintf("backup_%s_%s.json", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
	filePath := filepath.Join(h.BackupDir, fileName)
	if err := os.WriteFile(filePath, data, 0o600); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "write backup failed")
		return
	}

	info, _ := os.Stat(filePath)
	backup := models.Backup{
		UserID:   user.ID,
		FileName: fileName,
		FilePath: filePath,
	}
	if info != nil {
		backup.Size = info.Size()
	}
	if err := h.DB.Create(&backup).Error; err != nil {
		_ = os.Remove(filePath)
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "save backup record failed")
		return
	}

	util.Success(c, util.Response{
		"backup": gin.H{
			"id":         backup.ID,
			"file_name":  backup.FileName,
			"size":       backup.Size,
			"created_at": backup.CreatedAt,
		},
	})
}

func (h *BackupHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var backups []models.Backup
	if err := h.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&backups).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		return
	}

	resp := make([]gin.H, 0, len(backups))
	for _, b := range backups {
		resp = append(resp, gin.H{
			"id":         b.ID,
			"file_name":  b.FileName,
			"size":       b.Size,
			"created_at": b.CreatedAt,
		})
	}
	util.Success(c, util.Response{"backups": resp})
}

func (h *BackupHandler) Download(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var backup models.Backup
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&backup).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	c.FileAttachment(backup.FilePath, backup.FileName)
}

func (h *BackupHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var backup models.Backup
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&backup).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	if err := h.DB.Delete(&backup).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete failed")
		return
	}
	_ = os.Remove(backup.FilePath)

	util.Success(c, util.Response{"deleted": id})
}

// Restore replaces the owner's business data with a snapshot's
// contents inside one transaction.
func (h *BackupHandler) Restore(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var backup models.Backup
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&backup).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "backup not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query failed")
		}
		return
	}

	data, err := os.ReadFile(backup.FilePath)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "read backup failed")
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "backup file is corrupt")
		return
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&models.Student{}, &models.ScheduleEntry{}, &models.Payment{},
			&models.Grading{}, &models.Course{},
		} {
			if err := tx.Where("user_id = ?", user.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		for i := range snap.Students {
			snap.Students[i].UserID = user.ID
			if err := tx.Create(&snap.Students[i]).Error; err != nil {
				return err
			}
		}
		for i := range snap.Entries {
			snap.Entries[i].UserID = user.ID
			if err := tx.Create(&snap.Entries[i]).Error; err != nil {
				return err
			}
		}
		for i := range snap.Payments {
			snap.Payments[i].UserID = user.ID
			if err := tx.Create(&snap.Payments[i]).Error; err != nil {
				return err
			}
		}
		for i := range snap.Gradings {
			snap.Gradings[i].UserID = user.ID
			if err := tx.Create(&snap.Gradings[i]).Error; err != nil {
				return err
			}
		}
		for i := range snap.Courses {
			snap.Courses[i].UserID = user.ID
			if err := tx.Create(&snap.Courses[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "restore failed")
		return
	}

	util.Success(c, util.Response{
		"restored": gin.H{
			"students": len(snap.Students),
			"entries":  len(snap.Entries),
			"payments": len(snap.Payments),
			"gradings": len(snap.Gradings),
			"courses":  len(snap.Courses),
		},
	})
}
