package router

import (
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/config"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/handler"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/ledger"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/metrics"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/middleware"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/scheduling"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/store"

	"github.com/gin-gonic/gin"
)

// Setup wires the gin engine: auth, the API surface and /metrics.
func Setup(cfg *config.Config, st *store.Store, svc *scheduling.Service, rec *ledger.Reconciler) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	db := st.DB()
	hub := st.Hub()

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(db, cfg.JWT.Secret, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(cfg.JWT.Secret, db),
		middleware.AuditMiddleware(db),
	)

	userHandler := handler.NewUserHandler(db)
	protected.GET("/me", userHandler.Me)
	protected.POST("/profile", userHandler.UpdateProfile)
	protected.POST("/profile/password", userHandler.ChangePassword)

	studentHandler := handler.NewStudentHandler(db, hub, rec)
	protected.POST("/students", studentHandler.Create)
	protected.GET("/students", studentHandler.List)
	protected.PUT("/students/:id", studentHandler.Update)
	protected.DELETE("/students/:id", studentHandler.Delete)
	protected.GET("/students/:id/history", studentHandler.History)

	scheduleHandler := handler.NewScheduleHandler(svc, st)
	protected.GET("/schedule", scheduleHandler.List)
	protected.POST("/schedule/lessons", scheduleHandler.CreateLessons)
	protected.POST("/schedule/lessons/suggest-price", scheduleHandler.SuggestPrice)
	protected.POST("/schedule/blocks", scheduleHandler.CreateBlock)
	protected.PUT("/schedule/:id", scheduleHandler.Update)
	protected.DELETE("/schedule/:id", scheduleHandler.Delete)

	paymentHandler := handler.NewPaymentHandler(db, rec)
	protected.POST("/payments", paymentHandler.Create)
	protected.GET("/payments", paymentHandler.List)
	protected.DELETE("/payments/:id", paymentHandler.Delete)

	gradingHandler := handler.NewGradingHandler(db, hub)
	protected.POST("/gradings", gradingHandler.Create)
	protected.GET("/gradings", gradingHandler.List)
	protected.DELETE("/gradings/:id", gradingHandler.Delete)

	courseHandler := handler.NewCourseHandler(db)
	protected.POST("/courses", courseHandler.Create)
	protected.GET("/courses", courseHandler.List)
	protected.DELETE("/courses/:id", courseHandler.Delete)

	ratesHandler := handler.NewRatesHandler(db)
	protected.GET("/rates", ratesHandler.Get)
	protected.PUT("/rates", ratesHandler.Put)
	protected.DELETE("/rates", ratesHandler.Reset)

	reportHandler := handler.NewReportHandler(db)
	protected.GET("/reports/monthly", reportHandler.Monthly)
	protected.GET("/reports/future-income", reportHandler.FutureIncome)

	exportHandler := handler.NewExportHandler(db)
	protected.GET("/export/csv", exportHandler.CSV)
	protected.GET("/export/xlsx", exportHandler.XLSX)

	backupHandler := handler.NewBackupHandler(db, cfg.Backup.Dir)
	protected.POST("/backups", backupHandler.Create)
	protected.GET("/backups", backupHandler.List)
	protected.GET("/backups/:id/download", backupHandler.Download)
	protected.POST("/backups/:id/restore", backupHandler.Restore)
	protected.DELETE("/backups/:id", backupHandler.Delete)

	auditHandler := handler.NewAuditHandler(db, cfg.App.PageSize)
	protected.GET("/logs", auditHandler.List)

	streamHandler := handler.NewStreamHandler(db, hub)
	protected.GET("/stream/:topic", streamHandler.Subscribe)

	return r
}
