package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/billing"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/config"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/database"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/ledger"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/notify"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/router"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/scheduling"
	"github.com/ZivGohasi57/Private-Tutor-CRM/internal/store"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := ensureDir(filepath.Dir(cfg.Database.Path)); err != nil {
		log.Fatalf("create data dir: %v", err)
	}
	if err := ensureDir(filepath.Dir(cfg.Log.File)); err != nil {
		log.Fatalf("create log dir: %v", err)
	}
	if err := ensureDir(cfg.Backup.Dir); err != nil {
		log.Fatalf("create backup dir: %v", err)
	}

	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	hub := store.NewHub()
	st := store.New(db, hub)
	rec := ledger.NewReconciler(st)
	svc := scheduling.NewService(st, rec)
	notifier := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if notifier.Enabled() {
		log.Printf("telegram notifications enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := billing.NewSweeper(st, rec, notifier,
		time.Duration(cfg.Billing.SweepIntervalSeconds)*time.Second)
	go sweeper.Run(ctx)

	reminders := billing.NewReminders(st, notifier,
		time.Duration(cfg.Billing.ReminderIntervalSeconds)*time.Second)
	go reminders.Run(ctx)

	r := router.Setup(cfg, st, svc, rec)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
