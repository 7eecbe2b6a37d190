package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"crm-backend/internal/app"
	"crm-backend/internal/bot"
	"crm-backend/internal/config"
	"crm-backend/internal/database"
	"crm-backend/internal/handler"
	"crm-backend/internal/service"
	"crm-backend/pkg/telegram"
)

func main() {
	cfg := config.Get()
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Config initialized")

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.WithError(err).Error("Error closing database")
		}
	}()

	var client *telegram.Client
	var notifier service.Notifier
	if cfg.TelegramToken != "" {
		client, err = telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Telegram client")
		}
		logger.Infof("Authorized on account %s", client.Bot.Self.UserName)
		notifier = service.NewTelegramNotifier(client, logger)
	}

	a, err := app.New(db, app.Options{
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		LeaveDefaults: service.LeaveDefaults{
			Sick:   cfg.SickLeaveTotal,
			Casual: cfg.CasualLeaveTotal,
		},
		Notifier: notifier,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HolidaysFile != "" {
		count, err := a.Office.ImportHolidaysFile(ctx, cfg.HolidaysFile)
		if err != nil {
			logger.WithError(err).WithField("file", cfg.HolidaysFile).Fatal("Failed to import holidays")
		}
		logger.WithFields(logrus.Fields{"file": cfg.HolidaysFile, "days": count}).Info("Holidays imported")
	}

	var wg sync.WaitGroup
	if client != nil {
		telegramBot := bot.New(client, a.Users, a.Holidays, a.Attendance, a.Leaves, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			telegramBot.HandleUpdates(ctx, client.Updates())
		}()
		logger.Info("Telegram bot started")
	}

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.NewRouter(handler.NewHandler(a, logger), cfg.CORSOrigins),
	}

	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if client != nil {
		client.Stop()
	}
	wg.Wait()

	logger.Info("Server stopped gracefully")
}
