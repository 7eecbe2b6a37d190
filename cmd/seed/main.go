package main

import (
	"context"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/app"
	"crm-backend/internal/config"
	"crm-backend/internal/database"
	"crm-backend/internal/models"
	"crm-backend/internal/service"
)

func main() {
	cfg := config.Get()
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer database.Close(db)

	a, err := app.New(db, app.Options{
		JWTSecret: cfg.JWTSecret,
		JWTTTL:    cfg.JWTTTL,
		LeaveDefaults: service.LeaveDefaults{
			Sick:   cfg.SickLeaveTotal,
			Casual: cfg.CasualLeaveTotal,
		},
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}

	ctx := context.Background()
	admin := seed(ctx, a, logger, service.CreateUserInput{
		Name:     "Admin",
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPass,
		Role:     models.RoleAdmin,
		Position: "Administrator",
	})
	manager := seed(ctx, a, logger, service.CreateUserInput{
		Name:     "Manager",
		Email:    "manager@glowcrm.com",
		Role:     models.RoleManager,
		Position: "Team Lead",
	})
	seed(ctx, a, logger, service.CreateUserInput{
		Name:      "Employee",
		Email:     "employee@glowcrm.com",
		Role:      models.RoleEmployee,
		Position:  "Sales Executive",
		ManagerID: &manager.ID,
	})
	seed(ctx, a, logger, service.CreateUserInput{
		Name:      "Intern",
		Email:     "intern@glowcrm.com",
		Role:      models.RoleIntern,
		Position:  "Sales Intern",
		ManagerID: &manager.ID,
	})

	logger.WithField("admin", admin.Email).Info("Seeding finished")
}

func seed(ctx context.Context, a *app.App, logger *logrus.Logger, input service.CreateUserInput) *models.User {
	user, created, err := a.UserService.Seed(ctx, input)
	if err != nil {
		logger.WithError(err).WithField("email", input.Email).Fatal("Failed to seed user")
	}

	entry := logger.WithFields(logrus.Fields{"email": user.Email, "role": user.Role})
	if created {
		entry.Info("User created")
	} else {
		entry.Info("User already exists")
	}
	return user
}
