package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
)

type SetSalaryInput struct {
	UserID     uint
	Month      string
	BaseSalary float64
	Bonus      float64
	Deductions float64
}

type SalaryService struct {
	salaries repository.SalaryRepository
	users    repository.UserRepository
	revenue  *RevenueService
	logger   *logrus.Logger
}

func NewSalaryService(salaries repository.SalaryRepository, users repository.UserRepository, revenue *RevenueService, logger *logrus.Logger) *SalaryService {
	return &SalaryService{
		salaries: salaries,
		users:    users,
		revenue:  revenue,
		logger:   logger,
	}
}

// Set creates or updates the month's salary (stipend for interns) and books
// the total as revenue. Admins set anyone's salary, managers their reports'.
func (s *SalaryService) Set(ctx context.Context, actor *models.User, input SetSalaryInput) (*models.SalaryRecord, error) {
	input.Month = strings.TrimSpace(input.Month)
	if input.UserID == 0 || input.BaseSalary <= 0 || input.Month == "" {
		return nil, apperror.Validation("userId, baseSalary and month are required")
	}
	if !models.IsValidMonth(input.Month) {
		return nil, apperror.Validation("invalid month, expected YYYY-MM")
	}
	if input.Bonus < 0 || input.Deductions < 0 {
		return nil, apperror.Validation("bonus and deductions must not be negative")
	}

	target, err := loadUser(ctx, s.users, input.UserID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin():
	case actor.IsManager():
		if !target.ReportsTo(actor.ID) {
			return nil, apperror.Forbidden("you can update stipend only for your assigned team")
		}
	default:
		return nil, apperror.Forbidden("unauthorized action")
	}

	paymentType := models.RevenueTypeSalary
	if target.IsIntern() {
		paymentType = models.RevenueTypeStipend
	}

	record, err := s.salaries.GetByUserAndMonth(ctx, target.ID, input.Month)
	if err != nil {
		return nil, apperror.Internal("failed to load salary", err)
	}
	if record == nil {
		record = &models.SalaryRecord{UserID: target.ID, Month: input.Month}
	}
	record.BaseSalary = input.BaseSalary
	record.Bonus = input.Bonus
	record.Deductions = input.Deductions
	record.Type = paymentType
	record.UpdatedByID = &actor.ID

	if err := s.salaries.Save(ctx, record); err != nil {
		return nil, apperror.Internal("failed to save salary", err)
	}

	if err := s.revenue.sync(ctx, actor, record); err != nil {
		s.logger.WithError(err).WithField("salary_id", record.ID).Error("Failed to sync salary with revenue")
		return nil, apperror.Internal("salary saved but revenue sync failed", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  target.ID,
		"month":    record.Month,
		"type":     record.Type,
		"total":    record.TotalSalary,
		"actor_id": actor.ID,
	}).Info("Salary set")
	return record, nil
}

// History lists a user's salary records, newest month first.
func (s *SalaryService) History(ctx context.Context, actor *models.User, userID uint) ([]*models.SalaryRecord, error) {
	if _, err := loadViewable(ctx, s.users, actor, userID); err != nil {
		return nil, err
	}

	records, err := s.salaries.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to load salary history", err)
	}
	return records, nil
}
