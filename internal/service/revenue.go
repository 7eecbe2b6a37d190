package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
)

type AddRevenueInput struct {
	UserID      uint
	Amount      float64
	Type        string
	Description string
	Date        string
}

type RevenueService struct {
	revenue repository.RevenueRepository
	users   repository.UserRepository
	clock   Clock
	logger  *logrus.Logger
}

func NewRevenueService(revenue repository.RevenueRepository, users repository.UserRepository, clock Clock, logger *logrus.Logger) *RevenueService {
	return &RevenueService{
		revenue: revenue,
		users:   users,
		clock:   clock,
		logger:  logger,
	}
}

// Add appends a revenue entry. Managers may only book entries for their
// direct reports and the entry remembers them.
func (s *RevenueService) Add(ctx context.Context, actor *models.User, input AddRevenueInput) (*models.RevenueEntry, error) {
	if input.UserID == 0 || input.Amount == 0 {
		return nil, apperror.Validation("userId and amount are required")
	}

	input.Type = strings.TrimSpace(input.Type)
	if input.Type == "" {
		input.Type = models.RevenueTypeSalary
	}
	if !models.IsValidRevenueType(input.Type) {
		return nil, apperror.Newf(apperror.CodeValidation, "invalid revenue type %q", input.Type)
	}

	date := s.clock.Now()
	if input.Date != "" {
		parsed, err := models.ParseDate(input.Date)
		if err != nil {
			return nil, apperror.Validation("invalid date, expected YYYY-MM-DD")
		}
		date = parsed
	}

	target, err := loadUser(ctx, s.users, input.UserID)
	if err != nil {
		return nil, err
	}

	entry := &models.RevenueEntry{
		UserID:      target.ID,
		Amount:      input.Amount,
		Type:        input.Type,
		Description: strings.TrimSpace(input.Description),
		Date:        date,
	}

	switch {
	case actor.IsAdmin():
	case actor.IsManager():
		if !target.ReportsTo(actor.ID) {
			return nil, apperror.Forbidden("managers can only add revenue for their team")
		}
		entry.ManagerID = &actor.ID
	default:
		return nil, apperror.Forbidden("only admins and managers can add revenue")
	}

	if err := s.revenue.Create(ctx, entry); err != nil {
		return nil, apperror.Internal("failed to add revenue", err)
	}
	return entry, nil
}

// ForUser lists a user's entries, newest first.
func (s *RevenueService) ForUser(ctx context.Context, actor *models.User, userID uint) ([]*models.RevenueEntry, error) {
	if _, err := loadViewable(ctx, s.users, actor, userID); err != nil {
		return nil, err
	}

	entries, err := s.revenue.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to load revenue", err)
	}
	return entries, nil
}

// sync books the salary record as a revenue entry keyed by user, type and
// description, so repeated updates of one month overwrite the same entry.
func (s *RevenueService) sync(ctx context.Context, actor *models.User, record *models.SalaryRecord) error {
	entry := &models.RevenueEntry{
		UserID:      record.UserID,
		Amount:      record.TotalSalary,
		Type:        record.Type,
		Description: record.RevenueDescription(),
		Date:        s.clock.Now(),
	}
	if actor.IsManager() {
		entry.ManagerID = &actor.ID
	}

	if err := s.revenue.Upsert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return apperror.Conflict("revenue entry was updated concurrently")
		}
		return err
	}
	return nil
}
