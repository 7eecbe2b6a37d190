package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
)

type ApplyLeaveInput struct {
	Type     string
	FromDate string
	ToDate   string
	Reason   string
}

type LeaveBalance struct {
	Total     int `json:"total"`
	Used      int `json:"used"`
	Remaining int `json:"remaining"`
}

type LeaveSummary struct {
	Casual LeaveBalance `json:"casual"`
	Sick   LeaveBalance `json:"sick"`
}

type LeaveService struct {
	leaves   repository.LeaveRepository
	users    repository.UserRepository
	notifier Notifier
	clock    Clock
	logger   *logrus.Logger
}

func NewLeaveService(
	leaves repository.LeaveRepository,
	users repository.UserRepository,
	notifier Notifier,
	clock Clock,
	logger *logrus.Logger,
) *LeaveService {
	return &LeaveService{
		leaves:   leaves,
		users:    users,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// Apply files a pending leave request for the requester. Checks run in a
// fixed order and the first failing one is reported.
func (s *LeaveService) Apply(ctx context.Context, requester *models.User, input ApplyLeaveInput) (*models.LeaveRequest, error) {
	input.Type = strings.TrimSpace(input.Type)
	input.Reason = strings.TrimSpace(input.Reason)
	if input.Type == "" || strings.TrimSpace(input.FromDate) == "" || strings.TrimSpace(input.ToDate) == "" || input.Reason == "" {
		return nil, apperror.Validation("all fields required")
	}

	if requester.IsIntern() {
		return nil, apperror.Forbidden("interns are not allowed to apply for leave")
	}

	if !models.IsValidLeaveType(input.Type) {
		return nil, apperror.Validation("invalid leave type")
	}

	from, err := models.ParseDate(input.FromDate)
	if err != nil {
		return nil, apperror.Validation("invalid from date, expected YYYY-MM-DD")
	}
	to, err := models.ParseDate(input.ToDate)
	if err != nil {
		return nil, apperror.Validation("invalid to date, expected YYYY-MM-DD")
	}
	requested := models.DaysInclusive(from, to)
	if requested < 1 {
		return nil, apperror.Validation("to date cannot be before from date")
	}

	leave := &models.LeaveRequest{
		UserID:    requester.ID,
		Type:      input.Type,
		FromDate:  models.DateKey(from),
		ToDate:    models.DateKey(to),
		Reason:    input.Reason,
		Status:    models.LeaveStatusPending,
		LeaveYear: s.clock.Now().Year(),
	}

	err = s.leaves.Transaction(ctx, func(repo repository.LeaveRepository) error {
		used, err := repo.SumApprovedDays(ctx, requester.ID, leave.Type, leave.LeaveYear)
		if err != nil {
			return err
		}
		if requester.LeaveAllotment(leave.Type)-used < requested {
			return apperror.Newf(apperror.CodeInsufficientBalance, "%s leave balance insufficient", leave.Type)
		}

		overlap, err := repo.FindOverlap(ctx, requester.ID, leave.FromDate, leave.ToDate)
		if err != nil {
			return err
		}
		if overlap != nil {
			return apperror.Newf(apperror.CodeConflict,
				"leave overlaps with existing leave from %s to %s", overlap.FromDate, overlap.ToDate)
		}

		return repo.Create(ctx, leave)
	})
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			s.logger.WithFields(logrus.Fields{
				"user_id": requester.ID,
				"code":    appErr.Code,
			}).Info("Leave application rejected")
			return nil, appErr
		}
		s.logger.WithError(err).Error("Failed to apply for leave")
		return nil, apperror.Internal("failed to apply for leave", err)
	}

	s.notifyApprovers(ctx, requester, leave)
	return leave, nil
}

// Summary reports the requester's balance for the current leave year.
func (s *LeaveService) Summary(ctx context.Context, user *models.User) (*LeaveSummary, error) {
	summary := &LeaveSummary{}
	if user.IsIntern() {
		return summary, nil
	}

	year := s.clock.Now().Year()
	for _, leaveType := range models.LeaveTypes {
		used, err := s.leaves.SumApprovedDays(ctx, user.ID, leaveType, year)
		if err != nil {
			return nil, apperror.Internal("failed to load leave balance", err)
		}

		total := user.LeaveAllotment(leaveType)
		balance := LeaveBalance{Total: total, Used: used, Remaining: max(total-used, 0)}

		switch leaveType {
		case models.LeaveTypeCasual:
			summary.Casual = balance
		case models.LeaveTypeSick:
			summary.Sick = balance
		}
	}
	return summary, nil
}

// My returns the user's own requests, newest first.
func (s *LeaveService) My(ctx context.Context, user *models.User) ([]*models.LeaveRequest, error) {
	leaves, err := s.leaves.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load leaves", err)
	}
	return leaves, nil
}

// Pending returns the pending requests actor is allowed to decide.
func (s *LeaveService) Pending(ctx context.Context, actor *models.User) ([]*models.LeaveRequest, error) {
	var scope []uint
	switch {
	case actor.IsAdmin():
	case actor.IsManager():
		reports, err := s.users.GetReports(ctx, actor.ID, models.RoleEmployee, models.RoleIntern)
		if err != nil {
			return nil, apperror.Internal("failed to load team", err)
		}
		scope = make([]uint, 0, len(reports))
		for _, u := range reports {
			scope = append(scope, u.ID)
		}
	default:
		return nil, apperror.Forbidden("only admins and managers can review leave")
	}

	leaves, err := s.leaves.GetPending(ctx, scope)
	if err != nil {
		return nil, apperror.Internal("failed to load pending leaves", err)
	}

	visible := make([]*models.LeaveRequest, 0, len(leaves))
	for _, l := range leaves {
		if l.UserID != actor.ID {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

// canDecide applies the single approval rule: admins decide any request but
// their own, managers decide requests of their direct employees and interns.
func canDecide(actor, requester *models.User) bool {
	if actor.ID == requester.ID {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.IsManager() && requester.CanHaveManager() && requester.ReportsTo(actor.ID)
}

// Decide approves or rejects a pending request. A request is decided once.
func (s *LeaveService) Decide(ctx context.Context, actor *models.User, leaveID uint, action string) (*models.LeaveRequest, error) {
	if action != models.LeaveStatusApproved && action != models.LeaveStatusRejected {
		return nil, apperror.Validation("invalid action")
	}
	if !actor.IsAdmin() && !actor.IsManager() {
		return nil, apperror.Forbidden("only admins and managers can review leave")
	}

	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		return nil, apperror.Internal("failed to load leave", err)
	}
	if leave == nil {
		return nil, apperror.NotFound("leave not found")
	}

	requester := leave.User
	if requester == nil {
		if requester, err = loadUser(ctx, s.users, leave.UserID); err != nil {
			return nil, err
		}
	}
	if !canDecide(actor, requester) {
		return nil, apperror.Forbidden("not allowed to decide this leave")
	}
	if !leave.IsPending() {
		return nil, apperror.Newf(apperror.CodeConflict, "leave is already %s", leave.Status)
	}

	decided, err := s.leaves.Decide(ctx, leave, action, actor, s.clock.Now())
	if err != nil {
		return nil, apperror.Internal("failed to decide leave", err)
	}
	if !decided {
		return nil, apperror.Conflict("leave was already decided")
	}

	s.notify(ctx, requester, fmt.Sprintf("Your %s leave %s..%s was %s by %s.",
		leave.Type, leave.FromDate, leave.ToDate, action, actor.Name))
	return leave, nil
}

func (s *LeaveService) notifyApprovers(ctx context.Context, requester *models.User, leave *models.LeaveRequest) {
	var approvers []*models.User
	if requester.ManagerID != nil {
		manager, err := s.users.GetByID(ctx, *requester.ManagerID)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load manager for leave notification")
		} else if manager != nil {
			approvers = append(approvers, manager)
		}
	}
	if len(approvers) == 0 {
		admins, err := s.users.GetByRole(ctx, models.RoleAdmin)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load admins for leave notification")
			return
		}
		approvers = admins
	}

	text := fmt.Sprintf("%s applied for %s leave %s..%s (%d days): %s",
		requester.Name, leave.Type, leave.FromDate, leave.ToDate, leave.TotalDays, leave.Reason)
	for _, approver := range approvers {
		if approver.ID != requester.ID {
			s.notify(ctx, approver, text)
		}
	}
}

func (s *LeaveService) notify(ctx context.Context, user *models.User, text string) {
	if err := s.notifier.Notify(ctx, user, text); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to deliver notification")
	}
}
