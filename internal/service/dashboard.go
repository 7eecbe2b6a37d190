package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
)

type Dashboard struct {
	UsersByRole      map[string]int64 `json:"usersByRole"`
	TotalUsers       int64            `json:"totalUsers"`
	ActiveToday      int              `json:"activeToday"`
	PendingLeaves    int              `json:"pendingLeaves"`
	RevenueThisMonth float64          `json:"revenueThisMonth"`
}

type DashboardService struct {
	users      repository.UserRepository
	revenue    repository.RevenueRepository
	attendance *AttendanceService
	leaves     *LeaveService
	clock      Clock
	logger     *logrus.Logger
}

func NewDashboardService(
	users repository.UserRepository,
	revenue repository.RevenueRepository,
	attendance *AttendanceService,
	leaves *LeaveService,
	clock Clock,
	logger *logrus.Logger,
) *DashboardService {
	return &DashboardService{
		users:      users,
		revenue:    revenue,
		attendance: attendance,
		leaves:     leaves,
		clock:      clock,
		logger:     logger,
	}
}

// Get collects the dashboard counters: company wide for admins, team wide for managers.
func (s *DashboardService) Get(ctx context.Context, actor *models.User) (*Dashboard, error) {
	scope, err := teamScope(ctx, s.users, actor)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{}

	if actor.IsAdmin() {
		dashboard.UsersByRole, err = s.users.CountByRole(ctx)
		if err != nil {
			return nil, apperror.Internal("failed to count users", err)
		}
	} else {
		team, err := s.users.GetReports(ctx, actor.ID)
		if err != nil {
			return nil, apperror.Internal("failed to load team", err)
		}
		dashboard.UsersByRole = make(map[string]int64)
		for _, u := range team {
			dashboard.UsersByRole[u.Role]++
		}
	}
	for _, n := range dashboard.UsersByRole {
		dashboard.TotalUsers += n
	}

	active, err := s.attendance.activeToday(ctx, scope)
	if err != nil {
		return nil, err
	}
	dashboard.ActiveToday = len(active)

	pending, err := s.leaves.Pending(ctx, actor)
	if err != nil {
		return nil, err
	}
	dashboard.PendingLeaves = len(pending)

	now := s.clock.Now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	until := since.AddDate(0, 1, 0).Add(-time.Nanosecond)
	dashboard.RevenueThisMonth, err = s.revenue.Sum(ctx, repository.RevenueScope{UserIDs: scope, Since: &since, Until: &until})
	if err != nil {
		return nil, apperror.Internal("failed to sum revenue", err)
	}

	return dashboard, nil
}
