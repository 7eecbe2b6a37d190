package service

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
)

const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
)

// DailyRevenue is the revenue booked on one calendar day.
type DailyRevenue struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

type TopPerformer struct {
	UserID       uint    `json:"userId"`
	Name         string  `json:"name"`
	Role         string  `json:"role"`
	TotalRevenue float64 `json:"totalRevenue"`
}

type PerformanceService struct {
	revenue repository.RevenueRepository
	users   repository.UserRepository
	clock   Clock
	logger  *logrus.Logger
}

func NewPerformanceService(revenue repository.RevenueRepository, users repository.UserRepository, clock Clock, logger *logrus.Logger) *PerformanceService {
	return &PerformanceService{
		revenue: revenue,
		users:   users,
		clock:   clock,
		logger:  logger,
	}
}

// UserSeries returns one user's revenue grouped by day, oldest first.
func (s *PerformanceService) UserSeries(ctx context.Context, actor *models.User, userID uint) ([]DailyRevenue, error) {
	if _, err := loadViewable(ctx, s.users, actor, userID); err != nil {
		return nil, err
	}
	return s.series(ctx, repository.RevenueScope{UserIDs: []uint{userID}})
}

// Series returns company revenue by day for admins and team revenue for managers.
func (s *PerformanceService) Series(ctx context.Context, actor *models.User) ([]DailyRevenue, error) {
	scope, err := teamScope(ctx, s.users, actor)
	if err != nil {
		return nil, err
	}
	return s.series(ctx, repository.RevenueScope{UserIDs: scope})
}

func (s *PerformanceService) series(ctx context.Context, scope repository.RevenueScope) ([]DailyRevenue, error) {
	entries, err := s.revenue.Find(ctx, scope)
	if err != nil {
		return nil, apperror.Internal("failed to load revenue", err)
	}

	totals := make(map[string]float64)
	for _, e := range entries {
		totals[models.DateKey(e.Date.In(time.Local))] += e.Amount
	}

	series := make([]DailyRevenue, 0, len(totals))
	for date, amount := range totals {
		series = append(series, DailyRevenue{Date: date, Amount: amount})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series, nil
}

// Window returns the inclusive time range and result size of a ranking window.
func (s *PerformanceService) Window(window string) (time.Time, time.Time, int, error) {
	now := s.clock.Now()
	switch window {
	case WindowDaily:
		return startOfDay(now), endOfDay(now), 3, nil
	case WindowWeekly:
		return startOfDay(now).AddDate(0, 0, -6), endOfDay(now), 3, nil
	case WindowMonthly:
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return first, first.AddDate(0, 1, 0).Add(-time.Nanosecond), 5, nil
	}
	return time.Time{}, time.Time{}, 0, apperror.Validation("invalid type, expected daily, weekly or monthly")
}

// Top ranks users by revenue booked in the window.
func (s *PerformanceService) Top(ctx context.Context, window string) ([]TopPerformer, error) {
	since, until, limit, err := s.Window(window)
	if err != nil {
		return nil, err
	}

	rows, err := s.revenue.TopUsers(ctx, repository.RevenueScope{Since: &since, Until: &until}, limit)
	if err != nil {
		return nil, apperror.Internal("failed to rank performers", err)
	}

	top := make([]TopPerformer, 0, len(rows))
	for _, row := range rows {
		user, err := s.users.GetByID(ctx, row.UserID)
		if err != nil {
			return nil, apperror.Internal("failed to load user", err)
		}
		if user == nil {
			continue
		}
		top = append(top, TopPerformer{
			UserID:       user.ID,
			Name:         user.Name,
			Role:         user.Role,
			TotalRevenue: row.Total,
		})
	}
	return top, nil
}
