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

type MarkInput struct {
	UserID   uint
	Role     string
	Type     string
	ClientIP string
}

type FilterInput struct {
	Role  string
	Start string
	End   string
}

// DaySummary is one day of a user's attendance history.
type DaySummary struct {
	Date       string                   `json:"date"`
	TotalHours float64                  `json:"totalHours"`
	Events     []models.AttendanceEvent `json:"events"`
	Holiday    bool                     `json:"holiday"`
}

type AttendanceSummary struct {
	TotalDays int          `json:"totalDays"`
	Summary   []DaySummary `json:"summary"`
}

type AttendanceService struct {
	attendance repository.AttendanceRepository
	users      repository.UserRepository
	holidays   repository.HolidayRepository
	office     repository.OfficeConfigRepository
	clock      Clock
	logger     *logrus.Logger
}

func NewAttendanceService(
	attendance repository.AttendanceRepository,
	users repository.UserRepository,
	holidays repository.HolidayRepository,
	office repository.OfficeConfigRepository,
	clock Clock,
	logger *logrus.Logger,
) *AttendanceService {
	return &AttendanceService{
		attendance: attendance,
		users:      users,
		holidays:   holidays,
		office:     office,
		clock:      clock,
		logger:     logger,
	}
}

// MarkEvent appends an event of the given type to today's record of the user,
// creating the record on the first event of the day.
func (s *AttendanceService) MarkEvent(ctx context.Context, input MarkInput) (*models.AttendanceRecord, error) {
	if input.UserID == 0 || input.Role == "" || input.Type == "" {
		return nil, apperror.Validation("user id, role and type are required")
	}
	if !models.IsValidEventType(input.Type) {
		return nil, apperror.Newf(apperror.CodeValidation, "invalid attendance type: %s", input.Type)
	}

	if input.ClientIP != "" {
		cfg, err := s.office.Get(ctx)
		if err != nil {
			return nil, apperror.Internal("failed to load office config", err)
		}
		if !cfg.AllowsIP(input.ClientIP) {
			s.logger.WithFields(logrus.Fields{
				"user_id": input.UserID,
				"ip":      input.ClientIP,
			}).Warn("Attendance mark from a non-office address")
			return nil, apperror.Forbidden("attendance can only be marked from the office network")
		}
	}

	now := s.clock.Now()
	date := models.DateKey(now)

	var record *models.AttendanceRecord
	err := s.attendance.Transaction(ctx, func(repo repository.AttendanceRepository) error {
		var err error
		record, err = repo.GetByUserAndDate(ctx, input.UserID, date)
		if err != nil {
			return err
		}

		if record == nil {
			record = &models.AttendanceRecord{
				UserID: input.UserID,
				Role:   input.Role,
				Date:   date,
				Events: []models.AttendanceEvent{},
			}
			if err := repo.CreateRecord(ctx, record); err != nil {
				return err
			}
		}

		if record.HasEvent(input.Type) {
			return apperror.Newf(apperror.CodeConflict, "%s already marked for today", input.Type)
		}

		return repo.AddEvent(ctx, record, &models.AttendanceEvent{Type: input.Type, Time: now})
	})
	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Newf(apperror.CodeConflict, "%s already marked for today", input.Type)
		}
		s.logger.WithError(err).Error("Failed to mark attendance")
		return nil, apperror.Internal("failed to mark attendance", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": input.UserID,
		"date":    date,
		"type":    input.Type,
		"hours":   record.TotalHours,
	}).Info("Attendance marked")
	return record, nil
}

// Summary returns the full per-day history of a user, newest first.
func (s *AttendanceService) Summary(ctx context.Context, actor *models.User, userID uint) (*AttendanceSummary, error) {
	if _, err := loadViewable(ctx, s.users, actor, userID); err != nil {
		return nil, err
	}
	return s.summary(ctx, userID)
}

func (s *AttendanceService) summary(ctx context.Context, userID uint) (*AttendanceSummary, error) {
	records, err := s.attendance.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("failed to load attendance", err)
	}

	result := &AttendanceSummary{TotalDays: len(records), Summary: []DaySummary{}}
	if len(records) == 0 {
		return result, nil
	}

	// records are newest first
	holidays, err := s.holidays.DatesBetween(ctx, records[len(records)-1].Date, records[0].Date)
	if err != nil {
		return nil, apperror.Internal("failed to load holidays", err)
	}

	for _, r := range records {
		result.Summary = append(result.Summary, DaySummary{
			Date:       r.Date,
			TotalHours: r.CalculateHours(),
			Events:     r.Events,
			Holiday:    holidays[r.Date],
		})
	}
	return result, nil
}

// Filter returns records matching the input that actor may see: admins see
// everyone, managers their direct reports.
func (s *AttendanceService) Filter(ctx context.Context, actor *models.User, input FilterInput) ([]*models.AttendanceRecord, error) {
	filter, err := s.buildFilter(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	records, err := s.attendance.Filter(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("failed to filter attendance", err)
	}
	return records, nil
}

func (s *AttendanceService) buildFilter(ctx context.Context, actor *models.User, input FilterInput) (repository.AttendanceFilter, error) {
	var filter repository.AttendanceFilter

	role := strings.TrimSpace(input.Role)
	if role != "" && !models.IsValidRole(role) {
		return filter, apperror.Newf(apperror.CodeValidation, "invalid role %q", role)
	}
	filter.Role = role

	var err error
	if filter.Start, err = optionalDateKey(input.Start, "start"); err != nil {
		return filter, err
	}
	if filter.End, err = optionalDateKey(input.End, "end"); err != nil {
		return filter, err
	}

	filter.UserIDs, err = teamScope(ctx, s.users, actor)
	return filter, err
}

// ActiveToday returns today's records that have a checkIn and no checkOut,
// limited to the actor's team for managers.
func (s *AttendanceService) ActiveToday(ctx context.Context, actor *models.User) ([]*models.AttendanceRecord, error) {
	scope, err := teamScope(ctx, s.users, actor)
	if err != nil {
		return nil, err
	}
	return s.activeToday(ctx, scope)
}

func (s *AttendanceService) activeToday(ctx context.Context, scope []uint) ([]*models.AttendanceRecord, error) {
	records, err := s.attendance.GetByDate(ctx, models.DateKey(s.clock.Now()))
	if err != nil {
		return nil, apperror.Internal("failed to load attendance", err)
	}

	var allowed map[uint]bool
	if scope != nil {
		allowed = make(map[uint]bool, len(scope))
		for _, id := range scope {
			allowed[id] = true
		}
	}

	active := []*models.AttendanceRecord{}
	for _, r := range records {
		if allowed != nil && !allowed[r.UserID] {
			continue
		}
		if r.IsOpen() {
			active = append(active, r)
		}
	}
	return active, nil
}

// Today returns the user's record for today, or nil before the first mark.
func (s *AttendanceService) Today(ctx context.Context, userID uint) (*models.AttendanceRecord, error) {
	record, err := s.attendance.GetByUserAndDate(ctx, userID, models.DateKey(s.clock.Now()))
	if err != nil {
		return nil, apperror.Internal("failed to load attendance", err)
	}
	return record, nil
}

func (s *AttendanceService) TodayKey() string {
	return models.DateKey(s.clock.Now())
}

func optionalDateKey(value, field string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	key, err := models.NormalizeDateKey(value)
	if err != nil {
		return "", apperror.Validation(fmt.Sprintf("invalid %s date, expected YYYY-MM-DD", field))
	}
	return key, nil
}
