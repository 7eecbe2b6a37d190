package service

import (
	"context"
	"net"
	"strings"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
	"crm-backend/pkg/holidays"
)

type OfficeService struct {
	config   repository.OfficeConfigRepository
	holidays repository.HolidayRepository
	logger   *logrus.Logger
}

func NewOfficeService(config repository.OfficeConfigRepository, holidays repository.HolidayRepository, logger *logrus.Logger) *OfficeService {
	return &OfficeService{
		config:   config,
		holidays: holidays,
		logger:   logger,
	}
}

// Config returns the office settings; an unsaved config allows every address.
func (s *OfficeService) Config(ctx context.Context) (*models.OfficeConfig, error) {
	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to load office config", err)
	}
	if cfg == nil {
		cfg = &models.OfficeConfig{AllowedIPs: []string{}}
	}
	return cfg, nil
}

// SetAllowedIPs replaces the list of addresses attendance may be marked from.
func (s *OfficeService) SetAllowedIPs(ctx context.Context, actor *models.User, ips []string) (*models.OfficeConfig, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can change office settings")
	}

	cleaned := []string{}
	seen := make(map[string]bool)
	for _, raw := range ips {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		ip := net.ParseIP(raw)
		if ip == nil {
			return nil, apperror.Newf(apperror.CodeValidation, "invalid IP address %q", raw)
		}
		normalized := ip.String()
		if !seen[normalized] {
			seen[normalized] = true
			cleaned = append(cleaned, normalized)
		}
	}

	cfg, err := s.config.Get(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to load office config", err)
	}
	if cfg == nil {
		cfg = &models.OfficeConfig{}
	}
	cfg.AllowedIPs = cleaned
	cfg.UpdatedByID = &actor.ID

	if err := s.config.Save(ctx, cfg); err != nil {
		return nil, apperror.Internal("failed to save office config", err)
	}
	return cfg, nil
}

// Holidays lists the calendar, limited to one year when year > 0.
func (s *OfficeService) Holidays(ctx context.Context, year int) ([]models.Holiday, error) {
	days, err := s.holidays.GetByYear(ctx, year)
	if err != nil {
		return nil, apperror.Internal("failed to load holidays", err)
	}
	return days, nil
}

// ImportHolidays replaces the calendar with the days of a calendar document.
func (s *OfficeService) ImportHolidays(ctx context.Context, actor *models.User, data []byte) (int, error) {
	if !actor.IsAdmin() {
		return 0, apperror.Forbidden("only admins can import holidays")
	}

	days, err := holidays.Parse(data)
	if err != nil {
		return 0, apperror.Validation(err.Error())
	}
	return s.replaceHolidays(ctx, days)
}

// ImportHolidaysFile loads the calendar from disk at startup.
func (s *OfficeService) ImportHolidaysFile(ctx context.Context, path string) (int, error) {
	days, err := holidays.ParseFile(path)
	if err != nil {
		return 0, err
	}
	return s.replaceHolidays(ctx, days)
}

func (s *OfficeService) replaceHolidays(ctx context.Context, days []holidays.Day) (int, error) {
	rows := make([]models.Holiday, 0, len(days))
	for _, d := range days {
		rows = append(rows, models.Holiday{
			Date:  d.Key(),
			Year:  d.Year,
			Month: d.Month,
			Day:   d.Day,
		})
	}

	if err := s.holidays.ReplaceAll(ctx, rows); err != nil {
		return 0, apperror.Internal("failed to save holidays", err)
	}

	s.logger.WithField("count", len(rows)).Info("Holidays imported")
	return len(rows), nil
}
