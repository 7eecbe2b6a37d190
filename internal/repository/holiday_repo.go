package repository

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

type HolidayRepository interface {
	ReplaceAll(ctx context.Context, days []models.Holiday) error
	GetByYear(ctx context.Context, year int) ([]models.Holiday, error)
	DatesBetween(ctx context.Context, start, end string) (map[string]bool, error)
	IsHoliday(ctx context.Context, date string) (bool, error)
}

type GormHolidayRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormHolidayRepository(db *gorm.DB, logger *logrus.Logger) (*GormHolidayRepository, error) {
	if err := db.AutoMigrate(&models.Holiday{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate holidays table")
		return nil, err
	}
	return &GormHolidayRepository{db: db, logger: logger}, nil
}

// ReplaceAll swaps the stored calendar for days in one transaction.
func (r *GormHolidayRepository) ReplaceAll(ctx context.Context, days []models.Holiday) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Holiday{}).Error; err != nil {
			return err
		}
		if len(days) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&days, 100).Error; err != nil {
			return mapWriteError(err)
		}
		r.logger.WithField("count", len(days)).Info("Holiday calendar replaced")
		return nil
	})
}

func (r *GormHolidayRepository) GetByYear(ctx context.Context, year int) ([]models.Holiday, error) {
	var days []models.Holiday
	query := r.db.WithContext(ctx)
	if year > 0 {
		query = query.Where("year = ?", year)
	}
	err := query.Order("date ASC").Find(&days).Error
	return days, err
}

// DatesBetween returns the set of holiday keys within [start, end].
func (r *GormHolidayRepository) DatesBetween(ctx context.Context, start, end string) (map[string]bool, error) {
	var dates []string
	err := r.db.WithContext(ctx).Model(&models.Holiday{}).
		Where("date >= ? AND date <= ?", start, end).
		Pluck("date", &dates).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d] = true
	}
	return set, nil
}

func (r *GormHolidayRepository) IsHoliday(ctx context.Context, date string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Holiday{}).Where("date = ?", date).Count(&count).Error
	return count > 0, err
}
