package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

// AttendanceFilter narrows an operator query. Empty fields do not filter;
// a non-nil empty UserIDs matches nothing.
type AttendanceFilter struct {
	Role    string
	Start   string
	End     string
	UserIDs []uint
}

type AttendanceRepository interface {
	Transaction(ctx context.Context, fn func(repo AttendanceRepository) error) error
	GetByUserAndDate(ctx context.Context, userID uint, date string) (*models.AttendanceRecord, error)
	CreateRecord(ctx context.Context, record *models.AttendanceRecord) error
	AddEvent(ctx context.Context, record *models.AttendanceRecord, event *models.AttendanceEvent) error
	GetByUserID(ctx context.Context, userID uint) ([]*models.AttendanceRecord, error)
	Filter(ctx context.Context, filter AttendanceFilter) ([]*models.AttendanceRecord, error)
	GetByDate(ctx context.Context, date string) ([]*models.AttendanceRecord, error)
}

type GormAttendanceRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormAttendanceRepository(db *gorm.DB, logger *logrus.Logger) (*GormAttendanceRepository, error) {
	if err := db.AutoMigrate(&models.AttendanceRecord{}, &models.AttendanceEvent{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate attendance tables")
		return nil, err
	}

	logger.Info("Attendance repository initialized")
	return &GormAttendanceRepository{db: db, logger: logger}, nil
}

func (r *GormAttendanceRepository) Transaction(ctx context.Context, fn func(repo AttendanceRepository) error) error {
	return transaction(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&GormAttendanceRepository{db: tx, logger: r.logger})
	})
}

func orderedEvents(db *gorm.DB) *gorm.DB {
	return db.Order("time ASC, id ASC")
}

func (r *GormAttendanceRepository) GetByUserAndDate(ctx context.Context, userID uint, date string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	result := r.db.WithContext(ctx).
		Preload("Events", orderedEvents).
		Where("user_id = ? AND date = ?", userID, date).
		First(&record)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get attendance record by user and date")
		return nil, result.Error
	}
	return &record, nil
}

func (r *GormAttendanceRepository) CreateRecord(ctx context.Context, record *models.AttendanceRecord) error {
	if err := r.db.WithContext(ctx).Omit("Events", "User").Create(record).Error; err != nil {
		return mapWriteError(err)
	}

	r.logger.WithFields(logrus.Fields{
		"id":      record.ID,
		"user_id": record.UserID,
		"date":    record.Date,
	}).Debug("Attendance record created")
	return nil
}

// AddEvent appends event to record and refreshes the stored total hours.
func (r *GormAttendanceRepository) AddEvent(ctx context.Context, record *models.AttendanceRecord, event *models.AttendanceEvent) error {
	event.RecordID = record.ID
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return mapWriteError(err)
	}

	record.Events = append(record.Events, *event)
	record.TotalHours = record.CalculateHours()

	err := r.db.WithContext(ctx).Model(&models.AttendanceRecord{}).
		Where("id = ?", record.ID).
		Update("total_hours", record.TotalHours).Error
	if err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"record_id": record.ID,
		"user_id":   record.UserID,
		"type":      event.Type,
	}).Info("Attendance event added")
	return nil
}

func (r *GormAttendanceRepository) GetByUserID(ctx context.Context, userID uint) ([]*models.AttendanceRecord, error) {
	var records []*models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Events", orderedEvents).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&records).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to get attendance records by user ID")
		return nil, err
	}
	return records, nil
}

func (r *GormAttendanceRepository) Filter(ctx context.Context, filter AttendanceFilter) ([]*models.AttendanceRecord, error) {
	if filter.UserIDs != nil && len(filter.UserIDs) == 0 {
		return []*models.AttendanceRecord{}, nil
	}

	query := r.db.WithContext(ctx).Preload("Events", orderedEvents).Preload("User")
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Start != "" {
		query = query.Where("date >= ?", filter.Start)
	}
	if filter.End != "" {
		query = query.Where("date <= ?", filter.End)
	}
	if filter.UserIDs != nil {
		query = query.Where("user_id IN ?", filter.UserIDs)
	}

	var records []*models.AttendanceRecord
	if err := query.Order("date DESC, user_id ASC").Find(&records).Error; err != nil {
		r.logger.WithError(err).Error("Failed to filter attendance records")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"role":  filter.Role,
		"start": filter.Start,
		"end":   filter.End,
		"count": len(records),
	}).Debug("Filtered attendance records")
	return records, nil
}

func (r *GormAttendanceRepository) GetByDate(ctx context.Context, date string) ([]*models.AttendanceRecord, error) {
	var records []*models.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Events", orderedEvents).
		Preload("User").
		Where("date = ?", date).
		Find(&records).Error
	return records, err
}
