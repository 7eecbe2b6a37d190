package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

type SalaryRepository interface {
	GetByUserAndMonth(ctx context.Context, userID uint, month string) (*models.SalaryRecord, error)
	Save(ctx context.Context, record *models.SalaryRecord) error
	GetByUserID(ctx context.Context, userID uint) ([]*models.SalaryRecord, error)
}

type GormSalaryRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormSalaryRepository(db *gorm.DB, logger *logrus.Logger) (*GormSalaryRepository, error) {
	if err := db.AutoMigrate(&models.SalaryRecord{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate salary_records table")
		return nil, err
	}
	return &GormSalaryRepository{db: db, logger: logger}, nil
}

func (r *GormSalaryRepository) GetByUserAndMonth(ctx context.Context, userID uint, month string) (*models.SalaryRecord, error) {
	var record models.SalaryRecord
	result := r.db.WithContext(ctx).Where("user_id = ? AND month = ?", userID, month).First(&record)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

// Save inserts a new record or updates an existing one.
func (r *GormSalaryRepository) Save(ctx context.Context, record *models.SalaryRecord) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return mapWriteError(err)
	}

	r.logger.WithFields(logrus.Fields{
		"id":      record.ID,
		"user_id": record.UserID,
		"month":   record.Month,
		"total":   record.TotalSalary,
	}).Info("Salary record saved")
	return nil
}

func (r *GormSalaryRepository) GetByUserID(ctx context.Context, userID uint) ([]*models.SalaryRecord, error) {
	var records []*models.SalaryRecord
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("month DESC").Find(&records).Error
	return records, err
}
