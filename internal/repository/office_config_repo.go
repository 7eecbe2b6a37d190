package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

type OfficeConfigRepository interface {
	Get(ctx context.Context) (*models.OfficeConfig, error)
	Save(ctx context.Context, cfg *models.OfficeConfig) error
}

type GormOfficeConfigRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormOfficeConfigRepository(db *gorm.DB, logger *logrus.Logger) (*GormOfficeConfigRepository, error) {
	if err := db.AutoMigrate(&models.OfficeConfig{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate office_configs table")
		return nil, err
	}
	return &GormOfficeConfigRepository{db: db, logger: logger}, nil
}

// Get returns the office configuration, or nil when none was saved yet.
func (r *GormOfficeConfigRepository) Get(ctx context.Context) (*models.OfficeConfig, error) {
	var cfg models.OfficeConfig
	result := r.db.WithContext(ctx).Order("id ASC").First(&cfg)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &cfg, nil
}

func (r *GormOfficeConfigRepository) Save(ctx context.Context, cfg *models.OfficeConfig) error {
	if err := r.db.WithContext(ctx).Save(cfg).Error; err != nil {
		return err
	}
	r.logger.WithField("allowed_ips", len(cfg.AllowedIPs)).Info("Office config saved")
	return nil
}
