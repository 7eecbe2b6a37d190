package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

// RevenueScope narrows revenue queries. Nil fields do not filter;
// a non-nil empty UserIDs matches nothing.
type RevenueScope struct {
	UserIDs []uint
	Since   *time.Time
	Until   *time.Time
}

// UserRevenue is one row of a per-user revenue ranking.
type UserRevenue struct {
	UserID uint
	Total  float64
}

type RevenueRepository interface {
	Create(ctx context.Context, entry *models.RevenueEntry) error
	Upsert(ctx context.Context, entry *models.RevenueEntry) error
	GetByUserID(ctx context.Context, userID uint) ([]*models.RevenueEntry, error)
	Find(ctx context.Context, scope RevenueScope) ([]*models.RevenueEntry, error)
	TopUsers(ctx context.Context, scope RevenueScope, limit int) ([]UserRevenue, error)
	Sum(ctx context.Context, scope RevenueScope) (float64, error)
}

type GormRevenueRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormRevenueRepository(db *gorm.DB, logger *logrus.Logger) (*GormRevenueRepository, error) {
	if err := db.AutoMigrate(&models.RevenueEntry{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate revenue_entries table")
		return nil, err
	}
	return &GormRevenueRepository{db: db, logger: logger}, nil
}

func (r *GormRevenueRepository) Create(ctx context.Context, entry *models.RevenueEntry) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(entry).Error; err != nil {
		return err
	}

	r.logger.WithFields(logrus.Fields{
		"id":      entry.ID,
		"user_id": entry.UserID,
		"type":    entry.Type,
		"amount":  entry.Amount,
	}).Info("Revenue entry created")
	return nil
}

// Upsert creates the entry or overwrites the one with the same user, type and description.
func (r *GormRevenueRepository) Upsert(ctx context.Context, entry *models.RevenueEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.RevenueEntry
		err := tx.Where("user_id = ? AND type = ? AND description = ?",
			entry.UserID, entry.Type, entry.Description).
			First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Omit("User").Create(entry).Error
		}
		if err != nil {
			return err
		}

		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		return tx.Omit("User").Save(entry).Error
	})
}

func (r *GormRevenueRepository) GetByUserID(ctx context.Context, userID uint) ([]*models.RevenueEntry, error) {
	var entries []*models.RevenueEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *GormRevenueRepository) scoped(ctx context.Context, scope RevenueScope) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.RevenueEntry{})
	if scope.UserIDs != nil {
		if len(scope.UserIDs) == 0 {
			return query.Where("1 = 0")
		}
		query = query.Where("user_id IN ?", scope.UserIDs)
	}
	if scope.Since != nil {
		query = query.Where("date >= ?", *scope.Since)
	}
	if scope.Until != nil {
		query = query.Where("date <= ?", *scope.Until)
	}
	return query
}

func (r *GormRevenueRepository) Find(ctx context.Context, scope RevenueScope) ([]*models.RevenueEntry, error) {
	var entries []*models.RevenueEntry
	err := r.scoped(ctx, scope).Order("date ASC, id ASC").Find(&entries).Error
	return entries, err
}

// TopUsers ranks users by summed amount, highest first.
func (r *GormRevenueRepository) TopUsers(ctx context.Context, scope RevenueScope, limit int) ([]UserRevenue, error) {
	var rows []UserRevenue
	err := r.scoped(ctx, scope).
		Select("user_id, SUM(amount) AS total").
		Group("user_id").
		Order("total DESC, user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to rank revenue by user")
		return nil, err
	}
	return rows, nil
}

func (r *GormRevenueRepository) Sum(ctx context.Context, scope RevenueScope) (float64, error) {
	var total float64
	err := r.scoped(ctx, scope).Select("COALESCE(SUM(amount), 0)").Scan(&total).Error
	return total, err
}
