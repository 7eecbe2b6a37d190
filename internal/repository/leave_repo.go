package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

type LeaveRepository interface {
	Transaction(ctx context.Context, fn func(repo LeaveRepository) error) error
	Create(ctx context.Context, leave *models.LeaveRequest) error
	GetByID(ctx context.Context, id uint) (*models.LeaveRequest, error)
	GetByUserID(ctx context.Context, userID uint) ([]*models.LeaveRequest, error)
	GetPending(ctx context.Context, userIDs []uint) ([]*models.LeaveRequest, error)
	SumApprovedDays(ctx context.Context, userID uint, leaveType string, year int) (int, error)
	FindOverlap(ctx context.Context, userID uint, from, to string) (*models.LeaveRequest, error)
	Decide(ctx context.Context, leave *models.LeaveRequest, status string, approver *models.User, at time.Time) (bool, error)
}

type GormLeaveRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormLeaveRepository(db *gorm.DB, logger *logrus.Logger) (*GormLeaveRepository, error) {
	if err := db.AutoMigrate(&models.LeaveRequest{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate leave_requests table")
		return nil, err
	}

	logger.Info("Leave repository initialized")
	return &GormLeaveRepository{db: db, logger: logger}, nil
}

func (r *GormLeaveRepository) Transaction(ctx context.Context, fn func(repo LeaveRepository) error) error {
	return transaction(ctx, r.db, func(tx *gorm.DB) error {
		return fn(&GormLeaveRepository{db: tx, logger: r.logger})
	})
}

func (r *GormLeaveRepository) Create(ctx context.Context, leave *models.LeaveRequest) error {
	if err := r.db.WithContext(ctx).Omit("User", "ApprovedBy").Create(leave).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create leave request")
		return mapWriteError(err)
	}

	r.logger.WithFields(logrus.Fields{
		"id":         leave.ID,
		"user_id":    leave.UserID,
		"type":       leave.Type,
		"total_days": leave.TotalDays,
	}).Info("Leave request created")
	return nil
}

func (r *GormLeaveRepository) GetByID(ctx context.Context, id uint) (*models.LeaveRequest, error) {
	var leave models.LeaveRequest
	result := r.db.WithContext(ctx).Preload("User").First(&leave, id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &leave, nil
}

func (r *GormLeaveRepository) GetByUserID(ctx context.Context, userID uint) ([]*models.LeaveRequest, error) {
	var leaves []*models.LeaveRequest
	err := r.db.WithContext(ctx).
		Preload("ApprovedBy").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&leaves).Error
	return leaves, err
}

// GetPending returns pending requests, newest first. A nil userIDs slice
// returns every pending request; an empty one returns none.
func (r *GormLeaveRepository) GetPending(ctx context.Context, userIDs []uint) ([]*models.LeaveRequest, error) {
	if userIDs != nil && len(userIDs) == 0 {
		return []*models.LeaveRequest{}, nil
	}

	query := r.db.WithContext(ctx).Preload("User").Where("status = ?", models.LeaveStatusPending)
	if userIDs != nil {
		query = query.Where("user_id IN ?", userIDs)
	}

	var leaves []*models.LeaveRequest
	err := query.Order("created_at DESC, id DESC").Find(&leaves).Error
	return leaves, err
}

// SumApprovedDays returns the days consumed by approved requests of one type in a leave year.
func (r *GormLeaveRepository) SumApprovedDays(ctx context.Context, userID uint, leaveType string, year int) (int, error) {
	var used int64
	err := r.db.WithContext(ctx).Model(&models.LeaveRequest{}).
		Select("COALESCE(SUM(total_days), 0)").
		Where("user_id = ? AND type = ? AND status = ? AND leave_year = ?",
			userID, leaveType, models.LeaveStatusApproved, year).
		Scan(&used).Error
	if err != nil {
		r.logger.WithError(err).Error("Failed to sum approved leave days")
		return 0, err
	}
	return int(used), nil
}

// FindOverlap returns a pending or approved request of the user whose range
// intersects [from, to] inclusively.
func (r *GormLeaveRepository) FindOverlap(ctx context.Context, userID uint, from, to string) (*models.LeaveRequest, error) {
	var leave models.LeaveRequest
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ? AND from_date <= ? AND to_date >= ?",
			userID,
			[]string{models.LeaveStatusPending, models.LeaveStatusApproved},
			to, from).
		First(&leave)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &leave, nil
}

// Decide moves a pending request to status. It reports false when the request
// was no longer pending, so a decision is recorded at most once.
func (r *GormLeaveRepository) Decide(ctx context.Context, leave *models.LeaveRequest, status string, approver *models.User, at time.Time) (bool, error) {
	role := approver.Role
	result := r.db.WithContext(ctx).
		Session(&gorm.Session{SkipHooks: true}).
		Model(&models.LeaveRequest{}).
		Where("id = ? AND status = ?", leave.ID, models.LeaveStatusPending).
		Updates(map[string]any{
			"status":           status,
			"approved_by_id":   approver.ID,
			"approved_by_role": role,
			"decided_at":       at,
		})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to decide leave request")
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	leave.Status = status
	leave.ApprovedByID = &approver.ID
	leave.ApprovedByRole = &role
	leave.DecidedAt = &at

	r.logger.WithFields(logrus.Fields{
		"id":          leave.ID,
		"status":      status,
		"approver_id": approver.ID,
	}).Info("Leave request decided")
	return true, nil
}
