package repository

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crm-backend/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateDetachingReports(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	GetByRole(ctx context.Context, role string) ([]*models.User, error)
	GetReports(ctx context.Context, managerID uint, roles ...string) ([]*models.User, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

type GormUserRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewGormUserRepository(db *gorm.DB, logger *logrus.Logger) (*GormUserRepository, error) {
	if err := db.AutoMigrate(&models.User{}); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate users table")
		return nil, err
	}

	return &GormUserRepository{db: db, logger: logger}, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return mapWriteError(err)
	}

	r.logger.WithFields(logrus.Fields{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	}).Info("User created")
	return nil
}

func (r *GormUserRepository) Update(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Omit("Manager").Save(user)
	if result.Error != nil {
		return mapWriteError(result.Error)
	}
	return nil
}

// UpdateDetachingReports saves the user and clears the manager of everyone
// who reported to them, in one transaction.
func (r *GormUserRepository) UpdateDetachingReports(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Manager").Save(user).Error; err != nil {
			return mapWriteError(err)
		}

		detached := tx.Model(&models.User{}).Where("manager_id = ?", user.ID).Update("manager_id", nil)
		if detached.Error != nil {
			return detached.Error
		}

		r.logger.WithFields(logrus.Fields{
			"id":       user.ID,
			"role":     user.Role,
			"detached": detached.RowsAffected,
		}).Info("Reports detached from former manager")
		return nil
	})
}

// Delete removes the user and detaches everyone who reported to them.
func (r *GormUserRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		detached := tx.Model(&models.User{}).Where("manager_id = ?", id).Update("manager_id", nil)
		if detached.Error != nil {
			return detached.Error
		}

		r.logger.WithFields(logrus.Fields{
			"id":       id,
			"detached": detached.RowsAffected,
		}).Info("User deleted")
		return nil
	})
}

func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Preload("Manager").Where("id = ?", id))
}

func (r *GormUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *GormUserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID))
}

func (r *GormUserRepository) first(query *gorm.DB) (*models.User, error) {
	var user models.User
	result := query.First(&user)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &user, nil
}

func (r *GormUserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Preload("Manager").Order("name ASC").Find(&users).Error
	return users, err
}

func (r *GormUserRepository) GetByRole(ctx context.Context, role string) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Where("role = ?", role).Order("name ASC").Find(&users).Error
	return users, err
}

// GetReports returns the direct reports of a manager, optionally limited to roles.
func (r *GormUserRepository) GetReports(ctx context.Context, managerID uint, roles ...string) ([]*models.User, error) {
	query := r.db.WithContext(ctx).Where("manager_id = ?", managerID)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}

	var users []*models.User
	err := query.Order("name ASC").Find(&users).Error
	return users, err
}

func (r *GormUserRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Role  string
		Total int64
	}
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("role, COUNT(*) AS total").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Role] = row.Total
	}
	return counts, nil
}
