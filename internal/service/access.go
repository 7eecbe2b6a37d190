package service

import (
	"context"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
)

// canView reports whether actor may read target's personal records:
// admins read everyone, users read themselves and managers read their direct reports.
func canView(actor, target *models.User) bool {
	if actor.IsAdmin() || actor.ID == target.ID {
		return true
	}
	return actor.IsManager() && target.ReportsTo(actor.ID)
}

// loadUser fetches a user or fails with not-found.
func loadUser(ctx context.Context, users repository.UserRepository, id uint) (*models.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}
	return user, nil
}

// loadViewable fetches a user and checks that actor may read their records.
func loadViewable(ctx context.Context, users repository.UserRepository, actor *models.User, id uint) (*models.User, error) {
	target, err := loadUser(ctx, users, id)
	if err != nil {
		return nil, err
	}
	if !canView(actor, target) {
		return nil, apperror.Forbidden("not allowed to access this user")
	}
	return target, nil
}

// teamScope returns the user ids actor may aggregate over: nil for admins
// (everyone) and the direct reports for managers.
func teamScope(ctx context.Context, users repository.UserRepository, actor *models.User) ([]uint, error) {
	switch {
	case actor.IsAdmin():
		return nil, nil
	case actor.IsManager():
		reports, err := users.GetReports(ctx, actor.ID)
		if err != nil {
			return nil, apperror.Internal("failed to load team", err)
		}
		ids := make([]uint, 0, len(reports))
		for _, u := range reports {
			ids = append(ids, u.ID)
		}
		return ids, nil
	default:
		return nil, apperror.Forbidden("only admins and managers can do this")
	}
}
