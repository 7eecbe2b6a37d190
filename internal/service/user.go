package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
)

// DefaultPassword is given to accounts created without one.
const DefaultPassword = "Glow@123"

// LeaveDefaults are the yearly allotments given to non-intern users.
type LeaveDefaults struct {
	Sick   int
	Casual int
}

type CreateUserInput struct {
	Name        string
	Email       string
	Password    string
	Role        string
	Phone       string
	TeamName    string
	Position    string
	ManagerID   *uint
	JoiningDate string
	Birthday    string
}

// UpdateUserInput holds profile changes; nil fields are left untouched.
// A ManagerID pointing at 0 detaches the user from their manager.
type UpdateUserInput struct {
	Name           *string
	Phone          *string
	Avatar         *string
	TeamName       *string
	Position       *string
	JoiningDate    *string
	Birthday       *string
	Password       *string
	Role           *string
	ManagerID      *uint
	TelegramChatID *int64
}

type UserService struct {
	users    repository.UserRepository
	defaults LeaveDefaults
	clock    Clock
	logger   *logrus.Logger
}

func NewUserService(users repository.UserRepository, defaults LeaveDefaults, clock Clock, logger *logrus.Logger) *UserService {
	return &UserService{
		users:    users,
		defaults: defaults,
		clock:    clock,
		logger:   logger,
	}
}

// Create adds a user. Admins create any role; managers create employees and
// interns that report to them.
func (s *UserService) Create(ctx context.Context, actor *models.User, input CreateUserInput) (*models.User, error) {
	switch {
	case actor.IsAdmin():
	case actor.IsManager():
		if input.Role != models.RoleEmployee && input.Role != models.RoleIntern {
			return nil, apperror.Forbidden("managers can only create employees and interns")
		}
		input.ManagerID = &actor.ID
	default:
		return nil, apperror.Forbidden("only admins and managers can create users")
	}

	user, err := s.create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"role":     user.Role,
		"actor_id": actor.ID,
	}).Info("User created")
	return user, nil
}

// Seed creates the user unless the e-mail is already taken. It reports
// whether a new account was created.
func (s *UserService) Seed(ctx context.Context, input CreateUserInput) (*models.User, bool, error) {
	existing, err := s.users.GetByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		return nil, false, apperror.Internal("failed to load user", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	user, err := s.create(ctx, input)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *UserService) create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if input.Name == "" || input.Email == "" || input.Role == "" {
		return nil, apperror.Validation("name, email and role are required")
	}
	if !strings.Contains(input.Email, "@") {
		return nil, apperror.Validation("invalid email")
	}
	if !models.IsValidRole(input.Role) {
		return nil, apperror.Newf(apperror.CodeValidation, "invalid role %q", input.Role)
	}

	password := input.Password
	if password == "" {
		password = DefaultPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Phone:        input.Phone,
		TeamName:     input.TeamName,
		Position:     input.Position,
		JoiningDate:  s.clock.Now(),
	}

	if input.JoiningDate != "" {
		joined, err := models.ParseDate(input.JoiningDate)
		if err != nil {
			return nil, apperror.Validation("invalid joiningDate")
		}
		user.JoiningDate = joined
	}
	if input.Birthday != "" {
		birthday, err := models.ParseDate(input.Birthday)
		if err != nil {
			return nil, apperror.Validation("invalid birthday")
		}
		user.Birthday = &birthday
	}

	if user.CanHaveManager() && input.ManagerID != nil && *input.ManagerID != 0 {
		if _, err := s.loadManager(ctx, *input.ManagerID); err != nil {
			return nil, err
		}
		user.ManagerID = input.ManagerID
	}

	user.ApplyLeaveDefaults(s.defaults.Sick, s.defaults.Casual)

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("user already exists")
		}
		return nil, apperror.Internal("failed to create user", err)
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, actor *models.User, id uint) (*models.User, error) {
	return loadViewable(ctx, s.users, actor, id)
}

func (s *UserService) List(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("only admins can list users")
	}
	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list users", err)
	}
	return users, nil
}

// Team returns the manager's direct reports.
func (s *UserService) Team(ctx context.Context, actor *models.User) ([]*models.User, error) {
	if !actor.IsManager() {
		return nil, apperror.Forbidden("only managers have a team")
	}
	users, err := s.users.GetReports(ctx, actor.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load team", err)
	}
	return users, nil
}

// Update edits a profile. Users edit themselves; role and manager changes
// are reserved for admins.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uint, input UpdateUserInput) (*models.User, error) {
	if !actor.IsAdmin() && actor.ID != id {
		return nil, apperror.Forbidden("not allowed to edit this user")
	}
	if !actor.IsAdmin() && (input.Role != nil || input.ManagerID != nil) {
		return nil, apperror.Forbidden("only admins can change role or manager")
	}

	user, err := loadUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		user.Name = name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Avatar != nil {
		user.Avatar = *input.Avatar
	}
	if input.TeamName != nil {
		user.TeamName = *input.TeamName
	}
	if input.Position != nil {
		user.Position = *input.Position
	}
	if input.JoiningDate != nil {
		joined, err := models.ParseDate(*input.JoiningDate)
		if err != nil {
			return nil, apperror.Validation("invalid joiningDate")
		}
		user.JoiningDate = joined
	}
	if input.Birthday != nil {
		if *input.Birthday == "" {
			user.Birthday = nil
		} else {
			birthday, err := models.ParseDate(*input.Birthday)
			if err != nil {
				return nil, apperror.Validation("invalid birthday")
			}
			user.Birthday = &birthday
		}
	}
	if input.Password != nil {
		if len(*input.Password) < 6 {
			return nil, apperror.Validation("password must be at least 6 characters")
		}
		hash, err := HashPassword(*input.Password)
		if err != nil {
			return nil, apperror.Internal("failed to hash password", err)
		}
		user.PasswordHash = hash
	}
	if input.TelegramChatID != nil {
		if *input.TelegramChatID == 0 {
			user.TelegramChatID = nil
		} else {
			user.TelegramChatID = input.TelegramChatID
		}
	}

	wasManager := user.IsManager()
	if input.Role != nil && *input.Role != user.Role {
		if !models.IsValidRole(*input.Role) {
			return nil, apperror.Newf(apperror.CodeValidation, "invalid role %q", *input.Role)
		}
		wasIntern := user.IsIntern()
		user.Role = *input.Role
		if wasIntern || user.IsIntern() {
			user.ApplyLeaveDefaults(s.defaults.Sick, s.defaults.Casual)
		}
		if !user.CanHaveManager() {
			user.ManagerID = nil
		}
	}

	if input.ManagerID != nil {
		if err := s.setManager(ctx, user, *input.ManagerID); err != nil {
			return nil, err
		}
	}

	user.Manager = nil
	save := s.users.Update
	if wasManager && !user.IsManager() {
		save = s.users.UpdateDetachingReports
	}
	if err := save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict("telegram chat is already linked to another user")
		}
		return nil, apperror.Internal("failed to update user", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"actor_id": actor.ID,
	}).Info("User updated")
	return loadUser(ctx, s.users, user.ID)
}

// Delete removes a user; their reports lose their manager.
func (s *UserService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if !actor.IsAdmin() {
		return apperror.Forbidden("only admins can delete users")
	}
	if actor.ID == id {
		return apperror.Validation("you cannot delete yourself")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal("failed to delete user", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  id,
		"actor_id": actor.ID,
	}).Info("User deleted")
	return nil
}

// Assign puts an employee or intern under a manager. Managers can only
// assign users to themselves.
func (s *UserService) Assign(ctx context.Context, actor *models.User, userID, managerID uint) (*models.User, error) {
	if userID == 0 || managerID == 0 {
		return nil, apperror.Validation("userId and managerId are required")
	}
	switch {
	case actor.IsAdmin():
	case actor.IsManager():
		if managerID != actor.ID {
			return nil, apperror.Forbidden("managers can only assign users to themselves")
		}
	default:
		return nil, apperror.Forbidden("only admins and managers can assign users")
	}

	user, err := loadUser(ctx, s.users, userID)
	if err != nil {
		return nil, err
	}
	if err := s.setManager(ctx, user, managerID); err != nil {
		return nil, err
	}

	user.Manager = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperror.Internal("failed to assign manager", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"manager_id": managerID,
		"actor_id":   actor.ID,
	}).Info("User assigned to manager")
	return loadUser(ctx, s.users, user.ID)
}

func (s *UserService) setManager(ctx context.Context, user *models.User, managerID uint) error {
	if managerID == 0 {
		user.ManagerID = nil
		return nil
	}
	if !user.CanHaveManager() {
		return apperror.Validation("only employees and interns can have a manager")
	}
	if managerID == user.ID {
		return apperror.Validation("a user cannot manage themselves")
	}
	if _, err := s.loadManager(ctx, managerID); err != nil {
		return err
	}
	user.ManagerID = &managerID
	return nil
}

func (s *UserService) loadManager(ctx context.Context, id uint) (*models.User, error) {
	manager, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("failed to load manager", err)
	}
	if manager == nil || !manager.IsManager() {
		return nil, apperror.Validation("selected user is not a manager")
	}
	return manager, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
