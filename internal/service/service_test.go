package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
	"crm-backend/internal/repository"
	"crm-backend/internal/testutil"
)

type sentNotification struct {
	UserID uint
	Text   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, user *models.User, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: user.ID, Text: text})
	return n.err
}

func (n *recordingNotifier) to(userID uint) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var texts []string
	for _, s := range n.sent {
		if s.UserID == userID {
			texts = append(texts, s.Text)
		}
	}
	return texts
}

type testEnv struct {
	db       *gorm.DB
	clock    *testutil.Clock
	notifier *recordingNotifier

	userRepo       *repository.GormUserRepository
	attendanceRepo *repository.GormAttendanceRepository
	leaveRepo      *repository.GormLeaveRepository
	revenueRepo    *repository.GormRevenueRepository
	salaryRepo     *repository.GormSalaryRepository
	officeRepo     *repository.GormOfficeConfigRepository
	holidayRepo    *repository.GormHolidayRepository

	auth        *AuthService
	users       *UserService
	attendance  *AttendanceService
	leaves      *LeaveService
	revenue     *RevenueService
	salary      *SalaryService
	performance *PerformanceService
	dashboard   *DashboardService
	office      *OfficeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewDB(t)
	log := testutil.Logger()
	env := &testEnv{
		db:       db,
		clock:    testutil.NewClock(time.Date(2024, 6, 5, 9, 0, 0, 0, time.Local)),
		notifier: &recordingNotifier{},
	}

	var err error
	env.userRepo, err = repository.NewGormUserRepository(db, log)
	require.NoError(t, err)
	env.attendanceRepo, err = repository.NewGormAttendanceRepository(db, log)
	require.NoError(t, err)
	env.leaveRepo, err = repository.NewGormLeaveRepository(db, log)
	require.NoError(t, err)
	env.revenueRepo, err = repository.NewGormRevenueRepository(db, log)
	require.NoError(t, err)
	env.salaryRepo, err = repository.NewGormSalaryRepository(db, log)
	require.NoError(t, err)
	env.officeRepo, err = repository.NewGormOfficeConfigRepository(db, log)
	require.NoError(t, err)
	env.holidayRepo, err = repository.NewGormHolidayRepository(db, log)
	require.NoError(t, err)

	env.auth = NewAuthService(env.userRepo, "test-secret", time.Hour, env.clock, log)
	env.users = NewUserService(env.userRepo, LeaveDefaults{Sick: 6, Casual: 6}, env.clock, log)
	env.attendance = NewAttendanceService(env.attendanceRepo, env.userRepo, env.holidayRepo, env.officeRepo, env.clock, log)
	env.leaves = NewLeaveService(env.leaveRepo, env.userRepo, env.notifier, env.clock, log)
	env.revenue = NewRevenueService(env.revenueRepo, env.userRepo, env.clock, log)
	env.salary = NewSalaryService(env.salaryRepo, env.userRepo, env.revenue, log)
	env.performance = NewPerformanceService(env.revenueRepo, env.userRepo, env.clock, log)
	env.dashboard = NewDashboardService(env.userRepo, env.revenueRepo, env.attendance, env.leaves, env.clock, log)
	env.office = NewOfficeService(env.officeRepo, env.holidayRepo, log)

	return env
}

// createUser stores a user directly, bypassing the role checks of UserService.
func (e *testEnv) createUser(t *testing.T, name, role string, manager *models.User) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "-",
		Role:         role,
	}
	if manager != nil {
		user.ManagerID = &manager.ID
	}
	user.ApplyLeaveDefaults(6, 6)
	require.NoError(t, e.userRepo.Create(context.Background(), user))
	return user
}

func (e *testEnv) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(model).Count(&n).Error)
	return n
}

func requireCode(t *testing.T, err error, code apperror.Code) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "expected an application error, got %v", err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}
