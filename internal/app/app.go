package app

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"crm-backend/internal/repository"
	"crm-backend/internal/service"
)

type Options struct {
	JWTSecret     string
	JWTTTL        time.Duration
	LeaveDefaults service.LeaveDefaults

	// Clock defaults to the system clock, Notifier to a log-only notifier.
	Clock    service.Clock
	Notifier service.Notifier
}

// App holds the repositories and services of one running instance.
type App struct {
	Users    repository.UserRepository
	Holidays repository.HolidayRepository

	Auth        *service.AuthService
	UserService *service.UserService
	Attendance  *service.AttendanceService
	Leaves      *service.LeaveService
	Revenue     *service.RevenueService
	Salary      *service.SalaryService
	Performance *service.PerformanceService
	Dashboard   *service.DashboardService
	Office      *service.OfficeService
}

// New migrates the schema through the repository constructors and wires the services.
func New(db *gorm.DB, opts Options, logger *logrus.Logger) (*App, error) {
	clock := opts.Clock
	if clock == nil {
		clock = service.SystemClock
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = service.NewLogNotifier(logger)
	}

	userRepo, err := repository.NewGormUserRepository(db, logger)
	if err != nil {
		return nil, err
	}
	attendanceRepo, err := repository.NewGormAttendanceRepository(db, logger)
	if err != nil {
		return nil, err
	}
	leaveRepo, err := repository.NewGormLeaveRepository(db, logger)
	if err != nil {
		return nil, err
	}
	revenueRepo, err := repository.NewGormRevenueRepository(db, logger)
	if err != nil {
		return nil, err
	}
	salaryRepo, err := repository.NewGormSalaryRepository(db, logger)
	if err != nil {
		return nil, err
	}
	officeRepo, err := repository.NewGormOfficeConfigRepository(db, logger)
	if err != nil {
		return nil, err
	}
	holidayRepo, err := repository.NewGormHolidayRepository(db, logger)
	if err != nil {
		return nil, err
	}

	attendance := service.NewAttendanceService(attendanceRepo, userRepo, holidayRepo, officeRepo, clock, logger)
	leaves := service.NewLeaveService(leaveRepo, userRepo, notifier, clock, logger)
	revenue := service.NewRevenueService(revenueRepo, userRepo, clock, logger)

	return &App{
		Users:       userRepo,
		Holidays:    holidayRepo,
		Auth:        service.NewAuthService(userRepo, opts.JWTSecret, opts.JWTTTL, clock, logger),
		UserService: service.NewUserService(userRepo, opts.LeaveDefaults, clock, logger),
		Attendance:  attendance,
		Leaves:      leaves,
		Revenue:     revenue,
		Salary:      service.NewSalaryService(salaryRepo, userRepo, revenue, logger),
		Performance: service.NewPerformanceService(revenueRepo, userRepo, clock, logger),
		Dashboard:   service.NewDashboardService(userRepo, revenueRepo, attendance, leaves, clock, logger),
		Office:      service.NewOfficeService(officeRepo, holidayRepo, logger),
	}, nil
}
