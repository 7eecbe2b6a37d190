package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"crm-backend/internal/apperror"
	"crm-backend/internal/models"
)

func mark(t *testing.T, env *testEnv, user *models.User, eventType string) *models.AttendanceRecord {
	t.Helper()
	record, err := env.attendance.MarkEvent(context.Background(), MarkInput{
		UserID: user.ID,
		Role:   user.Role,
		Type:   eventType,
	})
	require.NoError(t, err)
	return record
}

func TestMarkEventDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	employee := env.createUser(t, "Eric", models.RoleEmployee, nil)

	record := mark(t, env, employee, models.EventCheckIn)
	assert.Equal(t, "2024-06-05", record.Date)
	assert.Equal(t, models.RoleEmployee, record.Role)
	assert.Len(t, record.Events, 1)
	assert.Equal(t, 0.0, record.TotalHours)

	env.clock.Advance(3 * time.Hour)
	mark(t, env, employee, models.EventLunchOut)

	env.clock.Advance(5*time.Hour + 20*time.Minute)
	record = mark(t, env, employee, models.EventCheckOut)
	assert.Len(t, record.Events, 3)
	assert.Equal(t, 8.3, record.TotalHours)

	stored, err := env.attendance.Today(ctx, employee.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 8.3, stored.TotalHours)
	assert.Equal(t, []string{models.EventCheckIn, models.EventLunchOut, models.EventCheckOut},
		[]string{stored.Events[0].Type, stored.Events[1].Type, stored.Events[2].Type})
	assert.Equal(t, int64(1), env.count(t, &models.AttendanceRecord{}))
}

func TestMarkEventRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	employee := env.createUser(t, "Eric", models.RoleEmployee, nil)

	mark(t, env, employee, models.EventCheckIn)
	env.clock.Advance(time.Minute)

	_, err := env.attendance.MarkEvent(ctx, MarkInput{UserID: employee.ID, Role: employee.Role, Type: models.EventCheckIn})
	requireCode(t, err, apperror.CodeConflict)

	stored, err := env.attendance.Today(ctx, employee.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Events, 1)
	assert.Equal(t, int64(1), env.count(t, &models.AttendanceEvent{}))

	// a new day starts a new record
	env.clock.Advance(24 * time.Hour)
	record := mark(t, env, employee, models.EventCheckIn)
	assert.Equal(t, "2024-06-06", record.Date)
	assert.Equal(t, int64(2), env.count(t, &models.AttendanceRecord{}))
}

func TestMarkEventValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []MarkInput{
		{Role: models.RoleEmployee, Type: models.EventCheckIn},
		{UserID: 1, Type: models.EventCheckIn},
		{UserID: 1, Role: models.RoleEmployee},
		{UserID: 1, Role: models.RoleEmployee, Type: "coffee"},
	}
	for _, input := range cases {
		_, err := env.attendance.MarkEvent(ctx, input)
		requireCode(t, err, apperror.CodeValidation)
	}
	assert.Zero(t, env.count(t, &models.AttendanceRecord{}))
}

func TestMarkEventOfficeNetwork(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.createUser(t, "Ada", models.RoleAdmin, nil)
	employee := env.createUser(t, "Eric", models.RoleEmployee, nil)

	_, err := env.attendance.MarkEvent(ctx, MarkInput{UserID: employee.ID, Role: employee.Role, Type: models.EventCheckIn, ClientIP: "192.168.1.20"})
	require.NoError(t, err, "an unset allow list admits everyone")

	_, err = env.office.SetAllowedIPs(ctx, admin, []string{"10.0.0.1"})
	require.NoError(t, err)

	_, err = env.attendance.MarkEvent(ctx, MarkInput{UserID: employee.ID, Role: employee.Role, Type: models.EventLunchOut, ClientIP: "192.168.1.20"})
	requireCode(t, err, apperror.CodeForbidden)

	_, err = env.attendance.MarkEvent(ctx, MarkInput{UserID: employee.ID, Role: employee.Role, Type: models.EventLunchOut, ClientIP: "10.0.0.1"})
	require.NoError(t, err)
}

func TestAttendanceSummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "Ada", models.RoleAdmin, nil)
	manager := env.createUser(t, "Maria", models.RoleManager, nil)
	employee := env.createUser(t, "Eric", models.RoleEmployee, manager)
	peer := env.createUser(t, "Paul", models.RoleEmployee, nil)

	require.NoError(t, env.holidayRepo.ReplaceAll(ctx, []models.Holiday{{Date: "2024-06-06", Year: 2024, Month: 6, Day: 6}}))

	mark(t, env, employee, models.EventCheckIn)
	env.clock.Advance(7*time.Hour + 57*time.Minute)
	mark(t, env, employee, models.EventCheckOut)

	env.clock.Advance(16 * time.Hour)
	mark(t, env, employee, models.EventCheckIn)

	summary, err := env.attendance.Summary(ctx, employee, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalDays)
	require.Len(t, summary.Summary, 2)

	assert.Equal(t, "2024-06-06", summary.Summary[0].Date)
	assert.Equal(t, 0.0, summary.Summary[0].TotalHours)
	assert.True(t, summary.Summary[0].Holiday)

	assert.Equal(t, "2024-06-05", summary.Summary[1].Date)
	assert.Equal(t, 8.0, summary.Summary[1].TotalHours)
	assert.False(t, summary.Summary[1].Holiday)

	_, err = env.attendance.Summary(ctx, manager, employee.ID)
	require.NoError(t, err)
	_, err = env.attendance.Summary(ctx, admin, employee.ID)
	require.NoError(t, err)

	_, err = env.attendance.Summary(ctx, peer, employee.ID)
	requireCode(t, err, apperror.CodeForbidden)

	_, err = env.attendance.Summary(ctx, admin, 9999)
	requireCode(t, err, apperror.CodeNotFound)

	empty, err := env.attendance.Summary(ctx, peer, peer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalDays)
	assert.Empty(t, empty.Summary)
}

func TestAttendanceFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "Ada", models.RoleAdmin, nil)
	manager := env.createUser(t, "Maria", models.RoleManager, nil)
	employee := env.createUser(t, "Eric", models.RoleEmployee, manager)
	intern := env.createUser(t, "Ivan", models.RoleIntern, manager)
	stranger := env.createUser(t, "Sam", models.RoleEmployee, nil)

	// 2024-06-05 and 2024-06-06
	for day := 0; day < 2; day++ {
		mark(t, env, employee, models.EventCheckIn)
		mark(t, env, intern, models.EventCheckIn)
		mark(t, env, stranger, models.EventCheckIn)
		env.clock.Advance(24 * time.Hour)
	}

	all, err := env.attendance.Filter(ctx, admin, FilterInput{})
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, "2024-06-06", all[0].Date)
	require.NotNil(t, all[0].User)

	interns, err := env.attendance.Filter(ctx, admin, FilterInput{Role: models.RoleIntern})
	require.NoError(t, err)
	assert.Len(t, interns, 2)

	fromSecond, err := env.attendance.Filter(ctx, admin, FilterInput{Start: "2024-06-06"})
	require.NoError(t, err)
	assert.Len(t, fromSecond, 3)

	untilFirst, err := env.attendance.Filter(ctx, admin, FilterInput{End: "2024-06-05"})
	require.NoError(t, err)
	assert.Len(t, untilFirst, 3)

	window, err := env.attendance.Filter(ctx, admin, FilterInput{Start: "2024-06-05", End: "2024-06-05", Role: models.RoleEmployee})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	team, err := env.attendance.Filter(ctx, manager, FilterInput{})
	require.NoError(t, err)
	assert.Len(t, team, 4)
	for _, r := range team {
		assert.NotEqual(t, stranger.ID, r.UserID)
	}

	_, err = env.attendance.Filter(ctx, admin, FilterInput{Start: "06/05/2024"})
	requireCode(t, err, apperror.CodeValidation)

	_, err = env.attendance.Filter(ctx, admin, FilterInput{Role: "boss"})
	requireCode(t, err, apperror.CodeValidation)

	_, err = env.attendance.Filter(ctx, employee, FilterInput{})
	requireCode(t, err, apperror.CodeForbidden)

	lonely := env.createUser(t, "Lena", models.RoleManager, nil)
	none, err := env.attendance.Filter(ctx, lonely, FilterInput{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAttendanceActiveToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "Ada", models.RoleAdmin, nil)
	manager := env.createUser(t, "Maria", models.RoleManager, nil)
	working := env.createUser(t, "Eric", models.RoleEmployee, manager)
	done := env.createUser(t, "Dora", models.RoleEmployee, manager)
	stranger := env.createUser(t, "Sam", models.RoleEmployee, nil)

	mark(t, env, working, models.EventCheckIn)
	mark(t, env, done, models.EventCheckIn)
	mark(t, env, stranger, models.EventCheckIn)
	env.clock.Advance(time.Hour)
	mark(t, env, done, models.EventCheckOut)

	active, err := env.attendance.ActiveToday(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	active, err = env.attendance.ActiveToday(ctx, manager)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, working.ID, active[0].UserID)
}

func TestAttendanceExport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := env.createUser(t, "Ada", models.RoleAdmin, nil)
	employee := env.createUser(t, "Eric", models.RoleEmployee, nil)

	mark(t, env, employee, models.EventCheckIn)
	env.clock.Advance(8 * time.Hour)
	mark(t, env, employee, models.EventCheckOut)

	data, err := env.attendance.Export(ctx, admin, FilterInput{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "Name", "Email", "Role", "checkIn", "lunchOut", "lunchIn", "breakOut", "breakIn", "checkOut", "Hours"}, rows[0])
	assert.Equal(t, "2024-06-05", rows[1][0])
	assert.Equal(t, "Eric", rows[1][1])
	assert.Equal(t, "09:00", rows[1][4])
	assert.Equal(t, "17:00", rows[1][9])
	assert.Equal(t, "8", rows[1][10])

	_, err = env.attendance.Export(ctx, employee, FilterInput{})
	requireCode(t, err, apperror.CodeForbidden)
}
