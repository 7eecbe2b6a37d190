package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-backend/internal/app"
	"crm-backend/internal/models"
	"crm-backend/internal/service"
	"crm-backend/internal/testutil"
)

type apiEnv struct {
	app    *app.App
	clock  *testutil.Clock
	router *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := testutil.NewClock(time.Date(2024, 6, 5, 9, 0, 0, 0, time.Local))
	logger := testutil.Logger()
	a, err := app.New(testutil.NewDB(t), app.Options{
		JWTSecret:     "test-secret",
		JWTTTL:        24 * time.Hour,
		LeaveDefaults: service.LeaveDefaults{Sick: 6, Casual: 6},
		Clock:         clock,
	}, logger)
	require.NoError(t, err)

	return &apiEnv{
		app:    a,
		clock:  clock,
		router: NewRouter(NewHandler(a, logger), nil),
	}
}

func (e *apiEnv) user(t *testing.T, name, role string, manager *models.User) *models.User {
	t.Helper()
	input := service.CreateUserInput{Name: name, Email: name + "@example.com", Role: role}
	if manager != nil {
		input.ManagerID = &manager.ID
	}
	user, _, err := e.app.UserService.Seed(context.Background(), input)
	require.NoError(t, err)
	return user
}

func (e *apiEnv) token(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.app.Auth.IssueToken(user)
	require.NoError(t, err)
	return token
}

type call struct {
	method string
	path   string
	body   any
	token  string
	remote string
}

func (e *apiEnv) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	switch b := c.body.(type) {
	case nil:
	case string:
		body.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(b))
	}

	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.remote != "" {
		req.RemoteAddr = c.remote
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	body := decode[map[string]string](t, rec)
	assert.Equal(t, code, body["code"])
	assert.NotEmpty(t, body["message"])
}

func TestHealthz(t *testing.T) {
	env := newAPIEnv(t)
	rec := env.do(t, call{method: http.MethodGet, path: "/healthz"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLoginAndMe(t *testing.T) {
	env := newAPIEnv(t)
	env.user(t, "alice", models.RoleEmployee, nil)

	rec := env.do(t, call{method: http.MethodPost, path: "/api/auth/login",
		body: map[string]string{"email": "alice@example.com", "password": "wrong"}})
	assertError(t, rec, http.StatusUnauthorized, "unauthorized")

	rec = env.do(t, call{method: http.MethodPost, path: "/api/auth/login",
		body: map[string]string{"email": "ALICE@example.com", "password": service.DefaultPassword}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	login := decode[struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}](t, rec)
	require.NotEmpty(t, login.Token)
	assert.Equal(t, "alice@example.com", login.User.Email)
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/auth/me", token: login.Token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", decode[models.User](t, rec).Name)

	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/auth/me"}), http.StatusUnauthorized, "unauthorized")
	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/auth/me", token: "garbage"}), http.StatusUnauthorized, "unauthorized")
}

func TestAttendanceEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.user(t, "ada", models.RoleAdmin, nil)
	manager := env.user(t, "maria", models.RoleManager, nil)
	alice := env.user(t, "alice", models.RoleEmployee, manager)
	bob := env.user(t, "bob", models.RoleEmployee, nil)

	aliceToken := env.token(t, alice)
	mark := func(eventType string) *httptest.ResponseRecorder {
		return env.do(t, call{method: http.MethodPost, path: "/api/attendance/mark", token: aliceToken,
			body: map[string]string{"type": eventType}})
	}

	rec := mark(models.EventCheckIn)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	marked := decode[struct {
		Success bool                    `json:"success"`
		Record  models.AttendanceRecord `json:"record"`
	}](t, rec)
	assert.True(t, marked.Success)
	assert.Equal(t, alice.ID, marked.Record.UserID)
	assert.Equal(t, models.RoleEmployee, marked.Record.Role)
	assert.Equal(t, "2024-06-05", marked.Record.Date)

	assertError(t, mark(models.EventCheckIn), http.StatusConflict, "conflict")
	assertError(t, mark("nap"), http.StatusBadRequest, "validation")
	assertError(t, env.do(t, call{method: http.MethodPost, path: "/api/attendance/mark", token: aliceToken, body: "{"}),
		http.StatusBadRequest, "validation")

	env.clock.Advance(8 * time.Hour)
	require.Equal(t, http.StatusOK, mark(models.EventCheckOut).Code)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/attendance/summary/" + itoa(alice.ID), token: aliceToken})
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[service.AttendanceSummary](t, rec)
	assert.Equal(t, 1, summary.TotalDays)
	assert.Equal(t, 8.0, summary.Summary[0].TotalHours)

	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/attendance/summary/" + itoa(alice.ID), token: env.token(t, bob)}),
		http.StatusForbidden, "forbidden")
	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/attendance/summary/abc", token: aliceToken}),
		http.StatusBadRequest, "validation")

	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/attendance/filter", token: aliceToken}),
		http.StatusForbidden, "forbidden")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/attendance/filter?start=2024-06-01&end=2024-06-30", token: env.token(t, manager)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.AttendanceRecord](t, rec), 1)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/attendance", token: env.token(t, manager)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.AttendanceRecord](t, rec), 1)

	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/attendance", token: aliceToken}),
		http.StatusForbidden, "forbidden")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/attendance/filter?start=June", token: env.token(t, admin)})
	assertError(t, rec, http.StatusBadRequest, "validation")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/attendance/export", token: env.token(t, admin)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attendance.xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = env.do(t, call{method: http.MethodGet, path: "/api/attendance/today", token: env.token(t, admin)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.AttendanceRecord](t, rec))
}

func TestAttendanceOfficeNetwork(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.user(t, "ada", models.RoleAdmin, nil)
	alice := env.user(t, "alice", models.RoleEmployee, nil)

	rec := env.do(t, call{method: http.MethodPut, path: "/api/office/config", token: env.token(t, admin),
		body: map[string][]string{"allowedIPs": {"10.0.0.1"}}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assertError(t, env.do(t, call{method: http.MethodPut, path: "/api/office/config", token: env.token(t, alice),
		body: map[string][]string{"allowedIPs": {"10.0.0.2"}}}), http.StatusForbidden, "forbidden")

	body := map[string]string{"type": models.EventCheckIn}
	assertError(t, env.do(t, call{method: http.MethodPost, path: "/api/attendance/mark", token: env.token(t, alice),
		body: body, remote: "10.0.0.2:40000"}), http.StatusForbidden, "forbidden")

	rec = env.do(t, call{method: http.MethodPost, path: "/api/attendance/mark", token: env.token(t, alice),
		body: body, remote: "10.0.0.1:40000"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestLeaveEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.user(t, "ada", models.RoleAdmin, nil)
	manager := env.user(t, "maria", models.RoleManager, nil)
	alice := env.user(t, "alice", models.RoleEmployee, manager)
	intern := env.user(t, "ivan", models.RoleIntern, manager)

	aliceToken := env.token(t, alice)
	managerToken := env.token(t, manager)
	apply := func(token, leaveType, from, to string) *httptest.ResponseRecorder {
		return env.do(t, call{method: http.MethodPost, path: "/api/leaves/apply", token: token,
			body: map[string]string{"type": leaveType, "fromDate": from, "toDate": to, "reason": "family"}})
	}

	rec := apply(aliceToken, models.LeaveTypeCasual, "2024-06-10", "2024-06-11")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	applied := decode[struct {
		Leave models.LeaveRequest `json:"leave"`
	}](t, rec)
	assert.Equal(t, 2, applied.Leave.TotalDays)
	assert.Equal(t, models.LeaveStatusPending, applied.Leave.Status)

	assertError(t, apply(aliceToken, models.LeaveTypeSick, "2024-06-11", "2024-06-12"), http.StatusConflict, "conflict")
	assertError(t, apply(aliceToken, models.LeaveTypeSick, "2024-07-01", "2024-07-07"), http.StatusUnprocessableEntity, "insufficient_balance")
	assertError(t, apply(aliceToken, models.LeaveTypeSick, "2024-07-02", "2024-07-01"), http.StatusBadRequest, "validation")
	assertError(t, apply(env.token(t, intern), models.LeaveTypeSick, "2024-07-01", "2024-07-01"), http.StatusForbidden, "forbidden")

	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/leaves/pending", token: aliceToken}),
		http.StatusForbidden, "forbidden")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/leaves/pending", token: managerToken})
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]models.LeaveRequest](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, applied.Leave.ID, pending[0].ID)

	actionPath := "/api/leaves/" + itoa(applied.Leave.ID) + "/action"
	assertError(t, env.do(t, call{method: http.MethodPost, path: actionPath, token: managerToken,
		body: map[string]string{"action": "maybe"}}), http.StatusBadRequest, "validation")
	assertError(t, env.do(t, call{method: http.MethodPost, path: "/api/leaves/999/action", token: managerToken,
		body: map[string]string{"action": models.LeaveStatusApproved}}), http.StatusNotFound, "not_found")

	rec = env.do(t, call{method: http.MethodPost, path: actionPath, token: managerToken,
		body: map[string]string{"action": models.LeaveStatusApproved}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decided := decode[struct {
		Leave models.LeaveRequest `json:"leave"`
	}](t, rec)
	assert.Equal(t, models.LeaveStatusApproved, decided.Leave.Status)
	assert.Equal(t, manager.ID, *decided.Leave.ApprovedByID)

	assertError(t, env.do(t, call{method: http.MethodPost, path: actionPath, token: env.token(t, admin),
		body: map[string]string{"action": models.LeaveStatusRejected}}), http.StatusConflict, "conflict")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/leaves/summary", token: aliceToken})
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[service.LeaveSummary](t, rec)
	assert.Equal(t, service.LeaveBalance{Total: 6, Used: 2, Remaining: 4}, summary.Casual)
	assert.Equal(t, service.LeaveBalance{Total: 6, Used: 0, Remaining: 6}, summary.Sick)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/leaves/my", token: aliceToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.LeaveRequest](t, rec), 1)
}

func TestUserEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.user(t, "ada", models.RoleAdmin, nil)
	manager := env.user(t, "maria", models.RoleManager, nil)

	managerToken := env.token(t, manager)
	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/users", token: managerToken}),
		http.StatusForbidden, "forbidden")

	rec := env.do(t, call{method: http.MethodPost, path: "/api/users", token: managerToken,
		body: map[string]string{"name": "Ivan", "email": "ivan@example.com", "role": models.RoleIntern}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[struct {
		User models.User `json:"user"`
	}](t, rec)
	require.NotNil(t, created.User.ManagerID)
	assert.Equal(t, manager.ID, *created.User.ManagerID)

	rec = env.do(t, call{method: http.MethodPost, path: "/api/users", token: managerToken,
		body: map[string]string{"name": "Ivan", "email": "ivan@example.com", "role": models.RoleIntern}})
	assertError(t, rec, http.StatusConflict, "conflict")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/users/manager/team", token: managerToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 1)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/users/manager/interns", token: managerToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 1)
	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/users/manager/interns", token: env.token(t, admin)}),
		http.StatusForbidden, "forbidden")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/users", token: env.token(t, admin)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 3)

	internPath := "/api/users/" + itoa(created.User.ID)
	rec = env.do(t, call{method: http.MethodPut, path: internPath, token: managerToken,
		body: map[string]string{"phone": "555"}})
	assertError(t, rec, http.StatusForbidden, "forbidden")

	rec = env.do(t, call{method: http.MethodPut, path: internPath, token: env.token(t, admin),
		body: map[string]any{"phone": "555", "managerId": 0}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[struct {
		User models.User `json:"user"`
	}](t, rec)
	assert.Equal(t, "555", updated.User.Phone)
	assert.Nil(t, updated.User.ManagerID)

	rec = env.do(t, call{method: http.MethodPost, path: "/api/users/assign", token: managerToken,
		body: map[string]uint{"internId": created.User.ID, "managerId": manager.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, call{method: http.MethodGet, path: internPath, token: managerToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, manager.ID, *decode[models.User](t, rec).ManagerID)

	assertError(t, env.do(t, call{method: http.MethodDelete, path: internPath, token: managerToken}),
		http.StatusForbidden, "forbidden")
	require.Equal(t, http.StatusOK, env.do(t, call{method: http.MethodDelete, path: internPath, token: env.token(t, admin)}).Code)
	assertError(t, env.do(t, call{method: http.MethodGet, path: internPath, token: env.token(t, admin)}),
		http.StatusNotFound, "not_found")
}

func TestMoneyEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.user(t, "ada", models.RoleAdmin, nil)
	manager := env.user(t, "maria", models.RoleManager, nil)
	alice := env.user(t, "alice", models.RoleEmployee, manager)
	bob := env.user(t, "bob", models.RoleEmployee, nil)

	managerToken := env.token(t, manager)
	rec := env.do(t, call{method: http.MethodPost, path: "/api/revenue/add", token: managerToken,
		body: map[string]any{"userId": alice.ID, "amount": 250, "date": "2024-06-05"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assertError(t, env.do(t, call{method: http.MethodPost, path: "/api/revenue/add", token: managerToken,
		body: map[string]any{"userId": bob.ID, "amount": 100}}), http.StatusForbidden, "forbidden")
	assertError(t, env.do(t, call{method: http.MethodPost, path: "/api/revenue/add", token: env.token(t, alice),
		body: map[string]any{"userId": alice.ID, "amount": 100}}), http.StatusForbidden, "forbidden")

	rec = env.do(t, call{method: http.MethodPost, path: "/api/salary/set", token: env.token(t, admin),
		body: map[string]any{"userId": bob.ID, "month": "2024-06", "baseSalary": 1000, "bonus": 100}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, call{method: http.MethodGet, path: "/api/salary/" + itoa(bob.ID), token: env.token(t, bob)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.SalaryRecord](t, rec), 1)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/revenue/" + itoa(alice.ID), token: env.token(t, alice)})
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]models.RevenueEntry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, 250.0, entries[0].Amount)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/performance/top?type=daily", token: env.token(t, alice)})
	require.Equal(t, http.StatusOK, rec.Code)
	top := decode[[]service.TopPerformer](t, rec)
	require.NotEmpty(t, top)
	assert.Equal(t, bob.ID, top[0].UserID)

	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/performance/top?type=yearly", token: env.token(t, alice)}),
		http.StatusBadRequest, "validation")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/performance", token: managerToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []service.DailyRevenue{{Date: "2024-06-05", Amount: 250}}, decode[[]service.DailyRevenue](t, rec))

	rec = env.do(t, call{method: http.MethodGet, path: "/api/users/" + itoa(alice.ID) + "/performance", token: env.token(t, alice)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.DailyRevenue](t, rec), 1)

	rec = env.do(t, call{method: http.MethodGet, path: "/api/dashboard", token: env.token(t, admin)})
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := decode[service.Dashboard](t, rec)
	assert.Equal(t, int64(4), dashboard.TotalUsers)

	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/dashboard", token: env.token(t, bob)}),
		http.StatusForbidden, "forbidden")
}

func TestHolidayEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	admin := env.user(t, "ada", models.RoleAdmin, nil)
	alice := env.user(t, "alice", models.RoleEmployee, nil)

	doc := `{"year":2024,"months":[{"month":6,"days":"1,2,12+"},{"month":7,"days":"3*"}]}`
	assertError(t, env.do(t, call{method: http.MethodPost, path: "/api/office/holidays/import", token: env.token(t, alice), body: doc}),
		http.StatusForbidden, "forbidden")
	assertError(t, env.do(t, call{method: http.MethodPost, path: "/api/office/holidays/import", token: env.token(t, admin), body: "not json"}),
		http.StatusBadRequest, "validation")

	rec := env.do(t, call{method: http.MethodPost, path: "/api/office/holidays/import", token: env.token(t, admin), body: doc})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true,"imported":3}`, rec.Body.String())

	rec = env.do(t, call{method: http.MethodGet, path: "/api/office/holidays?year=2024", token: env.token(t, alice)})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Holiday](t, rec), 3)

	assertError(t, env.do(t, call{method: http.MethodGet, path: "/api/office/holidays?year=soon", token: env.token(t, alice)}),
		http.StatusBadRequest, "validation")

	rec = env.do(t, call{method: http.MethodGet, path: "/api/office/config", token: env.token(t, alice)})
	require.Equal(t, http.StatusOK, rec.Code)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
