package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"crm-backend/internal/app"
	"crm-backend/internal/apperror"
	"crm-backend/internal/middleware"
	"crm-backend/internal/models"
)

type Handler struct {
	app    *app.App
	logger *logrus.Logger
}

func NewHandler(a *app.App, logger *logrus.Logger) *Handler {
	return &Handler{app: a, logger: logger}
}

// NewRouter builds the HTTP API. An empty corsOrigins list allows every origin.
func NewRouter(h *Handler, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Logger(h.logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsOrigins) == 0 {
		corsConfig.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsConfig.AllowOrigins = corsOrigins
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", h.health)
	router.POST("/api/auth/login", h.login)

	managers := middleware.RequireRoles(models.RoleAdmin, models.RoleManager)
	admins := middleware.RequireRoles(models.RoleAdmin)

	api := router.Group("/api")
	api.Use(middleware.Auth(h.app.Auth))
	{
		api.GET("/auth/me", h.me)

		attendance := api.Group("/attendance")
		{
			attendance.GET("", managers, h.filterAttendance)
			attendance.POST("/mark", h.markAttendance)
			attendance.GET("/summary/:userId", h.attendanceSummary)
			attendance.GET("/filter", managers, h.filterAttendance)
			attendance.GET("/export", managers, h.exportAttendance)
			attendance.GET("/today", managers, h.activeToday)
		}

		leaves := api.Group("/leaves")
		{
			leaves.POST("/apply", h.applyLeave)
			leaves.GET("/my", h.myLeaves)
			leaves.GET("/summary", h.leaveSummary)
			leaves.GET("/pending", managers, h.pendingLeaves)
			leaves.POST("/:id/action", managers, h.decideLeave)
		}

		users := api.Group("/users")
		{
			users.GET("", admins, h.listUsers)
			users.POST("", managers, h.createUser)
			users.POST("/assign", managers, h.assignUser)
			users.GET("/manager/team", middleware.RequireRoles(models.RoleManager), h.team)
			users.GET("/manager/interns", middleware.RequireRoles(models.RoleManager), h.team)
			users.GET("/:id", h.getUser)
			users.PUT("/:id", h.updateUser)
			users.DELETE("/:id", admins, h.deleteUser)
			users.GET("/:id/performance", h.userPerformance)
		}

		revenue := api.Group("/revenue")
		{
			revenue.POST("/add", managers, h.addRevenue)
			revenue.GET("/:userId", h.userRevenue)
		}

		salary := api.Group("/salary")
		{
			salary.POST("/set", managers, h.setSalary)
			salary.GET("/:userId", h.salaryHistory)
		}

		api.GET("/performance", managers, h.performance)
		api.GET("/performance/top", h.topPerformers)
		api.GET("/dashboard", managers, h.dashboard)

		office := api.Group("/office")
		{
			office.GET("/config", h.officeConfig)
			office.PUT("/config", admins, h.setOfficeConfig)
			office.GET("/holidays", h.holidays)
			office.POST("/holidays/import", admins, h.importHolidays)
		}
	}

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail writes the error response; internal failures are logged with the request id.
func (h *Handler) fail(c *gin.Context, err error) {
	if apperror.GetCode(err) == apperror.CodeInternal {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"path":       c.Request.URL.Path,
		}).Error("Request failed")
	}
	c.AbortWithStatusJSON(middleware.StatusFor(err), gin.H{
		"message": apperror.PublicMessage(err),
		"code":    apperror.GetCode(err),
	})
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, apperror.Validation("invalid request body"))
		return false
	}
	return true
}

func (h *Handler) idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.fail(c, apperror.Newf(apperror.CodeValidation, "invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}
