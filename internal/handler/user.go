package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-backend/internal/service"
)

type createUserRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	TeamName    string `json:"teamName"`
	Position    string `json:"position"`
	ManagerID   *uint  `json:"managerId"`
	JoiningDate string `json:"joiningDate"`
	Birthday    string `json:"birthday"`
}

type updateUserRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Avatar         *string `json:"avatar"`
	TeamName       *string `json:"teamName"`
	Position       *string `json:"position"`
	JoiningDate    *string `json:"joiningDate"`
	Birthday       *string `json:"birthday"`
	Password       *string `json:"password"`
	Role           *string `json:"role"`
	ManagerID      *uint   `json:"managerId"`
	TelegramChatID *int64  `json:"telegramChatId"`
}

type assignRequest struct {
	UserID    uint `json:"userId"`
	InternID  uint `json:"internId"`
	ManagerID uint `json:"managerId"`
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.app.UserService.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.app.UserService.Create(c.Request.Context(), currentUser(c), service.CreateUserInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Phone:       req.Phone,
		TeamName:    req.TeamName,
		Position:    req.Position,
		ManagerID:   req.ManagerID,
		JoiningDate: req.JoiningDate,
		Birthday:    req.Birthday,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user})
}

func (h *Handler) assignUser(c *gin.Context) {
	var req assignRequest
	if !h.bind(c, &req) {
		return
	}
	userID := req.UserID
	if userID == 0 {
		userID = req.InternID
	}

	user, err := h.app.UserService.Assign(c.Request.Context(), currentUser(c), userID, req.ManagerID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User assigned successfully", "user": user})
}

func (h *Handler) team(c *gin.Context) {
	users, err := h.app.UserService.Team(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	user, err := h.app.UserService.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !h.bind(c, &req) {
		return
	}

	user, err := h.app.UserService.Update(c.Request.Context(), currentUser(c), id, service.UpdateUserInput{
		Name:           req.Name,
		Phone:          req.Phone,
		Avatar:         req.Avatar,
		TeamName:       req.TeamName,
		Position:       req.Position,
		JoiningDate:    req.JoiningDate,
		Birthday:       req.Birthday,
		Password:       req.Password,
		Role:           req.Role,
		ManagerID:      req.ManagerID,
		TelegramChatID: req.TelegramChatID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	if err := h.app.UserService.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}

func (h *Handler) userPerformance(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}

	series, err := h.app.Performance.UserSeries(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
