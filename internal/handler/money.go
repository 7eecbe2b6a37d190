package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-backend/internal/service"
)

type addRevenueRequest struct {
	UserID      uint    `json:"userId"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

type setSalaryRequest struct {
	UserID     uint    `json:"userId"`
	Month      string  `json:"month"`
	BaseSalary float64 `json:"baseSalary"`
	Bonus      float64 `json:"bonus"`
	Deductions float64 `json:"deductions"`
}

func (h *Handler) addRevenue(c *gin.Context) {
	var req addRevenueRequest
	if !h.bind(c, &req) {
		return
	}

	entry, err := h.app.Revenue.Add(c.Request.Context(), currentUser(c), service.AddRevenueInput{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Type:        req.Type,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "entry": entry})
}

func (h *Handler) userRevenue(c *gin.Context) {
	userID, ok := h.idParam(c, "userId")
	if !ok {
		return
	}

	entries, err := h.app.Revenue.ForUser(c.Request.Context(), currentUser(c), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) setSalary(c *gin.Context) {
	var req setSalaryRequest
	if !h.bind(c, &req) {
		return
	}

	record, err := h.app.Salary.Set(c.Request.Context(), currentUser(c), service.SetSalaryInput{
		UserID:     req.UserID,
		Month:      req.Month,
		BaseSalary: req.BaseSalary,
		Bonus:      req.Bonus,
		Deductions: req.Deductions,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "salary": record})
}

func (h *Handler) salaryHistory(c *gin.Context) {
	userID, ok := h.idParam(c, "userId")
	if !ok {
		return
	}

	records, err := h.app.Salary.History(c.Request.Context(), currentUser(c), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) performance(c *gin.Context) {
	series, err := h.app.Performance.Series(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *Handler) topPerformers(c *gin.Context) {
	top, err := h.app.Performance.Top(c.Request.Context(), c.Query("type"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}

func (h *Handler) dashboard(c *gin.Context) {
	dashboard, err := h.app.Dashboard.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
