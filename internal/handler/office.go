package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crm-backend/internal/apperror"
)

// maxHolidayDocument bounds the size of an uploaded holiday calendar.
const maxHolidayDocument = 1 << 20

type officeConfigRequest struct {
	AllowedIPs []string `json:"allowedIPs"`
}

func (h *Handler) officeConfig(c *gin.Context) {
	cfg, err := h.app.Office.Config(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) setOfficeConfig(c *gin.Context) {
	var req officeConfigRequest
	if !h.bind(c, &req) {
		return
	}

	cfg, err := h.app.Office.SetAllowedIPs(c.Request.Context(), currentUser(c), req.AllowedIPs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) holidays(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.fail(c, apperror.Validation("invalid year"))
			return
		}
		year = parsed
	}

	days, err := h.app.Office.Holidays(c.Request.Context(), year)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, days)
}

// importHolidays replaces the calendar with the JSON document in the request body.
func (h *Handler) importHolidays(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxHolidayDocument+1))
	if err != nil {
		h.fail(c, apperror.Validation("could not read request body"))
		return
	}
	if len(data) > maxHolidayDocument {
		h.fail(c, apperror.Validation("holiday calendar is too large"))
		return
	}

	count, err := h.app.Office.ImportHolidays(c.Request.Context(), currentUser(c), data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "imported": count})
}
