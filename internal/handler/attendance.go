package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-backend/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type markRequest struct {
	Type string `json:"type"`
}

// markAttendance records an event for the caller; identity and role come from the token.
func (h *Handler) markAttendance(c *gin.Context) {
	var req markRequest
	if !h.bind(c, &req) {
		return
	}

	user := currentUser(c)
	record, err := h.app.Attendance.MarkEvent(c.Request.Context(), service.MarkInput{
		UserID:   user.ID,
		Role:     user.Role,
		Type:     req.Type,
		ClientIP: c.ClientIP(),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%s marked successfully", req.Type),
		"record":  record,
	})
}

func (h *Handler) attendanceSummary(c *gin.Context) {
	userID, ok := h.idParam(c, "userId")
	if !ok {
		return
	}

	summary, err := h.app.Attendance.Summary(c.Request.Context(), currentUser(c), userID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func filterInput(c *gin.Context) service.FilterInput {
	return service.FilterInput{
		Role:  c.Query("role"),
		Start: c.Query("start"),
		End:   c.Query("end"),
	}
}

func (h *Handler) filterAttendance(c *gin.Context) {
	records, err := h.app.Attendance.Filter(c.Request.Context(), currentUser(c), filterInput(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) exportAttendance(c *gin.Context) {
	data, err := h.app.Attendance.Export(c.Request.Context(), currentUser(c), filterInput(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="attendance.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handler) activeToday(c *gin.Context) {
	records, err := h.app.Attendance.ActiveToday(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
