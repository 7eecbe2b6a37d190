package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"crm-backend/internal/service"
)

type applyLeaveRequest struct {
	Type     string `json:"type"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate"`
	Reason   string `json:"reason"`
}

type leaveActionRequest struct {
	Action string `json:"action"`
}

func (h *Handler) applyLeave(c *gin.Context) {
	var req applyLeaveRequest
	if !h.bind(c, &req) {
		return
	}

	leave, err := h.app.Leaves.Apply(c.Request.Context(), currentUser(c), service.ApplyLeaveInput{
		Type:     req.Type,
		FromDate: req.FromDate,
		ToDate:   req.ToDate,
		Reason:   req.Reason,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "leave": leave})
}

func (h *Handler) myLeaves(c *gin.Context) {
	leaves, err := h.app.Leaves.My(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, leaves)
}

func (h *Handler) leaveSummary(c *gin.Context) {
	summary, err := h.app.Leaves.Summary(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) pendingLeaves(c *gin.Context) {
	leaves, err := h.app.Leaves.Pending(c.Request.Context(), currentUser(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, leaves)
}

func (h *Handler) decideLeave(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var req leaveActionRequest
	if !h.bind(c, &req) {
		return
	}

	leave, err := h.app.Leaves.Decide(c.Request.Context(), currentUser(c), id, req.Action)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "leave": leave})
}
