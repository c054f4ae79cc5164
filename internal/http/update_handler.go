package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"issue-service/internal/http/middleware"
	"issue-service/internal/service"
)

func (h *Handler) createIssueUpdate(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	issueID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status  string `form:"status" binding:"required"`
		Comment string `form:"comment"`
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.updateService.Create(c.Request.Context(), principal, service.CreateUpdateInput{
		IssueID: issueID,
		Status:  req.Status,
		Comment: req.Comment,
		Photos:  mediaFiles(c, "photos"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(result))
}

func (h *Handler) changeUpdateStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	updateID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.updateService.ChangeStatus(c.Request.Context(), principal, updateID, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) listIssueUpdates(c *gin.Context) {
	issueID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	updates, err := h.updateService.ListByIssue(c.Request.Context(), issueID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(updates))
}
