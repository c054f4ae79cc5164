package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"issue-service/internal/http/middleware"
	"issue-service/internal/model"
)

func (h *Handler) getRemark(c *gin.Context) {
	issueID, ok := parseIDParam(c, "issueId")
	if !ok {
		return
	}

	remark, err := h.remarkService.GetRemark(c.Request.Context(), issueID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(remark))
}

func (h *Handler) listRemarks(c *gin.Context) {
	remarks, err := h.remarkService.GetAllRemarks(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(remarks))
}

func (h *Handler) listNewRemarks(c *gin.Context) {
	remarks, err := h.remarkService.GetNewUnviewedRemarks(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(remarks))
}

func (h *Handler) remarksByIssueIDs(c *gin.Context) {
	var req struct {
		IssueIDs []uuid.UUID `json:"issue_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	remarks, err := h.remarkService.GetRemarksByIssueIDs(c.Request.Context(), req.IssueIDs)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(remarks))
}

func (h *Handler) createRemark(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	issueID, ok := parseIDParam(c, "issueId")
	if !ok {
		return
	}

	var req struct {
		RemarkType string `json:"remark_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	remarkType, err := model.ParseRemarkType(req.RemarkType)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	issue, err := h.issueService.Get(c.Request.Context(), issueID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	remark, err := h.remarkService.CreateRemark(c.Request.Context(), issue, remarkType, principal.ActorID())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(remark))
}

func (h *Handler) updateRemark(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	issueID, ok := parseIDParam(c, "issueId")
	if !ok {
		return
	}

	var req struct {
		RemarkType string `json:"remark_type" binding:"required"`
		Status     string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	remarkType, err := model.ParseRemarkType(req.RemarkType)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	remark, err := h.remarkService.UpdateRemark(c.Request.Context(), issueID, remarkType, req.Status, principal.ActorID())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(remark))
}

func (h *Handler) markRemarkViewed(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	issueID, ok := parseIDParam(c, "issueId")
	if !ok {
		return
	}

	remark, err := h.remarkService.MarkRemarkAsViewed(c.Request.Context(), issueID, principal.ActorID())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(remark))
}

func (h *Handler) remarkHistory(c *gin.Context) {
	issueID, ok := parseIDParam(c, "issueId")
	if !ok {
		return
	}

	history, err := h.remarkService.GetHistory(c.Request.Context(), issueID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(history))
}
