package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"issue-service/internal/http/middleware"
	"issue-service/internal/service"
)

type issueFieldsRequest struct {
	Description         string   `form:"description" json:"description"`
	UsingCustomLocation bool     `form:"usingCustomLocation" json:"usingCustomLocation"`
	Latitude            *float64 `form:"latitude" json:"latitude"`
	Longitude           *float64 `form:"longitude" json:"longitude"`
	CustomLocation      string   `form:"customLocation" json:"customLocation"`
	Category            string   `form:"category" json:"category"`
	CustomCategory      string   `form:"customCategory" json:"customCategory"`
}

func (r issueFieldsRequest) fields() service.IssueFields {
	return service.IssueFields{
		Description:         r.Description,
		UsingCustomLocation: r.UsingCustomLocation,
		Latitude:            r.Latitude,
		Longitude:           r.Longitude,
		CustomLocation:      r.CustomLocation,
		Category:            r.Category,
		CustomCategory:      r.CustomCategory,
	}
}

func (h *Handler) createIssue(c *gin.Context) {
	var req struct {
		issueFieldsRequest
		Email    string `form:"email"`
		Username string `form:"username"`
	}

	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	issue, err := h.issueService.Create(c.Request.Context(), service.CreateIssueInput{
		IssueFields:      req.fields(),
		ReporterEmail:    req.Email,
		ReporterUsername: req.Username,
		Photos:           mediaFiles(c, "photos"),
		Videos:           mediaFiles(c, "videos"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(issue))
}

func (h *Handler) getIssue(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	issue, err := h.issueService.GetWithRemark(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(issue))
}

func (h *Handler) listIssues(c *gin.Context) {
	page, err := h.issueService.List(c.Request.Context(), service.IssueQuery{
		Status: strings.TrimSpace(c.Query("status")),
		Page:   queryInt(c, "page"),
		Size:   queryInt(c, "size"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(page))
}

func (h *Handler) listUnassignedIssues(c *gin.Context) {
	page, err := h.issueService.ListUnassigned(c.Request.Context(), queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(page))
}

func (h *Handler) listAssignedIssues(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	page, err := h.issueService.ListAssigned(c.Request.Context(), principal, queryInt(c, "page"), queryInt(c, "size"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(page))
}

func (h *Handler) nearbyIssues(c *gin.Context) {
	lat, err := queryFloat(c, "latitude")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("latitude must be a number"))
		return
	}
	lon, err := queryFloat(c, "longitude")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("longitude must be a number"))
		return
	}
	radius, err := queryFloat(c, "radiusKm")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("radiusKm must be a number"))
		return
	}

	issues, err := h.issueService.Nearby(c.Request.Context(), lat, lon, radius)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(issues))
}

func (h *Handler) updateIssue(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req issueFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	issue, err := h.issueService.Update(c.Request.Context(), id, req.fields())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(issue))
}

func (h *Handler) deleteIssue(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.issueService.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"deleted": true}))
}

func (h *Handler) assignIssue(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		StaffID  string `json:"staff_id" binding:"required,uuid"`
		Priority string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	issue, err := h.issueService.Assign(c.Request.Context(), id, uuid.MustParse(req.StaffID), req.Priority)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(issue))
}

func (h *Handler) issueStats(c *gin.Context) {
	stats, err := h.issueService.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(stats))
}
