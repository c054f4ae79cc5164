package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"issue-service/internal/http/middleware"
	"issue-service/internal/model"
	"issue-service/internal/service"
)

type Services struct {
	Issues  *service.IssueService
	Remarks *service.RemarkService
	Updates *service.UpdateService
	Staff   *service.StaffService
	Admins  *service.AdminService
	Users   *service.UserService
}

type Handler struct {
	issueService  *service.IssueService
	remarkService *service.RemarkService
	updateService *service.UpdateService
	staffService  *service.StaffService
	adminService  *service.AdminService
	userService   *service.UserService
	log           zerolog.Logger
}

func NewHandler(services Services, log zerolog.Logger) *Handler {
	return &Handler{
		issueService:  services.Issues,
		remarkService: services.Remarks,
		updateService: services.Updates,
		staffService:  services.Staff,
		adminService:  services.Admins,
		userService:   services.Users,
		log:           log,
	}
}

// Middlewares are the route guards wired by main. Nil entries are skipped.
type Middlewares struct {
	Auth       gin.HandlerFunc
	LoginLimit gin.HandlerFunc
	IssueQuota gin.HandlerFunc
}

func (h *Handler) Register(r *gin.Engine, mw Middlewares) {
	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(optional(mw.LoginLimit)...)
	{
		authGroup.POST("/admin/login", h.adminLogin)
		authGroup.POST("/staff/login", h.staffLogin)
	}

	// Mobile app endpoints, identified by email.
	public := api.Group("")
	{
		public.POST("/users", h.registerUser)
		public.PUT("/users/fcm-token", h.updateFCMToken)
		public.DELETE("/users/fcm-token", h.removeFCMToken)
		public.POST("/users/test-notification", h.sendTestNotification)

		public.POST("/issues", append(optional(mw.IssueQuota), h.createIssue)...)
		public.GET("/issues", h.listIssues)
		public.GET("/issues/nearby", h.nearbyIssues)
		public.GET("/issues/:id", h.getIssue)
		public.GET("/issues/:id/updates", h.listIssueUpdates)

		public.GET("/admins/check-email", h.checkAdminEmail)
	}

	protected := api.Group("")
	protected.Use(mw.Auth)

	staffOrAdmin := protected.Group("")
	staffOrAdmin.Use(middleware.RequireRole(model.RoleStaff, model.RoleAdmin))
	{
		staffOrAdmin.GET("/issues/assigned", h.listAssignedIssues)
		staffOrAdmin.POST("/issues/:id/updates", h.createIssueUpdate)
		staffOrAdmin.PUT("/updates/:id/status", h.changeUpdateStatus)
	}

	staffOnly := protected.Group("")
	staffOnly.Use(middleware.RequireRole(model.RoleStaff))
	{
		staffOnly.POST("/staff/change-password", h.changeStaffPassword)
	}

	admin := protected.Group("")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/issues/unassigned", h.listUnassignedIssues)
		admin.GET("/issues/stats", h.issueStats)
		admin.PUT("/issues/:id", h.updateIssue)
		admin.DELETE("/issues/:id", h.deleteIssue)
		admin.PUT("/issues/:id/assign", h.assignIssue)

		admin.GET("/remarks", h.listRemarks)
		admin.GET("/remarks/new", h.listNewRemarks)
		admin.POST("/remarks/batch", h.remarksByIssueIDs)
		admin.GET("/remarks/:issueId", h.getRemark)
		admin.POST("/remarks/:issueId", h.createRemark)
		admin.PUT("/remarks/:issueId", h.updateRemark)
		admin.PUT("/remarks/:issueId/viewed", h.markRemarkViewed)
		admin.GET("/remarks/:issueId/history", h.remarkHistory)

		admin.GET("/staff", h.listStaff)
		admin.POST("/staff", h.createStaff)
		admin.PUT("/staff/password", h.setStaffPassword)
		admin.POST("/staff/sync-identities", h.syncStaffIdentities)
		admin.GET("/staff/:id", h.getStaff)
		admin.PUT("/staff/:id", h.updateStaff)
		admin.DELETE("/staff/:id", h.deleteStaff)
		admin.GET("/staff/:id/can-delete", h.canDeleteStaff)
		admin.POST("/staff/:id/reset-password", h.resetStaffPassword)

		admin.GET("/admins", h.listAdmins)
		admin.POST("/admins", h.createAdmin)
		admin.GET("/admins/:id", h.getAdmin)
		admin.DELETE("/admins/:id", h.deleteAdmin)
	}
}

func optional(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, handler := range handlers {
		if handler != nil {
			out = append(out, handler)
		}
	}
	return out
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "validation failed",
			"violations": validationErr.Violations,
		})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, errorResponse(err.Error()))
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUpload):
		h.log.Error().Err(err).Msg("media upload failed")
		c.JSON(http.StatusBadGateway, errorResponse(err.Error()))
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(strings.TrimSpace(c.Query(name)))
	if err != nil {
		return 0
	}
	return value
}

// queryFloat returns nil for an absent parameter and an error for a malformed one.
func queryFloat(c *gin.Context, name string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// mediaFiles reads the named multipart fields. A non-multipart request has no files.
func mediaFiles(c *gin.Context, field string) []service.MediaFile {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}

	headers := form.File[field]
	files := make([]service.MediaFile, 0, len(headers))
	for _, header := range headers {
		files = append(files, mediaFile(header))
	}
	return files
}

func mediaFile(header *multipart.FileHeader) service.MediaFile {
	return service.MediaFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
}
