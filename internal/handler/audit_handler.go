package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/audit", middleware.RequirePermission("admin.audit.view"), h.ListAuditLogs)
}

// ListAuditLogs returns the paginated audit trail, newest first
// @Summary Audit trail
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Param action query string false "Filter by action code"
// @Success 200 {object} response.Response{data=[]model.AuditLog}
// @Router /api/audit [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	rows, total, err := h.auditService.ListAuditLogs(c.Request.Context(), actorFromContext(c), params, c.Query("action"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, response.List(http.StatusOK, rows, params.Page, params.Limit, total))
}
