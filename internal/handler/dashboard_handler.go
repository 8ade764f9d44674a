package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skynet-legal/legaleagle-api/internal/middleware"
	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
	"github.com/skynet-legal/legaleagle-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context, userID string) (*models.DashboardStats, bool, error)
}

// DashboardHandler serves the portfolio summary endpoint.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Stats godoc
// @Summary Portfolio statistics
// @Description Status counts for the caller's agreement portfolio
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	stats, hit, err := h.service.Stats(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}
