package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
	"github.com/skynet-legal/legaleagle-api/pkg/response"
)

type notificationService interface {
	Dispatch(ctx context.Context, userID string) (*models.DispatchSummary, error)
	History(ctx context.Context, userID string, page, pageSize int) ([]models.NotificationLog, *models.Pagination, error)
}

// NotificationHandler exposes the alert dispatch endpoints.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// Dispatch godoc
// @Summary Dispatch expiry alerts
// @Description Scan the portfolio and send alerts for expiring and expired agreements
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications/dispatch [post]
func (h *NotificationHandler) Dispatch(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.Dispatch(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil)
}

// History godoc
// @Summary Notification history
// @Description Paginated log of previously dispatched alerts
// @Tags Notifications
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	items, pagination, err := h.service.History(c.Request.Context(), claims.UserID, queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}
