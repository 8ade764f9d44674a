package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skynet-legal/legaleagle-api/internal/dto"
	"github.com/skynet-legal/legaleagle-api/internal/models"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
	"github.com/skynet-legal/legaleagle-api/pkg/response"
)

type agreementService interface {
	Upload(ctx context.Context, userID, fileName, mimeType string, data []byte) (*dto.AgreementResponse, error)
	List(ctx context.Context, userID string, filter models.AgreementFilter) ([]dto.AgreementResponse, *models.Pagination, error)
	Get(ctx context.Context, userID, id string) (*dto.AgreementResponse, error)
	DocumentURL(ctx context.Context, userID, id string) (*dto.DocumentURLResponse, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

// AgreementHandler exposes the agreement portfolio endpoints.
type AgreementHandler struct {
	service agreementService
}

// NewAgreementHandler constructs the handler.
func NewAgreementHandler(svc agreementService) *AgreementHandler {
	return &AgreementHandler{service: svc}
}

// Upload godoc
// @Summary Upload agreement document
// @Description Upload a contract document for extraction and classification
// @Tags Agreements
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Contract document"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /agreements [post]
func (h *AgreementHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
		return
	}

	item, err := h.service.Upload(c.Request.Context(), claims.UserID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// List godoc
// @Summary List agreements
// @Description List the caller's agreements with optional status and search filters
// @Tags Agreements
// @Produce json
// @Param status query string false "Status filter"
// @Param search query string false "Search across parties and file name"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /agreements [get]
func (h *AgreementHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.AgreementFilter{
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AgreementStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status filter"))
			return
		}
		filter.Status = &status
	}

	items, pagination, err := h.service.List(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get agreement
// @Tags Agreements
// @Produce json
// @Param id path string true "Agreement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /agreements/{id} [get]
func (h *AgreementHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	item, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item, nil)
}

// DocumentURL godoc
// @Summary Get document download link
// @Description Returns a short-lived presigned URL for the stored document
// @Tags Agreements
// @Produce json
// @Param id path string true "Agreement ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /agreements/{id}/document [get]
func (h *AgreementHandler) DocumentURL(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.DocumentURL(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Delete godoc
// @Summary Delete agreement
// @Tags Agreements
// @Produce json
// @Param id path string true "Agreement ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /agreements/{id} [delete]
func (h *AgreementHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// DeleteAll godoc
// @Summary Reset portfolio
// @Description Delete all of the caller's agreements
// @Tags Agreements
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /agreements [delete]
func (h *AgreementHandler) DeleteAll(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	deleted, err := h.service.DeleteAll(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
