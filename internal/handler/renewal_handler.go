package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skynet-legal/legaleagle-api/internal/dto"
	appErrors "github.com/skynet-legal/legaleagle-api/pkg/errors"
	"github.com/skynet-legal/legaleagle-api/pkg/response"
)

type renewalService interface {
	Generate(ctx context.Context, userID, agreementID string) (*dto.RenewalDraftResponse, error)
	Get(ctx context.Context, userID, id string) (*dto.RenewalDraftResponse, error)
	Edit(ctx context.Context, userID, id string, req dto.UpdateDraftRequest) (*dto.RenewalDraftResponse, error)
	Sign(ctx context.Context, userID, id string, req dto.SignDraftRequest) (*dto.RenewalDraftResponse, error)
	Reopen(ctx context.Context, userID, id string) (*dto.RenewalDraftResponse, error)
	Submit(ctx context.Context, userID, id string) (*dto.RenewalDraftResponse, error)
	RenderPDF(ctx context.Context, userID, id string) ([]byte, string, error)
}

// RenewalHandler exposes the renewal draft workflow endpoints.
type RenewalHandler struct {
	service renewalService
}

// NewRenewalHandler constructs the handler.
func NewRenewalHandler(svc renewalService) *RenewalHandler {
	return &RenewalHandler{service: svc}
}

// Generate godoc
// @Summary Generate renewal draft
// @Description Produce an AI-drafted renewal contract for an agreement
// @Tags Renewals
// @Produce json
// @Param id path string true "Agreement ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /agreements/{id}/renewal [post]
func (h *RenewalHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	draft, err := h.service.Generate(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, draft)
}

// Get godoc
// @Summary Get renewal draft
// @Tags Renewals
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /renewals/{id} [get]
func (h *RenewalHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	draft, err := h.service.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, draft, nil)
}

// Edit godoc
// @Summary Edit renewal draft
// @Description Replace the draft body; only unsigned drafts can be edited
// @Tags Renewals
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.UpdateDraftRequest true "Draft content"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /renewals/{id} [put]
func (h *RenewalHandler) Edit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "draft content required"))
		return
	}

	draft, err := h.service.Edit(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, draft, nil)
}

// Sign godoc
// @Summary Sign renewal draft
// @Tags Renewals
// @Accept json
// @Produce json
// @Param id path string true "Draft ID"
// @Param payload body dto.SignDraftRequest true "Signer"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /renewals/{id}/sign [post]
func (h *RenewalHandler) Sign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SignDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "signer name required"))
		return
	}

	draft, err := h.service.Sign(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, draft, nil)
}

// Reopen godoc
// @Summary Reopen signed draft
// @Description Clear the signature and return the draft to an editable state
// @Tags Renewals
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /renewals/{id}/reopen [post]
func (h *RenewalHandler) Reopen(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	draft, err := h.service.Reopen(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, draft, nil)
}

// Submit godoc
// @Summary Submit signed draft
// @Description Submit a signed draft for approval; the source agreement moves to pending
// @Tags Renewals
// @Produce json
// @Param id path string true "Draft ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /renewals/{id}/submit [post]
func (h *RenewalHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	draft, err := h.service.Submit(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, draft, nil)
}

// PDF godoc
// @Summary Download draft as PDF
// @Tags Renewals
// @Produce application/pdf
// @Param id path string true "Draft ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /renewals/{id}/pdf [get]
func (h *RenewalHandler) PDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	content, fileName, err := h.service.RenderPDF(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/pdf", content)
}
