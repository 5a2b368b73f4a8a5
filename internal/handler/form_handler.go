package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cd-sync-api/internal/client"
	"github.com/noah-isme/cd-sync-api/internal/dto"
	appErrors "github.com/noah-isme/cd-sync-api/pkg/errors"
	"github.com/noah-isme/cd-sync-api/pkg/response"
)

type botScoreVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (client.VerifyResult, error)
}

type submissionProcessor interface {
	Process(ctx context.Context, req dto.IntakeRequest, remoteIP string, captchaScore float64) (*dto.IntakeResult, error)
}

// FormHandler exposes the form intake endpoint.
type FormHandler struct {
	verifier  botScoreVerifier
	processor submissionProcessor
}

// NewFormHandler constructs the handler.
func NewFormHandler(verifier botScoreVerifier, processor submissionProcessor) *FormHandler {
	return &FormHandler{verifier: verifier, processor: processor}
}

// Submit godoc
// @Summary Accept a form submission for relay
// @Tags Forms
// @Accept json
// @Produce json
// @Param payload body dto.IntakeRequest true "Form submission"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /forms/submit [post]
func (h *FormHandler) Submit(c *gin.Context) {
	var req dto.IntakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload"))
		return
	}

	remoteIP := c.ClientIP()

	verdict, err := h.verifier.Verify(c.Request.Context(), req.CaptchaToken, remoteIP)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !verdict.Accepted {
		response.Error(c, appErrors.ErrCaptchaReject)
		return
	}

	result, err := h.processor.Process(c.Request.Context(), req, remoteIP, verdict.Score)
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Errors) > 0 {
		response.JSON(c, http.StatusBadRequest, result)
		return
	}

	response.JSON(c, http.StatusOK, result)
}
