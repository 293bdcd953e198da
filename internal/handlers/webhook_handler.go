package handlers

import (
	"io"
	"net/http"

	"ourskilllab/internal/services"
	"ourskilllab/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// Signature headers per payment provider.
var signatureHeaders = map[string]string{
	"stripe":   "Stripe-Signature",
	"razorpay": "X-Razorpay-Signature",
}

type WebhookHandler struct {
	webhookService services.WebhookService
}

func NewWebhookHandler(webhookService services.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// HandleWebhook verifies and processes a payment provider callback. The raw
// body is required for signature verification.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	provider := c.Param("provider")
	header, ok := signatureHeaders[provider]
	if !ok {
		utils.NotFoundResponse(c, "Webhook provider")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.BadRequestResponse(c, "Could not read request body")
		return
	}

	if err := h.webhookService.HandleWebhook(c.Request.Context(), provider, payload, c.GetHeader(header)); err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
