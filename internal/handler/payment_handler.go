package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/coursemarket/server/internal/dto"
	"github.com/coursemarket/server/internal/service"
	"github.com/coursemarket/server/pkg/response"
	"github.com/coursemarket/server/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

type PaymentHandler struct {
	service       service.PaymentService
	webhookSecret string
}

func NewPaymentHandler(service service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		service:       service,
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}
}

func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.CreateCheckoutSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": validator.FirstValidationError(err)})
		return
	}

	courseID, err := uuid.Parse(input.CourseID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid course id"})
		return
	}

	url, err := h.service.CreateCheckoutSession(c.Request.Context(), userID, courseID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CheckoutSessionResponse{URL: url})
}

// Webhook receives Stripe events. The signature is verified against the raw
// body before anything else is trusted.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "could not read payload"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid signature"})
		return
	}

	if event.Type == "checkout.session.completed" {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "malformed event payload"})
			return
		}

		var customerID string
		if session.Customer != nil {
			customerID = session.Customer.ID
		}

		if err := h.service.ConfirmCheckout(c.Request.Context(), event.ID, session.ID, customerID); err != nil {
			response.ResponseError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
