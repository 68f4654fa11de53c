// WhatsApp webhook handlers.
//
//   - POST /webhook/whatsapp   (Twilio form post; replies with empty TwiML)
//   - GET  /webhook/test       (liveness of the webhook surface)
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/http/middleware"
	"github.com/tbourn/go-sentiment-backend/internal/services"
)

// emptyTwiML acknowledges a webhook delivery without sending a reply.
const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// WebhookStatus is the body returned by GET /webhook/test.
type WebhookStatus struct {
	Message   string    `json:"message" example:"webhook endpoint is working"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status" example:"ok"`
}

// WhatsAppWebhook godoc
// @ID          whatsappWebhook
// @Summary     Receive a WhatsApp message
// @Description Accepts a Twilio webhook delivery, stores and classifies the message and acknowledges with empty TwiML. A redelivered MessageSid is acknowledged without storing it again.
// @Tags        Webhook
// @Accept      x-www-form-urlencoded
// @Produce     xml
//
// @Param       Body        formData  string  true   "Message text"
// @Param       From        formData  string  true   "Sender address"  example(whatsapp:+5215550001111)
// @Param       MessageSid  formData  string  false  "Provider message id"
//
// @Success     200  {string}  string  "Empty TwiML response"
// @Failure     400  {object}  handlers.ErrorResponse  "Missing Body or From"
// @Failure     500  {object}  handlers.ErrorResponse  "Ingestion failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /webhook/whatsapp [post]
func (h *Handlers) WhatsAppWebhook(c *gin.Context) {
	body := strings.TrimSpace(c.PostForm("Body"))
	from := strings.TrimSpace(c.PostForm("From"))
	sid := strings.TrimSpace(c.PostForm("MessageSid"))
	if body == "" || from == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Body and From are required")
		return
	}

	res, err := h.ingest.IngestOnce(c.Request.Context(), domain.ScopeWebhook, sid, services.InboundMessage{
		Text:        body,
		Sender:      from,
		ExternalRef: sid,
		ReceivedAt:  h.now(),
	})
	if err != nil {
		failIngest(c, err)
		return
	}

	middleware.LoggerFrom(c).Info().
		Str("message_id", res.ID).
		Bool("replayed", res.Replayed).
		Msg("webhook message ingested")

	c.Data(http.StatusOK, "application/xml", []byte(emptyTwiML))
}

// WebhookTest godoc
// @ID          webhookTest
// @Summary     Webhook liveness
// @Tags        Webhook
// @Produce     json
// @Success     200  {object}  handlers.WebhookStatus
// @Router      /webhook/test [get]
func (h *Handlers) WebhookTest(c *gin.Context) {
	ok(c, http.StatusOK, WebhookStatus{
		Message:   "webhook endpoint is working",
		Timestamp: h.now().UTC(),
		Status:    "ok",
	})
}

// failIngest maps ingestion errors. Only validation and the save can fail
// an ingestion.
func failIngest(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrStoreUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "message store is not available")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeIngestFailed, err.Error())
	}
}
