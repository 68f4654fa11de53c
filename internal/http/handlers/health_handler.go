// Health and diagnostics handlers.
//
//   - GET /              (service banner)
//   - GET /health        (store connectivity)
//   - GET /config/check  (which integrations are configured)
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/sysutil"
)

// pingTimeout bounds the store ping behind /health.
const pingTimeout = 2 * time.Second

// maskKeep is how much of the DB path /config/check reveals.
const maskKeep = 20

// ServiceStatus is the body of GET /.
type ServiceStatus struct {
	Message string `json:"message" example:"WhatsApp Sentiment Analysis API"`
	Status  string `json:"status"  example:"running"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string `json:"status" example:"ok"`
	Store  string `json:"store"  example:"connected"`
}

// ConfigStatus is the body of GET /config/check.
type ConfigStatus struct {
	Twilio struct {
		Configured  bool `json:"configured"`
		PhoneNumber bool `json:"phone_number"`
	} `json:"twilio"`
	OpenAI struct {
		Configured bool `json:"configured"`
	} `json:"openai"`
	Database struct {
		Connected bool   `json:"connected"`
		Path      string `json:"path" example:"sentiment.db"`
	} `json:"database"`
}

// Root godoc
// @ID          root
// @Summary     Service banner
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.ServiceStatus
// @Router      / [get]
func (h *Handlers) Root(c *gin.Context) {
	ok(c, http.StatusOK, ServiceStatus{Message: "WhatsApp Sentiment Analysis API", Status: "running"})
}

// Health godoc
// @ID          health
// @Summary     Health check
// @Description Reports 200 when the message store answers a ping, 503 otherwise.
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthStatus
// @Failure     503  {object}  handlers.HealthStatus
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthStatus{Status: "degraded", Store: "unavailable"})
		return
	}
	ok(c, http.StatusOK, HealthStatus{Status: "ok", Store: "connected"})
}

// ConfigCheck godoc
// @ID          configCheck
// @Summary     Integration configuration
// @Description Reports whether the upstream channel and the inference backend are configured and whether the store is connected. Secrets are never returned.
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.ConfigStatus
// @Router      /config/check [get]
func (h *Handlers) ConfigCheck(c *gin.Context) {
	var st ConfigStatus
	st.Twilio.Configured = h.info.TwilioConfigured
	st.Twilio.PhoneNumber = h.info.TwilioPhone
	st.OpenAI.Configured = h.info.OpenAIConfigured
	st.Database.Connected = h.store.Connected()
	st.Database.Path = sysutil.MaskValue(h.info.DBPath, maskKeep)
	ok(c, http.StatusOK, st)
}
