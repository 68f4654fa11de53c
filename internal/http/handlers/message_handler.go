// Message HTTP handlers.
//
//   - POST {base}/test-message   (synchronous ingestion, Idempotency-Key aware)
//   - GET  {base}/messages       (newest first, limit/offset, ETag support)
//   - GET  {base}/messages/:id   (single message)
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-sentiment-backend/internal/domain"
	"github.com/tbourn/go-sentiment-backend/internal/http/middleware"
	"github.com/tbourn/go-sentiment-backend/internal/services"
	"github.com/tbourn/go-sentiment-backend/internal/sysutil"
	"github.com/tbourn/go-sentiment-backend/internal/utils"
)

// HeaderTotalCount carries the total number of stored messages on list responses.
const HeaderTotalCount = "X-Total-Count"

//
// DTOs
//

// TestMessageRequest is the form or JSON payload of POST /test-message.
type TestMessageRequest struct {
	Message string `form:"message" json:"message" example:"El servicio fue excelente"`
	Sender  string `form:"sender"  json:"sender"  example:"whatsapp:+5215550001111"`
}

// TestMessageResponse reports the id of the processed message.
type TestMessageResponse struct {
	Message string `json:"message" example:"message processed"`
	ID      string `json:"id"      example:"5f0c7e3a-2d55-4a4e-9bb1-1f6b2f0a0c11"`
}

//
// Handlers
//

// TestMessage godoc
// @ID          testMessage
// @Summary     Ingest a message without the upstream channel
// @Description Runs the full pipeline synchronously (save, classify, update). With an Idempotency-Key a retried request returns the original id and Idempotency-Replayed: true.
// @Tags        Messages
// @Accept      x-www-form-urlencoded,json
// @Produce     json
//
// @Param       Idempotency-Key  header    string  false  "Idempotency key"  example(2b0c9a52-retry-1)
// @Param       message          formData  string  true   "Message text"
// @Param       sender           formData  string  true   "Sender address"
//
// @Success     200  {object}  handlers.TestMessageResponse
// @Header      200  {string}  Idempotency-Replayed  "true when answered from a previous request"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Ingestion failed"
// @Failure     503  {object}  handlers.ErrorResponse  "Store unavailable"
// @Router      /api/test-message [post]
func (h *Handlers) TestMessage(c *gin.Context) {
	var req TestMessageRequest
	if err := c.ShouldBind(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}
	text := strings.TrimSpace(req.Message)
	sender := strings.TrimSpace(req.Sender)
	if text == "" || sender == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message and sender are required")
		return
	}

	// The validator already resolved a live key; the service would only
	// repeat that lookup.
	if id, found := middleware.ReplayedMessageID(c); found {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
		middleware.LoggerFrom(c).Info().Str("message_id", id).Msg("test message replayed")
		ok(c, http.StatusOK, TestMessageResponse{Message: "message processed", ID: id})
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	now := h.now()
	res, err := h.ingest.IngestOnce(c.Request.Context(), domain.ScopeAPI, key, services.InboundMessage{
		Text:        text,
		Sender:      sender,
		ExternalRef: "test_" + strconv.FormatInt(now.UnixNano(), 10),
		ReceivedAt:  now,
	})
	if err != nil {
		failIngest(c, err)
		return
	}
	if res.Replayed {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
	}
	middleware.LoggerFrom(c).Info().
		Str("message_id", res.ID).
		Bool("replayed", res.Replayed).
		Msg("test message ingested")
	ok(c, http.StatusOK, TestMessageResponse{Message: "message processed", ID: res.ID})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages (newest first)
// @Description Returns a page of stored messages with their classification. Unclassified messages show sentiment "pending" and topic "unclassified". Supports weak ETag via If-None-Match and may return 304.
// @Tags        Messages
// @Produce     json
//
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"messages:12:1700000000\")
// @Param       limit          query   int     false  "Page size"              minimum(1) maximum(500) default(50)
// @Param       offset         query   int     false  "Records to skip"        minimum(0) default(0)
// @Param       skip           query   int     false  "Alias of offset"        minimum(0)
//
// @Success     200  {array}   domain.MessageView
// @Header      200  {string}  ETag           "Weak ETag for current result"
// @Header      200  {integer} X-Total-Count  "Total stored messages"
// @Success     304  {string}  string "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /api/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	page, err := utils.ParsePage(
		c.Query("limit"),
		sysutil.FirstNonEmpty(c.Query("offset"), c.Query("skip")),
		services.DefaultListLimit, services.MaxListLimit,
	)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	// ETag pre-check (best effort).
	if count, maxTS, err := h.msgs.Fingerprint(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"messages:%d:%d:%d:%d"`, count, ts, page.Limit, page.Offset)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.msgs.List(ctx, page.Limit, page.Offset)
	if err != nil {
		failStore(c, err, ErrCodeListFailed)
		return
	}
	c.Header(HeaderTotalCount, strconv.FormatInt(total, 10))
	ok(c, http.StatusOK, items)
}

// GetMessage godoc
// @ID          getMessage
// @Summary     Get a message by id
// @Description Returns one stored message. An unclassified message shows sentiment "pending" and topic "unclassified".
// @Tags        Messages
// @Produce     json
// @Param       id   path      string  true  "Message id"
// @Success     200  {object}  domain.MessageView
// @Failure     404  {object}  handlers.ErrorResponse "Not found"
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /api/messages/{id} [get]
func (h *Handlers) GetMessage(c *gin.Context) {
	v, err := h.msgs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrMessageNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "message not found")
			return
		}
		failStore(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, v)
}
