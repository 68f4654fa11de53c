// Statistics HTTP handlers.
//
//   - GET {base}/sentiments
//   - GET {base}/topics   (also {base}/themes)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Sentiments godoc
// @ID          sentimentStats
// @Summary     Sentiment distribution
// @Description Counts messages per sentiment. Unclassified messages are counted as pending; total is the number of stored messages.
// @Tags        Stats
// @Produce     json
// @Success     200  {object}  domain.SentimentStats
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /api/sentiments [get]
func (h *Handlers) Sentiments(c *gin.Context) {
	st, err := h.stats.SentimentCounts(c.Request.Context())
	if err != nil {
		failStore(c, err, ErrCodeStatsFailed)
		return
	}
	ok(c, http.StatusOK, st)
}

// Topics godoc
// @ID          topicStats
// @Summary     Topic distribution
// @Description Counts messages per topic, most frequent first. Unclassified messages are reported under "unclassified".
// @Tags        Stats
// @Produce     json
// @Success     200  {array}   domain.TopicCount
// @Failure     500  {object}  handlers.ErrorResponse "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse "Store unavailable"
// @Router      /api/topics [get]
func (h *Handlers) Topics(c *gin.Context) {
	tc, err := h.stats.TopicCounts(c.Request.Context())
	if err != nil {
		failStore(c, err, ErrCodeStatsFailed)
		return
	}
	ok(c, http.StatusOK, tc)
}
