package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	webhookdomain "github.com/tradecrew/tradecrew/internal/webhook/domain"
)

// HandleWebhook receives provider deliveries. The raw body is verified
// before parsing; a signature failure rejects the delivery with no state
// read or written, while verified deliveries are acknowledged with 200 even
// when they turn out to be duplicates or unmatched references, so the
// provider stops redelivering them. Only transient storage errors return a
// retryable 5xx.
func (s *Server) HandleWebhook(c *gin.Context) {
	source := webhookdomain.Source(strings.TrimSpace(c.Param("source")))

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.webhookSvc.Ingest(c.Request.Context(), source, payload, c.Request.Header)
	if err != nil {
		if errors.Is(err, webhookdomain.ErrUnknownSource) {
			AbortWithError(c, ErrNotFound)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "result": result})
}
