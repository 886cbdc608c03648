package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Public share-token views are read only and unauthenticated. They return
// the same calculator-derived totals as the owner's view, so the client
// always sees the amount that will be charged.

func (s *Server) PublicQuote(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	view, err := s.quoteSvc.GetByShareToken(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) PublicInvoice(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		AbortWithError(c, invalidRequestError())
		return
	}

	view, err := s.invoiceSvc.GetByShareToken(c.Request.Context(), token)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}
