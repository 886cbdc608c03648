package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/tradecrew/tradecrew/internal/money"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
)

type quoteRequest struct {
	CompanyID     string            `json:"company_id"`
	ClientID      *string           `json:"client_id"`
	Title         string            `json:"title"`
	Currency      string            `json:"currency"`
	DiscountKind  string            `json:"discount_kind"`
	DiscountValue float64           `json:"discount_value"`
	TaxRate       float64           `json:"tax_rate"`
	DepositAmount int64             `json:"deposit_amount"`
	ExpiresAt     string            `json:"expires_at"`
	Metadata      map[string]any    `json:"metadata"`
	Items         []lineItemPayload `json:"items"`
}

func (r quoteRequest) toDomain() (quotedomain.CreateQuoteRequest, error) {
	companyID, err := requiredID(r.CompanyID, "company_id")
	if err != nil {
		return quotedomain.CreateQuoteRequest{}, err
	}
	clientID, err := optionalID(r.ClientID)
	if err != nil {
		return quotedomain.CreateQuoteRequest{}, err
	}
	expiresAt, err := parseOptionalTime(r.ExpiresAt)
	if err != nil {
		return quotedomain.CreateQuoteRequest{}, err
	}

	kind := money.DiscountKind(strings.TrimSpace(r.DiscountKind))
	if kind == "" {
		kind = money.DiscountPercent
	}

	return quotedomain.CreateQuoteRequest{
		CompanyID:     companyID,
		ClientID:      clientID,
		Title:         strings.TrimSpace(r.Title),
		Currency:      strings.TrimSpace(r.Currency),
		DiscountKind:  kind,
		DiscountValue: r.DiscountValue,
		TaxRate:       r.TaxRate,
		DepositAmount: r.DepositAmount,
		ExpiresAt:     expiresAt,
		Metadata:      toMetadata(r.Metadata),
		Items:         toLineItems(r.Items),
	}, nil
}

func (s *Server) CreateQuote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	domainReq, err := req.toDomain()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.quoteSvc.Create(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) GetQuote(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.quoteSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) UpdateQuote(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	domainReq, err := req.toDomain()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.quoteSvc.Update(c.Request.Context(), quotedomain.UpdateQuoteRequest{
		ID:                 id,
		CreateQuoteRequest: domainReq,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) SendQuote(c *gin.Context) {
	s.quoteAction(c, s.quoteSvc.Send)
}

func (s *Server) AcceptQuote(c *gin.Context) {
	s.quoteAction(c, s.quoteSvc.Accept)
}

func (s *Server) DeclineQuote(c *gin.Context) {
	s.quoteAction(c, s.quoteSvc.Decline)
}

func (s *Server) quoteAction(c *gin.Context, action func(ctx context.Context, id snowflake.ID) (*quotedomain.View, error)) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := action(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}
