package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	"github.com/tradecrew/tradecrew/internal/money"
)

type invoiceRequest struct {
	CompanyID         string            `json:"company_id"`
	ClientID          *string           `json:"client_id"`
	Title             string            `json:"title"`
	Currency          string            `json:"currency"`
	DiscountKind      string            `json:"discount_kind"`
	DiscountValue     float64           `json:"discount_value"`
	TaxRate           float64           `json:"tax_rate"`
	DepositPaidAmount int64             `json:"deposit_paid_amount"`
	DueAt             string            `json:"due_at"`
	Metadata          map[string]any    `json:"metadata"`
	Items             []lineItemPayload `json:"items"`
}

func (r invoiceRequest) toDomain() (invoicedomain.CreateInvoiceRequest, error) {
	companyID, err := requiredID(r.CompanyID, "company_id")
	if err != nil {
		return invoicedomain.CreateInvoiceRequest{}, err
	}
	clientID, err := optionalID(r.ClientID)
	if err != nil {
		return invoicedomain.CreateInvoiceRequest{}, err
	}
	dueAt, err := parseOptionalTime(r.DueAt)
	if err != nil {
		return invoicedomain.CreateInvoiceRequest{}, err
	}

	kind := money.DiscountKind(strings.TrimSpace(r.DiscountKind))
	if kind == "" {
		kind = money.DiscountPercent
	}

	return invoicedomain.CreateInvoiceRequest{
		CompanyID:         companyID,
		ClientID:          clientID,
		Title:             strings.TrimSpace(r.Title),
		Currency:          strings.TrimSpace(r.Currency),
		DiscountKind:      kind,
		DiscountValue:     r.DiscountValue,
		TaxRate:           r.TaxRate,
		DepositPaidAmount: r.DepositPaidAmount,
		DueAt:             dueAt,
		Metadata:          toMetadata(r.Metadata),
		Items:             toLineItems(r.Items),
	}, nil
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	domainReq, err := req.toDomain()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.invoiceSvc.Create(c.Request.Context(), domainReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) GetInvoice(c *gin.Context) {
	s.invoiceAction(c, s.invoiceSvc.Get)
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	domainReq, err := req.toDomain()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		ID:                   id,
		CreateInvoiceRequest: domainReq,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) SendInvoice(c *gin.Context) {
	s.invoiceAction(c, s.invoiceSvc.Send)
}

func (s *Server) MarkInvoicePaid(c *gin.Context) {
	s.invoiceAction(c, s.invoiceSvc.MarkPaid)
}

func (s *Server) CancelInvoice(c *gin.Context) {
	s.invoiceAction(c, s.invoiceSvc.Cancel)
}

type attachProviderInvoiceRequest struct {
	ProviderInvoiceID string `json:"provider_invoice_id"`
}

func (s *Server) AttachProviderInvoice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req attachProviderInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	providerID := strings.TrimSpace(req.ProviderInvoiceID)
	if providerID == "" {
		AbortWithError(c, newValidationError("provider_invoice_id", "required", "provider_invoice_id is required"))
		return
	}

	view, err := s.invoiceSvc.AttachProviderInvoice(c.Request.Context(), id, providerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) invoiceAction(c *gin.Context, action func(ctx context.Context, id snowflake.ID) (*invoicedomain.View, error)) {
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
