package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
)

type createJobRequest struct {
	CompanyID    string            `json:"company_id"`
	ClientID     *string           `json:"client_id"`
	Title        string            `json:"title"`
	Currency     string            `json:"currency"`
	ScheduledFor string            `json:"scheduled_for"`
	Metadata     map[string]any    `json:"metadata"`
	Items        []lineItemPayload `json:"items"`
}

func (s *Server) CreateJob(c *gin.Context) {
	var req createJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	companyID, err := requiredID(req.CompanyID, "company_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	clientID, err := optionalID(req.ClientID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	scheduledFor, err := parseOptionalTime(req.ScheduledFor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.jobSvc.Create(c.Request.Context(), jobdomain.CreateJobRequest{
		CompanyID:    companyID,
		ClientID:     clientID,
		Title:        strings.TrimSpace(req.Title),
		Currency:     strings.TrimSpace(req.Currency),
		ScheduledFor: scheduledFor,
		Metadata:     toMetadata(req.Metadata),
		Items:        toLineItems(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) GetJob(c *gin.Context) {
	s.jobAction(c, s.jobSvc.Get)
}

func (s *Server) StartJob(c *gin.Context) {
	s.jobAction(c, s.jobSvc.Start)
}

func (s *Server) CompleteJob(c *gin.Context) {
	s.jobAction(c, s.jobSvc.Complete)
}

func (s *Server) CancelJob(c *gin.Context) {
	s.jobAction(c, s.jobSvc.Cancel)
}

func (s *Server) jobAction(c *gin.Context, action func(ctx context.Context, id snowflake.ID) (*jobdomain.View, error)) {
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

type replaceItemsRequest struct {
	Items []lineItemPayload `json:"items"`
}

func (s *Server) ReplaceJobItems(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req replaceItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	view, err := s.jobSvc.ReplaceItems(c.Request.Context(), id, toLineItems(req.Items))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) DeleteJob(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.jobSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type generateInvoiceRequest struct {
	TaxRate float64 `json:"tax_rate"`
	DueAt   string  `json:"due_at"`
}

func (s *Server) GenerateInvoiceFromJob(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req generateInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	dueAt, err := parseOptionalTime(req.DueAt)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.invoiceSvc.GenerateFromJob(c.Request.Context(), invoicedomain.GenerateFromJobRequest{
		JobID:   id,
		TaxRate: req.TaxRate,
		DueAt:   dueAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view})
}
