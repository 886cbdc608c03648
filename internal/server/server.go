package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tradecrew/tradecrew/internal/company"
	"github.com/tradecrew/tradecrew/internal/config"
	"github.com/tradecrew/tradecrew/internal/invoice"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	"github.com/tradecrew/tradecrew/internal/job"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	"github.com/tradecrew/tradecrew/internal/lifecycle"
	"github.com/tradecrew/tradecrew/internal/lineitem"
	"github.com/tradecrew/tradecrew/internal/providers/email"
	"github.com/tradecrew/tradecrew/internal/quote"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
	"github.com/tradecrew/tradecrew/internal/subscription"
	"github.com/tradecrew/tradecrew/internal/webhook"
	webhookdomain "github.com/tradecrew/tradecrew/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	email.Module,
	lineitem.Module,
	company.Module,
	quote.Module,
	job.Module,
	invoice.Module,
	lifecycle.Module,
	subscription.Module,
	webhook.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log.Named("http")))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	quoteSvc   quotedomain.Service
	jobSvc     jobdomain.Service
	invoiceSvc invoicedomain.Service
	webhookSvc webhookdomain.Service
}

type ServerParams struct {
	fx.In

	Engine     *gin.Engine
	Config     config.Config
	QuoteSvc   quotedomain.Service
	JobSvc     jobdomain.Service
	InvoiceSvc invoicedomain.Service
	WebhookSvc webhookdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Engine,
		cfg:        p.Config,
		quoteSvc:   p.QuoteSvc,
		jobSvc:     p.JobSvc,
		invoiceSvc: p.InvoiceSvc,
		webhookSvc: p.WebhookSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	quotes := v1.Group("/quotes")
	quotes.POST("", s.CreateQuote)
	quotes.GET("/:id", s.GetQuote)
	quotes.PUT("/:id", s.UpdateQuote)
	quotes.POST("/:id/send", s.SendQuote)
	quotes.POST("/:id/accept", s.AcceptQuote)
	quotes.POST("/:id/decline", s.DeclineQuote)

	jobs := v1.Group("/jobs")
	jobs.POST("", s.CreateJob)
	jobs.GET("/:id", s.GetJob)
	jobs.POST("/:id/start", s.StartJob)
	jobs.POST("/:id/complete", s.CompleteJob)
	jobs.POST("/:id/cancel", s.CancelJob)
	jobs.PUT("/:id/items", s.ReplaceJobItems)
	jobs.DELETE("/:id", s.DeleteJob)
	jobs.POST("/:id/invoice", s.GenerateInvoiceFromJob)

	invoices := v1.Group("/invoices")
	invoices.POST("", s.CreateInvoice)
	invoices.GET("/:id", s.GetInvoice)
	invoices.PUT("/:id", s.UpdateInvoice)
	invoices.POST("/:id/send", s.SendInvoice)
	invoices.POST("/:id/pay", s.MarkInvoicePaid)
	invoices.POST("/:id/cancel", s.CancelInvoice)
	invoices.POST("/:id/provider", s.AttachProviderInvoice)

	public := s.engine.Group("/public")
	public.GET("/quotes/:token", s.PublicQuote)
	public.GET("/invoices/:token", s.PublicInvoice)

	s.engine.POST("/webhooks/:source", s.HandleWebhook)
}
