package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/tradecrew/tradecrew/internal/clock"
	"github.com/tradecrew/tradecrew/internal/invoice/domain"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	"github.com/tradecrew/tradecrew/internal/lifecycle"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"github.com/tradecrew/tradecrew/internal/money"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Jobs     jobdomain.Repository
	Quotes   quotedomain.Repository
	Items    lineitemdomain.Repository
	Executor *lifecycle.Executor
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	repo   domain.Repository
	jobs   jobdomain.Repository
	quotes quotedomain.Repository
	items  lineitemdomain.Repository
	exec   *lifecycle.Executor
}

func NewService(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("invoice.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		repo:   p.Repo,
		jobs:   p.Jobs,
		quotes: p.Quotes,
		items:  p.Items,
		exec:   p.Executor,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (*domain.View, error) {
	items, err := normalizeItems(req.Items)
	if err != nil {
		return nil, err
	}
	totals := money.Calculate(lineitemdomain.AsLines(items), money.Discount{Kind: req.DiscountKind, Value: req.DiscountValue}, req.TaxRate, req.DepositPaidAmount)
	if totals.Deficit {
		return nil, domain.ErrDepositExceedsTotal
	}

	now := s.clock.Now()
	invoice := &domain.Invoice{
		ID:                s.genID.Generate(),
		CompanyID:         req.CompanyID,
		ClientID:          req.ClientID,
		Title:             req.Title,
		Currency:          currencyOrDefault(req.Currency),
		Status:            domain.StatusDraft,
		DiscountKind:      req.DiscountKind,
		DiscountValue:     req.DiscountValue,
		TaxRate:           req.TaxRate,
		DepositPaidAmount: req.DepositPaidAmount,
		DueAt:             req.DueAt,
		Metadata:          req.Metadata,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, invoice); err != nil {
			return err
		}
		saved, err := s.items.ReplaceAll(ctx, tx, lineitemdomain.KindInvoice, invoice.ID, items, s.genID, now)
		if err != nil {
			return err
		}
		items = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice created",
		zap.Int64("invoice_id", int64(invoice.ID)),
		zap.Int64("company_id", int64(invoice.CompanyID)),
	)
	return s.view(invoice, items), nil
}

// GenerateFromJob turns a completed job into a draft invoice. The job's
// estimate total is frozen in the same transaction, so a second generation
// attempt aborts as already applied.
func (s *Service) GenerateFromJob(ctx context.Context, req domain.GenerateFromJobRequest) (*domain.View, error) {
	job, err := s.jobs.FindByID(ctx, s.db, req.JobID)
	if err != nil {
		return nil, err
	}
	if job.Status != jobdomain.StatusCompleted {
		return nil, jobdomain.ErrNotCompleted
	}
	if job.Frozen() {
		return nil, lifecycle.ErrAlreadyApplied
	}

	items, err := s.items.ListByDocument(ctx, s.db, lineitemdomain.KindJob, job.ID)
	if err != nil {
		return nil, err
	}
	estimateTotal := money.Calculate(lineitemdomain.AsLines(items), money.Discount{}, 0, 0).Subtotal

	now := s.clock.Now()
	invoice := domain.Invoice{
		ID:        s.genID.Generate(),
		CompanyID: job.CompanyID,
		ClientID:  job.ClientID,
		JobID:     &job.ID,
		Title:     job.Title,
		Currency:  job.Currency,
		Status:    domain.StatusDraft,
		TaxRate:   req.TaxRate,
		DueAt:     req.DueAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Pricing modifiers and the deposit credit carry over from the
	// originating quote so the client is billed for the balance, not the
	// full amount again.
	if job.QuoteID != nil {
		quote, err := s.quotes.FindByID(ctx, s.db, *job.QuoteID)
		if err != nil && !errors.Is(err, quotedomain.ErrNotFound) {
			return nil, err
		}
		if quote != nil {
			invoice.QuoteID = job.QuoteID
			invoice.DiscountKind = quote.DiscountKind
			invoice.DiscountValue = quote.DiscountValue
			if req.TaxRate == 0 {
				invoice.TaxRate = quote.TaxRate
			}
			if quote.DepositPaid {
				invoice.DepositPaidAmount = quote.DepositAmount
			}
		}
	}
	if invoice.DiscountKind == "" {
		invoice.DiscountKind = money.DiscountPercent
	}

	if err := s.exec.Apply(ctx, lifecycle.PlanInvoiceFromJob(*job, invoice, estimateTotal)); err != nil {
		return nil, err
	}

	s.log.Info("invoice generated from job",
		zap.Int64("invoice_id", int64(invoice.ID)),
		zap.Int64("job_id", int64(job.ID)),
		zap.Int64("estimate_total", estimateTotal),
	)
	return s.Get(ctx, invoice.ID)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (*domain.View, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == domain.StatusPaid {
		return nil, domain.ErrInvoicePaid
	}
	if !invoice.Editable() {
		return nil, domain.ErrNotEditable
	}

	items, err := normalizeItems(req.Items)
	if err != nil {
		return nil, err
	}
	totals := money.Calculate(lineitemdomain.AsLines(items), money.Discount{Kind: req.DiscountKind, Value: req.DiscountValue}, req.TaxRate, req.DepositPaidAmount)
	if totals.Deficit {
		return nil, domain.ErrDepositExceedsTotal
	}

	invoice.ClientID = req.ClientID
	invoice.Title = req.Title
	invoice.Currency = currencyOrDefault(req.Currency)
	invoice.DiscountKind = req.DiscountKind
	invoice.DiscountValue = req.DiscountValue
	invoice.TaxRate = req.TaxRate
	invoice.DepositPaidAmount = req.DepositPaidAmount
	invoice.DueAt = req.DueAt
	if req.Metadata != nil {
		invoice.Metadata = req.Metadata
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateDetails(ctx, tx, invoice, now); err != nil {
			return err
		}
		saved, err := s.items.ReplaceAll(ctx, tx, lineitemdomain.KindInvoice, invoice.ID, items, s.genID, now)
		if err != nil {
			return err
		}
		items = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(invoice, items), nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByDocument(ctx, s.db, lineitemdomain.KindInvoice, id)
	if err != nil {
		return nil, err
	}
	return s.view(invoice, items), nil
}

func (s *Service) GetByShareToken(ctx context.Context, token string) (*domain.View, error) {
	invoice, err := s.repo.FindByShareToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByDocument(ctx, s.db, lineitemdomain.KindInvoice, invoice.ID)
	if err != nil {
		return nil, err
	}
	return s.view(invoice, items), nil
}

// Send flips a draft invoice to awaiting payment and mints its share token.
func (s *Service) Send(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case domain.StatusDraft:
	case domain.StatusAwaitingPayment:
		return s.Get(ctx, id)
	default:
		return nil, domain.ErrInvalidTransition
	}

	changed, err := s.repo.MarkAwaitingPayment(ctx, s.db, id, uuid.NewString(), s.clock.Now())
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("invoice sent", zap.Int64("invoice_id", int64(id)))
	}
	return s.Get(ctx, id)
}

// MarkPaid records payment collected outside the provider (cash, check).
// Marking an already-paid invoice is a no-op.
func (s *Service) MarkPaid(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == domain.StatusPaid {
		return s.Get(ctx, id)
	}

	if err := s.exec.Apply(ctx, lifecycle.PlanInvoicePaid(id)); err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyApplied) {
			current, ferr := s.repo.FindByID(ctx, s.db, id)
			if ferr != nil {
				return nil, ferr
			}
			if current.Status == domain.StatusPaid {
				return s.Get(ctx, id)
			}
			return nil, domain.ErrInvalidTransition
		}
		return nil, err
	}
	s.log.Info("invoice marked paid", zap.Int64("invoice_id", int64(id)))
	return s.Get(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	switch invoice.Status {
	case domain.StatusCancelled:
		return s.Get(ctx, id)
	case domain.StatusPaid:
		return nil, domain.ErrInvoicePaid
	}

	changed, err := s.repo.MarkCancelled(ctx, s.db, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrInvalidTransition
	}
	return s.Get(ctx, id)
}

func (s *Service) AttachProviderInvoice(ctx context.Context, id snowflake.ID, providerInvoiceID string) (*domain.View, error) {
	if _, err := s.repo.FindByID(ctx, s.db, id); err != nil {
		return nil, err
	}

	changed, err := s.repo.SetProviderInvoiceID(ctx, s.db, id, providerInvoiceID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, domain.ErrInvoicePaid
	}
	return s.Get(ctx, id)
}

func (s *Service) ApplyPaymentSucceeded(ctx context.Context, providerInvoiceID string) error {
	invoice, err := s.repo.FindByProviderInvoiceID(ctx, s.db, providerInvoiceID)
	if err != nil {
		return err
	}
	if invoice.Status == domain.StatusPaid {
		return lifecycle.ErrAlreadyApplied
	}

	if err := s.exec.Apply(ctx, lifecycle.PlanInvoicePaid(invoice.ID)); err != nil {
		if errors.Is(err, lifecycle.ErrAlreadyApplied) {
			current, ferr := s.repo.FindByID(ctx, s.db, invoice.ID)
			if ferr != nil {
				return ferr
			}
			if current.Status == domain.StatusPaid {
				return lifecycle.ErrAlreadyApplied
			}
			return domain.ErrInvalidTransition
		}
		return err
	}
	s.log.Info("invoice paid via provider",
		zap.Int64("invoice_id", int64(invoice.ID)),
		zap.String("provider_invoice_id", providerInvoiceID),
	)
	return nil
}

func (s *Service) ApplyPaymentFailed(ctx context.Context, providerInvoiceID string) error {
	invoice, err := s.repo.FindByProviderInvoiceID(ctx, s.db, providerInvoiceID)
	if err != nil {
		return err
	}

	changed, err := s.repo.MarkPastDue(ctx, s.db, invoice.ID, s.clock.Now())
	if err != nil {
		return err
	}
	if changed {
		s.log.Warn("invoice payment failed, marked past due",
			zap.Int64("invoice_id", int64(invoice.ID)),
			zap.String("provider_invoice_id", providerInvoiceID),
		)
	}
	return nil
}

func (s *Service) view(invoice *domain.Invoice, items []lineitemdomain.LineItem) *domain.View {
	return &domain.View{
		Invoice:         *invoice,
		Items:           items,
		Totals:          money.Calculate(lineitemdomain.AsLines(items), invoice.Discount(), invoice.TaxRate, invoice.DepositPaidAmount),
		EffectiveStatus: invoice.EffectiveStatus(s.clock.Now()),
	}
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "USD"
	}
	return c
}

func normalizeItems(items []lineitemdomain.LineItem) ([]lineitemdomain.LineItem, error) {
	out := make([]lineitemdomain.LineItem, len(items))
	copy(out, items)
	for i := range out {
		out[i].Normalize()
		if err := out[i].Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
