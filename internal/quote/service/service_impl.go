package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/tradecrew/tradecrew/internal/clock"
	"github.com/tradecrew/tradecrew/internal/lifecycle"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"github.com/tradecrew/tradecrew/internal/money"
	"github.com/tradecrew/tradecrew/internal/quote/domain"
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
	Items    lineitemdomain.Repository
	Executor *lifecycle.Executor
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	items lineitemdomain.Repository
	exec  *lifecycle.Executor
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("quote.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		items: p.Items,
		exec:  p.Executor,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateQuoteRequest) (*domain.View, error) {
	items, err := normalizeItems(req.Items)
	if err != nil {
		return nil, err
	}
	if err := validatePricing(req); err != nil {
		return nil, err
	}

	totals := money.Calculate(lineitemdomain.AsLines(items), money.Discount{Kind: req.DiscountKind, Value: req.DiscountValue}, req.TaxRate, 0)
	if req.DepositAmount > totals.Total {
		return nil, domain.ErrDepositExceedsTotal
	}

	now := s.clock.Now()
	quote := &domain.Quote{
		ID:            s.genID.Generate(),
		CompanyID:     req.CompanyID,
		ClientID:      req.ClientID,
		Title:         req.Title,
		Currency:      currencyOrDefault(req.Currency),
		Status:        domain.StatusDraft,
		DiscountKind:  req.DiscountKind,
		DiscountValue: req.DiscountValue,
		TaxRate:       req.TaxRate,
		DepositAmount: req.DepositAmount,
		ExpiresAt:     req.ExpiresAt,
		Metadata:      req.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, quote); err != nil {
			return err
		}
		saved, err := s.items.ReplaceAll(ctx, tx, lineitemdomain.KindQuote, quote.ID, items, s.genID, now)
		if err != nil {
			return err
		}
		items = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quote created",
		zap.Int64("quote_id", int64(quote.ID)),
		zap.Int64("company_id", int64(quote.CompanyID)),
		zap.Int64("total", totals.Total),
	)
	return s.view(quote, items), nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateQuoteRequest) (*domain.View, error) {
	quote, err := s.repo.FindByID(ctx, s.db, req.ID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if !quote.Editable(now) {
		return nil, domain.ErrNotEditable
	}

	items, err := normalizeItems(req.Items)
	if err != nil {
		return nil, err
	}
	if err := validatePricing(req.CreateQuoteRequest); err != nil {
		return nil, err
	}

	totals := money.Calculate(lineitemdomain.AsLines(items), money.Discount{Kind: req.DiscountKind, Value: req.DiscountValue}, req.TaxRate, 0)
	if req.DepositAmount > totals.Total {
		return nil, domain.ErrDepositExceedsTotal
	}

	quote.ClientID = req.ClientID
	quote.Title = req.Title
	quote.Currency = currencyOrDefault(req.Currency)
	quote.DiscountKind = req.DiscountKind
	quote.DiscountValue = req.DiscountValue
	quote.TaxRate = req.TaxRate
	quote.DepositAmount = req.DepositAmount
	quote.ExpiresAt = req.ExpiresAt
	if req.Metadata != nil {
		quote.Metadata = req.Metadata
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.UpdateDetails(ctx, tx, quote, now); err != nil {
			return err
		}
		saved, err := s.items.ReplaceAll(ctx, tx, lineitemdomain.KindQuote, quote.ID, items, s.genID, now)
		if err != nil {
			return err
		}
		items = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(quote, items), nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByDocument(ctx, s.db, lineitemdomain.KindQuote, id)
	if err != nil {
		return nil, err
	}
	return s.view(quote, items), nil
}

func (s *Service) GetByShareToken(ctx context.Context, token string) (*domain.View, error) {
	quote, err := s.repo.FindByShareToken(ctx, s.db, token)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByDocument(ctx, s.db, lineitemdomain.KindQuote, quote.ID)
	if err != nil {
		return nil, err
	}
	return s.view(quote, items), nil
}

// Send flips a draft quote to sent and mints its share token. Re-sending a
// quote that is already out is a no-op that returns the current view.
func (s *Service) Send(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	switch quote.EffectiveStatus(now) {
	case domain.StatusDraft:
	case domain.StatusSent:
		return s.Get(ctx, id)
	default:
		return nil, domain.ErrInvalidTransition
	}

	changed, err := s.repo.MarkSent(ctx, s.db, id, uuid.NewString(), now)
	if err != nil {
		return nil, err
	}
	if changed {
		s.log.Info("quote sent", zap.Int64("quote_id", int64(id)))
	}
	return s.Get(ctx, id)
}

// Accept approves the quote and spawns its job with a snapshot of the line
// items. Approving an already-accepted quote returns the current view without
// side effects.
func (s *Service) Accept(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	switch quote.EffectiveStatus(now) {
	case domain.StatusDraft, domain.StatusSent:
	case domain.StatusAccepted:
		return s.Get(ctx, id)
	default:
		return nil, domain.ErrInvalidTransition
	}

	err = s.exec.Apply(ctx, lifecycle.PlanQuoteAccept(*quote, s.genID.Generate(), now))
	if err != nil && !errors.Is(err, lifecycle.ErrAlreadyApplied) {
		return nil, err
	}
	if err == nil {
		s.log.Info("quote accepted", zap.Int64("quote_id", int64(id)))
	}
	return s.Get(ctx, id)
}

func (s *Service) Decline(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	switch quote.EffectiveStatus(now) {
	case domain.StatusDraft, domain.StatusSent:
	case domain.StatusDeclined:
		return s.Get(ctx, id)
	default:
		return nil, domain.ErrInvalidTransition
	}

	err = s.exec.Apply(ctx, lifecycle.PlanQuoteDecline(*quote))
	if err != nil && !errors.Is(err, lifecycle.ErrAlreadyApplied) {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) ApplyDepositPaid(ctx context.Context, id snowflake.ID, amount int64) error {
	quote, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if quote.DepositPaid {
		return lifecycle.ErrAlreadyApplied
	}

	now := s.clock.Now()
	if err := s.exec.Apply(ctx, lifecycle.PlanQuoteDepositPaid(*quote, s.genID.Generate(), amount, now)); err != nil {
		return err
	}
	s.log.Info("quote deposit recorded",
		zap.Int64("quote_id", int64(id)),
		zap.Int64("amount", amount),
	)
	return nil
}

func (s *Service) view(quote *domain.Quote, items []lineitemdomain.LineItem) *domain.View {
	return &domain.View{
		Quote:           *quote,
		Items:           items,
		Totals:          money.Calculate(lineitemdomain.AsLines(items), quote.Discount(), quote.TaxRate, depositCredit(quote)),
		EffectiveStatus: quote.EffectiveStatus(s.clock.Now()),
	}
}

// depositCredit is the amount already collected against the quote total.
func depositCredit(quote *domain.Quote) int64 {
	if quote.DepositPaid {
		return quote.DepositAmount
	}
	return 0
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

func validatePricing(req domain.CreateQuoteRequest) error {
	switch req.DiscountKind {
	case money.DiscountPercent:
		if req.DiscountValue < 0 || req.DiscountValue > 100 {
			return domain.ErrInvalidDiscount
		}
	case money.DiscountFixed:
		if req.DiscountValue < 0 {
			return domain.ErrInvalidDiscount
		}
	default:
		return domain.ErrInvalidDiscount
	}
	if req.TaxRate < 0 {
		return domain.ErrInvalidTaxRate
	}
	if req.DepositAmount < 0 {
		return domain.ErrInvalidDeposit
	}
	return nil
}
