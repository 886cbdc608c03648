package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradecrew/tradecrew/internal/clock"
	"github.com/tradecrew/tradecrew/internal/job/domain"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"github.com/tradecrew/tradecrew/internal/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Items lineitemdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
	items lineitemdomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("job.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		items: p.Items,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateJobRequest) (*domain.View, error) {
	items := make([]lineitemdomain.LineItem, len(req.Items))
	copy(items, req.Items)
	for i := range items {
		items[i].Normalize()
		if err := items[i].Validate(); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	job := &domain.Job{
		ID:           s.genID.Generate(),
		CompanyID:    req.CompanyID,
		ClientID:     req.ClientID,
		Title:        req.Title,
		Currency:     req.Currency,
		Status:       domain.StatusScheduled,
		ScheduledFor: req.ScheduledFor,
		Metadata:     req.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if job.Currency == "" {
		job.Currency = "USD"
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, job); err != nil {
			return err
		}
		saved, err := s.items.ReplaceAll(ctx, tx, lineitemdomain.KindJob, job.ID, items, s.genID, now)
		if err != nil {
			return err
		}
		items = saved
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("job created",
		zap.Int64("job_id", int64(job.ID)),
		zap.Int64("company_id", int64(job.CompanyID)),
	)
	return s.view(job, items), nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	job, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListByDocument(ctx, s.db, lineitemdomain.KindJob, id)
	if err != nil {
		return nil, err
	}
	return s.view(job, items), nil
}

func (s *Service) Start(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	return s.transition(ctx, id, domain.StatusInProgress, s.repo.MarkInProgress)
}

func (s *Service) Complete(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	return s.transition(ctx, id, domain.StatusCompleted, s.repo.MarkCompleted)
}

func (s *Service) Cancel(ctx context.Context, id snowflake.ID) (*domain.View, error) {
	return s.transition(ctx, id, domain.StatusCancelled, s.repo.MarkCancelled)
}

type markFn func(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)

// transition applies a conditional status flip. A zero-row update on a job
// already in the target state is a no-op; anything else is rejected.
func (s *Service) transition(ctx context.Context, id snowflake.ID, target domain.Status, mark markFn) (*domain.View, error) {
	if _, err := s.repo.FindByID(ctx, s.db, id); err != nil {
		return nil, err
	}

	changed, err := mark(ctx, s.db, id, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		job, err := s.repo.FindByID(ctx, s.db, id)
		if err != nil {
			return nil, err
		}
		if job.Status != target {
			return nil, domain.ErrInvalidTransition
		}
	} else {
		s.log.Info("job transitioned",
			zap.Int64("job_id", int64(id)),
			zap.String("status", string(target)),
		)
	}
	return s.Get(ctx, id)
}

func (s *Service) ReplaceItems(ctx context.Context, id snowflake.ID, items []lineitemdomain.LineItem) (*domain.View, error) {
	job, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if job.Frozen() {
		return nil, domain.ErrFrozen
	}

	next := make([]lineitemdomain.LineItem, len(items))
	copy(next, items)
	for i := range next {
		next[i].Normalize()
		if err := next[i].Validate(); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Re-check the freeze inside the transaction so a concurrent invoice
		// generation cannot slip an edit past it.
		current, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if current.Frozen() {
			return domain.ErrFrozen
		}
		saved, err := s.items.ReplaceAll(ctx, tx, lineitemdomain.KindJob, id, next, s.genID, now)
		if err != nil {
			return err
		}
		next = saved
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(job, next), nil
}

func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	job, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if job.Frozen() {
		return domain.ErrFrozen
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.items.DeleteByDocument(ctx, tx, lineitemdomain.KindJob, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, id)
	})
}

func (s *Service) view(job *domain.Job, items []lineitemdomain.LineItem) *domain.View {
	estimate := money.Calculate(lineitemdomain.AsLines(items), money.Discount{}, 0, 0).Subtotal
	if job.InvoicedTotal != nil {
		estimate = *job.InvoicedTotal
	}
	return &domain.View{Job: *job, Items: items, EstimateTotal: estimate}
}
