package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrew/tradecrew/internal/clock"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	jobrepo "github.com/tradecrew/tradecrew/internal/job/repository"
	jobservice "github.com/tradecrew/tradecrew/internal/job/service"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	lineitemrepo "github.com/tradecrew/tradecrew/internal/lineitem/repository"
	"github.com/tradecrew/tradecrew/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type jobFixture struct {
	db   *gorm.DB
	clk  *clock.FakeClock
	svc  jobdomain.Service
	jobs jobdomain.Repository
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()

	db := testutil.SetupDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	jobs := jobrepo.Provide()

	svc := jobservice.NewService(jobservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  jobs,
		Items: lineitemrepo.Provide(),
	})
	return &jobFixture{db: db, clk: clk, svc: svc, jobs: jobs}
}

func (f *jobFixture) createJob(t *testing.T) *jobdomain.View {
	t.Helper()

	view, err := f.svc.Create(context.Background(), jobdomain.CreateJobRequest{
		CompanyID: snowflake.ID(2001),
		Title:     "Fence repair",
		Items: []lineitemdomain.LineItem{
			{Description: "Posts", Quantity: 6, UnitAmount: 4500},
			{Description: "Labor", Quantity: 3, UnitAmount: 10000},
		},
	})
	require.NoError(t, err)
	return view
}

func TestJobLifecycleTransitions(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	view := f.createJob(t)
	assert.Equal(t, jobdomain.StatusScheduled, view.Job.Status)
	assert.Equal(t, int64(57000), view.EstimateTotal)

	started, err := f.svc.Start(ctx, view.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusInProgress, started.Job.Status)
	require.NotNil(t, started.Job.StartedAt)

	completed, err := f.svc.Complete(ctx, view.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusCompleted, completed.Job.Status)

	// Completed is terminal.
	_, err = f.svc.Start(ctx, view.Job.ID)
	assert.ErrorIs(t, err, jobdomain.ErrInvalidTransition)
	_, err = f.svc.Cancel(ctx, view.Job.ID)
	assert.ErrorIs(t, err, jobdomain.ErrInvalidTransition)

	// Repeating the reached state is a no-op, not an error.
	again, err := f.svc.Complete(ctx, view.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, jobdomain.StatusCompleted, again.Job.Status)
}

func TestReplaceItemsRejectedOnceInvoiced(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	view := f.createJob(t)
	_, err := f.svc.Complete(ctx, view.Job.ID)
	require.NoError(t, err)

	changed, err := f.jobs.MarkInvoiced(ctx, f.db, view.Job.ID, view.EstimateTotal, f.clk.Now())
	require.NoError(t, err)
	require.True(t, changed)

	_, err = f.svc.ReplaceItems(ctx, view.Job.ID, []lineitemdomain.LineItem{
		{Description: "Extra posts", Quantity: 1, UnitAmount: 4500},
	})
	assert.ErrorIs(t, err, jobdomain.ErrFrozen)

	// The frozen total remains authoritative on reads.
	got, err := f.svc.Get(ctx, view.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(57000), got.EstimateTotal)
}

func TestReplaceItemsReassignsDensePositions(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	view := f.createJob(t)

	got, err := f.svc.ReplaceItems(ctx, view.Job.ID, []lineitemdomain.LineItem{
		{Description: "Gate hardware", Quantity: 1, UnitAmount: 8000},
		{Description: "Labor", Quantity: 2, UnitAmount: 10000},
		{Description: "Stain", Quantity: 1, UnitAmount: 3500},
	})
	require.NoError(t, err)
	require.Len(t, got.Items, 3)
	for i, item := range got.Items {
		assert.Equal(t, i, item.Position)
	}
	assert.Equal(t, int64(31500), got.EstimateTotal)
}

func TestDeleteJobRemovesItems(t *testing.T) {
	f := newJobFixture(t)
	ctx := context.Background()

	view := f.createJob(t)
	require.NoError(t, f.svc.Delete(ctx, view.Job.ID))

	_, err := f.svc.Get(ctx, view.Job.ID)
	assert.ErrorIs(t, err, jobdomain.ErrNotFound)

	var count int64
	require.NoError(t, f.db.Raw("SELECT COUNT(*) FROM job_line_items").Scan(&count).Error)
	assert.Zero(t, count)
}
