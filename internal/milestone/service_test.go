package milestone_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/lancepay/internal/escrow"
	"github.com/sudo-init-do/lancepay/internal/fault"
	"github.com/sudo-init-do/lancepay/internal/milestone"
	"github.com/sudo-init-do/lancepay/internal/storage/memory"
	"github.com/sudo-init-do/lancepay/internal/wallet"
)

const (
	companyID   = "company-1"
	developerID = "dev-1"
	strangerID  = "stranger-1"
	projectID   = "proj-1"
)

type fixture struct {
	svc   *milestone.Service
	store *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.SetProject(projectID, companyID, developerID)
	releases := escrow.NewService(store, zap.NewNop())
	svc := milestone.NewService(store, store, releases, nil, zap.NewNop())
	return &fixture{svc: svc, store: store}
}

func (f *fixture) createMilestone(t *testing.T, amount int64) milestone.Milestone {
	t.Helper()
	m, err := f.svc.Create(context.Background(), projectID, companyID, milestone.CreateInput{
		Title:  "Payment reconciliation module",
		Amount: amount,
	})
	require.NoError(t, err)
	return *m
}

func (f *fixture) fund(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, _, err := f.store.Credit(context.Background(), userID, amount, wallet.KindDeposit, "seed", wallet.Ref{})
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, userID string) int64 {
	t.Helper()
	w, err := f.store.GetOrCreate(context.Background(), userID)
	require.NoError(t, err)
	return w.Balance
}

func TestCreate_CompanyOnly(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), projectID, developerID, milestone.CreateInput{
		Title: "x", Amount: 100,
	})
	assert.True(t, fault.Is(err, fault.KindForbidden))

	m := f.createMilestone(t, 100)
	assert.Equal(t, milestone.ProgressTodo, m.Progress)
	assert.Equal(t, milestone.StatusPending, m.Status)
	assert.Equal(t, 0, m.OrderIndex)

	m2 := f.createMilestone(t, 200)
	assert.Equal(t, 1, m2.OrderIndex)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, projectID, companyID, milestone.CreateInput{Title: "", Amount: 100})
	assert.True(t, fault.Is(err, fault.KindValidation))

	_, err = f.svc.Create(ctx, projectID, companyID, milestone.CreateInput{Title: "x", Amount: 0})
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestSubmit(t *testing.T) {
	f := newFixture(t)
	m := f.createMilestone(t, 200)

	got, err := f.svc.Submit(context.Background(), m.ID, developerID, []string{"https://repo/pr/42"})
	require.NoError(t, err)
	assert.Equal(t, milestone.ProgressReview, got.Progress)
	assert.Equal(t, []string{"https://repo/pr/42"}, got.Deliverables)
}

func TestSubmit_ForbiddenForNonDeveloper(t *testing.T) {
	f := newFixture(t)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	for _, actor := range []string{companyID, strangerID} {
		_, err := f.svc.Submit(ctx, m.ID, actor, []string{"work"})
		assert.True(t, fault.Is(err, fault.KindForbidden))
	}

	// Nothing was mutated by the rejected submissions.
	got, err := f.store.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, milestone.ProgressTodo, got.Progress)
	assert.Empty(t, got.Deliverables)
}

func TestSubmit_RequiresDeliverables(t *testing.T) {
	f := newFixture(t)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, nil)
	assert.True(t, fault.Is(err, fault.KindValidation))

	_, err = f.svc.Submit(ctx, m.ID, developerID, []string{"", ""})
	assert.True(t, fault.Is(err, fault.KindValidation))
}

func TestSubmit_InvalidFromReviewOrCompleted(t *testing.T) {
	f := newFixture(t)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, []string{"v1"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, m.ID, developerID, []string{"v2"})
	assert.True(t, fault.Is(err, fault.KindInvalidState))
}

// Scenario: company wallet 500, milestone 200, submit then approve.
func TestApprove_ReleasesPayment(t *testing.T) {
	f := newFixture(t)
	f.fund(t, companyID, 500)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, []string{"deliverable"})
	require.NoError(t, err)

	got, receipt, err := f.svc.Approve(ctx, m.ID, companyID)
	require.NoError(t, err)
	assert.Equal(t, milestone.ProgressCompleted, got.Progress)
	assert.Equal(t, milestone.StatusReleased, got.Status)
	require.NotNil(t, receipt)
	assert.EqualValues(t, -200, receipt.Debit.Amount)
	assert.EqualValues(t, 200, receipt.Credit.Amount)

	assert.EqualValues(t, 300, f.balance(t, companyID))
	assert.EqualValues(t, 200, f.balance(t, developerID))
}

// Scenario: company wallet 100 < milestone 200. Approval fails, nothing moves.
func TestApprove_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	f.fund(t, companyID, 100)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, []string{"deliverable"})
	require.NoError(t, err)

	_, _, err = f.svc.Approve(ctx, m.ID, companyID)
	assert.True(t, fault.Is(err, fault.KindInsufficientFunds))

	got, err := f.store.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, milestone.ProgressReview, got.Progress)
	assert.Equal(t, milestone.StatusPending, got.Status)
	assert.EqualValues(t, 100, f.balance(t, companyID))
	assert.Zero(t, f.balance(t, developerID))
}

func TestApprove_ForbiddenAndInvalidState(t *testing.T) {
	f := newFixture(t)
	f.fund(t, companyID, 500)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	// Not yet in review.
	_, _, err := f.svc.Approve(ctx, m.ID, companyID)
	assert.True(t, fault.Is(err, fault.KindInvalidState))

	_, err = f.svc.Submit(ctx, m.ID, developerID, []string{"deliverable"})
	require.NoError(t, err)

	for _, actor := range []string{developerID, strangerID} {
		_, _, err := f.svc.Approve(ctx, m.ID, actor)
		assert.True(t, fault.Is(err, fault.KindForbidden))
	}
}

func TestApprove_DoubleApprovalReleasesOnce(t *testing.T) {
	f := newFixture(t)
	f.fund(t, companyID, 500)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, []string{"deliverable"})
	require.NoError(t, err)

	_, _, err = f.svc.Approve(ctx, m.ID, companyID)
	require.NoError(t, err)

	_, _, err = f.svc.Approve(ctx, m.ID, companyID)
	assert.True(t, fault.Is(err, fault.KindInvalidState))

	// Exactly one release pair total.
	assert.EqualValues(t, 300, f.balance(t, companyID))
	assert.EqualValues(t, 200, f.balance(t, developerID))
	w, err := f.store.GetOrCreate(ctx, developerID)
	require.NoError(t, err)
	txs, err := f.store.Transactions(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

// Scenario: two concurrent approvals; exactly one succeeds.
func TestApprove_ConcurrentCallsReleaseOnce(t *testing.T) {
	f := newFixture(t)
	f.fund(t, companyID, 500)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, []string{"deliverable"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.Approve(ctx, m.ID, companyID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, fault.Is(err, fault.KindInvalidState))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.EqualValues(t, 300, f.balance(t, companyID))
	assert.EqualValues(t, 200, f.balance(t, developerID))
}

// Scenario: rejection returns the milestone to in_progress, keeps
// deliverables and never touches wallets.
func TestReject(t *testing.T) {
	f := newFixture(t)
	f.fund(t, companyID, 500)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, []string{"draft"})
	require.NoError(t, err)

	got, err := f.svc.Reject(ctx, m.ID, companyID)
	require.NoError(t, err)
	assert.Equal(t, milestone.ProgressInProgress, got.Progress)
	assert.Equal(t, milestone.StatusPending, got.Status)
	assert.Equal(t, []string{"draft"}, got.Deliverables)
	assert.EqualValues(t, 500, f.balance(t, companyID))
	assert.Zero(t, f.balance(t, developerID))
}

func TestReject_OnlyFromReview(t *testing.T) {
	f := newFixture(t)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Reject(ctx, m.ID, companyID)
	assert.True(t, fault.Is(err, fault.KindInvalidState))

	_, err = f.svc.Reject(ctx, m.ID, developerID)
	assert.True(t, fault.Is(err, fault.KindForbidden))
}

func TestReject_NeverReversesRelease(t *testing.T) {
	f := newFixture(t)
	f.fund(t, companyID, 500)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, []string{"deliverable"})
	require.NoError(t, err)
	_, _, err = f.svc.Approve(ctx, m.ID, companyID)
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, m.ID, companyID)
	assert.True(t, fault.Is(err, fault.KindInvalidState))
	assert.EqualValues(t, 200, f.balance(t, developerID))
}

func TestDestroy(t *testing.T) {
	f := newFixture(t)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	require.NoError(t, f.svc.Destroy(ctx, m.ID, companyID))

	_, err := f.store.Get(ctx, m.ID)
	assert.True(t, fault.Is(err, fault.KindNotFound))
}

func TestDestroy_RefusedOnceReleased(t *testing.T) {
	f := newFixture(t)
	f.fund(t, companyID, 500)
	m := f.createMilestone(t, 200)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, m.ID, developerID, []string{"deliverable"})
	require.NoError(t, err)
	_, _, err = f.svc.Approve(ctx, m.ID, companyID)
	require.NoError(t, err)

	err = f.svc.Destroy(ctx, m.ID, companyID)
	assert.True(t, fault.Is(err, fault.KindInvalidState))

	// The ledger reference stays resolvable.
	_, err = f.store.Get(ctx, m.ID)
	require.NoError(t, err)
}

func TestDestroy_CompanyOnly(t *testing.T) {
	f := newFixture(t)
	m := f.createMilestone(t, 200)

	err := f.svc.Destroy(context.Background(), m.ID, developerID)
	assert.True(t, fault.Is(err, fault.KindForbidden))
}

func TestList_OrderedByIndex(t *testing.T) {
	f := newFixture(t)
	first := f.createMilestone(t, 100)
	second := f.createMilestone(t, 200)

	ms, err := f.svc.List(context.Background(), projectID)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, first.ID, ms[0].ID)
	assert.Equal(t, second.ID, ms[1].ID)
}
