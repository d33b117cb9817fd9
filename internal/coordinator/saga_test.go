package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/brewery-order-service/internal/coordinator/sagalog"
)

type fakeStep struct {
	name       string
	execErr    error
	compErr    error
	calls      *[]string
	compCtxErr error
}

func (s *fakeStep) Name() string { return s.name }

func (s *fakeStep) Execute(ctx context.Context) error {
	*s.calls = append(*s.calls, "exec:"+s.name)
	return s.execErr
}

func (s *fakeStep) Compensate(ctx context.Context) error {
	*s.calls = append(*s.calls, "comp:"+s.name)
	s.compCtxErr = ctx.Err()
	return s.compErr
}

type memoryRepo struct {
	mu      sync.Mutex
	entries []*sagalog.SagaLog
}

func (r *memoryRepo) Save(_ context.Context, e *sagalog.SagaLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func (r *memoryRepo) statuses() []sagalog.Status {
	out := make([]sagalog.Status, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Status
	}
	return out
}

type recordingObserver struct {
	outcomes      []string
	compensations map[string]error
}

func (o *recordingObserver) SagaFinished(_, outcome string) { o.outcomes = append(o.outcomes, outcome) }

func (o *recordingObserver) CompensationDone(step string, err error) {
	if o.compensations == nil {
		o.compensations = map[string]error{}
	}
	o.compensations[step] = err
}

func TestOrchestrator_AllStepsSucceed(t *testing.T) {
	var calls []string
	repo := &memoryRepo{}
	obs := &recordingObserver{}
	steps := []Step{
		&fakeStep{name: "a", calls: &calls},
		&fakeStep{name: "b", calls: &calls},
	}

	err := NewOrchestrator("saga-1", "test", steps, repo, WithPayload(`{}`), WithObserver(obs)).Start(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"exec:a", "exec:b"}, calls)
	assert.Equal(t, []sagalog.Status{
		sagalog.StatusStarted, sagalog.StatusStepDone, sagalog.StatusStepDone, sagalog.StatusCompleted,
	}, repo.statuses())
	assert.Equal(t, `{}`, repo.entries[0].Payload)
	assert.Equal(t, []string{OutcomeCompleted}, obs.outcomes)
}

func TestOrchestrator_CompensatesInReverseOrder(t *testing.T) {
	var calls []string
	repo := &memoryRepo{}
	obs := &recordingObserver{}
	boom := errors.New("boom")
	steps := []Step{
		&fakeStep{name: "a", calls: &calls},
		&fakeStep{name: "b", calls: &calls},
		&fakeStep{name: "c", calls: &calls, execErr: boom},
		&fakeStep{name: "d", calls: &calls},
	}

	err := NewOrchestrator("saga-2", "test", steps, repo, WithObserver(obs)).Start(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"exec:a", "exec:b", "exec:c", "comp:b", "comp:a"}, calls)
	assert.Equal(t, []sagalog.Status{
		sagalog.StatusStarted, sagalog.StatusStepDone, sagalog.StatusStepDone,
		sagalog.StatusCompensating, sagalog.StatusFailed,
	}, repo.statuses())
	assert.Equal(t, "c", repo.entries[4].CurrentStep)
	assert.Equal(t, []string{OutcomeCompensated}, obs.outcomes)
	assert.Len(t, obs.compensations, 2)
}

func TestOrchestrator_CompensationFailureKeepsOriginalError(t *testing.T) {
	var calls []string
	repo := &memoryRepo{}
	obs := &recordingObserver{}
	original := errors.New("stock refused")
	steps := []Step{
		&fakeStep{name: "a", calls: &calls, compErr: errors.New("cancel failed")},
		&fakeStep{name: "b", calls: &calls, execErr: original},
	}

	err := NewOrchestrator("saga-3", "test", steps, repo, WithObserver(obs)).Start(context.Background())

	require.ErrorIs(t, err, original)
	assert.Equal(t, []string{"exec:a", "exec:b", "comp:a"}, calls)
	last := repo.entries[len(repo.entries)-1]
	assert.Equal(t, sagalog.StatusFailed, last.Status)
	assert.Contains(t, last.ErrorMessages, "compensation of a failed: cancel failed")
	assert.Equal(t, []string{OutcomeFailed}, obs.outcomes)
}

func TestOrchestrator_CompensationIgnoresCallerCancellation(t *testing.T) {
	var calls []string
	ctx, cancel := context.WithCancel(context.Background())
	first := &fakeStep{name: "a", calls: &calls}
	steps := []Step{
		first,
		&cancellingStep{fakeStep: fakeStep{name: "b", calls: &calls, execErr: context.Canceled}, cancel: cancel},
	}

	err := NewOrchestrator("saga-4", "test", steps, nil).Start(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"exec:a", "exec:b", "comp:a"}, calls)
	assert.NoError(t, first.compCtxErr)
}

type cancellingStep struct {
	fakeStep
	cancel context.CancelFunc
}

func (s *cancellingStep) Execute(ctx context.Context) error {
	s.cancel()
	return s.fakeStep.Execute(ctx)
}

func TestOrchestrator_NilRepoIsAllowed(t *testing.T) {
	var calls []string
	err := NewOrchestrator("saga-5", "test", []Step{&fakeStep{name: "a", calls: &calls}}, nil).Start(context.Background())
	require.NoError(t, err)
}
