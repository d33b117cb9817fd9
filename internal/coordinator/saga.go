package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcmexdev/brewery-order-service/internal/coordinator/sagalog"
)

// Step represents a single unit of work in the Saga.
// Compensate undoes the effects of a successful Execute; steps with nothing
// to undo return nil.
type Step interface {
	Name() string
	Execute(ctx context.Context) error
	Compensate(ctx context.Context) error
}

// Kinded is implemented by steps whose Name carries per-instance detail.
// Kind is the bounded name shared by every instance of the step.
type Kinded interface {
	Kind() string
}

func kindOf(step Step) string {
	if k, ok := step.(Kinded); ok {
		return k.Kind()
	}
	return step.Name()
}

// Observer is told how sagas end and how their compensations went. Steps are
// identified by kind, never by instance name.
type Observer interface {
	SagaFinished(saga, outcome string)
	CompensationDone(step string, err error)
}

const (
	OutcomeCompleted   = "completed"
	OutcomeCompensated = "compensated"
	// OutcomeFailed means at least one compensation failed as well.
	OutcomeFailed = "failed"
)

// Orchestrator manages the execution of a collection of Steps.
type Orchestrator struct {
	sagaID   string
	name     string
	payload  string
	steps    []Step
	repo     sagalog.Repository
	logger   *slog.Logger
	observer Observer
}

type Option func(*Orchestrator)

// WithPayload stores the JSON input of the saga on its STARTED log entry.
func WithPayload(payload string) Option {
	return func(o *Orchestrator) { o.payload = payload }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.observer = obs }
}

// NewOrchestrator builds a saga named name. repo may be nil, in which case
// state transitions are not persisted.
func NewOrchestrator(sagaID, name string, steps []Step, repo sagalog.Repository, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sagaID: sagaID,
		name:   name,
		steps:  steps,
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start runs the saga steps sequentially.
// If a step fails, every previously successful step is compensated in reverse
// order and the step's error is returned, wrapped with the step name.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.record(ctx, sagalog.StatusStarted, "", o.payload, nil)

	var successfulSteps []Step
	for _, step := range o.steps {
		o.logger.DebugContext(ctx, "executing saga step", "saga_id", o.sagaID, "step", step.Name())
		if err := step.Execute(ctx); err != nil {
			o.logger.WarnContext(ctx, "saga step failed, starting rollback",
				"saga_id", o.sagaID, "step", step.Name(), "error", err)

			errs := []string{fmt.Sprintf("step %s failed: %v", step.Name(), err)}
			o.record(ctx, sagalog.StatusCompensating, step.Name(), "", errs)

			// Compensation must finish even when the caller has gone away.
			compErrs := o.rollback(context.WithoutCancel(ctx), successfulSteps)
			o.record(ctx, sagalog.StatusFailed, step.Name(), "", append(errs, compErrs...))

			outcome := OutcomeCompensated
			if len(compErrs) > 0 {
				outcome = OutcomeFailed
			}
			o.finish(outcome)
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
		// Track successful step for potential compensation (LIFO)
		successfulSteps = append(successfulSteps, step)
		o.record(ctx, sagalog.StatusStepDone, step.Name(), "", nil)
	}

	o.record(ctx, sagalog.StatusCompleted, "", "", nil)
	o.finish(OutcomeCompleted)
	o.logger.InfoContext(ctx, "saga completed", "saga_id", o.sagaID, "saga", o.name)
	return nil
}

func (o *Orchestrator) rollback(ctx context.Context, steps []Step) []string {
	var failures []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		o.logger.InfoContext(ctx, "compensating saga step", "saga_id", o.sagaID, "step", step.Name())
		err := step.Compensate(ctx)
		if o.observer != nil {
			o.observer.CompensationDone(kindOf(step), err)
		}
		if err != nil {
			o.logger.ErrorContext(ctx, "CRITICAL: failed to compensate step",
				"saga_id", o.sagaID, "step", step.Name(), "error", err)
			failures = append(failures, fmt.Sprintf("compensation of %s failed: %v", step.Name(), err))
		}
	}
	return failures
}

func (o *Orchestrator) finish(outcome string) {
	if o.observer != nil {
		o.observer.SagaFinished(o.name, outcome)
	}
}

// record appends a log entry. A log that can not be written never fails the saga.
func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, payload string, errs []string) {
	if o.repo == nil {
		return
	}
	entry := sagalog.NewEntry(ctx, o.sagaID, status, step, payload, errs)
	if err := o.repo.Save(context.WithoutCancel(ctx), entry); err != nil {
		o.logger.WarnContext(ctx, "failed to write saga log", "saga_id", o.sagaID, "status", status, "error", err)
	}
}
