package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// SagaStep is one operation in a multi-resource transaction. Compensate, when
// set, undoes the step after a later one fails.
type SagaStep struct {
	Name       string
	Run        func(ctx context.Context) error
	Compensate func(ctx context.Context) error
}

// Transaction runs steps in order and, on failure, compensates the completed
// ones in reverse. A compensation's own failure is logged and swallowed; the
// caller always receives the original error.
type Transaction struct {
	steps  []SagaStep
	logger *zap.Logger
}

func NewTransaction(logger *zap.Logger) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{logger: logger}
}

func (t *Transaction) AddStep(step SagaStep) {
	t.steps = append(t.steps, step)
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, step := range t.steps {
		if err := ctx.Err(); err != nil {
			t.rollback(ctx, i)
			return err
		}

		if err := step.Run(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w", step.Name, err)
		}
	}

	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAtIndex int) {
	// Compensations must run even when the trigger was a cancellation.
	compCtx := context.WithoutCancel(ctx)

	for i := failedAtIndex - 1; i >= 0; i-- {
		step := t.steps[i]
		if step.Compensate == nil {
			continue
		}

		if err := step.Compensate(compCtx); err != nil {
			t.logger.Warn("compensation failed, manual cleanup may be needed",
				zap.String("step", step.Name),
				zap.Error(err),
			)
		}
	}
}
