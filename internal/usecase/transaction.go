package usecase

import (
	"context"
	"fmt"
	"log"
)

// Transaction runs a fixed sequence of store writes that cannot share a
// database transaction (they hit different services) and undoes the completed
// ones, newest first, when a later step fails.
type Transaction struct {
	steps []step
}

type step struct {
	name       string
	fn         func(context.Context) error
	compensate func(context.Context) error
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

// AddOperation appends a step. compensate may be nil when the step needs no
// undo.
func (t *Transaction) AddOperation(name string, fn, compensate func(context.Context) error) {
	t.steps = append(t.steps, step{name: name, fn: fn, compensate: compensate})
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, s := range t.steps {
		if err := s.fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", s.name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) {
	for i := failedAt - 1; i >= 0; i-- {
		s := t.steps[i]
		if s.compensate == nil {
			continue
		}
		if err := s.compensate(ctx); err != nil {
			log.Printf("⚠️ compensation for '%s' failed: %v (inconsistency risk)", s.name, err)
		}
	}
}
