// Package memory is an in-process store used in dev mode and as the fixture
// store in tests. Writes made inside WithTx are journaled and undone when the
// transaction fails.
package memory

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"realty-marketplace/internal/domain"
	"realty-marketplace/internal/domain/model"
	"realty-marketplace/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*Store)(nil)

type Store struct {
	mu       sync.RWMutex
	agencies map[string]*model.Agency
	owners   map[string]string // owner id -> agency id
	listings map[string]*model.Listing
	plans    map[model.PlanTier]*model.Plan
}

func NewStore() *Store {
	return &Store{
		agencies: make(map[string]*model.Agency),
		owners:   make(map[string]string),
		listings: make(map[string]*model.Listing),
		plans:    make(map[model.PlanTier]*model.Plan),
	}
}

// Tx is the journal of one transaction.
type Tx struct {
	undo []func()
}

func (t *Tx) record(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func asTx(tx repository.Tx) (*Tx, error) {
	switch v := tx.(type) {
	case nil:
		return nil, nil
	case *Tx:
		return v, nil
	default:
		return nil, domain.ErrInvalidExecContext
	}
}

// WithTx runs fn and undoes its writes if fn fails or ctx ends before commit.
// Isolation options are ignored.
func (s *Store) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	t := &Tx{}
	err := fn(ctx, t)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		s.mu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}
