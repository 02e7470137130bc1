package storage

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"max.ks1230/bookkeeper/internal/entity/budget"
	"max.ks1230/bookkeeper/internal/entity/category"
	"max.ks1230/bookkeeper/internal/entity/expense"
)

const (
	driverSQLite = "sqlite"
	driverMemory = "memory"
)

type driverConfig interface {
	config
	Driver() string
}

// Stores bundles the record stores of one bookkeeper database.
type Stores struct {
	Expenses   Store[*expense.Record]
	Budgets    Store[*budget.Record]
	Categories Store[*category.Record]
	closer     func() error
}

func Open(ctx context.Context, config driverConfig) (*Stores, error) {
	switch config.Driver() {
	case driverMemory:
		return &Stores{
			Expenses:   NewMemoryStore(ExpenseTable),
			Budgets:    NewMemoryStore(BudgetTable),
			Categories: NewMemoryStore(CategoryTable),
			closer:     func() error { return nil },
		}, nil
	case driverSQLite:
		return openSQLiteStores(ctx, config)
	}
	return nil, fmt.Errorf("unknown storage driver %q", config.Driver())
}

func openSQLiteStores(ctx context.Context, config config) (*Stores, error) {
	db, err := NewSQLiteStorage(config)
	if err != nil {
		return nil, err
	}

	stores := &Stores{closer: db.Close}
	if stores.Expenses, err = NewSQLiteStore(ctx, db, ExpenseTable); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "open stores")
	}
	if stores.Budgets, err = NewSQLiteStore(ctx, db, BudgetTable); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "open stores")
	}
	if stores.Categories, err = NewSQLiteStore(ctx, db, CategoryTable); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "open stores")
	}
	return stores, nil
}

func (s *Stores) Close() error {
	return s.closer()
}
