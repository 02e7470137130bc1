package budgets

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/bookkeeper/internal/entity/budget"
	"max.ks1230/bookkeeper/internal/entity/expense"
	"max.ks1230/bookkeeper/internal/logger"
	"max.ks1230/bookkeeper/internal/model/storage"
)

type expenseStorage interface {
	ScanRange(ctx context.Context, field string, from, to any) ([]*expense.Record, error)
}

type budgetStorage interface {
	Scan(ctx context.Context, where storage.Filter) ([]*budget.Record, error)
	Update(ctx context.Context, obj *budget.Record) error
}

type config interface {
	Location() *time.Location
}

// Tracker reconciles budgets with the expenses recorded in their period.
type Tracker struct {
	expenses expenseStorage
	budgets  budgetStorage
	location *time.Location
}

func NewTracker(config config, expenses expenseStorage, budgets budgetStorage) *Tracker {
	return &Tracker{
		expenses: expenses,
		budgets:  budgets,
		location: config.Location(),
	}
}

// Recompute sets b.Spent to the sum of every expense dated inside the period
// containing asOf, whatever its category. b is not persisted, and is left
// unchanged on error.
func (t *Tracker) Recompute(ctx context.Context, b *budget.Record, asOf time.Time) (err error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "recomputeBudget")
	defer span.Finish()
	span.SetTag("period", string(b.Period))
	defer func() {
		if err != nil {
			ext.Error.Set(span, true)
		}
	}()

	from, to, err := Window(b.Period, asOf, t.location)
	if err != nil {
		return errors.Wrap(err, "recompute budget")
	}

	exps, err := t.expenses.ScanRange(ctx, storage.FieldExpenseDate, from, to)
	if err != nil {
		return errors.Wrap(err, "recompute budget")
	}

	b.Spent = sumAmounts(exps)
	logger.Debug("budget recomputed",
		zap.Int64("key", b.Key),
		zap.String("period", string(b.Period)),
		zap.String("from", from.Format(expense.DateLayout)),
		zap.String("to", to.Format(expense.DateLayout)),
		zap.Int("expenses", len(exps)),
		zap.Int64("spent", b.Spent),
	)
	return nil
}

// RefreshAll recomputes and persists every stored budget, stopping at the
// first failure.
func (t *Tracker) RefreshAll(ctx context.Context, asOf time.Time) ([]*budget.Record, error) {
	logger.Info("RefreshAll - start", zap.Time("asOf", asOf))
	defer logger.Info("RefreshAll - end")

	all, err := t.budgets.Scan(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "refresh budgets")
	}

	for _, b := range all {
		if err = t.Recompute(ctx, b, asOf); err != nil {
			return nil, errors.Wrapf(err, "refresh budget %d", b.Key)
		}
		if err = t.budgets.Update(ctx, b); err != nil {
			return nil, errors.Wrapf(err, "refresh budget %d", b.Key)
		}
	}
	return all, nil
}

func sumAmounts(exps []*expense.Record) int64 {
	var total int64
	for _, exp := range exps {
		total += exp.Amount
	}
	return total
}
