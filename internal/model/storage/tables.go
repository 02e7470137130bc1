package storage

import (
	"fmt"
	"time"

	"max.ks1230/bookkeeper/internal/entity/budget"
	"max.ks1230/bookkeeper/internal/entity/category"
	"max.ks1230/bookkeeper/internal/entity/expense"
)

const (
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldExpenseDate = "expense_date"
	FieldComment     = "comment"

	FieldLimitation = "limitation"
	FieldPeriod     = "period"
	FieldSpent      = "spent"

	FieldName   = "name"
	FieldParent = "parent"
)

var ExpenseTable = Table[*expense.Record]{
	Name: "expense",
	Fields: []Field{
		{Name: FieldAmount, Type: Integer},
		{Name: FieldCategory, Type: Integer, NullableKey: true},
		{Name: FieldExpenseDate, Type: Date},
		{Name: FieldComment, Type: Text},
	},
	Row: func(r *expense.Record) []any {
		return []any{r.Amount, nullableKey(r.Category), r.Date.Format(expense.DateLayout), r.Comment}
	},
	Record: func(key int64, row []any) (*expense.Record, error) {
		rd := rowReader{row: row}
		rec := &expense.Record{
			Key:      key,
			Amount:   rd.integer(0),
			Category: rd.integer(1),
			Date:     rd.date(2),
			Comment:  rd.text(3),
		}
		return rec, rd.err
	},
}

var BudgetTable = Table[*budget.Record]{
	Name: "budget",
	Fields: []Field{
		{Name: FieldLimitation, Type: Integer},
		{Name: FieldPeriod, Type: Text},
		{Name: FieldSpent, Type: Integer},
	},
	Row: func(r *budget.Record) []any {
		return []any{r.Limitation, string(r.Period), r.Spent}
	},
	Record: func(key int64, row []any) (*budget.Record, error) {
		rd := rowReader{row: row}
		rec := &budget.Record{
			Key:        key,
			Limitation: rd.integer(0),
			Spent:      rd.integer(2),
		}
		name := rd.text(1)
		if rd.err != nil {
			return nil, rd.err
		}
		period, err := budget.ParsePeriod(name)
		if err != nil {
			return nil, err
		}
		rec.Period = period
		return rec, nil
	},
}

var CategoryTable = Table[*category.Record]{
	Name: "category",
	Fields: []Field{
		{Name: FieldName, Type: Text},
		{Name: FieldParent, Type: Integer, NullableKey: true},
	},
	Row: func(r *category.Record) []any {
		return []any{r.Name, nullableKey(r.Parent)}
	},
	Record: func(key int64, row []any) (*category.Record, error) {
		rd := rowReader{row: row}
		rec := &category.Record{
			Key:    key,
			Name:   rd.text(0),
			Parent: rd.integer(1),
		}
		return rec, rd.err
	},
}

// nullableKey stores an unset reference as NULL.
func nullableKey(key int64) any {
	if key == 0 {
		return nil
	}
	return key
}

// rowReader keeps the first conversion error so Record funcs stay flat.
type rowReader struct {
	row []any
	err error
}

func (r *rowReader) integer(i int) int64 {
	switch v := r.row[i].(type) {
	case nil:
		return 0
	case int64:
		return v
	}
	r.fail(i, "integer")
	return 0
}

func (r *rowReader) text(i int) string {
	switch v := r.row[i].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	r.fail(i, "text")
	return ""
}

func (r *rowReader) date(i int) time.Time {
	s := r.text(i)
	if s == "" {
		return time.Time{}
	}
	d, err := time.Parse(expense.DateLayout, s)
	if err != nil && r.err == nil {
		r.err = fmt.Errorf("column %d: %w", i, err)
	}
	return d
}

func (r *rowReader) fail(i int, want string) {
	if r.err == nil {
		r.err = fmt.Errorf("column %d: %T is not %s", i, r.row[i], want)
	}
}
