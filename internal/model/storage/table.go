package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
	"max.ks1230/bookkeeper/internal/entity/expense"
	"max.ks1230/bookkeeper/internal/model/customerr"
)

type FieldType int

const (
	Integer FieldType = iota
	Text
	// Date is kept as YYYY-MM-DD text, so lexical order is calendar order.
	Date
)

type Field struct {
	Name string
	Type FieldType
	// NullableKey marks a reference field where key 0 is stored as NULL.
	NullableKey bool
}

// Record is a row type with a surrogate key, 0 while transient.
type Record interface {
	PK() int64
	SetPK(key int64)
}

// Filter maps field names to expected values, combined with AND.
type Filter map[string]any

// Table declares how a record type is laid out in storage: the ordered
// fields (surrogate key excluded) and the mapping between record and row.
type Table[T Record] struct {
	Name   string
	Fields []Field
	Row    func(rec T) []any
	Record func(key int64, row []any) (T, error)
}

type Store[T Record] interface {
	Insert(ctx context.Context, obj T) (int64, error)
	Get(ctx context.Context, key int64) (T, error)
	Scan(ctx context.Context, where Filter) ([]T, error)
	ScanRange(ctx context.Context, field string, from, to any) ([]T, error)
	Update(ctx context.Context, obj T) error
	Delete(ctx context.Context, key int64) error
}

func (t *Table[T]) columns() []string {
	cols := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		cols = append(cols, f.Name)
	}
	return cols
}

func (t *Table[T]) fieldIndex(name string) (int, error) {
	for i, f := range t.Fields {
		if f.Name == name {
			return i, nil
		}
	}
	return 0, errors.Wrapf(customerr.ErrUnknownField, "%s has no field %q", t.Name, name)
}

// encode converts a caller value into the form Row produces for that field.
func (t *Table[T]) encode(name string, v any) (any, error) {
	i, err := t.fieldIndex(name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}

	f := t.Fields[i]
	switch f.Type {
	case Integer:
		if n, ok := toInt64(v); ok {
			if f.NullableKey && n == 0 {
				return nil, nil
			}
			return n, nil
		}
	case Text:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case Date:
		switch d := v.(type) {
		case time.Time:
			return d.Format(expense.DateLayout), nil
		case string:
			return d, nil
		}
	}
	return nil, fmt.Errorf("%s.%s: unsupported value %v (%T)", t.Name, name, v, v)
}

func (t *Table[T]) encodeFilter(where Filter) (map[string]any, error) {
	res := make(map[string]any, len(where))
	for name, v := range where {
		enc, err := t.encode(name, v)
		if err != nil {
			return nil, err
		}
		res[name] = enc
	}
	return res, nil
}

func (t *Table[T]) decode(key int64, row []any) (T, error) {
	if len(row) != len(t.Fields) {
		var zero T
		return zero, fmt.Errorf("%s: got %d columns, want %d", t.Name, len(row), len(t.Fields))
	}
	rec, err := t.Record(key, row)
	if err != nil {
		var zero T
		return zero, errors.Wrapf(err, "decode %s row %d", t.Name, key)
	}
	return rec, nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) <= math.MaxInt64 {
			return int64(n), true
		}
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}

// single picks the only record read for key; more than one means the
// store handed out a key twice.
func single[T Record](table string, key int64, recs []T) (T, error) {
	var zero T
	switch len(recs) {
	case 0:
		return zero, nil
	case 1:
		return recs[0], nil
	}
	return zero, errors.Wrapf(customerr.ErrIntegrity, "get %s: %d rows for key %d", table, len(recs), key)
}
