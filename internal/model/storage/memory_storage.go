package storage

import (
	"cmp"
	"context"
	"slices"

	"github.com/pkg/errors"
	"max.ks1230/bookkeeper/internal/model/customerr"
)

// MemoryStore keeps rows in a map. It follows the same contract as
// SQLiteStore and is not safe for concurrent use.
type MemoryStore[T Record] struct {
	table   Table[T]
	rows    map[int64][]any
	lastKey int64
}

func NewMemoryStore[T Record](table Table[T]) *MemoryStore[T] {
	return &MemoryStore[T]{
		table: table,
		rows:  make(map[int64][]any),
	}
}

func (s *MemoryStore[T]) Insert(ctx context.Context, obj T) (key int64, err error) {
	_, done := startOperation(ctx, s.table.Name, "insert")
	defer func() { done(err) }()

	if obj.PK() != 0 {
		return 0, errors.Wrapf(customerr.ErrAlreadyPersisted, "insert into %s: key %d", s.table.Name, obj.PK())
	}

	s.lastKey++
	s.rows[s.lastKey] = s.table.Row(obj)
	obj.SetPK(s.lastKey)
	return s.lastKey, nil
}

func (s *MemoryStore[T]) Get(ctx context.Context, key int64) (rec T, err error) {
	_, done := startOperation(ctx, s.table.Name, "get")
	defer func() { done(err) }()

	row, ok := s.rows[key]
	if !ok {
		return rec, nil
	}
	rec, err = s.table.decode(key, row)
	return rec, errors.Wrapf(err, "get %s", s.table.Name)
}

func (s *MemoryStore[T]) Scan(ctx context.Context, where Filter) (recs []T, err error) {
	_, done := startOperation(ctx, s.table.Name, "scan")
	defer func() { done(err) }()

	eq, err := s.table.encodeFilter(where)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.table.Name)
	}
	idx := make(map[int]any, len(eq))
	for name, v := range eq {
		i, _ := s.table.fieldIndex(name)
		idx[i] = v
	}

	recs, err = s.collect(func(row []any) bool {
		for i, v := range idx {
			if row[i] != v {
				return false
			}
		}
		return true
	})
	return recs, errors.Wrapf(err, "scan %s", s.table.Name)
}

func (s *MemoryStore[T]) ScanRange(ctx context.Context, field string, from, to any) (recs []T, err error) {
	_, done := startOperation(ctx, s.table.Name, "scan_range")
	defer func() { done(err) }()

	i, err := s.table.fieldIndex(field)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.table.Name)
	}
	lo, err := s.table.encode(field, from)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.table.Name)
	}
	hi, err := s.table.encode(field, to)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.table.Name)
	}

	recs, err = s.collect(func(row []any) bool {
		c1, ok1 := compare(row[i], lo)
		c2, ok2 := compare(row[i], hi)
		return ok1 && ok2 && c1 >= 0 && c2 <= 0
	})
	return recs, errors.Wrapf(err, "scan %s", s.table.Name)
}

func (s *MemoryStore[T]) Update(ctx context.Context, obj T) (err error) {
	_, done := startOperation(ctx, s.table.Name, "update")
	defer func() { done(err) }()

	if _, ok := s.rows[obj.PK()]; !ok {
		return errors.Wrapf(customerr.ErrNotFound, "update %s: key %d", s.table.Name, obj.PK())
	}
	s.rows[obj.PK()] = s.table.Row(obj)
	return nil
}

func (s *MemoryStore[T]) Delete(ctx context.Context, key int64) (err error) {
	_, done := startOperation(ctx, s.table.Name, "delete")
	defer func() { done(err) }()

	if _, ok := s.rows[key]; !ok {
		return errors.Wrapf(customerr.ErrNotFound, "delete %s: key %d", s.table.Name, key)
	}
	delete(s.rows, key)
	return nil
}

// collect decodes matching rows in key order.
func (s *MemoryStore[T]) collect(match func(row []any) bool) ([]T, error) {
	keys := make([]int64, 0, len(s.rows))
	for k := range s.rows {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	recs := make([]T, 0)
	for _, k := range keys {
		row := s.rows[k]
		if !match(row) {
			continue
		}
		rec, err := s.table.decode(k, row)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// compare orders two stored values of the same kind; NULLs never compare.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case int64:
		if bv, ok := b.(int64); ok {
			return cmp.Compare(av, bv), true
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmp.Compare(av, bv), true
		}
	}
	return 0, false
}
