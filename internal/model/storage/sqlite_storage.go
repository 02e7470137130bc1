package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/bookkeeper/internal/logger"
	"max.ks1230/bookkeeper/internal/model/customerr"

	// sqlite driver
	_ "modernc.org/sqlite"
)

const (
	memoryPath = ":memory:"
	keyColumn  = "ROWID"
)

var sqlite = sq.StatementBuilder.PlaceholderFormat(sq.Question)

var columnTypes = map[FieldType]string{
	Integer: "INTEGER",
	Text:    "TEXT",
	Date:    "TEXT",
}

type config interface {
	Path() string
}

// SQLiteStorage owns the database file shared by every record table.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(config config) (*SQLiteStorage, error) {
	return OpenSQLite(config.Path())
}

func OpenSQLite(path string) (*SQLiteStorage, error) {
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create db directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open database")
	}
	// single writer, and every :memory: connection would be a separate database
	db.SetMaxOpenConns(1)

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "cannot open database")
	}

	logger.Info("sqlite storage opened", zap.String("path", path))
	return &SQLiteStorage{db}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// SQLiteStore keeps records of one table. The key is the table ROWID.
type SQLiteStore[T Record] struct {
	db    *sql.DB
	table Table[T]
}

// NewSQLiteStore creates the table if it does not exist yet.
func NewSQLiteStore[T Record](ctx context.Context, s *SQLiteStorage, table Table[T]) (*SQLiteStore[T], error) {
	store := &SQLiteStore[T]{db: s.db, table: table}
	if err := store.createTable(ctx); err != nil {
		return nil, errors.Wrapf(err, "create table %s", table.Name)
	}
	return store, nil
}

func (s *SQLiteStore[T]) createTable(ctx context.Context) error {
	defs := make([]string, 0, len(s.table.Fields))
	for _, f := range s.table.Fields {
		defs = append(defs, f.Name+" "+columnTypes[f.Type])
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", s.table.Name, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return err
	}

	for _, f := range s.table.Fields {
		if f.Type != Date {
			continue
		}
		idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %[1]s_%[2]s ON %[1]s (%[2]s)", s.table.Name, f.Name)
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore[T]) Insert(ctx context.Context, obj T) (key int64, err error) {
	ctx, done := startOperation(ctx, s.table.Name, "insert")
	defer func() { done(err) }()

	if obj.PK() != 0 {
		return 0, errors.Wrapf(customerr.ErrAlreadyPersisted, "insert into %s: key %d", s.table.Name, obj.PK())
	}

	query := sqlite.Insert(s.table.Name).
		Columns(s.table.columns()...).
		Values(s.table.Row(obj)...)

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "insert into %s", s.table.Name)
	}
	key, err = res.LastInsertId()
	if err != nil {
		return 0, errors.Wrapf(err, "insert into %s", s.table.Name)
	}

	obj.SetPK(key)
	logger.Debug("record inserted", zap.String("table", s.table.Name), zap.Int64("key", key))
	return key, nil
}

// Get returns the zero T (nil for pointer records) when no row has the key.
func (s *SQLiteStore[T]) Get(ctx context.Context, key int64) (rec T, err error) {
	ctx, done := startOperation(ctx, s.table.Name, "get")
	defer func() { done(err) }()

	recs, err := s.query(ctx, sq.Eq{keyColumn: key})
	if err != nil {
		return rec, errors.Wrapf(err, "get %s", s.table.Name)
	}

	return single(s.table.Name, key, recs)
}

// Scan with a nil or empty filter returns every record.
func (s *SQLiteStore[T]) Scan(ctx context.Context, where Filter) (recs []T, err error) {
	ctx, done := startOperation(ctx, s.table.Name, "scan")
	defer func() { done(err) }()

	eq, err := s.table.encodeFilter(where)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.table.Name)
	}

	var pred sq.Sqlizer
	if len(eq) > 0 {
		pred = sq.Eq(eq)
	}
	recs, err = s.query(ctx, pred)
	return recs, errors.Wrapf(err, "scan %s", s.table.Name)
}

// ScanRange returns records with from <= field <= to.
func (s *SQLiteStore[T]) ScanRange(ctx context.Context, field string, from, to any) (recs []T, err error) {
	ctx, done := startOperation(ctx, s.table.Name, "scan_range")
	defer func() { done(err) }()

	lo, err := s.table.encode(field, from)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.table.Name)
	}
	hi, err := s.table.encode(field, to)
	if err != nil {
		return nil, errors.Wrapf(err, "scan %s", s.table.Name)
	}

	recs, err = s.query(ctx, sq.And{sq.GtOrEq{field: lo}, sq.LtOrEq{field: hi}})
	return recs, errors.Wrapf(err, "scan %s", s.table.Name)
}

func (s *SQLiteStore[T]) Update(ctx context.Context, obj T) (err error) {
	ctx, done := startOperation(ctx, s.table.Name, "update")
	defer func() { done(err) }()

	values := s.table.Row(obj)
	set := make(map[string]any, len(values))
	for i, f := range s.table.Fields {
		set[f.Name] = values[i]
	}

	query := sqlite.Update(s.table.Name).
		SetMap(set).
		Where(sq.Eq{keyColumn: obj.PK()})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "update %s", s.table.Name)
	}
	return s.expectAffected(res, "update", obj.PK())
}

func (s *SQLiteStore[T]) Delete(ctx context.Context, key int64) (err error) {
	ctx, done := startOperation(ctx, s.table.Name, "delete")
	defer func() { done(err) }()

	query := sqlite.Delete(s.table.Name).
		Where(sq.Eq{keyColumn: key})

	res, err := query.RunWith(s.db).ExecContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "delete %s", s.table.Name)
	}
	return s.expectAffected(res, "delete", key)
}

func (s *SQLiteStore[T]) expectAffected(res sql.Result, op string, key int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "%s %s", op, s.table.Name)
	}
	if n == 0 {
		return errors.Wrapf(customerr.ErrNotFound, "%s %s: key %d", op, s.table.Name, key)
	}
	logger.Debug("record "+op+"d", zap.String("table", s.table.Name), zap.Int64("key", key))
	return nil
}

func (s *SQLiteStore[T]) query(ctx context.Context, pred sq.Sqlizer) ([]T, error) {
	query := sqlite.Select(append([]string{keyColumn}, s.table.columns()...)...).
		From(s.table.Name)
	if pred != nil {
		query = query.Where(pred)
	}

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		rowErr := rows.Close()
		if rowErr != nil {
			logger.Error("error closing rows", zap.Error(rowErr))
		}
	}()

	recs := make([]T, 0)
	for rows.Next() {
		var key int64
		values := make([]any, len(s.table.Fields))
		dest := make([]any, 0, len(values)+1)
		dest = append(dest, &key)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err = rows.Scan(dest...); err != nil {
			return nil, err
		}
		rec, err := s.table.decode(key, values)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
