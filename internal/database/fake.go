package database

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// FakeRows 是記憶體內的 pgx.Rows，Scan 以 reflect 指派值
type FakeRows struct {
	Columns []string
	Data    [][]any
	Tag     pgconn.CommandTag
	ErrVal  error

	idx    int
	Closed bool
}

func (r *FakeRows) Close()                        { r.Closed = true }
func (r *FakeRows) Err() error                    { return r.ErrVal }
func (r *FakeRows) CommandTag() pgconn.CommandTag { return r.Tag }
func (r *FakeRows) RawValues() [][]byte           { return nil }
func (r *FakeRows) Conn() *pgx.Conn               { return nil }

func (r *FakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.Columns))
	for i, c := range r.Columns {
		fds[i] = pgconn.FieldDescription{Name: c}
	}
	return fds
}

func (r *FakeRows) Next() bool {
	if r.Closed || r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *FakeRows) Values() ([]any, error) {
	if r.idx == 0 {
		return nil, fmt.Errorf("Values called before Next")
	}
	return r.Data[r.idx-1], nil
}

func (r *FakeRows) Scan(dest ...any) error {
	if r.idx == 0 {
		return fmt.Errorf("Scan called before Next")
	}
	row := r.Data[r.idx-1]
	if len(dest) != len(row) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(row))
	}
	for i, d := range dest {
		if err := assign(d, row[i]); err != nil {
			return fmt.Errorf("scan column %q: %w", r.Columns[i], err)
		}
	}
	return nil
}

func assign(dest, src any) error {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("destination %T is not a pointer", dest)
	}
	dv = dv.Elem()
	if src == nil {
		dv.Set(reflect.Zero(dv.Type()))
		return nil
	}
	sv := reflect.ValueOf(src)
	switch {
	case sv.Type().AssignableTo(dv.Type()):
		dv.Set(sv)
	case dv.Kind() == reflect.Pointer && sv.Type().AssignableTo(dv.Type().Elem()):
		p := reflect.New(dv.Type().Elem())
		p.Elem().Set(sv)
		dv.Set(p)
	case sv.Kind() == dv.Kind() && sv.Type().ConvertibleTo(dv.Type()):
		dv.Set(sv.Convert(dv.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", src, dv.Type())
	}
	return nil
}

// FakeRow 包一個 FakeRows 當作 pgx.Row 使用，沒有資料時回傳 pgx.ErrNoRows
type FakeRow struct {
	Rows *FakeRows
	Err  error
}

func (r FakeRow) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	defer r.Rows.Close()
	if !r.Rows.Next() {
		return pgx.ErrNoRows
	}
	return r.Rows.Scan(dest...)
}

// FakeTx 只實作交易中會用到的方法，其餘方法呼叫時會 panic
type FakeTx struct {
	pgx.Tx

	ExecFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	CommitFn   func(ctx context.Context) error
	RollbackFn func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (t *FakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if t.ExecFn != nil {
		return t.ExecFn(ctx, sql, args...)
	}
	panic("unexpected Exec")
}

func (t *FakeTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if t.QueryFn != nil {
		return t.QueryFn(ctx, sql, args...)
	}
	panic("unexpected Query")
}

func (t *FakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if t.QueryRowFn != nil {
		return t.QueryRowFn(ctx, sql, args...)
	}
	panic("unexpected QueryRow")
}

func (t *FakeTx) Commit(ctx context.Context) error {
	if t.Committed || t.RolledBack {
		return pgx.ErrTxClosed
	}
	t.Committed = true
	if t.CommitFn != nil {
		return t.CommitFn(ctx)
	}
	return nil
}

func (t *FakeTx) Rollback(ctx context.Context) error {
	if t.Committed || t.RolledBack {
		return pgx.ErrTxClosed
	}
	t.RolledBack = true
	if t.RollbackFn != nil {
		return t.RollbackFn(ctx)
	}
	return nil
}
