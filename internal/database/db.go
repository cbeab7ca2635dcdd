package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn 是從連線池借出的一條連線，用完必須 Release
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Release()
}

// DB 是注入到 store / service 的連線池介面
type DB interface {
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Close()
}

type FakeDB struct {
	AcquireFn func(ctx context.Context) (Conn, error)
	PingFn    func(ctx context.Context) error
	CloseFn   func()
}

func (f *FakeDB) Acquire(ctx context.Context) (Conn, error) {
	if f.AcquireFn != nil {
		return f.AcquireFn(ctx)
	}
	panic("unexpected Acquire")
}

func (f *FakeDB) Ping(ctx context.Context) error {
	if f.PingFn != nil {
		return f.PingFn(ctx)
	}
	panic("unexpected Ping")
}

func (f *FakeDB) Close() {
	if f.CloseFn != nil {
		f.CloseFn()
	}
}

type FakeConn struct {
	ExecFn     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	BeginFn    func(ctx context.Context) (pgx.Tx, error)
	ReleaseFn  func()

	Released int
}

func (f *FakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.ExecFn != nil {
		return f.ExecFn(ctx, sql, args...)
	}
	panic("unexpected Exec")
}

func (f *FakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if f.QueryFn != nil {
		return f.QueryFn(ctx, sql, args...)
	}
	panic("unexpected Query")
}

func (f *FakeConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.QueryRowFn != nil {
		return f.QueryRowFn(ctx, sql, args...)
	}
	panic("unexpected QueryRow")
}

func (f *FakeConn) Begin(ctx context.Context) (pgx.Tx, error) {
	if f.BeginFn != nil {
		return f.BeginFn(ctx)
	}
	panic("unexpected Begin")
}

func (f *FakeConn) Release() {
	f.Released++
	if f.ReleaseFn != nil {
		f.ReleaseFn()
	}
}

// WithConn 回傳一個每次 Acquire 都借出同一條 conn 的 FakeDB
func WithConn(conn *FakeConn) *FakeDB {
	return &FakeDB{
		AcquireFn: func(context.Context) (Conn, error) { return conn, nil },
		PingFn:    func(context.Context) error { return nil },
	}
}
