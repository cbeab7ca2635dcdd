package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type testCategory struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

var testCategories = Table{Name: "categories", Columns: []string{"name", "description"}}

var categoryColumns = []string{"id", "name", "description", "created_at", "updated_at"}

func queryConn(t *testing.T, wantSQL string, wantArgs []any, rows *FakeRows) *FakeConn {
	t.Helper()
	return &FakeConn{
		QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Equal(t, wantSQL, sql)
			require.Equal(t, wantArgs, args)
			return rows, nil
		},
	}
}

func TestInsertBuildsSortedStatement(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	conn := queryConn(t,
		"INSERT INTO categories (description, name) VALUES ($1, $2) RETURNING *",
		[]any{"Sweet treats", "Desserts"},
		&FakeRows{Columns: categoryColumns, Data: [][]any{{"c1", "Desserts", "Sweet treats", created, created}}},
	)

	got, err := Insert[testCategory](context.Background(), WithConn(conn), testCategories, Values{
		"name":        "Desserts",
		"description": "Sweet treats",
	})
	require.NoError(t, err)
	require.Equal(t, "c1", got.ID)
	require.Equal(t, "Desserts", got.Name)
	require.Equal(t, "Sweet treats", *got.Description)
	require.Equal(t, created, got.CreatedAt)
	require.Equal(t, 1, conn.Released)
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)
	conn := queryConn(t,
		"UPDATE categories SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING *",
		[]any{"Sweets", "c1"},
		&FakeRows{Columns: categoryColumns, Data: [][]any{{"c1", "Sweets", "Sweet treats", created, updated}}},
	)

	got, err := Update[testCategory](context.Background(), WithConn(conn), testCategories, "c1", Values{"name": "Sweets"})
	require.NoError(t, err)
	require.Equal(t, "Sweets", got.Name)
	require.Equal(t, "Sweet treats", *got.Description)
	require.True(t, got.UpdatedAt.After(got.CreatedAt))
	require.Equal(t, 1, conn.Released)
}

func TestUpdateMissingRow(t *testing.T) {
	conn := &FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return &FakeRows{Columns: categoryColumns}, nil
	}}
	got, err := Update[testCategory](context.Background(), WithConn(conn), Table{Name: "t", IDColumn: "key", Columns: []string{"name"}}, 9, Values{"name": "x"})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestWriteRejectsBadData(t *testing.T) {
	// FakeDB 沒設定 AcquireFn，只要碰到資料庫就會 panic
	db := &FakeDB{}
	ctx := context.Background()

	_, err := Insert[testCategory](ctx, db, testCategories, Values{})
	require.ErrorIs(t, err, ErrEmptyData)

	_, err = Update[testCategory](ctx, db, testCategories, "c1", nil)
	require.ErrorIs(t, err, ErrEmptyData)

	_, err = Insert[testCategory](ctx, db, testCategories, Values{"name": "x", "name; DROP TABLE users": 1})
	require.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Update[testCategory](ctx, db, testCategories, "c1", Values{"id": "other"})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRemove(t *testing.T) {
	affected := int64(1)
	conn := &FakeConn{ExecFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		require.Equal(t, "DELETE FROM categories WHERE id = $1", sql)
		require.Equal(t, []any{"c1"}, args)
		if affected == 1 {
			return pgconn.NewCommandTag("DELETE 1"), nil
		}
		return pgconn.NewCommandTag("DELETE 0"), nil
	}}
	db := WithConn(conn)

	ok, err := Remove(context.Background(), db, testCategories, "c1")
	require.NoError(t, err)
	require.True(t, ok)

	affected = 0
	ok, err = Remove(context.Background(), db, testCategories, "c1")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 2, conn.Released)
}

func TestRemoveForeignKeyViolation(t *testing.T) {
	conn := &FakeConn{ExecFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "23503", Message: "violates foreign key constraint"}
	}}
	ok, err := Remove(context.Background(), WithConn(conn), testCategories, "c1")
	require.False(t, ok)
	require.True(t, IsForeignKeyViolation(err))
	require.False(t, IsUniqueViolation(err))

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, "remove", qe.Op)
	require.Equal(t, 1, conn.Released)
}

func TestQueryRowAndRows(t *testing.T) {
	ctx := context.Background()
	empty := &FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return &FakeRows{Columns: categoryColumns}, nil
	}}

	row, err := QueryRow[testCategory](ctx, WithConn(empty), "SELECT * FROM categories WHERE id = $1", "nope")
	require.NoError(t, err)
	require.Nil(t, row)

	list, err := QueryRows[testCategory](ctx, WithConn(empty), "SELECT * FROM categories")
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	now := time.Now()
	two := &FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return &FakeRows{Columns: categoryColumns, Data: [][]any{
			{"a", "Drinks", nil, now, now},
			{"b", "Mains", "Hot", now, now},
		}}, nil
	}}
	list, err = QueryRows[testCategory](ctx, WithConn(two), "SELECT * FROM categories ORDER BY name")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Nil(t, list[0].Description)
	require.Equal(t, "Hot", *list[1].Description)

	first, err := QueryRow[testCategory](ctx, WithConn(two), "SELECT * FROM categories")
	require.NoError(t, err)
	require.Equal(t, "a", first.ID)
	require.Equal(t, 2, empty.Released)
	require.Equal(t, 2, two.Released)
}

func TestQueryRaw(t *testing.T) {
	conn := &FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return &FakeRows{
			Columns: []string{"n"},
			Data:    [][]any{{int64(1)}, {int64(2)}},
			Tag:     pgconn.NewCommandTag("SELECT 2"),
		}, nil
	}}
	res, err := Query(context.Background(), WithConn(conn), "SELECT generate_series(1, 2) AS n")
	require.NoError(t, err)
	require.Equal(t, []string{"n"}, res.Fields)
	require.Equal(t, [][]any{{int64(1)}, {int64(2)}}, res.Rows)
	require.EqualValues(t, 2, res.RowsAffected)
}

func TestQueryErrorsReleaseConnection(t *testing.T) {
	boom := errors.New("syntax error")
	conn := &FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return nil, boom
	}}
	_, err := Query(context.Background(), WithConn(conn), "SELEC 1")
	require.ErrorIs(t, err, boom)

	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	require.Equal(t, "SELEC 1", qe.SQL)

	_, err = QueryRows[testCategory](context.Background(), WithConn(conn), "SELEC 1")
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, conn.Released)

	rowsErr := &FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return &FakeRows{Columns: categoryColumns, ErrVal: boom}, nil
	}}
	_, err = QueryRow[testCategory](context.Background(), WithConn(rowsErr), "SELECT 1")
	require.ErrorIs(t, err, boom)
}

func TestAcquireFailureIsWrapped(t *testing.T) {
	db := &FakeDB{AcquireFn: func(ctx context.Context) (Conn, error) {
		return nil, ErrPoolExhausted
	}}
	_, err := QueryRows[testCategory](context.Background(), db, "SELECT 1")
	require.ErrorIs(t, err, ErrPoolExhausted)

	_, err = Remove(context.Background(), db, testCategories, "c1")
	require.ErrorIs(t, err, ErrPoolExhausted)
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()
	tx := &FakeTx{}
	conn := &FakeConn{BeginFn: func(ctx context.Context) (pgx.Tx, error) { return tx, nil }}

	require.NoError(t, WithTx(ctx, WithConn(conn), func(pgx.Tx) error { return nil }))
	require.True(t, tx.Committed)
	require.False(t, tx.RolledBack)

	tx = &FakeTx{}
	boom := errors.New("boom")
	require.ErrorIs(t, WithTx(ctx, WithConn(conn), func(pgx.Tx) error { return boom }), boom)
	require.False(t, tx.Committed)
	require.True(t, tx.RolledBack)
	require.Equal(t, 2, conn.Released)
}
