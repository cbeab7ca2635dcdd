package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Values 是 Insert / Update 的欄位資料，key 必須在 Table.Columns 之內
type Values map[string]any

// Table 描述一張表可被寫入的欄位
type Table struct {
	Name     string
	IDColumn string
	Columns  []string
}

func (t Table) idColumn() string {
	if t.IDColumn == "" {
		return "id"
	}
	return t.IDColumn
}

func (t Table) allows(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// columns 依欄位名稱排序後回傳欄位與對應參數
func (t Table) columns(data Values) ([]string, []any, error) {
	if len(data) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", t.Name, ErrEmptyData)
	}
	cols := make([]string, 0, len(data))
	for col := range data {
		if !t.allows(col) {
			return nil, nil, fmt.Errorf("%s.%s: %w", t.Name, col, ErrUnknownColumn)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, len(cols))
	for i, col := range cols {
		args[i] = data[col]
	}
	return cols, args, nil
}

// Result 是 Query 的原始結果
type Result struct {
	Fields       []string
	Rows         [][]any
	RowsAffected int64
}

// Query 執行任意參數化 SQL 並回傳完整結果
func Query(ctx context.Context, db DB, sql string, args ...any) (*Result, error) {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, &QueryError{Op: "query", SQL: sql, Err: err}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{Op: "query", SQL: sql, Err: err}
	}
	defer rows.Close()

	res := &Result{Rows: [][]any{}}
	for _, fd := range rows.FieldDescriptions() {
		res.Fields = append(res.Fields, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, &QueryError{Op: "query", SQL: sql, Err: err}
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Op: "query", SQL: sql, Err: err}
	}
	res.RowsAffected = rows.CommandTag().RowsAffected()
	return res, nil
}

// QueryRow 回傳第一筆資料，沒有資料時回傳 nil, nil
func QueryRow[T any](ctx context.Context, db DB, sql string, args ...any) (*T, error) {
	return queryOne[T](ctx, db, "queryRow", sql, args...)
}

// QueryRows 回傳所有資料，沒有資料時回傳空 slice
func QueryRows[T any](ctx context.Context, db DB, sql string, args ...any) ([]T, error) {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, &QueryError{Op: "queryRows", SQL: sql, Err: err}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{Op: "queryRows", SQL: sql, Err: err}
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[T])
	if err != nil {
		return nil, &QueryError{Op: "queryRows", SQL: sql, Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Insert 依 data 組出 INSERT ... RETURNING *
func Insert[T any](ctx context.Context, db DB, table Table, data Values) (*T, error) {
	cols, args, err := table.columns(data)
	if err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		table.Name, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	return queryOne[T](ctx, db, "insert", sql, args...)
}

// Update 更新 data 內的欄位並刷新 updated_at，找不到資料時回傳 nil, nil
func Update[T any](ctx context.Context, db DB, table Table, id any, data Values) (*T, error) {
	cols, args, err := table.columns(data)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}

	sets := make([]string, len(cols), len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING *",
		table.Name, strings.Join(sets, ", "), table.idColumn(), len(args))

	return queryOne[T](ctx, db, "update", sql, args...)
}

// Remove 回傳是否真的刪除了資料
func Remove(ctx context.Context, db DB, table Table, id any) (bool, error) {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table.Name, table.idColumn())

	conn, err := db.Acquire(ctx)
	if err != nil {
		return false, &QueryError{Op: "remove", SQL: sql, Err: err}
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, sql, id)
	if err != nil {
		return false, &QueryError{Op: "remove", SQL: sql, Err: err}
	}
	return tag.RowsAffected() > 0, nil
}

// WithTx 在同一條連線上開交易執行 fn，fn 回傳錯誤時 rollback
func WithTx(ctx context.Context, db DB, fn func(tx pgx.Tx) error) error {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return &QueryError{Op: "begin", Err: err}
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return &QueryError{Op: "begin", Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &QueryError{Op: "commit", Err: err}
	}
	return nil
}

func queryOne[T any](ctx context.Context, db DB, op, sql string, args ...any) (*T, error) {
	conn, err := db.Acquire(ctx)
	if err != nil {
		return nil, &QueryError{Op: op, SQL: sql, Err: err}
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, &QueryError{Op: op, SQL: sql, Err: err}
	}
	v, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[T])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &QueryError{Op: op, SQL: sql, Err: err}
	}
	return &v, nil
}
