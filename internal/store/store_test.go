package store

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"digital-menu/internal/database"
	"digital-menu/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

/* ---------- 共用工具 ---------- */

var (
	categoryCols = []string{"id", "name", "description", "created_at", "updated_at"}
	menuItemCols = []string{"id", "name", "description", "price", "category_id", "image_url",
		"is_available", "created_at", "updated_at", "category_name"}
	tableQRCols = []string{"id", "table_number", "capacity", "location", "qr_code_url", "is_active", "created_at", "updated_at"}
	userCols    = []string{"id", "email", "name", "password_hash", "role", "created_at", "updated_at"}
)

type call struct {
	sql  string
	args []any
}

// recordingConn 記錄每次 Query 的 SQL，並依序回傳預先準備的 rows
func recordingConn(results ...*database.FakeRows) (*database.FakeConn, *[]call) {
	calls := &[]call{}
	i := 0
	conn := &database.FakeConn{
		QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			*calls = append(*calls, call{sql: sql, args: args})
			r := results[i]
			i++
			return r, nil
		},
	}
	return conn, calls
}

func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

func ptr[T any](v T) *T { return &v }

/* ---------- Category ---------- */

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Second)

	conn, calls := recordingConn(
		&database.FakeRows{Columns: categoryCols, Data: [][]any{{"c1", "Desserts", "Sweet treats", created, created}}},
		&database.FakeRows{Columns: categoryCols, Data: [][]any{{"c1", "Sweets", "Sweet treats", created, updated}}},
		&database.FakeRows{Columns: categoryCols, Data: [][]any{{"c1", "Sweets", "Sweet treats", created, updated}}},
		&database.FakeRows{Columns: categoryCols, Data: [][]any{{"c1", "Sweets", "Sweet treats", created, updated}}},
	)
	db := database.WithConn(conn)

	c, err := CreateCategory(ctx, db, &model.Category{Name: "Desserts", Description: ptr("Sweet treats")})
	require.NoError(t, err)
	require.Equal(t, "c1", c.ID)
	require.Equal(t, "INSERT INTO categories (description, name) VALUES ($1, $2) RETURNING *", (*calls)[0].sql)

	u, err := UpdateCategory(ctx, db, "c1", CategoryPatch{Name: ptr("Sweets")})
	require.NoError(t, err)
	require.Equal(t, "Sweets", u.Name)
	require.Equal(t, "Sweet treats", *u.Description)
	require.True(t, u.UpdatedAt.After(u.CreatedAt))
	require.Equal(t, "UPDATE categories SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING *", (*calls)[1].sql)
	require.Equal(t, []any{"Sweets", "c1"}, (*calls)[1].args)

	got, err := GetCategory(ctx, db, "c1")
	require.NoError(t, err)
	require.Equal(t, u, got)

	list, err := ListCategories(ctx, db)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Contains(t, squash((*calls)[3].sql), "ORDER BY name")
	require.Equal(t, 4, conn.Released)
}

func TestUpdateCategoryEmptyPatch(t *testing.T) {
	_, err := UpdateCategory(context.Background(), &database.FakeDB{}, "c1", CategoryPatch{})
	require.ErrorIs(t, err, database.ErrEmptyData)
}

func TestGetCategoryNotFound(t *testing.T) {
	conn, _ := recordingConn(&database.FakeRows{Columns: categoryCols})
	c, err := GetCategory(context.Background(), database.WithConn(conn), "missing")
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestDeleteCategoryReferenced(t *testing.T) {
	conn := &database.FakeConn{ExecFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		return pgconn.CommandTag{}, &pgconn.PgError{Code: "23503"}
	}}
	ok, err := DeleteCategory(context.Background(), database.WithConn(conn), "c1")
	require.False(t, ok)
	require.Error(t, err)
	require.True(t, database.IsForeignKeyViolation(err))
}

func TestDeleteCategory(t *testing.T) {
	var tags = []string{"DELETE 1", "DELETE 0"}
	conn := &database.FakeConn{ExecFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
		tag := tags[0]
		tags = tags[1:]
		return pgconn.NewCommandTag(tag), nil
	}}
	db := database.WithConn(conn)

	ok, err := DeleteCategory(context.Background(), db, "c1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = DeleteCategory(context.Background(), db, "c1")
	require.NoError(t, err)
	require.False(t, ok)
}

/* ---------- MenuItem ---------- */

func TestMenuItemQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	row := []any{"m1", "Cake", "Chocolate", decimal.RequireFromString("5.50"), "c1", nil, true, now, now, "Desserts"}

	conn, calls := recordingConn(
		&database.FakeRows{Columns: menuItemCols, Data: [][]any{row}},
		&database.FakeRows{Columns: menuItemCols, Data: [][]any{row}},
		&database.FakeRows{Columns: menuItemCols, Data: [][]any{row}},
	)
	db := database.WithConn(conn)

	all, err := ListMenuItems(ctx, db)
	require.NoError(t, err)
	require.Equal(t, "Desserts", all[0].CategoryName)
	require.True(t, decimal.RequireFromString("5.5").Equal(all[0].Price))
	require.Nil(t, all[0].ImageURL)
	require.Contains(t, squash((*calls)[0].sql), "JOIN categories c ON m.category_id = c.id ORDER BY c.name, m.name")

	_, err = ListAvailableMenuItems(ctx, db)
	require.NoError(t, err)
	require.Contains(t, squash((*calls)[1].sql), "WHERE m.is_available")

	item, err := GetMenuItem(ctx, db, "m1")
	require.NoError(t, err)
	require.Equal(t, "m1", item.ID)
	require.Equal(t, []any{"m1"}, (*calls)[2].args)
}

func TestCreateAndUpdateMenuItem(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	insertCols := menuItemCols[:len(menuItemCols)-1]
	conn, calls := recordingConn(
		&database.FakeRows{Columns: insertCols, Data: [][]any{{"m1", "Cake", "", decimal.NewFromInt(5), "c1", nil, true, now, now}}},
		&database.FakeRows{Columns: insertCols, Data: [][]any{{"m1", "Cake", "", decimal.NewFromInt(7), "c1", nil, false, now, now.Add(time.Second)}}},
	)
	db := database.WithConn(conn)

	_, err := CreateMenuItem(ctx, db, &model.MenuItem{Name: "Cake", Price: decimal.NewFromInt(5), CategoryID: "c1", IsAvailable: true})
	require.NoError(t, err)
	require.Equal(t,
		"INSERT INTO menu_items (category_id, description, image_url, is_available, name, price) VALUES ($1, $2, $3, $4, $5, $6) RETURNING *",
		(*calls)[0].sql)

	updated, err := UpdateMenuItem(ctx, db, "m1", MenuItemPatch{Price: ptr(decimal.NewFromInt(7)), IsAvailable: ptr(false)})
	require.NoError(t, err)
	require.False(t, updated.IsAvailable)
	require.Equal(t, "UPDATE menu_items SET is_available = $1, price = $2, updated_at = NOW() WHERE id = $3 RETURNING *", (*calls)[1].sql)
}

func TestCreateMenuItemMissingCategory(t *testing.T) {
	conn := &database.FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return nil, &pgconn.PgError{Code: "23503"}
	}}
	_, err := CreateMenuItem(context.Background(), database.WithConn(conn), &model.MenuItem{Name: "x", CategoryID: "nope"})
	require.True(t, database.IsForeignKeyViolation(err))
}

/* ---------- TableQR ---------- */

func TestTableQRQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	row := []any{"t1", 7, 4, "Patio", "https://qr/7", true, now, now}
	conn, calls := recordingConn(
		&database.FakeRows{Columns: tableQRCols, Data: [][]any{row}},
		&database.FakeRows{Columns: tableQRCols, Data: [][]any{row}},
		&database.FakeRows{Columns: tableQRCols, Data: [][]any{row}},
		&database.FakeRows{Columns: tableQRCols, Data: [][]any{row}},
	)
	db := database.WithConn(conn)

	list, err := ListTableQRs(ctx, db)
	require.NoError(t, err)
	require.Equal(t, 7, list[0].TableNumber)
	require.Equal(t, 4, *list[0].Capacity)
	require.Contains(t, (*calls)[0].sql, "ORDER BY table_number")

	byNumber, err := GetTableQRByNumber(ctx, db, 7)
	require.NoError(t, err)
	require.Equal(t, "t1", byNumber.ID)
	require.Equal(t, []any{7}, (*calls)[1].args)

	created, err := CreateTableQR(ctx, db, &model.TableQR{TableNumber: 7, QRCodeURL: "https://qr/7", IsActive: true})
	require.NoError(t, err)
	require.True(t, created.IsActive)
	require.Equal(t,
		"INSERT INTO table_qrs (capacity, is_active, location, qr_code_url, table_number) VALUES ($1, $2, $3, $4, $5) RETURNING *",
		(*calls)[2].sql)

	_, err = UpdateTableQR(ctx, db, "t1", TableQRPatch{Location: ptr("Patio")})
	require.NoError(t, err)
	require.Equal(t, "UPDATE table_qrs SET location = $1, updated_at = NOW() WHERE id = $2 RETURNING *", (*calls)[3].sql)
}

func TestCreateTableQRDuplicateNumber(t *testing.T) {
	conn := &database.FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return nil, &pgconn.PgError{Code: "23505"}
	}}
	_, err := CreateTableQR(context.Background(), database.WithConn(conn), &model.TableQR{TableNumber: 1})
	require.True(t, database.IsUniqueViolation(err))
}

/* ---------- User ---------- */

func TestUserQueries(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	row := []any{"u1", "alice@example.com", "Alice", "hash", "admin", now, now}
	conn, calls := recordingConn(
		&database.FakeRows{Columns: userCols, Data: [][]any{row}},
		&database.FakeRows{Columns: userCols, Data: [][]any{row}},
		&database.FakeRows{Columns: userCols, Data: [][]any{{"u2", "bob@example.com", "Bob", "hash", "user", now, now}}},
		&database.FakeRows{Columns: userCols, Data: [][]any{row}},
		&database.FakeRows{Columns: []string{"count"}, Data: [][]any{{int64(2)}}},
	)
	db := database.WithConn(conn)

	u, err := GetUserByEmail(ctx, db, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
	require.Equal(t, "hash", u.PasswordHash)

	u, err = GetUserByID(ctx, db, "u1")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)

	created, err := CreateUser(ctx, db, &model.User{Email: "bob@example.com", Name: "Bob", PasswordHash: "hash"})
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, created.Role)
	require.Equal(t, "INSERT INTO users (email, name, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING *", (*calls)[2].sql)
	require.Equal(t, []any{"bob@example.com", "Bob", "hash", "user"}, (*calls)[2].args)

	_, err = UpdateUserPassword(ctx, db, "u1", "newhash")
	require.NoError(t, err)
	require.Equal(t, "UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2 RETURNING *", (*calls)[3].sql)

	n, err := CountUsers(ctx, db)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestUserLookupErrors(t *testing.T) {
	conn := &database.FakeConn{QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
		return nil, errors.New("db down")
	}}
	db := database.WithConn(conn)

	_, err := GetUserByEmail(context.Background(), db, "a@b.c")
	require.ErrorContains(t, err, "GetUserByEmail")
	_, err = CountUsers(context.Background(), db)
	require.ErrorContains(t, err, "db down")
}

func TestBootstrapTxHelpers(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	var execSQL string
	tx := &database.FakeTx{
		ExecFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			execSQL = sql
			return pgconn.NewCommandTag("SELECT 1"), nil
		},
		QueryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return database.FakeRow{Rows: &database.FakeRows{Columns: []string{"count"}, Data: [][]any{{int64(0)}}}}
		},
		QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Equal(t, []any{"root@example.com", "", "hash", "admin"}, args)
			return &database.FakeRows{Columns: userCols, Data: [][]any{{"u1", "root@example.com", "", "hash", "admin", now, now}}}, nil
		},
	}

	require.NoError(t, LockUsersForBootstrap(ctx, tx))
	require.Contains(t, execSQL, "pg_advisory_xact_lock")

	n, err := CountUsersTx(ctx, tx)
	require.NoError(t, err)
	require.Zero(t, n)

	u, err := CreateUserTx(ctx, tx, &model.User{Email: "root@example.com", PasswordHash: "hash", Role: model.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
}
