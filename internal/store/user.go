package store

import (
	"context"
	"fmt"

	"digital-menu/internal/database"
	"digital-menu/internal/model"

	"github.com/jackc/pgx/v5"
)

var usersTable = database.Table{
	Name:    "users",
	Columns: []string{"email", "name", "password_hash", "role"},
}

const selectUsers = `SELECT id, email, name, password_hash, role, created_at, updated_at
	 FROM users`

func GetUserByID(ctx context.Context, db database.DB, id string) (*model.User, error) {
	u, err := database.QueryRow[model.User](ctx, db, selectUsers+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("GetUserByID: %w", err)
	}
	return u, nil
}

func GetUserByEmail(ctx context.Context, db database.DB, email string) (*model.User, error) {
	u, err := database.QueryRow[model.User](ctx, db, selectUsers+` WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("GetUserByEmail: %w", err)
	}
	return u, nil
}

func ListUsers(ctx context.Context, db database.DB) ([]model.User, error) {
	list, err := database.QueryRows[model.User](ctx, db, selectUsers+` ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	return list, nil
}

func CountUsers(ctx context.Context, db database.DB) (int64, error) {
	res, err := database.Query(ctx, db, `SELECT COUNT(*) FROM users`)
	if err != nil {
		return 0, fmt.Errorf("CountUsers: %w", err)
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) == 0 {
		return 0, fmt.Errorf("CountUsers: empty result")
	}
	n, ok := res.Rows[0][0].(int64)
	if !ok {
		return 0, fmt.Errorf("CountUsers: unexpected type %T", res.Rows[0][0])
	}
	return n, nil
}

func CreateUser(ctx context.Context, db database.DB, u *model.User) (*model.User, error) {
	created, err := database.Insert[model.User](ctx, db, usersTable, userValues(u))
	if err != nil {
		return nil, fmt.Errorf("CreateUser: %w", err)
	}
	return created, nil
}

// UpdateUserPassword 找不到使用者時回傳 nil, nil
func UpdateUserPassword(ctx context.Context, db database.DB, id, passwordHash string) (*model.User, error) {
	u, err := database.Update[model.User](ctx, db, usersTable, id, database.Values{
		"password_hash": passwordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("UpdateUserPassword: %w", err)
	}
	return u, nil
}

func DeleteUser(ctx context.Context, db database.DB, id string) (bool, error) {
	ok, err := database.Remove(ctx, db, usersTable, id)
	if err != nil {
		return false, fmt.Errorf("DeleteUser: %w", err)
	}
	return ok, nil
}

func userValues(u *model.User) database.Values {
	role := u.Role
	if role == "" {
		role = model.RoleUser
	}
	return database.Values{
		"email":         u.Email,
		"name":          u.Name,
		"password_hash": u.PasswordHash,
		"role":          string(role),
	}
}

// bootstrapLockKey 是 pg_advisory_xact_lock 使用的固定 key
const bootstrapLockKey int64 = 0x6d656e75

// LockUsersForBootstrap 取得交易層級的 advisory lock，交易結束時自動釋放
func LockUsersForBootstrap(ctx context.Context, tx pgx.Tx) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, bootstrapLockKey); err != nil {
		return fmt.Errorf("LockUsersForBootstrap: %w", err)
	}
	return nil
}

func CountUsersTx(ctx context.Context, tx pgx.Tx) (int64, error) {
	var n int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("CountUsersTx: %w", err)
	}
	return n, nil
}

func CreateUserTx(ctx context.Context, tx pgx.Tx, u *model.User) (*model.User, error) {
	v := userValues(u)
	rows, err := tx.Query(ctx,
		`INSERT INTO users (email, name, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, email, name, password_hash, role, created_at, updated_at`,
		v["email"], v["name"], v["password_hash"], v["role"],
	)
	if err != nil {
		return nil, fmt.Errorf("CreateUserTx: %w", err)
	}
	created, err := pgx.CollectOneRow(rows, pgx.RowToStructByNameLax[model.User])
	if err != nil {
		return nil, fmt.Errorf("CreateUserTx: %w", err)
	}
	return &created, nil
}
