// File: internal/service/login.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"digital-menu/internal/database"
	"digital-menu/internal/model"
	"digital-menu/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBootstrapClosed    = errors.New("bootstrap closed: users already exist")
	ErrUserNotFound       = errors.New("user not found")
)

var (
	getUserByEmail     = store.GetUserByEmail
	getUserByID        = store.GetUserByID
	countUsers         = store.CountUsers
	updateUserPassword = store.UpdateUserPassword
	bootstrapAdmin     = BootstrapAdmin
)

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// spendCompare 對不存在的帳號也做一次 cost 相同的 bcrypt 比對，
// 回應時間不因 email 是否存在而不同
func spendCompare(password string) {
	dummyHashOnce.Do(func() {
		if h, err := bcryptGenerateFromPassword([]byte("digital-menu"), PasswordCost); err == nil {
			dummyHash = string(h)
		}
	})
	_ = ComparePassword(dummyHash, password)
}

type LoginOptions struct {
	// 使用者表為空時，第一次登入會建立 admin
	BootstrapEnabled bool
}

// Login 驗證 email / password。
// 找到使用者時比對密碼；找不到且使用者表為空時走 BootstrapAdmin；
// 其他情況一律回傳 ErrInvalidCredentials，不透露是哪個欄位錯誤。
func Login(ctx context.Context, db database.DB, email, password string, opts LoginOptions) (*model.User, error) {
	u, err := getUserByEmail(ctx, db, email)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	if u != nil {
		if err := ComparePassword(u.PasswordHash, password); err != nil {
			return nil, ErrInvalidCredentials
		}
		return u, nil
	}

	if !opts.BootstrapEnabled {
		spendCompare(password)
		return nil, ErrInvalidCredentials
	}
	n, err := countUsers(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	if n > 0 {
		spendCompare(password)
		return nil, ErrInvalidCredentials
	}

	admin, err := bootstrapAdmin(ctx, db, email, password)
	if errors.Is(err, ErrBootstrapClosed) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("Login: %w", err)
	}
	return admin, nil
}

// BootstrapAdmin 在 advisory lock 保護的交易內建立第一個 admin。
// 取得 lock 後重新計算使用者數量，已有使用者時回傳 ErrBootstrapClosed。
func BootstrapAdmin(ctx context.Context, db database.DB, email, password string) (*model.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("BootstrapAdmin: %w", err)
	}

	var admin *model.User
	err = database.WithTx(ctx, db, func(tx pgx.Tx) error {
		if err := store.LockUsersForBootstrap(ctx, tx); err != nil {
			return err
		}
		n, err := store.CountUsersTx(ctx, tx)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrBootstrapClosed
		}
		admin, err = store.CreateUserTx(ctx, tx, &model.User{
			Email:        email,
			PasswordHash: hash,
			Role:         model.RoleAdmin,
		})
		return err
	})
	if errors.Is(err, ErrBootstrapClosed) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("BootstrapAdmin: %w", err)
	}

	zerolog.Ctx(ctx).Warn().
		Str("user_id", admin.ID).
		Str("email", admin.Email).
		Msg("first login on empty users table created an admin account")
	return admin, nil
}

// ChangePassword 驗證舊密碼後更新為新密碼
func ChangePassword(ctx context.Context, db database.DB, userID, oldPassword, newPassword string) error {
	u, err := getUserByID(ctx, db, userID)
	if err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	if u == nil {
		return ErrUserNotFound
	}
	if err := ComparePassword(u.PasswordHash, oldPassword); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	updated, err := updateUserPassword(ctx, db, userID, hash)
	if err != nil {
		return fmt.Errorf("ChangePassword: %w", err)
	}
	if updated == nil {
		return ErrUserNotFound
	}
	return nil
}
