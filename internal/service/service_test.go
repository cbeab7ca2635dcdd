package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"digital-menu/internal/database"
	"digital-menu/internal/model"
	"digital-menu/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func restoreGlobals() {
	passwordCost = PasswordCost
	bcryptGenerateFromPassword = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
	timeNow = time.Now
	getUserByEmail = store.GetUserByEmail
	getUserByID = store.GetUserByID
	countUsers = store.CountUsers
	updateUserPassword = store.UpdateUserPassword
	bootstrapAdmin = BootstrapAdmin
}

// fastHashes 測試中降低 bcrypt cost
func fastHashes(t *testing.T) {
	t.Helper()
	t.Cleanup(restoreGlobals)
	passwordCost = bcrypt.MinCost
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := HashPassword(pw)
	require.NoError(t, err)
	return h
}

/* ---------- password ---------- */

func TestHashPasswordUsesCost12(t *testing.T) {
	t.Cleanup(restoreGlobals)
	hash, err := HashPassword("secret")
	require.NoError(t, err)
	require.NotEqual(t, "secret", hash)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	require.Equal(t, 12, cost)
	require.NoError(t, ComparePassword(hash, "secret"))
	require.Error(t, ComparePassword(hash, "Secret"))

	bcryptGenerateFromPassword = func(_ []byte, _ int) ([]byte, error) {
		return nil, errors.New("gen")
	}
	_, err = HashPassword("secret")
	require.Error(t, err)
}

/* ---------- sessions ---------- */

func TestSessionsRoundTrip(t *testing.T) {
	s := NewSessions("top-secret", time.Hour, "digital-menu")
	tok, exp, err := s.Issue(&model.User{ID: "u1", Role: model.RoleAdmin})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "u1", claims.ID)
	require.True(t, claims.IsAdmin())

	_, err = NewSessions("other-secret", time.Hour, "digital-menu").Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewSessions("top-secret", time.Hour, "someone-else").Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Verify("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionsExpired(t *testing.T) {
	t.Cleanup(restoreGlobals)
	timeNow = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	s := NewSessions("top-secret", time.Hour, "")
	tok, _, err := s.Issue(&model.User{ID: "u1", Role: model.RoleUser})
	require.NoError(t, err)

	_, err = s.Verify(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionsRejectUnknownRole(t *testing.T) {
	s := NewSessions("top-secret", time.Hour, "")
	_, _, err := s.Issue(&model.User{ID: "u1", Role: "owner"})
	require.ErrorIs(t, err, model.ErrUnknownRole)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:   "u1",
		Role: "root",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("top-secret"))
	require.NoError(t, err)
	_, err = s.Verify(forged)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionsRejectOtherAlgorithms(t *testing.T) {
	s := NewSessions("top-secret", time.Hour, "")
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: "u1", Role: model.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = s.Verify(none)
	require.ErrorIs(t, err, ErrInvalidToken)
}

/* ---------- login ---------- */

func TestLoginExistingUser(t *testing.T) {
	fastHashes(t)
	stored := &model.User{ID: "u1", Email: "staff@example.com", PasswordHash: mustHash(t, "right"), Role: model.RoleUser}
	getUserByEmail = func(ctx context.Context, db database.DB, email string) (*model.User, error) {
		return stored, nil
	}
	countUsers = func(context.Context, database.DB) (int64, error) {
		t.Fatal("count must not be called when the user exists")
		return 0, nil
	}

	u, err := Login(context.Background(), &database.FakeDB{}, "staff@example.com", "right", LoginOptions{BootstrapEnabled: true})
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, u.Role)

	_, err = Login(context.Background(), &database.FakeDB{}, "staff@example.com", "wrong", LoginOptions{BootstrapEnabled: true})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailWithExistingUsers(t *testing.T) {
	fastHashes(t)
	getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) { return nil, nil }
	countUsers = func(context.Context, database.DB) (int64, error) { return 1, nil }
	bootstrapAdmin = func(context.Context, database.DB, string, string) (*model.User, error) {
		t.Fatal("bootstrap must not run")
		return nil, nil
	}

	var compared int
	bcryptCompareHashAndPassword = func(hash, pw []byte) error {
		compared++
		require.Equal(t, "pw", string(pw))
		return bcrypt.ErrMismatchedHashAndPassword
	}

	_, err := Login(context.Background(), &database.FakeDB{}, "who@example.com", "pw", LoginOptions{BootstrapEnabled: true})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, 1, compared)

	// 關閉 bootstrap 時同樣要做一次比對
	_, err = Login(context.Background(), &database.FakeDB{}, "who@example.com", "pw", LoginOptions{BootstrapEnabled: false})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, 2, compared)
}

func TestLoginUnknownEmailUsesRealBcryptCost(t *testing.T) {
	t.Cleanup(restoreGlobals)
	getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) { return nil, nil }

	_, err := Login(context.Background(), &database.FakeDB{}, "who@example.com", "pw", LoginOptions{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	cost, err := bcrypt.Cost([]byte(dummyHash))
	require.NoError(t, err)
	require.Equal(t, PasswordCost, cost)
}

func TestLoginBootstrap(t *testing.T) {
	fastHashes(t)
	getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) { return nil, nil }
	countUsers = func(context.Context, database.DB) (int64, error) { return 0, nil }
	bootstrapAdmin = func(ctx context.Context, db database.DB, email, pw string) (*model.User, error) {
		return &model.User{ID: "root", Email: email, Role: model.RoleAdmin}, nil
	}

	u, err := Login(context.Background(), &database.FakeDB{}, "first@example.com", "pw", LoginOptions{BootstrapEnabled: true})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)

	_, err = Login(context.Background(), &database.FakeDB{}, "first@example.com", "pw", LoginOptions{BootstrapEnabled: false})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	bootstrapAdmin = func(context.Context, database.DB, string, string) (*model.User, error) {
		return nil, ErrBootstrapClosed
	}
	_, err = Login(context.Background(), &database.FakeDB{}, "first@example.com", "pw", LoginOptions{BootstrapEnabled: true})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDatabaseFailure(t *testing.T) {
	t.Cleanup(restoreGlobals)
	getUserByEmail = func(context.Context, database.DB, string) (*model.User, error) {
		return nil, database.ErrConnectionTimeout
	}
	_, err := Login(context.Background(), &database.FakeDB{}, "a@b.c", "pw", LoginOptions{BootstrapEnabled: true})
	require.ErrorIs(t, err, database.ErrConnectionTimeout)
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

/* ---------- bootstrap ---------- */

// fakeUsersDB 以 mutex 模擬 pg_advisory_xact_lock，users 放在記憶體
type fakeUsersDB struct {
	lock  sync.Mutex
	mu    sync.Mutex
	users []model.User
}

func (f *fakeUsersDB) db() *database.FakeDB {
	return &database.FakeDB{AcquireFn: func(ctx context.Context) (database.Conn, error) {
		return &database.FakeConn{BeginFn: func(ctx context.Context) (pgx.Tx, error) {
			locked := false
			unlock := func(context.Context) error {
				if locked {
					f.lock.Unlock()
				}
				return nil
			}
			return &database.FakeTx{
				ExecFn: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
					f.lock.Lock()
					locked = true
					return pgconn.NewCommandTag("SELECT 1"), nil
				},
				QueryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
					f.mu.Lock()
					n := int64(len(f.users))
					f.mu.Unlock()
					return database.FakeRow{Rows: &database.FakeRows{Columns: []string{"count"}, Data: [][]any{{n}}}}
				},
				QueryFn: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
					f.mu.Lock()
					defer f.mu.Unlock()
					u := model.User{ID: "u" + string(rune('1'+len(f.users))), Email: args[0].(string), Role: model.Role(args[3].(string))}
					f.users = append(f.users, u)
					now := time.Now()
					return &database.FakeRows{
						Columns: []string{"id", "email", "name", "password_hash", "role", "created_at", "updated_at"},
						Data:    [][]any{{u.ID, u.Email, "", args[2], string(u.Role), now, now}},
					}, nil
				},
				CommitFn:   unlock,
				RollbackFn: unlock,
			}, nil
		}}, nil
	}}
}

func TestBootstrapAdminOnce(t *testing.T) {
	fastHashes(t)
	f := &fakeUsersDB{}

	admin, err := BootstrapAdmin(context.Background(), f.db(), "first@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, admin.Role)
	require.NoError(t, ComparePassword(admin.PasswordHash, "pw"))

	_, err = BootstrapAdmin(context.Background(), f.db(), "second@example.com", "pw")
	require.ErrorIs(t, err, ErrBootstrapClosed)
	require.Len(t, f.users, 1)
}

func TestBootstrapAdminConcurrentFirstLogins(t *testing.T) {
	fastHashes(t)
	f := &fakeUsersDB{}

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		closed  int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := BootstrapAdmin(context.Background(), f.db(), "racer@example.com", "pw")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrBootstrapClosed):
				closed++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, created)
	require.Equal(t, n-1, closed)
	require.Len(t, f.users, 1)
	require.Equal(t, model.RoleAdmin, f.users[0].Role)
}

/* ---------- change password ---------- */

func TestChangePassword(t *testing.T) {
	fastHashes(t)
	stored := &model.User{ID: "u1", PasswordHash: mustHash(t, "old")}
	getUserByID = func(context.Context, database.DB, string) (*model.User, error) { return stored, nil }
	var newHash string
	updateUserPassword = func(ctx context.Context, db database.DB, id, hash string) (*model.User, error) {
		newHash = hash
		return stored, nil
	}

	require.ErrorIs(t, ChangePassword(context.Background(), &database.FakeDB{}, "u1", "wrong", "new"), ErrInvalidCredentials)
	require.Empty(t, newHash)

	require.NoError(t, ChangePassword(context.Background(), &database.FakeDB{}, "u1", "old", "new"))
	require.NoError(t, ComparePassword(newHash, "new"))

	getUserByID = func(context.Context, database.DB, string) (*model.User, error) { return nil, nil }
	require.ErrorIs(t, ChangePassword(context.Background(), &database.FakeDB{}, "u1", "old", "new"), ErrUserNotFound)
}
