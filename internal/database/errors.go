package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrPoolExhausted     = errors.New("database: connection pool exhausted")
	ErrConnectionTimeout = errors.New("database: connection timeout")
	ErrEmptyData         = errors.New("database: no columns to write")
	ErrUnknownColumn     = errors.New("database: column not allowed")
)

// QueryError 包裝執行 SQL 時發生的錯誤
type QueryError struct {
	Op  string
	SQL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation 23505
func IsUniqueViolation(err error) bool {
	return pgErrorCode(err) == "23505"
}

// IsForeignKeyViolation 23503
func IsForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == "23503"
}
