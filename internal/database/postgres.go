package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxConns        int32 = 10
	DefaultMaxConnIdleTime       = 30 * time.Second
	DefaultConnectTimeout        = 10 * time.Second
	DefaultAcquireTimeout        = 10 * time.Second
)

var pgxpoolNewWithConfig = pgxpool.NewWithConfig

// PoolConfig 連線池設定，零值欄位會套用預設值
type PoolConfig struct {
	URL             string
	MaxConns        int32
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
	AcquireTimeout  time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	if c.MaxConnIdleTime <= 0 {
		c.MaxConnIdleTime = DefaultMaxConnIdleTime
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	return c
}

// Pool 包裝 pgxpool，Acquire 會套用等待上限並區分逾時原因
type Pool struct {
	pool           *pgxpool.Pool
	acquireTimeout time.Duration
}

var _ DB = (*Pool)(nil)

// NewPgxPool 建立連線池並以 Ping 檢查初始連線，結果寫入 log
func NewPgxPool(ctx context.Context, cfg PoolConfig, log zerolog.Logger) (*Pool, error) {
	cfg = cfg.withDefaults()

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = time.Minute
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	// NUMERIC <-> shopspring/decimal
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpoolNewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.Error().Err(err).Msg("database connection failed")
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	log.Info().
		Int32("max_conns", cfg.MaxConns).
		Dur("max_conn_idle_time", cfg.MaxConnIdleTime).
		Dur("acquire_timeout", cfg.AcquireTimeout).
		Msg("database connection successful")

	return &Pool{pool: pool, acquireTimeout: cfg.AcquireTimeout}, nil
}

func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	actx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.pool.Acquire(actx)
	if err != nil {
		stat := p.pool.Stat()
		return nil, classifyAcquireError(ctx, err, stat.AcquiredConns() >= stat.MaxConns())
	}
	return conn, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Pool) Close() {
	p.pool.Close()
}

// classifyAcquireError 只有在自身的等待上限到期時才回傳 ErrPoolExhausted / ErrConnectionTimeout，
// 呼叫端自己取消的 ctx 原樣包裝
func classifyAcquireError(parent context.Context, err error, exhausted bool) error {
	if parent.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err)) {
		if exhausted {
			return fmt.Errorf("%w: %v", ErrPoolExhausted, err)
		}
		return fmt.Errorf("%w: %v", ErrConnectionTimeout, err)
	}
	return fmt.Errorf("acquire connection: %w", err)
}
