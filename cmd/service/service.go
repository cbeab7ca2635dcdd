// @title        Digital Menu API
// @version      1.0
// @description  數位菜單與餐廳後台 API 文件
// @host         localhost:8080
// @BasePath     /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digital-menu/internal/cache"
	"digital-menu/internal/config"
	"digital-menu/internal/database"
	"digital-menu/internal/handler/auth"
	"digital-menu/internal/handler/tables"
	"digital-menu/internal/logger"
	appmw "digital-menu/internal/middleware"
	"digital-menu/internal/qrcode"
	"digital-menu/internal/router"
	"digital-menu/internal/service"
	"digital-menu/internal/wishlist"
	"digital-menu/internal/worker"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	_ "digital-menu/docs" // 引入 swag 產出的 docs
)

const (
	qrClientTimeout = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var (
	loadConfig = config.Load
	newPgxPool = func(ctx context.Context, cfg database.PoolConfig, log zerolog.Logger) (database.DB, error) {
		pool, err := database.NewPgxPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return pool, nil
	}
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	rollbackAllFn   = database.RollbackAll
	newWorkerPool   = worker.NewPool
	startServer     = serve
	exitFunc        = os.Exit
)

// serve 啟動 HTTP 服務，收到 SIGINT / SIGTERM 後優雅關閉
func serve(e *echo.Echo, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// corsConfig 只對明確列出的來源允許帶 cookie，含 "*" 時不送 Allow-Credentials
func corsConfig(origins []string) middleware.CORSConfig {
	cc := middleware.CORSConfig{AllowOrigins: origins, AllowCredentials: true}
	for _, o := range origins {
		if o == "*" {
			cc.AllowCredentials = false
			break
		}
	}
	return cc
}

func run(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("載入設定失敗: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	// migrate-down 只退回 schema，不啟動服務
	if len(args) > 0 && args[0] == "migrate-down" {
		if err := rollbackAllFn(cfg.DB.URL); err != nil {
			return fmt.Errorf("Rollback 執行失敗: %w", err)
		}
		log.Warn().Msg("all migrations rolled back")
		return nil
	}

	db, err := newPgxPool(context.Background(), database.PoolConfig{
		URL:             cfg.DB.URL,
		MaxConns:        cfg.DB.MaxConns,
		MaxConnIdleTime: cfg.DB.MaxConnIdleTime,
		ConnectTimeout:  cfg.DB.ConnectTimeout,
		AcquireTimeout:  cfg.DB.AcquireTimeout,
	}, log)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %w", err)
	}
	defer db.Close()

	if err := runMigrationsFn(cfg.DB.URL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %w", err)
	}

	rdb, err := newRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("Redis 連線失敗: %w", err)
	}
	defer rdb.Close()

	wp := newWorkerPool(cfg.Worker.Count, log)
	defer wp.Stop()

	if cfg.Auth.BootstrapEnabled {
		log.Warn().Msg("admin bootstrap via login is enabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.IsDevelopment()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP.CORSOrigins)))
	e.Use(appmw.ContextLogger(log))
	e.Use(appmw.RequestLogger(log))

	router.Setup(e, router.Deps{
		DB:        db,
		Cache:     rdb,
		Sessions:  service.NewSessions(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.Issuer),
		Wishlists: wishlist.New(rdb, cfg.Wishlist.TTL),
		QRFetcher: qrcode.NewFetcher(&http.Client{Timeout: qrClientTimeout}, rdb, cfg.QR.CacheTTL, log),
		Workers:   wp,
		QR: tables.QRConfig{
			RenderURL:     cfg.QR.RenderURL,
			PublicBaseURL: cfg.QR.PublicBaseURL,
		},
		Auth: auth.Options{
			BootstrapEnabled: cfg.Auth.BootstrapEnabled,
			SecureCookie:     !cfg.IsDevelopment(),
		},
		MediaDir: cfg.Media.Dir,
	})

	log.Info().Str("addr", cfg.HTTP.Addr).Msg("http server starting")
	return startServer(e, cfg.HTTP.Addr)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		zlog.Error().Err(err).Msg("service exited")
		exitFunc(1)
	}
}
