package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissing = errors.New("required config missing")

var dotenvLoad = godotenv.Load

// Config 從環境變數讀取，.env 存在時會先載入
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	HTTP     HTTPConfig
	Auth     AuthConfig
	QR       QRConfig
	Wishlist WishlistConfig
	Media    MediaConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Env      string // development, production
	LogLevel string
}

type DBConfig struct {
	URL             string
	MaxConns        int32
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration
	AcquireTimeout  time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

type AuthConfig struct {
	JWTSecret        string
	SessionTTL       time.Duration
	Issuer           string
	BootstrapEnabled bool
}

type QRConfig struct {
	PublicBaseURL string
	RenderURL     string
	CacheTTL      time.Duration
}

type WishlistConfig struct {
	TTL time.Duration
}

type MediaConfig struct {
	Dir string
}

type WorkerConfig struct {
	Count int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "30s")
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")
	v.SetDefault("DB_ACQUIRE_TIMEOUT", "10s")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("JWT_ISSUER", "digital-menu")
	v.SetDefault("AUTH_BOOTSTRAP_ENABLED", true)
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("QR_RENDER_URL", "https://api.qrserver.com/v1/create-qr-code/")
	v.SetDefault("QR_CACHE_TTL", "24h")
	v.SetDefault("WISHLIST_TTL", "720h")
	v.SetDefault("MEDIA_DIR", "./public")
	v.SetDefault("WORKER_COUNT", 2)
}

// Load 讀取設定，DATABASE_URL 與 JWT_SECRET 缺少時回傳 ErrMissing
func Load() (*Config, error) {
	// .env 不存在不是錯誤，已存在的環境變數優先
	_ = dotenvLoad()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxConns:        v.GetInt32("DB_MAX_CONNS"),
			MaxConnIdleTime: v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
			ConnectTimeout:  v.GetDuration("DB_CONNECT_TIMEOUT"),
			AcquireTimeout:  v.GetDuration("DB_ACQUIRE_TIMEOUT"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		HTTP: HTTPConfig{
			Addr:        v.GetString("HTTP_ADDR"),
			CORSOrigins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Auth: AuthConfig{
			JWTSecret:        v.GetString("JWT_SECRET"),
			SessionTTL:       v.GetDuration("SESSION_TTL"),
			Issuer:           v.GetString("JWT_ISSUER"),
			BootstrapEnabled: v.GetBool("AUTH_BOOTSTRAP_ENABLED"),
		},
		QR: QRConfig{
			PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
			RenderURL:     v.GetString("QR_RENDER_URL"),
			CacheTTL:      v.GetDuration("QR_CACHE_TTL"),
		},
		Wishlist: WishlistConfig{TTL: v.GetDuration("WISHLIST_TTL")},
		Media:    MediaConfig{Dir: v.GetString("MEDIA_DIR")},
		Worker:   WorkerConfig{Count: v.GetInt("WORKER_COUNT")},
	}

	// 未設定時只信任前台網址
	if len(cfg.HTTP.CORSOrigins) == 0 {
		cfg.HTTP.CORSOrigins = []string{cfg.QR.PublicBaseURL}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.DB.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	if c.Worker.Count <= 0 {
		return fmt.Errorf("invalid WORKER_COUNT: %d", c.Worker.Count)
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.App.Env == "development" }

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
