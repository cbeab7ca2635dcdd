package qrcode

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"digital-menu/internal/cache"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCacheTTL = 24 * time.Hour
	fetchTimeout    = 5 * time.Second
	maxImageBytes   = 1 << 20
)

var (
	ErrUpstream    = errors.New("qrcode: render service error")
	ErrUnavailable = errors.New("qrcode: render service unavailable")
)

// HTTPDoer 由 *http.Client 實作
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher 取回 QR 圖片：先查 Redis，未命中時以 singleflight 合併相同網址的請求，
// 外部呼叫包在熔斷器內，熔斷開啟時直接回傳 ErrUnavailable
type Fetcher struct {
	client HTTPDoer
	cache  cache.Cache
	ttl    time.Duration
	cb     *gobreaker.CircuitBreaker
	sf     singleflight.Group
}

func NewFetcher(client HTTPDoer, c cache.Cache, ttl time.Duration, log zerolog.Logger) *Fetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	st := gobreaker.Settings{
		Name:        "QRRender",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		// 呼叫端取消不算繪圖服務失敗
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &Fetcher{
		client: client,
		cache:  c,
		ttl:    ttl,
		cb:     gobreaker.NewCircuitBreaker(st),
	}
}

func cacheKey(qrURL string) string {
	sum := sha256.Sum256([]byte(qrURL))
	return "qr:" + hex.EncodeToString(sum[:])
}

// Image 回傳 qrURL 的 PNG 內容
func (f *Fetcher) Image(ctx context.Context, qrURL string) ([]byte, error) {
	log := zerolog.Ctx(ctx)
	key := cacheKey(qrURL)

	data, err := f.cache.Get(ctx, key).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		// 快取失效時仍可直接向繪圖服務取圖
		log.Warn().Err(err).Str("key", key).Msg("qr cache read failed")
	}

	// 合併後的抓取不跟隨任何單一呼叫端取消，呼叫端斷線只影響自己
	fctx := context.WithoutCancel(ctx)
	ch := f.sf.DoChan(key, func() (interface{}, error) {
		img, err := f.cb.Execute(func() (interface{}, error) {
			return f.fetch(fctx, qrURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return nil, err
		}
		if err := f.cache.Set(fctx, key, img, f.ttl).Err(); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("qr cache write failed")
		}
		return img, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Prefetch 預先把圖片放進快取，給背景 worker 使用
func (f *Fetcher) Prefetch(ctx context.Context, qrURL string) error {
	_, err := f.Image(ctx, qrURL)
	return err
}

func (f *Fetcher) fetch(ctx context.Context, qrURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, qrURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(body) > maxImageBytes {
		return nil, fmt.Errorf("%w: image larger than %d bytes", ErrUpstream, maxImageBytes)
	}
	return body, nil
}
