package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"Tunebox/logger"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrMiss 键不存在
var ErrMiss = errors.New("cache miss")

// Backend 缓存存储
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

var (
	lookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "response_cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// entry 缓存的响应
type entry struct {
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// ResponseCache 公共列表接口的响应缓存。
// 键包含一个代数，任何成功的写操作都会让代数加一，旧键随 TTL 过期
type ResponseCache struct {
	backend Backend
	ttl     time.Duration
	prefix  string
}

// NewResponseCache 创建响应缓存
func NewResponseCache(backend Backend, ttl time.Duration) *ResponseCache {
	return &ResponseCache{backend: backend, ttl: ttl, prefix: "tunebox:resp"}
}

func (c *ResponseCache) generationKey() string {
	return c.prefix + ":gen"
}

// generation 当前代数，不存在时为 0
func (c *ResponseCache) generation(ctx context.Context) (int64, error) {
	raw, err := c.backend.Get(ctx, c.generationKey())
	if errors.Is(err, ErrMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	gen, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cache generation %q: %w", raw, err)
	}
	return gen, nil
}

// Invalidate 使所有已缓存的响应失效
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	if _, err := c.backend.Incr(ctx, c.generationKey()); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

// key 由代数、路径和规范化后的查询串组成
func (c *ResponseCache) key(gen int64, r *http.Request) string {
	return fmt.Sprintf("%s:%d:%s?%s", c.prefix, gen, r.URL.Path, r.URL.Query().Encode())
}

// Middleware 缓存 GET 请求的 200 响应。缓存后端出错时直接放行
func (c *ResponseCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		gen, err := c.generation(ctx)
		if err != nil {
			lookups.WithLabelValues("error").Inc()
			logger.Warn("Response cache unavailable", logger.ErrorField(err))
			next.ServeHTTP(w, r)
			return
		}
		key := c.key(gen, r)

		if raw, err := c.backend.Get(ctx, key); err == nil {
			var e entry
			if err := json.Unmarshal(raw, &e); err == nil {
				lookups.WithLabelValues("hit").Inc()
				w.Header().Set("Content-Type", e.ContentType)
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				w.Write(e.Body)
				return
			}
		} else if !errors.Is(err, ErrMiss) {
			lookups.WithLabelValues("error").Inc()
			logger.Warn("Response cache read failed", logger.String("key", key), logger.ErrorField(err))
			next.ServeHTTP(w, r)
			return
		}

		lookups.WithLabelValues("miss").Inc()
		rec := &recorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Cache", "MISS")
		next.ServeHTTP(rec, r)
		if rec.status != http.StatusOK {
			return
		}
		raw, err := json.Marshal(entry{ContentType: w.Header().Get("Content-Type"), Body: rec.body.Bytes()})
		if err != nil {
			return
		}
		if err := c.backend.Set(ctx, key, raw, c.ttl); err != nil {
			logger.Warn("Response cache write failed", logger.String("key", key), logger.ErrorField(err))
		}
	})
}

// recorder 透传响应的同时保留一份副本
type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
