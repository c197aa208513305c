package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Tunebox/logger"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerHost 给 MediaHost 加上熔断和超时
type BreakerHost struct {
	inner   MediaHost
	cb      *gobreaker.CircuitBreaker[*Asset]
	timeout time.Duration
}

// NewBreakerHost 包装媒体托管：
// 至少 5 次请求且失败率 >= 60% 时熔断，30 秒后半开，半开状态最多放行 2 个请求
func NewBreakerHost(inner MediaHost, timeout time.Duration) *BreakerHost {
	const name = "media-host"
	BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Asset](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= 0.6
		},
		// 调用方取消不算媒体服务故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Media host circuit breaker state change",
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			BreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
	return &BreakerHost{inner: inner, cb: cb, timeout: timeout}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return -1
}

func (b *BreakerHost) execute(ctx context.Context, operation string, fn func(ctx context.Context) (*Asset, error)) (*Asset, error) {
	start := time.Now()
	asset, err := b.cb.Execute(func() (*Asset, error) {
		callCtx := ctx
		if b.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return fn(callCtx)
	})
	MediaDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		MediaRequests.WithLabelValues(operation, "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		MediaRequests.WithLabelValues(operation, "timeout").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	case err != nil:
		MediaRequests.WithLabelValues(operation, "failure").Inc()
		return nil, err
	}
	MediaRequests.WithLabelValues(operation, "success").Inc()
	return asset, nil
}

// Upload 带熔断的上传
func (b *BreakerHost) Upload(ctx context.Context, ownerFolder, subFolder, localPath string) (*Asset, error) {
	return b.execute(ctx, "upload", func(ctx context.Context) (*Asset, error) {
		return b.inner.Upload(ctx, ownerFolder, subFolder, localPath)
	})
}

// Remove 带熔断的删除
func (b *BreakerHost) Remove(ctx context.Context, assetID string) error {
	_, err := b.execute(ctx, "remove", func(ctx context.Context) (*Asset, error) {
		return nil, b.inner.Remove(ctx, assetID)
	})
	return err
}

// State 当前熔断状态
func (b *BreakerHost) State() gobreaker.State {
	return b.cb.State()
}
