package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Tunebox/logger"
	"Tunebox/model"
	"Tunebox/repository"

	"github.com/gorilla/mux"
)

type contextKey string

const principalKey contextKey = "principal"

// principalFrom 取出认证中间件放入的当前艺人
func principalFrom(ctx context.Context) *model.Artist {
	artist, _ := ctx.Value(principalKey).(*model.Artist)
	return artist
}

// corsMiddleware 允许跨域访问
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, X-Cache")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter 记录响应状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// accessLog 记录访问日志和请求指标
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())
		logger.Debug("HTTP request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", sw.status),
			logger.Duration("duration", elapsed))
	})
}

// AuthMiddleware 校验 Bearer token 并加载当前艺人
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.writeError(w, r, &apiError{status: http.StatusUnauthorized, message: "Not authorized, no token"})
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			h.writeError(w, r, &apiError{status: http.StatusUnauthorized, message: "Not authorized, malformed token"})
			return
		}

		userID, err := h.issuer.Parse(parts[1])
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		artist, err := h.artists.GetByID(r.Context(), userID)
		if errors.Is(err, repository.ErrNotFound) {
			h.writeError(w, r, &apiError{status: http.StatusUnauthorized, message: "Not authorized, user not found"})
			return
		}
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !artist.IsActive() {
			h.writeError(w, r, repository.ErrInactive)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, artist)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminMiddleware 要求当前艺人为管理员，需放在 AuthMiddleware 之后
func (h *Handler) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		artist := principalFrom(r.Context())
		if artist == nil || artist.Role != h.cfg.AdminRole {
			h.writeError(w, r, &apiError{status: http.StatusForbidden, message: "Not authorized as an admin"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
