package server

import (
	"context"
	"net/http"
	"time"

	"Tunebox/cache"
	"Tunebox/config"
	"Tunebox/core/auth"
	"Tunebox/core/composer"
	"Tunebox/db"
	"Tunebox/logger"
	"Tunebox/model"
	"Tunebox/repository"
	"Tunebox/storage"
)

// Deps 处理器依赖
type Deps struct {
	Config   *config.Config
	Store    db.Store
	Composer *composer.Composer
	Issuer   *auth.Issuer
	Media    storage.MediaHost
	Cache    *cache.ResponseCache // 可为 nil
}

// Handler 所有 HTTP 接口的处理器
type Handler struct {
	cfg        *config.Config
	store      db.Store
	composer   *composer.Composer
	issuer     *auth.Issuer
	media      storage.MediaHost
	cache      *cache.ResponseCache
	artists    repository.ArtistRepository
	playlists  repository.PlaylistRepository
	songs      repository.SongRepository
	categories repository.CategoryRepository
	accounts   repository.AccountRepository
	likes      *RateLimiter
	logins     *RateLimiter
	proxies    trustedProxies
}

// NewHandler 创建处理器
func NewHandler(d Deps) *Handler {
	perMinute := d.Config.LikeRatePerMinute
	return &Handler{
		cfg:        d.Config,
		store:      d.Store,
		composer:   d.Composer,
		issuer:     d.Issuer,
		media:      d.Media,
		cache:      d.Cache,
		artists:    repository.NewArtistRepository(d.Store),
		playlists:  repository.NewPlaylistRepository(d.Store),
		songs:      repository.NewSongRepository(d.Store),
		categories: repository.NewCategoryRepository(d.Store),
		accounts:   repository.NewAccountRepository(d.Store),
		likes:      NewRateLimiter(perMinute, time.Minute),
		logins:     NewRateLimiter(perMinute, time.Minute),
		proxies:    newTrustedProxies(d.Config.TrustedProxies),
	}
}

// Close 停止限流器的清理协程
func (h *Handler) Close() {
	h.likes.Stop()
	h.logins.Stop()
}

// changed 写操作成功后让响应缓存失效
func (h *Handler) changed(ctx context.Context) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate response cache", logger.ErrorField(err))
	}
}

// cached 公共列表接口走响应缓存
func (h *Handler) cached(fn http.HandlerFunc) http.Handler {
	if h.cache == nil {
		return fn
	}
	return h.cache.Middleware(fn)
}

// profile 艺人资料响应
type profile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	ArtistName    string `json:"artistName"`
	ArtistNameRef string `json:"artistNameRef"`
	Avatar        string `json:"avatar"`
	Description   string `json:"description"`
	LikeCount     int64  `json:"likeCount"`
	Username      string `json:"username"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	Token         string `json:"token,omitempty"`
}

func newProfile(a *model.Artist) profile {
	return profile{
		ID:            a.ID,
		Name:          a.Name,
		Slug:          a.Slug,
		ArtistName:    a.ArtistName,
		ArtistNameRef: a.ArtistNameRef,
		Avatar:        a.Avatar,
		Description:   a.Description,
		LikeCount:     a.LikeCount,
		Username:      a.Username,
		Role:          a.Role,
		Status:        a.Status,
	}
}

// profileWithToken 资料附带新签发的 token
func (h *Handler) profileWithToken(a *model.Artist) (profile, error) {
	p := newProfile(a)
	token, err := h.issuer.Generate(a.ID)
	if err != nil {
		return p, err
	}
	p.Token = token
	return p, nil
}
