package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter 注册所有接口
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, accessLog)

	// 预检请求：用 MatcherFunc 而不是 Methods，其它方法不会因此被判为 405
	router.MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return r.Method == http.MethodOptions
	}).Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	authed := func(fn http.HandlerFunc) http.Handler { return h.AuthMiddleware(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return h.AuthMiddleware(h.AdminMiddleware(fn)) }
	liked := func(fn http.HandlerFunc) http.Handler { return h.likes.Middleware(h)(authed(fn)) }
	login := func(fn http.HandlerFunc) http.Handler { return h.logins.Middleware(h)(fn) }

	// 用户
	router.Handle("/api/users", admin(h.ListAllArtistsHandler)).Methods(http.MethodGet)
	router.Handle("/api/users", http.HandlerFunc(h.RegisterHandler)).Methods(http.MethodPost)
	router.Handle("/api/users/get", h.cached(h.ListArtistsHandler)).Methods(http.MethodGet)
	router.Handle("/api/users/login", login(h.LoginHandler)).Methods(http.MethodPost)
	router.Handle("/api/users/reset", admin(h.ResetPasswordHandler)).Methods(http.MethodPut)
	router.Handle("/api/users/toggleRole", admin(h.ToggleRoleHandler)).Methods(http.MethodPut)
	router.Handle("/api/users/toggleStatus", admin(h.ToggleStatusHandler)).Methods(http.MethodPut)
	router.Handle("/api/users/like/{id}", liked(h.LikeArtistHandler)).Methods(http.MethodPut)
	router.Handle("/api/users/{id}", h.cached(h.GetArtistHandler)).Methods(http.MethodGet)
	router.Handle("/api/users/{id}", admin(h.DeleteArtistHandler)).Methods(http.MethodDelete)

	// 歌单
	router.Handle("/api/playlists", h.cached(h.CategorySectionsHandler)).Methods(http.MethodGet)
	router.Handle("/api/playlists/get", h.cached(h.ListPlaylistsHandler)).Methods(http.MethodGet)
	router.Handle("/api/playlists/getPlaylistsByUserId", h.cached(h.PlaylistsByUserHandler)).Methods(http.MethodGet)
	router.Handle("/api/playlists/getByCategory", h.cached(h.PlaylistsByCategoryHandler)).Methods(http.MethodGet)
	router.Handle("/api/playlists/like/{id}", liked(h.LikePlaylistHandler)).Methods(http.MethodPut)
	router.Handle("/api/playlists/{id}", h.cached(h.GetPlaylistHandler)).Methods(http.MethodGet)

	// 歌曲
	router.Handle("/api/songs/get", h.cached(h.ListSongsHandler)).Methods(http.MethodGet)
	router.Handle("/api/songs/getSong", h.cached(h.SongsInPlaylistHandler)).Methods(http.MethodGet)
	router.Handle("/api/songs/getPopularSongByUserId", h.cached(h.PopularSongsHandler)).Methods(http.MethodGet)
	router.Handle("/api/songs/like/{id}", liked(h.LikeSongHandler)).Methods(http.MethodPut)
	router.Handle("/api/songs/{id}", h.cached(h.GetSongHandler)).Methods(http.MethodGet)

	// 分类
	router.Handle("/api/categories", h.cached(h.ListCategoriesHandler)).Methods(http.MethodGet)
	router.Handle("/api/categories/{id}", h.cached(h.GetCategoryHandler)).Methods(http.MethodGet)

	// 当前用户
	router.Handle("/api/me", authed(h.GetMeHandler)).Methods(http.MethodGet)
	router.Handle("/api/me", authed(h.UpdateMeHandler)).Methods(http.MethodPut)
	router.Handle("/api/me/changePassword", authed(h.ChangePasswordHandler)).Methods(http.MethodPut)
	router.Handle("/api/me/playlist", authed(h.MyPlaylistsHandler)).Methods(http.MethodGet)
	router.Handle("/api/me/playlist", authed(h.CreatePlaylistHandler)).Methods(http.MethodPost)
	router.Handle("/api/me/playlist/song", authed(h.CreateSongHandler)).Methods(http.MethodPost)
	router.Handle("/api/me/playlist/song/{id}", authed(h.UpdateSongHandler)).Methods(http.MethodPut)
	router.Handle("/api/me/playlist/song/{id}", authed(h.DeleteSongHandler)).Methods(http.MethodDelete)
	router.Handle("/api/me/playlist/{id}/songs", authed(h.MyPlaylistSongsHandler)).Methods(http.MethodGet)
	router.Handle("/api/me/playlist/{id}", authed(h.UpdatePlaylistHandler)).Methods(http.MethodPut)
	router.Handle("/api/me/playlist/{id}", authed(h.DeletePlaylistHandler)).Methods(http.MethodDelete)

	// 后台账号
	router.Handle("/api/accounts", admin(h.ListAccountsHandler)).Methods(http.MethodGet)
	router.Handle("/api/accounts", http.HandlerFunc(h.RegisterAccountHandler)).Methods(http.MethodPost)
	router.Handle("/api/accounts/login", login(h.AccountLoginHandler)).Methods(http.MethodPost)
	router.Handle("/api/accounts/{id}", admin(h.UpdateAccountHandler)).Methods(http.MethodPut)
	router.Handle("/api/accounts/{id}/status", admin(h.ToggleAccountStatusHandler)).Methods(http.MethodPut)
	router.Handle("/api/accounts/{id}/role", admin(h.ChangeAccountRoleHandler)).Methods(http.MethodPut)
	router.Handle("/api/accounts/{id}", admin(h.DeleteAccountHandler)).Methods(http.MethodDelete)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, &apiError{status: http.StatusNotFound, message: "Not found - " + r.URL.Path})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, &apiError{status: http.StatusMethodNotAllowed, message: "Method not allowed - " + r.Method + " " + r.URL.Path})
	})
	return router
}
