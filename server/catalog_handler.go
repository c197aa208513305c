package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// ========== 歌单 ==========

// CategorySectionsHandler 按分类分组的歌单首页
func (h *Handler) CategorySectionsHandler(w http.ResponseWriter, r *http.Request) {
	sections, err := h.composer.CategorySections(r.Context(), strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sections)
}

// ListPlaylistsHandler 歌单分页列表
func (h *Handler) ListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.composer.ListPlaylists(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(page))
}

// PlaylistsByUserHandler 某艺人的歌单
func (h *Handler) PlaylistsByUserHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.composer.ListPlaylistsByOwner(r.Context(), r.URL.Query().Get("userId"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(page))
}

// PlaylistsByCategoryHandler 分类下有歌曲的歌单
func (h *Handler) PlaylistsByCategoryHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.composer.BrowseCategory(r.Context(), r.URL.Query().Get("categoryId"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetPlaylistHandler 歌单详情
func (h *Handler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.composer.GetPlaylist(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// LikePlaylistHandler 点赞歌单
func (h *Handler) LikePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.playlists.Like(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.changed(r.Context())
	writeJSON(w, http.StatusOK, likeResponse{
		CategoryID: playlist.CategoryID,
		ID:         playlist.ID,
		LikeCount:  playlist.LikeCount,
	})
}

// ========== 歌曲 ==========

// ListSongsHandler 歌曲分页列表
func (h *Handler) ListSongsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.composer.ListSongs(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(page))
}

// SongsInPlaylistHandler 歌单内的歌曲
func (h *Handler) SongsInPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.composer.ListSongsInPlaylist(r.Context(), r.URL.Query().Get("playlistId"), "", req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PopularSongsHandler 某艺人的热门歌曲
func (h *Handler) PopularSongsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	songs, err := h.composer.PopularSongsByOwner(r.Context(), r.URL.Query().Get("userId"), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// GetSongHandler 歌曲详情
func (h *Handler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	song, err := h.composer.GetSong(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// LikeSongHandler 点赞歌曲
func (h *Handler) LikeSongHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	count, err := h.songs.Like(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.changed(r.Context())
	writeJSON(w, http.StatusOK, likeResponse{ID: id, LikeCount: count})
}

// ========== 分类 ==========

// ListCategoriesHandler 全部分类
func (h *Handler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.composer.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// GetCategoryHandler 分类详情
func (h *Handler) GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	category, err := h.composer.GetCategory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HealthHandler 检查存储连通性
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
