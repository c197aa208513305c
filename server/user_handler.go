package server

import (
	"net/http"

	"Tunebox/core/slug"
	"Tunebox/repository"
	"Tunebox/storage"

	"github.com/gorilla/mux"
)

// ========== 请求结构 ==========

type registerForm struct {
	Name        string `json:"name" validate:"required"`
	ArtistName  string `json:"artistName" validate:"required"`
	Description string `json:"description"`
	Username    string `json:"username" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	ID       string `json:"id" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

type idRequest struct {
	ID string `json:"id" validate:"required"`
}

// ========== 公共接口 ==========

// ListArtistsHandler 艺人分页列表
func (h *Handler) ListArtistsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.composer.ListArtists(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(page))
}

// GetArtistHandler 艺人详情
func (h *Handler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	artist, err := h.composer.GetArtist(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

// RegisterHandler 注册艺人，可附带头像
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	form := registerForm{
		Name:        r.PostForm.Get("name"),
		ArtistName:  r.PostForm.Get("artistName"),
		Description: r.PostForm.Get("description"),
		Username:    r.PostForm.Get("username"),
		Password:    r.PostForm.Get("password"),
	}
	if err := validateStruct(&form); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := checkUploads(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	taken, err := h.artists.UsernameTaken(ctx, form.Username)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if taken {
		h.writeError(w, r, repository.ErrUsernameTaken)
		return
	}

	avatar, err := h.uploadAsset(ctx, r, fieldAvatar, slug.Slug(form.ArtistName), storage.FolderAvatar)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	avatarURL, avatarID := assetValues(avatar)
	artist, err := h.artists.Register(ctx, repository.NewArtist{
		Name:          form.Name,
		ArtistName:    form.ArtistName,
		Description:   form.Description,
		Username:      form.Username,
		Password:      form.Password,
		Avatar:        avatarURL,
		AvatarAssetID: avatarID,
	})
	if err != nil {
		logOrphans(err, avatar)
		h.writeError(w, r, err)
		return
	}
	h.changed(ctx)

	resp, err := h.profileWithToken(artist)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// LoginHandler 艺人登录
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	artist, err := h.artists.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resp, err := h.profileWithToken(artist)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// LikeArtistHandler 点赞艺人
func (h *Handler) LikeArtistHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	count, err := h.artists.Like(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.changed(r.Context())
	writeJSON(w, http.StatusOK, likeResponse{ID: id, LikeCount: count})
}

// ========== 管理员接口 ==========

// ListAllArtistsHandler 全部用户，管理员可见
func (h *Handler) ListAllArtistsHandler(w http.ResponseWriter, r *http.Request) {
	artists, err := h.artists.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]profile, 0, len(artists))
	for i := range artists {
		out = append(out, newProfile(&artists[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// ResetPasswordHandler 管理员重置密码
func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.artists.ResetPassword(r.Context(), req.ID, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: req.ID})
}

// ToggleRoleHandler 切换用户角色
func (h *Handler) ToggleRoleHandler(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	artist, err := h.artists.ToggleRole(r.Context(), req.ID, h.cfg.AdminRole)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.changed(r.Context())
	writeJSON(w, http.StatusOK, newProfile(artist))
}

// ToggleStatusHandler 启用或停用用户
func (h *Handler) ToggleStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	artist, err := h.artists.ToggleStatus(r.Context(), req.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newProfile(artist))
}

// DeleteArtistHandler 删除用户及其头像
func (h *Handler) DeleteArtistHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	artist, err := h.artists.Delete(ctx, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.removeAsset(ctx, artist.AvatarAssetID)
	h.changed(ctx)
	writeJSON(w, http.StatusOK, idResponse{ID: artist.ID})
}
