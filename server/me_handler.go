package server

import (
	"context"
	"net/http"

	"Tunebox/core/slug"
	"Tunebox/model"
	"Tunebox/repository"
	"Tunebox/storage"

	"github.com/gorilla/mux"
)

// ========== 请求结构 ==========

type profileForm struct {
	Name        *string `json:"name" validate:"omitnil,min=1"`
	ArtistName  *string `json:"artistName" validate:"omitnil,min=1"`
	Description *string `json:"description"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type playlistForm struct {
	Name        string `json:"name" validate:"required"`
	CategoryID  string `json:"categoryId" validate:"required"`
	Description string `json:"description"`
}

type playlistUpdateForm struct {
	Name        *string `json:"name" validate:"omitnil,min=1"`
	CategoryID  *string `json:"categoryId" validate:"omitnil,min=1"`
	Description *string `json:"description"`
}

type songForm struct {
	Name       string `json:"name" validate:"required"`
	PlaylistID string `json:"playlistId" validate:"required"`
}

type songUpdateForm struct {
	Name *string `json:"name" validate:"omitnil,min=1"`
}

// ========== 个人资料 ==========

// GetMeHandler 当前艺人资料
func (h *Handler) GetMeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newProfile(principalFrom(r.Context())))
}

// UpdateMeHandler 修改资料，新头像上传成功后删除旧头像
func (h *Handler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	me := principalFrom(r.Context())
	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	form := profileForm{
		Name:        formString(r, "name"),
		ArtistName:  formString(r, "artistName"),
		Description: formString(r, "description"),
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
	folder := me.ArtistNameRef
	if form.ArtistName != nil {
		folder = slug.Slug(*form.ArtistName)
	}
	avatar, err := h.uploadAsset(ctx, r, fieldAvatar, folder, storage.FolderAvatar)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	avatarURL, avatarID := assetFields(avatar)
	updated, err := h.artists.UpdateProfile(ctx, me.ID, repository.ProfileUpdate{
		Name:          form.Name,
		ArtistName:    form.ArtistName,
		Description:   form.Description,
		Avatar:        avatarURL,
		AvatarAssetID: avatarID,
	})
	if err != nil {
		logOrphans(err, avatar)
		h.writeError(w, r, err)
		return
	}
	if avatar != nil {
		h.removeAsset(ctx, me.AvatarAssetID)
	}
	h.changed(ctx)

	resp, err := h.profileWithToken(updated)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ChangePasswordHandler 修改密码，所有失败规则一并返回
func (h *Handler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	me := principalFrom(r.Context())
	if err := h.artists.ChangePassword(r.Context(), me.ID, req.OldPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// ========== 我的歌单 ==========

// MyPlaylistsHandler 当前艺人的歌单，附带分类名
func (h *Handler) MyPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.composer.ListOwnerPlaylistsWithCategory(r.Context(), principalFrom(r.Context()).ID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageResponse(page))
}

// MyPlaylistSongsHandler 当前艺人某个歌单内的歌曲
func (h *Handler) MyPlaylistSongsHandler(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	me := principalFrom(r.Context())
	result, err := h.composer.ListSongsInPlaylist(r.Context(), mux.Vars(r)["id"], me.ID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// playlistView 写操作后的歌单视图，附带分类
func (h *Handler) playlistView(ctx context.Context, id string) (*model.PlaylistView, error) {
	view, err := h.composer.GetPlaylist(ctx, id)
	if err != nil {
		return nil, err
	}
	playlist, err := h.playlists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category, err := h.composer.GetCategory(ctx, playlist.CategoryID); err == nil {
		view.CategoryID = &category.ID
		view.CategoryName = &category.Name
	}
	return view, nil
}

// CreatePlaylistHandler 创建歌单
func (h *Handler) CreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	me := principalFrom(r.Context())
	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	form := playlistForm{
		Name:        r.PostForm.Get("name"),
		CategoryID:  r.PostForm.Get("categoryId"),
		Description: r.PostForm.Get("description"),
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
	if _, err := h.composer.GetCategory(ctx, form.CategoryID); err != nil {
		h.writeError(w, r, err)
		return
	}
	thumb, err := h.uploadAsset(ctx, r, fieldThumbnail, me.ArtistNameRef, storage.FolderPlaylist)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	thumbURL, thumbID := assetValues(thumb)
	playlist, err := h.playlists.Create(ctx, me.ID, repository.NewPlaylist{
		Name:             form.Name,
		Description:      form.Description,
		CategoryID:       form.CategoryID,
		Thumbnail:        thumbURL,
		ThumbnailAssetID: thumbID,
	})
	if err != nil {
		logOrphans(err, thumb)
		h.writeError(w, r, err)
		return
	}
	h.changed(ctx)

	view, err := h.playlistView(ctx, playlist.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// UpdatePlaylistHandler 修改歌单，只有所有者可以修改
func (h *Handler) UpdatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	me := principalFrom(r.Context())
	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	form := playlistUpdateForm{
		Name:        formString(r, "name"),
		CategoryID:  formString(r, "categoryId"),
		Description: formString(r, "description"),
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
	id := mux.Vars(r)["id"]
	current, err := h.playlists.GetOwned(ctx, id, me.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if form.CategoryID != nil {
		if _, err := h.composer.GetCategory(ctx, *form.CategoryID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	thumb, err := h.uploadAsset(ctx, r, fieldThumbnail, me.ArtistNameRef, storage.FolderPlaylist)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	thumbURL, thumbID := assetFields(thumb)
	if _, err := h.playlists.Update(ctx, id, me.ID, repository.PlaylistUpdate{
		Name:             form.Name,
		Description:      form.Description,
		CategoryID:       form.CategoryID,
		Thumbnail:        thumbURL,
		ThumbnailAssetID: thumbID,
	}); err != nil {
		logOrphans(err, thumb)
		h.writeError(w, r, err)
		return
	}
	if thumb != nil {
		h.removeAsset(ctx, current.ThumbnailAssetID)
	}
	h.changed(ctx)

	view, err := h.playlistView(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeletePlaylistHandler 删除空歌单及其封面
func (h *Handler) DeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	playlist, err := h.playlists.Delete(ctx, mux.Vars(r)["id"], principalFrom(ctx).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.removeAsset(ctx, playlist.ThumbnailAssetID)
	h.changed(ctx)
	writeJSON(w, http.StatusOK, idResponse{ID: playlist.ID})
}

// ========== 我的歌曲 ==========

// CreateSongHandler 上传歌曲，mp3 必填
func (h *Handler) CreateSongHandler(w http.ResponseWriter, r *http.Request) {
	me := principalFrom(r.Context())
	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	form := songForm{
		Name:       r.PostForm.Get("name"),
		PlaylistID: r.PostForm.Get("playlistId"),
	}
	if err := validateStruct(&form); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !hasFile(r, fieldMp3) {
		h.writeError(w, r, badRequestList([]string{"mp3 is required"}))
		return
	}
	if err := checkUploads(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if _, err := h.playlists.GetOwned(ctx, form.PlaylistID, me.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	thumb, err := h.uploadAsset(ctx, r, fieldThumbnail, me.ArtistNameRef, storage.FolderSongThumbnail)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mp3, err := h.uploadAsset(ctx, r, fieldMp3, me.ArtistNameRef, storage.FolderSongMp3)
	if err != nil {
		logOrphans(err, thumb)
		h.writeError(w, r, err)
		return
	}
	thumbURL, thumbID := assetValues(thumb)
	mp3URL, mp3ID := assetValues(mp3)
	song, err := h.songs.Create(ctx, me, repository.NewSong{
		Name:             form.Name,
		PlaylistID:       form.PlaylistID,
		Thumbnail:        thumbURL,
		ThumbnailAssetID: thumbID,
		Mp3:              mp3URL,
		Mp3AssetID:       mp3ID,
	})
	if err != nil {
		logOrphans(err, thumb, mp3)
		h.writeError(w, r, err)
		return
	}
	h.changed(ctx)

	view, err := h.composer.GetSong(ctx, song.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// UpdateSongHandler 修改歌曲，可替换封面和 mp3
func (h *Handler) UpdateSongHandler(w http.ResponseWriter, r *http.Request) {
	me := principalFrom(r.Context())
	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	form := songUpdateForm{Name: formString(r, "name")}
	if err := validateStruct(&form); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := checkUploads(r); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	id := mux.Vars(r)["id"]
	current, err := h.songs.GetOwned(ctx, id, me.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	thumb, err := h.uploadAsset(ctx, r, fieldThumbnail, me.ArtistNameRef, storage.FolderSongThumbnail)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mp3, err := h.uploadAsset(ctx, r, fieldMp3, me.ArtistNameRef, storage.FolderSongMp3)
	if err != nil {
		logOrphans(err, thumb)
		h.writeError(w, r, err)
		return
	}
	thumbURL, thumbID := assetFields(thumb)
	mp3URL, mp3ID := assetFields(mp3)
	if _, err := h.songs.Update(ctx, id, me.ID, repository.SongUpdate{
		Name:             form.Name,
		Thumbnail:        thumbURL,
		ThumbnailAssetID: thumbID,
		Mp3:              mp3URL,
		Mp3AssetID:       mp3ID,
	}); err != nil {
		logOrphans(err, thumb, mp3)
		h.writeError(w, r, err)
		return
	}
	if thumb != nil {
		h.removeAsset(ctx, current.ThumbnailAssetID)
	}
	if mp3 != nil {
		h.removeAsset(ctx, current.Mp3AssetID)
	}
	h.changed(ctx)

	view, err := h.composer.GetSong(ctx, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteSongHandler 删除歌曲及其媒体文件
func (h *Handler) DeleteSongHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	song, err := h.songs.Delete(ctx, mux.Vars(r)["id"], principalFrom(ctx).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.removeAsset(ctx, song.ThumbnailAssetID)
	h.removeAsset(ctx, song.Mp3AssetID)
	h.changed(ctx)
	writeJSON(w, http.StatusOK, idResponse{ID: song.ID})
}
