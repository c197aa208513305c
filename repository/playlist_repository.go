package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Tunebox/core/query"
	"Tunebox/core/slug"
	"Tunebox/db"
	"Tunebox/model"

	"github.com/google/uuid"
)

// NewPlaylist 创建歌单参数
type NewPlaylist struct {
	Name             string
	Description      string
	CategoryID       string
	Thumbnail        string
	ThumbnailAssetID string
}

// PlaylistUpdate 歌单修改，nil 字段保持不变
type PlaylistUpdate struct {
	Name             *string
	Description      *string
	CategoryID       *string
	Thumbnail        *string
	ThumbnailAssetID *string
}

// PlaylistRepository 歌单数据访问接口
type PlaylistRepository interface {
	Create(ctx context.Context, ownerID string, in NewPlaylist) (*model.Playlist, error)
	GetByID(ctx context.Context, id string) (*model.Playlist, error)
	// GetOwned 获取歌单并校验归属
	GetOwned(ctx context.Context, id, ownerID string) (*model.Playlist, error)
	Update(ctx context.Context, id, ownerID string, in PlaylistUpdate) (*model.Playlist, error)
	Delete(ctx context.Context, id, ownerID string) (*model.Playlist, error)
	Like(ctx context.Context, id string) (*model.Playlist, error)
}

type storePlaylistRepository struct {
	store db.Store
	now   clock
}

// NewPlaylistRepository 创建歌单仓库
func NewPlaylistRepository(store db.Store) PlaylistRepository {
	return &storePlaylistRepository{store: store, now: time.Now}
}

func (r *storePlaylistRepository) requireCategory(ctx context.Context, id string) error {
	n, err := r.store.Count(ctx, model.CollCategories, []query.Cond{query.Eq("_id", id)})
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return nil
}

// Create 创建歌单，分类必须存在
func (r *storePlaylistRepository) Create(ctx context.Context, ownerID string, in NewPlaylist) (*model.Playlist, error) {
	if err := r.requireCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	now := r.now()
	playlist := &model.Playlist{
		ID:               uuid.NewString(),
		Name:             in.Name,
		Slug:             slug.Slug(in.Name),
		Search:           slug.SearchKey(in.Name),
		Description:      in.Description,
		Thumbnail:        in.Thumbnail,
		ThumbnailAssetID: in.ThumbnailAssetID,
		UserID:           ownerID,
		CategoryID:       in.CategoryID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := r.store.Insert(ctx, model.CollPlaylists, playlist); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	return playlist, nil
}

// GetByID 根据ID获取歌单
func (r *storePlaylistRepository) GetByID(ctx context.Context, id string) (*model.Playlist, error) {
	var playlist model.Playlist
	if err := r.store.FindByID(ctx, model.CollPlaylists, id, &playlist); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return &playlist, nil
}

func (r *storePlaylistRepository) GetOwned(ctx context.Context, id, ownerID string) (*model.Playlist, error) {
	playlist, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist.UserID != ownerID {
		return nil, ErrForbidden
	}
	return playlist, nil
}

// Update 修改歌单，名称变化时同步 slug 和搜索键
func (r *storePlaylistRepository) Update(ctx context.Context, id, ownerID string, in PlaylistUpdate) (*model.Playlist, error) {
	if _, err := r.GetOwned(ctx, id, ownerID); err != nil {
		return nil, err
	}
	fields := map[string]any{"updatedAt": r.now()}
	if in.Name != nil {
		fields["name"] = *in.Name
		fields["slug"] = slug.Slug(*in.Name)
		fields["search"] = slug.SearchKey(*in.Name)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.CategoryID != nil {
		if err := r.requireCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		fields["categoryId"] = *in.CategoryID
	}
	if in.Thumbnail != nil {
		fields["thumbnail"] = *in.Thumbnail
	}
	if in.ThumbnailAssetID != nil {
		fields["thumbnailAssetId"] = *in.ThumbnailAssetID
	}
	if err := r.store.Update(ctx, model.CollPlaylists, id, fields); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update playlist: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete 删除歌单，歌单内仍有歌曲时拒绝
func (r *storePlaylistRepository) Delete(ctx context.Context, id, ownerID string) (*model.Playlist, error) {
	playlist, err := r.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	songs, err := r.store.Count(ctx, model.CollSongs, []query.Cond{query.Eq("playlistId", id)})
	if err != nil {
		return nil, fmt.Errorf("failed to count songs: %w", err)
	}
	if songs > 0 {
		return nil, ErrPlaylistNotEmpty
	}
	if err := r.store.Delete(ctx, model.CollPlaylists, id); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete playlist: %w", err)
	}
	return playlist, nil
}

// Like 点赞，返回更新后的歌单
func (r *storePlaylistRepository) Like(ctx context.Context, id string) (*model.Playlist, error) {
	n, err := r.store.Increment(ctx, model.CollPlaylists, id, "likeCount", 1)
	if errors.Is(err, db.ErrNoDocument) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to like playlist: %w", err)
	}
	playlist, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	playlist.LikeCount = n
	return playlist, nil
}
