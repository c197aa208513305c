package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Tunebox/core/slug"
	"Tunebox/db"
	"Tunebox/model"

	"github.com/google/uuid"
)

// NewSong 上传歌曲参数
type NewSong struct {
	Name             string
	PlaylistID       string
	Thumbnail        string
	ThumbnailAssetID string
	Mp3              string
	Mp3AssetID       string
}

// SongUpdate 歌曲修改，nil 字段保持不变
type SongUpdate struct {
	Name             *string
	Thumbnail        *string
	ThumbnailAssetID *string
	Mp3              *string
	Mp3AssetID       *string
}

// SongRepository 歌曲数据访问接口
type SongRepository interface {
	Create(ctx context.Context, owner *model.Artist, in NewSong) (*model.Song, error)
	GetByID(ctx context.Context, id string) (*model.Song, error)
	GetOwned(ctx context.Context, id, ownerID string) (*model.Song, error)
	Update(ctx context.Context, id, ownerID string, in SongUpdate) (*model.Song, error)
	Delete(ctx context.Context, id, ownerID string) (*model.Song, error)
	Like(ctx context.Context, id string) (int64, error)
}

type storeSongRepository struct {
	store     db.Store
	playlists PlaylistRepository
	now       clock
}

// NewSongRepository 创建歌曲仓库
func NewSongRepository(store db.Store) SongRepository {
	return &storeSongRepository{
		store:     store,
		playlists: NewPlaylistRepository(store),
		now:       time.Now,
	}
}

// Create 上传歌曲，歌单必须属于上传者；年份取当前年，歌手取艺名
func (r *storeSongRepository) Create(ctx context.Context, owner *model.Artist, in NewSong) (*model.Song, error) {
	if _, err := r.playlists.GetOwned(ctx, in.PlaylistID, owner.ID); err != nil {
		return nil, err
	}
	now := r.now()
	song := &model.Song{
		ID:               uuid.NewString(),
		Name:             in.Name,
		Slug:             slug.Slug(in.Name),
		Search:           slug.SearchKey(in.Name),
		Singer:           owner.ArtistName,
		Year:             now.Year(),
		Thumbnail:        in.Thumbnail,
		ThumbnailAssetID: in.ThumbnailAssetID,
		Mp3:              in.Mp3,
		Mp3AssetID:       in.Mp3AssetID,
		UserID:           owner.ID,
		PlaylistID:       in.PlaylistID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := r.store.Insert(ctx, model.CollSongs, song); err != nil {
		return nil, fmt.Errorf("failed to create song: %w", err)
	}
	return song, nil
}

// GetByID 根据ID获取歌曲
func (r *storeSongRepository) GetByID(ctx context.Context, id string) (*model.Song, error) {
	var song model.Song
	if err := r.store.FindByID(ctx, model.CollSongs, id, &song); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return &song, nil
}

func (r *storeSongRepository) GetOwned(ctx context.Context, id, ownerID string) (*model.Song, error) {
	song, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if song.UserID != ownerID {
		return nil, ErrForbidden
	}
	return song, nil
}

func (r *storeSongRepository) Update(ctx context.Context, id, ownerID string, in SongUpdate) (*model.Song, error) {
	if _, err := r.GetOwned(ctx, id, ownerID); err != nil {
		return nil, err
	}
	fields := map[string]any{"updatedAt": r.now()}
	if in.Name != nil {
		fields["name"] = *in.Name
		fields["slug"] = slug.Slug(*in.Name)
		fields["search"] = slug.SearchKey(*in.Name)
	}
	if in.Thumbnail != nil {
		fields["thumbnail"] = *in.Thumbnail
	}
	if in.ThumbnailAssetID != nil {
		fields["thumbnailAssetId"] = *in.ThumbnailAssetID
	}
	if in.Mp3 != nil {
		fields["mp3"] = *in.Mp3
	}
	if in.Mp3AssetID != nil {
		fields["mp3AssetId"] = *in.Mp3AssetID
	}
	if err := r.store.Update(ctx, model.CollSongs, id, fields); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update song: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete 删除歌曲，返回被删除的记录以便清理媒体文件
func (r *storeSongRepository) Delete(ctx context.Context, id, ownerID string) (*model.Song, error) {
	song, err := r.GetOwned(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, model.CollSongs, id); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete song: %w", err)
	}
	return song, nil
}

func (r *storeSongRepository) Like(ctx context.Context, id string) (int64, error) {
	n, err := r.store.Increment(ctx, model.CollSongs, id, "likeCount", 1)
	if errors.Is(err, db.ErrNoDocument) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to like song: %w", err)
	}
	return n, nil
}
