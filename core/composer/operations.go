package composer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Tunebox/core/query"
	"Tunebox/db"
	"Tunebox/model"
)

// ========== 通用列表 ==========

// ListArtists 艺人分页列表
func (c *Composer) ListArtists(ctx context.Context, req Request) (*Page[model.ArtistView], error) {
	return list[model.ArtistView](ctx, c, "list", &ArtistDescriptor, nil, req)
}

// ListPlaylists 歌单分页列表，所有者缺失的歌单被丢弃
func (c *Composer) ListPlaylists(ctx context.Context, req Request) (*Page[model.PlaylistView], error) {
	return list[model.PlaylistView](ctx, c, "list", &PlaylistDescriptor, nil, req)
}

// ListSongs 歌曲分页列表
func (c *Composer) ListSongs(ctx context.Context, req Request) (*Page[model.SongView], error) {
	return list[model.SongView](ctx, c, "list", &SongDescriptor, nil, req)
}

// ========== 按关系列表 ==========

// ListPlaylistsByOwner 某艺人的歌单；艺人不存在时返回空页
func (c *Composer) ListPlaylistsByOwner(ctx context.Context, ownerID string, req Request) (*Page[model.PlaylistView], error) {
	ok, err := c.exists(ctx, model.CollArtists, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return emptyPage[model.PlaylistView](), nil
	}
	return list[model.PlaylistView](ctx, c, "byOwner", &PlaylistDescriptor, []query.Cond{query.Eq("userId", ownerID)}, req)
}

// ListOwnerPlaylistsWithCategory 当前用户的歌单，附带分类名；分类缺失的歌单被丢弃
func (c *Composer) ListOwnerPlaylistsWithCategory(ctx context.Context, ownerID string, req Request) (*Page[model.PlaylistView], error) {
	if !validID(ownerID) {
		return emptyPage[model.PlaylistView](), nil
	}
	return list[model.PlaylistView](ctx, c, "mine", &OwnerPlaylistDescriptor, []query.Cond{query.Eq("userId", ownerID)}, req)
}

// CategoryPage 分类浏览结果
type CategoryPage struct {
	Category   model.Category       `json:"category"`
	Playlists  []model.PlaylistView `json:"playlists"`
	Pagination Pagination           `json:"pagination"`
}

// BrowseCategory 分类下有歌曲的歌单。分类必须存在
func (c *Composer) BrowseCategory(ctx context.Context, categoryID string, req Request) (*CategoryPage, error) {
	category, err := c.GetCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	page, err := list[model.PlaylistView](ctx, c, "browse", &CategoryBrowseDescriptor,
		[]query.Cond{query.Eq("categoryId", category.ID)}, req)
	if err != nil {
		return nil, err
	}
	return &CategoryPage{Category: *category, Playlists: page.Items, Pagination: page.Pagination}, nil
}

// PlaylistSongs 歌单及其歌曲
type PlaylistSongs struct {
	Playlist   *model.PlaylistView `json:"playlist"`
	Songs      []model.SongView    `json:"songs"`
	Pagination Pagination          `json:"pagination"`
}

// ListSongsInPlaylist 歌单内歌曲。ownerID 非空时歌单必须属于该用户；
// 歌单解析不到时返回空结果而不是错误
func (c *Composer) ListSongsInPlaylist(ctx context.Context, playlistID, ownerID string, req Request) (*PlaylistSongs, error) {
	empty := &PlaylistSongs{Songs: []model.SongView{}, Pagination: Pagination{Page: 1}}
	if !validID(playlistID) {
		return empty, nil
	}
	scope := []query.Cond{query.Eq("_id", playlistID)}
	if ownerID != "" {
		scope = append(scope, query.Eq("userId", ownerID))
	}
	playlist, err := fetch[model.PlaylistView](ctx, c, &PlaylistDescriptor, scope)
	if errors.Is(err, ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return nil, err
	}

	page, err := list[model.SongView](ctx, c, "byPlaylist", &SongDescriptor, []query.Cond{query.Eq("playlistId", playlistID)}, req)
	if err != nil {
		return nil, err
	}
	return &PlaylistSongs{Playlist: playlist, Songs: page.Items, Pagination: page.Pagination}, nil
}

// PopularSongsLimit 热门歌曲默认条数
const PopularSongsLimit = 10

// PopularSongsByOwner 某艺人最热门的歌曲
func (c *Composer) PopularSongsByOwner(ctx context.Context, ownerID string, limit int) (items []model.SongView, err error) {
	d := &PopularSongDescriptor
	defer observe(d.Name, "popular", time.Now(), &err)
	if !validID(ownerID) {
		return []model.SongView{}, nil
	}
	if limit <= 0 {
		limit = PopularSongsLimit
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	keys := []query.SortKey{query.Desc("likeCount"), query.Desc("createdAt"), query.Desc("name"), query.Asc("id")}
	items = []model.SongView{}
	p := d.shaped([]query.Cond{query.Eq("userId", ownerID)}, keys, 0, int64(limit))
	if err := c.store.Aggregate(ctx, d.Collection, p, &items); err != nil {
		return nil, fmt.Errorf("%s popular: %w", d.Name, err)
	}
	if items == nil {
		items = []model.SongView{}
	}
	return items, nil
}

// CategorySections 按分类分组的歌单，只含有歌曲的歌单，分类按名称排序
func (c *Composer) CategorySections(ctx context.Context, search string) (sections []model.CategorySection, err error) {
	d := &CategorySectionDescriptor
	defer observe(d.Name, "sections", time.Now(), &err)
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var categories []model.Category
	if err := c.store.Find(ctx, model.CollCategories, nil, []query.SortKey{query.Asc("name"), query.Asc("_id")}, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var conds []query.Cond
	if search != "" {
		conds = append(conds, query.Contains("search", search))
	}
	var playlists []model.PlaylistView
	if err := c.store.Aggregate(ctx, d.Collection, d.shaped(conds, SortByName.keys(), 0, 0), &playlists); err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}

	grouped := make(map[string][]model.PlaylistView)
	for _, p := range playlists {
		if p.CategoryID != nil {
			grouped[*p.CategoryID] = append(grouped[*p.CategoryID], p)
		}
	}
	sections = []model.CategorySection{}
	for _, cat := range categories {
		if items := grouped[cat.ID]; len(items) > 0 {
			sections = append(sections, model.CategorySection{ID: cat.ID, Name: cat.Name, Playlists: items})
		}
	}
	return sections, nil
}

// ========== 按 ID 获取 ==========

func getByID[T any](ctx context.Context, c *Composer, d *Descriptor, id string) (*T, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}
	return fetch[T](ctx, c, d, []query.Cond{query.Eq("_id", id)})
}

// GetArtist 按 ID 获取艺人
func (c *Composer) GetArtist(ctx context.Context, id string) (*model.ArtistView, error) {
	return getByID[model.ArtistView](ctx, c, &ArtistDescriptor, id)
}

// GetPlaylist 按 ID 获取歌单
func (c *Composer) GetPlaylist(ctx context.Context, id string) (*model.PlaylistView, error) {
	return getByID[model.PlaylistView](ctx, c, &PlaylistDescriptor, id)
}

// GetSong 按 ID 获取歌曲
func (c *Composer) GetSong(ctx context.Context, id string) (*model.SongView, error) {
	return getByID[model.SongView](ctx, c, &SongDescriptor, id)
}

// GetCategory 按 ID 获取分类
func (c *Composer) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	if !validID(id) {
		return nil, ErrInvalidID
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	var category model.Category
	err := c.store.FindByID(ctx, model.CollCategories, id, &category)
	if errors.Is(err, db.ErrNoDocument) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// ListCategories 全部分类，按名称升序
func (c *Composer) ListCategories(ctx context.Context) ([]model.Category, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	categories := []model.Category{}
	if err := c.store.Find(ctx, model.CollCategories, nil, []query.SortKey{query.Asc("name"), query.Asc("_id")}, &categories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}
