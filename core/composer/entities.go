package composer

import (
	"Tunebox/core/query"
	"Tunebox/model"
)

// 连接别名
const (
	aliasOwner    = "owner"
	aliasPlaylist = "playlist"
	aliasCategory = "category"
	aliasSongs    = "songs"
)

var (
	ownerJoin = Join{From: model.CollArtists, LocalField: "userId", ForeignField: "_id", As: aliasOwner, Required: true}
	songsJoin = Join{From: model.CollSongs, LocalField: "_id", ForeignField: "playlistId", As: aliasSongs, Many: true}

	playlistBase = []query.Field{
		query.From("id", "_id"),
		query.From("name", "name"),
		query.From("slug", "slug"),
		query.From("description", "description"),
		query.From("thumbnail", "thumbnail"),
		query.From("likeCount", "likeCount"),
		query.From("userId", "userId"),
	}

	songBase = []query.Field{
		query.From("id", "_id"),
		query.From("name", "name"),
		query.From("slug", "slug"),
		query.From("singer", "singer"),
		query.From("year", "year"),
		query.From("thumbnail", "thumbnail"),
		query.From("mp3", "mp3"),
		query.From("likeCount", "likeCount"),
		query.From("createdAt", "createdAt"),
	}
)

func fields(groups ...[]query.Field) []query.Field {
	var out []query.Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// ArtistDescriptor 艺人列表只包含普通用户
var ArtistDescriptor = Descriptor{
	Name:        "artist",
	Collection:  model.CollArtists,
	SearchField: "search",
	Base:        []query.Cond{query.Eq("role", model.RoleUser)},
	Projection: []query.Field{
		query.From("id", "_id"),
		query.From("name", "name"),
		query.From("slug", "slug"),
		query.From("artistName", "artistName"),
		query.From("artistNameRef", "artistNameRef"),
		query.From("avatar", "avatar"),
		query.From("description", "description"),
		query.From("likeCount", "likeCount"),
	},
}

// PlaylistDescriptor 歌单：展开所有者，统计歌曲数
var PlaylistDescriptor = Descriptor{
	Name:        "playlist",
	Collection:  model.CollPlaylists,
	SearchField: "search",
	Joins:       []Join{ownerJoin, songsJoin},
	Projection: fields(playlistBase, []query.Field{
		query.From("artistName", "owner.artistName"),
		query.Size("countSong", aliasSongs),
	}),
}

// CategoryBrowseDescriptor 分类浏览：只保留有歌曲的歌单
var CategoryBrowseDescriptor = Descriptor{
	Name:            "categoryBrowse",
	Collection:      model.CollPlaylists,
	SearchField:     "search",
	Joins:           []Join{ownerJoin, songsJoin},
	Projection:      PlaylistDescriptor.Projection,
	RequireChildren: aliasSongs,
}

// CategorySectionDescriptor 分类首页：展开分类，只保留有歌曲的歌单
var CategorySectionDescriptor = Descriptor{
	Name:       "categorySection",
	Collection: model.CollPlaylists,
	Joins: []Join{
		{From: model.CollCategories, LocalField: "categoryId", ForeignField: "_id", As: aliasCategory, Required: true},
		ownerJoin,
		songsJoin,
	},
	Projection: fields(playlistBase, []query.Field{
		query.From("artistName", "owner.artistName"),
		query.Size("countSong", aliasSongs),
		query.From("categoryId", "categoryId"),
		query.From("categoryName", "category.name"),
	}),
	RequireChildren: aliasSongs,
}

// OwnerPlaylistDescriptor “我的歌单”：不连接所有者，展开分类
var OwnerPlaylistDescriptor = Descriptor{
	Name:        "ownerPlaylist",
	Collection:  model.CollPlaylists,
	SearchField: "search",
	Joins: []Join{
		{From: model.CollCategories, LocalField: "categoryId", ForeignField: "_id", As: aliasCategory, Required: true},
		songsJoin,
	},
	Projection: fields(playlistBase, []query.Field{
		query.Size("countSong", aliasSongs),
		query.From("categoryId", "categoryId"),
		query.From("categoryName", "category.name"),
	}),
}

// SongDescriptor 歌曲：展开所有者和歌单
var SongDescriptor = Descriptor{
	Name:        "song",
	Collection:  model.CollSongs,
	SearchField: "search",
	Joins: []Join{
		ownerJoin,
		{From: model.CollPlaylists, LocalField: "playlistId", ForeignField: "_id", As: aliasPlaylist, Required: true},
	},
	Projection: fields(songBase, []query.Field{
		query.From("artistName", "owner.artistName"),
		query.From("playlistName", "playlist.name"),
	}),
}

// PopularSongDescriptor 热门歌曲：歌单必须存在，所有者为左外连接
var PopularSongDescriptor = Descriptor{
	Name:       "popularSong",
	Collection: model.CollSongs,
	Joins: []Join{
		{From: model.CollPlaylists, LocalField: "playlistId", ForeignField: "_id", As: aliasPlaylist, Required: true},
		{From: model.CollArtists, LocalField: "userId", ForeignField: "_id", As: aliasOwner},
	},
	Projection: SongDescriptor.Projection,
}

// Schemas 各集合的字段集合，来自模型的 bson 标签
func Schemas() map[string]query.Schema {
	return map[string]query.Schema{
		model.CollArtists:    query.SchemaOf(model.Artist{}),
		model.CollPlaylists:  query.SchemaOf(model.Playlist{}),
		model.CollSongs:      query.SchemaOf(model.Song{}),
		model.CollCategories: query.SchemaOf(model.Category{}),
		model.CollAccounts:   query.SchemaOf(model.Account{}),
	}
}

// Descriptors 全部描述符
func Descriptors() []*Descriptor {
	return []*Descriptor{
		&ArtistDescriptor,
		&PlaylistDescriptor,
		&CategoryBrowseDescriptor,
		&CategorySectionDescriptor,
		&OwnerPlaylistDescriptor,
		&SongDescriptor,
		&PopularSongDescriptor,
	}
}
