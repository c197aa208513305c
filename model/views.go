package model

import "time"

// Composer 输出的结果形状。通过关联得到的字段为指针，关联不到时省略。

type ArtistView struct {
	ID            string `json:"id" bson:"id" gorm:"column:id"`
	Name          string `json:"name" bson:"name" gorm:"column:name"`
	Slug          string `json:"slug" bson:"slug" gorm:"column:slug"`
	ArtistName    string `json:"artistName" bson:"artistName" gorm:"column:artistName"`
	ArtistNameRef string `json:"artistNameRef" bson:"artistNameRef" gorm:"column:artistNameRef"`
	Avatar        string `json:"avatar" bson:"avatar" gorm:"column:avatar"`
	Description   string `json:"description" bson:"description" gorm:"column:description"`
	LikeCount     int64  `json:"likeCount" bson:"likeCount" gorm:"column:likeCount"`
}

type PlaylistView struct {
	ID           string  `json:"id" bson:"id" gorm:"column:id"`
	Name         string  `json:"name" bson:"name" gorm:"column:name"`
	Slug         string  `json:"slug" bson:"slug" gorm:"column:slug"`
	Description  string  `json:"description" bson:"description" gorm:"column:description"`
	Thumbnail    string  `json:"thumbnail" bson:"thumbnail" gorm:"column:thumbnail"`
	LikeCount    int64   `json:"likeCount" bson:"likeCount" gorm:"column:likeCount"`
	UserID       string  `json:"userId" bson:"userId" gorm:"column:userId"`
	ArtistName   *string `json:"artistName,omitempty" bson:"artistName,omitempty" gorm:"column:artistName"`
	CountSong    int64   `json:"countSong" bson:"countSong" gorm:"column:countSong"`
	CategoryID   *string `json:"categoryId,omitempty" bson:"categoryId,omitempty" gorm:"column:categoryId"`
	CategoryName *string `json:"categoryName,omitempty" bson:"categoryName,omitempty" gorm:"column:categoryName"`
}

type SongView struct {
	ID           string    `json:"id" bson:"id" gorm:"column:id"`
	Name         string    `json:"name" bson:"name" gorm:"column:name"`
	Slug         string    `json:"slug" bson:"slug" gorm:"column:slug"`
	Singer       string    `json:"singer" bson:"singer" gorm:"column:singer"`
	Year         int       `json:"year" bson:"year" gorm:"column:year"`
	Thumbnail    string    `json:"thumbnail" bson:"thumbnail" gorm:"column:thumbnail"`
	Mp3          string    `json:"mp3" bson:"mp3" gorm:"column:mp3"`
	LikeCount    int64     `json:"likeCount" bson:"likeCount" gorm:"column:likeCount"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt" gorm:"column:createdAt"`
	ArtistName   *string   `json:"artistName,omitempty" bson:"artistName,omitempty" gorm:"column:artistName"`
	PlaylistName *string   `json:"playlistName,omitempty" bson:"playlistName,omitempty" gorm:"column:playlistName"`
}

// CategorySection 分类首页：一个分类及其下有歌曲的歌单
type CategorySection struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Playlists []PlaylistView `json:"playlists"`
}
