package model

import "time"

// Song 歌曲，归属一个艺人并放在一个歌单中
type Song struct {
	ID               string    `json:"id" bson:"_id" gorm:"column:id;primaryKey;size:36"`
	Name             string    `json:"name" bson:"name" gorm:"column:name;size:255;not null"`
	Slug             string    `json:"slug" bson:"slug" gorm:"column:slug;size:255;index"`
	Search           string    `json:"-" bson:"search" gorm:"column:search;size:255;index"`
	Singer           string    `json:"singer" bson:"singer" gorm:"column:singer;size:255"`
	Year             int       `json:"year" bson:"year" gorm:"column:year"`
	Thumbnail        string    `json:"thumbnail" bson:"thumbnail" gorm:"column:thumbnail;size:512"`
	ThumbnailAssetID string    `json:"-" bson:"thumbnailAssetId" gorm:"column:thumbnailAssetId;size:512"`
	Mp3              string    `json:"mp3" bson:"mp3" gorm:"column:mp3;size:512"`
	Mp3AssetID       string    `json:"-" bson:"mp3AssetId" gorm:"column:mp3AssetId;size:512"`
	LikeCount        int64     `json:"likeCount" bson:"likeCount" gorm:"column:likeCount;not null;default:0"`
	UserID           string    `json:"userId" bson:"userId" gorm:"column:userId;size:36;index"`
	PlaylistID       string    `json:"playlistId" bson:"playlistId" gorm:"column:playlistId;size:36;index"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt" gorm:"column:createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt" gorm:"column:updatedAt"`
}

// TableName 指定表名
func (Song) TableName() string {
	return CollSongs
}
