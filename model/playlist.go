package model

import "time"

// Playlist 歌单，归属一个艺人和一个分类
type Playlist struct {
	ID               string    `json:"id" bson:"_id" gorm:"column:id;primaryKey;size:36"`
	Name             string    `json:"name" bson:"name" gorm:"column:name;size:255;not null"`
	Slug             string    `json:"slug" bson:"slug" gorm:"column:slug;size:255;index"`
	Search           string    `json:"-" bson:"search" gorm:"column:search;size:255;index"`
	Description      string    `json:"description" bson:"description" gorm:"column:description;type:text"`
	Thumbnail        string    `json:"thumbnail" bson:"thumbnail" gorm:"column:thumbnail;size:512"`
	ThumbnailAssetID string    `json:"-" bson:"thumbnailAssetId" gorm:"column:thumbnailAssetId;size:512"`
	LikeCount        int64     `json:"likeCount" bson:"likeCount" gorm:"column:likeCount;not null;default:0"`
	UserID           string    `json:"userId" bson:"userId" gorm:"column:userId;size:36;index"`
	CategoryID       string    `json:"categoryId" bson:"categoryId" gorm:"column:categoryId;size:36;index"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt" gorm:"column:createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt" gorm:"column:updatedAt"`
}

// TableName 指定表名
func (Playlist) TableName() string {
	return CollPlaylists
}
