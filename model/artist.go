package model

import "time"

// 集合/表名
const (
	CollArtists    = "users"
	CollPlaylists  = "playlists"
	CollSongs      = "songs"
	CollCategories = "categories"
	CollAccounts   = "accounts"
)

// 账号状态与角色
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	RoleUser       = "user"
)

// Artist 艺人（即平台用户），存储在 users 集合
type Artist struct {
	ID            string    `json:"id" bson:"_id" gorm:"column:id;primaryKey;size:36"`
	Name          string    `json:"name" bson:"name" gorm:"column:name;size:255;not null"`
	Slug          string    `json:"slug" bson:"slug" gorm:"column:slug;size:255;index"`
	Search        string    `json:"-" bson:"search" gorm:"column:search;size:255;index"`
	ArtistName    string    `json:"artistName" bson:"artistName" gorm:"column:artistName;size:255"`
	ArtistNameRef string    `json:"artistNameRef" bson:"artistNameRef" gorm:"column:artistNameRef;size:255"`
	Avatar        string    `json:"avatar" bson:"avatar" gorm:"column:avatar;size:512"`
	AvatarAssetID string    `json:"-" bson:"avatarAssetId" gorm:"column:avatarAssetId;size:512"`
	Description   string    `json:"description" bson:"description" gorm:"column:description;type:text"`
	LikeCount     int64     `json:"likeCount" bson:"likeCount" gorm:"column:likeCount;not null;default:0"`
	Username      string    `json:"username" bson:"username" gorm:"column:username;size:100;uniqueIndex"`
	Password      string    `json:"-" bson:"password" gorm:"column:password;size:255"`
	Status        string    `json:"status" bson:"status" gorm:"column:status;size:20;default:'active'"`
	Role          string    `json:"role" bson:"role" gorm:"column:role;size:20;default:'user';index"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt" gorm:"column:createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt" gorm:"column:updatedAt"`
}

// TableName 指定表名
func (Artist) TableName() string {
	return CollArtists
}

// IsActive 账号是否可用
func (a *Artist) IsActive() bool {
	return a.Status == "" || a.Status == StatusActive
}
