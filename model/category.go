package model

import "time"

// Category 歌单分类
type Category struct {
	ID        string    `json:"id" bson:"_id" gorm:"column:id;primaryKey;size:36"`
	Name      string    `json:"name" bson:"name" gorm:"column:name;size:255;not null"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"column:createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" gorm:"column:updatedAt"`
}

// TableName 指定表名
func (Category) TableName() string {
	return CollCategories
}

// Account 后台账号，独立于艺人资料
type Account struct {
	ID        string    `json:"id" bson:"_id" gorm:"column:id;primaryKey;size:36"`
	Username  string    `json:"username" bson:"username" gorm:"column:username;size:100;uniqueIndex"`
	Password  string    `json:"-" bson:"password" gorm:"column:password;size:255"`
	Status    string    `json:"status" bson:"status" gorm:"column:status;size:20;default:'active'"`
	Role      string    `json:"role" bson:"role" gorm:"column:role;size:20;default:'user'"`
	UserID    string    `json:"userId,omitempty" bson:"userId" gorm:"column:userId;size:36"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" gorm:"column:createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" gorm:"column:updatedAt"`
}

// TableName 指定表名
func (Account) TableName() string {
	return CollAccounts
}

// Models 所有需要迁移的模型
func Models() []interface{} {
	return []interface{}{&Artist{}, &Playlist{}, &Song{}, &Category{}, &Account{}}
}
