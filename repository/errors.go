package repository

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrUsernameTaken 用户名已被占用
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInactive 账号已停用
	ErrInactive = errors.New("account is inactive")
	// ErrForbidden 不是资源所有者
	ErrForbidden = errors.New("not the owner of this resource")
	// ErrPlaylistNotEmpty 歌单内仍有歌曲
	ErrPlaylistNotEmpty = errors.New("playlist still contains songs")
)

// ValidationError 一组业务规则校验失败
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

// clock 可替换的时间源
type clock func() time.Time
