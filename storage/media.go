package storage

import (
	"context"
	"errors"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnavailable 媒体服务熔断中或并发探测已满
var ErrUnavailable = errors.New("media host unavailable")

// Asset 上传后的媒体资源
type Asset struct {
	URL     string
	AssetID string
}

// MediaHost 媒体文件托管。文件按 <ownerFolder>/<subFolder>/ 组织，
// AssetID 用于之后删除
type MediaHost interface {
	Upload(ctx context.Context, ownerFolder, subFolder, localPath string) (*Asset, error)
	Remove(ctx context.Context, assetID string) error
}

// 上传目录
const (
	FolderAvatar        = "avatar"
	FolderPlaylist      = "playlist"
	FolderSongThumbnail = "song/thumbnail"
	FolderSongMp3       = "song/mp3"
)

// objectKey 生成对象名，保留原扩展名
func objectKey(ownerFolder, subFolder, localPath string) string {
	ext := strings.ToLower(filepath.Ext(localPath))
	return path.Join(ownerFolder, subFolder, uuid.NewString()+ext)
}

// uploadContentType 上传时使用的 Content-Type
func uploadContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".mp3":
		return "audio/mpeg"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return "application/octet-stream"
}
