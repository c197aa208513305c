package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"Tunebox/logger"
	"Tunebox/storage"
)

const maxMemory = 32 << 20 // 32MB

// 上传字段
const (
	fieldAvatar    = "avatar"
	fieldThumbnail = "thumbnail"
	fieldMp3       = "mp3"
)

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".mp3":  true,
}

// checkUploads 校验所有上传文件的扩展名，必须在任何副作用之前调用
func checkUploads(r *http.Request) error {
	if r.MultipartForm == nil {
		return nil
	}
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			ext := strings.ToLower(filepath.Ext(fh.Filename))
			if !allowedExtensions[ext] {
				return badRequest(fmt.Sprintf("Unsupported file type for %s: %q", field, fh.Filename))
			}
		}
	}
	return nil
}

// hasFile 表单是否带有该文件字段
func hasFile(r *http.Request, field string) bool {
	return r.MultipartForm != nil && len(r.MultipartForm.File[field]) > 0
}

// spool 把上传文件写入 UPLOAD_DIR，返回临时文件路径
func (h *Handler) spool(r *http.Request, field string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", field, err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	out, err := os.CreateTemp(h.cfg.UploadDir, "upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create spool file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to spool %s: %w", field, err)
	}
	return out.Name(), nil
}

// uploadAsset 上传字段中的文件到 ownerFolder/subFolder；没有该字段时返回 nil
func (h *Handler) uploadAsset(ctx context.Context, r *http.Request, field, ownerFolder, subFolder string) (*storage.Asset, error) {
	if !hasFile(r, field) {
		return nil, nil
	}
	path, err := h.spool(r, field)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to remove spool file", logger.String("path", path), logger.ErrorField(err))
		}
	}()

	asset, err := h.media.Upload(ctx, ownerFolder, subFolder, path)
	if err != nil {
		if errors.Is(err, storage.ErrUnavailable) {
			return nil, err
		}
		return nil, mediaFailure(err)
	}
	return asset, nil
}

// removeAsset 尽力删除旧资源，失败只记录日志
func (h *Handler) removeAsset(ctx context.Context, assetID string) {
	if assetID == "" {
		return
	}
	if err := h.media.Remove(ctx, assetID); err != nil {
		logger.Warn("Failed to remove media asset", logger.String("assetId", assetID), logger.ErrorField(err))
	}
}

// logOrphans 数据库写入失败后记录已上传的资源
func logOrphans(cause error, assets ...*storage.Asset) {
	for _, a := range assets {
		if a != nil {
			logger.Warn("Orphaned media asset after failed write",
				logger.String("assetId", a.AssetID),
				logger.ErrorField(cause))
		}
	}
}

// assetFields 新上传资源对应的 URL 和 ID，没有上传时为 nil
func assetFields(a *storage.Asset) (url, id *string) {
	if a == nil {
		return nil, nil
	}
	return &a.URL, &a.AssetID
}

func assetValues(a *storage.Asset) (url, id string) {
	if a == nil {
		return "", ""
	}
	return a.URL, a.AssetID
}
