package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Tunebox/config"
	"Tunebox/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioHost 基于 MinIO 的媒体托管
type MinioHost struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioHost 连接 MinIO，存储桶不存在时创建
func NewMinioHost(cfg *config.Config) (*MinioHost, error) {
	logger.Info("Connecting to MinIO",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
		logger.String("region", cfg.MinioRegion))

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("创建存储桶失败: %w", err)
		}
		logger.Info("Created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	baseURL := strings.TrimRight(cfg.MinioPublicURL, "/")
	if baseURL == "" {
		u := client.EndpointURL()
		baseURL = fmt.Sprintf("%s://%s/%s", u.Scheme, u.Host, cfg.MinioBucket)
	}

	logger.Info("MinIO client initialized")
	return &MinioHost{client: client, bucket: cfg.MinioBucket, baseURL: baseURL}, nil
}

// Client 底层客户端，供存储桶检查使用
func (h *MinioHost) Client() *minio.Client {
	return h.client
}

// Bucket 存储桶名称
func (h *MinioHost) Bucket() string {
	return h.bucket
}

// Upload 上传本地文件
func (h *MinioHost) Upload(ctx context.Context, ownerFolder, subFolder, localPath string) (*Asset, error) {
	key := objectKey(ownerFolder, subFolder, localPath)
	_, err := h.client.FPutObject(ctx, h.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: uploadContentType(key),
	})
	if err != nil {
		return nil, fmt.Errorf("上传文件失败 %s: %w", key, err)
	}
	return &Asset{URL: h.baseURL + "/" + key, AssetID: key}, nil
}

// Remove 删除对象
func (h *MinioHost) Remove(ctx context.Context, assetID string) error {
	if err := h.client.RemoveObject(ctx, h.bucket, assetID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("删除文件失败 %s: %w", assetID, err)
	}
	return nil
}
