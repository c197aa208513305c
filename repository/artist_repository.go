package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Tunebox/core/auth"
	"Tunebox/core/query"
	"Tunebox/core/slug"
	"Tunebox/db"
	"Tunebox/model"

	"github.com/google/uuid"
)

// NewArtist 注册参数
type NewArtist struct {
	Name          string
	ArtistName    string
	Description   string
	Username      string
	Password      string
	Avatar        string
	AvatarAssetID string
}

// ProfileUpdate 资料修改，nil 字段保持不变
type ProfileUpdate struct {
	Name          *string
	ArtistName    *string
	Description   *string
	Avatar        *string
	AvatarAssetID *string
}

// ArtistRepository 艺人（用户）数据访问接口
type ArtistRepository interface {
	// 注册与登录
	Register(ctx context.Context, in NewArtist) (*model.Artist, error)
	Authenticate(ctx context.Context, username, password string) (*model.Artist, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)

	GetByID(ctx context.Context, id string) (*model.Artist, error)
	ListAll(ctx context.Context) ([]model.Artist, error)

	// 本人操作
	UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*model.Artist, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error

	// 管理员操作
	ResetPassword(ctx context.Context, id, password string) error
	ToggleRole(ctx context.Context, id, adminRole string) (*model.Artist, error)
	ToggleStatus(ctx context.Context, id string) (*model.Artist, error)
	Delete(ctx context.Context, id string) (*model.Artist, error)

	Like(ctx context.Context, id string) (int64, error)
}

// storeArtistRepository 基于 db.Store 的实现
type storeArtistRepository struct {
	store db.Store
	now   clock
}

// NewArtistRepository 创建艺人仓库
func NewArtistRepository(store db.Store) ArtistRepository {
	return &storeArtistRepository{store: store, now: time.Now}
}

// ========== 注册与登录 ==========

// UsernameTaken 用户名是否已存在
func (r *storeArtistRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	n, err := r.store.Count(ctx, model.CollArtists, []query.Cond{query.Eq("username", username)})
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return n > 0, nil
}

// Register 注册艺人。slug 以同名艺人数量作后缀
func (r *storeArtistRepository) Register(ctx context.Context, in NewArtist) (*model.Artist, error) {
	taken, err := r.UsernameTaken(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	sameName, err := r.store.Count(ctx, model.CollArtists, []query.Cond{query.Eq("name", in.Name)})
	if err != nil {
		return nil, fmt.Errorf("failed to count artists by name: %w", err)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := r.now()
	artist := &model.Artist{
		ID:            uuid.NewString(),
		Name:          in.Name,
		Slug:          fmt.Sprintf("%s-%d", slug.Slug(in.Name), sameName),
		Search:        slug.SearchKey(in.Name),
		ArtistName:    in.ArtistName,
		ArtistNameRef: slug.Slug(in.ArtistName),
		Avatar:        in.Avatar,
		AvatarAssetID: in.AvatarAssetID,
		Description:   in.Description,
		Username:      in.Username,
		Password:      hash,
		Status:        model.StatusActive,
		Role:          model.RoleUser,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.store.Insert(ctx, model.CollArtists, artist); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create artist: %w", err)
	}
	return artist, nil
}

// Authenticate 校验用户名密码，停用账号返回 ErrInactive
func (r *storeArtistRepository) Authenticate(ctx context.Context, username, password string) (*model.Artist, error) {
	var artist model.Artist
	err := r.store.FindOne(ctx, model.CollArtists, []query.Cond{query.Eq("username", username)}, &artist)
	if errors.Is(err, db.ErrNoDocument) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find artist: %w", err)
	}
	if !auth.CheckPasswordHash(password, artist.Password) {
		return nil, ErrInvalidCredentials
	}
	if !artist.IsActive() {
		return nil, ErrInactive
	}
	return &artist, nil
}

// ========== 查询 ==========

// GetByID 根据ID获取艺人
func (r *storeArtistRepository) GetByID(ctx context.Context, id string) (*model.Artist, error) {
	var artist model.Artist
	if err := r.store.FindByID(ctx, model.CollArtists, id, &artist); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return &artist, nil
}

// ListAll 管理员查看全部用户，角色升序、名称降序
func (r *storeArtistRepository) ListAll(ctx context.Context) ([]model.Artist, error) {
	artists := []model.Artist{}
	keys := []query.SortKey{query.Asc("role"), query.Desc("name"), query.Asc("_id")}
	if err := r.store.Find(ctx, model.CollArtists, nil, keys, &artists); err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	return artists, nil
}

// ========== 本人操作 ==========

// UpdateProfile 修改资料，名称变化时同步 slug 和搜索键
func (r *storeArtistRepository) UpdateProfile(ctx context.Context, id string, in ProfileUpdate) (*model.Artist, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{"updatedAt": r.now()}
	if in.Name != nil && *in.Name != current.Name {
		sameName, err := r.store.Count(ctx, model.CollArtists, []query.Cond{query.Eq("name", *in.Name)})
		if err != nil {
			return nil, fmt.Errorf("failed to count artists by name: %w", err)
		}
		fields["name"] = *in.Name
		fields["slug"] = fmt.Sprintf("%s-%d", slug.Slug(*in.Name), sameName)
		fields["search"] = slug.SearchKey(*in.Name)
	}
	if in.ArtistName != nil {
		fields["artistName"] = *in.ArtistName
		fields["artistNameRef"] = slug.Slug(*in.ArtistName)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Avatar != nil {
		fields["avatar"] = *in.Avatar
	}
	if in.AvatarAssetID != nil {
		fields["avatarAssetId"] = *in.AvatarAssetID
	}
	if err := r.update(ctx, id, fields); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// ChangePassword 修改密码，所有不满足的规则一起返回
func (r *storeArtistRepository) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	var problems []string
	if !auth.CheckPasswordHash(oldPassword, current.Password) {
		problems = append(problems, "old password is incorrect")
	}
	if len(newPassword) < auth.MinPasswordLength {
		problems = append(problems, fmt.Sprintf("new password must be at least %d characters", auth.MinPasswordLength))
	}
	if newPassword == oldPassword {
		problems = append(problems, "new password must differ from the old one")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return r.setPassword(ctx, id, newPassword)
}

// ========== 管理员操作 ==========

// ResetPassword 管理员重置密码
func (r *storeArtistRepository) ResetPassword(ctx context.Context, id, password string) error {
	return r.setPassword(ctx, id, password)
}

// ToggleRole 在普通用户和管理员之间切换
func (r *storeArtistRepository) ToggleRole(ctx context.Context, id, adminRole string) (*model.Artist, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role := adminRole
	if current.Role == adminRole {
		role = model.RoleUser
	}
	if err := r.update(ctx, id, map[string]any{"role": role, "updatedAt": r.now()}); err != nil {
		return nil, err
	}
	current.Role = role
	return current, nil
}

// ToggleStatus 启用/停用账号
func (r *storeArtistRepository) ToggleStatus(ctx context.Context, id string) (*model.Artist, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status := model.StatusInactive
	if !current.IsActive() {
		status = model.StatusActive
	}
	if err := r.update(ctx, id, map[string]any{"status": status, "updatedAt": r.now()}); err != nil {
		return nil, err
	}
	current.Status = status
	return current, nil
}

// Delete 删除艺人，返回被删除的记录以便清理头像
func (r *storeArtistRepository) Delete(ctx context.Context, id string) (*model.Artist, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, model.CollArtists, id); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete artist: %w", err)
	}
	return current, nil
}

// Like 点赞，原子自增
func (r *storeArtistRepository) Like(ctx context.Context, id string) (int64, error) {
	n, err := r.store.Increment(ctx, model.CollArtists, id, "likeCount", 1)
	if errors.Is(err, db.ErrNoDocument) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to like artist: %w", err)
	}
	return n, nil
}

func (r *storeArtistRepository) setPassword(ctx context.Context, id, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return r.update(ctx, id, map[string]any{"password": hash, "updatedAt": r.now()})
}

func (r *storeArtistRepository) update(ctx context.Context, id string, fields map[string]any) error {
	err := r.store.Update(ctx, model.CollArtists, id, fields)
	switch {
	case errors.Is(err, db.ErrNoDocument):
		return ErrNotFound
	case errors.Is(err, db.ErrDuplicate):
		return ErrUsernameTaken
	case err != nil:
		return fmt.Errorf("failed to update artist: %w", err)
	}
	return nil
}
