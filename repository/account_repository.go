package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Tunebox/core/auth"
	"Tunebox/core/query"
	"Tunebox/db"
	"Tunebox/model"

	"github.com/google/uuid"
)

// AccountRepository 后台账号数据访问接口
type AccountRepository interface {
	List(ctx context.Context) ([]model.Account, error)
	Register(ctx context.Context, username, password, userID string) (*model.Account, error)
	Authenticate(ctx context.Context, username, password string) (*model.Account, error)
	UpdateUsername(ctx context.Context, id, username string) (*model.Account, error)
	ToggleStatus(ctx context.Context, id string) (*model.Account, error)
	ChangeRole(ctx context.Context, id, adminRole string) (*model.Account, error)
	Delete(ctx context.Context, id string) (*model.Account, error)
}

type storeAccountRepository struct {
	store db.Store
	now   clock
}

// NewAccountRepository 创建账号仓库
func NewAccountRepository(store db.Store) AccountRepository {
	return &storeAccountRepository{store: store, now: time.Now}
}

// List 按用户名列出全部账号
func (r *storeAccountRepository) List(ctx context.Context) ([]model.Account, error) {
	accounts := []model.Account{}
	keys := []query.SortKey{query.Asc("username"), query.Asc("_id")}
	if err := r.store.Find(ctx, model.CollAccounts, nil, keys, &accounts); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Register 注册账号，用户名唯一
func (r *storeAccountRepository) Register(ctx context.Context, username, password, userID string) (*model.Account, error) {
	n, err := r.store.Count(ctx, model.CollAccounts, []query.Cond{query.Eq("username", username)})
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if n > 0 {
		return nil, ErrUsernameTaken
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := r.now()
	account := &model.Account{
		ID:        uuid.NewString(),
		Username:  username,
		Password:  hash,
		Status:    model.StatusActive,
		Role:      model.RoleUser,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.Insert(ctx, model.CollAccounts, account); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// Authenticate 账号登录
func (r *storeAccountRepository) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	var account model.Account
	err := r.store.FindOne(ctx, model.CollAccounts, []query.Cond{query.Eq("username", username)}, &account)
	if errors.Is(err, db.ErrNoDocument) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if !auth.CheckPasswordHash(password, account.Password) {
		return nil, ErrInvalidCredentials
	}
	if account.Status == model.StatusInactive {
		return nil, ErrInactive
	}
	return &account, nil
}

func (r *storeAccountRepository) get(ctx context.Context, id string) (*model.Account, error) {
	var account model.Account
	if err := r.store.FindByID(ctx, model.CollAccounts, id, &account); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

func (r *storeAccountRepository) set(ctx context.Context, account *model.Account, fields map[string]any) (*model.Account, error) {
	fields["updatedAt"] = r.now()
	err := r.store.Update(ctx, model.CollAccounts, account.ID, fields)
	switch {
	case errors.Is(err, db.ErrNoDocument):
		return nil, ErrNotFound
	case errors.Is(err, db.ErrDuplicate):
		return nil, ErrUsernameTaken
	case err != nil:
		return nil, fmt.Errorf("failed to update account: %w", err)
	}
	return r.get(ctx, account.ID)
}

// UpdateUsername 修改用户名
func (r *storeAccountRepository) UpdateUsername(ctx context.Context, id, username string) (*model.Account, error) {
	account, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if username == account.Username {
		return account, nil
	}
	n, err := r.store.Count(ctx, model.CollAccounts, []query.Cond{query.Eq("username", username)})
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if n > 0 {
		return nil, ErrUsernameTaken
	}
	return r.set(ctx, account, map[string]any{"username": username})
}

// ToggleStatus 启用/停用账号
func (r *storeAccountRepository) ToggleStatus(ctx context.Context, id string) (*model.Account, error) {
	account, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	status := model.StatusInactive
	if account.Status == model.StatusInactive {
		status = model.StatusActive
	}
	return r.set(ctx, account, map[string]any{"status": status})
}

// ChangeRole 在普通用户和管理员之间切换
func (r *storeAccountRepository) ChangeRole(ctx context.Context, id, adminRole string) (*model.Account, error) {
	account, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	role := adminRole
	if account.Role == adminRole {
		role = model.RoleUser
	}
	return r.set(ctx, account, map[string]any{"role": role})
}

// Delete 删除账号
func (r *storeAccountRepository) Delete(ctx context.Context, id string) (*model.Account, error) {
	account, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, model.CollAccounts, id); err != nil {
		if errors.Is(err, db.ErrNoDocument) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete account: %w", err)
	}
	return account, nil
}
