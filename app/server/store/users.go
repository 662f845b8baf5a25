package store

import (
	"context"
	"errors"
	"fmt"
	"user-account-service/app/server/cache"
	"user-account-service/app/server/errs"
	"user-account-service/app/server/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PasswordHasher 只需要单向 hash ，验证由认证服务负责
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// Users 是用户记录的存储，密码在写入之前按脏标记计算 hash
type Users struct {
	db     *gorm.DB
	hasher PasswordHasher
	cache  *cache.Principals
}

func NewUsers(db *gorm.DB, hasher PasswordHasher, principals *cache.Principals) *Users {
	return &Users{
		db:     db,
		hasher: hasher,
		cache:  principals,
	}
}

func (s *Users) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errs.Store(fmt.Errorf("find user %d: %w", id, err))
	}

	return &user, nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, errs.Store(fmt.Errorf("find user by email: %w", err))
	}

	return &user, nil
}

// List 不读取密码和头像
func (s *Users) List(ctx context.Context, offset, limit int) ([]models.User, int64, error) {
	var (
		users []models.User
		count int64
	)

	query := s.db.WithContext(ctx).
		Model(&models.User{}).
		Omit("password", "photo_data", "photo_content_type").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, 0, errs.Store(fmt.Errorf("list users: %w", err))
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, errs.Store(fmt.Errorf("count users: %w", err))
	}

	return users, count, nil
}

func (s *Users) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, errs.Store(fmt.Errorf("count users: %w", err))
	}
	return count, nil
}

// Create 新用户必须带有待写入的密码
func (s *Users) Create(ctx context.Context, user *models.User) error {
	if !user.PasswordChanged() {
		return fmt.Errorf("%w: password is required", errs.ErrValidation)
	}

	if err := s.ensureEmailFree(ctx, user); err != nil {
		return err
	}
	if err := s.hashPending(user); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return translate(fmt.Errorf("create user: %w", err))
	}

	return nil
}

// Save 写入全部字段；只有密码被标记为修改过时才会重新计算 hash
func (s *Users) Save(ctx context.Context, user *models.User) error {
	if user.ID == 0 {
		return fmt.Errorf("%w: user has no id", errs.ErrValidation)
	}

	if err := s.ensureEmailFree(ctx, user); err != nil {
		return err
	}
	if err := s.hashPending(user); err != nil {
		return err
	}

	// 写入前后各清理一次缓存
	if err := s.cache.Forget(ctx, user.ID); err != nil {
		return errs.Store(err)
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return translate(fmt.Errorf("save user %d: %w", user.ID, err))
	}
	s.cache.Invalidate(ctx, user.ID)

	return nil
}

// Delete 直接物理删除，邮箱可以被重新注册
func (s *Users) Delete(ctx context.Context, user *models.User) error {
	if err := s.cache.Forget(ctx, user.ID); err != nil {
		return errs.Store(err)
	}
	if err := s.db.WithContext(ctx).Unscoped().Delete(&models.User{}, user.ID).Error; err != nil {
		return errs.Store(fmt.Errorf("delete user %d: %w", user.ID, err))
	}
	s.cache.Invalidate(ctx, user.ID)

	return nil
}

func (s *Users) hashPending(user *models.User) error {
	if !user.PasswordChanged() {
		return nil
	}

	hash, err := s.hasher.Hash(user.PendingPassword())
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrValidation, err)
	}
	user.CommitPassword(hash)

	return nil
}

func (s *Users) ensureEmailFree(ctx context.Context, user *models.User) error {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? AND id <> ?", user.Email, user.ID).
		Count(&count).Error; err != nil {
		return errs.Store(fmt.Errorf("check email: %w", err))
	}
	if count > 0 {
		return errs.ErrDuplicateEmail
	}

	return nil
}

// translate 处理并发写入时才会遇到的唯一约束冲突
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.ErrDuplicateEmail
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return errs.ErrDuplicateEmail
	}

	return errs.Store(err)
}
