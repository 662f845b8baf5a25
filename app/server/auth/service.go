package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"user-account-service/app/server/cache"
	"user-account-service/app/server/errs"
	"user-account-service/app/server/jwt"
	"user-account-service/app/server/models"
	"user-account-service/app/server/password"

	"go.uber.org/zap"
)

// Users 是认证需要的最小存储接口
type Users interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service struct {
	users  Users
	hasher *password.Hasher
	jwt    *jwt.JWT
	cache  *cache.Principals
	l      *zap.Logger

	// 邮箱不存在时也做一次验证，避免响应时间暴露账号是否存在
	dummyOnce sync.Once
	dummyHash string
}

func NewService(users Users, hasher *password.Hasher, j *jwt.JWT, principals *cache.Principals, l *zap.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		jwt:    j,
		cache:  principals,
		l:      l,
	}
}

// Login 邮箱不存在与密码错误返回同一个错误
func (s *Service) Login(ctx context.Context, email, plain string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			s.hasher.Verify(plain, s.dummy())
			return nil, "", errs.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !s.hasher.Verify(plain, user.Password) {
		return nil, "", errs.ErrInvalidCredentials
	}

	token, err := s.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (s *Service) Issue(userID uint) (string, error) {
	token, err := s.jwt.SignToken(userID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// Verify 校验令牌并解析为仍然存在的用户
func (s *Service) Verify(ctx context.Context, token string) (*models.Principal, error) {
	id, err := s.jwt.ParseUser(token)
	if err != nil {
		return nil, err
	}

	// 查询缓存
	if principal, ok := s.cache.Get(ctx, id); ok {
		return principal, nil
	}

	// 先取代数，查询期间用户被修改或删除时不会写入缓存
	gen, cacheable := s.cache.Generation(ctx, id)

	// 查询数据库
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", errs.ErrUserNotFound, id)
		}
		return nil, err
	}

	// 加入缓存，方便下一次查询
	principal := user.Principal()
	if cacheable {
		s.cache.Set(ctx, principal, gen)
	}

	return principal, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("dummy-password-for-timing")
		if err != nil {
			s.l.Error("failed to prepare dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
