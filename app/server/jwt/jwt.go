package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"
	"user-account-service/app/server/constants"
	"user-account-service/app/server/errs"

	"github.com/golang-jwt/jwt/v5"
)

type JWT struct {
	key []byte
	now func() time.Time
}

// Claims 同时写入标准的 sub 与兼容旧客户端的 id 字段
type Claims struct {
	UserID uint `json:"id"`
	jwt.RegisteredClaims
}

type Option func(*JWT)

// WithClock 替换时间来源，主要用于测试
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

func New(key string, opts ...Option) (*JWT, error) {
	if len(key) == 0 {
		return nil, errors.New("key is empty")
	}

	j := &JWT{
		key: []byte(key),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}

	return j, nil
}

func (j *JWT) SignToken(userID uint) (string, error) {
	now := j.now()

	// 创建声明
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(constants.AuthTokenDuration)),
		},
	}

	// 创建令牌
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// 签名并返回
	signed, err := token.SignedString(j.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseUser 校验签名与有效期，返回令牌对应的用户 ID
// 有效期的边界是闭区间：exp 等于当前时间即视为过期
func (j *JWT) ParseUser(tokenString string) (uint, error) {
	// 检查是否有效
	if len(tokenString) == 0 {
		return 0, fmt.Errorf("%w: token string is empty", errs.ErrInvalidSignature)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return j.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("%w: %w", errs.ErrTokenExpired, err)
		}
		return 0, fmt.Errorf("%w: %w", errs.ErrInvalidSignature, err)
	}
	if !token.Valid {
		return 0, errs.ErrInvalidSignature
	}

	// 匹配内容
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid subject", errs.ErrInvalidSignature)
	}

	return uint(id), nil
}
