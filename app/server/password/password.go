package password

import (
	"errors"
	"fmt"

	"github.com/alexedwards/argon2id"
)

var ErrEmptyPassword = errors.New("password is empty")

type Hasher struct {
	params *argon2id.Params
}

// New 创建密码 hash 工具，params 为空时使用 argon2id 的默认参数
func New(params *argon2id.Params) *Hasher {
	if params == nil {
		params = argon2id.DefaultParams
	}
	return &Hasher{params: params}
}

// WithMemory 基于默认参数调整内存用量（KiB），0 表示保持默认
func WithMemory(memoryKiB uint32) *argon2id.Params {
	p := *argon2id.DefaultParams
	if memoryKiB > 0 {
		p.Memory = memoryKiB
	}
	return &p
}

// Hash 每次调用都会生成新的随机盐，所以相同明文得到的结果也不同
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}

	hash, err := argon2id.CreateHash(plain, h.params)
	if err != nil {
		return "", fmt.Errorf("create hash: %w", err)
	}

	return hash, nil
}

// Verify 任何错误（包括格式错误的 hash）都视为不匹配
func (h *Hasher) Verify(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(plain, hash)
	if err != nil {
		return false
	}

	return match
}
