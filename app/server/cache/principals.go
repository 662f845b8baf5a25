package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"user-account-service/app/server/constants"
	"user-account-service/app/server/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// setIfCurrent 只有在用户的代数没有变化时才写入身份
// KEYS[1] 代数 KEYS[2] 身份 ARGV[1] 读取数据库之前的代数 ARGV[2] 身份 ARGV[3] 过期毫秒数
var setIfCurrent = redis.NewScript(`
local cur = redis.call('GET', KEYS[1]) or '0'
if cur ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// Principals 是验证令牌时使用的身份缓存
// 未配置 redis 时为 nil ，所有方法都会直接跳过
//
// 每个用户有一个代数，Forget 会让它加一。
// 读取数据库之前先取代数，写入缓存时代数已经变化就放弃写入，
// 这样与修改或删除并发的验证不会把旧身份写回缓存。
type Principals struct {
	rdb *redis.Client
	l   *zap.Logger
}

func NewPrincipals(rdb *redis.Client, l *zap.Logger) *Principals {
	if rdb == nil {
		return nil
	}
	return &Principals{rdb: rdb, l: l}
}

func principalKey(id uint) string {
	return fmt.Sprintf(constants.CacheKeyUserPrincipal, id)
}

func generationKey(id uint) string {
	return fmt.Sprintf(constants.CacheKeyUserPrincipalGeneration, id)
}

func (p *Principals) Get(ctx context.Context, id uint) (*models.Principal, bool) {
	if p == nil {
		return nil, false
	}

	cacheKey := principalKey(id)
	cacheBytes, err := p.rdb.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.l.Error("failed to query cache for user principal", zap.Uint("id", id), zap.Error(err))
		}
		return nil, false
	}

	var principal models.Principal
	if err = json.Unmarshal(cacheBytes, &principal); err != nil {
		p.l.Error("failed to unmarshal user principal", zap.Uint("id", id), zap.ByteString("cacheBytes", cacheBytes), zap.Error(err))
		// 可能是无效的缓存，清理掉
		p.rdb.Del(ctx, cacheKey)
		return nil, false
	}

	return &principal, true
}

// Generation 必须在读取数据库之前调用，返回值交给 Set
// 第二个返回值为 false 时不应该写入缓存
func (p *Principals) Generation(ctx context.Context, id uint) (int64, bool) {
	if p == nil {
		return 0, false
	}

	gen, err := p.rdb.Get(ctx, generationKey(id)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, true
		}
		p.l.Error("failed to query user principal generation", zap.Uint("id", id), zap.Error(err))
		return 0, false
	}

	return gen, true
}

// Set 只在代数仍然等于 gen 时写入
func (p *Principals) Set(ctx context.Context, principal *models.Principal, gen int64) {
	if p == nil || principal == nil {
		return
	}

	cacheBytes, err := json.Marshal(principal)
	if err != nil {
		p.l.Error("failed to marshal user principal", zap.Uint("id", principal.ID), zap.Error(err))
		return
	}

	written, err := setIfCurrent.Run(ctx, p.rdb,
		[]string{generationKey(principal.ID), principalKey(principal.ID)},
		strconv.FormatInt(gen, 10), cacheBytes, constants.CacheExpireUserPrincipal.Milliseconds(),
	).Int()
	if err != nil {
		p.l.Error("failed to cache user principal", zap.Uint("id", principal.ID), zap.Error(err))
		return
	}
	if written == 0 {
		p.l.Debug("user principal changed while loading, skip caching", zap.Uint("id", principal.ID))
	}
}

// Forget 用户被修改或删除时必须调用，旧的身份不能继续通过验证
func (p *Principals) Forget(ctx context.Context, id uint) error {
	if p == nil {
		return nil
	}

	genKey := generationKey(id)
	if _, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, constants.CacheExpireUserPrincipalGeneration)
		pipe.Del(ctx, principalKey(id))
		return nil
	}); err != nil {
		return fmt.Errorf("forget user principal %d: %w", id, err)
	}

	return nil
}

// Invalidate 与 Forget 相同，但失败时只记录日志
// 用于数据已经写入之后，此时不能再让整个请求失败
func (p *Principals) Invalidate(ctx context.Context, id uint) {
	if err := p.Forget(ctx, id); err != nil {
		p.l.Error("failed to invalidate user principal", zap.Uint("id", id), zap.Error(err))
	}
}
