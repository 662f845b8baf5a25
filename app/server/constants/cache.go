package constants

import "time"

const (
	CacheKeyUserPrincipal           = "uam:user:principal:%d"
	CacheKeyUserPrincipalGeneration = "uam:user:principal:gen:%d"
)

const (
	CacheExpireUserPrincipal = 1 * time.Hour
	// 必须长于身份缓存，否则过期的代数可能让旧身份重新写入
	CacheExpireUserPrincipalGeneration = 2 * CacheExpireUserPrincipal
)
