package constants

import "time"

// 令牌
const (
	AuthTokenDuration = 30 * 24 * time.Hour // 固定 30 天有效期
)

// 头像
const (
	ProfilePhotoField   = "profilePhoto"
	ProfilePhotoMaxSize = 9000000 // 字节
)

// 请求体
const (
	RequestBodyLimit = "12M" // 头像加上表单字段的上限
)
