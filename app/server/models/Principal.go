package models

// Principal 是通过令牌验证之后的身份，只包含公开字段，可以安全地放进缓存
type Principal struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}
