package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	// 基础信息
	Name    string `gorm:"column:name"`                           // 显示名称
	Email   string `gorm:"column:email;uniqueIndex;not null"`     // 邮箱，全局唯一，用于登录
	IsAdmin bool   `gorm:"column:is_admin;not null;default:false"` // 是否为管理员

	// 登录与授权认证相关
	Password string `gorm:"column:password;not null"` // 密码，使用 argon2id 储存，永远不会是明文

	// 头像
	PhotoData        []byte `gorm:"column:photo_data"`
	PhotoContentType string `gorm:"column:photo_content_type"`

	// 待写入的明文密码，只在持久化之前由存储层计算 hash
	plainPassword string
	passwordDirty bool
}

// SetPassword 标记密码已更改，真正的 hash 在保存时计算
func (u *User) SetPassword(plain string) {
	u.plainPassword = plain
	u.passwordDirty = true
}

// PasswordChanged 报告自加载以来密码是否被修改过
func (u *User) PasswordChanged() bool {
	return u.passwordDirty
}

func (u *User) PendingPassword() string {
	return u.plainPassword
}

// CommitPassword 用计算好的 hash 替换待写入的明文
func (u *User) CommitPassword(hash string) {
	u.Password = hash
	u.plainPassword = ""
	u.passwordDirty = false
}

func (u *User) SetPhoto(data []byte, contentType string) {
	u.PhotoData = data
	u.PhotoContentType = contentType
}

func (u *User) HasPhoto() bool {
	return len(u.PhotoData) > 0
}

func (u *User) Principal() *Principal {
	return &Principal{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		IsAdmin: u.IsAdmin,
	}
}
