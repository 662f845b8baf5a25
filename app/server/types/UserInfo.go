package types

import "user-account-service/app/server/models"

// UserInfo 是所有接口返回的用户信息，不包含密码与头像数据
type UserInfo struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token,omitempty"`
}

func NewUserInfo(user *models.User) UserInfo {
	return UserInfo{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		IsAdmin: user.IsAdmin,
	}
}

type UserListResponse struct {
	Limit   int        `json:"limit"`
	PageMax int64      `json:"pageMax"`
	List    []UserInfo `json:"list"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
