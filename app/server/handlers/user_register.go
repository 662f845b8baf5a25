package handlers

import (
	"net/http"
	"user-account-service/app/server/models"
	"user-account-service/app/server/types"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserRegister 公开注册，请求中的管理员标记会被忽略
func (a *App) UserRegister(c echo.Context) error {
	rctx := c.Request().Context()

	// 读取字段与头像
	in, p, err := readProfileInput(c)
	if err != nil {
		return a.ee(c, err, "failed to read register input")
	}
	if err = in.ValidateCreate(); err != nil {
		return a.ee(c, err, "failed to validate register input")
	}

	// 创建用户
	user := models.User{
		Name:  *in.Name,
		Email: *in.Email,
	}
	user.SetPassword(*in.Password)
	if p != nil {
		user.SetPhoto(p.data, p.contentType)
	}

	if err = a.users.Create(rctx, &user); err != nil {
		return a.ee(c, err, "failed to create user")
	}

	// 签出 JWT
	token, err := a.auth.Issue(user.ID)
	if err != nil {
		a.l.Error("failed to sign token", zap.Uint("id", user.ID), zap.Error(err))
		return a.er(c, http.StatusInternalServerError)
	}

	res := types.NewUserInfo(&user)
	res.Token = token
	return c.JSON(http.StatusCreated, &res)
}
