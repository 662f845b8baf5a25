package handlers

import (
	"errors"
	"net/http"
	"user-account-service/app/server/errs"
	"user-account-service/app/server/types"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) AuthLogin(c echo.Context) error {
	rctx := c.Request().Context()

	// 绑定请求体
	var req types.LoginRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		a.l.Debug("failed to bind login body", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}

	// 没有写邮箱或密码
	if err := req.Validate(); err != nil {
		return a.er(c, http.StatusBadRequest, err.Error())
	}

	user, token, err := a.auth.Login(rctx, *req.Email, *req.Password)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			return a.er(c, http.StatusUnauthorized, "Invalid email or password")
		}
		return a.ee(c, err, "failed to login")
	}

	// 返回
	res := types.NewUserInfo(user)
	res.Token = token
	return c.JSON(http.StatusOK, &res)
}
