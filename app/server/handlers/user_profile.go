package handlers

import (
	"errors"
	"net/http"
	"user-account-service/app/server/errs"
	"user-account-service/app/server/middlewares"
	"user-account-service/app/server/types"

	"github.com/labstack/echo/v4"
)

func (a *App) UserProfileGet(c echo.Context) error {
	rctx := c.Request().Context()
	principal := middlewares.Principal(c)

	// 从数据库中获得当前用户
	user, err := a.users.FindByID(rctx, principal.ID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return a.er(c, http.StatusNotFound, "User not found")
		}
		return a.ee(c, err, "failed to get profile")
	}

	return c.JSON(http.StatusOK, types.NewUserInfo(user))
}

// UserProfileUpdate 只修改请求中出现的字段
func (a *App) UserProfileUpdate(c echo.Context) error {
	rctx := c.Request().Context()
	principal := middlewares.Principal(c)

	in, p, err := readProfileInput(c)
	if err != nil {
		return a.ee(c, err, "failed to read profile input")
	}
	if err = in.ValidateUpdate(); err != nil {
		return a.ee(c, err, "failed to validate profile input")
	}

	user, err := a.users.FindByID(rctx, principal.ID)
	if err != nil {
		return a.ee(c, err, "failed to get profile")
	}

	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Password != nil {
		user.SetPassword(*in.Password)
	}
	if p != nil {
		user.SetPhoto(p.data, p.contentType)
	}

	if err = a.users.Save(rctx, user); err != nil {
		return a.ee(c, err, "failed to update profile")
	}

	return c.JSON(http.StatusOK, types.NewUserInfo(user))
}
