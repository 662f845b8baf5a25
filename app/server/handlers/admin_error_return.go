package handlers

import (
	"errors"
	"net/http"
	"strings"
	"user-account-service/app/server/errs"
	"user-account-service/app/server/types"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) er(c echo.Context, statusCode int, message ...string) error {
	msg := http.StatusText(statusCode)
	if len(message) > 0 {
		msg = message[0]
	}
	return c.JSON(statusCode, &types.ErrorMessage{
		Message: msg,
	})
}

// ee 按错误类型决定状态码，服务端错误只记录日志，不把细节返回给客户端
func (a *App) ee(c echo.Context, err error, action string) error {
	statusCode := errs.StatusCode(err)
	switch {
	case statusCode >= http.StatusInternalServerError:
		a.l.Error(action, zap.Error(err))
		return a.er(c, statusCode)
	case errors.Is(err, errs.ErrDuplicateEmail):
		return a.er(c, statusCode, "User already exists")
	case errors.Is(err, errs.ErrNotFound):
		return a.er(c, statusCode, "User not found")
	case errors.Is(err, errs.ErrValidation):
		return a.er(c, statusCode, strings.TrimPrefix(err.Error(), errs.ErrValidation.Error()+": "))
	default:
		return a.er(c, statusCode, err.Error())
	}
}
