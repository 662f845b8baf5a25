package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// limitBody 限制请求体大小
// 超出限制的 multipart 请求只可能是头像过大，按头像校验失败返回
func (a *App) limitBody(limit string) echo.MiddlewareFunc {
	bodyLimit := middleware.BodyLimit(limit)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		limited := bodyLimit(next)

		return func(c echo.Context) error {
			err := limited(c)
			if err == nil || c.Response().Committed || !errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
				return err
			}

			contentType := c.Request().Header.Get(echo.HeaderContentType)
			if strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
				return a.er(c, http.StatusBadRequest, photoTooLargeMessage)
			}

			return err
		}
	}
}
