package middlewares

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"user-account-service/app/server/auth"
	"user-account-service/app/server/errs"
	"user-account-service/app/server/models"
	"user-account-service/app/server/types"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const principalContextKey = "principal"

var errMissingToken = fmt.Errorf("%w: missing auth token", errs.ErrInvalidSignature)

// Verifier 把令牌解析为用户身份
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Principal, error)
}

// Principal 返回已经通过验证的身份，未经过 Authenticate 的请求返回 nil
func Principal(c echo.Context) *models.Principal {
	principal, _ := c.Get(principalContextKey).(*models.Principal)
	return principal
}

func Authenticate(v Verifier, l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// 提取 token
			token, err := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return deny(c, l, err)
			}

			// 验证 token
			principal, err := v.Verify(c.Request().Context(), token)
			if err != nil {
				return deny(c, l, err)
			}

			// 设置 context
			c.Set(principalContextKey, principal)

			// 继续处理
			return next(c)
		}
	}
}

// RequireRole 必须放在 Authenticate 之后
func RequireRole(role auth.Role, l *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := auth.Authorize(Principal(c), role); err != nil {
				return deny(c, l, err)
			}
			return next(c)
		}
	}
}

func BearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errMissingToken
	}

	splits := strings.Split(authHeader, " ")
	if len(splits) != 2 {
		return "", fmt.Errorf("%w: invalid auth header", errs.ErrInvalidSignature)
	}

	if strings.ToLower(splits[0]) != "bearer" {
		return "", fmt.Errorf("%w: unknown auth method: %s", errs.ErrInvalidSignature, splits[0])
	}

	if splits[1] == "" {
		return "", errMissingToken
	}

	return splits[1], nil
}

func deny(c echo.Context, l *zap.Logger, err error) error {
	statusCode := errs.StatusCode(err)

	var message string
	switch {
	case errors.Is(err, errs.ErrForbidden):
		message = "Not authorized as an admin"
	case statusCode == http.StatusUnauthorized:
		message = "Not authorized, token failed"
	default:
		l.Error("failed to authenticate request", zap.Error(err))
		message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, &types.ErrorMessage{Message: message})
}
