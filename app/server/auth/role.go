package auth

import (
	"user-account-service/app/server/errs"
	"user-account-service/app/server/models"
)

type Role int

const (
	RoleUser Role = iota
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	default:
		return "user"
	}
}

// Authorize 只能在令牌验证通过之后调用
func Authorize(principal *models.Principal, required Role) error {
	if principal == nil {
		return errs.ErrInvalidSignature
	}

	switch required {
	case RoleUser:
		return nil
	case RoleAdmin:
		if principal.IsAdmin {
			return nil
		}
		return errs.ErrForbidden
	default:
		return errs.ErrForbidden
	}
}
