package utils

import (
	"fmt"
	"strconv"
	"user-account-service/app/server/errs"
)

// ParseID 把路径参数解析为用户 ID
func ParseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errs.ErrValidation, s)
	}
	return uint(id), nil
}
