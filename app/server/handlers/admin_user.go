package handlers

import (
	"net/http"
	"user-account-service/app/server/types"
	"user-account-service/app/server/utils"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) UserList(c echo.Context) error {
	rctx := c.Request().Context()

	showAll, page, limit := a.parsePagination(c.QueryParam("page"), c.QueryParam("limit"))
	offset, queryLimit := 0, 0
	if !showAll {
		offset, queryLimit = page*limit, limit
	}

	users, usersCount, err := a.users.List(rctx, offset, queryLimit)
	if err != nil {
		return a.ee(c, err, "failed to get user list")
	}

	resUsers := []types.UserInfo{}
	for i := range users {
		resUsers = append(resUsers, types.NewUserInfo(&users[i]))
	}

	return c.JSON(http.StatusOK, &types.UserListResponse{
		Limit:   limit,
		PageMax: a.calcMaxPage(usersCount, showAll, limit),
		List:    resUsers,
	})
}

func (a *App) UserInfoGet(c echo.Context) error {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		return a.ee(c, err, "failed to parse id")
	}

	// 从数据库中获得指定的用户
	user, err := a.users.FindByID(c.Request().Context(), id)
	if err != nil {
		return a.ee(c, err, "failed to get user")
	}

	return c.JSON(http.StatusOK, types.NewUserInfo(user))
}

// UserInfoUpdate 管理员修改名称、邮箱与管理员标记，未提供的字段保持不变
func (a *App) UserInfoUpdate(c echo.Context) error {
	rctx := c.Request().Context()

	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		return a.ee(c, err, "failed to parse id")
	}

	// 绑定请求体
	var req types.AdminUserUpdate
	if err = (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		a.l.Debug("failed to bind request", zap.Error(err))
		return a.er(c, http.StatusBadRequest)
	}
	if err = req.Validate(); err != nil {
		return a.ee(c, err, "failed to validate request")
	}

	// 从数据库中获得指定的用户
	user, err := a.users.FindByID(rctx, id)
	if err != nil {
		return a.ee(c, err, "failed to get user")
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	// 更新用户信息
	if err = a.users.Save(rctx, user); err != nil {
		return a.ee(c, err, "failed to update user")
	}

	return c.JSON(http.StatusOK, types.NewUserInfo(user))
}

func (a *App) UserDelete(c echo.Context) error {
	rctx := c.Request().Context()

	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		return a.ee(c, err, "failed to parse id")
	}

	user, err := a.users.FindByID(rctx, id)
	if err != nil {
		return a.ee(c, err, "failed to get user")
	}

	// 删除用户
	if err = a.users.Delete(rctx, user); err != nil {
		return a.ee(c, err, "failed to delete user")
	}

	return c.JSON(http.StatusOK, &types.MessageResponse{Message: "User removed"})
}
