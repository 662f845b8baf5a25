package handlers

import (
	"net/http"
	"strconv"
	"user-account-service/app/server/utils"

	"github.com/labstack/echo/v4"
)

func (a *App) UserPhoto(c echo.Context) error {
	id, err := utils.ParseID(c.Param("id"))
	if err != nil {
		return a.ee(c, err, "failed to parse id")
	}

	user, err := a.users.FindByID(c.Request().Context(), id)
	if err != nil {
		return a.ee(c, err, "failed to get user photo")
	}
	if !user.HasPhoto() {
		return a.er(c, http.StatusNotFound, "User photo not found")
	}

	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(user.PhotoData)))
	return c.Blob(http.StatusOK, user.PhotoContentType, user.PhotoData)
}
