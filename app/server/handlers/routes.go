package handlers

import (
	"user-account-service/app/server/auth"
	"user-account-service/app/server/constants"
	"user-account-service/app/server/middlewares"

	"github.com/labstack/echo/v4"
)

func (a *App) RegisterHandlers(e *echo.Echo) {
	e.Use(a.limitBody(constants.RequestBodyLimit))

	e.GET("/", a.Root)
	e.GET("/healthz", a.HealthCheck)

	private := middlewares.Authenticate(a.auth, a.l)
	admin := middlewares.RequireRole(auth.RoleAdmin, a.l)

	g := e.Group("/api/users")

	// 公开
	g.POST("/login", a.AuthLogin)
	g.POST("", a.UserRegister)
	g.GET("/:id/photo", a.UserPhoto)

	// 登录用户
	g.GET("/profile", a.UserProfileGet, private)
	g.PUT("/profile", a.UserProfileUpdate, private)

	// 管理员
	g.GET("", a.UserList, private, admin)
	g.GET("/:id", a.UserInfoGet, private, admin)
	g.PUT("/:id", a.UserInfoUpdate, private, admin)
	g.DELETE("/:id", a.UserDelete, private, admin)
}
