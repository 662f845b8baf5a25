package handlers

import (
	"user-account-service/app/server/auth"
	"user-account-service/app/server/store"

	"go.uber.org/zap"
)

type App struct {
	l     *zap.Logger   // 日志
	users *store.Users  // 用户存储
	auth  *auth.Service // 登录与令牌验证
}

func NewApp(l *zap.Logger, users *store.Users, authService *auth.Service) *App {
	return &App{
		l:     l,
		users: users,
		auth:  authService,
	}
}
