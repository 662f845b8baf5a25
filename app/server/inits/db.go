package inits

import (
	"context"
	"fmt"
	"user-account-service/app/server/config"
	"user-account-service/app/server/models"
	"user-account-service/app/server/store"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func DB(conn string) (db *gorm.DB, err error) {
	// 打开连接
	if db, err = gorm.Open(postgres.Open(conn), &gorm.Config{
		TranslateError: true,
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// 迁移
	if err = Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 返回
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
	)
}

// Admin 没有任何用户时创建初始管理员，公开的注册接口无法产生管理员
func Admin(ctx context.Context, users *store.Users, seed config.Config) (created bool, err error) {
	if seed.Seed.AdminEmail == "" {
		return false, nil
	}

	// 查询现有记录数量
	counter, err := users.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get user count: %w", err)
	} else if counter > 0 {
		return false, nil
	}

	// 插入记录
	admin := &models.User{
		Name:    seed.Seed.AdminName,
		Email:   seed.Seed.AdminEmail,
		IsAdmin: true,
	}
	admin.SetPassword(seed.Seed.AdminPassword)
	if err = users.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("failed to create admin user: %w", err)
	}

	return true, nil
}
