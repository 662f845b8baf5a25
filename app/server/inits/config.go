package inits

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"user-account-service/app/server/config"

	"github.com/joho/godotenv"
)

func Config() (*config.Config, error) {
	// 有 .env 文件的话先加载，已经存在的环境变量不会被覆盖
	_ = godotenv.Load()

	var cfg config.Config
	{
		mode, exist := os.LookupEnv("MODE")
		cfg.System.IsProd = exist && strings.HasPrefix(strings.ToLower(mode), "p")
	}

	if listen, exist := os.LookupEnv("LISTEN"); !exist {
		cfg.System.Listen = ":5000" // 默认监听地址
	} else {
		cfg.System.Listen = listen
	}

	if dbconn, exist := os.LookupEnv("DB_CONN"); !exist {
		return nil, fmt.Errorf("DB_CONN environment variable not set")
	} else {
		cfg.System.DBConnectionString = dbconn
	}

	// redis 是可选的，只用作身份缓存
	cfg.System.RedisConnectionString = os.Getenv("REDIS_CONN")

	if sigsk, exist := os.LookupEnv("JWT_SECRET"); !exist || sigsk == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	} else {
		cfg.Security.SignatureSecretKey = sigsk
	}

	if memStr, exist := os.LookupEnv("ARGON2_MEMORY_KIB"); exist {
		mem, err := strconv.ParseUint(memStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("ARGON2_MEMORY_KIB should be an unsigned integer")
		}
		cfg.Security.Argon2MemoryKiB = uint32(mem)
	}

	cfg.Seed.AdminEmail = os.Getenv("ADMIN_EMAIL")
	cfg.Seed.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	if name, exist := os.LookupEnv("ADMIN_NAME"); !exist {
		cfg.Seed.AdminName = "Admin"
	} else {
		cfg.Seed.AdminName = name
	}
	if cfg.Seed.AdminEmail != "" && cfg.Seed.AdminPassword == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD environment variable not set while ADMIN_EMAIL is")
	}

	return &cfg, nil
}
