package config

type Config struct {
	System struct {
		IsProd                bool   // 是否为生产环境
		Listen                string // 监听地址
		DBConnectionString    string // Postgres 数据库的连接字符串
		RedisConnectionString string // Redis 数据库的连接字符串，留空则不启用缓存
	}
	Security struct {
		SignatureSecretKey string // 签名密钥，用于签发 JWT ，更新会导致旧有会话失效
		Argon2MemoryKiB    uint32 // argon2id 使用的内存大小（KiB），0 表示使用默认参数
	}
	Seed struct {
		AdminName     string // 初始管理员的显示名称
		AdminEmail    string // 初始管理员的邮箱，为空则不创建
		AdminPassword string // 初始管理员的密码
	}
}
