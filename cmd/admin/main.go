package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"resumify/internal/auth"
	"resumify/internal/config"
	"resumify/internal/database"
)

func main() {
	var (
		email   = flag.String("email", "", "账号邮箱（必填）")
		name    = flag.String("name", "", "显示名（创建时使用）")
		premium = flag.Bool("premium", false, "是否为会员")
		update  = flag.Bool("update", false, "只更新已有账号的会员状态，不创建")
		dbHost  = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort  = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName  = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser  = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass  = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" || !strings.Contains(addr, "@") {
		log.Fatal("missing or invalid required flag: --email")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var existing database.User
	err = db.Where("email = ?", addr).First(&existing).Error
	switch {
	case err == nil && *update:
		if err := db.Model(&existing).Update("is_premium", *premium).Error; err != nil {
			log.Fatalf("update user: %v", err)
		}
		fmt.Printf("已更新账号 %s 的会员状态：%t\n", addr, *premium)
		fmt.Printf("提示：已签发的访问令牌在过期或刷新前仍携带旧状态。\n")
		return
	case err == nil:
		log.Fatalf("user %q already exists (use --update to change membership)", addr)
	case errors.Is(err, gorm.ErrRecordNotFound) && *update:
		log.Fatalf("user %q not found", addr)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query user: %v", err)
	}

	password, err := generateRandomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	displayName := strings.TrimSpace(*name)
	if displayName == "" {
		displayName = addr[:strings.Index(addr, "@")]
	}
	user := database.User{
		Email:        addr,
		Name:         displayName,
		PasswordHash: hashed,
		IsPremium:    *premium,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("create user: %v", err)
	}

	fmt.Printf("已创建账号：\n")
	fmt.Printf("邮箱: %s\n", addr)
	fmt.Printf("会员: %t\n", *premium)
	fmt.Printf("初始密码: %s\n", password)
	fmt.Printf("提示：该密码仅显示一次。\n")
}

// loadDatabaseConfig 按 flag > 环境变量 > 默认值 的顺序拼出数据库配置。
// 只读数据库相关变量，管理工具不需要 JWT 或对象存储配置。
func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	cfg := config.DatabaseConfig{
		Host:     pick(host, "DATABASE_HOST", "localhost"),
		Name:     pick(name, "POSTGRES_DB", ""),
		User:     pick(user, "POSTGRES_USER", ""),
		Password: pick(password, "POSTGRES_PASSWORD", ""),
		SSLMode:  pick(sslmode, "DATABASE_SSLMODE", "disable"),
		Port:     port,
	}
	if cfg.Port <= 0 {
		raw := pick("", "DATABASE_PORT", "5432")
		p, err := strconv.Atoi(raw)
		if err != nil {
			return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT %q: %w", raw, err)
		}
		cfg.Port = p
	}

	for _, req := range []struct{ value, env string }{
		{cfg.Name, "POSTGRES_DB"},
		{cfg.User, "POSTGRES_USER"},
		{cfg.Password, "POSTGRES_PASSWORD"},
	} {
		if req.value == "" {
			return config.DatabaseConfig{}, fmt.Errorf("%s is required (flag or env)", req.env)
		}
	}
	return cfg, nil
}

func pick(flagValue, env, fallback string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	return fallback
}

func generateRandomPassword(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		bytesLen = 24
	}
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
