package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Cloudinary CloudinaryConfig
	Telegram   TelegramConfig
	Admin      AdminConfig
	Game       GameConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type TelegramConfig struct {
	BotToken    string
	AdminChatID int64
}

// AdminConfig describes the seeded main administrator account.
type AdminConfig struct {
	Username string
	Email    string
	Password string
}

// GameConfig is the public server info returned by /api/server/info.
type GameConfig struct {
	IP       string
	Port     string
	Version  string
	Launcher string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         env("PORT", "5000"),
			Env:          env("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             env("DATABASE_DSN", "jmsmp:jmsmp@tcp(localhost:3306)/jmsmp?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret: env("JWT_SECRET", "jmsmp_secret_key"),
			Expiry: 30 * 24 * time.Hour,
			Issuer: "jmsmp",
		},
		Cloudinary: CloudinaryConfig{
			CloudName: env("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    env("CLOUDINARY_API_KEY", ""),
			APISecret: env("CLOUDINARY_API_SECRET", ""),
		},
		Telegram: TelegramConfig{
			BotToken:    env("TELEGRAM_BOT_TOKEN", ""),
			AdminChatID: envInt64("TELEGRAM_ADMIN_CHAT_ID", 0),
		},
		Admin: AdminConfig{
			Username: env("MAIN_ADMIN_USERNAME", "admin"),
			Email:    env("MAIN_ADMIN_EMAIL", "admin@jmsmp.ru"),
			Password: env("MAIN_ADMIN_PASSWORD", "change-me-in-production"),
		},
		Game: GameConfig{
			IP:       env("SERVER_IP", "jmsmp.minecraft.ru"),
			Port:     env("SERVER_PORT", "25565"),
			Version:  "1.21.8",
			Launcher: "https://easylauncher.org",
		},
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
