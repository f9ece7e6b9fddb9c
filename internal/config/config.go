package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const minJWTSecretLen = 32

// Config структура конфигурации
type Config struct {
	AppEnv           string
	HTTPAddr         string
	WSAddr           string
	TelegramBotToken string
	JWTSecret        string
	JWTTTL           time.Duration
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	FrontendOrigins  []string
	SwapRewardPoints int
	NotifyQueueSize  int
	NotifyWorkers    int
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// URL собирает строку подключения из отдельных параметров
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	UploadFolder string
}

// IsProduction сообщает, что приложение запущено в боевом окружении
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TelegramEnabled сообщает, настроен ли вход через Telegram
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != ""
}

// LoadConfig загружает переменные из .env и окружения, при ошибке завершает процесс
func LoadConfig(envFile string) *Config {
	var err error
	if envFile != "" {
		err = godotenv.Load(envFile)
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}
	return cfg
}

// FromEnv собирает конфигурацию через lookup, чтобы её можно было проверить без окружения процесса
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	getEnv := func(key, defaultValue string) string {
		if value, exists := lookup(key); exists && value != "" {
			return value
		}
		return defaultValue
	}
	var errs []error
	getInt := func(key string, defaultValue int) int {
		raw := getEnv(key, "")
		if raw == "" {
			return defaultValue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			errs = append(errs, fmt.Errorf("%s должно быть положительным целым, получено %q", key, raw))
			return defaultValue
		}
		return v
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "swapit_user"),
		Password: getEnv("PGPASSWORD", "swapit_pass"),
		Name:     getEnv("PGDATABASE", "swapit"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "production"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		WSAddr:           getEnv("WS_ADDR", ":8081"),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		DatabaseURL:      getEnv("DATABASE_URL", dbConfig.URL()),
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "swapit"),
			UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "swapit/items"),
		},
		FrontendOrigins:  splitOrigins(getEnv("FRONTEND_URL", "*")),
		SwapRewardPoints: getInt("SWAP_REWARD_POINTS", 10),
		NotifyQueueSize:  getInt("NOTIFY_QUEUE_SIZE", 256),
		NotifyWorkers:    getInt("NOTIFY_WORKERS", 2),
	}

	ttl, err := time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL: некорректная длительность %q", getEnv("JWT_TTL", "")))
		ttl = 24 * time.Hour
	}
	cfg.JWTTTL = ttl

	switch {
	case cfg.JWTSecret == "":
		errs = append(errs, errors.New("не задан JWT_SECRET"))
	case len(cfg.JWTSecret) < minJWTSecretLen:
		errs = append(errs, fmt.Errorf("JWT_SECRET должен содержать не менее %d символов", minJWTSecretLen))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
