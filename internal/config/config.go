package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
		// Публичный адрес сайта, используется для абсолютных URL файлов
		SiteURL string `yaml:"site_url"`
		// Разрешенные CORS origins
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // postgres, mysql
		DSN    string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		Enabled      bool   `yaml:"enabled"`
		// Шаблон ссылки сброса пароля, {token} заменяется на токен
		ResetURL string `yaml:"reset_url"`
	} `yaml:"email"`

	JWT struct {
		Secret     string `yaml:"secret"`
		AccessTTL  int    `yaml:"access_ttl"`  // минуты
		RefreshTTL int    `yaml:"refresh_ttl"` // часы
	} `yaml:"jwt"`

	Storage struct {
		Type      string `yaml:"type"`      // local, s3, cloudflare_r2
		BasePath  string `yaml:"base_path"` // For local storage
		MediaURL  string `yaml:"media_url"` // URL prefix of stored files, e.g. /media/
		Bucket    string `yaml:"bucket"`    // For S3/R2
		Region    string `yaml:"region"`    // For S3
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Endpoint  string `yaml:"endpoint"` // For R2 or custom S3
		UseSSL    bool   `yaml:"use_ssl"`
		// Пересчитать производные URL при старте (после смены site_url / media_url)
		ResyncOnStart bool `yaml:"resync_on_start"`
	} `yaml:"storage"`

	Upload struct {
		MaxSize           int64    `yaml:"max_size"`           // bytes
		AllowedExtensions []string `yaml:"allowed_extensions"` // без точки
		DecodeTimeout     int      `yaml:"decode_timeout"`     // секунды
	} `yaml:"upload"`

	Lock struct {
		Backend   string `yaml:"backend"` // memory, redis
		RedisAddr string `yaml:"redis_addr"`
		RedisDB   int    `yaml:"redis_db"`
		TTL       int    `yaml:"ttl"` // секунды
	} `yaml:"lock"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

// Defaults возвращает конфигурацию со значениями по умолчанию
func Defaults() *Config {
	var cfg Config

	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8000
	cfg.Server.Env = "development"
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}

	cfg.Database.Driver = "postgres"

	cfg.Email.SMTPPort = 587
	cfg.Email.FromName = "Portfolio"
	cfg.Email.ResetURL = "http://localhost:3000/reset-password?token={token}"

	cfg.JWT.AccessTTL = 60
	cfg.JWT.RefreshTTL = 24 * 7

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./media"
	cfg.Storage.MediaURL = "/media/"

	cfg.Upload.MaxSize = 5 * 1024 * 1024 // 5MB
	cfg.Upload.AllowedExtensions = []string{"jpg", "jpeg", "png", "webp"}
	cfg.Upload.DecodeTimeout = 5

	cfg.Lock.Backend = "memory"
	cfg.Lock.TTL = 30

	return &cfg
}

// LoadConfig читает YAML (CONFIG_PATH, по умолчанию config/config.yaml) поверх значений
// по умолчанию, затем применяет переменные окружения. Отсутствие файла не ошибка.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	if err := loadFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open config file at %s: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config file at %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SITE_URL"); v != "" {
		cfg.Server.SiteURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Lock.RedisAddr = v
		cfg.Lock.Backend = "redis"
	}
	if v := os.Getenv("FIRST_ADMIN_EMAIL"); v != "" {
		cfg.Admin.Email = v
	}
	if v := os.Getenv("FIRST_ADMIN_PASSWORD"); v != "" {
		cfg.Admin.Password = v
	}
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret (JWT_SECRET) is required")
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("upload.max_size must be positive")
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("upload.allowed_extensions must not be empty")
	}
	switch c.Lock.Backend {
	case "memory":
	case "redis":
		if c.Lock.RedisAddr == "" {
			return fmt.Errorf("lock.redis_addr is required for redis lock backend")
		}
	default:
		return fmt.Errorf("unsupported lock backend: %s", c.Lock.Backend)
	}
	return nil
}

// MediaURL возвращает префикс URL файлов, всегда с ведущим и завершающим "/"
func (c *Config) MediaURL() string {
	m := c.Storage.MediaURL
	if m == "" {
		m = "/media/"
	}
	if !strings.HasPrefix(m, "/") && !strings.Contains(m, "://") {
		m = "/" + m
	}
	if !strings.HasSuffix(m, "/") {
		m += "/"
	}
	return m
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.JWT.AccessTTL) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.JWT.RefreshTTL) * time.Hour
}

func (c *Config) DecodeTimeout() time.Duration {
	return time.Duration(c.Upload.DecodeTimeout) * time.Second
}

func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Lock.TTL) * time.Second
}
