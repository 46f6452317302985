package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix es el prefijo de las variables de entorno. "__" separa niveles:
// PETREC_DATABASE__DSN -> database.dsn
const EnvPrefix = "PETREC_"

// ConfigPathEnvVar permite indicar el archivo YAML por env.
const ConfigPathEnvVar = "CONFIG_PATH"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	Blob      BlobConfig      `koanf:"blob"`
	Email     EmailConfig     `koanf:"email"`
	Outbox    OutboxConfig    `koanf:"outbox"`
	Dedup     DedupConfig     `koanf:"dedup"`
	Jobs      JobsConfig      `koanf:"jobs"`
	CORS      CORSConfig      `koanf:"cors"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Plans     PlansConfig     `koanf:"plans"`
	Shares    SharesConfig    `koanf:"shares"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	App    string `koanf:"app"`
}

type DatabaseConfig struct {
	// DSN vacío => repos in-memory (modo dev).
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

type AuthMode string

const (
	AuthModeDev    AuthMode = "dev"
	AuthModeJWT    AuthMode = "jwt"
	AuthModeGoTrue AuthMode = "gotrue"
)

type AuthConfig struct {
	Mode         AuthMode      `koanf:"mode"`
	JWTSecret    string        `koanf:"jwt_secret"`
	JWTIssuer    string        `koanf:"jwt_issuer"`
	JWTAudience  string        `koanf:"jwt_audience"`
	GoTrueURL    string        `koanf:"gotrue_url"`
	GoTrueAPIKey string        `koanf:"gotrue_api_key"`
	Timeout      time.Duration `koanf:"timeout"`
}

type BlobConfig struct {
	Driver         string        `koanf:"driver"` // memory | s3
	Bucket         string        `koanf:"bucket"`
	Region         string        `koanf:"region"`
	Endpoint       string        `koanf:"endpoint"`
	PathStyle      bool          `koanf:"path_style"`
	AccessKeyID    string        `koanf:"access_key_id"`
	SecretKey      string        `koanf:"secret_key"`
	PresignTTL     time.Duration `koanf:"presign_ttl"`
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
}

type EmailConfig struct {
	Driver        string        `koanf:"driver"` // log | resend
	APIKey        string        `koanf:"api_key"`
	BaseURL       string        `koanf:"base_url"`
	From          string        `koanf:"from"`
	ContactTo     string        `koanf:"contact_to"`
	AppURL        string        `koanf:"app_url"`
	RatePerSecond float64       `koanf:"rate_per_second"`
	Timeout       time.Duration `koanf:"timeout"`
}

type OutboxConfig struct {
	Driver       string        `koanf:"driver"` // memory | sqlite
	Path         string        `koanf:"path"`
	PollInterval time.Duration `koanf:"poll_interval"`
	MaxAttempts  int           `koanf:"max_attempts"`
	BaseBackoff  time.Duration `koanf:"base_backoff"`
	MaxBackoff   time.Duration `koanf:"max_backoff"`
	BatchSize    int           `koanf:"batch_size"`
}

type DedupConfig struct {
	Driver        string        `koanf:"driver"` // memory | redis
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	TTL           time.Duration `koanf:"ttl"`
}

type JobsConfig struct {
	Enabled          bool          `koanf:"enabled"`
	Token            string        `koanf:"token"`
	ReminderInterval time.Duration `koanf:"reminder_interval"`
	ReminderWindow   time.Duration `koanf:"reminder_window"`
	WelcomeInterval  time.Duration `koanf:"welcome_interval"`
	Concurrency      int           `koanf:"concurrency"`
	RunTimeout       time.Duration `koanf:"run_timeout"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

type PlansConfig struct {
	BaseURL  string        `koanf:"base_url"`
	APIKey   string        `koanf:"api_key"`
	AllowAll bool          `koanf:"allow_all"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

type SharesConfig struct {
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxTTL     time.Duration `koanf:"max_ttl"`
}

// Default devuelve la config base. Sirve para dev sin archivo ni env.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text", App: "pet-records"},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Auth: AuthConfig{Mode: AuthModeDev, Timeout: 5 * time.Second},
		Blob: BlobConfig{
			Driver:         "memory",
			Region:         "us-east-1",
			PresignTTL:     15 * time.Minute,
			MaxUploadBytes: 20 << 20,
		},
		Email: EmailConfig{
			Driver:        "log",
			BaseURL:       "https://api.resend.com",
			From:          "Pet Records <no-reply@petrecords.local>",
			ContactTo:     "support@petrecords.local",
			AppURL:        "http://localhost:5173",
			RatePerSecond: 2,
			Timeout:       10 * time.Second,
		},
		Outbox: OutboxConfig{
			Driver:       "memory",
			Path:         "data/outbox.db",
			PollInterval: 15 * time.Second,
			MaxAttempts:  6,
			BaseBackoff:  30 * time.Second,
			MaxBackoff:   30 * time.Minute,
			BatchSize:    20,
		},
		Dedup: DedupConfig{Driver: "memory", TTL: 3 * time.Second},
		Jobs: JobsConfig{
			Enabled:          false,
			ReminderInterval: 15 * time.Minute,
			ReminderWindow:   time.Hour,
			WelcomeInterval:  30 * time.Minute,
			Concurrency:      4,
			RunTimeout:       2 * time.Minute,
		},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: RateLimitConfig{Requests: 5, Window: time.Minute},
		Plans:     PlansConfig{AllowAll: true, CacheTTL: 5 * time.Minute},
		Shares:    SharesConfig{DefaultTTL: 7 * 24 * time.Hour, MaxTTL: 30 * 24 * time.Hour},
	}
}

// Load arma la config por capas: defaults -> archivo YAML (opcional) -> env.
// path vacío => CONFIG_PATH o config.yaml/config.yml si existen.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: defaults: %w", err)
	}

	if p := findConfigFile(path); p != "" {
		if err := k.Load(file.Provider(p), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: file %s: %w", p, err)
		}
	}

	// Vars legacy (PORT, DB_DSN, LOG_*), antes que las PETREC_ para que éstas ganen
	if err := k.Load(env.ProviderWithValue("", ".", legacyEnv), nil); err != nil {
		return Config{}, fmt.Errorf("config: legacy env: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: env: %w", err)
	}

	if err := splitCSV(k, "cors.allowed_origins"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rechaza combinaciones que fallarían recién en runtime.
func (c Config) Validate() error {
	var errs []error

	switch c.Auth.Mode {
	case AuthModeDev:
	case AuthModeJWT:
		if strings.TrimSpace(c.Auth.JWTSecret) == "" {
			errs = append(errs, errors.New("auth.jwt_secret required when auth.mode=jwt"))
		}
	case AuthModeGoTrue:
		if strings.TrimSpace(c.Auth.GoTrueURL) == "" || strings.TrimSpace(c.Auth.GoTrueAPIKey) == "" {
			errs = append(errs, errors.New("auth.gotrue_url and auth.gotrue_api_key required when auth.mode=gotrue"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode %q not supported", c.Auth.Mode))
	}

	switch c.Blob.Driver {
	case "memory":
	case "s3":
		if strings.TrimSpace(c.Blob.Bucket) == "" {
			errs = append(errs, errors.New("blob.bucket required when blob.driver=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q not supported", c.Blob.Driver))
	}

	switch c.Email.Driver {
	case "log":
	case "resend":
		if strings.TrimSpace(c.Email.APIKey) == "" {
			errs = append(errs, errors.New("email.api_key required when email.driver=resend"))
		}
	default:
		errs = append(errs, fmt.Errorf("email.driver %q not supported", c.Email.Driver))
	}

	switch c.Outbox.Driver {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Outbox.Path) == "" {
			errs = append(errs, errors.New("outbox.path required when outbox.driver=sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("outbox.driver %q not supported", c.Outbox.Driver))
	}

	switch c.Dedup.Driver {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Dedup.RedisAddr) == "" {
			errs = append(errs, errors.New("dedup.redis_addr required when dedup.driver=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("dedup.driver %q not supported", c.Dedup.Driver))
	}

	if c.Shares.DefaultTTL <= 0 || c.Shares.MaxTTL < c.Shares.DefaultTTL {
		errs = append(errs, errors.New("shares.default_ttl must be > 0 and <= shares.max_ttl"))
	}

	return errors.Join(errs...)
}

func findConfigFile(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnvVar)); p != "" {
		return p
	}
	for _, p := range defaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKey: PETREC_EMAIL__API_KEY -> email.api_key
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

var legacyEnvKeys = map[string]string{
	"DB_DSN":     "database.dsn",
	"LOG_LEVEL":  "log.level",
	"LOG_FORMAT": "log.format",
	"APP_NAME":   "log.app",
}

// legacyEnv devuelve key "" para todo lo que no sea legacy (koanf lo ignora).
func legacyEnv(key, value string) (string, any) {
	if key == "PORT" {
		return "server.addr", ":" + strings.TrimSpace(value)
	}
	return legacyEnvKeys[key], value
}

func splitCSV(k *koanf.Koanf, path string) error {
	v, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("config: set %s: %w", path, err)
	}
	return nil
}
