package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment `mapstructure:"-"`

	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Storage   StorageConfig   `mapstructure:"storage"`
	ShortLink ShortLinkConfig `mapstructure:"shortlink"`
	PDF       PDFConfig       `mapstructure:"pdf"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	PublicURL       string        `mapstructure:"public_url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig contains connection options for PostgreSQL or SQLite.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds a libpq compatible connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// RedisConfig contains Redis connection options. Redis is optional.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

// JWTConfig contains token signing settings.
type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// StorageConfig selects and configures the image store.
type StorageConfig struct {
	Driver          string `mapstructure:"driver"` // s3, minio or local
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	LocalDir        string `mapstructure:"local_dir"`
	MaxImageBytes   int64  `mapstructure:"max_image_bytes"`
}

// ShortLinkConfig configures the recipe short-link encoder.
type ShortLinkConfig struct {
	Alphabet  string `mapstructure:"alphabet"`
	MinLength int    `mapstructure:"min_length"`
}

// PDFConfig configures the shopping list document.
type PDFConfig struct {
	FontPath string `mapstructure:"font_path"`
	Title    string `mapstructure:"title"`
	Footer   string `mapstructure:"footer"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RateLimitConfig holds per-user hourly limits. Zero disables a limiter.
type RateLimitConfig struct {
	RecipeCreatePerHour int `mapstructure:"recipe_create_per_hour"`
	RecipeUpdatePerHour int `mapstructure:"recipe_update_per_hour"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoadConfig builds a Config from defaults, environment variables and Docker secrets,
// then validates it for the current environment.
func LoadConfig() (*Config, error) {
	env := GetEnvironment()

	v := viper.New()
	setDefaults(v, env)
	v.AutomaticEnv()
	if err := bindEnv(v, env); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Environment = env

	// CI passes secrets as environment variables only.
	if env != CI {
		applySecrets(cfg)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, env Environment) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "foodgram")
	v.SetDefault("database.name", "foodgram")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.sqlite_path", "foodgram.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", env != Production)

	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.bucket", "foodgram-media")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.local_dir", "media")
	v.SetDefault("storage.max_image_bytes", 5<<20)

	v.SetDefault("shortlink.alphabet", "")
	v.SetDefault("shortlink.min_length", 6)

	v.SetDefault("pdf.title", "Shopping list")
	v.SetDefault("pdf.footer", "Foodgram")

	v.SetDefault("log.level", "info")
	if env == Production {
		v.SetDefault("log.format", "json")
	} else {
		v.SetDefault("log.format", "console")
	}

	v.SetDefault("ratelimit.recipe_create_per_hour", 20)
	v.SetDefault("ratelimit.recipe_update_per_hour", 60)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
}

func bindEnv(v *viper.Viper, env Environment) error {
	mappings := map[string][]string{
		"server.host":                      {"SERVER_HOST"},
		"server.port":                      {"SERVER_PORT"},
		"server.public_url":                {"PUBLIC_URL"},
		"database.driver":                  {"DB_DRIVER"},
		"database.host":                    {"DB_HOST"},
		"database.port":                    {"DB_PORT"},
		"database.user":                    {"DB_USER"},
		"database.password":                {"DB_PASSWORD"},
		"database.name":                    {"DB_NAME"},
		"database.sslmode":                 {"DB_SSL_MODE"},
		"database.sqlite_path":             {"SQLITE_PATH"},
		"database.auto_migrate":            {"DB_AUTO_MIGRATE"},
		"redis.url":                        {"REDIS_URL"},
		"redis.host":                       {"REDIS_HOST"},
		"redis.port":                       {"REDIS_PORT"},
		"redis.password":                   {"REDIS_PASSWORD"},
		"jwt.secret":                       {"JWT_SECRET"},
		"jwt.ttl":                          {"JWT_TTL"},
		"storage.driver":                   {"STORAGE_DRIVER"},
		"storage.bucket":                   {"S3_BUCKET_NAME"},
		"storage.region":                   {"AWS_REGION"},
		"storage.endpoint":                 {"STORAGE_ENDPOINT"},
		"storage.access_key_id":            {"STORAGE_ACCESS_KEY_ID"},
		"storage.secret_access_key":        {"STORAGE_SECRET_ACCESS_KEY"},
		"storage.use_ssl":                  {"STORAGE_USE_SSL"},
		"storage.public_base_url":          {"STORAGE_PUBLIC_URL"},
		"storage.local_dir":                {"MEDIA_DIR"},
		"shortlink.alphabet":               {"SHORTLINK_ALPHABET"},
		"shortlink.min_length":             {"SHORTLINK_MIN_LENGTH"},
		"pdf.font_path":                    {"PDF_FONT_PATH"},
		"log.level":                        {"LOG_LEVEL"},
		"log.format":                       {"LOG_FORMAT"},
		"ratelimit.recipe_create_per_hour": {"RATE_LIMIT_RECIPE_CREATE"},
		"ratelimit.recipe_update_per_hour": {"RATE_LIMIT_RECIPE_UPDATE"},
		"cors.allowed_origins":             {"CORS_ALLOWED_ORIGINS"},
	}

	// GitHub Actions exposes secrets with a TEST_ prefix.
	if env == CI {
		mappings["database.password"] = append(mappings["database.password"], "TEST_DB_PASSWORD")
		mappings["jwt.secret"] = append(mappings["jwt.secret"], "TEST_JWT_SECRET")
		mappings["redis.password"] = append(mappings["redis.password"], "TEST_REDIS_PASSWORD")
		mappings["redis.url"] = append(mappings["redis.url"], "TEST_REDIS_URL")
	}

	for key, names := range mappings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

// applySecrets overrides sensitive values with Docker secrets when present.
func applySecrets(cfg *Config) {
	secrets := map[string]*string{
		"db_user":                   &cfg.Database.User,
		"db_password":               &cfg.Database.Password,
		"jwt_secret":                &cfg.JWT.Secret,
		"redis_password":            &cfg.Redis.Password,
		"redis_url":                 &cfg.Redis.URL,
		"storage_access_key_id":     &cfg.Storage.AccessKeyID,
		"storage_secret_access_key": &cfg.Storage.SecretAccessKey,
		"shortlink_alphabet":        &cfg.ShortLink.Alphabet,
	}
	for name, dst := range secrets {
		if value := readSecret(name); value != "" {
			*dst = value
		}
	}
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
