package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at an empty secrets directory and a known environment.
func isolate(t *testing.T, env string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("CI", "")
	t.Setenv("ENV", env)
	return dir
}

func TestLoadConfig(t *testing.T) {
	isolate(t, "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_NAME", "foodgram_test")
	t.Setenv("DB_SSL_MODE", "require")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET_NAME", "recipes")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Test, cfg.Environment)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "5433", cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, "postgres", cfg.Database.Password)
	assert.Equal(t, "foodgram_test", cfg.Database.Name)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "redis://localhost:6379", cfg.Redis.URL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "s3", cfg.Storage.Driver)
	assert.Equal(t, "recipes", cfg.Storage.Bucket)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "host=db port=5433 user=postgres password=postgres dbname=foodgram_test sslmode=require", cfg.Database.DSN())
}

func TestLoadConfigWithDefaults(t *testing.T) {
	isolate(t, "development")
	t.Setenv("JWT_SECRET", "dev-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, 6, cfg.ShortLink.MinLength)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfigReadsDockerSecrets(t *testing.T) {
	dir := isolate(t, "development")
	t.Setenv("JWT_SECRET", "from-env")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db_password"), []byte("hunter2"), 0o600))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-secret", cfg.JWT.Secret)
	assert.Equal(t, "hunter2", cfg.Database.Password)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	isolate(t, "development")
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestValidateConfigProduction(t *testing.T) {
	cfg := &Config{
		Environment: Production,
		Server:      ServerConfig{Port: "8080"},
		Database:    DatabaseConfig{Driver: "sqlite", SQLitePath: "x.db"},
		JWT:         JWTConfig{Secret: "short", TTL: time.Hour},
		Storage:     StorageConfig{Driver: "local", LocalDir: "media", MaxImageBytes: 1},
	}

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite is not supported in production")
	assert.Contains(t, err.Error(), "at least 32 characters")
}

func TestValidateConfigUnknownStorageDriver(t *testing.T) {
	cfg := &Config{
		Environment: Development,
		Server:      ServerConfig{Port: "8080"},
		Database:    DatabaseConfig{Driver: "sqlite", SQLitePath: "x.db"},
		JWT:         JWTConfig{Secret: "secret", TTL: time.Hour},
		Storage:     StorageConfig{Driver: "ftp", MaxImageBytes: 1},
	}

	err := ValidateConfig(cfg)
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "storage.driver", verr.Field)
}

func TestGetEnvironment(t *testing.T) {
	tests := []struct {
		ci, env string
		want    Environment
	}{
		{"true", "production", CI},
		{"", "production", Production},
		{"", "PROD", Production},
		{"", "test", Test},
		{"", "", Development},
		{"", "staging", Development},
	}
	for _, tt := range tests {
		t.Run(tt.ci+"/"+tt.env, func(t *testing.T) {
			t.Setenv("CI", tt.ci)
			t.Setenv("ENV", tt.env)
			env := GetEnvironment()
			assert.Equal(t, tt.want, env)
			assert.Equal(t, tt.want == Production || tt.want == CI, env.Strict())
		})
	}
}
