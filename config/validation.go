package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for its environment.
// All problems are reported together.
func ValidateConfig(cfg *Config) error {
	var errs []error
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if cfg.Server.Port == "" {
		add("server.port", "is required")
	}
	if cfg.Server.PublicURL != "" {
		if u, err := url.Parse(cfg.Server.PublicURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("server.public_url", "must be an absolute URL")
		}
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" {
			add("database.host", "is required")
		}
		if cfg.Database.Name == "" {
			add("database.name", "is required")
		}
		if cfg.Environment.Strict() {
			if cfg.Database.Password == "" {
				add("database.password", "db_password secret is required")
			}
		}
	case "sqlite":
		if cfg.Database.SQLitePath == "" {
			add("database.sqlite_path", "is required")
		}
		if cfg.Environment == Production {
			add("database.driver", "sqlite is not supported in production")
		}
	default:
		add("database.driver", fmt.Sprintf("unknown driver %q", cfg.Database.Driver))
	}

	if cfg.JWT.Secret == "" {
		add("jwt.secret", "jwt_secret secret is required")
	} else if cfg.Environment == Production && len(cfg.JWT.Secret) < 32 {
		add("jwt.secret", "must be at least 32 characters in production")
	}
	if cfg.JWT.TTL <= 0 {
		add("jwt.ttl", "must be positive")
	}

	switch cfg.Storage.Driver {
	case "s3":
		if cfg.Storage.Bucket == "" {
			add("storage.bucket", "is required for s3")
		}
	case "minio":
		if cfg.Storage.Endpoint == "" {
			add("storage.endpoint", "is required for minio")
		}
		if cfg.Storage.AccessKeyID == "" || cfg.Storage.SecretAccessKey == "" {
			add("storage.access_key_id", "minio credentials are required")
		}
		if cfg.Storage.Bucket == "" {
			add("storage.bucket", "is required for minio")
		}
	case "local":
		if cfg.Storage.LocalDir == "" {
			add("storage.local_dir", "is required for local storage")
		}
	default:
		add("storage.driver", fmt.Sprintf("unknown driver %q", cfg.Storage.Driver))
	}
	if cfg.Storage.MaxImageBytes <= 0 {
		add("storage.max_image_bytes", "must be positive")
	}

	if cfg.ShortLink.MinLength < 0 || cfg.ShortLink.MinLength > 255 {
		add("shortlink.min_length", "must be between 0 and 255")
	}

	if cfg.RateLimit.RecipeCreatePerHour < 0 || cfg.RateLimit.RecipeUpdatePerHour < 0 {
		add("ratelimit", "limits must not be negative")
	}

	return errors.Join(errs...)
}
