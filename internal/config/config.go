package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime configuration. It is read once at startup and
// passed explicitly to the components that need it.
type Config struct {
	Port    string `env:"PORT" env-default:"8080"`
	GinMode string `env:"GIN_MODE" env-default:"debug"`

	DBDriver   string `env:"DB_DRIVER" env-default:"postgres"`
	DBHost     string `env:"DB_HOST" env-default:"localhost"`
	DBPort     string `env:"DB_PORT" env-default:"5432"`
	DBUser     string `env:"DB_USER" env-default:"tracklite"`
	DBPassword string `env:"DB_PASSWORD" env-default:"tracklite"`
	DBName     string `env:"DB_NAME" env-default:"tracklite"`
	DBSSLMode  string `env:"DB_SSL_MODE" env-default:"disable"`

	JWTSecret       string        `env:"JWT_SECRET" env-default:"development-insecure-secret-change-me"`
	JWTIssuer       string        `env:"JWT_ISSUER" env-default:"tracklite-api"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"24h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"720h"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID" env-default:""`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET" env-default:""`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" env-default:"http://localhost:8080/api/auth/google/callback"`
	FrontendURL        string `env:"FRONTEND_URL" env-default:"http://localhost:3000"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := new(Config)
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
