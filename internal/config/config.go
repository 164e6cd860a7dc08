package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

// CardCodecKey and JWTSecret must not share key material.
type Config struct {
	DatabaseURL  string        `env:"DATABASE_URL,required"`
	JWTSecret    string        `env:"JWT_SECRET,required"`
	JWTExpiry    time.Duration `env:"JWT_EXPIRY" envDefault:"1h"`
	CardCodecKey string        `env:"CARD_CODEC_KEY,required"`
	Port         int           `env:"PORT" envDefault:"8080"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv       string        `env:"APP_ENV" envDefault:"production"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
