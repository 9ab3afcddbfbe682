package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret   string
	ApprovalSecret string
}

type OrdersConfig struct {
	VATRate    float64
	SessionTTL time.Duration
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Orders      OrdersConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret:   v.GetString("JWT_ACCESS_SECRET"),
			ApprovalSecret: v.GetString("JWT_APPROVAL_SECRET"),
		},
		Orders: OrdersConfig{
			VATRate:    v.GetFloat64("ORDERS_VAT_RATE"),
			SessionTTL: v.GetDuration("ORDERS_SESSION_TTL"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7092
	}
	if cfg.Orders.VATRate == 0 {
		cfg.Orders.VATRate = 12
	}
	if cfg.Orders.SessionTTL == 0 {
		cfg.Orders.SessionTTL = 4 * time.Hour
	}
	if cfg.Auth.ApprovalSecret == "" {
		// Single-secret deployments sign approval tokens with the access secret.
		cfg.Auth.ApprovalSecret = cfg.Auth.AccessSecret
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Orders.VATRate < 0 || cfg.Orders.VATRate > 100 {
		return fmt.Errorf("ORDERS_VAT_RATE must be between 0 and 100")
	}
	return nil
}
