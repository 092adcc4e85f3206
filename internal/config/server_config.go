package config

import (
	"fmt"
	"github.com/spf13/viper"
	"strings"
	"time"
)

type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	BasePath           string        `mapstructure:"base_path"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	LoginRatePerMinute float64       `mapstructure:"login_rate_per_minute"`
}

func (config ServerConfig) Address() string {
	return fmt.Sprintf(":%d", config.Port)
}

func (config ServerConfig) validate() error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", config.Port)
	}
	if config.BasePath != "" && (!strings.HasPrefix(config.BasePath, "/") || strings.HasSuffix(config.BasePath, "/")) {
		return fmt.Errorf("base_path must start and must not end with '/': %q", config.BasePath)
	}
	if config.LoginRatePerMinute < 0 {
		return fmt.Errorf("login_rate_per_minute must not be negative")
	}
	return nil
}

func (config ServerConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"server.port":                  "PORT",
		"server.base_path":             "BASE_PATH",
		"server.login_rate_per_minute": "LOGIN_RATE_PER_MINUTE",
	})
}
