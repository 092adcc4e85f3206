package config

import (
	"fmt"
	"github.com/spf13/viper"
)

type StorageDriver string

const (
	DriverJSON   StorageDriver = "json"
	DriverSqlite StorageDriver = "sqlite"
)

type StorageConfig struct {
	Driver           StorageDriver `mapstructure:"driver"`
	DataDir          string        `mapstructure:"data_dir"`
	ConnectionString string        `mapstructure:"connection_string"`
}

func (config StorageConfig) validate() error {
	switch config.Driver {
	case DriverJSON:
		if config.DataDir == "" {
			return fmt.Errorf("missing variable: data_dir")
		}
	case DriverSqlite:
		if config.ConnectionString == "" {
			return fmt.Errorf("missing variable: db connection string")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", config.Driver)
	}
	return nil
}

func (config StorageConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"storage.driver":            "STORAGE_DRIVER",
		"storage.data_dir":          "DATA_DIR",
		"storage.connection_string": "DB_CONNECTION_STRING",
	})
}
