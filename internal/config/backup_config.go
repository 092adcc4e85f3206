package config

import (
	"fmt"
	"github.com/spf13/viper"
)

type BackupConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

func (config BackupConfig) validate() error {
	if config.Enabled && config.Schedule == "" {
		return fmt.Errorf("missing variable: schedule")
	}
	return nil
}

func (config BackupConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"backup.enabled":  "BACKUP_ENABLED",
		"backup.schedule": "BACKUP_SCHEDULE",
	})
}
