package config

import (
	"fmt"
	"github.com/spf13/viper"
)

// NotifierConfig enables telegram messages to the admin chat when both
// fields are set.
type NotifierConfig struct {
	TelegramToken string `mapstructure:"telegram_token"`
	AdminChatID   int64  `mapstructure:"admin_chat_id"`
}

func (config NotifierConfig) Enabled() bool {
	return config.TelegramToken != "" && config.AdminChatID != 0
}

func (config NotifierConfig) validate() error {
	if config.TelegramToken != "" && config.AdminChatID == 0 {
		return fmt.Errorf("missing variable: admin_chat_id")
	}
	return nil
}

func (config NotifierConfig) bindEnvironmentVariables(v *viper.Viper) error {
	return bindAll(v, map[string]string{
		"notifier.telegram_token": "TG_TOKEN",
		"notifier.admin_chat_id":  "ADMIN_CHAT_ID",
	})
}
