package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config - structure holding the application configuration
type Config struct {
	ServerAddress string        `mapstructure:"SERVER_ADDRESS"`
	PostgresConn  string        `mapstructure:"POSTGRES_CONN"`
	PostgresUser  string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass  string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost  string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort  string        `mapstructure:"POSTGRES_PORT"`
	PostgresDB    string        `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL  string        `mapstructure:"MIGRATION_URL"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RuleCacheTTL  time.Duration `mapstructure:"RULE_CACHE_TTL"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(path string) (cfg Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}
	err = viper.Unmarshal(&cfg)
	return
}
