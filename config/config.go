package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Mongo.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// At-rest encryption: the extra secret that must be known, beyond the
	// database files, to decrypt stored documents.
	SaltDeploy string `mapstructure:"SALT_DEPLOY"`

	// Service-to-service auth.
	ServerName   string `mapstructure:"SERVER_NAME"`
	ServerSecret string `mapstructure:"SERVER_SECRET"`

	// External collaborators.
	UserAPIURL    string `mapstructure:"USER_API_URL"`
	GatekeeperURL string `mapstructure:"GATEKEEPER_URL"`

	// Redis (session-token cache).
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "9120")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "petrel")
	viper.SetDefault("SERVER_NAME", "petrel")
	viper.SetDefault("USER_API_URL", "http://localhost:9107")
	viper.SetDefault("GATEKEEPER_URL", "http://localhost:9123")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
