package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Clinic-local wall clock. Every stored date/time string is in this zone.
	ClinicTimezone string `mapstructure:"CLINIC_TIMEZONE"`

	// Outbound gateways.
	PushGatewayURL string `mapstructure:"PUSH_GATEWAY_URL"`
	SMSGatewayURL  string `mapstructure:"SMS_GATEWAY_URL"`

	// Link bases embedded in patient-facing messages.
	BaseURL       string `mapstructure:"BASE_URL"`
	PatientAppURL string `mapstructure:"PATIENT_APP_URL"`

	// Verbose walk-in placement tracing.
	DebugWalkIn bool `mapstructure:"DEBUG_WALK_IN"`
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

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "clinq")
	viper.SetDefault("CLINIC_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("PUSH_GATEWAY_URL", "http://localhost:9000")
	viper.SetDefault("SMS_GATEWAY_URL", "http://localhost:9001")
	viper.SetDefault("BASE_URL", "http://localhost:8080")
	viper.SetDefault("PATIENT_APP_URL", "http://localhost:3000")
	viper.SetDefault("DEBUG_WALK_IN", false)

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
