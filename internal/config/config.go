package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MQTT      MQTTConfig
	Health    HealthConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	HeartbeatTopic string
	QoS            int
	WorkerCount    int
	BufferSize     int
	BatchSize      int
	FlushInterval  time.Duration
}

// HealthConfig holds the health classification cutoffs. The thresholds are
// tunable per deployment; the shipped defaults live in setDefaults.
type HealthConfig struct {
	HealthyUptimeRatio   float64
	HealthyMaxStaleness  time.Duration
	DegradedUptimeRatio  float64
	DegradedMaxStaleness time.Duration
	DefaultWindowHours   int
	DefaultHistoryDays   int
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		MQTT: MQTTConfig{
			Broker:         viper.GetString("MQTT_BROKER"),
			ClientID:       viper.GetString("MQTT_CLIENT_ID"),
			Username:       viper.GetString("MQTT_USERNAME"),
			Password:       viper.GetString("MQTT_PASSWORD"),
			HeartbeatTopic: viper.GetString("MQTT_HEARTBEAT_TOPIC"),
			QoS:            viper.GetInt("MQTT_QOS"),
			WorkerCount:    viper.GetInt("MQTT_WORKER_COUNT"),
			BufferSize:     viper.GetInt("MQTT_BUFFER_SIZE"),
			BatchSize:      viper.GetInt("MQTT_BATCH_SIZE"),
			FlushInterval:  viper.GetDuration("MQTT_FLUSH_INTERVAL"),
		},
		Health: HealthConfig{
			HealthyUptimeRatio:   viper.GetFloat64("HEALTH_HEALTHY_UPTIME_RATIO"),
			HealthyMaxStaleness:  viper.GetDuration("HEALTH_HEALTHY_MAX_STALENESS"),
			DegradedUptimeRatio:  viper.GetFloat64("HEALTH_DEGRADED_UPTIME_RATIO"),
			DegradedMaxStaleness: viper.GetDuration("HEALTH_DEGRADED_MAX_STALENESS"),
			DefaultWindowHours:   viper.GetInt("HEALTH_DEFAULT_WINDOW_HOURS"),
			DefaultHistoryDays:   viper.GetInt("HEALTH_DEFAULT_HISTORY_DAYS"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
	}

	return config, nil
}

func setDefaults() {
	viper.SetDefault("MQTT_CLIENT_ID", "fleet-device-monitor")
	viper.SetDefault("MQTT_HEARTBEAT_TOPIC", "devices/+/heartbeat")
	viper.SetDefault("MQTT_QOS", 1)
	viper.SetDefault("MQTT_WORKER_COUNT", 4)
	viper.SetDefault("MQTT_BUFFER_SIZE", 1000)
	viper.SetDefault("MQTT_BATCH_SIZE", 50)
	viper.SetDefault("MQTT_FLUSH_INTERVAL", "5s")

	viper.SetDefault("HEALTH_HEALTHY_UPTIME_RATIO", 0.9)
	viper.SetDefault("HEALTH_HEALTHY_MAX_STALENESS", "15m")
	viper.SetDefault("HEALTH_DEGRADED_UPTIME_RATIO", 0.5)
	viper.SetDefault("HEALTH_DEGRADED_MAX_STALENESS", "60m")
	viper.SetDefault("HEALTH_DEFAULT_WINDOW_HOURS", 24)
	viper.SetDefault("HEALTH_DEFAULT_HISTORY_DAYS", 30)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}
