package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a J.E.E.V.E.S. agent
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration
	EnableHistory              bool
	HistoryRetentionDays       int

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Location for sun position
	Latitude  float64
	Longitude float64

	// Adaptive agent configuration
	ZonesFile             string
	TickIntervalSec       int
	MinRecalcIntervalMs   int
	BaseTimeoutSec        int
	NotifyTimeoutSec      int
	BoundariesCacheSec    int
	IlluminanceMaxAgeMin  int
	SensorTopics          []string
	LuxSensorID           string
	WeatherSensorID       string
	CloudCoverageSensorID string

	// Wake sequence configuration
	WakeTargetZone  string
	WakeRampMinutes int
	WakeMaxBoost    int
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "jeeves",
		PostgresPassword:           "",
		PostgresDB:                 "jeeves",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     5,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
		EnableHistory:              false,
		HistoryRetentionDays:       30,

		ServiceName: "adaptive-agent",
		HealthPort:  8080,
		LogLevel:    "info",

		// Helsinki coordinates
		Latitude:  60.1695,
		Longitude: 24.9354,

		ZonesFile:             "zones.yaml",
		TickIntervalSec:       60,
		MinRecalcIntervalMs:   5000,
		BaseTimeoutSec:        1800,
		NotifyTimeoutSec:      10,
		BoundariesCacheSec:    600,
		IlluminanceMaxAgeMin:  15,
		SensorTopics:          []string{"automation/sensor/+/+"},
		LuxSensorID:           "illuminance/outdoor",
		WeatherSensorID:       "weather/condition",
		CloudCoverageSensorID: "weather/cloud_coverage",

		WakeTargetZone:  "bedroom",
		WakeRampMinutes: 15,
		WakeMaxBoost:    20,
	}
}

// LoadFromEnv loads configuration from environment variables with JEEVES_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("JEEVES_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	envInt("JEEVES_MQTT_PORT", &c.MQTTPort)
	if v := os.Getenv("JEEVES_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("JEEVES_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("JEEVES_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("JEEVES_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	envInt("JEEVES_REDIS_PORT", &c.RedisPort)
	if v := os.Getenv("JEEVES_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	envInt("JEEVES_REDIS_DB", &c.RedisDB)

	// Postgres configuration
	if v := os.Getenv("JEEVES_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	envInt("JEEVES_POSTGRES_PORT", &c.PostgresPort)
	if v := os.Getenv("JEEVES_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("JEEVES_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}
	envInt("JEEVES_POSTGRES_MAX_CONNECTIONS", &c.PostgresMaxConnections)
	envInt("JEEVES_POSTGRES_MAX_IDLE_CONNECTIONS", &c.PostgresMaxIdleConnections)
	if v := os.Getenv("JEEVES_POSTGRES_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PostgresConnMaxLifetime = d
		}
	}
	if v := os.Getenv("JEEVES_ENABLE_HISTORY"); v != "" {
		if enable, err := strconv.ParseBool(v); err == nil {
			c.EnableHistory = enable
		}
	}
	envInt("JEEVES_HISTORY_RETENTION_DAYS", &c.HistoryRetentionDays)

	// Service configuration
	if v := os.Getenv("JEEVES_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	envInt("JEEVES_HEALTH_PORT", &c.HealthPort)
	if v := os.Getenv("JEEVES_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Location
	envFloat("JEEVES_LATITUDE", &c.Latitude)
	envFloat("JEEVES_LONGITUDE", &c.Longitude)

	// Adaptive agent configuration
	if v := os.Getenv("JEEVES_ZONES_FILE"); v != "" {
		c.ZonesFile = v
	}
	envInt("JEEVES_TICK_INTERVAL_SEC", &c.TickIntervalSec)
	envInt("JEEVES_MIN_RECALC_INTERVAL_MS", &c.MinRecalcIntervalMs)
	envInt("JEEVES_BASE_TIMEOUT_SEC", &c.BaseTimeoutSec)
	envInt("JEEVES_NOTIFY_TIMEOUT_SEC", &c.NotifyTimeoutSec)
	envInt("JEEVES_BOUNDARIES_CACHE_SEC", &c.BoundariesCacheSec)
	envInt("JEEVES_ILLUMINANCE_MAX_AGE_MIN", &c.IlluminanceMaxAgeMin)
	if v := os.Getenv("JEEVES_SENSOR_TOPICS"); v != "" {
		c.SensorTopics = strings.Split(v, ",")
	}
	if v := os.Getenv("JEEVES_LUX_SENSOR_ID"); v != "" {
		c.LuxSensorID = v
	}
	if v := os.Getenv("JEEVES_WEATHER_SENSOR_ID"); v != "" {
		c.WeatherSensorID = v
	}
	if v := os.Getenv("JEEVES_CLOUD_COVERAGE_SENSOR_ID"); v != "" {
		c.CloudCoverageSensorID = v
	}

	// Wake sequence configuration
	if v := os.Getenv("JEEVES_WAKE_TARGET_ZONE"); v != "" {
		c.WakeTargetZone = v
	}
	envInt("JEEVES_WAKE_RAMP_MINUTES", &c.WakeRampMinutes)
	envInt("JEEVES_WAKE_MAX_BOOST", &c.WakeMaxBoost)
}

func envInt(name string, target *int) {
	if v := os.Getenv(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*target = parsed
		}
	}
}

func envFloat(name string, target *float64) {
	if v := os.Getenv(name); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*target = parsed
		}
	}
}

// RegisterFlags binds command-line flags to the config fields
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres sslmode")
	fs.BoolVar(&c.EnableHistory, "enable-history", c.EnableHistory, "Record tick events in Postgres")
	fs.IntVar(&c.HistoryRetentionDays, "history-retention-days", c.HistoryRetentionDays, "Days of tick history kept in Postgres (0 keeps everything)")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Location flags
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for sun position")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for sun position")

	// Adaptive agent flags
	fs.StringVar(&c.ZonesFile, "zones-file", c.ZonesFile, "YAML file with zone ranges and presets")
	fs.IntVar(&c.TickIntervalSec, "tick-interval", c.TickIntervalSec, "Recompute interval in seconds")
	fs.IntVar(&c.MinRecalcIntervalMs, "min-recalc-interval-ms", c.MinRecalcIntervalMs, "Minimum time between input-triggered recalculations (ms)")
	fs.IntVar(&c.BaseTimeoutSec, "base-timeout", c.BaseTimeoutSec, "Base manual override duration in seconds")
	fs.IntVar(&c.NotifyTimeoutSec, "notify-timeout", c.NotifyTimeoutSec, "Timeout for driver notifications in seconds")
	fs.IntVar(&c.BoundariesCacheSec, "boundaries-cache-sec", c.BoundariesCacheSec, "TTL of cached zone boundaries in Redis (0 disables)")
	fs.IntVar(&c.IlluminanceMaxAgeMin, "illuminance-max-age", c.IlluminanceMaxAgeMin, "Maximum age of collector illuminance readings in minutes")
	fs.StringSliceVar(&c.SensorTopics, "sensor-topics", c.SensorTopics, "MQTT topics feeding the sensor cache")
	fs.StringVar(&c.LuxSensorID, "lux-sensor", c.LuxSensorID, "Sensor id of the illuminance reading")
	fs.StringVar(&c.WeatherSensorID, "weather-sensor", c.WeatherSensorID, "Sensor id of the weather condition")
	fs.StringVar(&c.CloudCoverageSensorID, "cloud-coverage-sensor", c.CloudCoverageSensorID, "Sensor id of the cloud coverage percentage")

	// Wake sequence flags
	fs.StringVar(&c.WakeTargetZone, "wake-zone", c.WakeTargetZone, "Zone ramped ahead of an alarm")
	fs.IntVar(&c.WakeRampMinutes, "wake-ramp-minutes", c.WakeRampMinutes, "Wake ramp duration in minutes")
	fs.IntVar(&c.WakeMaxBoost, "wake-max-boost", c.WakeMaxBoost, "Wake ramp maximum brightness boost")
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.EnableHistory && c.PostgresHost == "" {
		return fmt.Errorf("Postgres host is required when history is enabled")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.ZonesFile == "" {
		return fmt.Errorf("zones file is required")
	}
	if c.TickIntervalSec <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.BaseTimeoutSec <= 0 {
		return fmt.Errorf("base timeout must be positive")
	}
	if c.WakeRampMinutes <= 0 {
		return fmt.Errorf("wake ramp must be positive")
	}
	if c.WakeMaxBoost <= 0 || c.WakeMaxBoost > 100 {
		return fmt.Errorf("wake max boost must be between 1 and 100")
	}
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("invalid coordinates: %f, %f", c.Latitude, c.Longitude)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}

// TickInterval returns the orchestration tick interval
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalSec) * time.Second
}

// BaseTimeout returns the base manual override duration
func (c *Config) BaseTimeout() time.Duration {
	return time.Duration(c.BaseTimeoutSec) * time.Second
}

// WakeRamp returns the wake ramp duration
func (c *Config) WakeRamp() time.Duration {
	return time.Duration(c.WakeRampMinutes) * time.Minute
}
