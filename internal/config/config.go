package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the monitor service.
type Config struct {
	// HTTP
	HTTPPort string

	// Logging
	LogLevel string

	// Scheduler
	PollInterval time.Duration

	// Alert combination mode: itemized or summarized
	CombinationMode string

	// Initial readings
	InitialSpeedKmh     float64
	InitialBatterySoC   float64
	InitialTirePressure float64

	// Default thresholds
	SpeedLowKmh     float64
	SpeedHighKmh    float64
	BatteryWarnLow  float64
	BatteryCritLow  float64
	TireWarnLowPsi  float64
	TireWarnHighPsi float64
	TireCritLowPsi  float64
	TireCritHighPsi float64

	// Simulated CAN bus source
	SimulatorEnabled bool

	// Kafka alert sink (disabled when no brokers configured)
	KafkaBrokers []string
	KafkaTopic   string

	// Redis live-state mirror (disabled when empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads configuration from the environment, loading .env first if present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		PollInterval:        time.Duration(getEnvInt("POLL_INTERVAL_MS", 100)) * time.Millisecond,
		CombinationMode:     getEnv("COMBINATION_MODE", "itemized"),
		InitialSpeedKmh:     getEnvFloat("INITIAL_SPEED_KMH", 0),
		InitialBatterySoC:   getEnvFloat("INITIAL_BATTERY_SOC", 100),
		InitialTirePressure: getEnvFloat("INITIAL_TIRE_PRESSURE_PSI", 32),
		SpeedLowKmh:         getEnvFloat("SPEED_LOW_KMH", 0),
		SpeedHighKmh:        getEnvFloat("SPEED_HIGH_KMH", 120),
		BatteryWarnLow:      getEnvFloat("BATTERY_WARN_LOW_PCT", 20),
		BatteryCritLow:      getEnvFloat("BATTERY_CRIT_LOW_PCT", 10),
		TireWarnLowPsi:      getEnvFloat("TIRE_WARN_LOW_PSI", 28),
		TireWarnHighPsi:     getEnvFloat("TIRE_WARN_HIGH_PSI", 35),
		TireCritLowPsi:      getEnvFloat("TIRE_CRIT_LOW_PSI", 25),
		TireCritHighPsi:     getEnvFloat("TIRE_CRIT_HIGH_PSI", 40),
		SimulatorEnabled:    getEnvBool("SIMULATOR_ENABLED", true),
		KafkaBrokers:        splitCSV(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "vehicle.alerts"),
		RedisAddr:           getEnv("REDIS_ADDR", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RedisDB:             getEnvInt("REDIS_DB", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
