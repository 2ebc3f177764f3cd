// Package config loads process configuration from environment variables,
// following the same optional-.env-plus-typed-getter shape every service in
// this repository uses.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/marketpnl/pipeline/internal/money"
)

// Pipeline holds the environment knobs shared by every service.
type Pipeline struct {
	KafkaBrokers []string
	MongoURI     string

	BatchIntervalMS        int
	MemoryRetentionMS      int
	QueriedRangeRetentionMS int
	MarketBufferSize       int
	WaitTimeoutMS          int

	TradingFee decimal.Decimal

	GRPCPort              string
	TradesServiceHost     string
	TradesServicePort     string
	PersistenceServiceHost string
	PersistenceServicePort string

	Debug bool
}

// Load reads the shared Pipeline knobs. It attempts to load a .env file
// first (ignored if absent), matching configs.AppLoad's behavior.
func Load() Pipeline {
	_ = godotenv.Load()

	return Pipeline{
		KafkaBrokers: splitCSV(getEnv("KAFKA_BROKERS", "localhost:9092")),
		MongoURI:     getEnv("MONGODB_URI", "mongodb://localhost:27017"),

		BatchIntervalMS:         getEnvInt("BATCH_INTERVAL_MS", 10000),
		MemoryRetentionMS:       getEnvInt("MEMORY_RETENTION_MS", 10000),
		QueriedRangeRetentionMS: getEnvInt("QUERIED_RANGE_RETENTION_MS", 60000),
		MarketBufferSize:        getEnvInt("MARKET_BUFFER_SIZE", 100),
		WaitTimeoutMS:           getEnvInt("WAIT_TIMEOUT_MS", 3000),

		TradingFee: money.ParseFee(getEnv("TRADING_FEE_PER_MWH", money.DefaultFeePerMWh)),

		GRPCPort:               getEnv("GRPC_PORT", "50051"),
		TradesServiceHost:      getEnv("TRADES_SERVICE_HOST", "localhost"),
		TradesServicePort:      getEnv("TRADES_SERVICE_PORT", "50051"),
		PersistenceServiceHost: getEnv("PERSISTENCE_SERVICE_HOST", "localhost"),
		PersistenceServicePort: getEnv("PERSISTENCE_SERVICE_PORT", "50052"),

		Debug: getEnv("DEBUG", "false") == "true",
	}
}

// BatchInterval, MemoryRetention, QueriedRangeRetention and WaitTimeout
// convert the millisecond knobs to time.Duration for direct use by timers.
func (p Pipeline) BatchInterval() time.Duration         { return time.Duration(p.BatchIntervalMS) * time.Millisecond }
func (p Pipeline) MemoryRetention() time.Duration       { return time.Duration(p.MemoryRetentionMS) * time.Millisecond }
func (p Pipeline) QueriedRangeRetention() time.Duration { return time.Duration(p.QueriedRangeRetentionMS) * time.Millisecond }
func (p Pipeline) WaitTimeout() time.Duration           { return time.Duration(p.WaitTimeoutMS) * time.Millisecond }

// HealthPort is GRPC_PORT+1 by convention.
func (p Pipeline) HealthPort() string {
	n, err := strconv.Atoi(p.GRPCPort)
	if err != nil {
		return "8081"
	}
	return strconv.Itoa(n + 1)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

func splitCSV(raw string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	if len(out) == 0 {
		return []string{raw}
	}
	return out
}
