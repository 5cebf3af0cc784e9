package config

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Log        LogConfig
	Kafka      KafkaConfig
	Redis      RedisConfig
	Allocation AllocationConfig
	Costing    CostingConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type AllocationConfig struct {
	TxTimeout        time.Duration
	MaxRetryAttempts int
}

// CostingConfig carries the process-wide costing figures read by the cost
// calculators. Injected at construction; there is no global accessor.
type CostingConfig struct {
	AssemblyHourlyRate    decimal.Decimal
	PcbStandardCost       decimal.Decimal
	AccurateVariancePct   decimal.Decimal
	AcceptableVariancePct decimal.Decimal
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 3306)
	viper.SetDefault("DB_USER", "mithril")
	viper.SetDefault("DB_PASSWORD", "secret")
	viper.SetDefault("DB_NAME", "fabrica")
	viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "5m")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("KAFKA_ENABLED", false)
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_TOPIC", "inventory-events")
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_CACHE_TTL", "5m")
	viper.SetDefault("ALLOCATION_TX_TIMEOUT", "5s")
	viper.SetDefault("ALLOCATION_MAX_RETRY_ATTEMPTS", 3)
	viper.SetDefault("COSTING_ASSEMBLY_HOURLY_RATE", "45.00")
	viper.SetDefault("COSTING_PCB_STANDARD_COST", "2.80")
	viper.SetDefault("COSTING_ACCURATE_VARIANCE_PCT", "5")
	viper.SetDefault("COSTING_ACCEPTABLE_VARIANCE_PCT", "15")

	connMaxLifetime, err := time.ParseDuration(viper.GetString("DB_CONN_MAX_LIFETIME"))
	if err != nil {
		return nil, err
	}
	cacheTTL, err := time.ParseDuration(viper.GetString("REDIS_CACHE_TTL"))
	if err != nil {
		return nil, err
	}
	txTimeout, err := time.ParseDuration(viper.GetString("ALLOCATION_TX_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	hourlyRate, err := decimal.NewFromString(viper.GetString("COSTING_ASSEMBLY_HOURLY_RATE"))
	if err != nil {
		return nil, err
	}
	pcbCost, err := decimal.NewFromString(viper.GetString("COSTING_PCB_STANDARD_COST"))
	if err != nil {
		return nil, err
	}
	accuratePct, err := decimal.NewFromString(viper.GetString("COSTING_ACCURATE_VARIANCE_PCT"))
	if err != nil {
		return nil, err
	}
	acceptablePct, err := decimal.NewFromString(viper.GetString("COSTING_ACCEPTABLE_VARIANCE_PCT"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			Name:            viper.GetString("DB_NAME"),
			MaxOpenConns:    viper.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Kafka: KafkaConfig{
			Enabled: viper.GetBool("KAFKA_ENABLED"),
			Brokers: strings.Split(viper.GetString("KAFKA_BROKERS"), ","),
			Topic:   viper.GetString("KAFKA_TOPIC"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
			CacheTTL: cacheTTL,
		},
		Allocation: AllocationConfig{
			TxTimeout:        txTimeout,
			MaxRetryAttempts: viper.GetInt("ALLOCATION_MAX_RETRY_ATTEMPTS"),
		},
		Costing: CostingConfig{
			AssemblyHourlyRate:    hourlyRate,
			PcbStandardCost:       pcbCost,
			AccurateVariancePct:   accuratePct,
			AcceptableVariancePct: acceptablePct,
		},
	}

	return cfg, nil
}
