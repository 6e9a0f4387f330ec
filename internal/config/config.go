package config

import (
	"os"
	"strings"
	"time"
)

type Config struct {
	TaskDBPath     string
	EmployeeDBPath string
	PostgresDSN    string

	MongoURI string
	MongoDB  string

	ClickHouseAddr string
	ClickHouseDB   string

	AuthServiceURL string
	RedisAddr      string

	KafkaBrokers    []string
	UseKafka        bool
	LocalDeployment bool

	CacheTTL     time.Duration
	OutboxPeriod time.Duration
	OutboxLimit  int
	HTTPPort     string
}

func LoadConfig() *Config {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	return &Config{
		TaskDBPath:     getEnv("TASK_SQLITE_PATH", "./hrlab_tasks.db"),
		EmployeeDBPath: getEnv("EMPLOYEE_SQLITE_PATH", "./hrlab_employees.db"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),

		MongoURI: getEnv("MONGO_URI", ""),
		MongoDB:  getEnv("MONGO_DB", "hrlab"),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "hrlab"),

		AuthServiceURL: getEnv("AUTH_SERVICE_URL", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers:    kafkaBrokers,
		UseKafka:        getEnv("USE_KAFKA", "false") == "true",
		LocalDeployment: getEnv("LOCAL_DEPLOYMENT", "true") == "true",

		CacheTTL:     5 * time.Minute,
		OutboxPeriod: 1 * time.Second,
		OutboxLimit:  10,
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
	}
}
