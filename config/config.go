package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Logger      LoggerConfig
	SQLite      SQLiteConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Scanner     ScannerConfig
	Replication ReplicationConfig
}

type ServerConfig struct {
	AppEnv       string
	TerminalID   string
	GRPCPort     string
	SyncGRPCAddr string
}

type LoggerConfig struct {
	Level             string
	Encoding          string
	DisableCaller     bool
	DisableStacktrace bool
}

type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
}

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int
	ConnMaxIdleTime int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type KafkaConfig struct {
	Brokers      []string
	CatalogTopic string
	GroupID      string
}

type ScannerConfig struct {
	DeviceID         string
	FramesDir        string
	FrameInterval    time.Duration
	DebounceInterval time.Duration
	FallbackFPS      float64
	RestartDelay     time.Duration
}

type ReplicationConfig struct {
	BatchSize    int
	PullInterval time.Duration
	PushInterval time.Duration
	BackoffMax   time.Duration
	CallTimeout  time.Duration
}

func LoadEnv() *Config {
	return &Config{
		Server: ServerConfig{
			AppEnv:       getEnv("APP_ENV", "dev"),
			TerminalID:   getEnv("TERMINAL_ID", hostname()),
			GRPCPort:     getEnv("GRPC_PORT", ":8090"),
			SyncGRPCAddr: getEnv("SYNC_GRPC_ADDR", "localhost:8090"),
		},
		Logger: LoggerConfig{
			Level:             getEnv("LOGGER_LEVEL", "debug"),
			Encoding:          getEnv("LOGGER_ENCODING", "console"),
			DisableCaller:     getEnvBool("LOGGER_DISABLE_CALLER", false),
			DisableStacktrace: getEnvBool("LOGGER_DISABLE_STACKTRACE", true),
		},
		SQLite: SQLiteConfig{
			Path:        getEnv("SQLITE_PATH", "omnipos_terminal.db"),
			BusyTimeout: getEnvMillis("SQLITE_BUSY_TIMEOUT_MS", 5000),
		},
		Postgres: PostgresConfig{
			Host:            getEnv("POSTGRES_HOST", "localhost"),
			Port:            getEnv("POSTGRES_PORT", "5433"),
			User:            getEnv("POSTGRES_USER", "omnipos"),
			Password:        getEnv("POSTGRES_PASSWORD", "omnipos"),
			DBName:          getEnv("POSTGRES_DB", "omnipos_sync"),
			SSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvInt("POSTGRES_CONN_MAX_LIFETIME", 300),
			ConnMaxIdleTime: getEnvInt("POSTGRES_CONN_MAX_IDLE_TIME", 60),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: time.Duration(getEnvInt("CATALOG_CACHE_TTL_SEC", 30)) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:      getEnvSlice("KAFKA_BROKERS", nil),
			CatalogTopic: getEnv("KAFKA_TOPIC_CATALOG", "catalog.changes"),
			GroupID:      getEnv("KAFKA_GROUP_TERMINAL", "terminal"),
		},
		Scanner: ScannerConfig{
			DeviceID:         getEnv("SCANNER_DEVICE_ID", ""),
			FramesDir:        getEnv("SCANNER_FRAMES_DIR", ""),
			FrameInterval:    getEnvMillis("SCANNER_FRAME_INTERVAL_MS", 33),
			DebounceInterval: getEnvMillis("SCANNER_DEBOUNCE_MS", 2000),
			FallbackFPS:      getEnvFloat("SCANNER_FALLBACK_FPS", 20),
			RestartDelay:     getEnvMillis("SCANNER_RESTART_DELAY_MS", 300),
		},
		Replication: ReplicationConfig{
			BatchSize:    getEnvInt("REPLICATION_BATCH_SIZE", 100),
			PullInterval: getEnvMillis("REPLICATION_PULL_INTERVAL_MS", 10000),
			PushInterval: getEnvMillis("REPLICATION_PUSH_INTERVAL_MS", 5000),
			BackoffMax:   getEnvMillis("REPLICATION_BACKOFF_MAX_MS", 60000),
			CallTimeout:  getEnvMillis("REPLICATION_CALL_TIMEOUT_MS", 15000),
		},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.AppEnv == "dev"
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "terminal"
	}
	return h
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvMillis(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Millisecond
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSlice(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		return strings.Split(value, ",")
	}
	return fallback
}
