package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Log      LogConfig
	Ingest   IngestConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Driver          string
	Path            string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	TheftsCacheTTL time.Duration
	StatsCacheTTL  time.Duration
}

type LogConfig struct {
	Level string
}

// IngestConfig - параметры пакетной загрузки. Полигон задается либо строкой
// "lng,lat;lng,lat;...", либо GeoJSON файлом; если не задано ни то ни другое,
// используется полигон кампуса St. George.
type IngestConfig struct {
	CSVPath     string
	Polygon     string
	PolygonFile string
	ExportPath  string
	BatchSize   int
}

// WorkerConfig - consumer group воркера инвалидации. Неподтвержденные сообщения
// старше PendingMinIdle повторно забираются раз в ClaimInterval.
type WorkerConfig struct {
	ConsumerGroup     string
	StreamReadTimeout time.Duration
	PendingMinIdle    time.Duration
	ClaimInterval     time.Duration
}

func setDefaults() {
	viper.SetDefault("API_HOST", "0.0.0.0")
	viper.SetDefault("API_PORT", 8000)
	viper.SetDefault("API_ENV", "development")

	viper.SetDefault("DB_DRIVER", DriverSQLite)
	viper.SetDefault("DB_PATH", "data/thefts.db")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("DB_CONN_MAX_LIFETIME", 300)
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", 60)

	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)

	viper.SetDefault("THEFTS_CACHE_TTL", 300)
	viper.SetDefault("STATS_CACHE_TTL", 3600)

	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("INGEST_CSV_PATH", "data/Theft_Over_Open_Data.csv")
	viper.SetDefault("INGEST_EXPORT_PATH", "frontend/public/thefts.json")
	viper.SetDefault("INGEST_BATCH_SIZE", 500)

	viper.SetDefault("WORKER_CONSUMER_GROUP", "thefts-cache-invalidation")
	viper.SetDefault("WORKER_STREAM_READ_TIMEOUT", 5000)
	viper.SetDefault("WORKER_PENDING_MIN_IDLE", 60000)
	viper.SetDefault("WORKER_CLAIM_INTERVAL", 30000)
}

func Load() (*Config, error) {
	setDefaults()
	viper.AutomaticEnv()

	// .env необязателен: в контейнере всё приходит через окружение
	if _, err := os.Stat(".env"); err == nil {
		viper.SetConfigFile(".env")
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("API_HOST"),
			Port: viper.GetInt("API_PORT"),
			Env:  viper.GetString("API_ENV"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(viper.GetString("DB_DRIVER")),
			Path:            viper.GetString("DB_PATH"),
			Host:            viper.GetString("DB_HOST"),
			Port:            viper.GetInt("DB_PORT"),
			User:            viper.GetString("DB_USER"),
			Password:        viper.GetString("DB_PASSWORD"),
			DBName:          viper.GetString("DB_NAME"),
			SSLMode:         viper.GetString("DB_SSLMODE"),
			MaxConns:        viper.GetInt("DB_MAX_CONNS"),
			MaxIdleConns:    viper.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: time.Duration(viper.GetInt("DB_CONN_MAX_LIFETIME")) * time.Second,
			ConnMaxIdleTime: time.Duration(viper.GetInt("DB_CONN_MAX_IDLE_TIME")) * time.Second,
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetInt("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			TheftsCacheTTL: time.Duration(viper.GetInt("THEFTS_CACHE_TTL")) * time.Second,
			StatsCacheTTL:  time.Duration(viper.GetInt("STATS_CACHE_TTL")) * time.Second,
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
		Ingest: IngestConfig{
			CSVPath:     viper.GetString("INGEST_CSV_PATH"),
			Polygon:     viper.GetString("INGEST_POLYGON"),
			PolygonFile: viper.GetString("INGEST_POLYGON_FILE"),
			ExportPath:  viper.GetString("INGEST_EXPORT_PATH"),
			BatchSize:   viper.GetInt("INGEST_BATCH_SIZE"),
		},
		Worker: WorkerConfig{
			ConsumerGroup:     viper.GetString("WORKER_CONSUMER_GROUP"),
			StreamReadTimeout: time.Duration(viper.GetInt("WORKER_STREAM_READ_TIMEOUT")) * time.Millisecond,
			PendingMinIdle:    time.Duration(viper.GetInt("WORKER_PENDING_MIN_IDLE")) * time.Millisecond,
			ClaimInterval:     time.Duration(viper.GetInt("WORKER_CLAIM_INTERVAL")) * time.Millisecond,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность настроек, которые нельзя исправить дефолтами
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for driver %s", DriverSQLite)
		}
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for driver %s", DriverPostgres)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (expected %s or %s)", c.Database.Driver, DriverSQLite, DriverPostgres)
	}

	if c.Ingest.BatchSize <= 0 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be positive, got %d", c.Ingest.BatchSize)
	}

	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetDatabaseDSN возвращает DSN для выбранного драйвера
func (c *Config) GetDatabaseDSN() string {
	return c.Database.DSN()
}

// DSN собирает строку подключения: для sqlite - файл с WAL и busy timeout,
// для postgres - key=value формат, который понимает pgx stdlib.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", d.Path)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.DBName,
		d.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
