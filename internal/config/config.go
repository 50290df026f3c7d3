// Package config предоставялет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	BcryptCost              int    `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	HTTPServer              `yaml:"http_server"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	Addr        string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries  int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"3s"`
	ProfileTTL  time.Duration `yaml:"profile_ttl" env:"REDIS_PROFILE_TTL" env-default:"10m"`
}

// RabbitMQ структура для настройки публикации событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"focus.events"`
	Retries    int           `yaml:"retries" env:"RABBITMQ_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// Load читает конфиг из файла path и переопределяет значения из переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if path == "" {
		return nil, fmt.Errorf("%s: config path is empty", op)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при любой ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// String возвращает конфиг для логов, скрывая пароли.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"  ProfileTTL: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"  Exchange: %s\n",
		c.Env,
		redact(c.StorageConnectionString),
		c.MigrationsPath,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.Addr,
		redact(c.Password),
		c.DB,
		c.ProfileTTL,
		redact(c.URL),
		c.Exchange,
	)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
