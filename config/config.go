package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	SwiftDrop SwiftDropConfig `yaml:"swiftdrop"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port"`
	ParcelStatusTopicName string `yaml:"parcel_status_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type SwiftDropConfig struct {
	HTTPAddr           string `yaml:"http_addr"`
	WorkerHTTPAddr     string `yaml:"worker_http_addr"`
	KafkaConsumerGroup string `yaml:"kafka_consumer_group"`

	JWTSecret   string `yaml:"jwt_secret"`
	JWTTTLHours int    `yaml:"jwt_ttl_hours"`
	BcryptCost  int    `yaml:"bcrypt_cost"`

	// Identifier allocation.
	IDMaxAttempts        int    `yaml:"id_max_attempts"`
	TrackingPrefix       string `yaml:"tracking_prefix"`
	TrackingRandomLength int    `yaml:"tracking_random_length"`
	ShortIDLength        int    `yaml:"short_id_length"`

	TrackingCacheTTLSeconds int `yaml:"tracking_cache_ttl_seconds"`

	LoginRateLimitPerMinute int `yaml:"login_rate_limit_per_minute"`
	TrackRateLimitPerMinute int `yaml:"track_rate_limit_per_minute"`
	RequestTimeoutSeconds   int `yaml:"request_timeout_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}

// Load reads .env (if present), the YAML file, secret overrides from the
// environment and fills defaults. Binaries that issue tokens must also call
// RequireJWT.
func Load(filename string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := LoadConfig(filename)
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.SwiftDrop.JWTSecret = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	return cfg.WithDefaults(), nil
}

func (c *Config) RequireJWT() error {
	if c.SwiftDrop.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required (swiftdrop.jwt_secret or JWT_SECRET)")
	}
	return nil
}

func (c *Config) WithDefaults() *Config {
	s := &c.SwiftDrop
	setDefault(&s.HTTPAddr, ":8080")
	setDefault(&s.WorkerHTTPAddr, ":8082")
	setDefault(&s.KafkaConsumerGroup, "parcel-worker")
	setDefault(&s.TrackingPrefix, "SD")
	setDefault(&c.Kafka.ParcelStatusTopicName, "parcel.status_changed")
	setDefault(&c.Database.SSLMode, "disable")

	setDefault(&s.JWTTTLHours, 7*24)
	setDefault(&s.BcryptCost, 10)
	setDefault(&s.IDMaxAttempts, 6)
	setDefault(&s.TrackingRandomLength, 6)
	setDefault(&s.ShortIDLength, 8)
	setDefault(&s.TrackingCacheTTLSeconds, 600)
	setDefault(&s.LoginRateLimitPerMinute, 10)
	setDefault(&s.TrackRateLimitPerMinute, 60)
	setDefault(&s.RequestTimeoutSeconds, 15)
	return c
}

func setDefault[T comparable](v *T, def T) {
	var zero T
	if *v == zero {
		*v = def
	}
}

func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.Username, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (s SwiftDropConfig) JWTTTL() time.Duration {
	return time.Duration(s.JWTTTLHours) * time.Hour
}

func (s SwiftDropConfig) TrackingCacheTTL() time.Duration {
	return time.Duration(s.TrackingCacheTTLSeconds) * time.Second
}

func (s SwiftDropConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}
