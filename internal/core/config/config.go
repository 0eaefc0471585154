package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int   // 单请求处理上限
	MaxBodyBytes      int64 // 请求体上限
	MaxInFlight       int   // 0 表示与 db.maxOpenConns 相同
	AcquireTimeoutMs  int   // 等待并发名额的上限，超时 503
}

type App struct {
	Name string
	Env  string
	HTTP HTTP
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 非空时同时写入文件并切割
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
	LeewaySec         int
}

type Redis struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	StatsTTLSec int    `mapstructure:"statsTTLSec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	ConnMaxIdleMin     int
	QueryTimeoutSec    int
	ConnectRetries     int
	ConnectBackoffMs   int
	AutoMigrate        bool
	LogLevel           string
}

type Config struct {
	App   App
	Log   Log
	JWT   JWT
	DB    DB
	Redis Redis `mapstructure:"redis"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "estate-crm")
	v.SetDefault("app.env", "local")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 10)
	v.SetDefault("app.http.writeTimeoutSec", 15)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 10)
	v.SetDefault("app.http.maxBodyBytes", 1<<20)
	v.SetDefault("app.http.maxInFlight", 0)
	v.SetDefault("app.http.acquireTimeoutMs", 2000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 7)
	v.SetDefault("log.maxAgeDays", 14)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "estate-crm")
	v.SetDefault("jwt.accessTokenTTLMin", 24*60)
	v.SetDefault("jwt.leewaySec", 0)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 10)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.connMaxIdleMin", 5)
	v.SetDefault("db.queryTimeoutSec", 5)
	v.SetDefault("db.connectRetries", 5)
	v.SetDefault("db.connectBackoffMs", 500)
	v.SetDefault("db.autoMigrate", false)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.statsTTLSec", 30)
}

// Load reads path (or CONFIG_PATH, or ./configs/config.local.yaml); APP_* env vars override.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.App.HTTP.MaxInFlight <= 0 {
		c.App.HTTP.MaxInFlight = c.DB.MaxOpenConns
	}
	return &c, nil
}

// MustLoad 启动期使用：读取或校验失败直接退出
func MustLoad(path string) *Config {
	c, err := Load(path)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if err := c.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return c
}

var placeholderSecrets = map[string]bool{
	"secret":           true,
	"changeme":         true,
	"change-me":        true,
	"your-secret-key":  true,
	"please-change-me": true,
}

const minSecretLen = 16

var ErrWeakSecret = errors.New("jwt.secret is empty, a placeholder, or shorter than 16 bytes")

func (c *Config) Validate() error {
	s := strings.TrimSpace(c.JWT.Secret)
	if s == "" || placeholderSecrets[strings.ToLower(s)] || len(s) < minSecretLen {
		return ErrWeakSecret
	}
	if c.JWT.AccessTokenTTLMin <= 0 {
		return errors.New("jwt.accessTokenTTLMin must be positive")
	}
	switch c.DB.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("db.driver %q is not supported", c.DB.Driver)
	}
	if c.DB.MaxOpenConns <= 0 {
		return errors.New("db.maxOpenConns must be positive")
	}
	if c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		c.DB.MaxIdleConns = c.DB.MaxOpenConns
	}
	return nil
}

func (h HTTP) RequestTimeout() time.Duration { return time.Duration(h.RequestTimeoutSec) * time.Second }
func (h HTTP) AcquireTimeout() time.Duration { return time.Duration(h.AcquireTimeoutMs) * time.Millisecond }
func (j JWT) TTL() time.Duration             { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) Leeway() time.Duration          { return time.Duration(j.LeewaySec) * time.Second }
func (d DB) QueryTimeout() time.Duration     { return time.Duration(d.QueryTimeoutSec) * time.Second }
func (r Redis) StatsTTL() time.Duration      { return time.Duration(r.StatsTTLSec) * time.Second }
