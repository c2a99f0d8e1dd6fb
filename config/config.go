// Ininicializing common application configuration
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Predict    PredictConfig    `mapstructure:"predict"`
	Session    SessionConfig    `mapstructure:"session"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Navigation NavigationConfig `mapstructure:"navigation"`
	Probe      ProbeConfig      `mapstructure:"probe"`
	Watch      WatchConfig      `mapstructure:"watch"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"appVersion"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Mode         string        `mapstructure:"mode"`
	// Enabled starts the local control surface.
	Enabled bool `mapstructure:"enabled"`
}

type PredictConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Path      string        `mapstructure:"path"`
	FieldName string        `mapstructure:"field_name"`
	Timeout   time.Duration `mapstructure:"timeout"` // 0 waits for the server
}

type SessionConfig struct {
	Backend string        `mapstructure:"backend"` // memory | file | redis
	Dir     string        `mapstructure:"dir"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type NavigationConfig struct {
	Mode       string   `mapstructure:"mode"` // log | kafka
	BaseURL    string   `mapstructure:"base_url"`
	ResultPath string   `mapstructure:"result_path"`
	Brokers    []string `mapstructure:"brokers"`
	Topic      string   `mapstructure:"topic"`
}

type ProbeConfig struct {
	ThumbnailSize  int `mapstructure:"thumbnail_size"`
	MaxPreviewSide int `mapstructure:"max_preview_side"`
}

type WatchConfig struct {
	Dir    string        `mapstructure:"dir"`
	Settle time.Duration `mapstructure:"settle"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads ./config/config.yaml when present. Defaults and UPLOADER_*
// environment variables fill in the rest.
func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()
	setDefaults(viperInstance)

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	viperInstance.SetEnvPrefix("UPLOADER")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	err := viperInstance.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}
	return viperInstance, nil
}

// LoadConfigFile is LoadConfig for an explicit file path. An empty path
// falls back to UPLOADER_CONFIG, then to ./config/config.yaml.
func LoadConfigFile(path string) (*viper.Viper, error) {
	if path == "" {
		path = GetEnv("UPLOADER_CONFIG", "")
	}
	if path == "" {
		return LoadConfig()
	}

	viperInstance := viper.New()
	setDefaults(viperInstance)
	viperInstance.SetConfigFile(path)
	viperInstance.SetEnvPrefix("UPLOADER")
	viperInstance.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperInstance.AutomaticEnv()

	if err := viperInstance.ReadInConfig(); err != nil {
		return nil, err
	}
	return viperInstance, nil
}

// BindFlags maps command line flags onto config keys. Only flags the user set
// override the file.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"predict-url": "predict.base_url",
		"session":     "session.backend",
		"navigation":  "navigation.mode",
		"watch":       "watch.dir",
		"serve":       "server.enabled",
		"port":        "server.port",
		"log-level":   "log.level",
	}
	for name, key := range bindings {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.appVersion", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8081")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.enabled", false)

	// Prediction endpoint
	v.SetDefault("predict.base_url", "http://localhost:5000")
	v.SetDefault("predict.path", "/predict")
	v.SetDefault("predict.field_name", "file")
	v.SetDefault("predict.timeout", time.Duration(0))

	v.SetDefault("session.backend", "memory")
	v.SetDefault("session.dir", "./storage")
	v.SetDefault("session.ttl", time.Hour)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("navigation.mode", "log")
	v.SetDefault("navigation.base_url", "http://localhost:5000")
	v.SetDefault("navigation.result_path", "/result")
	v.SetDefault("navigation.brokers", []string{"localhost:9094"})
	v.SetDefault("navigation.topic", "navigation")

	v.SetDefault("probe.thumbnail_size", 160)
	v.SetDefault("probe.max_preview_side", 4096)

	v.SetDefault("watch.dir", "")
	v.SetDefault("watch.settle", 300*time.Millisecond)

	v.SetDefault("log.level", "info")
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
