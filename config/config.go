package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort    string        `mapstructure:"HTTPPort"`
		MetricsPort string        `mapstructure:"MetricsPort"`
		Timeout     time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Gemini   GeminiConfig   `mapstructure:"gemini"`
	Unsplash UnsplashConfig `mapstructure:"unsplash"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type JWTConfig struct {
	SecretKey       string        `mapstructure:"secretKey"`
	AccessTokenTTL  time.Duration `mapstructure:"accessTokenTTL"`
	RefreshTokenTTL time.Duration `mapstructure:"refreshTokenTTL"`
	Issuer          string        `mapstructure:"issuer"`
	Audience        string        `mapstructure:"audience"`
}

type GeminiConfig struct {
	Model string `mapstructure:"model"`
	// MaxInFlight bounds concurrent generation requests process-wide.
	// 1 serializes every call the way the upstream quota expects.
	MaxInFlight int64 `mapstructure:"maxInFlight"`
}

type UnsplashConfig struct {
	BaseURL     string `mapstructure:"baseURL"`
	MaxInFlight int64  `mapstructure:"maxInFlight"`
}

type CacheConfig struct {
	// TTL is the freshness window for read-through trip/detail caching.
	TTL             time.Duration `mapstructure:"TTL"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Secrets come from the environment, not the YAML.
	v.SetEnvPrefix("TRIPFORGE")
	v.AutomaticEnv()
	_ = v.BindEnv("jwt.secretKey", "TRIPFORGE_JWT_SECRET")
	_ = v.BindEnv("repositories.postgres.password", "TRIPFORGE_POSTGRES_PASSWORD")

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	if config.Gemini.MaxInFlight <= 0 {
		config.Gemini.MaxInFlight = 1
	}
	if config.Unsplash.MaxInFlight <= 0 {
		config.Unsplash.MaxInFlight = 1
	}
	if config.Cache.TTL <= 0 {
		config.Cache.TTL = 2 * time.Hour
	}
	if config.Server.MetricsPort == "" {
		config.Server.MetricsPort = "9090"
	}
	return config, nil
}
