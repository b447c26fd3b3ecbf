package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string           `yaml:"port"`
	StrictEnums bool             `yaml:"strict_enums"`
	Prediction  PredictionConfig `yaml:"prediction"`
	Amadeus     AmadeusConfig    `yaml:"amadeus"`
	Cache       CacheConfig      `yaml:"cache"`
}

type PredictionConfig struct {
	BaseURL     string          `yaml:"base_url"`
	Timeout     time.Duration   `yaml:"timeout"`
	MaxRetries  int             `yaml:"max_retries"`
	RetryDelays []time.Duration `yaml:"retry_delays"`
	RPS         float64         `yaml:"rps"`
	Burst       int             `yaml:"burst"`
}

type AmadeusConfig struct {
	BaseURL   string  `yaml:"base_url"`
	APIKey    string  `yaml:"api_key"`
	APISecret string  `yaml:"api_secret"`
	RPS       float64 `yaml:"rps"`
	Burst     int     `yaml:"burst"`
}

type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	RedisHost string        `yaml:"redis_host"`
	RedisPort string        `yaml:"redis_port"`
	Password  string        `yaml:"redis_password"`
	DB        int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

func Default() Config {
	return Config{
		Port: "8080",
		Prediction: PredictionConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 10 * time.Second,
			RetryDelays: []time.Duration{
				100 * time.Millisecond,
				200 * time.Millisecond,
				400 * time.Millisecond,
			},
			RPS:   20,
			Burst: 30,
		},
		Amadeus: AmadeusConfig{
			BaseURL: "https://test.api.amadeus.com",
			RPS:     5,
			Burst:   10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			RedisHost: "localhost",
			RedisPort: "6379",
			TTL:       5 * time.Minute,
		},
	}
}

// Load layers configuration: defaults, then the YAML file named by
// CONFIG_PATH (if any), then environment variables. A .env file in the
// working directory is loaded into the environment first.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.StrictEnums = getEnvBool("STRICT_ENUMS", c.StrictEnums)

	c.Prediction.BaseURL = getEnv("PREDICTION_API_URL", c.Prediction.BaseURL)
	c.Prediction.Timeout = getEnvDuration("PREDICTION_TIMEOUT", c.Prediction.Timeout)
	c.Prediction.MaxRetries = getEnvInt("PREDICTION_MAX_RETRIES", c.Prediction.MaxRetries)
	c.Prediction.RPS = getEnvFloat("PREDICTION_RPS", c.Prediction.RPS)

	c.Amadeus.BaseURL = getEnv("AMADEUS_BASE_URL", c.Amadeus.BaseURL)
	c.Amadeus.APIKey = getEnv("AMADEUS_API_KEY", c.Amadeus.APIKey)
	c.Amadeus.APISecret = getEnv("AMADEUS_API_SECRET", c.Amadeus.APISecret)
	c.Amadeus.RPS = getEnvFloat("AMADEUS_RPS", c.Amadeus.RPS)

	c.Cache.Enabled = getEnvBool("CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.RedisHost = getEnv("REDIS_HOST", c.Cache.RedisHost)
	c.Cache.RedisPort = getEnv("REDIS_PORT", c.Cache.RedisPort)
	c.Cache.Password = getEnv("REDIS_PASSWORD", c.Cache.Password)
	c.Cache.TTL = getEnvDuration("REDIS_TTL", c.Cache.TTL)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
