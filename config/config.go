package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Провайдеры модели.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderProxy  = "proxy"
)

type Config struct {
	APIKey           string        `yaml:"api_key"`
	Provider         string        `yaml:"inference_provider"`
	Model            string        `yaml:"model"`
	OpenAIBaseURL    string        `yaml:"openai_base_url"`
	ProxyURL         string        `yaml:"proxy_url"`
	InferenceTimeout time.Duration `yaml:"inference_timeout"`

	HTTPAddr       string `yaml:"http_addr"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	ImageMaxDimension int     `yaml:"image_max_dimension"`
	ImageQuality      float64 `yaml:"image_quality"`
	ImageScaler       string  `yaml:"image_scaler"`

	TelegramToken string `yaml:"telegram_token"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default значения, которые действуют без .env и YAML.
func Default() *Config {
	return &Config{
		Provider:          ProviderGemini,
		Model:             "gemini-2.5-flash",
		HTTPAddr:          ":8080",
		MaxUploadBytes:    10 << 20,
		ImageMaxDimension: 1024,
		ImageQuality:      0.7,
		ImageScaler:       "xdraw",
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// Load читает конфигурацию один раз при старте:
// значения по умолчанию → YAML из CONFIG_FILE → переменные окружения.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	// GEMINI_API_KEY оставлен для совместимости
	str("GEMINI_API_KEY", &c.APIKey)
	str("API_KEY", &c.APIKey)
	str("INFERENCE_PROVIDER", &c.Provider)
	str("MODEL", &c.Model)
	str("OPENAI_BASE_URL", &c.OpenAIBaseURL)
	str("PROXY_URL", &c.ProxyURL)
	str("HTTP_ADDR", &c.HTTPAddr)
	str("IMAGE_SCALER", &c.ImageScaler)
	str("TELEGRAM_TOKEN", &c.TelegramToken)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	if v, ok := lookup("INFERENCE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("INFERENCE_TIMEOUT: %w", err)
		}
		c.InferenceTimeout = d
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v, ok := lookup("IMAGE_MAX_DIMENSION"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("IMAGE_MAX_DIMENSION: %w", err)
		}
		c.ImageMaxDimension = n
	}
	if v, ok := lookup("IMAGE_QUALITY"); ok && v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("IMAGE_QUALITY: %w", err)
		}
		c.ImageQuality = q
	}

	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	return nil
}

// Validate проверяет значения. Наличие ключа здесь не проверяется:
// это делает конструктор клиента модели.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI:
	case ProviderProxy:
		if c.ProxyURL == "" {
			return fmt.Errorf("PROXY_URL is required for provider %q", ProviderProxy)
		}
	default:
		return fmt.Errorf("unknown INFERENCE_PROVIDER %q", c.Provider)
	}

	if c.ImageMaxDimension <= 0 {
		return fmt.Errorf("IMAGE_MAX_DIMENSION must be positive, got %d", c.ImageMaxDimension)
	}
	if c.ImageQuality <= 0 || c.ImageQuality > 1 {
		return fmt.Errorf("IMAGE_QUALITY must be in (0, 1], got %v", c.ImageQuality)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.MaxUploadBytes)
	}
	if c.InferenceTimeout < 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must not be negative, got %s", c.InferenceTimeout)
	}

	switch c.ImageScaler {
	case "xdraw", "gocv":
	default:
		return fmt.Errorf("unknown IMAGE_SCALER %q", c.ImageScaler)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}

	return nil
}
