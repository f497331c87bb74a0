package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Image     ImageConfig     `yaml:"image" mapstructure:"image"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds reasoning-service settings.
type AnthropicConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Model     string  `yaml:"model" mapstructure:"model"`
	MaxTokens int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second, 0 disables
}

// OCRConfig selects and configures the OCR engine.
type OCRConfig struct {
	Provider      string `yaml:"provider" mapstructure:"provider"` // tesseract, azure, mistral
	TesseractPath string `yaml:"tesseract_path" mapstructure:"tesseract_path"`
	Language      string `yaml:"language" mapstructure:"language"`
	AzureEndpoint string `yaml:"azure_endpoint" mapstructure:"azure_endpoint"`
	AzureKey      string `yaml:"azure_key" mapstructure:"azure_key"`
	MistralKey    string `yaml:"mistral_key" mapstructure:"mistral_key"`
	MistralModel  string `yaml:"mistral_model" mapstructure:"mistral_model"`
}

// StorageConfig configures where uploaded originals are kept.
type StorageConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ImageConfig tunes the OCR preprocessing.
type ImageConfig struct {
	TargetWidth int `yaml:"target_width" mapstructure:"target_width"`
	Threshold   int `yaml:"threshold" mapstructure:"threshold"`
}

// AnalysisConfig tunes quality assessment and review output.
type AnalysisConfig struct {
	ConfidenceThreshold int `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	ExcerptLimit        int `yaml:"excerpt_limit" mapstructure:"excerpt_limit"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DOCVERIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key is registered so AutomaticEnv can resolve it.
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "docverify.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.rate_limit", 0)
	v.SetDefault("ocr.provider", "tesseract")
	v.SetDefault("ocr.tesseract_path", "tesseract")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.azure_endpoint", "")
	v.SetDefault("ocr.azure_key", "")
	v.SetDefault("ocr.mistral_key", "")
	v.SetDefault("ocr.mistral_model", "mistral-ocr-latest")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("image.target_width", 2000)
	v.SetDefault("image.threshold", 140)
	v.SetDefault("analysis.confidence_threshold", 80)
	v.SetDefault("analysis.excerpt_limit", 2000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs. Mode is one of "analyze",
// "review" or "migrate".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be postgres or sqlite", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	switch mode {
	case "migrate", "review":
	case "analyze":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required")
		}
		if c.Anthropic.MaxTokens <= 0 {
			problems = append(problems, "anthropic.max_tokens must be > 0")
		}
		if c.Storage.Dir == "" {
			problems = append(problems, "storage.dir is required")
		}
		if c.Analysis.ConfidenceThreshold < 0 || c.Analysis.ConfidenceThreshold > 100 {
			problems = append(problems, "analysis.confidence_threshold must be between 0 and 100")
		}
		if c.Image.Threshold < 0 || c.Image.Threshold > 255 {
			problems = append(problems, "image.threshold must be between 0 and 255")
		}
		switch c.OCR.Provider {
		case "tesseract":
		case "azure":
			if c.OCR.AzureEndpoint == "" || c.OCR.AzureKey == "" {
				problems = append(problems, "ocr.azure_endpoint and ocr.azure_key are required for azure")
			}
		case "mistral":
			if c.OCR.MistralKey == "" {
				problems = append(problems, "ocr.mistral_key is required for mistral")
			}
		default:
			problems = append(problems, fmt.Sprintf("ocr.provider %q is not supported", c.OCR.Provider))
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
