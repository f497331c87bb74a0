// Package ocr turns document images into raw text.
package ocr

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/docverify/internal/config"
)

// Engine recognizes text in an image.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// NewEngine creates an Engine based on config.
func NewEngine(cfg config.OCRConfig) (Engine, error) {
	switch cfg.Provider {
	case "tesseract", "":
		return NewTesseract(cfg.TesseractPath, cfg.Language), nil
	case "azure":
		if cfg.AzureEndpoint == "" || cfg.AzureKey == "" {
			return nil, eris.New("ocr: azure provider requires azure_endpoint and azure_key")
		}
		return NewAzureOCR(cfg.AzureEndpoint, cfg.AzureKey, cfg.Language), nil
	case "mistral":
		if cfg.MistralKey == "" {
			return nil, eris.New("ocr: mistral provider requires mistral_key")
		}
		return NewMistralOCR(cfg.MistralKey, cfg.MistralModel), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.Provider)
	}
}
