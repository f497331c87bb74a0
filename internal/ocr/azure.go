package ocr

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"github.com/rotisserie/eris"
)

// AzureOCR recognizes printed text with Azure Computer Vision.
type AzureOCR struct {
	client   computervision.BaseClient
	language computervision.OcrLanguages
}

// NewAzureOCR creates an AzureOCR engine for the given resource endpoint.
func NewAzureOCR(endpoint, apiKey, language string) *AzureOCR {
	client := computervision.New(endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(apiKey)
	return &AzureOCR{client: client, language: azureLanguage(language)}
}

// azureLanguage maps tesseract-style codes onto the service's language set.
func azureLanguage(lang string) computervision.OcrLanguages {
	switch lang {
	case "", "eng", "en":
		return computervision.OcrLanguagesEn
	case "fra":
		return computervision.OcrLanguages("fr")
	case "deu":
		return computervision.OcrLanguages("de")
	case "spa":
		return computervision.OcrLanguages("es")
	default:
		return computervision.OcrLanguages(lang)
	}
}

// Recognize sends the image and joins recognized words line by line.
func (a *AzureOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	result, err := a.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(image)),
		a.language,
	)
	if err != nil {
		return "", eris.Wrap(err, "ocr: azure recognize")
	}
	return ocrResultText(result), nil
}

func ocrResultText(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}
	var lines []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			words := make([]string, 0, len(*line.Words))
			for _, word := range *line.Words {
				if word.Text != nil {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}
	return strings.Join(lines, "\n")
}
