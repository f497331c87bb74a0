package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"

	// mistralMaxResponse caps the response body read into memory.
	mistralMaxResponse = 8 << 20
	// mistralErrorBody caps how much of a failed response lands in the error.
	mistralErrorBody = 512
)

// MistralOCR recognizes text in a document photo or scan with the Mistral
// OCR API. The image travels inline as a base64 data URL.
type MistralOCR struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewMistralOCR creates a MistralOCR engine. An empty model selects
// mistral-ocr-latest.
func NewMistralOCR(apiKey, model string) *MistralOCR {
	if model == "" {
		model = defaultMistralModel
	}
	return &MistralOCR{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{},
	}
}

type mistralRequest struct {
	Model              string            `json:"model"`
	Document           mistralImageChunk `json:"document"`
	IncludeImageBase64 bool              `json:"include_image_base64"`
}

type mistralImageChunk struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

type mistralResponse struct {
	Pages []mistralPage `json:"pages"`
}

type mistralPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// reImageRef matches the placeholders Mistral emits for pictures it finds
// inside the page, such as a passport portrait.
var reImageRef = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)

// Recognize returns the text of every page Mistral finds in the image,
// pages separated by a blank line.
func (m *MistralOCR) Recognize(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", eris.New("ocr: empty image")
	}
	mimeType := http.DetectContentType(image)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", eris.Errorf("ocr: mistral needs an image, got %s", mimeType)
	}

	body, err := json.Marshal(mistralRequest{
		Model: m.model,
		Document: mistralImageChunk{
			Type:     "image_url",
			ImageURL: "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "ocr: encode mistral request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", eris.Wrap(err, "ocr: build mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ocr: mistral recognize image")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, mistralMaxResponse))
	if err != nil {
		return "", eris.Wrap(err, "ocr: read mistral response")
	}
	if resp.StatusCode != http.StatusOK {
		if len(respBody) > mistralErrorBody {
			respBody = respBody[:mistralErrorBody]
		}
		return "", eris.Errorf("ocr: mistral API returned %d: %s", resp.StatusCode, respBody)
	}

	var parsed mistralResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", eris.Wrap(err, "ocr: unmarshal mistral response")
	}

	pages := make([]string, 0, len(parsed.Pages))
	for _, p := range parsed.Pages {
		if text := strings.TrimSpace(reImageRef.ReplaceAllString(p.Markdown, "")); text != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}
