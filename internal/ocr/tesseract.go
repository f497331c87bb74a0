package ocr

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/rotisserie/eris"
)

// Tesseract recognizes text with the tesseract CLI, streaming the image over
// stdin.
type Tesseract struct {
	binPath  string
	language string
}

// NewTesseract creates a Tesseract engine. Empty values fall back to
// "tesseract" and "eng".
func NewTesseract(binPath, language string) *Tesseract {
	if binPath == "" {
		binPath = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &Tesseract{binPath: binPath, language: language}
}

// Recognize runs tesseract stdin stdout -l <language> and returns stdout.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	cmd := exec.CommandContext(ctx, t.binPath, "stdin", "stdout", "-l", t.language)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(image)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: tesseract failed: %s", stderr.String())
	}

	return stdout.String(), nil
}
