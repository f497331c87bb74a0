// Package imageprep prepares scanned document images for OCR.
package imageprep

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/docverify/internal/config"
)

// Defaults applied when the configuration leaves a value unset.
const (
	DefaultTargetWidth = 2000
	DefaultThreshold   = 140
)

// Result is the outcome of normalization. When Normalized is false, Data and
// MimeType are the caller's input unchanged.
type Result struct {
	Data       []byte
	MimeType   string
	Normalized bool
}

// Normalizer converts images into high-contrast black and white PNGs.
type Normalizer struct {
	targetWidth int
	threshold   uint8
}

// NewNormalizer creates a Normalizer from cfg.
func NewNormalizer(cfg config.ImageConfig) *Normalizer {
	n := &Normalizer{targetWidth: cfg.TargetWidth, threshold: DefaultThreshold}
	if n.targetWidth <= 0 {
		n.targetWidth = DefaultTargetWidth
	}
	if cfg.Threshold > 0 && cfg.Threshold <= 255 {
		n.threshold = uint8(cfg.Threshold)
	}
	return n
}

// Normalize never fails: on any error the original bytes pass through.
func (n *Normalizer) Normalize(data []byte, mimeType string) Result {
	out, err := n.process(data)
	if err != nil {
		zap.L().Warn("imageprep: normalization failed, using original image",
			zap.String("mime_type", mimeType),
			zap.Int("bytes", len(data)),
			zap.Error(err),
		)
		return Result{Data: data, MimeType: mimeType}
	}
	return Result{Data: out, MimeType: "image/png", Normalized: true}
}

func (n *Normalizer) process(data []byte) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, eris.Wrap(err, "imageprep: decode")
	}

	img := imaging.Grayscale(src)
	img = stretch(img)
	img = imaging.Resize(img, n.targetWidth, 0, imaging.Lanczos)
	img = imaging.Sharpen(img, 1.0)

	threshold := n.threshold
	img = imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := uint8(0)
		if c.R >= threshold {
			v = 255
		}
		return color.NRGBA{R: v, G: v, B: v, A: 255}
	})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, eris.Wrap(err, "imageprep: encode")
	}
	return buf.Bytes(), nil
}

// stretch maps the luminance range of a grayscale image onto 0..255.
func stretch(img *image.NRGBA) *image.NRGBA {
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(img.Pix); i += 4 {
		v := img.Pix[i]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo || (lo == 0 && hi == 255) {
		return img
	}

	span := float64(hi - lo)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := uint8((float64(c.R) - float64(lo)) * 255 / span)
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	})
}
