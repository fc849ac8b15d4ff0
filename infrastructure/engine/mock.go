package engine

import (
	"bytes"
	"context"
	"image"

	// Register the supported input formats for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/textlift/textlift/domain/ocr"
)

// Mock is a deterministic stand-in engine for deployments without Tesseract
// trained data and for tests. The returned text depends only on the image
// dimensions.
type Mock struct{}

// NewMock constructs a mock OCR engine.
func NewMock() *Mock { return &Mock{} }

func (*Mock) Name() string { return "mock" }

// Recognize returns placeholder text sized to the image.
func (*Mock) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	var width, height int
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Image)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	var text string
	switch {
	case width > 1000 && height > 1000:
		text = "This is a mock OCR result for a large image. In production this is replaced by Tesseract output."
	case width > 500:
		text = "Mock OCR result for medium image."
	default:
		text = "Small image mock text."
	}

	return ocr.Result{
		Text:       text,
		Confidence: defaultConfidence,
		Version:    "mock",
	}, nil
}
