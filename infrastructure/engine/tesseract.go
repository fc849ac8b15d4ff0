// Package engine provides OCR engine implementations: a Tesseract-backed
// engine using gosseract and a deterministic mock for environments without
// trained data.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/textlift/textlift/domain/ocr"
)

// defaultConfidence is reported when Tesseract returns text but no usable
// word-level confidences.
const defaultConfidence = 0.8

// Tesseract implements ocr.Engine on top of the gosseract client. A fresh
// client is created per call, so the engine is safe for concurrent use.
type Tesseract struct {
	clientFactory func() *gosseract.Client
}

// NewTesseract constructs a Tesseract-backed OCR engine.
func NewTesseract() *Tesseract {
	return &Tesseract{clientFactory: gosseract.NewClient}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Recognize performs OCR on a single image.
func (t *Tesseract) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	c := t.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}

	blocks, confidence := extractBlocks(c)
	return ocr.Result{
		Text:       strings.TrimSpace(text),
		Confidence: confidence,
		Blocks:     blocks,
		Version:    c.Version(),
	}, nil
}

// extractBlocks reads word-level bounding boxes and averages their
// confidences. Tesseract reports confidence as a percentage.
func extractBlocks(c *gosseract.Client) ([]ocr.Block, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return nil, defaultConfidence
	}

	blocks := make([]ocr.Block, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		conf := b.Confidence / 100.0
		sum += conf
		blocks = append(blocks, ocr.Block{
			Text:       b.Word,
			X:          b.Box.Min.X,
			Y:          b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
			Confidence: conf,
		})
	}
	return blocks, sum / float64(len(blocks))
}
