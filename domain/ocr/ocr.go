// Package ocr defines the contract between the extraction service and OCR
// engines. Implementations may be local (Tesseract) or remote; the service
// treats them as an opaque, possibly slow, possibly failing call.
package ocr

import (
	"context"
	"errors"
)

// ErrEngineUnavailable is returned when an engine cannot be reached or has
// not been initialized.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// Input is a single encoded image submitted for recognition.
type Input struct {
	// Image is the encoded image payload (JPEG, PNG or GIF).
	Image []byte
	// Languages is a list of trained-data hints (e.g. "eng"). Empty means
	// engine default.
	Languages []string
}

// Block is one recognized word with its position in pixel coordinates,
// origin in the upper-left corner.
type Block struct {
	Text       string  `json:"text"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// Result is the recognition output for one input image. An empty Text with
// no Blocks is a valid result for an image containing no text, not an error.
type Result struct {
	// Text is the linearized extracted text.
	Text string
	// Confidence is the mean word confidence in [0, 1].
	Confidence float64
	// Blocks carries per-word positions, when the engine provides them.
	Blocks []Block
	// Version identifies the engine build that produced the result.
	Version string
}

// Engine is the OCR provider contract: one image in, one result out.
// Implementations must be safe for concurrent use; callers bound execution
// time through ctx.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}
