// Package application provides the application layer for the textlift
// service: the orchestration of admission, caching and OCR for one image.
package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"time"

	// Register the supported input formats for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/sync/singleflight"

	"github.com/textlift/textlift/domain/admission"
	"github.com/textlift/textlift/domain/ocr"
	"github.com/textlift/textlift/infrastructure/logging"
	"github.com/textlift/textlift/infrastructure/resilience"
	"github.com/textlift/textlift/infrastructure/telemetry"
)

// Metadata describes the image and the recognition that produced a result.
type Metadata struct {
	TextBlocks    int         `json:"text_blocks"`
	HasText       bool        `json:"has_text"`
	EngineVersion string      `json:"engine_version"`
	BoundingBoxes []ocr.Block `json:"bounding_boxes,omitempty"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`
	Format        string      `json:"format"`
}

// Result is an immutable snapshot of one extraction. It is the value type
// stored in the result cache; the transport layer adds per-request fields
// (cached flag, processing time) when rendering a response.
type Result struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Metadata   Metadata `json:"metadata"`
}

// Fingerprint derives the cache key for an image: the hex SHA-256 of its
// content.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Extractor runs images through the result cache and, on miss, through the
// OCR engine. It owns no admission decision; rate limiting happens in the
// transport layer before an image reaches the extractor.
type Extractor struct {
	cache     *admission.Cache[Result]
	engine    ocr.Engine
	executor  *resilience.Executor
	metrics   *telemetry.MetricsProvider
	languages []string

	// flights collapses concurrent misses for the same fingerprint into a
	// single recognition.
	flights singleflight.Group
}

// NewExtractor creates an extractor. metrics may be nil.
func NewExtractor(cache *admission.Cache[Result], engine ocr.Engine, executor *resilience.Executor, metrics *telemetry.MetricsProvider, languages []string) *Extractor {
	return &Extractor{
		cache:     cache,
		engine:    engine,
		executor:  executor,
		metrics:   metrics,
		languages: languages,
	}
}

// Extract returns the recognition result for content, reporting whether it
// was served from the cache. A failed recognition is returned as an error;
// nothing is cached for it.
func (e *Extractor) Extract(ctx context.Context, content []byte) (Result, bool, error) {
	key := Fingerprint(content)

	if res, ok := e.cache.Get(key); ok {
		if e.metrics != nil {
			e.metrics.RecordCacheHit(ctx)
		}
		logging.Debug().
			Add(logging.Component("extractor")).
			Add(logging.CacheKey(key)).
			Msg("cache hit")
		return res, true, nil
	}
	if e.metrics != nil {
		e.metrics.RecordCacheMiss(ctx)
	}

	v, err, _ := e.flights.Do(key, func() (any, error) {
		// Another flight may have populated the cache while this one queued.
		if res, ok := e.cache.Get(key); ok {
			return res, nil
		}
		res, err := e.recognize(ctx, key, content)
		if err != nil {
			return Result{}, err
		}
		e.cache.Put(key, res)
		return res, nil
	})
	if err != nil {
		return Result{}, false, err
	}
	return v.(Result), false, nil
}

func (e *Extractor) recognize(ctx context.Context, key string, content []byte) (Result, error) {
	start := time.Now()
	ocrRes, err := e.executor.Recognize(ctx, e.engine, ocr.Input{
		Image:     content,
		Languages: e.languages,
	})
	if e.metrics != nil {
		e.metrics.RecordOCR(ctx, e.engine.Name(), time.Since(start), err)
	}
	if err != nil {
		logging.Error().
			Add(logging.Component("extractor")).
			Add(logging.EngineName(e.engine.Name())).
			Add(logging.CacheKey(key)).
			Add(logging.ErrorField(err)).
			Msg("recognition failed")
		return Result{}, fmt.Errorf("recognize image: %w", err)
	}

	res := Result{
		Text:       ocrRes.Text,
		Confidence: ocrRes.Confidence,
		Metadata: Metadata{
			TextBlocks:    len(ocrRes.Blocks),
			HasText:       len(ocrRes.Blocks) > 0 || ocrRes.Text != "",
			EngineVersion: ocrRes.Version,
			BoundingBoxes: ocrRes.Blocks,
		},
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(content)); err == nil {
		res.Metadata.Width = cfg.Width
		res.Metadata.Height = cfg.Height
		res.Metadata.Format = format
	}

	logging.Info().
		Add(logging.Component("extractor")).
		Add(logging.EngineName(e.engine.Name())).
		Add(logging.CacheKey(key)).
		Add(logging.TextLength(len(res.Text))).
		Add(logging.Confidence(res.Confidence)).
		Add(logging.Duration(time.Since(start))).
		Msg("recognition completed")
	return res, nil
}
