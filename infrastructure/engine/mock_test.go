package engine_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/textlift/textlift/domain/ocr"
	"github.com/textlift/textlift/infrastructure/engine"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestMock_Recognize(t *testing.T) {
	t.Parallel()

	t.Run("text depends on image size", func(t *testing.T) {
		t.Parallel()

		eng := engine.NewMock()
		ctx := context.Background()

		small, err := eng.Recognize(ctx, ocr.Input{Image: encodePNG(t, 100, 100)})
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		medium, err := eng.Recognize(ctx, ocr.Input{Image: encodePNG(t, 800, 100)})
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if small.Text == medium.Text {
			t.Error("small and medium images should yield different mock text")
		}
		if small.Confidence <= 0 || small.Confidence > 1 {
			t.Errorf("Confidence = %v, want within (0, 1]", small.Confidence)
		}
	})

	t.Run("deterministic for identical input", func(t *testing.T) {
		t.Parallel()

		eng := engine.NewMock()
		img := encodePNG(t, 64, 64)

		a, _ := eng.Recognize(context.Background(), ocr.Input{Image: img})
		b, _ := eng.Recognize(context.Background(), ocr.Input{Image: img})
		if a.Text != b.Text {
			t.Error("mock engine should be deterministic")
		}
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		t.Parallel()

		eng := engine.NewMock()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := eng.Recognize(ctx, ocr.Input{Image: encodePNG(t, 8, 8)}); err == nil {
			t.Error("Recognize() with cancelled context should fail")
		}
	})

	t.Run("tolerates undecodable payload", func(t *testing.T) {
		t.Parallel()

		eng := engine.NewMock()
		res, err := eng.Recognize(context.Background(), ocr.Input{Image: []byte("not an image")})
		if err != nil {
			t.Fatalf("Recognize() error = %v", err)
		}
		if res.Text == "" {
			t.Error("mock should still produce text for undecodable payloads")
		}
	})
}
