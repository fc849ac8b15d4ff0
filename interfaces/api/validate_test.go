package api

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content []byte
		want    string
		ok      bool
	}{
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00}, "png", true},
		{"jpeg", []byte{0xff, 0xd8, 0xff, 0xe0}, "jpeg", true},
		{"gif87a", []byte("GIF87a trailer"), "gif", true},
		{"gif89a", []byte("GIF89a trailer"), "gif", true},
		{"plain text", []byte("hello world"), "", false},
		{"empty", nil, "", false},
		{"truncated png signature", []byte{0x89, 'P', 'N'}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := detectFormat(tt.content)
			if got != tt.want || ok != tt.ok {
				t.Errorf("detectFormat() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestValidateUpload(t *testing.T) {
	t.Parallel()

	allowed := []string{"jpeg", "jpg", "png", "gif"}
	valid := pngBytes(t)

	t.Run("accepts valid png", func(t *testing.T) {
		t.Parallel()

		if err := validateUpload("scan.png", "image/png", valid, allowed); err != nil {
			t.Errorf("validateUpload() error = %v", err)
		}
	})

	t.Run("accepts octet-stream content type", func(t *testing.T) {
		t.Parallel()

		if err := validateUpload("scan.png", "application/octet-stream", valid, allowed); err != nil {
			t.Errorf("validateUpload() error = %v", err)
		}
	})

	t.Run("jpg extension names the jpeg format", func(t *testing.T) {
		t.Parallel()

		jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00}
		if err := validateUpload("photo.jpg", "image/jpeg", jpeg, []string{"jpeg"}); err != nil {
			t.Errorf("validateUpload() error = %v", err)
		}
	})

	t.Run("rejects disallowed extension", func(t *testing.T) {
		t.Parallel()

		if err := validateUpload("scan.txt", "image/png", valid, allowed); err == nil {
			t.Error("validateUpload() should reject .txt")
		}
	})

	t.Run("rejects non-image content type", func(t *testing.T) {
		t.Parallel()

		if err := validateUpload("scan.png", "text/plain", valid, allowed); err == nil {
			t.Error("validateUpload() should reject text/plain")
		}
	})

	t.Run("rejects content without image signature", func(t *testing.T) {
		t.Parallel()

		if err := validateUpload("scan.png", "image/png", []byte("not an image"), allowed); err == nil {
			t.Error("validateUpload() should reject content without a signature")
		}
	})

	t.Run("rejects format outside the allowlist", func(t *testing.T) {
		t.Parallel()

		if err := validateUpload("anim.gif", "image/gif", []byte("GIF89a..."), []string{"png"}); err == nil {
			t.Error("validateUpload() should reject gif when only png is allowed")
		}
	})
}
