package api

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

// Magic-byte signatures for the supported image formats. The upload is
// rejected when its content does not start with a known signature, whatever
// its declared extension or content type says.
var magicSignatures = map[string][][]byte{
	"jpeg": {{0xff, 0xd8}},
	"jpg":  {{0xff, 0xd8}},
	"png":  {{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}},
	"gif":  {[]byte("GIF87a"), []byte("GIF89a")},
}

// detectFormat returns the image format implied by the content's leading
// bytes, or false when no known signature matches.
func detectFormat(content []byte) (string, bool) {
	for _, format := range []string{"png", "gif", "jpeg"} {
		for _, sig := range magicSignatures[format] {
			if bytes.HasPrefix(content, sig) {
				return format, true
			}
		}
	}
	return "", false
}

// validateUpload checks filename extension, declared content type and
// content signature against the allowed formats. It returns a user-facing
// message when the upload is rejected.
func validateUpload(filename, contentType string, content []byte, allowed []string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !formatAllowed(ext, allowed) {
		return fmt.Errorf("unsupported file extension %q, allowed: %s", ext, strings.Join(allowed, ", "))
	}

	// Generic clients often send application/octet-stream; the content
	// signature below is authoritative either way.
	ct := strings.ToLower(contentType)
	if ct != "" && ct != "application/octet-stream" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("unsupported content type %q", contentType)
	}

	format, ok := detectFormat(content)
	if !ok {
		return fmt.Errorf("file content is not a recognized image format")
	}
	if !formatAllowed(format, allowed) {
		return fmt.Errorf("image format %q is not allowed", format)
	}
	return nil
}

func formatAllowed(format string, allowed []string) bool {
	// jpeg and jpg name the same format on both sides.
	norm := func(s string) string {
		if s == "jpg" {
			return "jpeg"
		}
		return s
	}
	format = norm(format)
	for _, a := range allowed {
		if norm(strings.ToLower(a)) == format {
			return true
		}
	}
	return false
}
