// Package api provides the HTTP transport for the textlift service.
package api

import (
	"encoding/json"
	"net/http"
)

// Error codes carried in the error envelope.
const (
	CodeValidationError   = "VALIDATION_ERROR"
	CodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	CodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	CodeProcessingError   = "PROCESSING_ERROR"
	CodeInternalError     = "INTERNAL_ERROR"
)

// ExtractResponse is the success envelope for a single extraction.
type ExtractResponse struct {
	Success          bool     `json:"success"`
	Text             string   `json:"text"`
	Confidence       float64  `json:"confidence"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
	Metadata         Metadata `json:"metadata"`
	Cached           bool     `json:"cached"`
}

// Metadata mirrors application.Metadata on the wire.
type Metadata struct {
	TextBlocks    int     `json:"text_blocks"`
	HasText       bool    `json:"has_text"`
	EngineVersion string  `json:"engine_version"`
	BoundingBoxes []Block `json:"bounding_boxes,omitempty"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	Format        string  `json:"format"`
}

// Block is one recognized text region.
type Block struct {
	Text       string  `json:"text"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
}

// ErrorResponse is the error envelope shared by all endpoints.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// BatchItem is the per-file outcome inside a batch response.
type BatchItem struct {
	Filename string           `json:"filename"`
	Response *ExtractResponse `json:"response,omitempty"`
	Error    *ErrorResponse   `json:"error,omitempty"`
}

// BatchResponse is the envelope for /extract-text/batch.
type BatchResponse struct {
	Success          bool        `json:"success"`
	Results          []BatchItem `json:"results"`
	ProcessingTimeMS int64       `json:"processing_time_ms"`
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// CacheStatsResponse is the /cache/stats body.
type CacheStatsResponse struct {
	Size       int `json:"size"`
	MaxSize    int `json:"max_size"`
	TTLSeconds int `json:"ttl_seconds"`
}

// MessageResponse is a generic success acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}
