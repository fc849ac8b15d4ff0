package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	textlift "github.com/textlift/textlift"
	"github.com/textlift/textlift/application"
	"github.com/textlift/textlift/domain/ocr"
	"github.com/textlift/textlift/infrastructure/logging"
)

// maxBatchSize bounds how many images one batch request may carry.
const maxBatchSize = 10

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: "textlift",
		Version: textlift.Version,
	})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	content, filename, errResp := s.readImageForm(r, "image")
	if errResp != nil {
		writeJSON(w, errResp.status, errResp.body)
		return
	}

	res, cached, err := s.extractor.Extract(r.Context(), content)
	if err != nil {
		s.writeExtractError(w, r, filename, err)
		return
	}
	writeJSON(w, http.StatusOK, toExtractResponse(res, cached, time.Since(start)))
}

func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSizeBytes); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid multipart form")
		return
	}
	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationError, "no files provided in field \"images\"")
		return
	}
	if len(files) > maxBatchSize {
		writeError(w, http.StatusBadRequest, CodeValidationError,
			fmt.Sprintf("batch size %d exceeds maximum of %d", len(files), maxBatchSize))
		return
	}

	results := make([]BatchItem, 0, len(files))
	allOK := true
	for _, fh := range files {
		item := BatchItem{Filename: fh.Filename}

		content, errResp := s.readImagePart(fh)
		if errResp != nil {
			item.Error = &errResp.body
			allOK = false
			results = append(results, item)
			continue
		}

		itemStart := time.Now()
		res, cached, err := s.extractor.Extract(r.Context(), content)
		if err != nil {
			item.Error = &ErrorResponse{Error: "text extraction failed", Code: CodeProcessingError}
			allOK = false
		} else {
			resp := toExtractResponse(res, cached, time.Since(itemStart))
			item.Response = &resp
		}
		results = append(results, item)
	}

	writeJSON(w, http.StatusOK, BatchResponse{
		Success:          allOK,
		Results:          results,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CacheStatsResponse{
		Size:       s.cache.Size(),
		MaxSize:    s.cache.MaxSize(),
		TTLSeconds: int(s.cache.TTL() / time.Second),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	logging.Info().
		Add(logging.Component("http")).
		Add(logging.RequestID(RequestIDFromContext(r.Context()))).
		Msg("cache cleared")
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "cache cleared"})
}

// uploadError pairs an HTTP status with the error envelope to send.
type uploadError struct {
	status int
	body   ErrorResponse
}

// readImageForm reads and validates the single uploaded file in field.
func (s *Server) readImageForm(r *http.Request, field string) ([]byte, string, *uploadError) {
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSizeBytes); err != nil {
		return nil, "", &uploadError{http.StatusBadRequest, ErrorResponse{
			Error: "invalid multipart form", Code: CodeValidationError,
		}}
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", &uploadError{http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("no file provided in field %q", field), Code: CodeValidationError,
		}}
	}
	defer file.Close()

	content, uerr := s.readUpload(file, header)
	if uerr != nil {
		return nil, header.Filename, uerr
	}
	return content, header.Filename, nil
}

// readImagePart reads and validates one file of a batch upload.
func (s *Server) readImagePart(fh *multipart.FileHeader) ([]byte, *uploadError) {
	file, err := fh.Open()
	if err != nil {
		return nil, &uploadError{http.StatusBadRequest, ErrorResponse{
			Error: "could not read uploaded file", Code: CodeValidationError,
		}}
	}
	defer file.Close()
	return s.readUpload(file, fh)
}

func (s *Server) readUpload(file multipart.File, header *multipart.FileHeader) ([]byte, *uploadError) {
	maxSize := s.cfg.Upload.MaxFileSizeBytes
	if header.Size > maxSize {
		return nil, &uploadError{http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("file size %d exceeds maximum of %d bytes", header.Size, maxSize),
			Code:  CodePayloadTooLarge,
		}}
	}

	content, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return nil, &uploadError{http.StatusBadRequest, ErrorResponse{
			Error: "could not read uploaded file", Code: CodeValidationError,
		}}
	}
	if int64(len(content)) > maxSize {
		return nil, &uploadError{http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("file size exceeds maximum of %d bytes", maxSize),
			Code:  CodePayloadTooLarge,
		}}
	}

	if err := validateUpload(header.Filename, header.Header.Get("Content-Type"), content, s.cfg.Upload.AllowedFormats); err != nil {
		return nil, &uploadError{http.StatusBadRequest, ErrorResponse{
			Error: err.Error(), Code: CodeValidationError,
		}}
	}
	return content, nil
}

func (s *Server) writeExtractError(w http.ResponseWriter, r *http.Request, filename string, err error) {
	logging.Error().
		Add(logging.Component("http")).
		Add(logging.RequestID(RequestIDFromContext(r.Context()))).
		Add(logging.Str("filename", filename)).
		Add(logging.ErrorField(err)).
		Msg("extraction failed")

	if errors.Is(err, ocr.ErrEngineUnavailable) {
		writeError(w, http.StatusServiceUnavailable, CodeProcessingError, "OCR engine unavailable, retry later")
		return
	}
	writeError(w, http.StatusInternalServerError, CodeInternalError, "text extraction failed")
}

func toExtractResponse(res application.Result, cached bool, elapsed time.Duration) ExtractResponse {
	blocks := make([]Block, 0, len(res.Metadata.BoundingBoxes))
	for _, b := range res.Metadata.BoundingBoxes {
		blocks = append(blocks, Block{
			Text:       b.Text,
			X:          b.X,
			Y:          b.Y,
			Width:      b.Width,
			Height:     b.Height,
			Confidence: b.Confidence,
		})
	}
	return ExtractResponse{
		Success:          true,
		Text:             res.Text,
		Confidence:       res.Confidence,
		ProcessingTimeMS: elapsed.Milliseconds(),
		Cached:           cached,
		Metadata: Metadata{
			TextBlocks:    res.Metadata.TextBlocks,
			HasText:       res.Metadata.HasText,
			EngineVersion: res.Metadata.EngineVersion,
			BoundingBoxes: blocks,
			Width:         res.Metadata.Width,
			Height:        res.Metadata.Height,
			Format:        res.Metadata.Format,
		},
	}
}
