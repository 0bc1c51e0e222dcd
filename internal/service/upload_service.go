package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/gema-school-api/internal/observability"
)

var (
	// ErrFileRequired indicates the multipart request carried no file.
	ErrFileRequired = errors.New("file is required")
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the sniffed MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

var (
	submissionMimeTypes = []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain", "image/png", "image/jpeg"}
	materialMimeTypes   = append([]string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}, submissionMimeTypes...)
)

// storedFile describes an upload accepted by the guard.
type storedFile struct {
	URL      string
	MimeType string
	Size     int64
}

// uploadGuard sniffs, size-checks and forwards multipart files to the uploader.
type uploadGuard struct {
	uploader FileUploader
	maxSize  int64
	tracer   trace.Tracer
	logger   zerolog.Logger
}

func newUploadGuard(uploader FileUploader, maxSizeMB int, logger zerolog.Logger) *uploadGuard {
	if maxSizeMB <= 0 {
		maxSizeMB = 10
	}
	return &uploadGuard{
		uploader: uploader,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		tracer:   observability.Tracer("upload"),
		logger:   logger.With().Str("component", "upload_guard").Logger(),
	}
}

func (g *uploadGuard) store(ctx context.Context, file *multipart.FileHeader, allowed []string) (storedFile, error) {
	ctx, span := g.tracer.Start(ctx, "upload.store")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if file == nil {
		span.SetStatus(codes.Error, "file missing")
		return storedFile{}, ErrFileRequired
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > g.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return storedFile{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return storedFile{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, g.maxSize+1)); err != nil {
		span.RecordError(err)
		return storedFile{}, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(buf.Len()) > g.maxSize {
		observability.UploadRejected().WithLabelValues("size").Inc()
		span.SetStatus(codes.Error, "payload too large")
		return storedFile{}, ErrUploadTooLarge
	}

	detected := mimetype.Detect(buf.Bytes())
	if !mimeAllowed(detected, allowed) {
		observability.UploadRejected().WithLabelValues("type").Inc()
		span.SetStatus(codes.Error, "type not allowed")
		g.logger.Warn().Str("mime", detected.String()).Str("file", file.Filename).Msg("upload rejected")
		return storedFile{}, fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, detected.String())
	}

	url, err := g.uploader.Upload(ctx, file.Filename, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return storedFile{}, fmt.Errorf("failed to upload file: %w", err)
	}

	span.SetAttributes(attribute.String("upload.mime", detected.String()))
	return storedFile{URL: url, MimeType: detected.String(), Size: int64(buf.Len())}, nil
}

func mimeAllowed(detected *mimetype.MIME, allowed []string) bool {
	for mime := detected; mime != nil; mime = mime.Parent() {
		for _, candidate := range allowed {
			if mime.Is(candidate) {
				return true
			}
		}
	}
	return false
}
