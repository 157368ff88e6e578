// Package intake gates documents before any parsing work is spent on them.
package intake

import (
	"fmt"
	"strings"

	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
)

// AllowedMimeTypes is the closed set of document types the extractor accepts.
var AllowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/bmp":       true,
}

type FileInfo struct {
	Name      string
	MimeType  string
	SizeBytes int64
}

type Limits struct {
	MaxSizeBytes int64
}

// Validate checks a submitted document against the type and size gates.
// Type is checked before size so a rejected upload reports the most
// actionable problem first.
func Validate(info FileInfo, limits Limits) error {
	mimeType := strings.ToLower(strings.TrimSpace(info.MimeType))
	if mimeType == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidFileType, "file type is missing")
	}
	if !AllowedMimeTypes[mimeType] {
		return pkgerrors.New(pkgerrors.CodeInvalidFileType,
			fmt.Sprintf("file type %q is not supported, expected PDF or image", info.MimeType))
	}

	// An empty file means there is no document at all, not a bad one.
	if info.SizeBytes <= 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "file is empty")
	}
	if limits.MaxSizeBytes > 0 && info.SizeBytes > limits.MaxSizeBytes {
		return pkgerrors.New(pkgerrors.CodeFileTooLarge,
			fmt.Sprintf("file size %d exceeds limit of %d bytes", info.SizeBytes, limits.MaxSizeBytes))
	}

	return nil
}
