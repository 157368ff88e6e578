package extract

import (
	"context"

	"github.com/orderstack/po-ingest/pkg/po"
)

// File is the raw input handed to an extractor.
type File struct {
	Name     string
	MimeType string
	Bytes    []byte
}

// Extractor converts document bytes into a raw purchase order. Implementations
// are black boxes to the pipeline: cloud OCR, an LLM, or a rule-based parser
// are all valid substitutes. Failures use the closed code set
// UNSUPPORTED_FILE_TYPE and PARSE_FAILED; retry policy, if any, belongs to the
// implementation, never to the caller.
type Extractor interface {
	Extract(ctx context.Context, file File) (*po.RawPurchaseOrder, error)
}
