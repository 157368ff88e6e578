package enums

import "fmt"

// DocumentStatus tracks a purchase-order document through the pipeline.
type DocumentStatus string

const (
	DocumentStatusReceived     DocumentStatus = "received"
	DocumentStatusParsed       DocumentStatus = "parsed"
	DocumentStatusValidated    DocumentStatus = "validated"
	DocumentStatusFailed       DocumentStatus = "failed"
	DocumentStatusDraftCreated DocumentStatus = "draft_created"
)

var validDocumentStatuses = []DocumentStatus{
	DocumentStatusReceived,
	DocumentStatusParsed,
	DocumentStatusValidated,
	DocumentStatusFailed,
	DocumentStatusDraftCreated,
}

// String returns the literal string for the status.
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s DocumentStatus) IsValid() bool {
	for _, candidate := range validDocumentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseDocumentStatus converts raw input into a DocumentStatus.
func ParseDocumentStatus(value string) (DocumentStatus, error) {
	for _, candidate := range validDocumentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document status %q", value)
}
