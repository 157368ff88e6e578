package intake

import (
	"testing"

	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
)

func TestValidateAcceptsAllowedTypes(t *testing.T) {
	limits := Limits{MaxSizeBytes: 10 << 20}
	for _, mimeType := range []string{"application/pdf", "image/jpeg", "image/jpg", "image/png", "image/bmp", "Application/PDF"} {
		info := FileInfo{Name: "po.bin", MimeType: mimeType, SizeBytes: 1024}
		if err := Validate(info, limits); err != nil {
			t.Fatalf("Validate(%s) failed: %v", mimeType, err)
		}
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	err := Validate(FileInfo{Name: "po.docx", MimeType: "application/msword", SizeBytes: 1024}, Limits{MaxSizeBytes: 10 << 20})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidFileType) {
		t.Fatalf("expected INVALID_FILE_TYPE, got %v", err)
	}
}

func TestValidateRejectsOversizedFile(t *testing.T) {
	err := Validate(FileInfo{Name: "po.pdf", MimeType: "application/pdf", SizeBytes: 10 << 20}, Limits{MaxSizeBytes: 5 << 20})
	if !pkgerrors.HasCode(err, pkgerrors.CodeFileTooLarge) {
		t.Fatalf("expected FILE_TOO_LARGE, got %v", err)
	}
}

func TestValidateRejectsEmptyFile(t *testing.T) {
	err := Validate(FileInfo{Name: "po.pdf", MimeType: "application/pdf", SizeBytes: 0}, Limits{MaxSizeBytes: 5 << 20})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND for empty file, got %v", err)
	}
}

func TestValidateTypeCheckedBeforeSize(t *testing.T) {
	err := Validate(FileInfo{Name: "po.docx", MimeType: "application/msword", SizeBytes: 10 << 20}, Limits{MaxSizeBytes: 5 << 20})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidFileType) {
		t.Fatalf("expected INVALID_FILE_TYPE to win over FILE_TOO_LARGE, got %v", err)
	}
}
