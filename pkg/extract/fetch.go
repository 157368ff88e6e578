package extract

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	pkgerrors "github.com/orderstack/po-ingest/pkg/errors"
)

const (
	fetchTimeout       = 30 * time.Second
	fetchBodyReadLimit = 64 << 20
)

// FetchURL downloads a referenced document. Any failure to reach or read the
// URL maps to FILE_DOWNLOAD_FAILED so callers can distinguish it from parse
// failures.
func FetchURL(ctx context.Context, client *http.Client, rawURL string) (File, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return File{}, pkgerrors.New(pkgerrors.CodeFileDownloadFailed, fmt.Sprintf("invalid file url %q", rawURL))
	}

	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return File{}, pkgerrors.Wrap(pkgerrors.CodeFileDownloadFailed, err, "building download request")
	}

	resp, err := client.Do(req)
	if err != nil {
		return File{}, pkgerrors.Wrap(pkgerrors.CodeFileDownloadFailed, err, "downloading file")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return File{}, pkgerrors.New(pkgerrors.CodeFileDownloadFailed,
			fmt.Sprintf("download returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchBodyReadLimit))
	if err != nil {
		return File{}, pkgerrors.Wrap(pkgerrors.CodeFileDownloadFailed, err, "reading downloaded file")
	}

	mimeType := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, parseErr := mime.ParseMediaType(ct); parseErr == nil {
			mimeType = mediaType
		}
	}

	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		name = "document"
	}

	return File{Name: name, MimeType: mimeType, Bytes: body}, nil
}
