package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/merchkit/vendure-sync/internal/vendure"
)

const fallbackImageName = "image.jpg"

// importAsset downloads one external image and re-uploads it to the
// backend's asset store, returning the new asset ID. The bytes pass through
// a scratch file because the upload transport needs a re-readable stream;
// the scratch file is removed on every exit path. Callers treat any failure
// here as non-fatal to the enclosing product import.
func (im *Importer) importAsset(ctx context.Context, imageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create download request: %w", err)
	}

	resp, err := im.downloads.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &vendure.DownloadError{URL: imageURL, Status: resp.StatusCode}
	}

	filename := filenameFromURL(imageURL)
	scratch := filepath.Join(os.TempDir(), fmt.Sprintf("vendure-import-%s-%s", uuid.NewString(), filename))

	dst, err := os.Create(scratch)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	// Guaranteed release of the scratch file; a cleanup failure must never
	// mask the primary error.
	defer func() {
		_ = os.Remove(scratch)
	}()

	if _, err := io.Copy(dst, resp.Body); err != nil {
		dst.Close()
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close scratch file: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	assetID, err := im.client.UploadBinary(ctx, scratch, filename, contentType)
	if err != nil {
		return "", fmt.Errorf("upload asset: %w", err)
	}

	return assetID, nil
}

// filenameFromURL derives an upload filename from the URL's last path
// segment with any query string stripped.
func filenameFromURL(imageURL string) string {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return fallbackImageName
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return fallbackImageName
	}
	return name
}
