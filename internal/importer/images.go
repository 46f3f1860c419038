package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

const maxImageBytes = 10 << 20

// Image is a downloaded recipe picture.
type Image struct {
	Data     []byte
	Filename string
}

// ImageFetcher downloads recipe images over HTTP.
type ImageFetcher struct {
	httpClient *http.Client
}

// NewImageFetcher returns an ImageFetcher. A nil client selects one with the
// given timeout.
func NewImageFetcher(client *http.Client, timeout time.Duration) *ImageFetcher {
	if client == nil {
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ImageFetcher{httpClient: client}
}

// Fetch downloads rawURL. The filename is the last path segment of the URL.
// An empty URL yields an empty Image. Failures are *ImageFetchError.
func (f *ImageFetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	if rawURL == "" {
		return Image{}, nil
	}

	fail := func(status int, err error) (Image, error) {
		return Image{}, &ImageFetchError{FetchError{URL: rawURL, Status: status, Err: err}}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fail(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return fail(0, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fail(resp.StatusCode, nil)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return fail(resp.StatusCode, err)
	}
	if len(data) > maxImageBytes {
		return fail(resp.StatusCode, fmt.Errorf("image exceeds %d bytes", maxImageBytes))
	}

	return Image{Data: data, Filename: path.Base(parsed.Path)}, nil
}
