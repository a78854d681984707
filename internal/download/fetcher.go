// Package download retrieves plugin packages from HTTP servers or the local
// filesystem and applies the size and format guard before they are parsed.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/alexisbeaulieu97/mhplugin/pkg/errors"
)

const errorBodyLimit = 4 << 10

// Fetcher downloads remote packages.
type Fetcher struct {
	client  *http.Client
	maxSize int64
}

// NewFetcher wraps client. A nil client gets NewHTTPClient defaults. A
// non-positive maxSize uses MaxPackageSize.
func NewFetcher(client *http.Client, maxSize int64) *Fetcher {
	if client == nil {
		client = NewHTTPClient(ClientOptions{})
	}
	if maxSize <= 0 || maxSize > MaxPackageSize {
		maxSize = MaxPackageSize
	}
	return &Fetcher{client: client, maxSize: maxSize}
}

// MaxSize returns the effective package size limit.
func (f *Fetcher) MaxSize() int64 {
	return f.maxSize
}

// FetchRemote GETs rawURL and returns the body. The body read stops one byte
// past the size limit, so oversized payloads are detected without buffering
// them entirely.
func (f *Fetcher) FetchRemote(ctx context.Context, rawURL string) ([]byte, error) {
	const op = "fetch package"

	if err := validateURL(rawURL); err != nil {
		return nil, apperrors.Validation(op, "invalid package url", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.Validation(op, "invalid package url", err)
	}
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, apperrors.Network(op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		msg := fmt.Sprintf("server responded %s", resp.Status)
		if text := strings.TrimSpace(string(snippet)); text != "" {
			msg = fmt.Sprintf("%s: %s", msg, text)
		}
		return nil, apperrors.Network(op, msg, nil)
	}

	if resp.ContentLength > f.maxSize {
		return nil, checkPayload(resp.ContentLength, nil, f.maxSize)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, apperrors.Network(op, "reading response body", err)
	}
	return body, nil
}

// Check applies the payload guard to a downloaded body.
func (f *Fetcher) Check(body []byte) error {
	return checkPayload(int64(len(body)), body, f.maxSize)
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("missing host in %q", rawURL)
	}
	return nil
}
