package mapdoc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// ============================================================
// Fetcher
// ============================================================

const MaxDocumentBytes = 16 << 20

var ErrCrossOrigin = errors.New("document url is not same-origin")

// Fetcher загружает текст векторного документа.
type Fetcher interface {
	Fetch(ctx context.Context, src string) (string, error)
}

type FetcherFunc func(ctx context.Context, src string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, src string) (string, error) {
	return f(ctx, src)
}

// StatusError: неуспешный HTTP статус ответа.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// HTTPFetcher делает обычный GET относительно базового origin, без кеша и доп. заголовков.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{base: base, client: client}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string) (string, error) {
	target, err := f.resolve(src)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", src, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxDocumentBytes {
		return "", fmt.Errorf("document exceeds %d bytes", MaxDocumentBytes)
	}
	return string(data), nil
}

func (f *HTTPFetcher) resolve(src string) (string, error) {
	ref, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse src: %w", err)
	}
	u := f.base.ResolveReference(ref)
	if u.Scheme != f.base.Scheme || u.Host != f.base.Host {
		return "", fmt.Errorf("%w: %s", ErrCrossOrigin, src)
	}
	return u.String(), nil
}
