package lazymodal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Fetcher retrieves the text body at an absolute address.
type Fetcher interface {
	Fetch(ctx context.Context, addr string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, addr string) (string, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, addr string) (string, error) {
	return f(ctx, addr)
}

// HTTPFetcher fetches over HTTP. Protocol-relative addresses use https.
// No timeout is applied beyond what Client carries.
type HTTPFetcher struct {
	Client *http.Client
}

// Fetch issues a GET and returns the body. Non-2xx responses fail with
// ErrBadStatus; transport failures wrap ErrFetchFailed.
func (f *HTTPFetcher) Fetch(ctx context.Context, addr string) (string, error) {
	if strings.HasPrefix(addr, "//") {
		addr = "https:" + addr
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, addr, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s: %s", ErrBadStatus, addr, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, addr, err)
	}
	return string(body), nil
}
