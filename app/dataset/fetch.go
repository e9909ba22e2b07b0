package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// Fetcher retrieves raw CSV text from a file path or http(s) URL. Fetched
// bytes are cached with a short TTL so a reload shortly after the first
// load does not refetch over the network.
type Fetcher struct {
	client *http.Client
	cache  *cache.Cache
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  cache.New(2*time.Minute, 5*time.Minute),
	}
}

// Fetch returns the complete source text for the given source.
func (f *Fetcher) Fetch(ctx context.Context, source string) (string, error) {
	if text, found := f.cache.Get(source); found {
		return text.(string), nil
	}

	var text string
	var err error
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		text, err = f.fetchHTTP(ctx, source)
	} else {
		text, err = f.fetchFile(source)
	}
	if err != nil {
		return "", err
	}

	f.cache.Set(source, text, cache.DefaultExpiration)
	return text, nil
}

// Invalidate drops the cached copy of a source, forcing the next Fetch to
// hit the origin. Used by explicit reloads.
func (f *Fetcher) Invalidate(source string) {
	f.cache.Delete(source)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	return string(body), nil
}

func (f *Fetcher) fetchFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
