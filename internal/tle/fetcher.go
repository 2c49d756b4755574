package tle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://celestrak.org/NORAD/elements/gp.php"

// Fetcher retrieves catalog records for a named group (e.g. "active",
// "iridium", "starlink") from a remote catalog endpoint.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewFetcher creates a Fetcher for the given catalog base URL.
func NewFetcher(baseURL string) *Fetcher {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Fetcher{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GroupURL returns the JSON catalog URL for the given group name.
func (f *Fetcher) GroupURL(group string) string {
	return fmt.Sprintf("%s?GROUP=%s&FORMAT=json", f.baseURL, url.QueryEscape(group))
}

// FetchGroup performs an HTTP GET for the group's catalog and decodes the
// JSON array. A non-2xx status, malformed JSON, or a non-array payload is
// surfaced as an error — never swallowed.
func (f *Fetcher) FetchGroup(ctx context.Context, group string) ([]CatalogRecord, error) {
	raw, err := f.FetchRaw(ctx, f.GroupURL(group))
	if err != nil {
		return nil, err
	}
	return DecodeRecords(raw)
}

// FetchRaw performs an HTTP GET and returns the response body.
func (f *Fetcher) FetchRaw(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, sourceURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return body, nil
}

// DecodeRecords decodes a JSON array of catalog records.
func DecodeRecords(raw []byte) ([]CatalogRecord, error) {
	var records []CatalogRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decoding catalog JSON: %w", err)
	}
	return records, nil
}
