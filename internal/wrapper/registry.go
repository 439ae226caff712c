package wrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultMapURL is the published Buttonwood wrapper map.
const DefaultMapURL = "https://buttonwood-protocol.github.io/buttonwood-token-list/dist/buttonwood.wrappermap.json"

// Pair is one registry entry linking an underlying token to its wrapper.
type Pair struct {
	Unwrapped string `json:"unwrapped"`
	Wrapped   string `json:"wrapped"`
	ChainID   uint64 `json:"chainId"`
}

// Map is the registry document: wrapper kind -> entries.
type Map struct {
	Wrappers map[string][]Pair `json:"wrappers"`
}

// Registry loads the wrapper map.
type Registry interface {
	Load(ctx context.Context) (Map, error)
}

// HTTPRegistry fetches the wrapper map from a URL.
type HTTPRegistry struct {
	url    string
	client *http.Client
}

// NewHTTPRegistry builds an HTTPRegistry. A nil client uses http.DefaultClient.
func NewHTTPRegistry(url string, client *http.Client) *HTTPRegistry {
	if url == "" {
		url = DefaultMapURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRegistry{url: url, client: client}
}

// Load fetches and decodes the wrapper map.
func (r *HTTPRegistry) Load(ctx context.Context) (Map, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return Map{}, fmt.Errorf("build wrapper map request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Map{}, fmt.Errorf("fetch wrapper map: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Map{}, fmt.Errorf("fetch wrapper map: status=%d %s", resp.StatusCode, string(body))
	}

	var m Map
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return Map{}, fmt.Errorf("decode wrapper map: %w", err)
	}
	return m, nil
}
