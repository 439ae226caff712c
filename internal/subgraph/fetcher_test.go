package subgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"liquidityBreakdown/internal/metrics"
)

// fakeTransport serves JSON payloads from respond and records every request.
type fakeTransport struct {
	respond  func(req Request, n int) (string, error)
	requests []Request
}

func (f *fakeTransport) Query(_ context.Context, req Request, out interface{}) error {
	n := 0
	for _, prev := range f.requests {
		if prev.Name == req.Name {
			n++
		}
	}
	f.requests = append(f.requests, req)
	payload, err := f.respond(req, n)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(payload), out)
}

// pagedTransport returns the given pages in order, failing on any extra request.
func pagedTransport(pages ...string) *fakeTransport {
	return &fakeTransport{respond: func(req Request, n int) (string, error) {
		if n >= len(pages) {
			return "", fmt.Errorf("unexpected request %d for %s", n, req.Name)
		}
		return pages[n], nil
	}}
}

type itemsResponse struct {
	Items []entityRef `json:"items"`
}

var itemsCollection = Collection[itemsResponse, entityRef]{
	Name:      "items",
	Document:  "query items($first: Int!, $lastID: ID!) { items { id } }",
	Variables: map[string]interface{}{"parent": "p1"},
	Items:     func(resp itemsResponse) []entityRef { return resp.Items },
	ID:        func(item entityRef) string { return item.ID },
}

func TestFetchAllFullPageTriggersAnotherRequest(t *testing.T) {
	transport := pagedTransport(
		`{"items":[{"id":"a1"},{"id":"a2"}]}`,
		`{"items":[{"id":"a3"},{"id":"a4"}]}`,
		`{"items":[]}`,
	)
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "test")
	fetcher := NewFetcher(transport, 2, m, zap.NewNop())

	items, err := FetchAll(context.Background(), fetcher, itemsCollection)
	require.NoError(t, err)

	require.Len(t, items, 4)
	assert.Equal(t, "a4", items[3].ID)
	require.Len(t, transport.requests, 3)
	assert.Equal(t, "", transport.requests[0].Variables["lastID"])
	assert.Equal(t, "a2", transport.requests[1].Variables["lastID"])
	assert.Equal(t, "a4", transport.requests[2].Variables["lastID"])
	for _, req := range transport.requests {
		assert.Equal(t, 2, req.Variables["first"])
		assert.Equal(t, "p1", req.Variables["parent"])
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.IndexerPages.WithLabelValues("items")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.IndexerRecords.WithLabelValues("items")))
}

func TestFetchAllShortPageTerminates(t *testing.T) {
	transport := pagedTransport(`{"items":[{"id":"a1"},{"id":"a2"}]}`, `{"items":[{"id":"a3"}]}`)
	fetcher := NewFetcher(transport, 2, nil, nil)

	items, err := FetchAll(context.Background(), fetcher, itemsCollection)
	require.NoError(t, err)
	assert.Len(t, items, 3)
	assert.Len(t, transport.requests, 2)
}

func TestFetchAllEmptyFirstPage(t *testing.T) {
	transport := pagedTransport(`{"items":[]}`)
	fetcher := NewFetcher(transport, 1000, nil, nil)

	items, err := FetchAll(context.Background(), fetcher, itemsCollection)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, transport.requests, 1)
}

func TestFetchAllPropagatesQueryError(t *testing.T) {
	boom := errors.New("graphql: indexer unavailable")
	transport := &fakeTransport{respond: func(_ Request, n int) (string, error) {
		if n == 0 {
			return `{"items":[{"id":"a1"}]}`, nil
		}
		return "", boom
	}}
	fetcher := NewFetcher(transport, 1, nil, nil)

	items, err := FetchAll(context.Background(), fetcher, itemsCollection)
	require.Error(t, err)
	assert.Nil(t, items)

	var queryErr *IndexerQueryError
	require.True(t, errors.As(err, &queryErr))
	assert.Equal(t, "items", queryErr.Query)
	assert.Equal(t, "a1", queryErr.Cursor)
	assert.ErrorIs(t, err, boom)
}

func TestFetchAllRejectsStuckCursor(t *testing.T) {
	transport := pagedTransport(`{"items":[{"id":"b"}]}`, `{"items":[{"id":"a"}]}`)
	fetcher := NewFetcher(transport, 1, nil, nil)

	_, err := FetchAll(context.Background(), fetcher, itemsCollection)
	var queryErr *IndexerQueryError
	require.True(t, errors.As(err, &queryErr))
	assert.Len(t, transport.requests, 2)
}

func TestFetchAllInvalidPageSize(t *testing.T) {
	transport := pagedTransport()
	fetcher := NewFetcher(transport, 0, nil, nil)

	_, err := FetchAll(context.Background(), fetcher, itemsCollection)
	require.Error(t, err)
	assert.Empty(t, transport.requests)
}
