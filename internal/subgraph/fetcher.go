package subgraph

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"liquidityBreakdown/internal/metrics"
)

// Request is one indexer query: an identifier, a document and its variables.
type Request struct {
	Name      string
	Document  string
	Variables map[string]interface{}
}

// Transport executes a Request and decodes the payload into out.
type Transport interface {
	Query(ctx context.Context, req Request, out interface{}) error
}

// Collection describes a cursor-paginated indexer collection.
// Document must declare $first and $lastID and order by id ascending.
type Collection[R any, T any] struct {
	Name      string
	Document  string
	Variables map[string]interface{}
	Items     func(resp R) []T
	ID        func(item T) string
}

// Fetcher retrieves whole collections page by page.
type Fetcher struct {
	transport Transport
	pageSize  int
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewFetcher builds a Fetcher over transport.
func NewFetcher(transport Transport, pageSize int, m *metrics.Metrics, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Fetcher{transport: transport, pageSize: pageSize, metrics: m, logger: logger}
}

// FetchAll follows the id_gt cursor until a page shorter than the page size
// comes back. Pages are requested strictly one after another.
func FetchAll[R any, T any](ctx context.Context, f *Fetcher, c Collection[R, T]) ([]T, error) {
	if f.pageSize <= 0 {
		return nil, fmt.Errorf("page size must be greater than zero")
	}
	if f.transport == nil {
		return nil, fmt.Errorf("transport is nil")
	}

	var (
		all    []T
		cursor string
	)
	for page := 0; ; page++ {
		vars := make(map[string]interface{}, len(c.Variables)+2)
		for k, v := range c.Variables {
			vars[k] = v
		}
		vars["first"] = f.pageSize
		vars["lastID"] = cursor

		f.logger.Debug("fetch page",
			zap.String("query", c.Name),
			zap.Int("from", page*f.pageSize),
			zap.Int("to", (page+1)*f.pageSize),
		)

		var resp R
		if err := f.transport.Query(ctx, Request{Name: c.Name, Document: c.Document, Variables: vars}, &resp); err != nil {
			return nil, &IndexerQueryError{Query: c.Name, Cursor: cursor, Err: err}
		}

		items := c.Items(resp)
		f.metrics.IndexerPages.WithLabelValues(c.Name).Inc()
		f.metrics.IndexerRecords.WithLabelValues(c.Name).Add(float64(len(items)))
		all = append(all, items...)

		if len(items) < f.pageSize {
			return all, nil
		}

		next := c.ID(items[len(items)-1])
		if next <= cursor {
			return nil, &IndexerQueryError{Query: c.Name, Cursor: cursor, Err: errors.New("cursor did not advance")}
		}
		cursor = next
	}
}
