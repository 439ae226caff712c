package subgraph

import "fmt"

// IndexerQueryError reports a failed or malformed paginated indexer response.
// It is fatal for the run; no partial collection is returned alongside it.
type IndexerQueryError struct {
	Query  string
	Cursor string
	Err    error
}

func (e *IndexerQueryError) Error() string {
	return fmt.Sprintf("indexer query %s (after %q): %v", e.Query, e.Cursor, e.Err)
}

func (e *IndexerQueryError) Unwrap() error {
	return e.Err
}
