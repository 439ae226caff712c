package subgraph

import (
	"context"
	"net/http"

	"github.com/machinebox/graphql"
)

// GraphQLTransport sends requests to a single GraphQL endpoint.
type GraphQLTransport struct {
	client *graphql.Client
}

// NewGraphQLTransport builds a transport for endpoint. A nil httpClient uses http.DefaultClient.
func NewGraphQLTransport(endpoint string, httpClient *http.Client) *GraphQLTransport {
	opts := []graphql.ClientOption{}
	if httpClient != nil {
		opts = append(opts, graphql.WithHTTPClient(httpClient))
	}
	return &GraphQLTransport{client: graphql.NewClient(endpoint, opts...)}
}

// Query runs req and decodes its data into out, bypassing intermediate caches.
func (t *GraphQLTransport) Query(ctx context.Context, req Request, out interface{}) error {
	gqlReq := graphql.NewRequest(req.Document)
	for k, v := range req.Variables {
		gqlReq.Var(k, v)
	}
	gqlReq.Header.Set("Cache-Control", "no-cache")
	return t.client.Run(ctx, gqlReq, out)
}
