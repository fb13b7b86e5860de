package ports

import "context"

// ReadClient issues typed read queries against the orchestration API.
//
// Query never fails the caller: transport errors, timeouts, and error-shaped
// responses are absorbed at the client boundary (after logging) and collapse
// to an empty result. A partial payload carrying an error marker alongside
// real data is recovered as a single-element result.
type ReadClient interface {
	Query(ctx context.Context, requestType string, params map[string]any) []map[string]any
}
