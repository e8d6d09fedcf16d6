package requester

import "context"

// Fetcher couples a builder and a client into a single call
type Fetcher struct {
	builder *HTTPRequestBuilder
	client  *TimeoutClient
}

// NewFetcher creates a new Fetcher
func NewFetcher(builder *HTTPRequestBuilder, client *TimeoutClient) *Fetcher {
	return &Fetcher{builder: builder, client: client}
}

// Do builds the request and executes it, returning the request that was
// sent alongside its Outcome.
func (f *Fetcher) Do(ctx context.Context, url string, params *Params, method string, headers map[string]string, opts ...BuildOption) (*Request, Outcome) {
	req := f.builder.Build(url, params, method, headers, opts...)
	return req, f.client.Execute(ctx, req)
}

// Fetch is Do reduced to payload and error. The error is an *HTTPError,
// *TransportError or *CancelledError; use errors.As to tell them apart.
func (f *Fetcher) Fetch(ctx context.Context, url string, params *Params, method string, headers map[string]string, opts ...BuildOption) (any, error) {
	_, outcome := f.Do(ctx, url, params, method, headers, opts...)
	if err := outcome.Err(); err != nil {
		return nil, err
	}
	return outcome.Payload, nil
}
