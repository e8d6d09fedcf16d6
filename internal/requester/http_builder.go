package requester

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brizzai/fetchkit/internal/config"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

// NonceParam is the query parameter carrying the cache-busting timestamp
const NonceParam = "_t"

// HTTPRequestBuilderParams holds the parameters for creating an HTTPRequestBuilder
type HTTPRequestBuilderParams struct {
	fx.In
	Clock  Clock
	Config *config.ClientConfig `optional:"true"`
}

// HTTPRequestBuilder turns a logical call into a Request
type HTTPRequestBuilder struct {
	clock   Clock
	timeout time.Duration
	headers map[string]string
}

// BuildOption adjusts a single Build call
type BuildOption func(*Request)

// WithTimeout overrides the configured deadline for one request.
// A non-positive value makes the request cancel immediately.
func WithTimeout(d time.Duration) BuildOption {
	return func(r *Request) {
		r.Timeout = d
	}
}

// NewHTTPRequestBuilder creates a new HTTPRequestBuilder
func NewHTTPRequestBuilder(params HTTPRequestBuilderParams) *HTTPRequestBuilder {
	b := &HTTPRequestBuilder{
		clock:   params.Clock,
		timeout: config.DefaultTimeout,
		headers: map[string]string{},
	}
	if b.clock == nil {
		b.clock = SystemClock{}
	}
	if params.Config != nil {
		if params.Config.Timeout > 0 {
			b.timeout = params.Config.Timeout
		}
		for k, v := range params.Config.Headers {
			b.headers[k] = v
		}
	}
	return b
}

// Build resolves url, params, method and headers into a Request.
//
// For GET and HEAD the params, plus a "_t" millisecond timestamp, are
// encoded into the query string. For every other method params become
// the body untouched and the url is left alone. params is never modified.
func (b *HTTPRequestBuilder) Build(rawURL string, params *Params, method string, headers map[string]string, opts ...BuildOption) *Request {
	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodGet
	}

	req := &Request{
		ID:      uuid.NewString(),
		URL:     rawURL,
		Method:  method,
		Headers: b.mergeHeaders(headers),
		Timeout: b.timeout,
	}

	if IsReadOnly(method) {
		query := params.Clone()
		query.Set(NonceParam, strconv.FormatInt(b.clock.Now().UnixMilli(), 10))
		req.URL = appendQuery(rawURL, query.Encode())
	} else if params != nil {
		req.Body = params
	}

	for _, opt := range opts {
		opt(req)
	}
	return req
}

func (b *HTTPRequestBuilder) mergeHeaders(headers map[string]string) map[string]string {
	merged := make(map[string]string, len(b.headers)+len(headers))
	for k, v := range b.headers {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}
	return merged
}

func appendQuery(rawURL, query string) string {
	if query == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "?") {
		if strings.HasSuffix(rawURL, "?") || strings.HasSuffix(rawURL, "&") {
			return rawURL + query
		}
		return rawURL + "&" + query
	}
	return rawURL + "?" + query
}
