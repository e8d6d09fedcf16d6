package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/brizzai/fetchkit/internal/config"
	"github.com/brizzai/fetchkit/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Doer is the transport primitive. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TimeoutClientParams holds the parameters for creating a TimeoutClient
type TimeoutClientParams struct {
	fx.In

	Doer   Doer
	Clock  Clock
	Logger *zap.Logger          `optional:"true"`
	Config *config.ClientConfig `optional:"true"`
}

// TimeoutClient executes a Request under a hard deadline and classifies
// the result into an Outcome.
type TimeoutClient struct {
	doer         Doer
	clock        Clock
	log          *zap.Logger
	maxBodyBytes int64
}

// NewHTTPClient returns the transport used in production. It carries no
// client-level timeout; TimeoutClient owns the deadline.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	}
}

// NewTimeoutClient creates a new TimeoutClient
func NewTimeoutClient(params TimeoutClientParams) *TimeoutClient {
	c := &TimeoutClient{
		doer:         params.Doer,
		clock:        params.Clock,
		log:          params.Logger,
		maxBodyBytes: config.DefaultMaxBodyBytes,
	}
	if c.doer == nil {
		c.doer = NewHTTPClient()
	}
	if c.clock == nil {
		c.clock = SystemClock{}
	}
	if c.log == nil {
		c.log = logger.GetLogger()
	}
	if params.Config != nil && params.Config.MaxBodyBytes > 0 {
		c.maxBodyBytes = params.Config.MaxBodyBytes
	}
	return c
}

// roundTrip is what the transport goroutine hands back: either a fully
// read response or the error that prevented one.
type roundTrip struct {
	gotResponse bool
	status      int
	body        []byte
	err         error
}

// Execute issues req and waits for the first of {response, deadline}.
// It always returns exactly one Outcome; once the deadline has fired a
// late response is discarded.
func (c *TimeoutClient) Execute(ctx context.Context, req *Request) Outcome {
	log := c.log.With(
		zap.String("request_id", req.ID),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
	)

	start := c.clock.Now()
	outcome := c.execute(ctx, req, log)
	elapsed := c.clock.Now().Sub(start)

	fields := []zap.Field{
		zap.Stringer("outcome", outcome.Kind),
		zap.Duration("duration", elapsed),
	}
	switch outcome.Kind {
	case KindSuccess:
		log.Info("request completed", fields...)
	case KindHTTPError:
		log.Info("request completed", append(fields, zap.Int("status", outcome.Status))...)
	case KindCancelled:
		log.Warn("request cancelled", append(fields, zap.Duration("timeout", req.Timeout), zap.Error(outcome.Cause))...)
	case KindTransportError:
		log.Error("request failed", append(fields, zap.Error(outcome.Cause))...)
	}
	return outcome
}

func (c *TimeoutClient) execute(ctx context.Context, req *Request, log *zap.Logger) Outcome {
	if req.Timeout <= 0 {
		return cancelled(fmt.Errorf("timeout %s already elapsed: %w", req.Timeout, context.DeadlineExceeded))
	}
	if err := context.Cause(ctx); err != nil {
		return cancelled(err)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	timer := c.clock.AfterFunc(req.Timeout, func() {
		cancel(fmt.Errorf("timeout of %s elapsed: %w", req.Timeout, context.DeadlineExceeded))
	})
	defer timer.Stop()

	httpReq, err := newHTTPRequest(ctx, req)
	if err != nil {
		return transportError(err)
	}

	log.Debug("dispatching request", zap.Duration("timeout", req.Timeout))

	// Capacity 1 so the transport goroutine never blocks after losing the race
	results := make(chan roundTrip, 1)
	go func() {
		results <- c.roundTrip(httpReq)
	}()

	select {
	case rt := <-results:
		// The timer may have fired while the response was being read
		if cause := context.Cause(ctx); cause != nil {
			return cancelled(cause)
		}
		return classify(req.Method, rt)
	case <-ctx.Done():
		return cancelled(context.Cause(ctx))
	}
}

func (c *TimeoutClient) roundTrip(httpReq *http.Request) roundTrip {
	resp, err := c.doer.Do(httpReq)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return roundTrip{err: fmt.Errorf("request failed: %w", err)}
	}
	if resp == nil {
		return roundTrip{err: ErrNoResponse}
	}
	if resp.Body == nil {
		return roundTrip{gotResponse: true, status: resp.StatusCode}
	}
	defer resp.Body.Close()

	body, err := c.readBody(resp.Body)
	if err != nil {
		return roundTrip{err: err}
	}
	return roundTrip{gotResponse: true, status: resp.StatusCode, body: body}
}

func (c *TimeoutClient) readBody(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > c.maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes limit", c.maxBodyBytes)
	}
	return data, nil
}

// classify maps a completed round trip onto an Outcome
func classify(method string, rt roundTrip) Outcome {
	if rt.err != nil {
		return transportError(rt.err)
	}
	if !rt.gotResponse {
		return transportError(ErrNoResponse)
	}

	if rt.status < 200 || rt.status > 299 {
		if v, err := decodeJSON(rt.body); err == nil && !isEmptyJSON(v) {
			return httpError(rt.status, v)
		}
		return httpError(rt.status, fmt.Sprintf("{%d: %s}", rt.status, rt.body))
	}

	if len(bytes.TrimSpace(rt.body)) == 0 && emptyBodyAllowed(method, rt.status) {
		return success(nil)
	}
	payload, err := decodeJSON(rt.body)
	if err != nil {
		return transportError(fmt.Errorf("failed to decode response body: %w", err))
	}
	return success(payload)
}

func emptyBodyAllowed(method string, status int) bool {
	return method == http.MethodHead ||
		status == http.StatusNoContent ||
		status == http.StatusResetContent
}

func decodeJSON(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// isEmptyJSON reports whether a decoded error body carries nothing worth
// surfacing, in which case the raw text is used instead.
func isEmptyJSON(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case float64:
		return t == 0
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

func newHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	var contentType string
	if !IsReadOnly(req.Method) {
		var err error
		body, contentType, err = encodeBody(req.Body)
		if err != nil {
			return nil, err
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

// encodeBody sends raw payloads as they are and JSON-encodes everything else
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case string:
		return strings.NewReader(b), "", nil
	case io.Reader:
		return b, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}
