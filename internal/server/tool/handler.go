// Package tool exposes the request layer as an MCP tool.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/brizzai/fetchkit/internal/logger"
	"github.com/brizzai/fetchkit/internal/requester"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Name is the MCP tool name
const Name = "fetch_data"

// Handler runs fetch_data tool calls through a Fetcher
type Handler struct {
	fetcher *requester.Fetcher
}

// NewHandler creates a new tool handler.
func NewHandler(fetcher *requester.Fetcher) *Handler {
	return &Handler{fetcher: fetcher}
}

// Tool describes fetch_data and its arguments
func (h *Handler) Tool() mcp.Tool {
	return mcp.NewTool(Name,
		mcp.WithDescription("Send a single HTTP request with a hard timeout and return the decoded JSON response. "+
			"GET and HEAD send params in the query string; other methods send them as a JSON body."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Target URL"),
		),
		mcp.WithString("method",
			mcp.Description("HTTP method, defaults to GET"),
			mcp.Enum("GET", "HEAD", "POST", "PUT", "PATCH", "DELETE"),
		),
		mcp.WithObject("params",
			mcp.Description("Request parameters; array values repeat the query key"),
		),
		mcp.WithObject("headers",
			mcp.Description("Request headers"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Deadline in milliseconds, defaults to the server configuration"),
		),
	)
}

type arguments struct {
	url     string
	method  string
	params  *requester.Params
	headers map[string]string
	opts    []requester.BuildOption
}

func parseArguments(args map[string]any) (*arguments, error) {
	parsed := &arguments{headers: map[string]string{}}

	url, _ := args["url"].(string)
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("url is required")
	}
	parsed.url = url

	if method, ok := args["method"].(string); ok {
		parsed.method = method
	}

	switch params := args["params"].(type) {
	case nil:
	case map[string]any:
		parsed.params = requester.ParamsFromMap(params)
	default:
		return nil, fmt.Errorf("params must be an object, got %T", params)
	}

	switch headers := args["headers"].(type) {
	case nil:
	case map[string]any:
		for k, v := range headers {
			parsed.headers[k] = fmt.Sprint(v)
		}
	default:
		return nil, fmt.Errorf("headers must be an object, got %T", headers)
	}

	if raw, ok := args["timeout_ms"]; ok && raw != nil {
		ms, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("timeout_ms must be a number, got %T", raw)
		}
		parsed.opts = append(parsed.opts, requester.WithTimeout(time.Duration(ms*float64(time.Millisecond))))
	}
	return parsed, nil
}

// Handle executes one tool call. Request outcomes other than success are
// reported as tool errors, not protocol errors.
func (h *Handler) Handle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArguments(request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	req, outcome := h.fetcher.Do(ctx, args.url, args.params, args.method, args.headers, args.opts...)
	logger.Debug("tool call finished",
		zap.String("tool", Name),
		zap.String("request_id", req.ID),
		zap.Stringer("outcome", outcome.Kind),
	)

	switch outcome.Kind {
	case requester.KindSuccess:
		data, err := json.Marshal(outcome.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload for tool %s: %w", Name, err)
		}
		return mcp.NewToolResultText(string(data)), nil
	case requester.KindHTTPError:
		body, ok := outcome.Body.(string)
		if !ok {
			data, _ := json.Marshal(outcome.Body)
			body = string(data)
		}
		return mcp.NewToolResultError(fmt.Sprintf("HTTP Error %d: %s", outcome.Status, body)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", outcome.Kind, outcome.Err())), nil
	}
}
