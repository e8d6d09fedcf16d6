package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/brizzai/fetchkit/internal/config"
	"github.com/brizzai/fetchkit/internal/logger"
	"github.com/brizzai/fetchkit/internal/render"
	"github.com/brizzai/fetchkit/internal/requester"
	"github.com/spf13/cobra"
)

type requestOptions struct {
	params  []string
	headers []string
	data    string
	output  string
	query   string
}

func newRequestCmd(a *app, method string) *cobra.Command {
	opts := &requestOptions{}
	readOnly := requester.IsReadOnly(method)

	short := fmt.Sprintf("Send a %s request; params go in the JSON body", method)
	if readOnly {
		short = fmt.Sprintf("Send a %s request; params go in the query string", method)
	}

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " <url>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRequest(cmd, method, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.params, "param", "p", nil, "Request parameter as key=value, repeat a key to send an array")
	flags.StringArrayVarP(&opts.headers, "header", "H", nil, "Request header as key:value")
	flags.StringVarP(&opts.output, "output", "o", string(render.FormatPretty), "Output format (pretty|json|yaml)")
	flags.StringVarP(&opts.query, "query", "q", "", "gjson path selecting part of a successful payload")
	if !readOnly {
		flags.StringVarP(&opts.data, "data", "d", "", "JSON object used as the request body, merged with --param")
	}
	return cmd
}

func (a *app) runRequest(cmd *cobra.Command, method, url string, opts *requestOptions) error {
	format, err := render.ParseFormat(opts.output)
	if err != nil {
		return err
	}

	params, err := parseParams(opts.data, opts.params)
	if err != nil {
		return err
	}
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	_, outcome := newFetcher(&a.cfg.Client).Do(ctx, url, params, method, headers)

	doc, err := render.NewDocument(outcome, opts.query)
	if err != nil {
		return err
	}
	if err := render.Write(cmd.OutOrStdout(), doc, format); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if code := render.ExitCode(outcome.Kind); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func newFetcher(cfg *config.ClientConfig) *requester.Fetcher {
	clock := requester.NewSystemClock()
	builder := requester.NewHTTPRequestBuilder(requester.HTTPRequestBuilderParams{
		Clock:  clock,
		Config: cfg,
	})
	client := requester.NewTimeoutClient(requester.TimeoutClientParams{
		Doer:   requester.NewHTTPClient(),
		Clock:  clock,
		Logger: logger.GetLogger(),
		Config: cfg,
	})
	return requester.NewFetcher(builder, client)
}

// parseParams builds the parameter set from an optional JSON object and
// key=value pairs. A key given more than once becomes an array.
func parseParams(data string, pairs []string) (*requester.Params, error) {
	if data == "" && len(pairs) == 0 {
		return nil, nil
	}

	params := requester.NewParams()
	if data != "" {
		if err := json.Unmarshal([]byte(data), params); err != nil {
			return nil, fmt.Errorf("invalid --data, expected a JSON object: %w", err)
		}
	}

	seen := map[string]bool{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, expected key=value", pair)
		}

		existing, found := params.Get(key)
		switch {
		case !found || !seen[key]:
			params.Set(key, value)
		default:
			if values, isSlice := existing.([]string); isSlice {
				params.Set(key, append(values, value))
			} else {
				params.Set(key, []string{fmt.Sprint(existing), value})
			}
		}
		seen[key] = true
	}
	return params, nil
}

func parseHeaders(pairs []string) (map[string]string, error) {
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --header %q, expected key:value", pair)
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers, nil
}
