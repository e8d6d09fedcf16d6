package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/fetchkit/internal/config"
	"github.com/brizzai/fetchkit/internal/requester"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		pairs   []string
		want    string
		wantErr string
	}{
		{name: "none", want: ""},
		{name: "pairs in order", pairs: []string{"q=go", "page=2"}, want: "q=go&page=2"},
		{name: "repeated key becomes array", pairs: []string{"id=1", "x=y", "id=2", "id=3"}, want: "id=1&id=2&id=3&x=y"},
		{name: "value keeps equals signs", pairs: []string{"expr=a=b"}, want: "expr=a%3Db"},
		{name: "data then pairs", data: `{"b":1,"a":[1,2]}`, pairs: []string{"c=3"}, want: "b=1&a=1&a=2&c=3"},
		{name: "pair overrides data", data: `{"a":1}`, pairs: []string{"a=2"}, want: "a=2"},
		{name: "missing equals", pairs: []string{"q"}, wantErr: `invalid --param "q", expected key=value`},
		{name: "empty key", pairs: []string{"=v"}, wantErr: `invalid --param "=v", expected key=value`},
		{name: "data not an object", data: `[1]`, wantErr: "invalid --data, expected a JSON object: params must be a JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := parseParams(tt.data, tt.pairs)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, params)
				return
			}
			assert.Equal(t, tt.want, params.Encode())
		})
	}
}

func TestParseHeaders(t *testing.T) {
	headers, err := parseHeaders([]string{"Accept: application/json", "X-Trace:abc:def"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Accept":  "application/json",
		"X-Trace": "abc:def",
	}, headers)

	_, err = parseHeaders([]string{"broken"})
	assert.EqualError(t, err, `invalid --header "broken", expected key:value`)
}

func TestNewFetcher_UsesClientConfig(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Default")
		_, _ = w.Write([]byte(`"ok"`))
	}))
	defer srv.Close()

	cfg := config.Default().Client
	cfg.Headers = map[string]string{"X-Default": "yes"}

	payload, err := newFetcher(&cfg).Fetch(t.Context(), srv.URL, nil, "GET", nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", payload)
	assert.Equal(t, "yes", gotHeader)
}

func runCLI(t *testing.T, args ...string) (int, string) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)

	err := rootCmd.Execute()
	if err == nil {
		return 0, out.String()
	}
	exitErr, ok := err.(*exitError)
	require.True(t, ok, "unexpected error: %v", err)
	return exitErr.code, out.String()
}

func TestCLI_Requests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			assert.Equal(t, []string{"a", "b"}, r.URL.Query()["tag"])
			assert.NotEmpty(t, r.URL.Query().Get(requester.NonceParam))
			_, _ = w.Write([]byte(`{"items":[{"name":"first"},{"name":"second"}]}`))
		case "/items":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]any{"name": "widget", "size": "3"}, body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":7}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("no such thing"))
		case "/slow":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{
			name:     "get with query selection",
			args:     []string{"get", srv.URL + "/search", "-p", "tag=a", "-p", "tag=b", "--output", "json", "--query", "items.1.name"},
			wantCode: 0,
			wantOut:  `{"outcome":"success","data":"second"}`,
		},
		{
			name:     "post json body",
			args:     []string{"post", srv.URL + "/items", "-d", `{"name":"widget"}`, "-p", "size=3", "-o", "json"},
			wantCode: 0,
			wantOut:  `{"outcome":"success","data":{"id":7}}`,
		},
		{
			name:     "http error",
			args:     []string{"get", srv.URL + "/missing", "-o", "json"},
			wantCode: 1,
			wantOut:  `{"outcome":"http_error","status":404,"data":"{404: no such thing}","error":"http request failed: {404: no such thing}"}`,
		},
		{
			name:     "timeout",
			args:     []string{"get", srv.URL + "/slow", "--timeout", "50ms", "-o", "json"},
			wantCode: 3,
			wantOut:  `{"outcome":"cancelled","error":"request cancelled: timeout of 50ms elapsed: context deadline exceeded"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.JSONEq(t, tt.wantOut, out)
		})
	}
}

func TestCLI_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	code, out := runCLI(t, "get", url, "-o", "json")
	assert.Equal(t, 2, code)
	assert.Contains(t, out, `"outcome": "transport_error"`)
}

func TestCLI_Version(t *testing.T) {
	code, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)

	code, _ = runCLI(t, "--version")
	assert.Equal(t, 0, code)
}

func TestCLI_InvalidOutput(t *testing.T) {
	rootCmd := newRootCmd()
	rootCmd.SetArgs([]string{"get", "http://localhost", "-o", "xml"})
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	assert.Error(t, rootCmd.Execute())
}
