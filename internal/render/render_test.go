package render

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/brizzai/fetchkit/internal/requester"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	tests := []struct {
		name     string
		outcome  requester.Outcome
		query    string
		expected Document
		wantErr  bool
	}{
		{
			name:     "success",
			outcome:  requester.Outcome{Kind: requester.KindSuccess, Payload: map[string]any{"id": 1.0}},
			expected: Document{Outcome: "success", Data: map[string]any{"id": 1.0}},
		},
		{
			name: "success with query",
			outcome: requester.Outcome{Kind: requester.KindSuccess, Payload: map[string]any{
				"items": []any{map[string]any{"name": "a"}, map[string]any{"name": "b"}},
			}},
			query:    "items.#.name",
			expected: Document{Outcome: "success", Data: []any{"a", "b"}},
		},
		{
			name:    "query without match",
			outcome: requester.Outcome{Kind: requester.KindSuccess, Payload: map[string]any{"id": 1.0}},
			query:   "missing",
			wantErr: true,
		},
		{
			name:    "http error",
			outcome: requester.Outcome{Kind: requester.KindHTTPError, Status: 500, Body: "{500: oops}"},
			expected: Document{
				Outcome: "http_error",
				Status:  500,
				Data:    "{500: oops}",
				Error:   "http request failed: {500: oops}",
			},
		},
		{
			name:    "cancelled",
			outcome: requester.Outcome{Kind: requester.KindCancelled, Cause: context.DeadlineExceeded},
			expected: Document{
				Outcome: "cancelled",
				Error:   "request cancelled: context deadline exceeded",
			},
		},
		{
			name:    "transport error",
			outcome: requester.Outcome{Kind: requester.KindTransportError, Cause: errors.New("dial tcp: refused")},
			expected: Document{
				Outcome: "transport_error",
				Error:   "transport error: dial tcp: refused",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := NewDocument(tt.outcome, tt.query)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, doc); diff != "" {
				t.Errorf("document mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWrite(t *testing.T) {
	doc := Document{Outcome: "success", Data: map[string]any{"id": 1.0}}

	var jsonOut bytes.Buffer
	require.NoError(t, Write(&jsonOut, doc, FormatJSON))
	assert.JSONEq(t, `{"outcome":"success","data":{"id":1}}`, jsonOut.String())

	var yamlOut bytes.Buffer
	require.NoError(t, Write(&yamlOut, doc, FormatYAML))
	assert.Equal(t, "outcome: success\ndata:\n  id: 1\n", yamlOut.String())

	var prettyOut bytes.Buffer
	require.NoError(t, Write(&prettyOut, doc, FormatPretty))
	assert.Contains(t, prettyOut.String(), "request succeeded")
	assert.Contains(t, prettyOut.String(), `"id": 1`)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPretty, f)

	f, err = ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(requester.KindSuccess))
	assert.Equal(t, 1, ExitCode(requester.KindHTTPError))
	assert.Equal(t, 2, ExitCode(requester.KindTransportError))
	assert.Equal(t, 3, ExitCode(requester.KindCancelled))
}
