// Package render turns request outcomes into command line output.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/brizzai/fetchkit/internal/requester"
	"github.com/pterm/pterm"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Format selects how an outcome is written
type Format string

const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
)

// ParseFormat validates a --output value
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPretty, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (want pretty, json or yaml)", s)
	}
}

// Document is the machine readable form of an outcome
type Document struct {
	Outcome string `json:"outcome" yaml:"outcome"`
	Status  int    `json:"status,omitempty" yaml:"status,omitempty"`
	Data    any    `json:"data,omitempty" yaml:"data,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewDocument flattens an outcome. When query is set it is evaluated as
// a gjson path against the payload (or the HTTP error body) and only
// the match is kept.
func NewDocument(out requester.Outcome, query string) (Document, error) {
	doc := Document{Outcome: out.Kind.String()}
	switch out.Kind {
	case requester.KindSuccess:
		doc.Data = out.Payload
	case requester.KindHTTPError:
		doc.Status = out.Status
		doc.Data = out.Body
		doc.Error = out.Err().Error()
	default:
		doc.Error = out.Err().Error()
	}

	if query != "" && doc.Data != nil {
		selected, err := Select(doc.Data, query)
		if err != nil {
			return doc, err
		}
		doc.Data = selected
	}
	return doc, nil
}

// Select evaluates a gjson path against a decoded JSON value
func Select(value any, query string) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	result := gjson.GetBytes(data, query)
	if !result.Exists() {
		return nil, fmt.Errorf("query %q matched nothing", query)
	}
	return result.Value(), nil
}

// Write renders doc to w in the given format
func Write(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writePretty(w, doc)
	}
}

func writePretty(w io.Writer, doc Document) error {
	var header string
	switch doc.Outcome {
	case requester.KindSuccess.String():
		header = pterm.Success.Sprint("request succeeded")
	case requester.KindHTTPError.String():
		header = pterm.Error.Sprintf("HTTP %d", doc.Status)
	case requester.KindCancelled.String():
		header = pterm.Warning.Sprint(doc.Error)
	default:
		header = pterm.Error.Sprint(doc.Error)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	if doc.Data == nil {
		return nil
	}
	if s, ok := doc.Data.(string); ok {
		_, err := fmt.Fprintln(w, s)
		return err
	}
	data, err := json.MarshalIndent(doc.Data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// ExitCode maps an outcome kind onto the process exit status
func ExitCode(kind requester.OutcomeKind) int {
	switch kind {
	case requester.KindSuccess:
		return 0
	case requester.KindHTTPError:
		return 1
	case requester.KindTransportError:
		return 2
	case requester.KindCancelled:
		return 3
	default:
		return 2
	}
}
