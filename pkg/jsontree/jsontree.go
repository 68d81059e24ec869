// Package jsontree provides helpers over generic JSON trees: parsing text into
// nodes, rendering nodes as indented text and typed access to object members.
//
// A node is one of nil, bool, string, int64, float64, []any or map[string]any.
// Integral number literals parse as int64; literals with a fraction or exponent
// parse as float64.
package jsontree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrEmptyDocument is returned when the input holds no JSON value at all.
var ErrEmptyDocument = errors.New("empty JSON document")

const indent = "  "

// Parse parses text into a generic node.
func Parse(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var node any
	if err := dec.Decode(&node); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON: unexpected data after top-level value")
	}

	return convertNumbers(node)
}

// ParseObject parses text and requires the top-level value to be an object.
func ParseObject(text string) (map[string]any, error) {
	node, err := Parse(text)
	if err != nil {
		return nil, err
	}

	obj, ok := node.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", Kind(node))
	}

	return obj, nil
}

// Pretty renders a node as indented JSON with sorted object keys and a
// trailing newline. Doubles always carry a fraction or exponent so that they
// parse back as doubles.
func Pretty(node any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	if err := enc.Encode(normalize(node)); err != nil {
		return "", fmt.Errorf("failed to render JSON: %w", err)
	}

	return buf.String(), nil
}

// Kind names the JSON type of a node, for error messages.
func Kind(node any) string {
	switch node.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int64, int, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", node)
	}
}

// Has reports whether obj has key, including keys holding null.
func Has(obj map[string]any, key string) bool {
	_, ok := obj[key]

	return ok
}

// OptionalString returns the string at key. Absent keys and null report
// ok=false; any other non-string value is an error.
func OptionalString(obj map[string]any, key string) (value string, ok bool, err error) {
	node, present := obj[key]
	if !present || node == nil {
		return "", false, nil
	}

	s, isString := node.(string)
	if !isString {
		return "", false, fmt.Errorf("expected string, got %s", Kind(node))
	}

	return s, true, nil
}

// Text returns node as a string field value. JSON null reads as the empty
// string; numbers, booleans, objects and arrays report ok=false.
func Text(node any) (value string, ok bool) {
	switch v := node.(type) {
	case nil:
		return "", true
	case string:
		return v, true
	default:
		return "", false
	}
}

// ArrayOrEmpty returns the array at key, or an empty array when the key is
// absent or holds something other than an array.
func ArrayOrEmpty(obj map[string]any, key string) []any {
	if arr, ok := obj[key].([]any); ok {
		return arr
	}

	return []any{}
}

// Double is a float64 that always renders with a fraction or exponent.
// Non-finite values render as null.
type Double float64

// MarshalJSON implements json.Marshaler.
func (d Double) MarshalJSON() ([]byte, error) {
	f := float64(d)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}

	out := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(out, ".eE") {
		out += ".0"
	}

	return []byte(out), nil
}

func convertNumbers(node any) (any, error) {
	switch v := node.(type) {
	case json.Number:
		return parseNumber(v.String())
	case []any:
		for i, item := range v {
			converted, err := convertNumbers(item)
			if err != nil {
				return nil, err
			}

			v[i] = converted
		}

		return v, nil
	case map[string]any:
		for k, item := range v {
			converted, err := convertNumbers(item)
			if err != nil {
				return nil, err
			}

			v[k] = converted
		}

		return v, nil
	default:
		return v, nil
	}
}

// parseNumber types a number literal by its spelling: no fraction or exponent
// means integer. Integers beyond int64 fall back to float64.
func parseNumber(literal string) (any, error) {
	if !strings.ContainsAny(literal, ".eE") {
		if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return i, nil
		}
	}

	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JSON number %q: %w", literal, err)
	}

	return f, nil
}

func normalize(node any) any {
	switch v := node.(type) {
	case float64:
		return Double(v)
	case float32:
		return Double(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}

		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalize(item)
		}

		return out
	default:
		return v
	}
}
