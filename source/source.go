// Package source decodes serialized documents into store documents and
// writes them back.
//
// Decoded documents use map[string]any for mappings and []any for
// sequences, the shapes the store package walks. JSON numbers are kept as
// json.Number so that long integers survive the round trip; YAML integers
// are normalized to int64 where they fit.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-yaml"

	"github.com/jacentio/barrel/store"
)

// DecodeJSON reads one JSON object from r.
func DecodeJSON(r io.Reader) (store.Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return document(v)
}

// ParseJSON decodes one JSON object from b.
func ParseJSON(b []byte) (store.Document, error) {
	return DecodeJSON(bytes.NewReader(b))
}

// DecodeYAML reads one YAML mapping from r. An empty input yields an empty
// document.
func DecodeYAML(r io.Reader) (store.Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading yaml: %w", err)
	}
	return ParseYAML(b)
}

// ParseYAML decodes one YAML mapping from b.
func ParseYAML(b []byte) (store.Document, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return store.Document{}, nil
	}
	var v any
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if v == nil {
		return store.Document{}, nil
	}
	return document(normalize(v))
}

// EncodeJSON writes doc to w as a single JSON object.
func EncodeJSON(w io.Writer, doc store.Document) error {
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// EncodeYAML writes doc to w as a YAML mapping.
func EncodeYAML(w io.Writer, doc store.Document) error {
	b, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	_, err = w.Write(b)
	return err
}

func document(v any) (store.Document, error) {
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T", store.ErrNotDocument, v)
	}
	return doc, nil
}

// normalize rewrites decoded YAML into the shapes the store package walks.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = normalize(e)
		}
		return m
	case yaml.MapSlice:
		m := make(map[string]any, len(t))
		for _, item := range t {
			m[fmt.Sprint(item.Key)] = normalize(item.Value)
		}
		return m
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case uint64:
		if t <= math.MaxInt64 {
			return int64(t)
		}
		return t
	case int:
		return int64(t)
	}
	return v
}
