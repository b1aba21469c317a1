// Package knowledge loads the mushroom knowledge base from structured JSON
// files into a fixed-order list of plain-text documents.
//
// Document order is load-bearing: embedding matrix rows, retrieval indices
// and cross-turn deduplication all key off a document's position. The
// canonical ordering is: files in the order they are listed, entries within
// a file in the order their keys appear in the file. Plain map decoding
// would lose the in-file order, so entries are read off the JSON token
// stream.
package knowledge

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads every file in paths, in order, and returns the concatenated
// document list. Each file must contain a JSON object mapping a mushroom
// name to an object of attribute label/value pairs.
func Load(paths []string) ([]string, error) {
	var docs []string
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open knowledge base file: %w", err)
		}
		fileDocs, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

// Parse decodes a single knowledge base file, preserving key order. Each
// entry becomes one document: the mushroom name followed by one
// "label: value" line per attribute, newline-joined.
func Parse(r io.Reader) ([]string, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var docs []string
	for dec.More() {
		name, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}

		parts := []string{name}
		for dec.More() {
			label, err := readKey(dec)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", name, err)
			}
			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("entry %q, attribute %q: %w", name, label, err)
			}
			parts = append(parts, fmt.Sprintf("%s: %s", label, formatValue(value)))
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("entry %q: %w", name, err)
		}

		docs = append(docs, strings.Join(parts, "\n"))
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return docs, nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want rune) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || rune(delim) != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
