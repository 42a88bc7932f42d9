// Package codec converts inventory Documents to and from their textual
// interchange form.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"github.com/vinv-group/vinv-go/pkg/types"
)

// Codec encodes Documents as JSON with sorted object keys. Numbers are kept
// as json.Number so a decode/encode cycle reproduces them verbatim.
type Codec struct {
	logger *slog.Logger
}

// New returns a codec reporting recovered failures to logger. A nil logger
// discards them.
func New(logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Codec{logger: logger}
}

// Encode returns the compact encoding of doc.
func (c *Codec) Encode(doc types.Document) ([]byte, error) {
	data, err := json.Marshal(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// EncodeIndent returns a human-readable encoding of doc.
func (c *Codec) EncodeIndent(doc types.Document) ([]byte, error) {
	data, err := json.MarshalIndent(map[string]any(doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Decode parses data into a Document. Input that is not a single JSON object
// yields ErrMalformedInput.
func (c *Codec) Decode(data []byte) (types.Document, error) {
	v, err := decodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is %T, want object", types.ErrMalformedInput, v)
	}
	return types.Document(m), nil
}

// DecodeOrDefault parses data like Decode but never fails: malformed input is
// logged and replaced by the default document.
func (c *Codec) DecodeOrDefault(data []byte) types.Document {
	doc, err := c.Decode(data)
	if err != nil {
		c.logger.Warn("malformed inventory input, using default document",
			"error", err,
			"input", snippet(data))
		return types.DefaultDocument()
	}
	return doc
}

// Normalize converts a Go value into its JSON shape by encoding and decoding
// it. The result shares no memory with v.
func (c *Codec) Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	out, err := decodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return out, nil
}

// NormalizeDocument is Normalize for whole documents.
func (c *Codec) NormalizeDocument(doc types.Document) (types.Document, error) {
	data, err := c.Encode(doc)
	if err != nil {
		return nil, err
	}
	return c.Decode(data)
}

func decodeValue(data []byte) (any, error) {
	if !json.Valid(data) {
		return nil, errors.New("not a single JSON value")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func snippet(data []byte) string {
	const maxLen = 64
	if len(data) <= maxLen {
		return string(data)
	}
	n := maxLen
	for n > 0 && !utf8.RuneStart(data[n]) {
		n--
	}
	return string(data[:n]) + "..."
}
