// Package payload provides read/patch access to the opaque JSON payload
// carried by decorations, diagnostics, and symbols (spec.md §3's
// "opaque JSON payload" field, data_json in the original Rust). Using
// tidwall/gjson and tidwall/sjson instead of encoding/json lets producers
// patch a handful of fields into a payload without unmarshaling the whole
// document into a map, matching the spec's expectation that a
// DocumentProcessor "attaches structured extras" incrementally.
package payload

import (
	"errors"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrInvalidJSON is returned when a payload string is not valid JSON.
var ErrInvalidJSON = errors.New("payload: invalid JSON")

// Payload wraps an opaque JSON document. The zero value is an empty object.
type Payload struct {
	raw string
}

// New returns an empty payload ("{}").
func New() Payload {
	return Payload{raw: "{}"}
}

// FromString wraps an existing JSON string. An empty string is treated as
// an empty object.
func FromString(s string) (Payload, error) {
	if s == "" {
		return New(), nil
	}
	if !gjson.Valid(s) {
		return Payload{}, ErrInvalidJSON
	}
	return Payload{raw: s}, nil
}

// String returns the raw JSON text.
func (p Payload) String() string {
	if p.raw == "" {
		return "{}"
	}
	return p.raw
}

// Get reads the value at path (gjson path syntax).
func (p Payload) Get(path string) gjson.Result {
	return gjson.Get(p.String(), path)
}

// Exists reports whether path is present.
func (p Payload) Exists(path string) bool {
	return p.Get(path).Exists()
}

// Set returns a new Payload with path set to value.
func (p Payload) Set(path string, value interface{}) (Payload, error) {
	out, err := sjson.Set(p.String(), path, value)
	if err != nil {
		return p, err
	}
	return Payload{raw: out}, nil
}

// SetRaw returns a new Payload with path set to a raw (already-encoded)
// JSON fragment.
func (p Payload) SetRaw(path, rawValue string) (Payload, error) {
	out, err := sjson.SetRaw(p.String(), path, rawValue)
	if err != nil {
		return p, err
	}
	return Payload{raw: out}, nil
}

// Delete returns a new Payload with path removed.
func (p Payload) Delete(path string) (Payload, error) {
	out, err := sjson.Delete(p.String(), path)
	if err != nil {
		return p, err
	}
	return Payload{raw: out}, nil
}

// IsEmpty reports whether the payload carries no data.
func (p Payload) IsEmpty() bool {
	return p.raw == "" || p.raw == "{}"
}
