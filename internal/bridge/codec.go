package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	errEmptyOutput = errors.New("empty output")
	errNotObject   = errors.New("output is not a JSON object")
)

// Encode serializes a request into the envelope written to the interpreter's stdin
func Encode(req Request) ([]byte, error) {
	data, err := json.Marshal(req.envelope())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", req.Mode(), err)
	}
	return data, nil
}

// Decode parses captured stdout as exactly one JSON object.
// Failures carry the raw bytes and are returned as a Result, never as an error.
func Decode(raw []byte) Result {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return DecodeFailure{Raw: bytes.Clone(raw), Err: errEmptyOutput}
	}
	if trimmed[0] != '{' {
		return DecodeFailure{Raw: bytes.Clone(raw), Err: errNotObject}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var value map[string]any
	if err := dec.Decode(&value); err != nil {
		return DecodeFailure{Raw: bytes.Clone(raw), Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return DecodeFailure{Raw: bytes.Clone(raw), Err: errors.New("unexpected data after JSON object")}
	}

	return Decoded{Value: value}
}
