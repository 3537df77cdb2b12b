package delta

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a document delta for storage in a node's data column.
func Encode(d *Delta) (string, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode delta: %w", err)
	}
	return string(payload), nil
}

// Decode parses a stored data payload. A nil or empty payload means "no
// content yet" and yields an empty delta without touching the parser; any
// other malformed payload is an error and the caller fails closed (empty
// document, never a crash).
func Decode(data string) (*Delta, error) {
	if data == "" || data == "null" {
		return New(), nil
	}
	var d Delta
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("decode delta: %w", err)
	}
	return &d, nil
}

// DecodePtr is Decode for the nullable data column.
func DecodePtr(data *string) (*Delta, error) {
	if data == nil {
		return New(), nil
	}
	return Decode(*data)
}
