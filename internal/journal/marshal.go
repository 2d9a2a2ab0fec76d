package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalEntity converts an entity to JSON TEXT for storage.
// Uses json.Encoder with HTML escaping disabled so stored bodies match the
// canonical key encoding's treatment of <, >, and &.
func marshalEntity(e any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(e); err != nil {
		return "", fmt.Errorf("marshal entity: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalEntity parses stored JSON TEXT into the destination entity.
// Fields absent from the stored body keep their zero values.
func unmarshalEntity(data string, dst any) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("unmarshal entity: %w", err)
	}
	return nil
}
