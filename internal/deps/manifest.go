package deps

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// DefaultFields are the manifest fields whose keys are dependency names.
var DefaultFields = []string{"dependencies"}

// ReadManifest reads the manifest at path and returns the keys of fields.
func ReadManifest(path string, fields []string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data, fields)
}

// ParseManifest extracts, in manifest order, the keys of each object field
// listed in fields. A missing or null field contributes nothing; any other
// non-object value is a malformed manifest.
func ParseManifest(data []byte, fields []string) (Set, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Set{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if top == nil {
		return Set{}, fmt.Errorf("failed to parse manifest: top level is not an object")
	}

	var names []string
	for _, field := range fields {
		raw, ok := top[field]
		if !ok {
			continue
		}
		keys, err := objectKeys(raw)
		if err != nil {
			return Set{}, fmt.Errorf("failed to parse manifest field %q: %w", field, err)
		}
		names = append(names, keys...)
	}
	return NewSet(names...), nil
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	for decoder.More() {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if _, err := decoder.Token(); err != nil {
		return nil, err
	}
	return keys, nil
}
