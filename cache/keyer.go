package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Keyer derives the store index for a query key.
//
// Contract:
// - Determinism: equivalent keys must produce the same index regardless of map
//   insertion order; array order is significant.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key derives the index for the ordered key parts.
	Key(parts []any) (string, error)
}

// DefaultKeyer hashes the canonical JSON form of a query key with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic store index.
// Format: query:<name>:<hash> when the first part is a plain string name,
// query:<hash> otherwise, where hash is the first 32 hex characters of
// SHA-256(Canonical(parts)).
func (k *DefaultKeyer) Key(parts []any) (string, error) {
	if len(parts) == 0 {
		return "", ErrInvalidKey
	}

	canonical, err := Canonical(parts)
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(canonical)
	hashStr := hex.EncodeToString(hash[:16])

	if name, ok := parts[0].(string); ok && isPlainName(name) {
		return "query:" + name + ":" + hashStr, nil
	}
	return "query:" + hashStr, nil
}

// Canonical returns the stable serialization of the key parts. Mapping fields
// are sorted by name at every depth; arrays keep their positions.
func Canonical(parts []any) ([]byte, error) {
	canonical, err := canonicalizeSlice(parts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return canonical, nil
}

func isPlainName(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	return !strings.ContainsAny(s, ": \t\n\r")
}

// canonicalize produces a deterministic JSON representation of v.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		// encoding/json already orders map keys and keeps struct field order
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
