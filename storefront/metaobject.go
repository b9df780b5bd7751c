package storefront

import (
	"encoding/json"
	"strconv"
)

// FlattenMetaobject turns a shaped metaobject ({fields: [{key, value,
// reference}]}) into a map from field key to value. A value that parses as
// JSON is stored decoded; otherwise a referenced image's originalSrc wins
// over the raw string. It returns nil when metaobject is not an object.
func FlattenMetaobject(metaobject any) map[string]any {
	m, ok := metaobject.(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string]any)
	fields, _ := m["fields"].([]any)
	for _, f := range fields {
		field, ok := f.(map[string]any)
		if !ok {
			continue
		}
		key, ok := field["key"].(string)
		if !ok {
			continue
		}
		value, _ := field["value"].(string)

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			out[key] = decoded
			continue
		}
		if src, ok := lookupString(field, "reference", "image", "originalSrc"); ok && src != "" {
			out[key] = src
			continue
		}
		out[key] = value
	}
	return out
}

// NormalizeProduct returns a copy of a shaped product whose variant prices
// are plain numbers instead of {amount, currencyCode} objects. Variants
// without a parsable amount are left as they are.
func NormalizeProduct(product any) any {
	m, ok := product.(map[string]any)
	if !ok {
		return product
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	variants, ok := m["variants"].([]any)
	if !ok {
		return out
	}
	normalized := make([]any, len(variants))
	for i, v := range variants {
		normalized[i] = normalizeVariant(v)
	}
	out["variants"] = normalized
	return out
}

func normalizeVariant(v any) any {
	variant, ok := v.(map[string]any)
	if !ok {
		return v
	}
	amount, ok := lookupString(variant, "price", "amount")
	if !ok || amount == "" {
		return variant
	}
	price, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return variant
	}

	out := make(map[string]any, len(variant))
	for k, val := range variant {
		out[k] = val
	}
	out["price"] = price
	return out
}

// VideoURL returns the first source URL of a shaped video node response.
func VideoURL(data any) (string, bool) {
	m, ok := data.(map[string]any)
	if !ok {
		return "", false
	}
	node, ok := m["node"].(map[string]any)
	if !ok {
		return "", false
	}
	sources, ok := node["sources"].([]any)
	if !ok || len(sources) == 0 {
		return "", false
	}
	first, ok := sources[0].(map[string]any)
	if !ok {
		return "", false
	}
	url, ok := first["url"].(string)
	return url, ok
}

// lookupString follows path through nested objects.
func lookupString(m map[string]any, path ...string) (string, bool) {
	var cur any = m
	for _, p := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur = obj[p]
	}
	s, ok := cur.(string)
	return s, ok
}
