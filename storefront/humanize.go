package storefront

import "github.com/jonwraymond/sfquery/query"

// Shaper is Humanize as a query.Shaper.
var Shaper query.Shaper = query.ShaperFunc(Humanize)

// Humanize unwraps GraphQL connections throughout raw: an object holding an
// edges list becomes the list of each edge's node, and an object holding a
// nodes list becomes that list. Other fields of a connection, such as
// pageInfo, are dropped. raw itself is not modified.
func Humanize(raw query.Raw) (any, error) {
	return humanize(raw), nil
}

func humanize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if edges, ok := t["edges"].([]any); ok {
			nodes := make([]any, 0, len(edges))
			for _, edge := range edges {
				if m, ok := edge.(map[string]any); ok {
					nodes = append(nodes, humanize(m["node"]))
					continue
				}
				nodes = append(nodes, humanize(edge))
			}
			return nodes
		}
		if nodes, ok := t["nodes"].([]any); ok {
			return humanize(nodes)
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = humanize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = humanize(val)
		}
		return out
	default:
		return v
	}
}
