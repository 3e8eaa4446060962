package template

import "strings"

// Flatten converts a nested input document into dot-joined variable bindings.
// Non-empty nested maps are recursed into; everything else (including empty
// maps) becomes a leaf value.
func Flatten(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	flattenInto(out, "", data)
	return out
}

func flattenInto(out map[string]any, prefix string, data map[string]any) {
	for key, value := range data {
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok && len(nested) > 0 {
			flattenInto(out, name, nested)
			continue
		}
		out[name] = value
	}
}

// Nested walks a dotted path through nested maps and returns the value at
// the end of the path, or nil if any segment is missing. An empty path
// returns the object itself.
func Nested(obj any, path string) any {
	if path == "" {
		return obj
	}
	current := obj
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
		if current == nil {
			return nil
		}
	}
	return current
}
