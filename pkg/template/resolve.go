// Package template implements the variable-substitution subsystem: it embeds
// runtime values into a node's declarative JSON configuration, choosing the
// encoding per occurrence based on where in the serialized document the
// variable sits.
package template

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/weftworks/weft/pkg/domain"
)

const (
	sourcePrefix      = "source"
	directInputPrefix = "direct_input"
)

// Resolve substitutes every {{name}} variable in config and returns the
// resolved configuration together with the map of applied replacements.
//
// Resolution order by name prefix: "source"/"source.<path>" against the
// upstream node's output (state fallback), "direct_input"/"direct_input.<path>"
// against the caller-supplied side channel (state fallback), anything else
// against the state bindings. Occurrences that resolve to nothing are left in
// place verbatim.
//
// Substitution is fail-soft: if the substituted document no longer parses,
// the original config is returned unchanged alongside the replacements that
// were computed.
func Resolve(config map[string]any, state *domain.State, sourceOutput any, directInput map[string]any) (map[string]any, map[string]any) {
	replacements := make(map[string]any)
	if len(config) == 0 {
		return config, replacements
	}

	raw, err := sonic.Marshal(config)
	if err != nil {
		slog.Error("template: config is not serializable", "err", err)
		return config, replacements
	}

	substituted := substitute(raw, func(name string, ctx varContext) ([]byte, bool) {
		value, ok := lookup(name, state, sourceOutput, directInput)
		if !ok {
			return nil, false
		}
		replacements[name] = value
		return encodeReplacement(value, ctx), true
	})

	if len(replacements) == 0 {
		return config, replacements
	}

	var resolved map[string]any
	if err := sonic.Unmarshal(substituted, &resolved); err != nil {
		slog.Error("template: substituted config does not parse, keeping original",
			"err", err, "replacements", len(replacements))
		return config, replacements
	}
	return resolved, replacements
}

// lookup resolves one variable name against the available sources.
func lookup(name string, state *domain.State, sourceOutput any, directInput map[string]any) (any, bool) {
	switch {
	case name == sourcePrefix || strings.HasPrefix(name, sourcePrefix+"."):
		value := sourceOutput
		if name != sourcePrefix {
			value = Nested(sourceOutput, name[len(sourcePrefix)+1:])
		}
		if value == nil {
			value = fromBindings(state, name)
		}
		return value, value != nil

	case name == directInputPrefix || strings.HasPrefix(name, directInputPrefix+"."):
		var value any
		if name == directInputPrefix {
			if directInput != nil {
				value = directInput
			}
		} else {
			value = Nested(mapAsAny(directInput), name[len(directInputPrefix)+1:])
		}
		if value == nil {
			value = fromBindings(state, name)
		}
		return value, value != nil

	default:
		value := fromBindings(state, name)
		return value, value != nil
	}
}

// fromBindings resolves a dotted name against the state bindings: exact key
// first, then the first segment as a root binding with the remainder walked
// as a nested path.
func fromBindings(state *domain.State, name string) any {
	if state == nil {
		return nil
	}
	if v, ok := state.Binding(name); ok {
		return v
	}
	if i := strings.Index(name, "."); i > 0 {
		if root, ok := state.Binding(name[:i]); ok {
			return Nested(root, name[i+1:])
		}
	}
	return nil
}

func mapAsAny(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}

// encodeReplacement encodes a resolved value for splicing at one occurrence.
//
// Textual values inside a quoted string are spliced with their surrounding
// quotes stripped: the template already provides the quotes and the JSON
// encoding has escaped any embedded quotes, backslashes or control
// characters. Structured values inside a quoted string are re-escaped as
// host-string content, backslashes before quotes, so the encoded blob sits
// validly in the host string and decodes back to the original object. Inside
// a "code" field only the quotes are escaped and the control escapes are
// flattened to spaces instead; backslash fidelity is deliberately lost there.
// In raw value position the encoded value is spliced as-is.
func encodeReplacement(value any, ctx varContext) []byte {
	enc, err := sonic.Marshal(value)
	if err != nil {
		slog.Warn("template: replacement value is not serializable, using string form", "err", err)
		value = fmt.Sprint(value)
		enc, _ = sonic.Marshal(value)
	}

	if _, isString := value.(string); isString {
		if ctx.InString {
			return enc[1 : len(enc)-1]
		}
		return enc
	}

	if !ctx.InString {
		return enc
	}
	if ctx.CodeField {
		escaped := bytes.ReplaceAll(enc, []byte(`"`), []byte(`\"`))
		return flattenCodeEscapes(escaped)
	}
	// Backslashes first, then quotes: doubling after quote-escaping would
	// corrupt the \" sequences just produced.
	escaped := bytes.ReplaceAll(enc, []byte(`\`), []byte(`\\`))
	return bytes.ReplaceAll(escaped, []byte(`"`), []byte(`\"`))
}
