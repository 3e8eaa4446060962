package template_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/weft/pkg/domain"
	"github.com/weftworks/weft/pkg/template"
)

func newState(bindings map[string]any) *domain.State {
	return domain.NewState("run-test", bindings)
}

func TestResolve_NoMarkers(t *testing.T) {
	config := map[string]any{"text": "plain", "n": float64(3)}
	resolved, replacements := template.Resolve(config, newState(nil), nil, nil)

	assert.Equal(t, config, resolved)
	assert.Empty(t, replacements)
}

func TestResolve_FromBindings(t *testing.T) {
	st := newState(template.Flatten(map[string]any{
		"message": "hi",
		"user":    map[string]any{"name": "ada"},
	}))

	config := map[string]any{"text": "{{message}}", "who": "{{user.name}}"}
	resolved, replacements := template.Resolve(config, st, nil, nil)

	assert.Equal(t, "hi", resolved["text"])
	assert.Equal(t, "ada", resolved["who"])
	assert.Equal(t, map[string]any{"message": "hi", "user.name": "ada"}, replacements)
}

func TestResolve_SourceAndPath(t *testing.T) {
	st := newState(nil)
	source := map[string]any{"text": "upstream", "meta": map[string]any{"lang": "en"}}

	config := map[string]any{
		"all":  "{{source}}",
		"one":  "{{source.text}}",
		"deep": "{{source.meta.lang}}",
	}
	resolved, replacements := template.Resolve(config, st, source, nil)

	assert.Equal(t, "upstream", resolved["one"])
	assert.Equal(t, "en", resolved["deep"])
	assert.Len(t, replacements, 3)

	// {{source}} sits in a quoted slot, so the whole output document is
	// embedded as an escaped blob that decodes back to the original.
	blob, ok := resolved["all"].(string)
	require.True(t, ok)
	var inner map[string]any
	require.NoError(t, json.Unmarshal([]byte(blob), &inner))
	assert.Equal(t, source, inner)
}

func TestResolve_SourceFallsBackToBindings(t *testing.T) {
	st := newState(map[string]any{"source.text": "from-state"})

	resolved, _ := template.Resolve(map[string]any{"t": "{{source.text}}"}, st, nil, nil)
	assert.Equal(t, "from-state", resolved["t"])
}

func TestResolve_DirectInput(t *testing.T) {
	st := newState(nil)
	direct := map[string]any{"city": "lisbon", "geo": map[string]any{"lat": float64(38)}}

	config := map[string]any{"a": "{{direct_input.city}}", "b": "{{direct_input.geo.lat}}"}
	resolved, _ := template.Resolve(config, st, nil, direct)

	assert.Equal(t, "lisbon", resolved["a"])
	// Non-string value in a quoted slot becomes its encoded text.
	assert.Equal(t, "38", resolved["b"])
}

func TestResolve_UnresolvedLeftInPlace(t *testing.T) {
	st := newState(map[string]any{"known": "yes"})

	config := map[string]any{"a": "{{known}}", "b": "{{missing}}"}
	resolved, replacements := template.Resolve(config, st, nil, nil)

	assert.Equal(t, "yes", resolved["a"])
	assert.Equal(t, "{{missing}}", resolved["b"])
	assert.NotContains(t, replacements, "missing")
}

func TestResolve_StringWithSpecialCharacters(t *testing.T) {
	// Values containing quotes, backslashes and newlines must survive the
	// splice into a quoted slot byte for byte.
	values := []string{
		`say "hello"`,
		`C:\temp\file`,
		"line one\nline two",
		"tab\there \"and\" \\ everything\r\n",
	}
	for _, v := range values {
		st := newState(map[string]any{"payload": v})
		resolved, _ := template.Resolve(map[string]any{"text": "pre {{payload}} post"}, st, nil, nil)
		assert.Equal(t, "pre "+v+" post", resolved["text"], "value %q", v)
	}
}

func TestResolve_StructuredValueInQuotedSlot(t *testing.T) {
	obj := map[string]any{"k": "v \"quoted\"", "list": []any{float64(1), float64(2)}}
	st := newState(map[string]any{"obj": obj})

	resolved, _ := template.Resolve(map[string]any{"text": "{{obj}}"}, st, nil, nil)

	blob, ok := resolved["text"].(string)
	require.True(t, ok)
	var inner map[string]any
	require.NoError(t, json.Unmarshal([]byte(blob), &inner))
	assert.Equal(t, obj, inner)
}

func TestResolve_StructuredValueWithEscapesRoundTrips(t *testing.T) {
	// Strings inside the embedded object carry quotes, backslashes and
	// control characters; the host document must still parse and the blob
	// must decode back to the original object.
	obj := map[string]any{
		"quote": `say "hi"`,
		"path":  `C:\temp\file`,
		"multi": "line one\nline two\ttabbed",
	}
	st := newState(map[string]any{"obj": obj})

	resolved, _ := template.Resolve(map[string]any{"text": "wrapped {{obj}} here"}, st, nil, nil)

	text, ok := resolved["text"].(string)
	require.True(t, ok)
	blob := strings.TrimSuffix(strings.TrimPrefix(text, "wrapped "), " here")
	var inner map[string]any
	require.NoError(t, json.Unmarshal([]byte(blob), &inner))
	assert.Equal(t, obj, inner)
}

func TestResolve_NumberAndBool(t *testing.T) {
	st := newState(map[string]any{"n": float64(42), "flag": true})

	resolved, _ := template.Resolve(map[string]any{"a": "{{n}}", "b": "{{flag}}"}, st, nil, nil)

	// Structured (non-string) values in a quoted slot become their encoded
	// text inside the host string.
	assert.Equal(t, "42", resolved["a"])
	assert.Equal(t, "true", resolved["b"])
}

func TestResolve_CodeFieldFlattensControlEscapes(t *testing.T) {
	obj := map[string]any{"greeting": "hello\nworld\t!"}
	st := newState(map[string]any{"data": obj})

	config := map[string]any{
		"code":  "payload = {{data}}",
		"other": "{{data}}",
	}
	resolved, _ := template.Resolve(config, st, nil, nil)

	code, ok := resolved["code"].(string)
	require.True(t, ok)
	assert.NotContains(t, code, "\n")
	assert.NotContains(t, code, "\t")
	assert.Contains(t, code, `"greeting"`)

	// Outside the code field the escapes stay intact and round-trip.
	other, ok := resolved["other"].(string)
	require.True(t, ok)
	var inner map[string]any
	require.NoError(t, json.Unmarshal([]byte(other), &inner))
	assert.Equal(t, obj, inner)
}

func TestResolve_FailSoftOnBrokenSubstitution(t *testing.T) {
	// A backslash-bearing object spliced into a code field loses escape
	// fidelity; if that breaks the document the original config comes back
	// together with the computed replacements.
	obj := map[string]any{"path": `a\zoo`}
	st := newState(map[string]any{"data": obj})

	config := map[string]any{"code": "x = {{data}}"}
	resolved, replacements := template.Resolve(config, st, nil, nil)

	assert.Equal(t, config, resolved)
	assert.Contains(t, replacements, "data")
}

func TestFlatten(t *testing.T) {
	in := map[string]any{
		"message": "hi",
		"user": map[string]any{
			"name":  "ada",
			"prefs": map[string]any{"lang": "en"},
		},
		"empty": map[string]any{},
	}
	out := template.Flatten(in)

	assert.Equal(t, map[string]any{
		"message":         "hi",
		"user.name":       "ada",
		"user.prefs.lang": "en",
		"empty":           map[string]any{},
	}, out)
}

func TestNested(t *testing.T) {
	obj := map[string]any{"a": map[string]any{"b": "c"}}

	assert.Equal(t, obj, template.Nested(obj, ""))
	assert.Equal(t, "c", template.Nested(obj, "a.b"))
	assert.Nil(t, template.Nested(obj, "a.x"))
	assert.Nil(t, template.Nested("scalar", "a"))
}
