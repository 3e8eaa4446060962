package template

import "bytes"

// varContext describes where in the serialized document a variable
// occurrence sits. It decides how the replacement value is encoded.
type varContext struct {
	// InString is true when the occurrence is inside a quoted string value.
	InString bool
	// CodeField is true when the enclosing key of that string is "code".
	CodeField bool
}

// codeFieldKey marks string values whose content is later interpreted as
// source code by a downstream node. Structured replacements embedded there
// get their control escapes flattened (see flattenCodeEscapes).
const codeFieldKey = "code"

// substitute walks the serialized document exactly once, tracking string and
// key context, and rewrites every {{name}} occurrence through repl. When repl
// returns false the occurrence is copied through verbatim.
func substitute(doc []byte, repl func(name string, ctx varContext) ([]byte, bool)) []byte {
	var out bytes.Buffer
	out.Grow(len(doc))

	inString := false
	strStart := 0         // offset of the current string's first content byte
	var lastString []byte // content of the most recently closed string
	afterString := false  // closed a string, waiting to learn if it was a key
	currentKey := ""

	for i := 0; i < len(doc); {
		c := doc[i]

		if inString {
			switch c {
			case '\\':
				out.WriteByte(c)
				if i+1 < len(doc) {
					out.WriteByte(doc[i+1])
				}
				i += 2
			case '"':
				inString = false
				lastString = doc[strStart:i]
				afterString = true
				out.WriteByte(c)
				i++
			case '{':
				if name, end, ok := matchVar(doc, i); ok {
					ctx := varContext{InString: true, CodeField: currentKey == codeFieldKey}
					if enc, replaced := repl(name, ctx); replaced {
						out.Write(enc)
					} else {
						out.Write(doc[i:end])
					}
					i = end
					continue
				}
				out.WriteByte(c)
				i++
			default:
				out.WriteByte(c)
				i++
			}
			continue
		}

		switch c {
		case '"':
			inString = true
			strStart = i + 1
			out.WriteByte(c)
			i++
		case ':':
			if afterString {
				currentKey = string(lastString)
				afterString = false
			}
			out.WriteByte(c)
			i++
		case ' ', '\t', '\n', '\r':
			// Whitespace does not settle whether the last string was a key.
			out.WriteByte(c)
			i++
		case '{':
			if name, end, ok := matchVar(doc, i); ok {
				if enc, replaced := repl(name, varContext{}); replaced {
					out.Write(enc)
				} else {
					out.Write(doc[i:end])
				}
				i = end
				afterString = false
				continue
			}
			out.WriteByte(c)
			i++
			afterString = false
		default:
			afterString = false
			out.WriteByte(c)
			i++
		}
	}

	return out.Bytes()
}

// matchVar matches a {{name}} occurrence starting at doc[start]. Names must
// be non-empty and free of whitespace, braces, quotes and backslashes.
func matchVar(doc []byte, start int) (name string, end int, ok bool) {
	if start+1 >= len(doc) || doc[start] != '{' || doc[start+1] != '{' {
		return "", 0, false
	}
	j := start + 2
	for j < len(doc) && doc[j] != '}' {
		switch doc[j] {
		case '{', '"', '\\', ' ', '\t', '\n', '\r':
			return "", 0, false
		}
		j++
	}
	if j == start+2 || j+1 >= len(doc) || doc[j] != '}' || doc[j+1] != '}' {
		return "", 0, false
	}
	return string(doc[start+2 : j]), j + 2, true
}

// flattenCodeEscapes rewrites an escaped JSON blob so it can sit inside a
// string that is later interpreted as source code: control-character escapes
// become single spaces and doubled backslashes collapse to one. Literal
// whitespace fidelity inside the field is lost on purpose.
func flattenCodeEscapes(s []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				out.WriteByte('\\')
			case 'n', 't', 'r', 'b', 'f':
				out.WriteByte(' ')
			default:
				out.WriteByte(s[i])
				out.WriteByte(s[i+1])
			}
			i += 2
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.Bytes()
}
