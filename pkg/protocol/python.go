package protocol

import (
	"bytes"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// pythonStyle rewrites compact JSON into the byte layout of Python's
// json.dumps defaults: ", " and ": " separators, every non-ASCII rune
// escaped as \uXXXX, and no HTML escaping.
func pythonStyle(compact []byte) []byte {
	out := make([]byte, 0, len(compact)+len(compact)/4)
	inString := false
	for i := 0; i < len(compact); {
		c := compact[i]
		if !inString {
			out = append(out, c)
			switch c {
			case '"':
				inString = true
			case ',', ':':
				out = append(out, ' ')
			}
			i++
			continue
		}
		switch {
		case c == '\\':
			if lit, ok := htmlEscape(compact[i:]); ok {
				out = append(out, lit)
				i += 6
				continue
			}
			out = append(out, c, compact[i+1])
			i += 2
		case c == '"':
			out = append(out, c)
			inString = false
			i++
		case c < utf8.RuneSelf:
			if c == 0x7f {
				out = append(out, `\u007f`...)
			} else {
				out = append(out, c)
			}
			i++
		default:
			r, size := utf8.DecodeRune(compact[i:])
			if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
				out = append(out, fmt.Sprintf(`\u%04x\u%04x`, r1, r2)...)
			} else {
				out = append(out, fmt.Sprintf(`\u%04x`, r)...)
			}
			i += size
		}
	}
	return out
}

var htmlEscapes = map[string]byte{
	`\u003c`: '<',
	`\u003e`: '>',
	`\u0026`: '&',
}

func htmlEscape(b []byte) (byte, bool) {
	if len(b) < 6 {
		return 0, false
	}
	lit, ok := htmlEscapes[string(bytes.ToLower(b[:6]))]
	return lit, ok
}
