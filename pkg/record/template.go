package record

import (
	"fmt"
	"strings"
)

// Expand replaces {key} placeholders in tmpl with values. "{{" and "}}" produce
// literal braces. A placeholder without a value fails with ErrUnknownPlaceholder,
// a lone "}" with ErrUnbalancedBrace.
func Expand(tmpl string, values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder in %q", tmpl)
			}
			key := tmpl[i+1 : i+1+end]
			val, ok := values[key]
			if !ok {
				return "", fmt.Errorf("%w: %s", ErrUnknownPlaceholder, key)
			}
			b.WriteString(val)
			i += end + 1
		case '}':
			if i+1 >= len(tmpl) || tmpl[i+1] != '}' {
				return "", fmt.Errorf("%w: %q", ErrUnbalancedBrace, tmpl)
			}
			b.WriteByte('}')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}
