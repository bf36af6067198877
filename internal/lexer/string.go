package lexer

import (
	"strings"

	"github.com/hollowvm/intcode/internal/diag"
)

// ParseString interprets text (the full String token text, quotes
// included) as a string value. If the literal contains no backslash
// it is returned by simply slicing off the quotes -- no allocation or
// escape processing is needed. Otherwise the quoted body is scanned
// and escapes are substituted into a freshly built string.
func ParseString(text string, span diag.Span) (string, *diag.Diagnostic) {
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}
		if i+1 >= len(body) {
			break
		}
		esc := body[i+1]
		switch esc {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		default:
			// +1 for the opening quote, +i for the position within body.
			at := span.M + 1 + i
			d := diag.New("unknown escape character", diag.NewSpan(at, at+2))
			return "", &d
		}
		i++
	}
	return sb.String(), nil
}
