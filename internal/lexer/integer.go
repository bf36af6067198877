package lexer

import (
	"math"
	"strconv"

	"github.com/hollowvm/intcode/internal/diag"
)

// ParseInteger interprets text (the full Number token text, e.g.
// "0x1A" or "1_000") as a signed 64-bit integer. negative indicates
// whether a unary minus preceded the literal in source; it is applied
// during accumulation (by subtracting rather than adding each digit)
// so that math.MinInt64 is representable without ever overflowing an
// intermediate positive magnitude.
//
// span is the token's span in the original source and is used to
// anchor the two possible diagnostics: an invalid digit points at the
// offending byte, an out-of-range literal spans the whole token.
func ParseInteger(text string, span diag.Span, negative bool) (int64, *diag.Diagnostic) {
	radix := 10
	start := 0
	if len(text) >= 2 && text[0] == '0' {
		switch text[1] {
		case 'b', 'B':
			radix, start = 2, 2
		case 'o', 'O':
			radix, start = 8, 2
		case 'x', 'X':
			radix, start = 16, 2
		}
	}

	limit := uint64(math.MaxInt64)
	if negative {
		limit++ // magnitude of math.MinInt64
	}

	var mag uint64
	radixU := uint64(radix)
	for i := start; i < len(text); i++ {
		ch := text[i]
		if ch == '_' {
			continue
		}
		digit, ok := digitValue(ch, radix)
		if !ok {
			d := diag.New(invalidDigitMessage(radix), diag.NewSpan(span.M+i, span.M+i+1))
			return 0, &d
		}
		if mag > (math.MaxUint64-uint64(digit))/radixU {
			d := diag.New(outOfRangeMessage(radix), span)
			return 0, &d
		}
		mag = mag*radixU + uint64(digit)
		if mag > limit {
			d := diag.New(outOfRangeMessage(radix), span)
			return 0, &d
		}
	}

	if negative {
		return int64(-mag), nil
	}
	return int64(mag), nil
}

func digitValue(ch byte, radix int) (int, bool) {
	var v int
	switch {
	case ch >= '0' && ch <= '9':
		v = int(ch - '0')
	case ch >= 'a' && ch <= 'f':
		v = int(ch-'a') + 10
	case ch >= 'A' && ch <= 'F':
		v = int(ch-'A') + 10
	default:
		return 0, false
	}
	if v >= radix {
		return 0, false
	}
	return v, true
}

func invalidDigitMessage(radix int) string {
	return "invalid digit for base " + strconv.Itoa(radix) + " literal"
}

func outOfRangeMessage(radix int) string {
	return "base " + strconv.Itoa(radix) + " literal out of range for 64-bit integer"
}
