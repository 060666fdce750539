package jsonenc

import (
	"strconv"

	"github.com/tidwall/pretty"
)

const hexDigits = "0123456789ABCDEF"

// Encode serializes v into compact JSON text
func Encode(v Value) []byte {
	return AppendValue(make([]byte, 0, 256), v)
}

// EncodeString serializes v and returns it as a string
func EncodeString(v Value) string {
	return string(Encode(v))
}

// AppendValue appends the encoding of v to dst
func AppendValue(dst []byte, v Value) []byte {
	switch v.kind {
	case KindString:
		return appendQuoted(dst, v.str)
	case KindNumber:
		return strconv.AppendInt(dst, v.num, 10)
	case KindBool:
		return strconv.AppendBool(dst, v.boolean)
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.items {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = AppendValue(dst, item)
		}
		return append(dst, ']')
	case KindObject:
		dst = append(dst, '{')
		for i, field := range v.fields {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendQuoted(dst, field.Key)
			dst = append(dst, ':')
			dst = AppendValue(dst, field.Value)
		}
		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

// Escape returns s escaped for use inside a JSON string literal, without quotes.
// Quote, backslash, newline, carriage return and tab use their short escapes;
// other control bytes use \u00XX. Everything else, non-ASCII included, is copied as is.
func Escape(s string) string {
	return string(appendEscaped(make([]byte, 0, len(s)), s))
}

func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	dst = appendEscaped(dst, s)
	return append(dst, '"')
}

func appendEscaped(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xF])
				continue
			}
			dst = append(dst, c)
		}
	}
	return dst
}

// Indent returns an indented copy of an encoded document for debug output.
// Key order is preserved.
func Indent(doc []byte) []byte {
	return pretty.Pretty(doc)
}
