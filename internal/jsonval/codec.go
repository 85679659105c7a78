package jsonval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/untoldecay/leech/internal/buffer"
)

// Compose produces the canonical byte serialization of v. For a given value
// (including object key insertion order) Compose is deterministic: the same
// value always composes to the same bytes, which is what makes a block's
// SHA-1 over its composition a meaningful content address. Composition is
// framed through internal/buffer's growable Buffer rather than a
// strings.Builder, since that buffer is what block/patch ids are hashed
// over (spec.md §4.B).
func Compose(v *Value) []byte {
	buf := buffer.New(64)
	composeInto(buf, v)
	return buf.Bytes()
}

func composeInto(sb *buffer.Buffer, v *Value) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		if v.b {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case KindString:
		composeString(sb, v.s)
	case KindNumber:
		composeNumber(sb, v.n)
	case KindArray:
		sb.WriteByte('[')
		for i, item := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			composeInto(sb, item)
		}
		sb.WriteByte(']')
	case KindObject:
		sb.WriteByte('{')
		i := 0
		for pair := v.obj.Oldest(); pair != nil; pair = pair.Next() {
			if i > 0 {
				sb.WriteByte(',')
			}
			composeString(sb, pair.Key)
			sb.WriteByte(':')
			composeInto(sb, pair.Value)
			i++
		}
		sb.WriteByte('}')
	}
}

func composeNumber(sb *buffer.Buffer, n float64) {
	sb.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
}

func composeString(sb *buffer.Buffer, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
}

// ParseError carries a diagnostic and the byte offset at which parsing failed.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("jsonval: parse error at offset %d: %s", e.Offset, e.Msg)
}

// Parse decodes a single JSON value from data, failing on syntax errors,
// trailing garbage, or an unterminated string/object/array.
func Parse(data []byte) (*Value, error) {
	p := &parser{data: data}
	p.skipSpace()
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.data) {
		return nil, &ParseError{Offset: p.pos, Msg: "trailing garbage after value"}
	}
	return v, nil
}

type parser struct {
	data []byte
	pos  int
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() (byte, bool) {
	if p.pos >= len(p.data) {
		return 0, false
	}
	return p.data[p.pos], true
}

func (p *parser) parseValue() (*Value, error) {
	c, ok := p.peek()
	if !ok {
		return nil, p.errf("unexpected end of input")
	}
	switch {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseStringLiteral()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case c == 't':
		return p.parseLiteral("true", Bool(true))
	case c == 'f':
		return p.parseLiteral("false", Bool(false))
	case c == 'n':
		return p.parseLiteral("null", Null())
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return nil, p.errf("unexpected character %q", c)
	}
}

func (p *parser) parseLiteral(lit string, v *Value) (*Value, error) {
	if p.pos+len(lit) > len(p.data) || string(p.data[p.pos:p.pos+len(lit)]) != lit {
		return nil, p.errf("invalid literal, expected %q", lit)
	}
	p.pos += len(lit)
	return v, nil
}

func (p *parser) parseNumber() (*Value, error) {
	start := p.pos
	if b, ok := p.peek(); ok && b == '-' {
		p.pos++
	}
	for {
		b, ok := p.peek()
		if !ok || b < '0' || b > '9' {
			break
		}
		p.pos++
	}
	if b, ok := p.peek(); ok && b == '.' {
		p.pos++
		for {
			b, ok := p.peek()
			if !ok || b < '0' || b > '9' {
				break
			}
			p.pos++
		}
	}
	if b, ok := p.peek(); ok && (b == 'e' || b == 'E') {
		p.pos++
		if b, ok := p.peek(); ok && (b == '+' || b == '-') {
			p.pos++
		}
		for {
			b, ok := p.peek()
			if !ok || b < '0' || b > '9' {
				break
			}
			p.pos++
		}
	}
	text := string(p.data[start:p.pos])
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errf("invalid number literal %q", text)
	}
	return Number(n), nil
}

func (p *parser) parseStringLiteral() (string, error) {
	if b, ok := p.peek(); !ok || b != '"' {
		return "", p.errf("expected '\"'")
	}
	p.pos++
	var sb strings.Builder
	for {
		if p.pos >= len(p.data) {
			return "", p.errf("unterminated string")
		}
		c := p.data[p.pos]
		if c == '"' {
			p.pos++
			return sb.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.data) {
				return "", p.errf("unterminated escape sequence")
			}
			esc := p.data[p.pos]
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '/':
				sb.WriteByte('/')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'u':
				r, err := p.parseUnicodeEscape()
				if err != nil {
					return "", err
				}
				sb.WriteRune(r)
				continue
			default:
				return "", p.errf("invalid escape character %q", esc)
			}
			p.pos++
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
}

func (p *parser) parseUnicodeEscape() (rune, error) {
	// p.pos is on the 'u'; 4 hex digits follow.
	if p.pos+5 > len(p.data) {
		return 0, p.errf("truncated \\u escape")
	}
	hi, err := parseHex4(p.data[p.pos+1 : p.pos+5])
	if err != nil {
		return 0, p.errf("invalid \\u escape: %v", err)
	}
	p.pos += 5
	if utf16IsHighSurrogate(hi) && p.pos+6 <= len(p.data) && p.data[p.pos] == '\\' && p.data[p.pos+1] == 'u' {
		lo, err := parseHex4(p.data[p.pos+2 : p.pos+6])
		if err == nil && utf16IsLowSurrogate(lo) {
			p.pos += 6
			return utf16Combine(hi, lo), nil
		}
	}
	return rune(hi), nil
}

func parseHex4(b []byte) (uint32, error) {
	v, err := strconv.ParseUint(string(b), 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func utf16IsHighSurrogate(r uint32) bool { return r >= 0xD800 && r <= 0xDBFF }
func utf16IsLowSurrogate(r uint32) bool  { return r >= 0xDC00 && r <= 0xDFFF }
func utf16Combine(hi, lo uint32) rune {
	return rune(0x10000 + (hi-0xD800)<<10 + (lo - 0xDC00))
}

func (p *parser) parseArray() (*Value, error) {
	p.pos++ // consume '['
	arr := NewArray()
	p.skipSpace()
	if b, ok := p.peek(); ok && b == ']' {
		p.pos++
		return arr, nil
	}
	for {
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr.Append(v)
		p.skipSpace()
		b, ok := p.peek()
		if !ok {
			return nil, p.errf("unterminated array")
		}
		if b == ',' {
			p.pos++
			continue
		}
		if b == ']' {
			p.pos++
			return arr, nil
		}
		return nil, p.errf("expected ',' or ']' in array, got %q", b)
	}
}

func (p *parser) parseObject() (*Value, error) {
	p.pos++ // consume '{'
	obj := NewObject()
	p.skipSpace()
	if b, ok := p.peek(); ok && b == '}' {
		p.pos++
		return obj, nil
	}
	for {
		p.skipSpace()
		if b, ok := p.peek(); !ok || b != '"' {
			return nil, p.errf("expected object key string")
		}
		key, err := p.parseStringLiteral()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if b, ok := p.peek(); !ok || b != ':' {
			return nil, p.errf("expected ':' after object key")
		}
		p.pos++
		p.skipSpace()
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
		p.skipSpace()
		b, ok := p.peek()
		if !ok {
			return nil, p.errf("unterminated object")
		}
		if b == ',' {
			p.pos++
			continue
		}
		if b == '}' {
			p.pos++
			return obj, nil
		}
		return nil, p.errf("expected ',' or '}' in object, got %q", b)
	}
}
