package ingest

import (
	"bytes"
	"fmt"
	"strconv"
)

// Minimal PDF object model. Only what a scanned-card reader needs: enough to
// find the page tree and pull image XObjects out of it.
type (
	pdfName   string
	pdfRef    struct{ Num, Gen int }
	pdfDict   map[pdfName]pdfObject
	pdfArray  []pdfObject
	pdfString []byte
	pdfObject interface{}
)

type pdfStream struct {
	Dict pdfDict
	Raw  []byte
}

// lexer walks raw PDF bytes. It is deliberately forgiving: card scans come
// from a zoo of scanner firmwares and a strict parser rejects too many of
// them.
type lexer struct {
	data []byte
	pos  int
}

func isWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0a, 0x0c, 0x0d, 0x20:
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) {
			l.pos++
			continue
		}
		if b == '%' { // comment runs to end of line
			for l.pos < len(l.data) && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) peek() (byte, bool) {
	if l.pos >= len(l.data) {
		return 0, false
	}
	return l.data[l.pos], true
}

// keyword reads an alphanumeric token without consuming delimiters.
func (l *lexer) keyword() string {
	start := l.pos
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		l.pos++
	}
	return string(l.data[start:l.pos])
}

// parseObject parses one object at the current position.
func (l *lexer) parseObject() (pdfObject, error) {
	l.skipSpace()
	b, ok := l.peek()
	if !ok {
		return nil, fmt.Errorf("%w: unexpected end of data", ErrBadPDF)
	}
	switch {
	case b == '/':
		return l.parseName()
	case b == '(':
		return l.parseLiteralString()
	case b == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			return l.parseDict()
		}
		return l.parseHexString()
	case b == '[':
		return l.parseArray()
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		return l.parseNumberOrRef()
	default:
		kw := l.keyword()
		switch kw {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		}
		return nil, fmt.Errorf("%w: unexpected token %q at %d", ErrBadPDF, kw, l.pos)
	}
}

func (l *lexer) parseName() (pdfName, error) {
	l.pos++ // consume '/'
	var out []byte
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if isWhitespace(b) || isDelimiter(b) {
			break
		}
		if b == '#' && l.pos+2 < len(l.data) {
			if v, err := strconv.ParseUint(string(l.data[l.pos+1:l.pos+3]), 16, 8); err == nil {
				out = append(out, byte(v))
				l.pos += 3
				continue
			}
		}
		out = append(out, b)
		l.pos++
	}
	return pdfName(out), nil
}

func (l *lexer) parseLiteralString() (pdfString, error) {
	l.pos++ // consume '('
	var out []byte
	depth := 1
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		switch b {
		case '\\':
			l.pos++
			if l.pos >= len(l.data) {
				return nil, fmt.Errorf("%w: unterminated string escape", ErrBadPDF)
			}
			e := l.data[l.pos]
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			default:
				out = append(out, e)
			}
			l.pos++
		case '(':
			depth++
			out = append(out, b)
			l.pos++
		case ')':
			depth--
			l.pos++
			if depth == 0 {
				return pdfString(out), nil
			}
			out = append(out, b)
		default:
			out = append(out, b)
			l.pos++
		}
	}
	return nil, fmt.Errorf("%w: unterminated literal string", ErrBadPDF)
}

func (l *lexer) parseHexString() (pdfString, error) {
	l.pos++ // consume '<'
	var hexDigits []byte
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b == '>' {
			l.pos++
			if len(hexDigits)%2 == 1 {
				hexDigits = append(hexDigits, '0')
			}
			out := make([]byte, len(hexDigits)/2)
			for i := 0; i < len(out); i++ {
				v, err := strconv.ParseUint(string(hexDigits[i*2:i*2+2]), 16, 8)
				if err != nil {
					return nil, fmt.Errorf("%w: bad hex string", ErrBadPDF)
				}
				out[i] = byte(v)
			}
			return pdfString(out), nil
		}
		if !isWhitespace(b) {
			hexDigits = append(hexDigits, b)
		}
		l.pos++
	}
	return nil, fmt.Errorf("%w: unterminated hex string", ErrBadPDF)
}

func (l *lexer) parseArray() (pdfArray, error) {
	l.pos++ // consume '['
	var arr pdfArray
	for {
		l.skipSpace()
		b, ok := l.peek()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated array", ErrBadPDF)
		}
		if b == ']' {
			l.pos++
			return arr, nil
		}
		obj, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (l *lexer) parseDict() (pdfObject, error) {
	l.pos += 2 // consume '<<'
	dict := pdfDict{}
	for {
		l.skipSpace()
		b, ok := l.peek()
		if !ok {
			return nil, fmt.Errorf("%w: unterminated dictionary", ErrBadPDF)
		}
		if b == '>' {
			if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
				l.pos += 2
				break
			}
			return nil, fmt.Errorf("%w: stray '>' in dictionary", ErrBadPDF)
		}
		if b != '/' {
			return nil, fmt.Errorf("%w: dictionary key is not a name at %d", ErrBadPDF, l.pos)
		}
		key, err := l.parseName()
		if err != nil {
			return nil, err
		}
		val, err := l.parseObject()
		if err != nil {
			return nil, err
		}
		dict[key] = val
	}

	// A stream keyword directly after the dictionary promotes it to a stream
	// object; the data length comes from /Length when it is a direct integer,
	// otherwise the endstream keyword is located by search.
	save := l.pos
	l.skipSpace()
	if kw := l.keyword(); kw == "stream" {
		return l.parseStreamData(dict)
	}
	l.pos = save
	return dict, nil
}

func (l *lexer) parseStreamData(dict pdfDict) (pdfObject, error) {
	// EOL after the stream keyword: CRLF or LF.
	if l.pos < len(l.data) && l.data[l.pos] == '\r' {
		l.pos++
	}
	if l.pos < len(l.data) && l.data[l.pos] == '\n' {
		l.pos++
	}
	start := l.pos

	if n, ok := dict[pdfName("Length")].(int64); ok && start+int(n) <= len(l.data) {
		end := start + int(n)
		rest := l.data[end:]
		// Only trust /Length if endstream actually follows.
		probe := bytes.TrimLeft(rest, "\r\n \t")
		if bytes.HasPrefix(probe, []byte("endstream")) {
			l.pos = end
			l.consumeEndstream()
			return pdfStream{Dict: dict, Raw: l.data[start:end]}, nil
		}
	}

	idx := bytes.Index(l.data[start:], []byte("endstream"))
	if idx < 0 {
		return nil, fmt.Errorf("%w: unterminated stream", ErrBadPDF)
	}
	end := start + idx
	// Strip the EOL that precedes endstream.
	for end > start && (l.data[end-1] == '\n' || l.data[end-1] == '\r') {
		end--
	}
	l.pos = start + idx
	l.consumeEndstream()
	return pdfStream{Dict: dict, Raw: l.data[start:end]}, nil
}

func (l *lexer) consumeEndstream() {
	l.skipSpace()
	save := l.pos
	if l.keyword() != "endstream" {
		l.pos = save
	}
}

func (l *lexer) parseNumberOrRef() (pdfObject, error) {
	first, isInt, err := l.parseNumber()
	if err != nil {
		return nil, err
	}
	if !isInt {
		return first, nil
	}

	// Lookahead for "<gen> R" marking an indirect reference.
	save := l.pos
	l.skipSpace()
	b, ok := l.peek()
	if ok && b >= '0' && b <= '9' {
		gen, genInt, err := l.parseNumber()
		if err == nil && genInt {
			l.skipSpace()
			kwStart := l.pos
			if l.keyword() == "R" {
				return pdfRef{Num: int(first.(int64)), Gen: int(gen.(int64))}, nil
			}
			l.pos = kwStart
		}
	}
	l.pos = save
	return first, nil
}

func (l *lexer) parseNumber() (pdfObject, bool, error) {
	start := l.pos
	if b, ok := l.peek(); ok && (b == '+' || b == '-') {
		l.pos++
	}
	isInt := true
	for l.pos < len(l.data) {
		b := l.data[l.pos]
		if b >= '0' && b <= '9' {
			l.pos++
			continue
		}
		if b == '.' {
			isInt = false
			l.pos++
			continue
		}
		break
	}
	tok := string(l.data[start:l.pos])
	if tok == "" || tok == "+" || tok == "-" || tok == "." {
		return nil, false, fmt.Errorf("%w: malformed number at %d", ErrBadPDF, start)
	}
	if isInt {
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrBadPDF, err)
		}
		return v, true, nil
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrBadPDF, err)
	}
	return v, false, nil
}
