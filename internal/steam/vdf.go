package steam

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// ErrMalformedVDF is returned for Valve key-value text that cannot be parsed.
var ErrMalformedVDF = errors.New("malformed vdf")

// KeyValues is a parsed Valve key-value block. Values are either strings or nested blocks.
// Keys are matched case-insensitively by the accessors, as Steam writes both "AppState"
// and "appstate" depending on the client version.
type KeyValues map[string]any

// Block returns the nested block under key.
func (kv KeyValues) Block(key string) (KeyValues, bool) {
	v, ok := kv.lookup(key)
	if !ok {
		return nil, false
	}
	b, ok := v.(KeyValues)
	return b, ok
}

// String returns the string value under key.
func (kv KeyValues) String(key string) (string, bool) {
	v, ok := kv.lookup(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (kv KeyValues) lookup(key string) (any, bool) {
	if v, ok := kv[key]; ok {
		return v, true
	}
	for k, v := range kv {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// ParseVDF reads Valve key-value text. Several top-level keys are allowed; "//" comments
// are skipped and "\\", "\"", "\n" and "\t" escapes are decoded in quoted strings.
func ParseVDF(r io.Reader) (KeyValues, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	scanner.Split(scanTokens)

	var tokens []token
	for scanner.Scan() {
		text := scanner.Text()
		if strings.HasPrefix(text, "\"") {
			tokens = append(tokens, token{text: unquote(text), quoted: true})
			continue
		}
		tokens = append(tokens, token{text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedVDF, err)
	}

	p := &parser{tokens: tokens}
	root, err := p.block(false)
	if err != nil {
		return nil, err
	}
	return root, nil
}

type token struct {
	text   string
	quoted bool
}

func (t token) isOpen() bool  { return !t.quoted && t.text == "{" }
func (t token) isClose() bool { return !t.quoted && t.text == "}" }

type parser struct {
	tokens []token
	pos    int
}

// block parses pairs until "}" (nested) or the end of input (top level).
func (p *parser) block(nested bool) (KeyValues, error) {
	out := KeyValues{}
	for p.pos < len(p.tokens) {
		key := p.tokens[p.pos]
		if key.isClose() {
			if !nested {
				return nil, fmt.Errorf("%w: unexpected }", ErrMalformedVDF)
			}
			p.pos++
			return out, nil
		}
		if key.isOpen() {
			return nil, fmt.Errorf("%w: block without a key", ErrMalformedVDF)
		}
		p.pos++
		if p.pos >= len(p.tokens) {
			return nil, fmt.Errorf("%w: no value for key %q", ErrMalformedVDF, key.text)
		}

		value := p.tokens[p.pos]
		p.pos++
		switch {
		case value.isOpen():
			inner, err := p.block(true)
			if err != nil {
				return nil, err
			}
			out[key.text] = inner
		case value.isClose():
			return nil, fmt.Errorf("%w: no value for key %q", ErrMalformedVDF, key.text)
		default:
			out[key.text] = value.text
		}
	}
	if nested {
		return nil, fmt.Errorf("%w: missing }", ErrMalformedVDF)
	}
	return out, nil
}

func unquote(s string) string {
	body := s[1 : len(s)-1]
	if !strings.Contains(body, `\`) {
		return body
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 == len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String()
}

// scanTokens splits on quoted strings (quotes kept), braces and bare words.
func scanTokens(data []byte, atEOF bool) (int, []byte, error) {
	start := 0
	for start < len(data) {
		switch {
		case unicode.IsSpace(rune(data[start])):
			start++
			continue
		case data[start] == '/' && start+1 < len(data) && data[start+1] == '/':
			end := start
			for end < len(data) && data[end] != '\n' {
				end++
			}
			if end == len(data) && !atEOF {
				return start, nil, nil
			}
			start = end
			continue
		case data[start] == '/' && start+1 == len(data) && !atEOF:
			return start, nil, nil
		}
		break
	}
	if start >= len(data) {
		return start, nil, nil
	}

	switch data[start] {
	case '"':
		for i := start + 1; i < len(data); i++ {
			if data[i] == '\\' {
				i++
				continue
			}
			if data[i] == '"' {
				return i + 1, data[start : i+1], nil
			}
		}
		if atEOF {
			return 0, nil, fmt.Errorf("unclosed quote at offset %d", start)
		}
		return start, nil, nil
	case '{', '}':
		return start + 1, data[start : start+1], nil
	}

	end := start
	for end < len(data) && !unicode.IsSpace(rune(data[end])) && data[end] != '"' && data[end] != '{' && data[end] != '}' {
		end++
	}
	if end == len(data) && !atEOF {
		return start, nil, nil
	}
	return end, data[start:end], nil
}
