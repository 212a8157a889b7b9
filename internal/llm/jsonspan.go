package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoJSON      = errors.New("no valid JSON found in response")
	ErrInvalidJSON = errors.New("invalid JSON in response")
)

// ParseRecord pulls the JSON object out of a chat response. The primary rule
// is greedy: everything from the first '{' to the last '}' in the whole
// response, newlines included. When that span does not decode (prose with a
// stray brace after the object, two objects), the first balanced, string
// aware object that decodes is used instead.
func ParseRecord(content string) (Record, []byte, error) {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start < 0 || end < start {
		return nil, nil, ErrNoJSON
	}

	greedy := []byte(content[start : end+1])
	rec, firstErr := decodeObject(greedy)
	if firstErr == nil {
		return rec, greedy, nil
	}

	for i := start; i <= end; i++ {
		if content[i] != '{' {
			continue
		}
		span, ok := balancedSpan(content, i)
		if !ok {
			continue
		}
		if rec, err := decodeObject([]byte(span)); err == nil {
			return rec, []byte(span), nil
		}
	}
	return nil, greedy, fmt.Errorf("%w: %v", ErrInvalidJSON, firstErr)
}

// decodeObject keeps numbers as json.Number so amounts survive untouched.
func decodeObject(b []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errors.New("null object")
	}
	if dec.More() {
		return nil, errors.New("trailing data after object")
	}
	return rec, nil
}

// balancedSpan returns s[from:j+1] where j closes the '{' at from, skipping
// braces inside JSON strings.
func balancedSpan(s string, from int) (string, bool) {
	depth := 0
	inStr, esc := false, false
	for j := from; j < len(s); j++ {
		c := s[j]
		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[from : j+1], true
			}
		}
	}
	return "", false
}
