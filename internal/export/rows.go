package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Table is the spreadsheet view of one or more records: the union of their
// keys in first-seen order, and each record's raw JSON values by key.
type Table struct {
	Columns []string
	Rows    []map[string]json.RawMessage
}

var ErrNotObjects = errors.New("data must be a JSON object or an array of objects")

// ParseRows reads a JSON object or array of objects without losing key order.
func ParseRows(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}

	t := &Table{}
	seen := map[string]struct{}{}
	switch tok {
	case json.Delim('{'):
		if err := readObject(dec, t, seen); err != nil {
			return nil, err
		}
	case json.Delim('['):
		for dec.More() {
			open, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("read row: %w", err)
			}
			if open != json.Delim('{') {
				return nil, ErrNotObjects
			}
			if err := readObject(dec, t, seen); err != nil {
				return nil, err
			}
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("read data: %w", err)
		}
	default:
		return nil, ErrNotObjects
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after JSON value")
	}
	return t, nil
}

// readObject consumes the members of an object whose '{' was already read.
func readObject(dec *json.Decoder, t *Table, seen map[string]struct{}) error {
	row := map[string]json.RawMessage{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", kt)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("read value of %q: %w", key, err)
		}
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			t.Columns = append(t.Columns, key)
		}
		row[key] = raw
	}
	if _, err := dec.Token(); err != nil { // '}'
		return fmt.Errorf("read object end: %w", err)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// cellText renders a raw value: strings verbatim, numbers and booleans as
// written, null/missing empty, arrays and objects as compact JSON.
func cellText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err == nil {
			return buf.String()
		}
	}
	return string(raw)
}

// cellValue is cellText, except numbers come back as float64 for XLSX.
func cellValue(raw json.RawMessage) any {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && (raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		if f, err := strconv.ParseFloat(string(raw), 64); err == nil {
			return f
		}
	}
	return cellText(raw)
}
