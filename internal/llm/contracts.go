package llm

import "context"

// Record is one extracted invoice: whatever keys the model returned, plus
// bookkeeping keys added downstream (source_file, filename, processed_date).
// It is deliberately schema-free.
type Record map[string]any

// ErrorKey is the only key of an error record.
const ErrorKey = "error"

// ErrorRecord builds {"error": msg}.
func ErrorRecord(msg string) Record {
	return Record{ErrorKey: msg}
}

// Err returns the error message when r is an error record.
func (r Record) Err() (string, bool) {
	v, ok := r[ErrorKey]
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

// FieldExtractor is the low-level call: text in, decoded record and the raw
// model output back, or an error.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (Record, []byte /*rawJSON*/, error)
}

// Extractor is what the pipeline depends on. It never fails: API errors and
// unparsable output come back as an error record.
type Extractor interface {
	Extract(ctx context.Context, text string) Record
}
