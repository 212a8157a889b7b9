package export

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

// FromRecords builds a table straight from records. Maps carry no key order,
// so columns named in leading come first (when any record has them) and the
// remaining keys follow alphabetically.
func FromRecords(recs []llm.Record, leading []string) (*Table, error) {
	t := &Table{Rows: make([]map[string]json.RawMessage, 0, len(recs))}
	present := map[string]struct{}{}
	for i, rec := range recs {
		row := make(map[string]json.RawMessage, len(rec))
		for k, v := range rec {
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", i, k, err)
			}
			row[k] = raw
			present[k] = struct{}{}
		}
		t.Rows = append(t.Rows, row)
	}

	placed := map[string]struct{}{}
	for _, k := range leading {
		if _, ok := present[k]; ok {
			if _, dup := placed[k]; !dup {
				t.Columns = append(t.Columns, k)
				placed[k] = struct{}{}
			}
		}
	}
	var rest []string
	for k := range present {
		if _, ok := placed[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	t.Columns = append(t.Columns, rest...)
	return t, nil
}
