package llm

// BuildInvoiceJSONSchema returns a deliberately loose JSON-Schema: the model
// may add or omit keys, but the well-known ones should have sane shapes.
// Violations are logged, never enforced.
func BuildInvoiceJSONSchema() map[string]any {
	scalar := map[string]any{"type": []string{"string", "number", "null"}}
	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"Description": map[string]any{"type": []string{"string", "null"}},
			"Quantity":    scalar,
			"Unit Price":  scalar,
			"Total Price": scalar,
		},
	}
	props := map[string]any{
		"Invoice Number": scalar,
		"Date":           scalar,
		"Due Date":       scalar,
		"Total Amount":   scalar,
		"Vendor Name":    map[string]any{"type": []string{"string", "null"}},
		"Line Items":     map[string]any{"type": []string{"array", "null"}, "items": lineItem},
		"Subtotal":       scalar,
		"Tax Amount":     scalar,
		"Currency":       map[string]any{"type": []string{"string", "null"}},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties":           props,
	}
}
