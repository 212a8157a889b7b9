package llm

import "strings"

// SystemPrompt frames the model as an invoice analyzer.
const SystemPrompt = "You are an expert invoice analyzer. Extract information in clean JSON format."

// InvoiceFields is the field list the user prompt asks for, in order.
var InvoiceFields = []string{
	"Invoice Number",
	"Date",
	"Due Date",
	"Total Amount",
	"Vendor Name",
	"Line Items",
	"Subtotal",
	"Tax Amount",
	"Payment Terms",
	"Billing Address",
	"Currency",
	"Additional Notes",
}

var lineItemFields = []string{"Description", "Quantity", "Unit Price", "Total Price"}

// BuildUserPrompt embeds the document text in the fixed extraction instructions.
func BuildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze the following invoice text and extract all relevant details.\n")
	b.WriteString("Return the data in JSON format with these fields:\n")
	for _, f := range InvoiceFields {
		b.WriteString("- ")
		b.WriteString(f)
		if f == "Line Items" {
			b.WriteString(" (array with):\n")
			for _, li := range lineItemFields {
				b.WriteString("    * ")
				b.WriteString(li)
				b.WriteString("\n")
			}
			continue
		}
		b.WriteString("\n")
	}
	b.WriteString("\nInvoice text:\n")
	b.WriteString(text)
	b.WriteString("\n\nReturn only the JSON object with these fields. Format numerical values appropriately.\n")
	return b.String()
}
