package export

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

func quietService() *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseRows_KeyOrderAndUnion(t *testing.T) {
	tbl, err := ParseRows([]byte(`[
		{"Vendor Name":"ACME","Total Amount":1500.00,"source_file":"a.pdf"},
		{"Invoice Number":"INV-2","Vendor Name":"Globex"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"Vendor Name", "Total Amount", "source_file", "Invoice Number"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
}

func TestParseRows_SingleObject(t *testing.T) {
	tbl, err := ParseRows([]byte(`{"b":1,"a":2}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, tbl.Columns)
	assert.Len(t, tbl.Rows, 1)
}

func TestParseRows_Rejects(t *testing.T) {
	for _, in := range []string{``, `42`, `"x"`, `[1,2]`, `{"a":1} trailing`, `{"a":`} {
		_, err := ParseRows([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestCSV(t *testing.T) {
	svc := quietService()

	tbl, err := ParseRows([]byte(`[{"a":1}]`))
	require.NoError(t, err)
	out, err := svc.CSV(tbl)
	require.NoError(t, err)
	assert.Equal(t, "a\n1\n", string(out))

	tbl, err = ParseRows([]byte(`[
		{"Vendor Name":"ACME, Inc.","Total Amount":1500.00,"Paid":true,"Due Date":null,
		 "Line Items":[{"Description":"Widget", "Quantity":2}]},
		{"Extra":"x"}
	]`))
	require.NoError(t, err)
	out, err = svc.CSV(tbl)
	require.NoError(t, err)
	want := "Vendor Name,Total Amount,Paid,Due Date,Line Items,Extra\n" +
		`"ACME, Inc.",1500.00,true,,"[{""Description"":""Widget"",""Quantity"":2}]",` + "\n" +
		",,,,,x\n"
	assert.Equal(t, want, string(out))
}

func TestXLSX(t *testing.T) {
	tbl, err := ParseRows([]byte(`[{"Invoice Number":"INV-1","Total Amount":12.5,"Notes":null}]`))
	require.NoError(t, err)

	out, err := quietService().XLSX(tbl)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Invoice Number", "Total Amount", "Notes"}, rows[0])
	assert.Equal(t, "INV-1", rows[1][0])
	assert.Equal(t, "12.5", rows[1][1])

	typ, err := f.GetCellType(SheetName, "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)
	assert.Equal(t, "invoice_data_20240309_140507.csv", Filename("csv", now))
	assert.Equal(t, "invoice_data_20240309_140507.xlsx", Filename("xlsx", now))
}

func TestFromRecords(t *testing.T) {
	recs := []llm.Record{
		{"source_file": "a.pdf", "Vendor Name": "ACME", "zeta": true},
		{"error": "unsupported file type", "source_file": "b.txt"},
	}
	tbl, err := FromRecords(recs, []string{"Invoice Number", "Vendor Name", "source_file"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Vendor Name", "source_file", "error", "zeta"}, tbl.Columns)

	out, err := quietService().CSV(tbl)
	require.NoError(t, err)
	assert.Equal(t, "Vendor Name,source_file,error,zeta\nACME,a.pdf,,true\n,b.txt,unsupported file type,\n", string(out))
}
