package ingest

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"invoice.pdf", "invoice.pdf"},
		{"My Invoice 2024.PDF", "My_Invoice_2024.PDF"},
		{"../../etc/passwd", "etc_passwd"},
		{`C:\Users\bob\scan.jpg`, "C_Users_bob_scan.jpg"},
		{"facture_été.docx", "facture_ete.docx"},
		{"  .hidden.png  ", "hidden.png"},
		{"发票", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.in))
		})
	}
}

var stagedName = regexp.MustCompile(`^temp_\d{8}_\d{6}_[0-9a-f]{8}_Invoice_1.pdf$`)

func TestStage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	sf, err := Stage(dir, "Invoice 1.pdf", strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(sf.Path))
	assert.Regexp(t, stagedName, filepath.Base(sf.Path))
	assert.Equal(t, int64(len("%PDF-1.4 body")), sf.Size)
	assert.Len(t, sf.HashHex, 64)

	b, err := os.ReadFile(sf.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(b))
}

func TestStage_SameNameTwice(t *testing.T) {
	dir := t.TempDir()
	a, err := Stage(dir, "a.png", strings.NewReader("1"))
	require.NoError(t, err)
	b, err := Stage(dir, "a.png", strings.NewReader("2"))
	require.NoError(t, err)
	assert.NotEqual(t, a.Path, b.Path)
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Invoice_1.pdf", safeName("Invoice 1.pdf"))
	assert.Equal(t, "upload.pdf", safeName("发票.pdf"))
	assert.Equal(t, "upload", safeName("///"))
	assert.Equal(t, "scan.JPEG", safeName("scan.JPEG"))
}

func TestStageCopy_LeavesSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "bill.docx")
	require.NoError(t, os.WriteFile(src, []byte("PK"), 0o644))

	sf, err := StageCopy(t.TempDir(), src)
	require.NoError(t, err)
	assert.FileExists(t, src)
	assert.FileExists(t, sf.Path)
	assert.Equal(t, "bill.docx", sf.OriginalName)
}
