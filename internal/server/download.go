package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
)

const (
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	s.download(w, r, "CSV", "csv", contentTypeCSV, s.export.CSV)
}

func (s *Server) handleDownloadExcel(w http.ResponseWriter, r *http.Request) {
	s.download(w, r, "Excel file", "xlsx", contentTypeXLSX, s.export.XLSX)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, label, ext, contentType string, render func(*export.Table) ([]byte, error)) {
	data := r.URL.Query().Get("data")
	if strings.TrimSpace(data) == "" {
		writeError(w, common.InvalidInputError("no data provided"))
		return
	}

	body, err := func() ([]byte, error) {
		tbl, err := export.ParseRows([]byte(data))
		if err != nil {
			return nil, err
		}
		return render(tbl)
	}()
	if err != nil {
		s.logger.Error("download.failed", "format", ext, "error", err)
		writeError(w, common.InternalError(fmt.Sprintf("error generating %s: %v", label, err), err))
		return
	}

	writeAttachment(w, contentType, export.Filename(ext, s.now()), body)
}
