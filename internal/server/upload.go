package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/ingest"
)

const (
	formField           = "file"
	processedDateLayout = "2006-01-02 15:04:05"
	multipartMemory     = 32 << 20
)

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	tooLarge := common.FileTooLargeError(fmt.Sprintf("file is too large, maximum size is %s",
		humanize.IBytes(uint64(s.cfg.MaxFileSize))))
	if r.ContentLength > s.cfg.MaxFileSize {
		writeError(w, tooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, tooLarge)
			return
		}
		s.logger.Warn("upload.form.invalid", "error", err)
		writeError(w, common.InvalidInputError("no file part"))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("upload.form.cleanup_failed", "error", err)
		}
	}()

	file, header, err := r.FormFile(formField)
	if err != nil {
		// a part sent with filename="" is parsed as a plain value
		if _, ok := r.MultipartForm.Value[formField]; ok {
			writeError(w, common.InvalidInputError("no selected file"))
			return
		}
		writeError(w, common.InvalidInputError("no file part"))
		return
	}
	defer func(f multipart.File) {
		_ = f.Close()
	}(file)

	if err := common.ValidateUploadName(header.Filename); err != nil {
		writeError(w, err)
		return
	}

	staged, err := ingest.Stage(s.cfg.UploadDir, header.Filename, file)
	if err != nil {
		s.logger.Error("upload.stage.failed", "file", header.Filename, "error", err)
		writeError(w, common.InternalError("error saving file", err))
		return
	}
	s.logger.Info("upload.staged",
		"file", header.Filename,
		"size", humanize.IBytes(uint64(staged.Size)),
		"sha256", staged.HashHex,
	)

	ctx, cancel := common.WithTimeout(r.Context(), s.cfg.ProcessingTimeout)
	defer cancel()
	rec := s.proc.Process(ctx, staged.Path)

	rec["filename"] = header.Filename
	rec["processed_date"] = s.now().Format(processedDateLayout)
	writeJSON(w, http.StatusOK, rec)
}
