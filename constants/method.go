package constants

// ExtractionMethod names the single strategy that produced a document's text.
type ExtractionMethod string

// Stable values; they show up in logs and CLI output.
const (
	MethodNone      ExtractionMethod = ""
	MethodPDFText   ExtractionMethod = "pdf-text"   // native PDF text layer
	MethodDOCXText  ExtractionMethod = "docx-text"  // word/document.xml runs
	MethodLocalOCR  ExtractionMethod = "local-ocr"  // tesseract
	MethodRemoteOCR ExtractionMethod = "remote-ocr" // OCR.space
)
