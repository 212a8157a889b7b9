package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

var errNoDocumentXML = errors.New("docx: word/document.xml not found")

// docxText reads headers, the main body and footers in that order. Runs keep
// their tabs and breaks; paragraphs end with a blank line.
func docxText(p string) (string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer zr.Close()

	var body *zip.File
	var headers, footers []*zip.File
	for _, f := range zr.File {
		name := f.Name
		switch {
		case name == "word/document.xml":
			body = f
		case path.Dir(name) == "word" && strings.HasPrefix(path.Base(name), "header") && strings.HasSuffix(name, ".xml"):
			headers = append(headers, f)
		case path.Dir(name) == "word" && strings.HasPrefix(path.Base(name), "footer") && strings.HasSuffix(name, ".xml"):
			footers = append(footers, f)
		}
	}
	if body == nil {
		return "", errNoDocumentXML
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Name < headers[j].Name })
	sort.Slice(footers, func(i, j int) bool { return footers[i].Name < footers[j].Name })

	var b strings.Builder
	parts := append(append(headers, body), footers...)
	for _, f := range parts {
		if err := partText(f, &b); err != nil {
			return "", fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func partText(f *zip.File, b *strings.Builder) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return wordXMLText(rc, b)
}

func wordXMLText(r io.Reader, b *strings.Builder) error {
	dec := xml.NewDecoder(r)
	inText := false
	runDepth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				if runDepth > 0 {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if runDepth > 0 {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "r":
				runDepth--
			case "t":
				inText = false
			case "p":
				b.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
}
