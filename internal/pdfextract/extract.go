// Package pdfextract pulls plain text out of uploaded resume files so
// the scoring step has something to read.
package pdfextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"hirebot/internal/common/errors"
)

// Extract returns a plain-text rendition of the file content based on
// its extension. Unsupported formats come back as a
// TextExtractionFailed error.
func Extract(fileName string, content []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".doc":
		// Legacy binary Word files carry no portable text layer,
		// salvage whatever printable runs they contain.
		return extractPrintable(content), nil
	default:
		return "", errors.NewTextExtractionFailedError(fmt.Errorf("unsupported file type %q", filepath.Ext(fileName)))
	}
}

func extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.NewTextExtractionFailedError(err)
	}

	var buf bytes.Buffer
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", errors.NewTextExtractionFailedError(err)
	}
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", errors.NewTextExtractionFailedError(err)
	}

	text := strings.TrimSpace(buf.String())
	if text == "" {
		return "", errors.NewTextExtractionFailedError(fmt.Errorf("no extractable text"))
	}
	return text, nil
}

// docx files are zip archives; the document body lives in
// word/document.xml as runs of <w:t> elements.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", errors.NewTextExtractionFailedError(err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", errors.NewTextExtractionFailedError(err)
		}
		defer rc.Close()
		text, err := collectXMLText(rc)
		if err != nil {
			return "", errors.NewTextExtractionFailedError(err)
		}
		if text == "" {
			return "", errors.NewTextExtractionFailedError(fmt.Errorf("no extractable text"))
		}
		return text, nil
	}
	return "", errors.NewTextExtractionFailedError(fmt.Errorf("word/document.xml missing"))
}

func collectXMLText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func extractPrintable(content []byte) string {
	var sb strings.Builder
	run := 0
	for _, b := range content {
		if b >= 0x20 && b < 0x7f {
			sb.WriteByte(b)
			run++
			continue
		}
		if run >= 4 {
			sb.WriteByte(' ')
		}
		run = 0
	}
	return strings.TrimSpace(sb.String())
}
