// Package resume turns uploaded documents into plain resume text.
package resume

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// MaxUploadBytes bounds an uploaded document.
const MaxUploadBytes = 5 << 20

type Format string

const (
	FormatText Format = "text"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

var ErrUnsupported = errors.New("unsupported document type")

var formatsByExt = map[string]Format{
	".txt":  FormatText,
	".md":   FormatText,
	".text": FormatText,
	".htm":  FormatHTML,
	".html": FormatHTML,
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
}

const mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var formatsByMIME = map[string]Format{
	"text/plain":      FormatText,
	"text/markdown":   FormatText,
	"text/html":       FormatHTML,
	"application/pdf": FormatPDF,
	mimeDOCX:          FormatDOCX,
}

// DetectFormat prefers the file extension and falls back to the content type.
func DetectFormat(filename, contentType string) (Format, error) {
	if f, ok := formatsByExt[strings.ToLower(filepath.Ext(filename))]; ok {
		return f, nil
	}
	mime := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if f, ok := formatsByMIME[mime]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, filename)
}

// Extract returns the readable text of an uploaded document.
func Extract(filename, contentType string, data []byte) (string, error) {
	format, err := DetectFormat(filename, contentType)
	if err != nil {
		return "", err
	}

	var text string
	switch format {
	case FormatText:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s is not valid UTF-8 text", filename)
		}
		text = string(data)
	case FormatHTML:
		text, err = htmlText(data)
	case FormatPDF:
		text, err = pdfText(data)
	case FormatDOCX:
		text, err = docxText(data)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}
	return Normalize(text), nil
}

func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, head").Remove()
	doc.Find("br, p, div, li, h1, h2, h3, h4, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return doc.Text(), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()
	return wordXMLText(doc.Editable().GetContent()), nil
}

var (
	wordBreak = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag    = regexp.MustCompile(`<[^>]+>`)
)

// wordXMLText strips WordprocessingML markup, keeping paragraph breaks.
func wordXMLText(content string) string {
	content = wordBreak.ReplaceAllStringFunc(content, func(tag string) string {
		if tag == "<w:tab/>" {
			return " "
		}
		return "\n"
	})
	content = xmlTag.ReplaceAllString(content, "")
	r := strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
	return r.Replace(content)
}

// Normalize collapses runs of whitespace inside each line and drops blank
// lines, keeping the line structure of the resume.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
