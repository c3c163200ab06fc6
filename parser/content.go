package parser

import (
	"fmt"
	"strings"
)

// ContentKind discriminates the payload held by a ParsedContent.
type ContentKind int

const (
	// KindPlainText carries unstructured text.
	KindPlainText ContentKind = iota + 1
	// KindPages carries page-oriented content (PDF, Word).
	KindPages
	// KindSlides carries slide-oriented content (presentations).
	KindSlides
	// KindWorksheets carries tabular content (spreadsheets, CSV).
	KindWorksheets
)

// Page is one page of a paginated document.
type Page struct {
	Number int
	Text   string
}

// Slide is one slide of a presentation.
type Slide struct {
	Number int
	Title  string
	Text   string
}

// Worksheet is one sheet of tabular data.
type Worksheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// ParsedContent is the typed result of parsing one file. Exactly one payload
// is meaningful, selected by Kind.
type ParsedContent struct {
	Kind       ContentKind
	PlainText  string
	Pages      []Page
	Slides     []Slide
	Worksheets []Worksheet
}

// Text flattens the payload into plain text for chunking and embedding.
// The switch is exhaustive over ContentKind; an unknown kind yields an empty
// string, which callers treat as "no text content".
func (p *ParsedContent) Text() string {
	if p == nil {
		return ""
	}

	switch p.Kind {
	case KindPlainText:
		return strings.TrimSpace(p.PlainText)

	case KindPages:
		parts := make([]string, 0, len(p.Pages))
		for _, page := range p.Pages {
			text := strings.TrimSpace(page.Text)
			if text == "" {
				continue
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, "\n\n")

	case KindSlides:
		parts := make([]string, 0, len(p.Slides))
		for _, slide := range p.Slides {
			var sb strings.Builder
			title := strings.TrimSpace(slide.Title)
			text := strings.TrimSpace(slide.Text)
			if title == "" && text == "" {
				continue
			}
			fmt.Fprintf(&sb, "Slide %d", slide.Number)
			if title != "" {
				sb.WriteString(": ")
				sb.WriteString(title)
			}
			if text != "" {
				sb.WriteString("\n")
				sb.WriteString(text)
			}
			parts = append(parts, sb.String())
		}
		return strings.Join(parts, "\n\n")

	case KindWorksheets:
		parts := make([]string, 0, len(p.Worksheets))
		for _, sheet := range p.Worksheets {
			if len(sheet.Headers) == 0 && len(sheet.Rows) == 0 {
				continue
			}
			var sb strings.Builder
			if sheet.Name != "" {
				fmt.Fprintf(&sb, "Sheet: %s\n", sheet.Name)
			}
			if len(sheet.Headers) > 0 {
				sb.WriteString(strings.Join(sheet.Headers, "\t"))
				sb.WriteString("\n")
			}
			for _, row := range sheet.Rows {
				sb.WriteString(strings.Join(row, "\t"))
				sb.WriteString("\n")
			}
			parts = append(parts, strings.TrimSpace(sb.String()))
		}
		return strings.Join(parts, "\n\n")
	}

	return ""
}
