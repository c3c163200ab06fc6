package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
)

// TextParser parses plain-text files. Input is coerced to valid UTF-8 and
// a leading byte-order mark is stripped.
type TextParser struct{}

var _ Parser = (*TextParser)(nil)

// Parse returns the file contents as plain text.
func (p *TextParser) Parse(_ context.Context, _ string, data []byte) (*ParsedContent, error) {
	text := strings.ToValidUTF8(string(data), "")
	text = strings.TrimPrefix(text, "﻿")
	text = strings.ReplaceAll(text, "\x00", "")

	return &ParsedContent{
		Kind:      KindPlainText,
		PlainText: text,
	}, nil
}

// CSVParser parses comma- and tab-separated files into a single worksheet.
// The first record becomes the header row. Records may have varying field
// counts.
type CSVParser struct{}

var _ Parser = (*CSVParser)(nil)

// Parse reads all records from the file. The worksheet is named after the
// file without its extension.
func (p *CSVParser) Parse(_ context.Context, filename string, data []byte) (*ParsedContent, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if normalizeExt(filename) == "tsv" {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedContent, err)
	}

	sheet := Worksheet{
		Name: strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
	}
	if len(records) > 0 {
		sheet.Headers = records[0]
		sheet.Rows = records[1:]
	}

	return &ParsedContent{
		Kind:       KindWorksheets,
		Worksheets: []Worksheet{sheet},
	}, nil
}
