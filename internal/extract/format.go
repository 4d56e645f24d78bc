package extract

import (
	"path/filepath"
	"strings"
)

// Format is the document family of an uploaded schedule.
type Format string

const (
	FormatSpreadsheet Format = "spreadsheet"
	FormatPDF         Format = "pdf"
	FormatWord        Format = "word"
	FormatText        Format = "text"

	// FormatLegacyWorkbook is a BIFF .xls workbook. No reader is registered for it.
	FormatLegacyWorkbook Format = "legacy_workbook"
)

// FormatFromFilename picks a format from the file extension. Unknown extensions are read as text.
func FormatFromFilename(filename string) Format {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")) {
	case "xlsx":
		return FormatSpreadsheet
	case "xls":
		return FormatLegacyWorkbook
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatWord
	default:
		return FormatText
	}
}

func (f Format) String() string { return string(f) }
