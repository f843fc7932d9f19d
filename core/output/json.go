package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter writes the document as JSON
type JSONFormatter struct {
	Indent bool
}

// Format returns FormatJSON
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// Render encodes the document
func (f *JSONFormatter) Render(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}
