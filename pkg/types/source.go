package types

// SourceKind enumerates the inputs Initialize accepts.
type SourceKind int

// Source kinds.
const (
	SourceNone SourceKind = iota
	SourceText
	SourceDocument
)

// String returns the kind name used in diagnostics.
func (k SourceKind) String() string {
	switch k {
	case SourceNone:
		return "none"
	case SourceText:
		return "text"
	case SourceDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Source is the construction input of an inventory: raw interchange text,
// an already structured Document, or nothing at all.
type Source struct {
	Kind     SourceKind
	Text     []byte
	Document Document
}

// NoSource selects the default document.
func NoSource() Source {
	return Source{Kind: SourceNone}
}

// FromText wraps interchange-encoded text.
func FromText(data []byte) Source {
	return Source{Kind: SourceText, Text: data}
}

// FromString wraps interchange-encoded text given as a string.
func FromString(s string) Source {
	return FromText([]byte(s))
}

// FromDocument wraps a structured document.
func FromDocument(d Document) Source {
	return Source{Kind: SourceDocument, Document: d}
}
