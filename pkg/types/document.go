package types

// Document keys defined for every schema version.
const (
	VersionKey = "v"
	TreesKey   = "trees"
)

// DefaultVersion is the version tag used by the fallback document.
const DefaultVersion = "0.1-alpha"

// Interchange file conventions for .vinv files.
const (
	FileExtension = ".vinv"
	MediaType     = "application/json"
)

// Document is a virtual inventory: a JSON object holding the version tag
// under "v", the tree record table under "trees", and any other sections
// the version's root schema allows.
//
// Values are JSON-shaped: map[string]any, []any, string, bool, nil and
// json.Number (or float64) for numbers.
type Document map[string]any

// DefaultDocument returns the minimal fallback document.
func DefaultDocument() Document {
	return Document{VersionKey: DefaultVersion}
}

// Version returns the version tag. The boolean is false when "v" is absent,
// not a string, or empty.
func (d Document) Version() (string, bool) {
	v, ok := d[VersionKey].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Records returns the id-to-attributes mapping of the record table, or nil
// if the document has no table yet. The returned map is the document's own;
// callers must not modify it.
func (d Document) Records() map[string]any {
	table, ok := d[TreesKey].([]any)
	if !ok || len(table) == 0 {
		return nil
	}
	m, _ := table[0].(map[string]any)
	return m
}

// RecordCount returns the number of records in the table.
func (d Document) RecordCount() int {
	return len(d.Records())
}

// NewRecordTable returns an empty record table: the id mapping paired with
// the positional list that accompanies it.
func NewRecordTable() []any {
	return []any{map[string]any{}, []any{}}
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return cloneValue(map[string]any(d)).(map[string]any)
}

// CloneValue deep-copies a JSON-shaped value.
func CloneValue(v any) any {
	return cloneValue(v)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = cloneValue(vv)
		}
		return out
	case Document:
		return Document(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}
