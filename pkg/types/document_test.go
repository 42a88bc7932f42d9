package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDocument(t *testing.T) {
	d := DefaultDocument()
	v, ok := d.Version()
	require.True(t, ok)
	assert.Equal(t, DefaultVersion, v)
	assert.Nil(t, d.Records())
	assert.Zero(t, d.RecordCount())
}

func TestDocumentVersion(t *testing.T) {
	tests := []struct {
		name   string
		doc    Document
		want   string
		wantOK bool
	}{
		{name: "present", doc: Document{"v": "0.1-alpha"}, want: "0.1-alpha", wantOK: true},
		{name: "absent", doc: Document{}, wantOK: false},
		{name: "empty string", doc: Document{"v": ""}, wantOK: false},
		{name: "not a string", doc: Document{"v": 1.0}, wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.doc.Version()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentRecords(t *testing.T) {
	table := NewRecordTable()
	table[0].(map[string]any)["t1"] = map[string]any{"species": "Oak"}
	d := Document{"v": "0.1-alpha", "trees": table}

	recs := d.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{"species": "Oak"}, recs["t1"])
	assert.Equal(t, 1, d.RecordCount())
}

func TestDocumentRecordsMalformedTable(t *testing.T) {
	assert.Nil(t, Document{"trees": "nope"}.Records())
	assert.Nil(t, Document{"trees": []any{}}.Records())
	assert.Nil(t, Document{"trees": []any{[]any{}}}.Records())
}

func TestDocumentCloneIsDeep(t *testing.T) {
	table := NewRecordTable()
	table[0].(map[string]any)["t1"] = map[string]any{"species": "Oak"}
	d := Document{"v": "0.1-alpha", "trees": table}

	c := d.Clone()
	require.Equal(t, d, c)

	c.Records()["t2"] = map[string]any{"species": "Ash"}
	c.Records()["t1"].(map[string]any)["species"] = "Elm"

	assert.Len(t, d.Records(), 1)
	assert.Equal(t, "Oak", d.Records()["t1"].(map[string]any)["species"])
}

func TestSourceConstructors(t *testing.T) {
	assert.Equal(t, SourceNone, NoSource().Kind)

	s := FromString(`{"v":"0.1-alpha"}`)
	assert.Equal(t, SourceText, s.Kind)
	assert.Equal(t, []byte(`{"v":"0.1-alpha"}`), s.Text)

	d := FromDocument(Document{"v": "x"})
	assert.Equal(t, SourceDocument, d.Kind)
	assert.Equal(t, "document", d.Kind.String())
}
