package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/vinv-group/vinv-go/pkg/types"
)

// Ref names the schema a value is validated against: either a logical name
// of the bound set or an inline schema document.
type Ref struct {
	name   string
	inline map[string]any
}

// Named refers to a schema of the bound set by logical name.
func Named(name string) Ref {
	return Ref{name: name}
}

// Inline refers to an ad-hoc schema, typically {"$ref": "trees.json"}.
// Relative references resolve against the definitions of the bound set.
func Inline(doc map[string]any) Ref {
	return Ref{inline: doc}
}

// String returns the logical name, or a short form of the inline schema.
func (r Ref) String() string {
	if r.inline == nil {
		return r.name
	}
	if ref, ok := r.inline["$ref"].(string); ok && len(r.inline) == 1 {
		return "$ref:" + ref
	}
	return "inline"
}

// Result is the outcome of one validation.
type Result struct {
	Valid  bool
	Issues types.Issues
}

// Validator checks values against the schemas of a Registry. It keeps no
// state between calls.
type Validator struct {
	registry *Registry
	printer  *message.Printer
}

// NewValidator returns a validator over r.
func NewValidator(r *Registry) *Validator {
	return &Validator{
		registry: r,
		printer:  message.NewPrinter(language.English),
	}
}

// Validate checks value against ref and collects every violation. The error
// is non-nil only when the schema cannot be resolved or evaluated; a
// non-conforming value yields Result.Valid == false with Issues.
func (v *Validator) Validate(ref Ref, value any) (Result, error) {
	sch, err := v.registry.compiled(ref)
	if err != nil {
		return Result{}, err
	}
	err = sch.Validate(value)
	if err == nil {
		return Result{Valid: true}, nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return Result{}, fmt.Errorf("validate against %s: %w", ref, err)
	}
	iss := v.collect(ve, nil)
	sort.SliceStable(iss, func(i, j int) bool {
		if iss[i].Path != iss[j].Path {
			return iss[i].Path < iss[j].Path
		}
		return iss[i].Keyword < iss[j].Keyword
	})
	return Result{Valid: false, Issues: iss}, nil
}

// collect flattens the error tree into its leaves.
func (v *Validator) collect(e *jsonschema.ValidationError, out types.Issues) types.Issues {
	if len(e.Causes) == 0 {
		return append(out, types.Issue{
			Path:    jsonPointer(e.InstanceLocation),
			Keyword: strings.Join(e.ErrorKind.KeywordPath(), "/"),
			Message: e.ErrorKind.LocalizedString(v.printer),
			Schema:  e.SchemaURL,
		})
	}
	for _, c := range e.Causes {
		out = v.collect(c, out)
	}
	return out
}

func jsonPointer(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, tok := range tokens {
		b.WriteByte('/')
		tok = strings.ReplaceAll(tok, "~", "~0")
		tok = strings.ReplaceAll(tok, "/", "~1")
		b.WriteString(tok)
	}
	return b.String()
}

// TreeEnvelope wraps a record schema as a single "tree" property, the shape
// form builders expect.
func TreeEnvelope(record any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"tree": record,
		},
	}
}
