package schema

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/vinv-group/vinv-go/pkg/types"
)

// Handle is a schema resolved within the bound set.
type Handle struct {
	Name   string
	URL    string
	path   string
	doc    any
	schema *jsonschema.Schema
}

// Document returns a copy of the schema document.
func (h *Handle) Document() any {
	return types.CloneValue(h.doc)
}

// Registry binds one schema set at a time and resolves logical names
// against it. A Registry is not safe for concurrent use.
type Registry struct {
	catalog *Catalog
	bound   *boundSet
}

// boundSet is the compiled form of one Set. It is never modified after Bind
// installs it, apart from the inline cache.
type boundSet struct {
	set      *Set
	compiler *jsonschema.Compiler
	handles  map[string]*Handle
	byPath   map[string]*Handle
	inline   map[string]*jsonschema.Schema
}

// NewRegistry returns an unbound registry over catalog.
func NewRegistry(catalog *Catalog) *Registry {
	return &Registry{catalog: catalog}
}

// Bind compiles the set for version and installs it in place of the current
// one. On error the previous binding is kept.
// Returns ErrUnsupportedVersion if the catalog has no set for version.
func (r *Registry) Bind(version string) error {
	set, ok := r.catalog.Lookup(version)
	if !ok {
		return fmt.Errorf("%w: %q", types.ErrUnsupportedVersion, version)
	}
	bs, err := compileSet(set)
	if err != nil {
		return fmt.Errorf("bind %s: %w", version, err)
	}
	r.bound = bs
	return nil
}

// Version returns the bound version tag, or "" when nothing is bound.
func (r *Registry) Version() string {
	if r.bound == nil {
		return ""
	}
	return r.bound.set.Version
}

// Names returns the logical names of the bound set.
func (r *Registry) Names() []string {
	if r.bound == nil {
		return nil
	}
	names := make([]string, 0, len(r.bound.handles))
	for n := range r.bound.handles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the schema registered under name in the bound set.
// Returns ErrUnknownSchema if nothing is bound or the name is not present.
func (r *Registry) Resolve(name string) (*Handle, error) {
	if r.bound == nil {
		return nil, fmt.Errorf("%w: %q (no schema set bound)", types.ErrUnknownSchema, name)
	}
	h, ok := r.bound.handles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", types.ErrUnknownSchema, name, r.bound.set.Version)
	}
	return h, nil
}

// compiled returns the compiled schema a Ref points at.
func (r *Registry) compiled(ref Ref) (*jsonschema.Schema, error) {
	if ref.inline == nil {
		h, err := r.Resolve(ref.name)
		if err != nil {
			return nil, err
		}
		return h.schema, nil
	}
	if r.bound == nil {
		return nil, fmt.Errorf("%w: inline schema (no schema set bound)", types.ErrUnknownSchema)
	}
	return r.bound.compileInline(ref.inline)
}

// Dereference returns a copy of the named schema with every $ref into the
// bound set replaced by the referenced document. Cyclic references are left
// in place.
func (r *Registry) Dereference(name string) (any, error) {
	h, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	visited := map[string]bool{h.path: true}
	return r.bound.deref(types.CloneValue(h.doc), path.Dir(h.path), visited), nil
}

func compileSet(set *Set) (*boundSet, error) {
	c := jsonschema.NewCompiler()
	c.DefaultDraft(jsonschema.Draft7)
	c.AssertFormat()
	bs := &boundSet{
		set:      set,
		compiler: c,
		handles:  make(map[string]*Handle, len(set.Resources)),
		byPath:   make(map[string]*Handle, len(set.Resources)),
		inline:   make(map[string]*jsonschema.Schema),
	}
	for _, res := range set.Resources {
		if err := c.AddResource(set.URL(res), res.Doc); err != nil {
			return nil, fmt.Errorf("add %s: %w", res.Path, err)
		}
	}
	for _, res := range set.Resources {
		url := set.URL(res)
		sch, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", res.Path, err)
		}
		h := &Handle{Name: res.Name, URL: url, path: res.Path, doc: res.Doc, schema: sch}
		bs.handles[res.Name] = h
		bs.byPath[res.Path] = h
	}
	return bs, nil
}

// compileInline compiles an ad-hoc schema placed next to the definitions so
// that relative references such as "trees.json" resolve within the set.
func (bs *boundSet) compileInline(doc map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode inline schema: %w", err)
	}
	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:8])
	if sch, ok := bs.inline[key]; ok {
		return sch, nil
	}
	norm, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode inline schema: %w", err)
	}
	url := baseURL + bs.set.Version + "/definitions/inline-" + key + ".json"
	if err := bs.compiler.AddResource(url, norm); err != nil {
		return nil, fmt.Errorf("add inline schema: %w", err)
	}
	sch, err := bs.compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile inline schema: %w", err)
	}
	bs.inline[key] = sch
	return sch, nil
}

func (bs *boundSet) deref(node any, dir string, visited map[string]bool) any {
	switch t := node.(type) {
	case map[string]any:
		for k, v := range t {
			t[k] = bs.deref(v, dir, visited)
		}
		ref, ok := t["$ref"].(string)
		if !ok || strings.HasPrefix(ref, "#") || strings.Contains(ref, "://") {
			return t
		}
		target := path.Clean(path.Join(dir, ref))
		h, found := bs.byPath[target]
		if !found || visited[target] {
			return t
		}
		visited[target] = true
		resolved := bs.deref(types.CloneValue(h.doc), path.Dir(target), visited)
		delete(visited, target)
		m, ok := resolved.(map[string]any)
		if !ok {
			return t
		}
		delete(t, "$ref")
		delete(m, "$schema")
		for k, v := range m {
			if _, exists := t[k]; !exists {
				t[k] = v
			}
		}
		return t
	case []any:
		for i := range t {
			t[i] = bs.deref(t[i], dir, visited)
		}
		return t
	default:
		return node
	}
}
